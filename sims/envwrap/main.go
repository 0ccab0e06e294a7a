// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// envwrap wraps a gridworld backend through the environment selector and
// runs a random-policy rollout on it.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/emer/etable/etable"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ccnlab/envwrap/envs"
)

func main() {
	for _, envFile := range []string{
		".env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "envwrap",
		Short:        "Run gridworld backends through the uniform environment interface",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newRunCmd(), newKindsCmd())
	return rootCmd
}

func newRunCmd() *cobra.Command {
	var cfgFile string
	flagCfg := DefaultConfig()

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Wrap a gridworld backend and roll out a random policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			if cfgFile != "" {
				var err error
				if cfg, err = LoadConfig(cfgFile); err != nil {
					return err
				}
			}
			if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flagCfg)
			return run(cmd, cfg)
		},
	}

	fl := runCmd.Flags()
	fl.StringVar(&cfgFile, "config", "", "YAML run file")
	fl.StringVar(&flagCfg.Backend, "backend", flagCfg.Backend, fmt.Sprintf("gridworld view %v", backends))
	fl.StringVar(&flagCfg.Kind, "kind", flagCfg.Kind, fmt.Sprintf("adapter kind %v", envs.KindCode))
	fl.IntVar(&flagCfg.NumEnvs, "num-envs", flagCfg.NumEnvs, "number of parallel worlds")
	fl.IntVar(&flagCfg.Agents, "agents", flagCfg.Agents, "agents in the parallel view")
	fl.IntVar(&flagCfg.Steps, "steps", flagCfg.Steps, "steps to roll out")
	fl.IntVar(&flagCfg.MaxSteps, "max-steps", flagCfg.MaxSteps, "episode length limit")
	fl.Int64Var(&flagCfg.Seed, "seed", flagCfg.Seed, "world and policy seed")
	fl.StringVar(&flagCfg.World, "world", flagCfg.World, "layout file, built-in rooms if empty")
	fl.StringVar(&flagCfg.LogFile, "log", flagCfg.LogFile, "write the episode log as TSV")
	fl.BoolVar(&flagCfg.Render, "render", flagCfg.Render, "draw the world after every step")
	fl.BoolVarP(&flagCfg.Verbose, "verbose", "v", flagCfg.Verbose, "debug logging")
	return runCmd
}

// applyFlags copies the flags given on the command line over cfg.
func applyFlags(cmd *cobra.Command, cfg *Config, fc Config) {
	fl := cmd.Flags()
	set := func(name string, apply func()) {
		if fl.Changed(name) {
			apply()
		}
	}
	set("backend", func() { cfg.Backend = fc.Backend })
	set("kind", func() { cfg.Kind = fc.Kind })
	set("num-envs", func() { cfg.NumEnvs = fc.NumEnvs })
	set("agents", func() { cfg.Agents = fc.Agents })
	set("steps", func() { cfg.Steps = fc.Steps })
	set("max-steps", func() { cfg.MaxSteps = fc.MaxSteps })
	set("seed", func() { cfg.Seed = fc.Seed })
	set("world", func() { cfg.World = fc.World })
	set("log", func() { cfg.LogFile = fc.LogFile })
	set("render", func() { cfg.Render = fc.Render })
	set("verbose", func() { cfg.Verbose = fc.Verbose })
}

func run(cmd *cobra.Command, cfg Config) error {
	kind, err := cfg.Validate()
	if err != nil {
		return err
	}
	logger := log.NewLogger()
	if cfg.Verbose {
		logger.SetLogLevel(log.LevelDebug)
	}

	backend, err := NewBackend(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	wenv, err := envs.Wrap(backend, envs.WithKind(kind), envs.WithLogger(logger))
	if err != nil {
		return err
	}
	defer wenv.Close()

	st, err := Rollout(wenv, cfg.Steps, cfg.Render, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		if err := saveLog(st, cfg.LogFile); err != nil {
			return err
		}
		logger.LogInfof("episode log written to %s", cfg.LogFile)
	}
	logger.LogInfof("%s via %s: %d steps, %d episodes", cfg.Backend, wenv.Kind().Code(), st.Steps, st.Episodes)
	fmt.Fprintf(cmd.OutOrStdout(), "backend %s kind %s steps %d episodes %d mean return %.3f last return %.3f\n",
		cfg.Backend, wenv.Kind().Code(), st.Steps, st.Episodes, st.Mean(), st.Return.Cur)
	return nil
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the adapter kinds",
		Run: func(cmd *cobra.Command, args []string) {
			for k := envs.Auto; k < envs.KindN; k++ {
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", k.Code(), k)
			}
		},
	}
}

// saveLog writes the episode log as tab separated values with headers.
func saveLog(st *Stats, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return ierrors.Wrap(err, "episode log")
	}
	defer f.Close()
	return st.Log.WriteCSV(f, etable.Tab, etable.Headers)
}
