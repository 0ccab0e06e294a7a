// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io"
	"os"
	"strconv"

	"github.com/iotaledger/hive.go/ierrors"
	"gopkg.in/yaml.v3"

	"github.com/ccnlab/envwrap/envs"
)

// Backends are the gridworld views the demo can wrap.
const (
	BackendSingle   = "single"
	BackendParallel = "parallel"
	BackendDM       = "dm"
	BackendVec      = "vec"
	BackendDictVec  = "dictvec"
	BackendOmni     = "omniverse"
)

var backends = []string{BackendSingle, BackendParallel, BackendDM, BackendVec, BackendDictVec, BackendOmni}

// ErrBadConfig is returned for a run configuration that cannot be used.
var ErrBadConfig = ierrors.New("bad run config")

// Config is one rollout run.
type Config struct {
	Backend  string `yaml:"backend"`
	Kind     string `yaml:"kind"`
	NumEnvs  int    `yaml:"num_envs"`
	Agents   int    `yaml:"agents"`
	Steps    int    `yaml:"steps"`
	MaxSteps int    `yaml:"max_steps"`
	Seed     int64  `yaml:"seed"`
	World    string `yaml:"world"`
	LogFile  string `yaml:"log_file"`
	Render   bool   `yaml:"render"`
	Verbose  bool   `yaml:"verbose"`
}

// DefaultConfig is a short single-agent run on the built-in layout.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendSingle,
		Kind:     envs.Auto.Code(),
		NumEnvs:  1,
		Agents:   1,
		Steps:    200,
		MaxSteps: 50,
		Seed:     1,
	}
}

// LoadConfig reads a YAML run file over the defaults.  Unknown keys are an
// error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, ierrors.Wrapf(err, "read config %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !ierrors.Is(err, io.EOF) {
		return cfg, ierrors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ENVWRAP_* variables found by lookup.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ENVWRAP_BACKEND"); ok {
		cfg.Backend = v
	}
	if v, ok := lookup("ENVWRAP_KIND"); ok {
		cfg.Kind = v
	}
	if v, ok := lookup("ENVWRAP_WORLD"); ok {
		cfg.World = v
	}
	if v, ok := lookup("ENVWRAP_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"ENVWRAP_NUM_ENVS", &cfg.NumEnvs},
		{"ENVWRAP_AGENTS", &cfg.Agents},
		{"ENVWRAP_STEPS", &cfg.Steps},
		{"ENVWRAP_MAX_STEPS", &cfg.MaxSteps},
	}
	for _, iv := range ints {
		v, ok := lookup(iv.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return ierrors.Wrapf(ErrBadConfig, "%s=%q", iv.key, v)
		}
		*iv.dst = n
	}
	if v, ok := lookup("ENVWRAP_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ierrors.Wrapf(ErrBadConfig, "ENVWRAP_SEED=%q", v)
		}
		cfg.Seed = n
	}
	return nil
}

// Validate checks the run and returns the parsed adapter kind.
func (cfg *Config) Validate() (envs.Kind, error) {
	kind, err := envs.ParseKind(cfg.Kind)
	if err != nil {
		return kind, err
	}
	known := false
	for _, b := range backends {
		known = known || b == cfg.Backend
	}
	switch {
	case !known:
		return kind, ierrors.Wrapf(ErrBadConfig, "unknown backend %q, want one of %v", cfg.Backend, backends)
	case cfg.NumEnvs < 1:
		return kind, ierrors.Wrapf(ErrBadConfig, "num_envs %d", cfg.NumEnvs)
	case cfg.Agents < 1:
		return kind, ierrors.Wrapf(ErrBadConfig, "agents %d", cfg.Agents)
	case cfg.Steps < 0:
		return kind, ierrors.Wrapf(ErrBadConfig, "steps %d", cfg.Steps)
	}
	return kind, nil
}
