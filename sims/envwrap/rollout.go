// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/emer/etable/agg"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ccnlab/envwrap/envs"
	"github.com/ccnlab/envwrap/sims/gridworld"
	"github.com/ccnlab/envwrap/spaces"
)

// NewBackend builds the gridworld view named by cfg.Backend.
func NewBackend(cfg Config, out io.Writer) (any, error) {
	ev := gridworld.Env{}
	ev.Defaults()
	ev.MaxSteps = cfg.MaxSteps
	ev.File = cfg.World
	switch cfg.Backend {
	case BackendSingle:
		se, err := gridworld.NewSingleEnv(ev, cfg.NumEnvs, cfg.Seed)
		if err != nil {
			return nil, err
		}
		se.Out = out
		return se, nil
	case BackendParallel:
		ev.NAgents = cfg.Agents
		pe, err := gridworld.NewParallelEnv(ev, cfg.Seed)
		if err != nil {
			return nil, err
		}
		pe.Out = out
		return pe, nil
	case BackendDM:
		de, err := gridworld.NewDMEnv(ev, cfg.Seed)
		if err != nil {
			return nil, err
		}
		de.Out = out
		return de, nil
	case BackendVec:
		ve, err := gridworld.NewVecEnv(ev, cfg.NumEnvs, cfg.Seed)
		if err != nil {
			return nil, err
		}
		return ve, nil
	case BackendDictVec:
		dv, err := gridworld.NewDictVecEnv(ev, cfg.NumEnvs, cfg.Seed)
		if err != nil {
			return nil, err
		}
		return dv, nil
	case BackendOmni:
		oe, err := gridworld.NewOmniverseEnv(ev, cfg.NumEnvs, cfg.Seed)
		if err != nil {
			return nil, err
		}
		return oe, nil
	}
	return nil, ierrors.Wrapf(ErrBadConfig, "unknown backend %q", cfg.Backend)
}

// Stats summarizes a rollout.
type Stats struct {
	Steps    int                 `desc:"steps taken"`
	Episodes int                 `desc:"finished episodes, summed over envs and agents"`
	Return   gridworld.CurPrvVel `desc:"return of the last two finished episodes"`
	Log      *etable.Table       `view:"no-inline" desc:"one row per finished episode"`
}

// NewStats returns empty stats with an EpisodeLog table.
func NewStats() *Stats {
	dt := &etable.Table{}
	dt.SetMetaData("name", "EpisodeLog")
	dt.SetMetaData("desc", "Record of every finished episode")
	dt.SetFromSchema(etable.Schema{
		{Name: "Episode", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Source", Type: etensor.STRING, CellShape: nil, DimNames: nil},
		{Name: "Length", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Return", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
	}, 0)
	return &Stats{Log: dt}
}

// Mean is the average finished episode return.
func (st *Stats) Mean() float64 {
	if st.Log.Rows == 0 {
		return 0
	}
	return agg.Agg(etable.NewIdxView(st.Log), "Return", agg.AggMean)[0]
}

func (st *Stats) finish(src string, length int, ret float64) {
	dt := st.Log
	row := dt.Rows
	dt.SetNumRows(row + 1)
	dt.SetCellFloat("Episode", row, float64(st.Episodes))
	dt.SetCellString("Source", row, src)
	dt.SetCellFloat("Length", row, float64(length))
	dt.SetCellFloat("Return", row, ret)
	st.Episodes++
	st.Return.Update(float32(ret))
}

// trainerFunc adapts a function to envs.Trainer.
type trainerFunc func() error

func (f trainerFunc) Run() error { return f() }

// Rollout drives wenv with uniformly sampled actions for steps steps.  An
// adapter that owns its simulation loop runs the rollout as its trainer.
func Rollout(wenv envs.Env, steps int, render bool, rnd *rand.Rand) (*Stats, error) {
	switch we := wenv.(type) {
	case *envs.OmniverseWrapper:
		var st *Stats
		err := we.Run(trainerFunc(func() (err error) {
			st, err = rolloutSingle(we, steps, render, rnd)
			return err
		}))
		return st, err
	case envs.SingleAgentEnv:
		return rolloutSingle(we, steps, render, rnd)
	case envs.MultiAgentEnv:
		return rolloutMulti(we, steps, render, rnd)
	}
	return nil, ierrors.Errorf("%T is neither single nor multi agent", wenv)
}

func rolloutSingle(sa envs.SingleAgentEnv, steps int, render bool, rnd *rand.Rand) (*Stats, error) {
	st := NewStats()
	if _, _, err := sa.Reset(); err != nil {
		return st, err
	}
	n := sa.NumEnvs()
	sums := make([]float64, n)
	lens := make([]int, n)
	for st.Steps < steps {
		acts, err := sampleActions(sa.ActionSpace(), n, rnd)
		if err != nil {
			return st, err
		}
		_, rew, done, _, err := sa.Step(acts)
		if err != nil {
			return st, err
		}
		st.Steps++
		for i := 0; i < n; i++ {
			sums[i] += rew.FloatVal1D(i)
			lens[i]++
			if done.FloatVal1D(i) != 0 {
				st.finish(fmt.Sprintf("env_%d", i), lens[i], sums[i])
				sums[i], lens[i] = 0, 0
			}
		}
		if render {
			if err := sa.Render(); err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

func rolloutMulti(ma envs.MultiAgentEnv, steps int, render bool, rnd *rand.Rand) (*Stats, error) {
	st := NewStats()
	if _, _, err := ma.Reset(); err != nil {
		return st, err
	}
	sums := map[string]float64{}
	lens := map[string]int{}
	spcs := ma.ActionSpaces()
	for st.Steps < steps {
		if len(ma.Agents()) == 0 {
			if _, _, err := ma.Reset(); err != nil {
				return st, err
			}
		}
		actions := map[string]etensor.Tensor{}
		for _, uid := range ma.Agents() {
			act, err := sampleActions(spcs[uid], ma.NumEnvs(), rnd)
			if err != nil {
				return st, err
			}
			actions[uid] = act
		}
		_, rewards, terminated, truncated, _, err := ma.Step(actions)
		if err != nil {
			return st, err
		}
		st.Steps++
		for uid, rew := range rewards {
			sums[uid] += rew.FloatVal1D(0)
			lens[uid]++
			if terminated[uid].FloatVal1D(0) != 0 || truncated[uid].FloatVal1D(0) != 0 {
				st.finish(uid, lens[uid], sums[uid])
				sums[uid], lens[uid] = 0, 0
			}
		}
		if render {
			if err := ma.Render(); err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

// sampleActions draws one action per env, as (n, Flatdim) rows.
func sampleActions(sp spaces.Space, n int, rnd *rand.Rand) (*etensor.Float32, error) {
	w := sp.Flatdim()
	out := etensor.NewFloat32([]int{n, w}, nil, nil)
	for i := 0; i < n; i++ {
		v, err := spaces.Sample(sp, rnd)
		if err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case int:
			out.Values[i*w] = float32(x)
		case etensor.Tensor:
			for j := 0; j < w; j++ {
				out.Values[i*w+j] = float32(x.FloatVal1D(j))
			}
		default:
			return nil, spaces.NewUnsupportedSpaceError("sample action", sp)
		}
	}
	return out, nil
}
