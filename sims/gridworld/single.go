// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridworld

import (
	"fmt"
	"io"
	"os"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ccnlab/envwrap/spaces"
)

// ErrClosed is returned by views after Close.
var ErrClosed = ierrors.New("gridworld closed")

// SingleEnv runs NumEnvs independent single-agent worlds in lockstep.  It
// auto-resets a world as soon as its episode ends and returns the first
// observation of the new episode.
type SingleEnv struct {
	Envs   []*Env    `desc:"one world per env"`
	Out    io.Writer `desc:"Render destination, stdout if nil"`
	closed bool
}

// NewSingleEnv builds numEnvs worlds from proto, seeded seed, seed+1, ...
func NewSingleEnv(proto Env, numEnvs int, seed int64) (*SingleEnv, error) {
	if numEnvs < 1 {
		numEnvs = 1
	}
	se := &SingleEnv{Envs: make([]*Env, numEnvs)}
	for i := range se.Envs {
		ev := proto
		ev.NAgents = 1
		if err := ev.Init(seed + int64(i)); err != nil {
			return nil, err
		}
		se.Envs[i] = &ev
	}
	return se, nil
}

func (se *SingleEnv) NumEnvs() int { return len(se.Envs) }

func (se *SingleEnv) ObservationSpace() spaces.Space { return se.Envs[0].ObservationSpace() }

func (se *SingleEnv) ActionSpace() spaces.Space { return se.Envs[0].ActionSpace() }

func (se *SingleEnv) Reset() (any, error) {
	if se.closed {
		return nil, ErrClosed
	}
	for _, ev := range se.Envs {
		ev.Reset()
	}
	return se.observation(), nil
}

// Step takes one action per env: a single value when there is one env,
// otherwise a []any.
func (se *SingleEnv) Step(action any) (obs, reward, done any, info map[string]any, err error) {
	if se.closed {
		return nil, nil, nil, nil, ErrClosed
	}
	acts, err := se.actions(action)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	rews := make([]float32, len(se.Envs))
	dones := make([]bool, len(se.Envs))
	returns := make([]float32, len(se.Envs))
	for i, ev := range se.Envs {
		r, term := ev.Act(0, acts[i])
		trunc := ev.EndStep()
		rews[i] = r
		dones[i] = term || trunc
		returns[i] = ev.Agents[0].Return
		if dones[i] {
			ev.Reset()
		}
	}
	info = map[string]any{"returns": returns}
	if len(se.Envs) == 1 {
		return se.observation(), rews[0], dones[0], info, nil
	}
	return se.observation(), rews, dones, info, nil
}

func (se *SingleEnv) actions(action any) ([]Actions, error) {
	vals, ok := action.([]any)
	if !ok {
		vals = []any{action}
	}
	if len(vals) != len(se.Envs) {
		return nil, ierrors.Wrapf(ErrInvalidAction, "%d actions for %d envs", len(vals), len(se.Envs))
	}
	acts := make([]Actions, len(vals))
	for i, v := range vals {
		a, err := ToAction(v)
		if err != nil {
			return nil, ierrors.Wrapf(err, "env %d", i)
		}
		acts[i] = a
	}
	return acts, nil
}

// observation stacks the envs: pos rows then colors, one per env.
func (se *SingleEnv) observation() map[string]any {
	if len(se.Envs) == 1 {
		return se.Envs[0].Observation(0)
	}
	var pos []float32
	colors := make([]int, len(se.Envs))
	for i, ev := range se.Envs {
		pos = append(pos, ev.PosMap(0).Values...)
		colors[i] = ev.Color(0)
	}
	return map[string]any{"pos": pos, "color": colors}
}

func (se *SingleEnv) Render(opts ...any) error {
	return render(se.Out, se.Envs...)
}

func (se *SingleEnv) Close() error {
	se.closed = true
	return nil
}

func render(out io.Writer, evs ...*Env) error {
	if out == nil {
		out = os.Stdout
	}
	for _, ev := range evs {
		if _, err := fmt.Fprint(out, ev.String()); err != nil {
			return err
		}
	}
	return nil
}
