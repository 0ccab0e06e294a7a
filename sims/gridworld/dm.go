// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridworld

import (
	"io"

	"github.com/emer/etable/etensor"

	"github.com/ccnlab/envwrap/envs"
)

// DMEnv is a single-agent TimeStep view of one world.  Stepping after the
// last step of an episode starts a new one.
type DMEnv struct {
	Env    *Env      `desc:"the world"`
	Out    io.Writer `desc:"Render destination, stdout if nil"`
	last   bool
	closed bool
}

// NewDMEnv builds the world from proto.
func NewDMEnv(proto Env, seed int64) (*DMEnv, error) {
	ev := proto
	ev.NAgents = 1
	if err := ev.Init(seed); err != nil {
		return nil, err
	}
	return &DMEnv{Env: &ev, last: true}, nil
}

func (de *DMEnv) ObservationSpec() any {
	wld := de.Env.World
	return envs.SpecDict{
		"pos": &envs.BoundedArraySpec{
			ArraySpec: envs.ArraySpec{Shape: []int{wld.Rows(), wld.Cols()}, DType: etensor.FLOAT32, Name: "pos"},
			Minimum:   []float64{0},
			Maximum:   []float64{1},
		},
		"color": &envs.DiscreteArraySpec{NumValues: de.Env.Colors, DType: etensor.INT64, Name: "color"},
	}
}

func (de *DMEnv) ActionSpec() any {
	return &envs.DiscreteArraySpec{NumValues: int(ActionsN), DType: etensor.INT64, Name: "action"}
}

func (de *DMEnv) Reset() (envs.TimeStep, error) {
	if de.closed {
		return envs.TimeStep{}, ErrClosed
	}
	de.Env.Reset()
	de.last = false
	return envs.TimeStep{Type: envs.StepFirst, Observation: de.Env.Observation(0)}, nil
}

func (de *DMEnv) Step(action any) (envs.TimeStep, error) {
	if de.closed {
		return envs.TimeStep{}, ErrClosed
	}
	if de.last {
		return de.Reset()
	}
	act, err := ToAction(action)
	if err != nil {
		return envs.TimeStep{}, err
	}
	r, term := de.Env.Act(0, act)
	trunc := de.Env.EndStep()
	ts := envs.TimeStep{Type: envs.StepMid, Reward: r, Discount: float32(1), Observation: de.Env.Observation(0)}
	if term || trunc {
		ts.Type = envs.StepLast
		de.last = true
	}
	if term {
		ts.Discount = float32(0)
	}
	return ts, nil
}

func (de *DMEnv) Render(opts ...any) error {
	return render(de.Out, de.Env)
}

func (de *DMEnv) Close() error {
	de.closed = true
	return nil
}
