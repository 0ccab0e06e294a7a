// Copyright (c) 2019, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"fmt"

	"github.com/emer/emergent/env"
	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"
)

// ErrNoAction is returned when EmerEnv steps without an action.
var ErrNoAction = ierrors.New("no action set")

// EmerEnv runs a SingleAgentEnv in the Init / Action / Step / State loop
// of emergent environments.  The first Step resets the adapter, every
// later Step applies the tensor given to Action.  States are "Obs",
// "Reward" and "Done", all (NumEnvs, -1).
type EmerEnv struct {
	Nm      string         `desc:"name of this environment"`
	Dsc     string         `desc:"description of this environment"`
	Env     SingleAgentEnv `desc:"the adapter being driven"`
	Run     env.Ctr        `view:"inline" desc:"current run"`
	Obs     etensor.Tensor `inactive:"+" desc:"last observation"`
	Reward  etensor.Tensor `inactive:"+" desc:"last reward"`
	Done    etensor.Tensor `inactive:"+" desc:"last done mask"`
	Info    map[string]any `inactive:"+" desc:"last info"`
	Err     error          `inactive:"+" desc:"error of the last Step"`
	act     etensor.Tensor
	started bool
}

// NewEmerEnv drives sa under name.
func NewEmerEnv(name string, sa SingleAgentEnv) *EmerEnv {
	return &EmerEnv{Nm: name, Dsc: fmt.Sprintf("%s adapter", sa.Kind().Code()), Env: sa}
}

func (ev *EmerEnv) Name() string { return ev.Nm }
func (ev *EmerEnv) Desc() string { return ev.Dsc }

// String returns the current state as a string
func (ev *EmerEnv) String() string {
	ep, _, _ := ev.Counter(env.Episode)
	tk, _, _ := ev.Counter(env.Tick)
	return fmt.Sprintf("Run %d Episode %d Tick %d", ev.Run.Cur, ep, tk)
}

func (ev *EmerEnv) Validate() error {
	if ev.Env == nil {
		return ierrors.Errorf("EmerEnv %q: no adapter", ev.Nm)
	}
	return nil
}

func (ev *EmerEnv) Init(run int) {
	ev.Run.Scale = env.Run
	ev.Run.Init()
	ev.Run.Cur = run
	ev.started = false
	ev.act = nil
	ev.Err = nil
}

// Step resets on the first call and otherwise applies the pending action.
// It returns false, with Err set, when the adapter fails.
func (ev *EmerEnv) Step() bool {
	if !ev.started {
		ev.Obs, ev.Info, ev.Err = ev.Env.Reset()
		if ev.Err != nil {
			return false
		}
		n := ev.Env.NumEnvs()
		ev.Reward = etensor.NewFloat32([]int{n, 1}, nil, nil)
		ev.Done = etensor.NewInt8([]int{n, 1}, nil, nil)
		ev.started = true
		return true
	}
	if ev.act == nil {
		ev.Err = ErrNoAction
		return false
	}
	obs, rew, done, info, err := ev.Env.Step(ev.act)
	ev.act = nil
	if err != nil {
		ev.Err = err
		return false
	}
	ev.Obs, ev.Reward, ev.Done, ev.Info, ev.Err = obs, rew, done, info, nil
	return true
}

func (ev *EmerEnv) States() env.Elements {
	n := ev.Env.NumEnvs()
	els := env.Elements{
		{Name: "Obs", Shape: []int{n, ev.Env.ObservationSpace().Flatdim()}, DimNames: []string{"Env", "Feature"}},
		{Name: "Reward", Shape: []int{n, 1}, DimNames: []string{"Env", "1"}},
		{Name: "Done", Shape: []int{n, 1}, DimNames: []string{"Env", "1"}},
	}
	return els
}

func (ev *EmerEnv) State(element string) etensor.Tensor {
	switch element {
	case "Obs":
		return ev.Obs
	case "Reward":
		return ev.Reward
	case "Done":
		return ev.Done
	}
	return nil
}

func (ev *EmerEnv) Counters() []env.TimeScales {
	return []env.TimeScales{env.Run, env.Episode, env.Tick}
}

func (ev *EmerEnv) Counter(scale env.TimeScales) (cur, prv int, chg bool) {
	if scale == env.Run {
		return ev.Run.Query()
	}
	return ev.Env.Counter(scale)
}

func (ev *EmerEnv) Actions() env.Elements {
	els := env.Elements{
		{Name: "Action", Shape: []int{ev.Env.NumEnvs(), ev.Env.ActionSpace().Flatdim()}, DimNames: []string{"Env", "Action"}},
	}
	return els
}

// Action sets the actions applied by the next Step.
func (ev *EmerEnv) Action(element string, input etensor.Tensor) {
	ev.act = input
}
