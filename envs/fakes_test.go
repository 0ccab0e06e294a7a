// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"github.com/emer/etable/etensor"

	"github.com/ccnlab/envwrap/spaces"
)

// fakeGym is a vectorized gym backend whose observations hold the number
// of steps taken.
type fakeGym struct {
	numEnvs  int
	obsSpace spaces.Space
	actSpace spaces.Space
	resets   int
	steps    int
	closes   int
	action   any
}

func newFakeGym(numEnvs int) *fakeGym {
	return &fakeGym{
		numEnvs:  numEnvs,
		obsSpace: spaces.NewBox(-1, 1, []int{3}, etensor.FLOAT32),
		actSpace: spaces.NewDiscrete(2),
	}
}

func (f *fakeGym) obs() []float64 {
	out := make([]float64, f.numEnvs*f.obsSpace.Flatdim())
	for i := range out {
		out[i] = float64(f.steps)
	}
	return out
}

func (f *fakeGym) Reset() (any, error) {
	f.resets++
	f.steps = 0
	return f.obs(), nil
}

func (f *fakeGym) Step(action any) (obs, reward, done any, info map[string]any, err error) {
	f.steps++
	f.action = action
	rew := make([]float64, f.numEnvs)
	dn := make([]bool, f.numEnvs)
	for i := range rew {
		rew[i] = float64(i)
		dn[i] = i%2 == 1
	}
	return f.obs(), rew, dn, map[string]any{"steps": f.steps}, nil
}

func (f *fakeGym) ObservationSpace() spaces.Space { return f.obsSpace }
func (f *fakeGym) ActionSpace() spaces.Space      { return f.actSpace }
func (f *fakeGym) NumEnvs() int                   { return f.numEnvs }

func (f *fakeGym) Close() error {
	f.closes++
	return nil
}

// renderGym adds rendering to fakeGym.
type renderGym struct {
	*fakeGym
	renders int
	opts    []any
}

func (f *renderGym) Render(opts ...any) error {
	f.renders++
	f.opts = opts
	return nil
}

// fakeDM is a two-step dm backend.
type fakeDM struct {
	steps  int
	action any
}

func (f *fakeDM) ObservationSpec() any {
	return SpecDict{
		"vel": &ArraySpec{Shape: []int{1}, DType: etensor.FLOAT64},
		"pos": &BoundedArraySpec{
			ArraySpec: ArraySpec{Shape: []int{2}, DType: etensor.FLOAT32},
			Minimum:   []float64{-1},
			Maximum:   []float64{1},
		},
	}
}

func (f *fakeDM) ActionSpec() any {
	return &DiscreteArraySpec{NumValues: 3, DType: etensor.INT64}
}

func (f *fakeDM) observation() map[string]any {
	return map[string]any{
		"pos": []float64{0.5, -0.5},
		"vel": []float64{float64(f.steps)},
	}
}

func (f *fakeDM) Reset() (TimeStep, error) {
	f.steps = 0
	return TimeStep{Type: StepFirst, Observation: f.observation()}, nil
}

func (f *fakeDM) Step(action any) (TimeStep, error) {
	f.steps++
	f.action = action
	ts := TimeStep{Type: StepMid, Observation: f.observation()}
	if f.steps >= 2 {
		ts.Type = StepLast
		ts.Reward = 1.5
	}
	return ts, nil
}

// fakeVecTask is a batched backend counting its native resets.
type fakeVecTask struct {
	numEnvs int
	resets  int
	steps   int
	action  etensor.Tensor
}

func (f *fakeVecTask) buffer() *etensor.Float32 {
	obs := etensor.NewFloat32([]int{f.numEnvs, 4}, nil, nil)
	for i := range obs.Values {
		obs.Values[i] = float32(f.resets*100 + f.steps*10 + i)
	}
	return obs
}

func (f *fakeVecTask) step(actions etensor.Tensor) (rew, reset etensor.Tensor) {
	f.steps++
	f.action = actions
	r := etensor.NewFloat32([]int{f.numEnvs}, nil, nil)
	d := etensor.NewInt64([]int{f.numEnvs}, nil, nil)
	for i := range r.Values {
		r.Values[i] = 0.5
	}
	d.Values[0] = 1
	return r, d
}

func (f *fakeVecTask) ObservationSpace() spaces.Space {
	return spaces.NewBox(-10, 10, []int{4}, etensor.FLOAT32)
}

func (f *fakeVecTask) ActionSpace() spaces.Space {
	return spaces.NewBox(-1, 1, []int{2}, etensor.FLOAT32)
}

func (f *fakeVecTask) NumEnvs() int { return f.numEnvs }

// flatVecTask returns a flat observation buffer.
type flatVecTask struct{ fakeVecTask }

func (f *flatVecTask) Reset() (etensor.Tensor, error) {
	f.resets++
	return f.buffer(), nil
}

func (f *flatVecTask) Step(actions etensor.Tensor) (obs, reward, reset etensor.Tensor, info map[string]any, err error) {
	rew, rst := f.step(actions)
	return f.buffer(), rew, rst, nil, nil
}

// dictVecTask returns a dict of buffers under key.
type dictVecTask struct {
	fakeVecTask
	key string
}

func (f *dictVecTask) Reset() (map[string]etensor.Tensor, error) {
	f.resets++
	return map[string]etensor.Tensor{f.key: f.buffer()}, nil
}

func (f *dictVecTask) Step(actions etensor.Tensor) (obs map[string]etensor.Tensor, reward, reset etensor.Tensor, info map[string]any, err error) {
	rew, rst := f.step(actions)
	return map[string]etensor.Tensor{f.key: f.buffer()}, rew, rst, map[string]any{"ok": true}, nil
}

// omniVecTask is a dictVecTask that owns its simulation loop.
type omniVecTask struct {
	dictVecTask
	runs   int
	closes int
}

func (f *omniVecTask) Run(trainer Trainer) error {
	f.runs++
	return trainer.Run()
}

func (f *omniVecTask) Close() error {
	f.closes++
	return nil
}

// trainerFunc adapts a function to Trainer.
type trainerFunc func() error

func (f trainerFunc) Run() error { return f() }

// fakeParallel is a multi-agent backend.  The last possible agent finishes
// on the first step.
type fakeParallel struct {
	possible  []string
	active    []string
	obsSpaces map[string]spaces.Space
	resets    int
	actions   map[string]any
	noInfos   bool
}

func newFakeParallel(n, feat int) *fakeParallel {
	f := &fakeParallel{obsSpaces: map[string]spaces.Space{}}
	for i := 0; i < n; i++ {
		uid := "agent_" + string(rune('0'+i))
		f.possible = append(f.possible, uid)
		f.obsSpaces[uid] = spaces.NewBox(-1, 1, []int{feat}, etensor.FLOAT32)
	}
	return f
}

func (f *fakeParallel) observe(agents []string) map[string]any {
	obs := make(map[string]any, len(agents))
	for i, uid := range agents {
		v := make([]float32, f.obsSpaces[uid].Flatdim())
		for j := range v {
			v[j] = float32(i + 1)
		}
		obs[uid] = v
	}
	return obs
}

func (f *fakeParallel) PossibleAgents() []string { return f.possible }
func (f *fakeParallel) Agents() []string         { return f.active }

func (f *fakeParallel) AgentObservationSpace(agent string) spaces.Space { return f.obsSpaces[agent] }
func (f *fakeParallel) AgentActionSpace(agent string) spaces.Space      { return spaces.NewDiscrete(4) }

func (f *fakeParallel) Reset() (obs map[string]any, infos map[string]any, err error) {
	f.resets++
	f.active = append([]string(nil), f.possible...)
	if f.noInfos {
		return f.observe(f.active), nil, nil
	}
	infos = map[string]any{}
	for _, uid := range f.active {
		infos[uid] = map[string]any{"upstream": true}
	}
	return f.observe(f.active), infos, nil
}

func (f *fakeParallel) Step(actions map[string]any) (obs, rewards, terminated, truncated map[string]any, infos map[string]any, err error) {
	f.actions = actions
	rewards = map[string]any{}
	terminated = map[string]any{}
	truncated = map[string]any{}
	infos = map[string]any{}
	last := f.possible[len(f.possible)-1]
	for _, uid := range f.active {
		rewards[uid] = 1.0
		terminated[uid] = uid == last
		truncated[uid] = false
		infos[uid] = map[string]any{}
	}
	f.active = f.active[:len(f.active)-1]
	return f.observe(f.active), rewards, terminated, truncated, infos, nil
}
