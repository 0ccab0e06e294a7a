// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"github.com/emer/etable/etensor"

	"github.com/ccnlab/envwrap/spaces"
)

// GymBackend is a single-agent environment.  When vectorized, obs, reward
// and done carry NumEnvs rows and Step receives one action per env as a
// []any.
type GymBackend interface {
	Reset() (obs any, err error)
	Step(action any) (obs, reward, done any, info map[string]any, err error)
	ObservationSpace() spaces.Space
	ActionSpace() spaces.Space
}

// StepType is the position of a TimeStep within an episode.
type StepType int

const (
	StepFirst StepType = iota
	StepMid
	StepLast
)

// TimeStep is the result of a DMBackend transition.  Reward and Discount
// are nil on the first step of an episode.
type TimeStep struct {
	Type        StepType
	Reward      any
	Discount    any
	Observation any
}

// First reports whether the step starts an episode.
func (ts TimeStep) First() bool { return ts.Type == StepFirst }

// Mid reports whether the step is neither first nor last.
func (ts TimeStep) Mid() bool { return ts.Type == StepMid }

// Last reports whether the step ends an episode.
func (ts TimeStep) Last() bool { return ts.Type == StepLast }

// DMBackend is a TimeStep environment described by specs (see dmspec.go)
// instead of spaces.
type DMBackend interface {
	Reset() (TimeStep, error)
	Step(action any) (TimeStep, error)
	ObservationSpec() any
	ActionSpec() any
}

// ParallelBackend is a multi-agent environment where every active agent
// acts on every step.  PossibleAgents is fixed for the lifetime of the
// environment, Agents shrinks as agents finish.  infos maps agent ids to
// per-agent info and may hold other entries.  Reset may return nil infos.
type ParallelBackend interface {
	PossibleAgents() []string
	Agents() []string
	AgentObservationSpace(agent string) spaces.Space
	AgentActionSpace(agent string) spaces.Space
	Reset() (obs map[string]any, infos map[string]any, err error)
	Step(actions map[string]any) (obs, rewards, terminated, truncated map[string]any, infos map[string]any, err error)
}

// VecTaskBackend is a batched simulator whose native reset may only run
// once; afterwards it resets finished envs itself inside Step.
type VecTaskBackend interface {
	Reset() (obs etensor.Tensor, err error)
	Step(actions etensor.Tensor) (obs, reward, reset etensor.Tensor, info map[string]any, err error)
	ObservationSpace() spaces.Space
	ActionSpace() spaces.Space
	NumEnvs() int
}

// DictVecTaskBackend is a VecTaskBackend that returns a dict of buffers,
// the observations under "obs".
type DictVecTaskBackend interface {
	Reset() (obs map[string]etensor.Tensor, err error)
	Step(actions etensor.Tensor) (obs map[string]etensor.Tensor, reward, reset etensor.Tensor, info map[string]any, err error)
	ObservationSpace() spaces.Space
	ActionSpace() spaces.Space
	NumEnvs() int
}

// Trainer drives a training loop started by an OmniverseBackend.
type Trainer interface {
	Run() error
}

// OmniverseBackend is a DictVecTaskBackend whose simulation must run on the
// calling thread: Run blocks, stepping the simulation while trainer runs
// the training loop.  Step's reset buffer is reported as termination.
type OmniverseBackend interface {
	DictVecTaskBackend
	Run(trainer Trainer) error
	Close() error
}

// Optional capabilities

type numEnvser interface {
	NumEnvs() int
}

type stateSpacer interface {
	StateSpace() spaces.Space
}

type renderer interface {
	Render(opts ...any) error
}

type closer interface {
	Close() error
}

// capability is a named structural check against an environment.
type capability struct {
	name string
	kind Kind
	has  func(env any) bool
}

// capabilities lists the adapter capability sets in selection priority
// order, followed by the optional ones that only feed the inspected set.
var capabilities = []capability{
	{"ParallelEnv", PettingZoo, func(env any) bool { _, ok := env.(ParallelBackend); return ok }},
	{"dm_env.Environment", DeepMind, func(env any) bool { _, ok := env.(DMBackend); return ok }},
	{"VecEnvBase", OmniverseIsaacGym, isOmniverse},
	{"VecTask.DictObs", IsaacGymPreview3, func(env any) bool { _, ok := env.(DictVecTaskBackend); return ok && !isOmniverse(env) }},
	{"VecTask", IsaacGymPreview2, func(env any) bool { _, ok := env.(VecTaskBackend); return ok }},
	{"gym.Env", Gym, func(env any) bool { _, ok := env.(GymBackend); return ok }},
	{"NumEnvs", Auto, func(env any) bool { _, ok := env.(numEnvser); return ok }},
	{"StateSpace", Auto, func(env any) bool { _, ok := env.(stateSpacer); return ok }},
	{"Render", Auto, func(env any) bool { _, ok := env.(renderer); return ok }},
	{"Close", Auto, func(env any) bool { _, ok := env.(closer); return ok }},
}

func isOmniverse(env any) bool { _, ok := env.(OmniverseBackend); return ok }

// Capabilities returns the names of every capability env implements.
func Capabilities(env any) []string {
	var names []string
	for _, c := range capabilities {
		if c.has(env) {
			names = append(names, c.name)
		}
	}
	return names
}

// Implements reports whether env has the capability set required by kind.
func Implements(env any, kind Kind) bool {
	for _, c := range capabilities {
		if c.kind == kind && kind != Auto {
			return c.has(env)
		}
	}
	return false
}
