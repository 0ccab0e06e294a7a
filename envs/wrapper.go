// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"fmt"

	"github.com/emer/emergent/env"
	"github.com/emer/etable/etensor"
	"github.com/google/uuid"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/log"

	"github.com/ccnlab/envwrap/codec"
	"github.com/ccnlab/envwrap/spaces"
)

// Env is the part of the uniform contract shared by every adapter.
type Env interface {
	// Kind is the adapter variant chosen at wrap time.
	Kind() Kind

	// NumEnvs is the leading dimension of every tensor crossing the
	// adapter, 1 for backends that are not vectorized.
	NumEnvs() int

	ObservationSpace() spaces.Space
	ActionSpace() spaces.Space

	// StateSpace is the backend's state space, or ObservationSpace when it
	// has none.
	StateSpace() spaces.Space

	// Render passes through to the backend, or does nothing when the
	// backend cannot render.
	Render(opts ...any) error

	// Close releases the backend.  Only the first call reaches it.
	Close() error

	// Counter returns the Episode and Tick counters.
	Counter(scale env.TimeScales) (cur, prv int, chg bool)
}

// SingleAgentEnv is implemented by the gym, dm and vec-task adapters.
type SingleAgentEnv interface {
	Env
	Reset() (obs etensor.Tensor, info map[string]any, err error)
	Step(actions etensor.Tensor) (obs, reward, done etensor.Tensor, info map[string]any, err error)
}

// MultiAgentEnv is implemented by the parallel multi-agent adapter.
type MultiAgentEnv interface {
	Env
	NumAgents() int
	PossibleAgents() []string
	Agents() []string
	ObservationSpaces() map[string]spaces.Space
	ActionSpaces() map[string]spaces.Space
	SharedObservationSpaces() map[string]spaces.Space
	Reset() (obs map[string]etensor.Tensor, infos map[string]any, err error)
	Step(actions map[string]etensor.Tensor) (obs, rewards, terminated, truncated map[string]etensor.Tensor, infos map[string]any, err error)
}

// wrapper holds the state every adapter shares.
type wrapper struct {
	kind       Kind
	id         uuid.UUID
	backend    any
	numEnvs    int
	obsSpace   spaces.Space
	actSpace   spaces.Space
	stateSpace spaces.Space
	closed     bool
	noRender   bool
	Episode    env.Ctr `view:"inline" desc:"number of backend resets"`
	Tick       env.Ctr `view:"inline" desc:"steps since the last backend reset"`
	log        log.Logger
}

func newWrapper(kind Kind, backend any, parent log.Logger) wrapper {
	wr := wrapper{
		kind:    kind,
		id:      uuid.New(),
		backend: backend,
		numEnvs: 1,
	}
	if ne, ok := backend.(numEnvser); ok {
		wr.numEnvs = ne.NumEnvs()
	}
	wr.log = lo.Return1(parent.NewChildLogger(fmt.Sprintf("%s-%s", kind.Code(), wr.id.String()[:8])))
	wr.Episode.Scale = env.Episode
	wr.Tick.Scale = env.Tick
	wr.Episode.Init()
	wr.Tick.Init()
	wr.Episode.Cur = -1 // first reset = episode 0
	return wr
}

// setSpaces records the observation / action spaces and resolves the
// state space.
func (wr *wrapper) setSpaces(obs, act spaces.Space) {
	wr.obsSpace = obs
	wr.actSpace = act
	wr.stateSpace = obs
	if ss, ok := wr.backend.(stateSpacer); ok {
		if sp := ss.StateSpace(); sp != nil {
			wr.stateSpace = sp
		}
	}
}

func (wr *wrapper) Kind() Kind { return wr.kind }

// ID identifies the adapter instance in logs.
func (wr *wrapper) ID() uuid.UUID { return wr.id }

func (wr *wrapper) NumEnvs() int { return wr.numEnvs }

func (wr *wrapper) ObservationSpace() spaces.Space { return wr.obsSpace }

func (wr *wrapper) ActionSpace() spaces.Space { return wr.actSpace }

func (wr *wrapper) StateSpace() spaces.Space { return wr.stateSpace }

func (wr *wrapper) Render(opts ...any) error {
	if wr.noRender || wr.closed {
		return nil
	}
	if rd, ok := wr.backend.(renderer); ok {
		return rd.Render(opts...)
	}
	return nil
}

func (wr *wrapper) Close() error {
	if wr.closed {
		return nil
	}
	wr.closed = true
	wr.log.LogInfof("closing after %d episodes", wr.Episode.Cur+1)
	if cl, ok := wr.backend.(closer); ok {
		return cl.Close()
	}
	return nil
}

func (wr *wrapper) Counter(scale env.TimeScales) (cur, prv int, chg bool) {
	switch scale {
	case env.Episode:
		return wr.Episode.Query()
	case env.Tick:
		return wr.Tick.Query()
	}
	return -1, -1, false
}

func (wr *wrapper) checkOpen() error {
	if wr.closed {
		return ierrors.Wrapf(ErrClosed, "%s adapter %s", wr.kind.Code(), wr.id)
	}
	return nil
}

// newEpisode updates the counters after a backend reset.
func (wr *wrapper) newEpisode() {
	wr.Episode.Incr()
	wr.Tick.Init()
}

// decodeActions turns a (numEnvs, -1) action tensor into the backend's
// native action: the decoded value itself for a single env, or one decoded
// value per env as a []any.
func decodeActions(actions etensor.Tensor, sp spaces.Space, numEnvs int) (any, error) {
	if numEnvs == 1 {
		return codec.Decode(actions, sp)
	}
	if actions == nil || actions.Len()%numEnvs != 0 {
		return nil, ierrors.Wrapf(codec.ErrShapeMismatch, "actions do not split into %d envs", numEnvs)
	}
	width := actions.Len() / numEnvs
	out := make([]any, numEnvs)
	for i := range out {
		row := etensor.NewFloat64([]int{1, width}, nil, nil)
		for c := 0; c < width; c++ {
			row.Values[c] = actions.FloatVal1D(i*width + c)
		}
		v, err := codec.Decode(row, sp)
		if err != nil {
			return nil, ierrors.Wrapf(err, "env %d", i)
		}
		out[i] = v
	}
	return out, nil
}

func emptyInfo(info map[string]any) map[string]any {
	if info == nil {
		return map[string]any{}
	}
	return info
}
