// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridworld

import (
	"fmt"
	"io"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"

	"github.com/ccnlab/envwrap/spaces"
)

// ErrInactiveAgent is returned for an action sent to an agent that already
// left the episode.
var ErrInactiveAgent = ierrors.New("inactive agent")

// ParallelEnv shares one world between NAgents agents that all act on every
// step.  Agents leave Agents when they reach the goal or the episode is
// truncated.
type ParallelEnv struct {
	Env    *Env      `desc:"the shared world"`
	Out    io.Writer `desc:"Render destination, stdout if nil"`
	ids    []string
	index  map[string]int
	active []string
	closed bool
}

// NewParallelEnv builds the shared world from proto.
func NewParallelEnv(proto Env, seed int64) (*ParallelEnv, error) {
	ev := proto
	if ev.NAgents < 1 {
		ev.NAgents = 1
	}
	if err := ev.Init(seed); err != nil {
		return nil, err
	}
	pe := &ParallelEnv{Env: &ev, index: make(map[string]int, ev.NAgents)}
	for i := 0; i < ev.NAgents; i++ {
		uid := AgentID(i)
		pe.ids = append(pe.ids, uid)
		pe.index[uid] = i
	}
	return pe, nil
}

// AgentID names agent i.
func AgentID(i int) string { return fmt.Sprintf("agent_%d", i) }

func (pe *ParallelEnv) PossibleAgents() []string { return lo.CopySlice(pe.ids) }

func (pe *ParallelEnv) Agents() []string { return lo.CopySlice(pe.active) }

func (pe *ParallelEnv) AgentObservationSpace(agent string) spaces.Space {
	return pe.Env.ObservationSpace()
}

func (pe *ParallelEnv) AgentActionSpace(agent string) spaces.Space {
	return pe.Env.ActionSpace()
}

func (pe *ParallelEnv) Reset() (obs map[string]any, infos map[string]any, err error) {
	if pe.closed {
		return nil, nil, ErrClosed
	}
	pe.Env.Reset()
	pe.active = lo.CopySlice(pe.ids)
	obs = make(map[string]any, len(pe.ids))
	infos = make(map[string]any, len(pe.ids))
	for i, uid := range pe.ids {
		obs[uid] = pe.Env.Observation(i)
		infos[uid] = map[string]any{}
	}
	return obs, infos, nil
}

// Step moves the agents that were given actions.  Results are reported for
// those agents only.
func (pe *ParallelEnv) Step(actions map[string]any) (obs, rewards, terminated, truncated map[string]any, infos map[string]any, err error) {
	if pe.closed {
		return nil, nil, nil, nil, nil, ErrClosed
	}
	acts := make(map[int]Actions, len(actions))
	for uid, v := range actions {
		ai, ok := pe.index[uid]
		if !ok || !pe.isActive(uid) {
			return nil, nil, nil, nil, nil, ierrors.Wrapf(ErrInactiveAgent, "%q", uid)
		}
		if acts[ai], err = ToAction(v); err != nil {
			return nil, nil, nil, nil, nil, ierrors.Wrapf(err, "agent %q", uid)
		}
	}
	obs = make(map[string]any, len(acts))
	rewards = make(map[string]any, len(acts))
	terminated = make(map[string]any, len(acts))
	truncated = make(map[string]any, len(acts))
	infos = make(map[string]any, len(acts))
	for ai, act := range acts {
		uid := pe.ids[ai]
		r, term := pe.Env.Act(ai, act)
		rewards[uid] = r
		terminated[uid] = term
	}
	trunc := pe.Env.EndStep()
	var still []string
	for _, uid := range pe.active {
		ai := pe.index[uid]
		if _, acted := acts[ai]; acted {
			obs[uid] = pe.Env.Observation(ai)
			truncated[uid] = trunc
			infos[uid] = map[string]any{"return": pe.Env.Agents[ai].Return}
		}
		if !trunc && !pe.Env.Agents[ai].Done {
			still = append(still, uid)
		}
	}
	pe.active = still
	return obs, rewards, terminated, truncated, infos, nil
}

func (pe *ParallelEnv) isActive(uid string) bool {
	for _, a := range pe.active {
		if a == uid {
			return true
		}
	}
	return false
}

func (pe *ParallelEnv) Render(opts ...any) error {
	return render(pe.Out, pe.Env)
}

func (pe *ParallelEnv) Close() error {
	pe.closed = true
	return nil
}
