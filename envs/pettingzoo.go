// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/log"

	"github.com/ccnlab/envwrap/codec"
	"github.com/ccnlab/envwrap/spaces"
)

// SharedStatesKey is the info entry holding the shared observation of every
// possible agent.
const SharedStatesKey = "shared_states"

// ParallelWrapper adapts a ParallelBackend.  Terminated and truncated are
// reported separately, per agent.  After every Reset and Step,
// infos[SharedStatesKey] maps every possible agent, active or not, to the
// same shared observation.
type ParallelWrapper struct {
	wrapper
	env       ParallelBackend
	possible  []string
	obsSpaces map[string]spaces.Space
	actSpaces map[string]spaces.Space
	shared    *SharedObservation
}

func newParallelWrapper(be ParallelBackend, logger log.Logger) (*ParallelWrapper, error) {
	pw := &ParallelWrapper{
		wrapper:  newWrapper(PettingZoo, be, logger),
		env:      be,
		possible: lo.CopySlice(be.PossibleAgents()),
	}
	pw.obsSpaces = make(map[string]spaces.Space, len(pw.possible))
	pw.actSpaces = make(map[string]spaces.Space, len(pw.possible))
	for _, uid := range pw.possible {
		pw.obsSpaces[uid] = be.AgentObservationSpace(uid)
		pw.actSpaces[uid] = be.AgentActionSpace(uid)
	}
	shared, err := NewSharedObservation(pw.possible, pw.obsSpaces, pw.numEnvs)
	if err != nil {
		return nil, err
	}
	pw.shared = shared
	pw.setSpaces(pw.obsSpaces[pw.possible[0]], pw.actSpaces[pw.possible[0]])
	if _, ok := be.(stateSpacer); !ok {
		pw.stateSpace = shared.Space
	}
	return pw, nil
}

func (pw *ParallelWrapper) NumAgents() int { return len(pw.possible) }

func (pw *ParallelWrapper) PossibleAgents() []string { return lo.CopySlice(pw.possible) }

// Agents are the agents still active in the current episode.
func (pw *ParallelWrapper) Agents() []string { return pw.env.Agents() }

func (pw *ParallelWrapper) ObservationSpaces() map[string]spaces.Space {
	return lo.MergeMaps(make(map[string]spaces.Space), pw.obsSpaces)
}

func (pw *ParallelWrapper) ActionSpaces() map[string]spaces.Space {
	return lo.MergeMaps(make(map[string]spaces.Space), pw.actSpaces)
}

// SharedObservationSpaces maps every possible agent to the joint space.
func (pw *ParallelWrapper) SharedObservationSpaces() map[string]spaces.Space {
	out := make(map[string]spaces.Space, len(pw.possible))
	for _, uid := range pw.possible {
		out[uid] = pw.shared.Space
	}
	return out
}

func (pw *ParallelWrapper) Reset() (map[string]etensor.Tensor, map[string]any, error) {
	if err := pw.checkOpen(); err != nil {
		return nil, nil, err
	}
	nobs, infos, err := pw.env.Reset()
	if err != nil {
		return nil, nil, ierrors.Wrap(err, "parallel reset")
	}
	if infos == nil {
		infos = make(map[string]any, len(pw.possible)+1)
		for _, uid := range pw.possible {
			infos[uid] = map[string]any{}
		}
	}
	if err := pw.addShared(nobs, infos); err != nil {
		return nil, nil, err
	}
	obs, err := pw.encodeObs(nobs)
	if err != nil {
		return nil, nil, err
	}
	pw.newEpisode()
	return obs, infos, nil
}

func (pw *ParallelWrapper) Step(actions map[string]etensor.Tensor) (obs, rewards, terminated, truncated map[string]etensor.Tensor, infos map[string]any, err error) {
	if err = pw.checkOpen(); err != nil {
		return
	}
	native := make(map[string]any, len(actions))
	for uid, act := range actions {
		sp, ok := pw.actSpaces[uid]
		if !ok {
			return nil, nil, nil, nil, nil, ierrors.Wrapf(ErrUnknownAgent, "action for %q", uid)
		}
		if native[uid], err = decodeActions(act, sp, pw.numEnvs); err != nil {
			return nil, nil, nil, nil, nil, ierrors.Wrapf(err, "action for %q", uid)
		}
	}
	nobs, nrew, nterm, ntrunc, infos, err := pw.env.Step(native)
	if err != nil {
		return nil, nil, nil, nil, nil, ierrors.Wrap(err, "parallel step")
	}
	pw.Tick.Incr()
	if infos == nil {
		infos = map[string]any{}
	}
	if err = pw.addShared(nobs, infos); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if obs, err = pw.encodeObs(nobs); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	rewards = make(map[string]etensor.Tensor, len(nrew))
	for uid, v := range nrew {
		if rewards[uid], err = codec.EncodeReward(v, pw.numEnvs); err != nil {
			return nil, nil, nil, nil, nil, ierrors.Wrapf(err, "agent %q", uid)
		}
	}
	if terminated, err = pw.encodeFlags(nterm); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if truncated, err = pw.encodeFlags(ntrunc); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return obs, rewards, terminated, truncated, infos, nil
}

func (pw *ParallelWrapper) addShared(nobs map[string]any, infos map[string]any) error {
	shared, err := pw.shared.Synthesize(nobs)
	if err != nil {
		return err
	}
	states := make(map[string]etensor.Tensor, len(pw.possible))
	for _, uid := range pw.possible {
		states[uid] = shared
	}
	infos[SharedStatesKey] = states
	return nil
}

func (pw *ParallelWrapper) encodeObs(nobs map[string]any) (map[string]etensor.Tensor, error) {
	obs := make(map[string]etensor.Tensor, len(nobs))
	for uid, v := range nobs {
		sp, ok := pw.obsSpaces[uid]
		if !ok {
			return nil, ierrors.Wrapf(ErrUnknownAgent, "observation for %q", uid)
		}
		enc, err := codec.Encode(v, sp, pw.numEnvs)
		if err != nil {
			return nil, ierrors.Wrapf(err, "observation for %q", uid)
		}
		obs[uid] = enc
	}
	return obs, nil
}

func (pw *ParallelWrapper) encodeFlags(flags map[string]any) (map[string]etensor.Tensor, error) {
	out := make(map[string]etensor.Tensor, len(flags))
	for uid, v := range flags {
		enc, err := codec.EncodeFlags(v, pw.numEnvs)
		if err != nil {
			return nil, ierrors.Wrapf(err, "agent %q", uid)
		}
		out[uid] = enc
	}
	return out, nil
}
