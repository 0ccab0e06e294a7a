// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"

	"github.com/ccnlab/envwrap/codec"
)

// DMWrapper adapts a DMBackend.  Specs are converted to spaces once, at
// construction.  A nil reward (first step) is reported as 0 and done is
// TimeStep.Last.
type DMWrapper struct {
	wrapper
	env DMBackend
}

func newDMWrapper(be DMBackend, logger log.Logger) (*DMWrapper, error) {
	obs, err := SpecToSpace(be.ObservationSpec())
	if err != nil {
		return nil, ierrors.Wrap(err, "observation spec")
	}
	act, err := SpecToSpace(be.ActionSpec())
	if err != nil {
		return nil, ierrors.Wrap(err, "action spec")
	}
	dw := &DMWrapper{wrapper: newWrapper(DeepMind, be, logger), env: be}
	dw.setSpaces(obs, act)
	dw.stateSpace = obs
	return dw, nil
}

func (dw *DMWrapper) Reset() (etensor.Tensor, map[string]any, error) {
	if err := dw.checkOpen(); err != nil {
		return nil, nil, err
	}
	ts, err := dw.env.Reset()
	if err != nil {
		return nil, nil, ierrors.Wrap(err, "dm reset")
	}
	obs, err := codec.Encode(ts.Observation, dw.obsSpace, dw.numEnvs)
	if err != nil {
		return nil, nil, ierrors.Wrap(err, "dm reset observation")
	}
	dw.newEpisode()
	return obs, map[string]any{}, nil
}

func (dw *DMWrapper) Step(actions etensor.Tensor) (obs, reward, done etensor.Tensor, info map[string]any, err error) {
	if err = dw.checkOpen(); err != nil {
		return
	}
	act, err := decodeActions(actions, dw.actSpace, dw.numEnvs)
	if err != nil {
		return nil, nil, nil, nil, ierrors.Wrap(err, "dm step action")
	}
	ts, err := dw.env.Step(act)
	if err != nil {
		return nil, nil, nil, nil, ierrors.Wrap(err, "dm step")
	}
	dw.Tick.Incr()
	if obs, err = codec.Encode(ts.Observation, dw.obsSpace, dw.numEnvs); err != nil {
		return nil, nil, nil, nil, ierrors.Wrap(err, "dm step observation")
	}
	var rv any = 0.0
	if ts.Reward != nil {
		rv = ts.Reward
	}
	rew, err := codec.EncodeReward(rv, dw.numEnvs)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	dn, err := codec.EncodeFlags(ts.Last(), dw.numEnvs)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return obs, rew, dn, map[string]any{}, nil
}
