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

// GymWrapper adapts a GymBackend.  done is a single mask: the backend does
// not distinguish terminated from truncated.
type GymWrapper struct {
	wrapper
	env GymBackend
}

func newGymWrapper(be GymBackend, logger log.Logger) *GymWrapper {
	gw := &GymWrapper{wrapper: newWrapper(Gym, be, logger), env: be}
	gw.setSpaces(be.ObservationSpace(), be.ActionSpace())
	return gw
}

func (gw *GymWrapper) Reset() (etensor.Tensor, map[string]any, error) {
	if err := gw.checkOpen(); err != nil {
		return nil, nil, err
	}
	obs, err := gw.env.Reset()
	if err != nil {
		return nil, nil, ierrors.Wrap(err, "gym reset")
	}
	out, err := codec.Encode(obs, gw.obsSpace, gw.numEnvs)
	if err != nil {
		return nil, nil, ierrors.Wrap(err, "gym reset observation")
	}
	gw.newEpisode()
	return out, map[string]any{}, nil
}

func (gw *GymWrapper) Step(actions etensor.Tensor) (obs, reward, done etensor.Tensor, info map[string]any, err error) {
	if err = gw.checkOpen(); err != nil {
		return
	}
	act, err := decodeActions(actions, gw.actSpace, gw.numEnvs)
	if err != nil {
		return nil, nil, nil, nil, ierrors.Wrap(err, "gym step action")
	}
	nobs, nrew, ndone, info, err := gw.env.Step(act)
	if err != nil {
		return nil, nil, nil, nil, ierrors.Wrap(err, "gym step")
	}
	gw.Tick.Incr()
	if obs, err = codec.Encode(nobs, gw.obsSpace, gw.numEnvs); err != nil {
		return nil, nil, nil, nil, ierrors.Wrap(err, "gym step observation")
	}
	rew, err := codec.EncodeReward(nrew, gw.numEnvs)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	dn, err := codec.EncodeFlags(ndone, gw.numEnvs)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return obs, rew, dn, emptyInfo(info), nil
}
