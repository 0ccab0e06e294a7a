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

// oneShot gates a backend whose native reset may only run once.  After the
// first Reset, further Resets return the buffered observations without
// calling the backend.  Step keeps the buffer current, so a later Reset
// returns the most recent observations.  The raw reset result is kept
// until it encodes, so a failed encoding never repeats the backend reset.
type oneShot struct {
	initialized bool
	raw         any
	buf         etensor.Tensor
}

// reset runs native once.  obsOf picks the observations out of its result
// and may be nil when the result is the observations.
func (ob *oneShot) reset(wr *wrapper, native func() (any, error), obsOf func(raw any) (any, error)) (etensor.Tensor, error) {
	if ob.initialized {
		wr.log.LogDebugf("reset: returning buffered observations, backend reset already ran")
	} else {
		raw, err := native()
		if err != nil {
			return nil, ierrors.Wrap(err, "vec-task reset")
		}
		ob.initialized = true
		ob.raw = raw
		wr.newEpisode()
		wr.log.LogDebugf("reset: backend reset ran")
	}
	if ob.buf == nil {
		nobs := ob.raw
		if obsOf != nil {
			var err error
			if nobs, err = obsOf(ob.raw); err != nil {
				return nil, err
			}
		}
		obs, err := codec.Encode(nobs, wr.obsSpace, wr.numEnvs)
		if err != nil {
			return nil, ierrors.Wrap(err, "vec-task reset observation")
		}
		ob.buf = obs
		ob.raw = nil
	}
	return ob.buf.Clone(), nil
}

// update replaces the buffer with the latest step observations.
func (ob *oneShot) update(obs etensor.Tensor) {
	ob.buf = obs.Clone()
	ob.raw = nil
}

// encodeStep shapes a vec-task step result: observations as (numEnvs, -1),
// reward and reset flags as (n, 1).
func encodeStep(wr *wrapper, nobs, nrew, nreset etensor.Tensor) (obs, reward, done etensor.Tensor, err error) {
	if obs, err = codec.Encode(nobs, wr.obsSpace, wr.numEnvs); err != nil {
		return nil, nil, nil, ierrors.Wrap(err, "vec-task step observation")
	}
	if nrew == nil || nreset == nil {
		return nil, nil, nil, ierrors.Wrap(codec.ErrUnsupportedValue, "vec-task step returned no reward or reset buffer")
	}
	rew, err := codec.EncodeReward(nrew, nrew.Len())
	if err != nil {
		return nil, nil, nil, err
	}
	dn, err := codec.EncodeFlags(nreset, nreset.Len())
	if err != nil {
		return nil, nil, nil, err
	}
	return obs, rew, dn, nil
}

// VecTaskWrapper adapts a VecTaskBackend (flat observation buffer).
// Actions are passed through untouched and Render does nothing.
type VecTaskWrapper struct {
	wrapper
	oneShot
	env VecTaskBackend
}

func newVecTaskWrapper(be VecTaskBackend, logger log.Logger) *VecTaskWrapper {
	vw := &VecTaskWrapper{wrapper: newWrapper(IsaacGymPreview2, be, logger), env: be}
	vw.noRender = true
	vw.setSpaces(be.ObservationSpace(), be.ActionSpace())
	return vw
}

func (vw *VecTaskWrapper) Reset() (etensor.Tensor, map[string]any, error) {
	if err := vw.checkOpen(); err != nil {
		return nil, nil, err
	}
	obs, err := vw.reset(&vw.wrapper, func() (any, error) { return vw.env.Reset() }, nil)
	if err != nil {
		return nil, nil, err
	}
	return obs, map[string]any{}, nil
}

func (vw *VecTaskWrapper) Step(actions etensor.Tensor) (obs, reward, done etensor.Tensor, info map[string]any, err error) {
	if err = vw.checkOpen(); err != nil {
		return
	}
	nobs, nrew, nreset, info, err := vw.env.Step(actions)
	if err != nil {
		return nil, nil, nil, nil, ierrors.Wrap(err, "vec-task step")
	}
	vw.Tick.Incr()
	if obs, reward, done, err = encodeStep(&vw.wrapper, nobs, nrew, nreset); err != nil {
		return nil, nil, nil, nil, err
	}
	vw.update(obs)
	return obs, reward, done, emptyInfo(info), nil
}

// DictVecTaskWrapper adapts a DictVecTaskBackend, reading observations from
// the "obs" buffer.
type DictVecTaskWrapper struct {
	wrapper
	oneShot
	env DictVecTaskBackend
}

func newDictVecTaskWrapper(be DictVecTaskBackend, logger log.Logger) *DictVecTaskWrapper {
	return newDictVecTaskKind(IsaacGymPreview3, be, logger)
}

func newDictVecTaskKind(kind Kind, be DictVecTaskBackend, logger log.Logger) *DictVecTaskWrapper {
	dw := &DictVecTaskWrapper{wrapper: newWrapper(kind, be, logger), env: be}
	dw.noRender = true
	dw.setSpaces(be.ObservationSpace(), be.ActionSpace())
	return dw
}

func obsBuffer(bufs map[string]etensor.Tensor) (etensor.Tensor, error) {
	obs, ok := bufs["obs"]
	if !ok || obs == nil {
		return nil, ierrors.Wrapf(ErrMissingBuffer, "buffers %d", len(bufs))
	}
	return obs, nil
}

func (dw *DictVecTaskWrapper) Reset() (etensor.Tensor, map[string]any, error) {
	if err := dw.checkOpen(); err != nil {
		return nil, nil, err
	}
	obs, err := dw.reset(&dw.wrapper, func() (any, error) { return dw.env.Reset() }, func(raw any) (any, error) {
		return obsBuffer(raw.(map[string]etensor.Tensor))
	})
	if err != nil {
		return nil, nil, err
	}
	return obs, map[string]any{}, nil
}

func (dw *DictVecTaskWrapper) Step(actions etensor.Tensor) (obs, reward, done etensor.Tensor, info map[string]any, err error) {
	if err = dw.checkOpen(); err != nil {
		return
	}
	bufs, nrew, nreset, info, err := dw.env.Step(actions)
	if err != nil {
		return nil, nil, nil, nil, ierrors.Wrap(err, "vec-task step")
	}
	dw.Tick.Incr()
	nobs, err := obsBuffer(bufs)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if obs, reward, done, err = encodeStep(&dw.wrapper, nobs, nrew, nreset); err != nil {
		return nil, nil, nil, nil, err
	}
	dw.update(obs)
	return obs, reward, done, emptyInfo(info), nil
}

// OmniverseWrapper adapts an OmniverseBackend.  It resets like
// DictVecTaskWrapper.  Step reports termination as done and adds an
// all-zero (n, 1) "truncated" mask to info, since the backend never
// truncates.
type OmniverseWrapper struct {
	*DictVecTaskWrapper
	env OmniverseBackend
}

func newOmniverseWrapper(be OmniverseBackend, logger log.Logger) *OmniverseWrapper {
	return &OmniverseWrapper{DictVecTaskWrapper: newDictVecTaskKind(OmniverseIsaacGym, be, logger), env: be}
}

func (ow *OmniverseWrapper) Step(actions etensor.Tensor) (obs, reward, done etensor.Tensor, info map[string]any, err error) {
	if obs, reward, done, info, err = ow.DictVecTaskWrapper.Step(actions); err != nil {
		return
	}
	out := make(map[string]any, len(info)+1)
	for k, v := range info {
		out[k] = v
	}
	out["truncated"] = etensor.NewInt8(done.Shapes(), nil, nil)
	return obs, reward, done, out, nil
}

// Run hands trainer to the backend, which blocks until the simulation
// ends.
func (ow *OmniverseWrapper) Run(trainer Trainer) error {
	if err := ow.checkOpen(); err != nil {
		return err
	}
	ow.log.LogInfof("running simulation loop")
	return ow.env.Run(trainer)
}
