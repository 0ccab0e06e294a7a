// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridworld

import (
	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ccnlab/envwrap/envs"
	"github.com/ccnlab/envwrap/spaces"
)

// VecEnv is a batched view whose native Reset is meant to run once: after
// that, Step resets finished worlds itself.  Observations are flat rows of
// the position code followed by the tile color.
type VecEnv struct {
	Envs         []*Env `desc:"one world per env"`
	NativeResets int    `desc:"number of times Reset ran"`
}

// NewVecEnv builds numEnvs worlds from proto, seeded seed, seed+1, ...
func NewVecEnv(proto Env, numEnvs int, seed int64) (*VecEnv, error) {
	se, err := NewSingleEnv(proto, numEnvs, seed)
	if err != nil {
		return nil, err
	}
	return &VecEnv{Envs: se.Envs}, nil
}

func (ve *VecEnv) NumEnvs() int { return len(ve.Envs) }

func (ve *VecEnv) width() int {
	wld := ve.Envs[0].World
	return wld.Rows()*wld.Cols() + 1
}

func (ve *VecEnv) ObservationSpace() spaces.Space {
	return spaces.NewBox(0, float64(max(1, ve.Envs[0].Colors-1)), []int{ve.width()}, etensor.FLOAT32)
}

func (ve *VecEnv) ActionSpace() spaces.Space { return ve.Envs[0].ActionSpace() }

func (ve *VecEnv) Reset() (etensor.Tensor, error) {
	ve.NativeResets++
	for _, ev := range ve.Envs {
		ev.Reset()
	}
	return ve.buffer(), nil
}

// Step reads one action per env from actions, in row order.
func (ve *VecEnv) Step(actions etensor.Tensor) (obs, reward, reset etensor.Tensor, info map[string]any, err error) {
	if actions == nil || actions.Len() != len(ve.Envs) {
		return nil, nil, nil, nil, ierrors.Wrapf(ErrInvalidAction, "need %d actions", len(ve.Envs))
	}
	n := len(ve.Envs)
	rew := etensor.NewFloat32([]int{n}, nil, nil)
	rst := etensor.NewInt8([]int{n}, nil, nil)
	for i, ev := range ve.Envs {
		act, err := ToAction(actions.FloatVal1D(i))
		if err != nil {
			return nil, nil, nil, nil, ierrors.Wrapf(err, "env %d", i)
		}
		r, term := ev.Act(0, act)
		trunc := ev.EndStep()
		rew.Values[i] = r
		if term || trunc {
			rst.Values[i] = 1
			ev.Reset()
		}
	}
	return ve.buffer(), rew, rst, map[string]any{}, nil
}

func (ve *VecEnv) buffer() *etensor.Float32 {
	w := ve.width()
	buf := etensor.NewFloat32([]int{len(ve.Envs), w}, nil, nil)
	for i, ev := range ve.Envs {
		row := buf.Values[i*w : (i+1)*w]
		copy(row, ev.PosMap(0).Values)
		row[w-1] = float32(ev.Color(0))
	}
	return buf
}

// DictVecEnv is a VecEnv returning {"obs", "states"} buffers.  states
// holds every world's goal distance.
type DictVecEnv struct {
	VecEnv
}

// NewDictVecEnv builds numEnvs worlds from proto, seeded seed, seed+1, ...
func NewDictVecEnv(proto Env, numEnvs int, seed int64) (*DictVecEnv, error) {
	ve, err := NewVecEnv(proto, numEnvs, seed)
	if err != nil {
		return nil, err
	}
	return &DictVecEnv{VecEnv: *ve}, nil
}

func (dv *DictVecEnv) Reset() (map[string]etensor.Tensor, error) {
	obs, err := dv.VecEnv.Reset()
	if err != nil {
		return nil, err
	}
	return dv.dict(obs), nil
}

func (dv *DictVecEnv) Step(actions etensor.Tensor) (obs map[string]etensor.Tensor, reward, reset etensor.Tensor, info map[string]any, err error) {
	buf, reward, reset, info, err := dv.VecEnv.Step(actions)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return dv.dict(buf), reward, reset, info, nil
}

func (dv *DictVecEnv) dict(obs etensor.Tensor) map[string]etensor.Tensor {
	states := etensor.NewFloat32([]int{len(dv.Envs), 1}, nil, nil)
	for i, ev := range dv.Envs {
		states.Values[i] = ev.Agents[0].Dist.Cur
	}
	return map[string]etensor.Tensor{"obs": obs, "states": states}
}

// OmniverseEnv is a DictVecEnv that owns the simulation loop: Run hands the
// calling thread to a trainer and returns when it is done.
type OmniverseEnv struct {
	DictVecEnv
	Runs   int  `desc:"number of trainers run"`
	Closed bool `desc:"whether Close ran"`
}

// NewOmniverseEnv builds numEnvs worlds from proto, seeded seed, seed+1, ...
func NewOmniverseEnv(proto Env, numEnvs int, seed int64) (*OmniverseEnv, error) {
	dv, err := NewDictVecEnv(proto, numEnvs, seed)
	if err != nil {
		return nil, err
	}
	return &OmniverseEnv{DictVecEnv: *dv}, nil
}

func (oe *OmniverseEnv) Run(trainer envs.Trainer) error {
	if oe.Closed {
		return ErrClosed
	}
	oe.Runs++
	return trainer.Run()
}

func (oe *OmniverseEnv) Close() error {
	oe.Closed = true
	return nil
}
