// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"math/rand"
	"testing"

	"github.com/emer/emergent/env"
	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccnlab/envwrap/codec"
	"github.com/ccnlab/envwrap/spaces"
)

func wrapSingle(t *testing.T, backend any) SingleAgentEnv {
	t.Helper()
	wenv, err := Wrap(backend)
	require.NoError(t, err)
	sa, ok := wenv.(SingleAgentEnv)
	require.True(t, ok)
	return sa
}

func TestGymVectorized(t *testing.T) {
	be := newFakeGym(4)
	sa := wrapSingle(t, be)
	assert.Equal(t, 4, sa.NumEnvs())
	assert.True(t, sa.StateSpace().Equal(sa.ObservationSpace()))

	obs, info, err := sa.Reset()
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3}, obs.Shapes())
	assert.NotNil(t, info)

	actions := etensor.NewFloat32([]int{4, 1}, nil, nil)
	actions.Values = []float32{0, 1, 1, 0}
	obs, rew, done, info, err := sa.Step(actions)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3}, obs.Shapes())
	assert.Equal(t, 1.0, obs.FloatVal1D(0))
	assert.Equal(t, []int{4, 1}, rew.Shapes())
	assert.Equal(t, []int{4, 1}, done.Shapes())
	assert.Equal(t, etensor.INT8, done.DataType())
	assert.Equal(t, []int8{0, 1, 0, 1}, done.(*etensor.Int8).Values)
	assert.Equal(t, 1, info["steps"])
	assert.Equal(t, []any{0, 1, 1, 0}, be.action)

	cur, _, _ := sa.Counter(env.Tick)
	assert.Equal(t, 1, cur)
	cur, _, _ = sa.Counter(env.Episode)
	assert.Equal(t, 0, cur)
}

func TestGymSingleAction(t *testing.T) {
	be := newFakeGym(1)
	sa := wrapSingle(t, be)
	_, _, err := sa.Reset()
	require.NoError(t, err)

	actions := etensor.NewFloat32([]int{1, 1}, nil, nil)
	actions.Values[0] = 1
	_, rew, done, _, err := sa.Step(actions)
	require.NoError(t, err)
	assert.Equal(t, 1, be.action)
	assert.Equal(t, []int{1, 1}, rew.Shapes())
	assert.Equal(t, []int{1, 1}, done.Shapes())
}

func TestCloseIdempotent(t *testing.T) {
	be := newFakeGym(1)
	sa := wrapSingle(t, be)
	require.NoError(t, sa.Close())
	require.NoError(t, sa.Close())
	assert.Equal(t, 1, be.closes)

	_, _, err := sa.Reset()
	require.ErrorIs(t, err, ErrClosed)
	_, _, _, _, err = sa.Step(etensor.NewFloat32([]int{1, 1}, nil, nil))
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, be.resets)
}

func TestRender(t *testing.T) {
	// no Render on the backend: no-op
	sa := wrapSingle(t, newFakeGym(1))
	require.NoError(t, sa.Render())

	be := &renderGym{fakeGym: newFakeGym(1)}
	sa = wrapSingle(t, be)
	require.NoError(t, sa.Render("human"))
	assert.Equal(t, 1, be.renders)
	assert.Equal(t, []any{"human"}, be.opts)
}

func TestDeepMind(t *testing.T) {
	be := &fakeDM{}
	sa := wrapSingle(t, be)
	obsSpace, ok := sa.ObservationSpace().(*spaces.Dict)
	require.True(t, ok)
	assert.Equal(t, []string{"pos", "vel"}, obsSpace.Keys())
	assert.True(t, obsSpace.Fields["pos"].(*spaces.Box).Bounded())
	assert.False(t, obsSpace.Fields["vel"].(*spaces.Box).Bounded())
	assert.True(t, sa.ActionSpace().Equal(spaces.NewDiscrete(3)))
	assert.True(t, sa.StateSpace().Equal(obsSpace))

	obs, _, err := sa.Reset()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, obs.Shapes())
	var vals []float64
	obs.Floats(&vals)
	assert.Equal(t, []float64{0.5, -0.5, 0}, vals)

	actions := etensor.NewFloat32([]int{1, 1}, nil, nil)
	actions.Values[0] = 2
	_, rew, done, _, err := sa.Step(actions)
	require.NoError(t, err)
	assert.Equal(t, 2, be.action)
	assert.Equal(t, 0.0, rew.FloatVal1D(0))
	assert.Equal(t, 0.0, done.FloatVal1D(0))

	_, rew, done, _, err = sa.Step(actions)
	require.NoError(t, err)
	assert.Equal(t, 1.5, rew.FloatVal1D(0))
	assert.Equal(t, 1.0, done.FloatVal1D(0))
}

func TestSpecToSpace(t *testing.T) {
	_, err := SpecToSpace("not a spec")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string")

	_, err = SpecToSpace(&BoundedArraySpec{
		ArraySpec: ArraySpec{Shape: []int{3}},
		Minimum:   []float64{0, 0},
		Maximum:   []float64{1},
	})
	require.Error(t, err)

	sp, err := SpecToSpace(&BoundedArraySpec{
		ArraySpec: ArraySpec{DType: etensor.FLOAT32},
		Minimum:   []float64{-1},
		Maximum:   []float64{1},
	})
	require.NoError(t, err)
	box := sp.(*spaces.Box)
	assert.Empty(t, box.Shape)
	assert.Equal(t, []float64{-1}, box.Low.Values)
	assert.Equal(t, []float64{1}, box.High.Values)
}

func TestVecTaskOneShotReset(t *testing.T) {
	be := &flatVecTask{fakeVecTask{numEnvs: 2}}
	sa := wrapSingle(t, be)

	first, _, err := sa.Reset()
	require.NoError(t, err)
	second, _, err := sa.Reset()
	require.NoError(t, err)
	assert.Equal(t, 1, be.resets)
	assert.Equal(t, first.Shapes(), second.Shapes())
	assert.Equal(t, first.(*etensor.Float32).Values, second.(*etensor.Float32).Values)

	actions := etensor.NewFloat32([]int{2, 2}, nil, nil)
	obs, rew, done, info, err := sa.Step(actions)
	require.NoError(t, err)
	assert.Same(t, actions, be.action)
	assert.Equal(t, []int{2, 4}, obs.Shapes())
	assert.Equal(t, []int{2, 1}, rew.Shapes())
	assert.Equal(t, []int{2, 1}, done.Shapes())
	assert.Equal(t, []int8{1, 0}, done.(*etensor.Int8).Values)
	assert.NotNil(t, info)

	// later resets return the latest buffer, still without a backend reset
	third, _, err := sa.Reset()
	require.NoError(t, err)
	assert.Equal(t, 1, be.resets)
	assert.Equal(t, obs.(*etensor.Float32).Values, third.(*etensor.Float32).Values)

	require.NoError(t, sa.Render())
}

func TestDictVecTask(t *testing.T) {
	be := &dictVecTask{fakeVecTask{numEnvs: 3}, "obs"}
	sa := wrapSingle(t, be)

	first, _, err := sa.Reset()
	require.NoError(t, err)
	second, _, err := sa.Reset()
	require.NoError(t, err)
	assert.Equal(t, 1, be.resets)
	assert.Equal(t, first.(*etensor.Float32).Values, second.(*etensor.Float32).Values)

	_, rew, done, info, err := sa.Step(etensor.NewFloat32([]int{3, 2}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, rew.Shapes())
	assert.Equal(t, []int{3, 1}, done.Shapes())
	assert.Equal(t, true, info["ok"])

	mbe := &dictVecTask{fakeVecTask{numEnvs: 3}, "states"}
	missing := wrapSingle(t, mbe)
	_, _, err = missing.Reset()
	require.ErrorIs(t, err, ErrMissingBuffer)
	// the backend reset ran, so a retry must not run it again
	_, _, err = missing.Reset()
	require.ErrorIs(t, err, ErrMissingBuffer)
	assert.Equal(t, 1, mbe.resets)
}

func TestVecTaskResetEncodeFailure(t *testing.T) {
	be := &flatVecTask{fakeVecTask{numEnvs: 3}}
	sa := wrapSingle(t, be)
	vw := sa.(*VecTaskWrapper)
	// 12 buffer elements do not split into 5 envs
	vw.numEnvs = 5

	_, _, err := sa.Reset()
	require.Error(t, err)
	_, _, err = sa.Reset()
	require.Error(t, err)
	assert.Equal(t, 1, be.resets)
	ep, _, _ := sa.Counter(env.Episode)
	assert.Equal(t, 0, ep)
}

func TestOmniverse(t *testing.T) {
	be := &omniVecTask{dictVecTask: dictVecTask{fakeVecTask{numEnvs: 2}, "obs"}}
	sa := wrapSingle(t, be)
	ow, ok := sa.(*OmniverseWrapper)
	require.True(t, ok)
	assert.Equal(t, OmniverseIsaacGym, ow.Kind())

	var steps int
	err := ow.Run(trainerFunc(func() error {
		first, info, err := ow.Reset()
		require.NoError(t, err)
		assert.Empty(t, info)
		second, _, err := ow.Reset()
		require.NoError(t, err)
		assert.Equal(t, first.(*etensor.Float32).Values, second.(*etensor.Float32).Values)

		for i := 0; i < 3; i++ {
			obs, rew, done, info, err := ow.Step(etensor.NewFloat32([]int{2, 2}, nil, nil))
			require.NoError(t, err)
			assert.Equal(t, []int{2, 4}, obs.Shapes())
			assert.Equal(t, []int{2, 1}, rew.Shapes())
			assert.Equal(t, []int8{1, 0}, done.(*etensor.Int8).Values)
			assert.Equal(t, true, info["ok"])
			trunc := info["truncated"].(*etensor.Int8)
			assert.Equal(t, []int{2, 1}, trunc.Shapes())
			assert.Equal(t, []int8{0, 0}, trunc.Values)
			steps++
		}
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, be.runs)
	assert.Equal(t, 3, steps)
	assert.Equal(t, 1, be.resets)
	require.NoError(t, ow.Render())

	require.NoError(t, ow.Close())
	require.NoError(t, ow.Close())
	assert.Equal(t, 1, be.closes)
	require.ErrorIs(t, ow.Run(trainerFunc(func() error { return nil })), ErrClosed)
	_, _, _, _, err = ow.Step(etensor.NewFloat32([]int{2, 2}, nil, nil))
	require.ErrorIs(t, err, ErrClosed)
}

func TestDecodeActionsVectorized(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	sps := []spaces.Space{
		spaces.NewDiscrete(5),
		spaces.NewBox(-1, 1, []int{2, 2}, etensor.FLOAT32),
		spaces.NewBox(0, 50, []int{3}, etensor.INT64),
		spaces.NewBox(-2, 2, nil, etensor.FLOAT64),
	}
	for _, sp := range sps {
		for _, k := range []int{2, 3, 7} {
			want := make([]any, k)
			acts := etensor.NewFloat32([]int{k, sp.Flatdim()}, nil, nil)
			for i := range want {
				v, err := spaces.Sample(sp, rnd)
				require.NoError(t, err)
				want[i] = v
				row, err := codec.Encode(v, sp, 1)
				require.NoError(t, err)
				for c := 0; c < row.Len(); c++ {
					acts.SetFloat1D(i*sp.Flatdim()+c, row.FloatVal1D(c))
				}
			}

			got, err := decodeActions(acts, sp, k)
			require.NoError(t, err, "%v k=%d", sp, k)
			per := got.([]any)
			require.Len(t, per, k)
			for i := range per {
				switch w := want[i].(type) {
				case int:
					assert.Equal(t, w, per[i])
				case etensor.Tensor:
					g := per[i].(etensor.Tensor)
					assert.Equal(t, w.Shapes(), g.Shapes())
					assert.Equal(t, w.DataType(), g.DataType())
					for j := 0; j < w.Len(); j++ {
						assert.InDelta(t, w.FloatVal1D(j), g.FloatVal1D(j), 1e-5)
					}
				}
			}
		}
	}

	_, err := decodeActions(etensor.NewFloat32([]int{5}, nil, nil), spaces.NewDiscrete(2), 2)
	require.ErrorIs(t, err, codec.ErrShapeMismatch)
}
