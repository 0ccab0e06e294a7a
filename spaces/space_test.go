// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spaces

import (
	"math"
	"math/rand"
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictKeysAlphabetic(t *testing.T) {
	sp := NewDict(map[string]Space{
		"b":     NewBox(0, 1, []int{2}, etensor.FLOAT32),
		"a":     NewDiscrete(3),
		"alpha": NewBox(0, 1, []int{1}, etensor.FLOAT32),
	})
	assert.Equal(t, []string{"a", "alpha", "b"}, sp.Keys())
	assert.Equal(t, 4, sp.Flatdim())
}

func TestEqual(t *testing.T) {
	a := NewBox(-1, 1, []int{2, 3}, etensor.FLOAT32)
	b := NewBox(-1, 1, []int{2, 3}, etensor.FLOAT32)
	c := NewBox(-2, 1, []int{2, 3}, etensor.FLOAT32)
	d := NewBox(-1, 1, []int{3, 2}, etensor.FLOAT32)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(NewDiscrete(6)))
	assert.True(t, NewDiscrete(4).Equal(NewDiscrete(4)))
	assert.False(t, NewDiscrete(4).Equal(NewDiscrete(5)))

	d1 := NewDict(map[string]Space{"x": a, "y": NewDiscrete(2)})
	d2 := NewDict(map[string]Space{"y": NewDiscrete(2), "x": b})
	d3 := NewDict(map[string]Space{"x": c, "y": NewDiscrete(2)})
	assert.True(t, d1.Equal(d2))
	assert.False(t, d1.Equal(d3))
	assert.True(t, SameLayout(d1, d3))
	assert.False(t, SameLayout(a, d))
}

func TestNewBoxBounds(t *testing.T) {
	lo := etensor.NewFloat64([]int{2}, nil, nil)
	hi := etensor.NewFloat64([]int{2}, nil, nil)
	lo.Values = []float64{0, -1}
	hi.Values = []float64{1, 1}
	sp, err := NewBoxBounds(lo, hi, etensor.FLOAT64)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, sp.Shape)
	assert.True(t, sp.Bounded())

	_, err = NewBoxBounds(lo, etensor.NewFloat64([]int{3}, nil, nil), etensor.FLOAT64)
	require.ErrorIs(t, err, ErrShapeMismatch)

	assert.False(t, NewBox(math.Inf(-1), math.Inf(1), []int{2}, etensor.FLOAT32).Bounded())
}

func TestContains(t *testing.T) {
	assert.True(t, NewDiscrete(3).Contains(2))
	assert.False(t, NewDiscrete(3).Contains(3))
	assert.False(t, NewDiscrete(3).Contains(-1))

	lo := etensor.NewFloat64([]int{2}, nil, nil)
	hi := etensor.NewFloat64([]int{2}, nil, nil)
	lo.Values = []float64{0, 10}
	hi.Values = []float64{1, 20}
	sp, err := NewBoxBounds(lo, hi, etensor.FLOAT32)
	require.NoError(t, err)

	v := etensor.NewFloat32([]int{2}, nil, nil)
	v.Values = []float32{0.5, 15}
	assert.True(t, sp.Contains(v))
	v.Values = []float32{5, 15}
	assert.False(t, sp.Contains(v))
	assert.False(t, sp.Contains(etensor.NewFloat32([]int{3}, nil, nil)))
}

func TestSample(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	sp := NewDict(map[string]Space{
		"pos":  NewBox(-2, 2, []int{2, 2}, etensor.FLOAT32),
		"free": NewBox(math.Inf(-1), math.Inf(1), []int{3}, etensor.FLOAT64),
		"act":  NewDiscrete(4),
		"cnt":  NewBox(0, 10, []int{1}, etensor.INT64),
	})
	for i := 0; i < 20; i++ {
		v, err := Sample(sp, rnd)
		require.NoError(t, err)
		vals := v.(map[string]any)

		act := vals["act"].(int)
		assert.True(t, act >= 0 && act < 4)

		pos := vals["pos"].(*etensor.Float32)
		assert.Equal(t, []int{2, 2}, pos.Shapes())
		assert.True(t, sp.Fields["pos"].(*Box).Contains(pos))
		cnt := vals["cnt"].(*etensor.Int64)
		assert.Equal(t, etensor.INT64, cnt.DataType())
		assert.Len(t, vals["free"].(*etensor.Float64).Values, 3)
	}
}

func TestSampleNil(t *testing.T) {
	_, err := Sample(nil, rand.New(rand.NewSource(1)))
	var use *UnsupportedSpaceError
	require.ErrorAs(t, err, &use)
	assert.Equal(t, "<nil>", use.Type)
}

func TestScalarBox(t *testing.T) {
	sp := NewBox(-2, 2, []int{}, etensor.FLOAT32)
	assert.Equal(t, 1, sp.Flatdim())
	assert.Equal(t, 1, sp.Low.Len())
	assert.Equal(t, 2.0, sp.High.Values[0])
	assert.Empty(t, sp.Shape)

	v := NewTensor(etensor.FLOAT32, sp.Shape)
	assert.Equal(t, 1, v.Len())
	v.SetFloat1D(0, 1.5)
	assert.True(t, sp.Contains(v))
	v.SetFloat1D(0, 3)
	assert.False(t, sp.Contains(v))

	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 10; i++ {
		s, err := Sample(sp, rnd)
		require.NoError(t, err)
		assert.True(t, sp.Contains(s.(etensor.Tensor)))
	}
}
