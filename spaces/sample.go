// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spaces

import (
	"math"
	"math/rand"

	"github.com/emer/etable/etensor"
)

// Sample draws a random value from sp in the native representation that
// backends use: int for Discrete, an etensor of DType for Box, and
// map[string]any for Dict.
func Sample(sp Space, rnd *rand.Rand) (any, error) {
	s := &sampler{rnd: rnd}
	if sp == nil {
		return nil, NewUnsupportedSpaceError("sample", sp)
	}
	if err := sp.Accept(s); err != nil {
		return nil, err
	}
	return s.out, nil
}

type sampler struct {
	rnd *rand.Rand
	out any
}

func (s *sampler) VisitDiscrete(sp *Discrete) error {
	s.out = s.rnd.Intn(sp.N)
	return nil
}

// VisitBox samples uniformly for bounded elements, from a normal for
// unbounded ones, and from a shifted exponential for half-bounded ones.
func (s *sampler) VisitBox(sp *Box) error {
	out := NewTensor(sp.DType, sp.Shape)
	for i := 0; i < out.Len(); i++ {
		lo, hi := sp.Low.Values[i], sp.High.Values[i]
		var v float64
		switch {
		case math.IsInf(lo, -1) && math.IsInf(hi, 1):
			v = s.rnd.NormFloat64()
		case math.IsInf(lo, -1):
			v = hi - s.rnd.ExpFloat64()
		case math.IsInf(hi, 1):
			v = lo + s.rnd.ExpFloat64()
		default:
			v = lo + s.rnd.Float64()*(hi-lo)
		}
		if isIntegral(sp.DType) {
			v = math.Floor(v)
		}
		out.SetFloat1D(i, v)
	}
	s.out = out
	return nil
}

func (s *sampler) VisitDict(sp *Dict) error {
	vals := make(map[string]any, len(sp.Fields))
	for _, k := range sp.Keys() {
		v, err := Sample(sp.Fields[k], s.rnd)
		if err != nil {
			return err
		}
		vals[k] = v
	}
	s.out = vals
	return nil
}

// NewTensor makes a zero tensor of the given element type and shape.
// Types without a dedicated constructor fall back to FLOAT64, and the
// empty shape yields a single-element tensor.
func NewTensor(dtype etensor.Type, shape []int) etensor.Tensor {
	shp := TensorShape(shape)
	switch dtype {
	case etensor.FLOAT32:
		return etensor.NewFloat32(shp, nil, nil)
	case etensor.INT64:
		return etensor.NewInt64(shp, nil, nil)
	case etensor.INT32:
		return etensor.NewInt32(shp, nil, nil)
	case etensor.INT16:
		return etensor.NewInt16(shp, nil, nil)
	case etensor.INT8:
		return etensor.NewInt8(shp, nil, nil)
	case etensor.UINT8:
		return etensor.NewUint8(shp, nil, nil)
	case etensor.INT:
		return etensor.NewInt(shp, nil, nil)
	default:
		return etensor.NewFloat64(shp, nil, nil)
	}
}

func isIntegral(dtype etensor.Type) bool {
	switch dtype {
	case etensor.INT64, etensor.INT32, etensor.INT16, etensor.INT8, etensor.UINT8, etensor.INT:
		return true
	}
	return false
}
