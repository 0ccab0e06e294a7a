// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codec converts between backend-native observation / action values
// and the flat tensor contract consumed by trainers: every encoded value is
// a 2D tensor of shape (numEnvs, features).
//
// Encoding always produces float32 except for integral scalars in a
// Discrete space, which keep an integer type wide enough for the count.
// Decoding (actions only) restores the native form: a bare int for
// Discrete, and a tensor of the Box's element type and shape for Box.
package codec

import (
	"math"

	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ccnlab/envwrap/spaces"
)

var (
	// ErrShapeMismatch is the spaces sentinel, re-exported for callers
	// that only import codec.
	ErrShapeMismatch = spaces.ErrShapeMismatch

	// ErrUnsupportedValue is returned for a native value of a Go type the
	// codec cannot read numbers from.
	ErrUnsupportedValue = ierrors.New("unsupported value type")

	// ErrMissingField is returned when a Dict value lacks one of the
	// space's fields.
	ErrMissingField = ierrors.New("missing dict field")
)

// Encode converts value, described by sp, into a (numEnvs, -1) tensor.
func Encode(value any, sp spaces.Space, numEnvs int) (etensor.Tensor, error) {
	if sp == nil {
		return nil, spaces.NewUnsupportedSpaceError("encode", sp)
	}
	if numEnvs < 1 {
		return nil, ierrors.Wrapf(ErrShapeMismatch, "num_envs must be positive, got %d", numEnvs)
	}
	enc := &encoder{value: value, numEnvs: numEnvs}
	if err := sp.Accept(enc); err != nil {
		return nil, err
	}
	return enc.out, nil
}

type encoder struct {
	value   any
	numEnvs int
	out     etensor.Tensor
}

// VisitDiscrete keeps integral scalars integral, sized to hold the count;
// anything else is floated.
func (en *encoder) VisitDiscrete(sp *spaces.Discrete) error {
	if iv, ok := integralScalar(en.value); ok {
		if en.numEnvs != 1 {
			return ierrors.Wrapf(ErrShapeMismatch, "scalar discrete value cannot fill %d envs", en.numEnvs)
		}
		out := spaces.NewTensor(discreteType(sp.N), []int{1, 1})
		out.SetFloat1D(0, float64(iv))
		en.out = out
		return nil
	}
	out, err := floatRows(en.value, en.numEnvs)
	if err != nil {
		return ierrors.Wrapf(err, "encode %v", sp)
	}
	en.out = out
	return nil
}

// VisitBox floats the value regardless of the declared element type.
func (en *encoder) VisitBox(sp *spaces.Box) error {
	out, err := floatRows(en.value, en.numEnvs)
	if err != nil {
		return ierrors.Wrapf(err, "encode %v", sp)
	}
	en.out = out
	return nil
}

// VisitDict encodes each field in key order and concatenates the rows.
func (en *encoder) VisitDict(sp *spaces.Dict) error {
	parts := make([]etensor.Tensor, 0, len(sp.Fields))
	for _, k := range sp.Keys() {
		fv, ok := field(en.value, k)
		if !ok {
			return ierrors.Wrapf(ErrMissingField, "encode %v: field %q", sp, k)
		}
		part, err := Encode(fv, sp.Fields[k], en.numEnvs)
		if err != nil {
			return ierrors.Wrapf(err, "field %q", k)
		}
		parts = append(parts, part)
	}
	en.out = Concat(parts, en.numEnvs)
	return nil
}

// Concat joins (numEnvs, k_i) tensors along the last axis into one
// float32 (numEnvs, sum k_i) tensor.
func Concat(parts []etensor.Tensor, numEnvs int) *etensor.Float32 {
	width := 0
	for _, p := range parts {
		width += p.Len() / numEnvs
	}
	out := etensor.NewFloat32([]int{numEnvs, width}, nil, nil)
	i := 0
	for row := 0; row < numEnvs; row++ {
		for _, p := range parts {
			pw := p.Len() / numEnvs
			for c := 0; c < pw; c++ {
				out.Values[i] = float32(p.FloatVal1D(row*pw + c))
				i++
			}
		}
	}
	return out
}

// Decode converts an action tensor into the native form described by sp.
func Decode(tsr etensor.Tensor, sp spaces.Space) (any, error) {
	if sp == nil {
		return nil, spaces.NewUnsupportedSpaceError("decode", sp)
	}
	if tsr == nil {
		return nil, ierrors.Wrapf(ErrUnsupportedValue, "decode %v: nil tensor", sp)
	}
	dec := &decoder{tsr: tsr}
	if err := sp.Accept(dec); err != nil {
		return nil, err
	}
	return dec.out, nil
}

type decoder struct {
	tsr etensor.Tensor
	out any
}

// VisitDiscrete reduces a single-element tensor to a bare int.
func (de *decoder) VisitDiscrete(sp *spaces.Discrete) error {
	if de.tsr.Len() != 1 {
		return ierrors.Wrapf(ErrShapeMismatch, "decode %v: expected 1 element, got %d", sp, de.tsr.Len())
	}
	de.out = int(de.tsr.FloatVal1D(0))
	return nil
}

// VisitBox casts to the declared element type and restores the declared
// shape (not the (numEnvs, -1) contract shape).
func (de *decoder) VisitBox(sp *spaces.Box) error {
	n := spaces.ShapeLen(sp.Shape)
	if de.tsr.Len() != n {
		return ierrors.Wrapf(ErrShapeMismatch, "decode %v: expected %d elements, got %d", sp, n, de.tsr.Len())
	}
	out := spaces.NewTensor(sp.DType, sp.Shape)
	for i := 0; i < n; i++ {
		out.SetFloat1D(i, de.tsr.FloatVal1D(i))
	}
	de.out = out
	return nil
}

// VisitDict is not defined: no supported backend takes structured actions.
func (de *decoder) VisitDict(sp *spaces.Dict) error {
	return spaces.NewUnsupportedSpaceError("decode", sp)
}

// EncodeReward floats a backend reward (scalar, slice or tensor) into
// (numEnvs, -1).
func EncodeReward(value any, numEnvs int) (*etensor.Float32, error) {
	out, err := floatRows(value, numEnvs)
	if err != nil {
		return nil, ierrors.Wrap(err, "encode reward")
	}
	return out, nil
}

// EncodeFlags converts done / terminated / truncated flags into an int8
// 0/1 mask of shape (numEnvs, -1).
func EncodeFlags(value any, numEnvs int) (*etensor.Int8, error) {
	vals, err := Floats(value)
	if err != nil {
		return nil, ierrors.Wrap(err, "encode flags")
	}
	cols, err := rowWidth(len(vals), numEnvs)
	if err != nil {
		return nil, ierrors.Wrap(err, "encode flags")
	}
	out := etensor.NewInt8([]int{numEnvs, cols}, nil, nil)
	for i, v := range vals {
		if v != 0 {
			out.Values[i] = 1
		}
	}
	return out, nil
}

func floatRows(value any, numEnvs int) (*etensor.Float32, error) {
	vals, err := Floats(value)
	if err != nil {
		return nil, err
	}
	cols, err := rowWidth(len(vals), numEnvs)
	if err != nil {
		return nil, err
	}
	out := etensor.NewFloat32([]int{numEnvs, cols}, nil, nil)
	for i, v := range vals {
		out.Values[i] = float32(v)
	}
	return out, nil
}

func rowWidth(n, numEnvs int) (int, error) {
	if n == 0 || n%numEnvs != 0 {
		return 0, ierrors.Wrapf(ErrShapeMismatch, "cannot view %d elements as (%d, -1)", n, numEnvs)
	}
	return n / numEnvs, nil
}

// discreteType is the narrowest integer type holding values 0..n-1.
func discreteType(n int) etensor.Type {
	switch {
	case n-1 <= math.MaxInt8:
		return etensor.INT8
	case n-1 <= math.MaxInt16:
		return etensor.INT16
	case n-1 <= math.MaxInt32:
		return etensor.INT32
	}
	return etensor.INT64
}

func field(value any, key string) (any, bool) {
	switch m := value.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case map[string]etensor.Tensor:
		v, ok := m[key]
		return v, ok
	case map[string]float64:
		v, ok := m[key]
		return v, ok
	case map[string]int:
		v, ok := m[key]
		return v, ok
	}
	return nil, false
}
