// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"math"

	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ccnlab/envwrap/spaces"
)

// ArraySpec describes an unbounded array.
type ArraySpec struct {
	Shape []int        `desc:"shape of the array"`
	DType etensor.Type `desc:"element type"`
	Name  string       `desc:"optional name"`
}

// BoundedArraySpec is an ArraySpec with bounds.  Minimum and Maximum hold
// either one value, broadcast to Shape, or one value per element.
type BoundedArraySpec struct {
	ArraySpec
	Minimum []float64 `desc:"lower bound(s)"`
	Maximum []float64 `desc:"upper bound(s)"`
}

// DiscreteArraySpec is a scalar taking NumValues integer values.
type DiscreteArraySpec struct {
	NumValues int          `desc:"number of values"`
	DType     etensor.Type `desc:"element type"`
	Name      string       `desc:"optional name"`
}

// SpecDict is a named collection of specs.
type SpecDict map[string]any

// SpecToSpace converts a spec into the equivalent space.
func SpecToSpace(spec any) (spaces.Space, error) {
	switch sp := spec.(type) {
	case *DiscreteArraySpec:
		return spaces.NewDiscrete(sp.NumValues), nil
	case *BoundedArraySpec:
		low, err := broadcast(sp.Minimum, sp.Shape)
		if err != nil {
			return nil, ierrors.Wrapf(err, "minimum of %q", sp.Name)
		}
		high, err := broadcast(sp.Maximum, sp.Shape)
		if err != nil {
			return nil, ierrors.Wrapf(err, "maximum of %q", sp.Name)
		}
		if len(sp.Shape) == 0 {
			return spaces.NewBox(low.Values[0], high.Values[0], nil, sp.DType), nil
		}
		box, err := spaces.NewBoxBounds(low, high, sp.DType)
		if err != nil {
			return nil, err
		}
		return box, nil
	case *ArraySpec:
		return spaces.NewBox(math.Inf(-1), math.Inf(1), sp.Shape, sp.DType), nil
	case SpecDict:
		fields := make(map[string]spaces.Space, len(sp))
		for k, v := range sp {
			f, err := SpecToSpace(v)
			if err != nil {
				return nil, err
			}
			fields[k] = f
		}
		return spaces.NewDict(fields), nil
	}
	return nil, spaces.NewUnsupportedSpaceError("convert spec", spec)
}

func broadcast(vals []float64, shape []int) (*etensor.Float64, error) {
	n := spaces.ShapeLen(shape)
	out := etensor.NewFloat64(spaces.TensorShape(shape), nil, nil)
	switch len(vals) {
	case 1:
		for i := range out.Values {
			out.Values[i] = vals[0]
		}
	case n:
		copy(out.Values, vals)
	default:
		return nil, ierrors.Wrapf(spaces.ErrShapeMismatch, "%d bounds for %d elements", len(vals), n)
	}
	return out, nil
}
