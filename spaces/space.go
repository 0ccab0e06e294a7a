// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spaces describes the shape, range and structure of observations
// and actions, independent of any one simulator's native space types.
//
// The set of spaces is closed: Discrete, Box and Dict.  Code that needs to
// handle every kind implements Visitor, so a missing case is a compile error
// rather than a runtime fallback.
package spaces

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/emer/etable/etensor"
	"github.com/emer/etable/tsragg"
	"github.com/iotaledger/hive.go/ierrors"
)

// ErrShapeMismatch is returned when a value or bound does not fit a shape.
var ErrShapeMismatch = ierrors.New("shape mismatch")

// Space is an immutable descriptor of a value.  Implemented only by
// *Discrete, *Box and *Dict.
type Space interface {
	fmt.Stringer

	// Flatdim is the number of features one value of this space occupies
	// in a flattened row.
	Flatdim() int

	// Equal reports structural equality, including bounds.
	Equal(other Space) bool

	// Accept calls the Visitor method matching the concrete space.
	Accept(v Visitor) error

	sealed()
}

// Visitor handles every space kind.
type Visitor interface {
	VisitDiscrete(sp *Discrete) error
	VisitBox(sp *Box) error
	VisitDict(sp *Dict) error
}

// Discrete is the set {0, 1, ..., N-1}
type Discrete struct {
	N int `desc:"number of discrete values"`
}

// NewDiscrete returns a Discrete space with n values.
func NewDiscrete(n int) *Discrete {
	return &Discrete{N: n}
}

func (sp *Discrete) Flatdim() int { return 1 }

func (sp *Discrete) String() string { return fmt.Sprintf("Discrete(%d)", sp.N) }

func (sp *Discrete) Accept(v Visitor) error { return v.VisitDiscrete(sp) }

func (sp *Discrete) Equal(other Space) bool {
	o, ok := other.(*Discrete)
	return ok && o.N == sp.N
}

// Contains reports whether v is one of the space's values.
func (sp *Discrete) Contains(v int) bool { return v >= 0 && v < sp.N }

func (sp *Discrete) sealed() {}

// Box is a (possibly unbounded) n-dimensional box of numbers.  Low and High
// always carry the full Shape; scalar bounds are broadcast at construction.
type Box struct {
	Low   *etensor.Float64 `desc:"lower bound for every element, same shape as Shape"`
	High  *etensor.Float64 `desc:"upper bound for every element, same shape as Shape"`
	Shape []int            `desc:"shape of one value, excluding the num_envs dimension"`
	DType etensor.Type     `desc:"element type values are cast to when decoding actions"`
}

// NewBox returns a Box with scalar bounds broadcast to shape.  An empty
// shape is a scalar box whose bounds hold a single element.
func NewBox(low, high float64, shape []int, dtype etensor.Type) *Box {
	shp := append([]int(nil), shape...)
	lo := etensor.NewFloat64(TensorShape(shp), nil, nil)
	hi := etensor.NewFloat64(TensorShape(shp), nil, nil)
	for i := range lo.Values {
		lo.Values[i] = low
		hi.Values[i] = high
	}
	return &Box{Low: lo, High: hi, Shape: shp, DType: dtype}
}

// NewBoxBounds returns a Box whose bounds are given element-wise.  low and
// high must have the same number of elements, and the shape of low is used
// as the shape of the box.
func NewBoxBounds(low, high etensor.Tensor, dtype etensor.Type) (*Box, error) {
	if low.Len() != high.Len() {
		return nil, ierrors.Wrapf(ErrShapeMismatch, "box bounds have %d and %d elements", low.Len(), high.Len())
	}
	shp := append([]int(nil), low.Shapes()...)
	lo := etensor.NewFloat64(shp, nil, nil)
	hi := etensor.NewFloat64(shp, nil, nil)
	for i := range lo.Values {
		lo.Values[i] = low.FloatVal1D(i)
		hi.Values[i] = high.FloatVal1D(i)
	}
	return &Box{Low: lo, High: hi, Shape: shp, DType: dtype}, nil
}

func (sp *Box) Flatdim() int { return ShapeLen(sp.Shape) }

func (sp *Box) String() string {
	return fmt.Sprintf("Box(%g, %g, %v, %v)", tsragg.Min(sp.Low), tsragg.Max(sp.High), sp.Shape, sp.DType)
}

func (sp *Box) Accept(v Visitor) error { return v.VisitBox(sp) }

func (sp *Box) Equal(other Space) bool {
	o, ok := other.(*Box)
	if !ok || o.DType != sp.DType || !EqualShapes(o.Shape, sp.Shape) {
		return false
	}
	for i := range sp.Low.Values {
		if !sameFloat(sp.Low.Values[i], o.Low.Values[i]) || !sameFloat(sp.High.Values[i], o.High.Values[i]) {
			return false
		}
	}
	return true
}

// Bounded reports whether every element has finite lower and upper bounds.
func (sp *Box) Bounded() bool {
	if sp.Low.Len() == 0 {
		return true
	}
	return !math.IsInf(tsragg.Min(sp.Low), -1) && !math.IsInf(tsragg.Max(sp.High), 1)
}

// Contains reports whether t has the box's element count and lies within
// its bounds element-wise.
func (sp *Box) Contains(t etensor.Tensor) bool {
	if t == nil || t.Len() != sp.Low.Len() {
		return false
	}
	if t.Len() == 0 {
		return true
	}
	if tsragg.Min(t) >= tsragg.Max(sp.Low) && tsragg.Max(t) <= tsragg.Min(sp.High) {
		return true
	}
	for i := 0; i < t.Len(); i++ {
		v := t.FloatVal1D(i)
		if v < sp.Low.Values[i] || v > sp.High.Values[i] {
			return false
		}
	}
	return true
}

func (sp *Box) sealed() {}

// Dict is a composite of named sub-spaces.  Fields are always traversed in
// alphabetic order of their names, regardless of insertion order.
type Dict struct {
	Fields map[string]Space `desc:"named sub-spaces"`
}

// NewDict returns a Dict over the given fields.
func NewDict(fields map[string]Space) *Dict {
	fl := make(map[string]Space, len(fields))
	for k, v := range fields {
		fl[k] = v
	}
	return &Dict{Fields: fl}
}

// Keys returns the field names in canonical (alphabetic) order.
func (sp *Dict) Keys() []string {
	keys := make([]string, 0, len(sp.Fields))
	for k := range sp.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (sp *Dict) Flatdim() int {
	n := 0
	for _, f := range sp.Fields {
		n += f.Flatdim()
	}
	return n
}

func (sp *Dict) String() string {
	parts := make([]string, 0, len(sp.Fields))
	for _, k := range sp.Keys() {
		parts = append(parts, k+": "+sp.Fields[k].String())
	}
	return "Dict(" + strings.Join(parts, ", ") + ")"
}

func (sp *Dict) Accept(v Visitor) error { return v.VisitDict(sp) }

func (sp *Dict) Equal(other Space) bool {
	o, ok := other.(*Dict)
	if !ok || len(o.Fields) != len(sp.Fields) {
		return false
	}
	for k, f := range sp.Fields {
		of, has := o.Fields[k]
		if !has || f == nil || of == nil || !f.Equal(of) {
			return false
		}
	}
	return true
}

func (sp *Dict) sealed() {}

// SameLayout is like Equal but ignores Box bounds: two spaces have the same
// layout when their values can be stacked element for element.
func SameLayout(a, b Space) bool {
	switch as := a.(type) {
	case *Discrete:
		bs, ok := b.(*Discrete)
		return ok && bs.N == as.N
	case *Box:
		bs, ok := b.(*Box)
		return ok && bs.DType == as.DType && EqualShapes(bs.Shape, as.Shape)
	case *Dict:
		bs, ok := b.(*Dict)
		if !ok || len(bs.Fields) != len(as.Fields) {
			return false
		}
		for k, f := range as.Fields {
			bf, has := bs.Fields[k]
			if !has || !SameLayout(f, bf) {
				return false
			}
		}
		return true
	}
	return false
}

// TensorShape is the shape a tensor holding one value of shape needs:
// etensor has no zero-dimensional tensors, so the empty shape becomes [1].
func TensorShape(shape []int) []int {
	if len(shape) == 0 {
		return []int{1}
	}
	return append([]int(nil), shape...)
}

// ShapeLen is the number of elements in a shape; 1 for the empty shape.
func ShapeLen(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// EqualShapes reports whether two shapes are identical.
func EqualShapes(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
