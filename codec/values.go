// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

import (
	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"
)

// Floats reads the numbers out of a native value in row-major order.
// Supported: etensor.Tensor, numeric and bool scalars, and slices of them.
func Floats(value any) ([]float64, error) {
	switch v := value.(type) {
	case etensor.Tensor:
		var out []float64
		v.Floats(&out)
		return out, nil
	case []float64:
		return append([]float64(nil), v...), nil
	case []float32:
		return convert(v), nil
	case []int:
		return convert(v), nil
	case []int64:
		return convert(v), nil
	case []int32:
		return convert(v), nil
	case []int8:
		return convert(v), nil
	case []uint8:
		return convert(v), nil
	case []bool:
		out := make([]float64, len(v))
		for i, b := range v {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	case bool:
		if v {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	case float64:
		return []float64{v}, nil
	case float32:
		return []float64{float64(v)}, nil
	}
	if iv, ok := integralScalar(value); ok {
		return []float64{float64(iv)}, nil
	}
	return nil, ierrors.Wrapf(ErrUnsupportedValue, "%T", value)
}

type number interface {
	~float32 | ~int | ~int64 | ~int32 | ~int8 | ~uint8
}

func convert[T number](vals []T) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

// integralScalar reports whether value is a Go integer scalar.
func integralScalar(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}
