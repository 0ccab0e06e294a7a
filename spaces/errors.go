// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spaces

import "fmt"

// UnsupportedSpaceError is returned when a space (or a backend's native
// space description) falls outside Discrete, Box and Dict, or when an
// operation is not defined for an otherwise valid space.  It signals a
// missing backend integration, not bad data.
type UnsupportedSpaceError struct {
	Op   string `desc:"operation that was attempted, e.g. encode or decode"`
	Type string `desc:"runtime type of the offending space"`
}

// NewUnsupportedSpaceError names the runtime type of space.
func NewUnsupportedSpaceError(op string, space any) *UnsupportedSpaceError {
	return &UnsupportedSpaceError{Op: op, Type: fmt.Sprintf("%T", space)}
}

func (e *UnsupportedSpaceError) Error() string {
	return fmt.Sprintf("%s: space type %s not supported", e.Op, e.Type)
}
