// Copyright (c) 2019, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridworld

import (
	"github.com/goki/ki/kit"
	"github.com/iotaledger/hive.go/ierrors"
)

// Actions is a list of available actions for an agent
type Actions int

//go:generate stringer -type=Actions

var KiT_Actions = kit.Enums.AddEnum(ActionsN, false, nil)

// The actions avail
const (
	North Actions = iota
	East
	South
	West
	ActionsN
)

// ActionsCode are code letters for the actions
var ActionsCode = []string{"N", "E", "S", "W"}

// ErrInvalidAction is returned for an action outside North..West.
var ErrInvalidAction = ierrors.New("invalid action")

// ToAction converts a decoded action (any Go integer, or a float holding
// one) into Actions.
func ToAction(v any) (Actions, error) {
	var a int
	switch x := v.(type) {
	case Actions:
		a = int(x)
	case int:
		a = x
	case int64:
		a = int(x)
	case int32:
		a = int(x)
	case int8:
		a = int(x)
	case float32:
		a = int(x)
	case float64:
		a = int(x)
	default:
		return North, ierrors.Wrapf(ErrInvalidAction, "%T", v)
	}
	if a < 0 || a >= int(ActionsN) {
		return North, ierrors.Wrapf(ErrInvalidAction, "%d", a)
	}
	return Actions(a), nil
}
