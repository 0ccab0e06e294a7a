// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"github.com/goki/ki/kit"
)

// Kind names an adapter variant.
type Kind int

//go:generate stringer -type=Kind

var KiT_Kind = kit.Enums.AddEnum(KindN, false, nil)

// The adapter variants
const (
	// Auto selects the adapter from the environment's capabilities
	Auto Kind = iota

	// Gym is a single-agent (optionally vectorized) environment
	Gym

	// DeepMind is a TimeStep based environment described by specs
	DeepMind

	// PettingZoo is a multi-agent parallel environment
	PettingZoo

	// IsaacGymPreview2 is a one-shot reset vec-task with a flat buffer
	IsaacGymPreview2

	// IsaacGymPreview3 is a one-shot reset vec-task with a dict of buffers
	IsaacGymPreview3

	// OmniverseIsaacGym is a one-shot reset dict vec-task that runs its
	// simulation loop on the caller's thread
	OmniverseIsaacGym

	KindN
)

// KindCode are the names used on the command line and in config files
var KindCode = []string{"auto", "gym", "dm", "pettingzoo", "isaacgym-preview2", "isaacgym-preview3", "omniverse-isaacgym"}

// Code returns the command-line name of the kind.
func (k Kind) Code() string {
	if k < 0 || k >= KindN {
		return k.String()
	}
	return KindCode[k]
}

// ParseKind converts a command-line name into a Kind.
func ParseKind(s string) (Kind, error) {
	for i, c := range KindCode {
		if c == s {
			return Kind(i), nil
		}
	}
	return Auto, &UnknownEnvironmentKindError{Kind: s}
}

// MarshalText implements encoding.TextMarshaler using the command-line name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.Code()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}
