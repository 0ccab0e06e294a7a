// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"fmt"
	"strings"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ccnlab/envwrap/spaces"
)

var (
	// ErrClosed is returned by Reset and Step after Close.
	ErrClosed = ierrors.New("environment is closed")

	// ErrMissingBuffer is returned when a dictionary-of-buffers backend
	// does not provide the "obs" entry.
	ErrMissingBuffer = ierrors.New("missing observation buffer")

	// ErrUnknownAgent is returned when actions are given for an agent that
	// is not one of the possible agents.
	ErrUnknownAgent = ierrors.New("unknown agent")
)

// UnknownEnvironmentKindError is returned when no single adapter can be
// selected for an environment: none of the known capability sets matched,
// more than one did, or an explicit kind does not fit the environment.
type UnknownEnvironmentKindError struct {
	Kind         string   `desc:"requested kind, or auto"`
	Capabilities []string `desc:"capability names the environment was found to implement"`
}

func (e *UnknownEnvironmentKindError) Error() string {
	return fmt.Sprintf("unknown environment kind %q, inspected capabilities [%s]", e.Kind, strings.Join(e.Capabilities, ", "))
}

// HeterogeneousAgentSpaceError is returned when multi-agent observation
// spaces cannot be stacked into one shared observation.
type HeterogeneousAgentSpaceError struct {
	Agent     string       `desc:"agent whose space differs"`
	Reference string       `desc:"agent whose space is used as the reference"`
	Got       spaces.Space `desc:"observation space of Agent"`
	Want      spaces.Space `desc:"observation space of Reference"`
}

func (e *HeterogeneousAgentSpaceError) Error() string {
	return fmt.Sprintf("observation space of agent %q (%v) differs from agent %q (%v)", e.Agent, e.Got, e.Reference, e.Want)
}
