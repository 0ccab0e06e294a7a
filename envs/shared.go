// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"math"

	"github.com/emer/etable/etensor"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ccnlab/envwrap/codec"
	"github.com/ccnlab/envwrap/spaces"
)

// ErrNoAgents is returned for a multi-agent backend with no possible agents.
var ErrNoAgents = ierrors.New("no possible agents")

// SharedObservation stacks the observations of every possible agent into
// one joint view for centralized critics.  All agents must share one
// observation layout, checked when it is built.
type SharedObservation struct {
	Agents     []string     `desc:"possible agents, in stacking order"`
	AgentSpace spaces.Space `desc:"observation space shared by every agent"`
	Space      spaces.Space `desc:"joint space of the stacked observations"`
	NumEnvs    int          `desc:"number of envs per observation"`
}

// NewSharedObservation checks that every agent has the observation layout
// of the first one and builds the joint space.
func NewSharedObservation(agents []string, obsSpaces map[string]spaces.Space, numEnvs int) (*SharedObservation, error) {
	if len(agents) == 0 {
		return nil, ErrNoAgents
	}
	ref := obsSpaces[agents[0]]
	if ref == nil {
		return nil, spaces.NewUnsupportedSpaceError("share observations", ref)
	}
	for _, a := range agents[1:] {
		if sp := obsSpaces[a]; !spaces.SameLayout(ref, sp) {
			return nil, &HeterogeneousAgentSpaceError{Agent: a, Reference: agents[0], Got: sp, Want: ref}
		}
	}
	so := &SharedObservation{
		Agents:     append([]string(nil), agents...),
		AgentSpace: ref,
		NumEnvs:    numEnvs,
	}
	stack := make([]spaces.Space, len(agents))
	for i, a := range agents {
		stack[i] = obsSpaces[a]
	}
	joint, err := jointSpace(stack)
	if err != nil {
		return nil, err
	}
	so.Space = joint
	return so, nil
}

// jointSpace prepends the agent count to the per-agent shape.  Box bounds
// are stacked agent by agent, so agents may differ in bounds.
func jointSpace(agentSpaces []spaces.Space) (spaces.Space, error) {
	n := len(agentSpaces)
	switch as := agentSpaces[0].(type) {
	case *spaces.Box:
		shape := append([]int{n}, as.Shape...)
		per := as.Low.Len()
		low := etensor.NewFloat64(shape, nil, nil)
		high := etensor.NewFloat64(shape, nil, nil)
		for a, sp := range agentSpaces {
			box := sp.(*spaces.Box)
			copy(low.Values[a*per:], box.Low.Values)
			copy(high.Values[a*per:], box.High.Values)
		}
		box, err := spaces.NewBoxBounds(low, high, as.DType)
		if err != nil {
			return nil, err
		}
		return box, nil
	case *spaces.Discrete:
		return spaces.NewBox(0, float64(as.N-1), []int{n}, etensor.INT64), nil
	case *spaces.Dict:
		return spaces.NewBox(math.Inf(-1), math.Inf(1), []int{n, as.Flatdim()}, etensor.FLOAT32), nil
	}
	return nil, spaces.NewUnsupportedSpaceError("share observations", agentSpaces[0])
}

// Synthesize stacks the agents' observations and encodes the stack through
// the joint space, giving a (NumEnvs, agents * features) tensor.  Rows are
// laid out env by env, agents in possible-agent order within a row.  Agents
// with no observation this step contribute zeros.
func (so *SharedObservation) Synthesize(obs map[string]any) (etensor.Tensor, error) {
	feat := so.AgentSpace.Flatdim()
	n := len(so.Agents)
	stack := make([]float64, so.NumEnvs*n*feat)
	for a, uid := range so.Agents {
		v, ok := obs[uid]
		if !ok || v == nil {
			continue
		}
		enc, err := codec.Encode(v, so.AgentSpace, so.NumEnvs)
		if err != nil {
			return nil, ierrors.Wrapf(err, "shared observation of agent %q", uid)
		}
		if enc.Len() != so.NumEnvs*feat {
			return nil, ierrors.Wrapf(codec.ErrShapeMismatch, "agent %q has %d features, expected %d", uid, enc.Len()/so.NumEnvs, feat)
		}
		for e := 0; e < so.NumEnvs; e++ {
			for f := 0; f < feat; f++ {
				stack[(e*n+a)*feat+f] = enc.FloatVal1D(e*feat + f)
			}
		}
	}
	return codec.Encode(stack, so.Space, so.NumEnvs)
}
