// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"strings"

	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
)

// Selector picks and builds the adapter for an environment.
type Selector struct {
	// Kind forces an adapter; Auto inspects the environment's capabilities.
	Kind Kind

	// Logger is the parent of every adapter logger.
	Logger log.Logger
}

// WithKind forces the adapter variant instead of inspecting capabilities.
func WithKind(kind Kind) options.Option[Selector] {
	return func(s *Selector) {
		s.Kind = kind
	}
}

// WithLogger sets the parent logger of the adapter.
func WithLogger(logger log.Logger) options.Option[Selector] {
	return func(s *Selector) {
		s.Logger = logger
	}
}

// Wrap returns the adapter matching env.  Adapters for single-agent
// backends implement SingleAgentEnv, the multi-agent one MultiAgentEnv.
// The choice is made once and fixed for the life of the adapter.
func Wrap(env any, opts ...options.Option[Selector]) (Env, error) {
	s := options.Apply(&Selector{Kind: Auto}, opts)
	if s.Logger == nil {
		s.Logger = log.NewLogger()
	}

	caps := Capabilities(env)
	s.Logger.LogInfof("environment capabilities: [%s]", strings.Join(caps, ", "))

	kind, err := s.resolve(env, caps)
	if err != nil {
		return nil, err
	}
	s.Logger.LogInfof("wrapper: %s", kind.Code())

	switch kind {
	case Gym:
		return newGymWrapper(env.(GymBackend), s.Logger), nil
	case DeepMind:
		dw, err := newDMWrapper(env.(DMBackend), s.Logger)
		if err != nil {
			return nil, err
		}
		return dw, nil
	case PettingZoo:
		pw, err := newParallelWrapper(env.(ParallelBackend), s.Logger)
		if err != nil {
			return nil, err
		}
		return pw, nil
	case IsaacGymPreview2:
		return newVecTaskWrapper(env.(VecTaskBackend), s.Logger), nil
	case IsaacGymPreview3:
		return newDictVecTaskWrapper(env.(DictVecTaskBackend), s.Logger), nil
	case OmniverseIsaacGym:
		return newOmniverseWrapper(env.(OmniverseBackend), s.Logger), nil
	}
	return nil, &UnknownEnvironmentKindError{Kind: kind.Code(), Capabilities: caps}
}

// resolve checks a forced kind against env, or finds the single adapter
// whose capability set env implements.
func (s *Selector) resolve(env any, caps []string) (Kind, error) {
	if s.Kind != Auto {
		if !Implements(env, s.Kind) {
			return Auto, &UnknownEnvironmentKindError{Kind: s.Kind.Code(), Capabilities: caps}
		}
		return s.Kind, nil
	}
	var matches []Kind
	for _, c := range capabilities {
		if c.kind != Auto && c.has(env) {
			matches = append(matches, c.kind)
		}
	}
	if len(matches) != 1 {
		return Auto, &UnknownEnvironmentKindError{Kind: Auto.Code(), Capabilities: caps}
	}
	return matches[0], nil
}
