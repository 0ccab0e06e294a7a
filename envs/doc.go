// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package envs adapts simulation backends with different reset / step
conventions to one contract a training loop can drive without knowing which
backend it talks to.

Every tensor crossing an adapter has shape (NumEnvs, features): observations
and rewards are float32 (integral scalar observations of a Discrete space
keep an integer type), done / terminated / truncated are int8 0/1 masks.
Actions are given in the same flat form and decoded to each backend's
native shape.

Wrap inspects which capability interfaces an environment implements
(GymBackend, DMBackend, ParallelBackend, VecTaskBackend,
DictVecTaskBackend, OmniverseBackend) and returns the matching adapter:

	wenv, err := envs.Wrap(backend)
	sa := wenv.(envs.SingleAgentEnv)
	obs, info, err := sa.Reset()

The multi-agent adapter adds a shared observation of all possible agents to
the info of every Reset and Step, under SharedStatesKey.

Vec-task adapters call the backend's reset only once: those simulators
reset finished envs themselves, and a second native reset corrupts their
state.  Later Resets return the buffered observations.

EmerEnv drives a SingleAgentEnv through the State / Action / Step methods
of emergent environments, for code built around that loop.
*/
package envs
