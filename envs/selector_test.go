// Copyright (c) 2022, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapAuto(t *testing.T) {
	tests := []struct {
		name string
		env  any
		kind Kind
	}{
		{"gym", newFakeGym(1), Gym},
		{"dm", &fakeDM{}, DeepMind},
		{"pettingzoo", newFakeParallel(2, 3), PettingZoo},
		{"isaacgym-preview2", &flatVecTask{fakeVecTask{numEnvs: 2}}, IsaacGymPreview2},
		{"isaacgym-preview3", &dictVecTask{fakeVecTask{numEnvs: 2}, "obs"}, IsaacGymPreview3},
		{"omniverse-isaacgym", &omniVecTask{dictVecTask: dictVecTask{fakeVecTask{numEnvs: 2}, "obs"}}, OmniverseIsaacGym},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wenv, err := Wrap(tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, wenv.Kind())
			assert.Equal(t, tt.name, wenv.Kind().Code())
		})
	}
}

func TestWrapUnknown(t *testing.T) {
	_, err := Wrap(struct{}{})
	var uek *UnknownEnvironmentKindError
	require.ErrorAs(t, err, &uek)
	assert.Equal(t, "auto", uek.Kind)
	assert.Empty(t, uek.Capabilities)

	// only optional capabilities
	_, err = Wrap(&renderOnly{})
	require.ErrorAs(t, err, &uek)
	assert.Equal(t, []string{"Render"}, uek.Capabilities)
	assert.Contains(t, err.Error(), "Render")
}

func TestWrapWithKind(t *testing.T) {
	wenv, err := Wrap(newFakeGym(1), WithKind(Gym))
	require.NoError(t, err)
	assert.Equal(t, Gym, wenv.Kind())

	_, err = Wrap(newFakeGym(1), WithKind(IsaacGymPreview2))
	var uek *UnknownEnvironmentKindError
	require.ErrorAs(t, err, &uek)
	assert.Equal(t, "isaacgym-preview2", uek.Kind)
	assert.Equal(t, []string{"gym.Env", "NumEnvs", "Close"}, uek.Capabilities)
}

func TestParseKind(t *testing.T) {
	for i, code := range KindCode {
		k, err := ParseKind(code)
		require.NoError(t, err)
		assert.Equal(t, Kind(i), k)
	}
	_, err := ParseKind("mujoco")
	var uek *UnknownEnvironmentKindError
	require.ErrorAs(t, err, &uek)
	assert.Equal(t, "mujoco", uek.Kind)

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("dm")))
	assert.Equal(t, DeepMind, k)
	assert.Equal(t, "DeepMind", k.String())
}

type renderOnly struct{}

func (renderOnly) Render(opts ...any) error { return nil }
