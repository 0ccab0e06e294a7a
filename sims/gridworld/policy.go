// Copyright (c) 2019, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridworld

import (
	"math/rand"

	"github.com/emer/emergent/erand"
)

// Policy is a random walk that tends to keep going the same way.
type Policy struct {
	PKeep  float32 `desc:"probability of repeating the previous action"`
	PrvAct Actions `inactive:"+" desc:"previous action"`
}

func (pl *Policy) Defaults() {
	pl.PKeep = 0.5
}

// Act selects the next action and remembers it.
func (pl *Policy) Act() Actions {
	act := pl.PrvAct
	if !erand.BoolProb(float64(pl.PKeep), -1) {
		act = Actions(rand.Intn(int(ActionsN)))
	}
	pl.PrvAct = act
	return act
}
