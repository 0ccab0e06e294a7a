// Copyright (c) 2019, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridworld

// CurPrvVel tracks a value across steps: current, previous and the
// difference between them.  Agents use it for their distance to the goal,
// the CLI for episode returns.
type CurPrvVel struct {
	Cur float32 `desc:"current value"`
	Prv float32 `desc:"previous value"`
	Vel float32 `desc:"velocity as difference: Cur - Prv"`
}

// Init sets Cur and Prv to v, with zero velocity.
func (cv *CurPrvVel) Init(v float32) {
	cv.Cur = v
	cv.Prv = v
	cv.Vel = 0
}

// Update updates the new current value, copying Cur to Prv and computing Vel
func (cv *CurPrvVel) Update(cur float32) {
	cv.Prv = cv.Cur
	cv.Cur = cur
	cv.Vel = cv.Cur - cv.Prv
}
