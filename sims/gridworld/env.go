// Copyright (c) 2019, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gridworld is a multi-agent grid navigation world with views for
// each backend convention envs can adapt: a vectorized single-agent
// SingleEnv, a parallel multi-agent ParallelEnv, a TimeStep based DMEnv and
// the one-shot reset VecEnv / DictVecEnv.
//
// Agents see their position as a 2D population code over the grid plus the
// color of the tile they stand on, and are rewarded for moving closer to
// the goal.
package gridworld

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/emer/emergent/env"
	"github.com/emer/emergent/popcode"
	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"

	"github.com/ccnlab/envwrap/spaces"
)

// GoalReward is added to the progress reward when an agent reaches the goal.
const GoalReward = 10

// Agent is the state of one agent in the world.
type Agent struct {
	Pos    Pos       `desc:"current position"`
	PrvPos Pos       `desc:"position before the last action"`
	CurAct Actions   `desc:"last action taken"`
	Done   bool      `desc:"reached the goal this episode"`
	Dist   CurPrvVel `desc:"manhattan distance to the goal"`
	Return float32   `desc:"summed reward this episode"`
}

// Env manages one grid world and its agents
type Env struct {
	Nm       string  `desc:"name of this environment"`
	Dsc      string  `desc:"description of this environment"`
	Layout   string  `desc:"world layout: ' ' open, '#' wall, 'G' goal"`
	File     string  `desc:"layout file, used instead of Layout when set"`
	NAgents  int     `desc:"number of agents"`
	MaxSteps int     `desc:"steps after which an episode is truncated"`
	Colors   int     `desc:"number of tile colors"`
	Episode  env.Ctr `view:"inline" desc:"episode, incremented on every Reset"`
	Tick     env.Ctr `view:"inline" desc:"step within the episode"`
	World    *World
	Agents   []Agent
	pop2D    popcode.TwoD
	rnd      *rand.Rand
}

func (ev *Env) Name() string { return ev.Nm }
func (ev *Env) Desc() string { return ev.Dsc }

func (ev *Env) Defaults() {
	ev.Nm = "gridworld"
	ev.Dsc = "grid navigation to a goal"
	ev.Layout = Rooms
	ev.NAgents = 1
	ev.MaxSteps = 50
	ev.Colors = 4
}

// Init parses the world and configures the position code.  Reset must be
// called before the first step.
func (ev *Env) Init(seed int64) error {
	if ev.Colors < 1 {
		ev.Colors = 1
	}
	ev.rnd = rand.New(rand.NewSource(seed))
	var wld *World
	var err error
	if ev.File != "" {
		wld, err = OpenWorld(ev.File, ev.Colors, ev.rnd)
	} else {
		wld, err = ParseWorld(ev.Layout, ev.Colors, ev.rnd)
	}
	if err != nil {
		return err
	}
	ev.World = wld
	ev.Agents = make([]Agent, ev.NAgents)

	ev.pop2D = popcode.TwoD{}
	ev.pop2D.Code = popcode.GaussBump
	ev.pop2D.Min.Set(0, 0)
	ev.pop2D.Max.Set(float32(wld.Cols()-1), float32(wld.Rows()-1))
	sigma := float32(0.1)
	ev.pop2D.Sigma.Set(sigma, sigma)
	ev.pop2D.Thr = 0.1
	ev.pop2D.Clip = true
	ev.pop2D.MinSum = 0.2

	ev.Episode.Scale = env.Episode
	ev.Tick.Scale = env.Tick
	ev.Episode.Init()
	ev.Tick.Init()
	ev.Episode.Cur = -1 // init state -- key so that first Reset() = 0
	return nil
}

// Reset places every agent on a random open tile and starts a new episode.
func (ev *Env) Reset() {
	open := ev.World.OpenTiles()
	for i := range ev.Agents {
		ag := &ev.Agents[i]
		ag.Pos = open[ev.rnd.Intn(len(open))]
		ag.PrvPos = ag.Pos
		ag.Done = false
		ag.Return = 0
		ag.Dist.Init(float32(ag.Pos.Dist(ev.World.Goal)))
	}
	ev.Episode.Incr()
	ev.Tick.Init()
}

// Act moves agent ai one step and returns its reward: the decrease in its
// distance to the goal, plus GoalReward on arrival.  Agents that are done
// do not move.
func (ev *Env) Act(ai int, act Actions) (reward float32, terminated bool) {
	ag := &ev.Agents[ai]
	if ag.Done {
		return 0, true
	}
	ag.CurAct = act
	ag.PrvPos = ag.Pos
	if np := Move(ag.Pos, act); ev.World.Open(np) {
		ag.Pos = np
	}
	ag.Dist.Update(float32(ag.Pos.Dist(ev.World.Goal)))
	reward = -ag.Dist.Vel
	if ag.Pos == ev.World.Goal {
		ag.Done = true
		reward += GoalReward
	}
	ag.Return += reward
	return reward, ag.Done
}

// EndStep advances the step counter and reports whether the episode ran
// out of steps.
func (ev *Env) EndStep() (truncated bool) {
	ev.Tick.Incr()
	return ev.MaxSteps > 0 && ev.Tick.Cur >= ev.MaxSteps
}

// AllDone reports whether every agent reached the goal.
func (ev *Env) AllDone() bool {
	for _, ag := range ev.Agents {
		if !ag.Done {
			return false
		}
	}
	return true
}

// PosMap returns the population-coded position of agent ai, shape
// [rows, cols].
func (ev *Env) PosMap(ai int) *etensor.Float32 {
	tsr := etensor.NewFloat32([]int{ev.World.Rows(), ev.World.Cols()}, nil, []string{"Y", "X"})
	pos := ev.Agents[ai].Pos
	vec := mat32.Vec2{
		X: float32(pos.Col),
		Y: float32(pos.Row),
	}
	ev.pop2D.Encode(tsr, vec, popcode.Set)
	return tsr
}

// Color is the color of the tile under agent ai.
func (ev *Env) Color(ai int) int {
	return ev.World.Loc(ev.Agents[ai].Pos).Color
}

// Observation is the native observation of agent ai.
func (ev *Env) Observation(ai int) map[string]any {
	return map[string]any{
		"pos":   ev.PosMap(ai),
		"color": ev.Color(ai),
	}
}

// ObservationSpace describes Observation.
func (ev *Env) ObservationSpace() spaces.Space {
	return spaces.NewDict(map[string]spaces.Space{
		"pos":   spaces.NewBox(0, 1, []int{ev.World.Rows(), ev.World.Cols()}, etensor.FLOAT32),
		"color": spaces.NewDiscrete(ev.Colors),
	})
}

// ActionSpace is one of the four moves.
func (ev *Env) ActionSpace() spaces.Space {
	return spaces.NewDiscrete(int(ActionsN))
}

// String draws the world: agents as digits, the goal as G.
func (ev *Env) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Episode %d Tick %d\n", ev.Nm, ev.Episode.Cur, ev.Tick.Cur)
	for r, row := range ev.World.Grid {
		for c, tl := range row {
			p := Pos{r, c}
			ch := byte(' ')
			switch {
			case !tl.Open:
				ch = '#'
			case p == ev.World.Goal:
				ch = 'G'
			}
			for ai, ag := range ev.Agents {
				if ag.Pos == p && !ag.Done {
					ch = byte('0' + ai%10)
				}
			}
			sb.WriteByte(ch)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
