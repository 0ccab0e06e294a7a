// Copyright (c) 2019, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridworld

import (
	"math/rand"
	"os"
	"strings"

	"github.com/iotaledger/hive.go/ierrors"
)

// ErrBadLayout is returned for a world layout that cannot be parsed.
var ErrBadLayout = ierrors.New("bad world layout")

// Rooms is the default layout: two rooms joined by a door, goal in the
// right room.
const Rooms = `
#########
#   #   #
#       #
#   #  G#
#########
`

// Open5 is an open 5x5 field with the goal in a corner.
const Open5 = `
#######
#     #
#     #
#     #
#     #
#    G#
#######
`

type Pos struct {
	Row int
	Col int
}

// Dist is the manhattan distance between two positions.
func (ps Pos) Dist(o Pos) int {
	return abs(ps.Row-o.Row) + abs(ps.Col-o.Col)
}

type Tile struct {
	Open  bool
	Color int
}

var tilekey = map[rune]Tile{
	' ': {Open: true},
	'G': {Open: true},
	'#': {Open: false},
}

// World is a grid of tiles with one goal.
type World struct {
	Grid [][]Tile
	Goal Pos
}

// ParseWorld builds a world from a text layout: ' ' is open, '#' a wall and
// 'G' the goal.  Short rows are padded with walls.  Each tile gets a random
// color in [0, colors).
func ParseWorld(layout string, colors int, rnd *rand.Rand) (*World, error) {
	lines := strings.Split(strings.Trim(layout, "\n"), "\n")
	width := 0
	for _, ln := range lines {
		if len(ln) > width {
			width = len(ln)
		}
	}
	if width == 0 {
		return nil, ierrors.Wrap(ErrBadLayout, "empty layout")
	}
	wld := &World{Grid: make([][]Tile, len(lines)), Goal: Pos{-1, -1}}
	for row, ln := range lines {
		wld.Grid[row] = make([]Tile, width)
		for col, symbol := range ln {
			tile, ok := tilekey[symbol]
			if !ok {
				return nil, ierrors.Wrapf(ErrBadLayout, "unknown symbol %q at %d,%d", symbol, row, col)
			}
			if symbol == 'G' {
				wld.Goal = Pos{row, col}
			}
			tile.Color = rnd.Intn(colors)
			wld.Grid[row][col] = tile
		}
	}
	if wld.Goal.Row < 0 {
		return nil, ierrors.Wrap(ErrBadLayout, "no goal")
	}
	return wld, nil
}

// OpenWorld reads a layout from filename.
func OpenWorld(filename string, colors int, rnd *rand.Rand) (*World, error) {
	dat, err := os.ReadFile(filename)
	if err != nil {
		return nil, ierrors.Wrapf(err, "open world %s", filename)
	}
	return ParseWorld(string(dat), colors, rnd)
}

func (wld *World) Rows() int { return len(wld.Grid) }
func (wld *World) Cols() int { return len(wld.Grid[0]) }

// Loc returns the tile at pos, or nil outside the grid.
func (wld *World) Loc(pos Pos) *Tile {
	if pos.Row < 0 || pos.Row >= wld.Rows() || pos.Col < 0 || pos.Col >= wld.Cols() {
		return nil
	}
	return &wld.Grid[pos.Row][pos.Col]
}

// Open reports whether an agent may stand on pos.
func (wld *World) Open(pos Pos) bool {
	tl := wld.Loc(pos)
	return tl != nil && tl.Open
}

// OpenTiles lists every open position except the goal, in row-major order.
func (wld *World) OpenTiles() []Pos {
	var out []Pos
	for r, row := range wld.Grid {
		for c, tl := range row {
			p := Pos{r, c}
			if tl.Open && p != wld.Goal {
				out = append(out, p)
			}
		}
	}
	return out
}

// Move returns the position one step from pos in direction act.  North is
// up in the layout.
func Move(pos Pos, act Actions) Pos {
	switch act {
	case North:
		pos.Row--
	case East:
		pos.Col++
	case South:
		pos.Row++
	case West:
		pos.Col--
	}
	return pos
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
