// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package navigator implements direction inference from move deltas and
// the primary/avoid movement state machine that drives a robot from an
// unknown starting position to the origin, routing around single-cell
// obstacles.
//
// The package never touches the wire directly — it drives an abstract
// Mover, which internal/session implements on top of internal/wire and
// internal/framing. That keeps the navigation arithmetic testable with
// an in-memory grid instead of a real socket.
package navigator

import "fmt"

// Direction is the robot's heading. Up means +Y, Down -Y, Right +X, Left -X.
type Direction int

const (
	DirUnknown Direction = iota
	Up
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return "Unknown"
	}
}

// leftCycle is the fixed left-turn rotation order: Up -> Left -> Down -> Right -> Up.
var leftCycle = [4]Direction{Up, Left, Down, Right}

func idxOf(d Direction) int {
	for i, v := range leftCycle {
		if v == d {
			return i
		}
	}
	panic(fmt.Sprintf("navigator: %v is not a rotatable heading", d))
}

func turnLeftDir(d Direction) Direction  { return leftCycle[(idxOf(d)+1)%4] }
func turnRightDir(d Direction) Direction { return leftCycle[(idxOf(d)+3)%4] }

// Mover is the movement surface the navigator drives. Each method issues
// one server request and blocks for the single reply it expects — the
// navigator never pipelines, matching the protocol's half-duplex
// contract. All three return the robot's acknowledged coordinates.
type Mover interface {
	Move() (x, y int32, err error)
	TurnLeft() (x, y int32, err error)
	TurnRight() (x, y int32, err error)
}

// maxSteps bounds the navigation loop against a misbehaving Mover (e.g.
// a test double with a bug). A real obstacle field that still leaves
// the origin reachable never approaches this; it exists purely so a
// broken implementation fails a test instead of hanging it.
const maxSteps = 1_000_000

// state tracks the robot's known position/heading invariants.
type state struct {
	posKnown bool
	x, y     int32
	dir      Direction
}

// update applies a successful reply's coordinates, inferring direction
// on the first nonzero delta observed from a known position, and
// reports whether this reply was a ram (identical coordinates to the
// prior known position).
func (st *state) update(x, y int32) (rammed bool) {
	if st.posKnown && x == st.x && y == st.y {
		rammed = true
	}

	if st.dir == DirUnknown && st.posKnown {
		dx, dy := x-st.x, y-st.y
		if dx != 0 || dy != 0 {
			switch {
			case dx == -1 && dy == 0:
				st.dir = Left
			case dx == 1 && dy == 0:
				st.dir = Right
			case dx == 0 && dy == -1:
				st.dir = Down
			case dx == 0 && dy == 1:
				st.dir = Up
			default:
				panic(fmt.Sprintf("navigator: unreachable move delta (%d,%d) from a known position", dx, dy))
			}
		}
	}

	st.x, st.y = x, y
	st.posKnown = true
	return rammed
}

// rotateTo issues 0, 1 (left or right), or 2 (left, left) turns to face
// target, following the fixed turn cycle.
func (st *state) rotateTo(m Mover, target Direction) error {
	if st.dir == target {
		return nil
	}
	delta := (idxOf(target) - idxOf(st.dir) + 4) % 4
	switch delta {
	case 1:
		return st.turnLeft(m)
	case 2:
		if err := st.turnLeft(m); err != nil {
			return err
		}
		return st.turnLeft(m)
	case 3:
		return st.turnRight(m)
	}
	return nil
}

func (st *state) turnLeft(m Mover) error {
	x, y, err := m.TurnLeft()
	if err != nil {
		return err
	}
	st.x, st.y = x, y
	if st.dir != DirUnknown {
		st.dir = turnLeftDir(st.dir)
	}
	return nil
}

func (st *state) turnRight(m Mover) error {
	x, y, err := m.TurnRight()
	if err != nil {
		return err
	}
	st.x, st.y = x, y
	if st.dir != DirUnknown {
		st.dir = turnRightDir(st.dir)
	}
	return nil
}

// primaryAndAvoid picks the axis-reducing heading and its orthogonal
// detour heading for the navigation loop.
func (st *state) primaryAndAvoid() (primary, avoid Direction) {
	if st.x != 0 {
		if st.x < 0 {
			primary = Right
		} else {
			primary = Left
		}
		if st.y < 0 {
			avoid = Up
		} else {
			avoid = Down
		}
		return
	}
	if st.y < 0 {
		primary = Up
	} else {
		primary = Down
	}
	if st.x < 0 {
		avoid = Right
	} else {
		avoid = Left
	}
	return
}

// step runs one iteration of the navigation loop: rotate to primary,
// move; on a ram, detour via avoid and come back to primary.
func (st *state) step(m Mover) error {
	primary, avoid := st.primaryAndAvoid()

	if err := st.rotateTo(m, primary); err != nil {
		return err
	}
	x, y, err := m.Move()
	if err != nil {
		return err
	}
	if !st.update(x, y) {
		return nil
	}

	// Rammed: sidestep via avoid, then re-advance on primary. There is no
	// sidestep back; later iterations of the loop remove the offset.
	if err := st.rotateTo(m, avoid); err != nil {
		return err
	}
	x, y, err = m.Move()
	if err != nil {
		return err
	}
	st.update(x, y)

	if err := st.rotateTo(m, primary); err != nil {
		return err
	}
	x, y, err = m.Move()
	if err != nil {
		return err
	}
	st.update(x, y)
	return nil
}

// acquire performs the initial two-move position/heading probe: the
// first move always succeeds (no prior position to ram against); the
// second move, if it rams, is followed by a single
// left turn (direction stays Unknown across a turn) and a third move,
// guaranteeing direction is Known before the navigation loop starts.
func (st *state) acquire(m Mover) error {
	x, y, err := m.Move()
	if err != nil {
		return err
	}
	st.update(x, y)

	x, y, err = m.Move()
	if err != nil {
		return err
	}
	if rammed := st.update(x, y); rammed {
		if err := st.turnLeft(m); err != nil {
			return err
		}
		x, y, err = m.Move()
		if err != nil {
			return err
		}
		st.update(x, y)
	}
	return nil
}

// Run drives m from an unknown starting position to (0, 0), returning
// nil once the origin is reached. It never returns early on a ram — the
// obstacle-detour policy in step() always resumes the loop afterward.
func Run(m Mover) error {
	var st state
	if err := st.acquire(m); err != nil {
		return err
	}

	for i := 0; (st.x != 0 || st.y != 0); i++ {
		if i >= maxSteps {
			return fmt.Errorf("navigator: exceeded %d moves without reaching the origin", maxSteps)
		}
		if err := st.step(m); err != nil {
			return err
		}
	}
	return nil
}
