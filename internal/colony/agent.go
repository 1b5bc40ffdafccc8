// Package colony implements the agent pool: a fixed population of search
// agents ("ants") that walk from Start toward End, and the weighted move
// selection they use.
package colony

import "fmt"

// State is an agent's lifecycle state.
type State uint8

const (
	Searching State = iota
	Reached
	Stuck
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Reached:
		return "reached"
	case Stuck:
		return "stuck"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Agent is one search unit. Positions are flat grid indices.
//
// path holds every position visited since the last reset, current position
// last, and is what gets reinforced on success. recent is a bounded ring of
// the most recent previous positions; it only drives backtrack avoidance, so
// its oldest entries drop first.
type Agent struct {
	ID    int
	State State

	path []int

	recent []int
	head   int
	filled int
}

func newAgent(id, memory, budget, start int) Agent {
	a := Agent{
		ID:     id,
		path:   make([]int, 0, budget+1),
		recent: make([]int, memory),
	}
	a.Reset(start)
	return a
}

// Pos returns the agent's current position.
func (a *Agent) Pos() int {
	return a.path[len(a.path)-1]
}

// Steps returns the number of moves since the last reset.
func (a *Agent) Steps() int {
	return len(a.path) - 1
}

// Path returns the positions visited since the last reset, current last.
// The slice is owned by the agent and is overwritten on Reset.
func (a *Agent) Path() []int {
	return a.path
}

// Reset parks the agent at start with an empty trail in Searching state.
func (a *Agent) Reset(start int) {
	a.path = append(a.path[:0], start)
	a.head = 0
	a.filled = 0
	a.State = Searching
}

// MoveTo advances the agent to idx, pushing its old position onto the
// recent-trail ring.
func (a *Agent) MoveTo(idx int) {
	if len(a.recent) > 0 {
		a.recent[a.head] = a.Pos()
		a.head = (a.head + 1) % len(a.recent)
		if a.filled < len(a.recent) {
			a.filled++
		}
	}
	a.path = append(a.path, idx)
}

// Remembers reports whether idx is in the agent's recent trail.
func (a *Agent) Remembers(idx int) bool {
	for i := 0; i < a.filled; i++ {
		if a.recent[i] == idx {
			return true
		}
	}
	return false
}

// Recent returns the recent trail, oldest first.
func (a *Agent) Recent() []int {
	out := make([]int, 0, a.filled)
	start := a.head - a.filled
	if start < 0 {
		start += len(a.recent)
	}
	for i := 0; i < a.filled; i++ {
		out = append(out, a.recent[(start+i)%len(a.recent)])
	}
	return out
}
