package colony

// Pool is a fixed-size population of agents. Agents are recycled in place, so
// the population never changes size.
type Pool struct {
	agents []Agent
	memory int
	budget int
}

// NewPool creates size agents parked at start. memory is the recent-trail
// capacity; budget is the step budget, used to size each agent's path.
func NewPool(size, memory, budget, start int) *Pool {
	if size < 0 {
		size = 0
	}
	if memory < 0 {
		memory = 0
	}
	if budget < 1 {
		budget = 1
	}
	p := &Pool{
		agents: make([]Agent, size),
		memory: memory,
		budget: budget,
	}
	for i := range p.agents {
		p.agents[i] = newAgent(i, memory, budget, start)
	}
	return p
}

// Len returns the population size.
func (p *Pool) Len() int { return len(p.agents) }

// Budget returns the step budget.
func (p *Pool) Budget() int { return p.budget }

// At returns the i-th agent.
func (p *Pool) At(i int) *Agent { return &p.agents[i] }

// ResetAll parks every agent at start with an empty trail.
func (p *Pool) ResetAll(start int) {
	for i := range p.agents {
		p.agents[i].Reset(start)
	}
}

// Positions returns every agent's current position.
func (p *Pool) Positions() []int {
	out := make([]int, len(p.agents))
	for i := range p.agents {
		out[i] = p.agents[i].Pos()
	}
	return out
}

// Counts returns the number of agents per state.
func (p *Pool) Counts() map[State]int {
	out := make(map[State]int, 3)
	for i := range p.agents {
		out[p.agents[i].State]++
	}
	return out
}
