package config

import (
	"fmt"
	"strconv"
	"time"
)

// key binds a dot-notation name to a field.
type key struct {
	name string
	get  func(*PheromonesConfig) any
	set  func(*PheromonesConfig, string) error
}

func intKey(name string, field func(*PheromonesConfig) *int) key {
	return key{
		name: name,
		get:  func(c *PheromonesConfig) any { return *field(c) },
		set: func(c *PheromonesConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatKey(name string, field func(*PheromonesConfig) *float64) key {
	return key{
		name: name,
		get:  func(c *PheromonesConfig) any { return *field(c) },
		set: func(c *PheromonesConfig, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*field(c) = f
			return nil
		},
	}
}

func stringKey(name string, field func(*PheromonesConfig) *string) key {
	return key{
		name: name,
		get:  func(c *PheromonesConfig) any { return *field(c) },
		set: func(c *PheromonesConfig, v string) error {
			*field(c) = v
			return nil
		},
	}
}

var keys = []key{
	intKey("simulation.width", func(c *PheromonesConfig) *int { return &c.Simulation.Width }),
	intKey("simulation.height", func(c *PheromonesConfig) *int { return &c.Simulation.Height }),
	intKey("simulation.agents", func(c *PheromonesConfig) *int { return &c.Simulation.Agents }),
	floatKey("simulation.alpha", func(c *PheromonesConfig) *float64 { return &c.Simulation.Alpha }),
	floatKey("simulation.beta", func(c *PheromonesConfig) *float64 { return &c.Simulation.Beta }),
	floatKey("simulation.epsilon", func(c *PheromonesConfig) *float64 { return &c.Simulation.Epsilon }),
	intKey("simulation.connectivity", func(c *PheromonesConfig) *int { return &c.Simulation.Connectivity }),
	floatKey("simulation.evaporation", func(c *PheromonesConfig) *float64 { return &c.Simulation.Evaporation }),
	floatKey("simulation.deposit", func(c *PheromonesConfig) *float64 { return &c.Simulation.Deposit }),
	floatKey("simulation.ceiling", func(c *PheromonesConfig) *float64 { return &c.Simulation.Ceiling }),
	floatKey("simulation.diffusion", func(c *PheromonesConfig) *float64 { return &c.Simulation.Diffusion }),
	intKey("simulation.step_budget", func(c *PheromonesConfig) *int { return &c.Simulation.StepBudget }),
	intKey("simulation.memory", func(c *PheromonesConfig) *int { return &c.Simulation.Memory }),
	intKey("simulation.workers", func(c *PheromonesConfig) *int { return &c.Simulation.Workers }),
	{
		name: "simulation.seed",
		get:  func(c *PheromonesConfig) any { return c.Simulation.Seed },
		set: func(c *PheromonesConfig, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("simulation.seed: %w", err)
			}
			c.Simulation.Seed = n
			return nil
		},
	},
	stringKey("server.addr", func(c *PheromonesConfig) *string { return &c.Server.Addr }),
	{
		name: "server.tick_interval",
		get:  func(c *PheromonesConfig) any { return c.Server.TickInterval.String() },
		set: func(c *PheromonesConfig, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("server.tick_interval: %w", err)
			}
			c.Server.TickInterval = d
			return nil
		},
	},
	stringKey("store.dir", func(c *PheromonesConfig) *string { return &c.Store.Dir }),
	stringKey("logging.level", func(c *PheromonesConfig) *string { return &c.Logging.Level }),
}

// Keys returns every dot-notation key in display order.
func Keys() []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.name
	}
	return out
}

func lookup(name string) (key, bool) {
	for _, k := range keys {
		if k.name == name {
			return k, true
		}
	}
	return key{}, false
}

// Get retrieves a configuration value by dot-notation key.
func (c *PheromonesConfig) Get(name string) (any, bool) {
	k, ok := lookup(name)
	if !ok {
		return nil, false
	}
	return k.get(c), true
}

// Set parses value into the field named by a dot-notation key. The result is
// validated; on failure the config is left unchanged.
func (c *PheromonesConfig) Set(name, value string) error {
	k, ok := lookup(name)
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", name)
	}
	next := *c
	if err := k.set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
