package param

import (
	"fmt"
	"sync"
)

// Group is an ordered, name-indexed, owning collection of parameters:
// one effect's (or the engine's) full control surface. Insertion order is
// stable and is the index used by positional hardware mapping.
type Group struct {
	name   string
	params map[string]Parameter
	order  []string
	mu     sync.RWMutex

	// onMiss, when set, is called for lookups of unknown ids unless the
	// caller suppresses the report.
	onMiss func(id string)
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{
		name:   name,
		params: make(map[string]Parameter),
		order:  make([]string, 0),
	}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// OnMiss installs a reporter for unknown-id lookups. Setup-time only.
func (g *Group) OnMiss(fn func(id string)) {
	g.onMiss = fn
}

// Add registers parameters. Ids are unique within a group and immutable
// after construction; a duplicate id is an error.
func (g *Group) Add(params ...Parameter) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range params {
		if _, exists := g.params[p.ID()]; exists {
			return fmt.Errorf("duplicate parameter id %q in group %q", p.ID(), g.name)
		}
		g.params[p.ID()] = p
		g.order = append(g.order, p.ID())
	}
	return nil
}

// Get retrieves a parameter by id. An unknown id is reported through the
// OnMiss hook and returns nil.
func (g *Group) Get(id string) Parameter {
	p, _ := g.Lookup(id, false)
	return p
}

// Lookup retrieves a parameter by id. suppressMiss skips the miss report
// for expected-miss queries.
func (g *Group) Lookup(id string, suppressMiss bool) (Parameter, bool) {
	g.mu.RLock()
	p, ok := g.params[id]
	g.mu.RUnlock()

	if !ok && !suppressMiss && g.onMiss != nil {
		g.onMiss(id)
	}
	return p, ok
}

// ByIndex retrieves a parameter by insertion position: pot N maps to
// parameter N.
func (g *Group) ByIndex(index int) Parameter {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if index < 0 || index >= len(g.order) {
		return nil
	}
	return g.params[g.order[index]]
}

// Count returns the number of parameters.
func (g *Group) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// All returns all parameters in insertion order.
func (g *Group) All() []Parameter {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]Parameter, len(g.order))
	for i, id := range g.order {
		result[i] = g.params[id]
	}
	return result
}

// ProcessRamps advances every slide's ramp by one tick. Called from the
// audio thread at the ramp tick rate.
func (g *Group) ProcessRamps() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, id := range g.order {
		if s, ok := g.params[id].(*Slide); ok {
			s.Process()
		}
	}
}
