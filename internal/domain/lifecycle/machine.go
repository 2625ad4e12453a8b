package lifecycle

import (
	"fmt"

	"github.com/procureflow/invoiceflow/internal/domain/entity"
)

// GuardFunc decides whether the acting user may take a transition.
type GuardFunc func(actor entity.Actor) bool

// StateMachine validates and applies invoice status transitions.
type StateMachine interface {
	// Status returns the current status.
	Status() entity.Status

	// CanFire returns true if the trigger has at least one edge from the
	// current status, regardless of guards.
	CanFire(trigger Trigger) bool

	// Fire attempts the trigger for the given actor, advancing the machine
	// on success. Returns ErrInvalidTransition when no edge exists and
	// ErrPermissionDenied when every edge's guard rejects the actor.
	Fire(actor entity.Actor, trigger Trigger) error

	// PermittedTriggers returns the triggers with an edge from the current
	// status whose guard accepts the actor.
	PermittedTriggers(actor entity.Actor) []Trigger
}

// Builder configures a state machine before instances are built from it.
type Builder interface {
	// Configure returns the edge configuration for a status.
	Configure(status entity.Status) StatusConfiguration

	// Build creates an independent machine instance at the initial status.
	Build(initial entity.Status) StateMachine
}

// StatusConfiguration declares outgoing edges for one status.
type StatusConfiguration interface {
	// Permit allows a trigger to transition to the target status.
	Permit(trigger Trigger, to entity.Status) StatusConfiguration

	// PermitIf allows the transition only when the guard accepts the actor.
	PermitIf(trigger Trigger, to entity.Status, guard GuardFunc) StatusConfiguration
}

type edge struct {
	to    entity.Status
	guard GuardFunc
}

type statusConfig struct {
	from  entity.Status
	edges map[Trigger][]edge
}

type builder struct {
	configs map[entity.Status]*statusConfig
}

type machine struct {
	current entity.Status
	configs map[entity.Status]*statusConfig
}

// NewBuilder creates an empty state machine builder.
func NewBuilder() Builder {
	return &builder{configs: make(map[entity.Status]*statusConfig)}
}

func (b *builder) Configure(status entity.Status) StatusConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}
	cfg, ok := b.configs[status]
	if !ok {
		cfg = &statusConfig{from: status, edges: make(map[Trigger][]edge)}
		b.configs[status] = cfg
	}
	return cfg
}

func (b *builder) Build(initial entity.Status) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial status: %s", initial))
	}

	// Copy edge tables so machines built from the same builder are independent.
	configs := make(map[entity.Status]*statusConfig, len(b.configs))
	for status, cfg := range b.configs {
		edges := make(map[Trigger][]edge, len(cfg.edges))
		for trigger, es := range cfg.edges {
			edges[trigger] = append([]edge{}, es...)
		}
		configs[status] = &statusConfig{from: status, edges: edges}
	}

	return &machine{current: initial, configs: configs}
}

func (c *statusConfig) Permit(trigger Trigger, to entity.Status) StatusConfiguration {
	return c.PermitIf(trigger, to, nil)
}

func (c *statusConfig) PermitIf(trigger Trigger, to entity.Status, guard GuardFunc) StatusConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}
	c.edges[trigger] = append(c.edges[trigger], edge{to: to, guard: guard})
	return c
}

func (m *machine) Status() entity.Status {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	cfg, ok := m.configs[m.current]
	if !ok {
		return false
	}
	return len(cfg.edges[trigger]) > 0
}

func (m *machine) Fire(actor entity.Actor, trigger Trigger) error {
	cfg, ok := m.configs[m.current]
	if !ok {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	edges, ok := cfg.edges[trigger]
	if !ok || len(edges) == 0 {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, e := range edges {
		if e.guard == nil || e.guard(actor) {
			m.current = e.to
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s for actor %s", ErrPermissionDenied, trigger, m.current, actor.ID)
}

func (m *machine) PermittedTriggers(actor entity.Actor) []Trigger {
	cfg, ok := m.configs[m.current]
	if !ok {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(cfg.edges))
	for trigger, edges := range cfg.edges {
		for _, e := range edges {
			if e.guard == nil || e.guard(actor) {
				triggers = append(triggers, trigger)
				break
			}
		}
	}
	return triggers
}
