// Package npc runs behaviour trees for steering agents. An Agent refreshes its
// Blackboard from sensors, ticks its tree and records the decision. Steering
// nodes read the scene through the Scene interface and leave the velocity they
// want under KeyVelocity.
package npc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zeusync/steerkit/internal/core/events/bus"
)

// Status is the result of ticking a node.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Blackboard is thread-safe per-agent storage shared by sensors and nodes.
type Blackboard interface {
	// Get returns (nil, false) when key is absent.
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	// Namespace returns a view whose keys are stored as "ns:key".
	Namespace(ns string) Blackboard
	// Keys returns the sorted keys visible through this view.
	Keys() []string
	// MarshalBinary encodes every persistent value with gob. Keys in the
	// VolatileNamespace are skipped.
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(b []byte) error
}

// Memory keeps a bounded history of decisions.
type Memory interface {
	AppendDecision(rec DecisionRecord)
	// History returns a copy, oldest first.
	History() []DecisionRecord
	Reset()
	Save() ([]byte, error)
	Load(b []byte) error
}

// TickContext is handed to every node during a tick.
type TickContext struct {
	Ctx    context.Context
	BB     Blackboard
	Memory Memory
	Events bus.EventBus
	// Self is the id of the agent being ticked.
	Self  string
	Clock func() time.Time
	// Delta is the simulated time since the previous tick, in seconds.
	Delta float64
}

type BehaviorNode interface {
	Tick(t TickContext) (Status, error)
	Name() string
}

type Action interface {
	BehaviorNode
}

type Condition interface {
	BehaviorNode
}

// Decorator wraps a single child.
type Decorator interface {
	BehaviorNode
	SetChild(child BehaviorNode)
}

// Composite manages an ordered list of children.
type Composite interface {
	BehaviorNode
	SetChildren(children ...BehaviorNode)
}

// Sensor refreshes blackboard state before the tree runs.
type Sensor interface {
	Name() string
	Update(ctx context.Context, bb Blackboard) error
}

type DecisionTree interface {
	Root() BehaviorNode
	Tick(t TickContext) (Status, error)
}

// Factory builds a node or sensor from config params.
type Factory[T any] func(params map[string]any) (T, error)

// Registry maps config names to factories. Factories are invoked once per
// agent so stateful nodes are never shared.
type Registry interface {
	RegisterAction(name string, factory Factory[Action])
	RegisterCondition(name string, factory Factory[Condition])
	RegisterDecorator(name string, factory Factory[Decorator])
	RegisterSensor(name string, factory Factory[Sensor])

	NewAction(name string, params map[string]any) (Action, error)
	NewCondition(name string, params map[string]any) (Condition, error)
	NewDecorator(name string, params map[string]any) (Decorator, error)
	NewSensor(name string, params map[string]any) (Sensor, error)
}

// Agent couples sensors, a decision tree, memory and the shared event bus.
type Agent interface {
	ID() string
	// Step runs sensors, then the tree, then records the decision.
	Step(ctx context.Context) (Status, error)
	Blackboard() Blackboard
	Memory() Memory
	Events() bus.EventBus
	// SaveState snapshots blackboard and memory.
	SaveState() ([]byte, error)
	LoadState(b []byte) error
}

type DecisionRecord struct {
	Node      string          `json:"node"`
	Status    Status          `json:"status"`
	Duration  time.Duration   `json:"duration"`
	Timestamp time.Time       `json:"ts"`
	Metadata  json.RawMessage `json:"meta,omitempty"`
}
