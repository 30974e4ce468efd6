package simulation

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/zeusync/steerkit/internal/core/npc"
	"github.com/zeusync/steerkit/internal/core/planar"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

// DefaultEntityLayer keeps moving entities off layer 0, which the stock
// presets reserve for static obstacles.
const DefaultEntityLayer = 1

// Entity is one simulated body. Its fields are owned by the World and must
// only be read through snapshots while the world is ticking.
type Entity struct {
	ID       uuid.UUID
	Name     string
	Tags     []string
	Position mgl64.Vec2
	Forward  mgl64.Vec2
	Velocity mgl64.Vec2
	Speed    float64
	Radius   float64
	Layer    int
	// Controller is the preset driving the entity; empty for props.
	Controller string

	collider *physics.Collider
	agent    npc.Agent
}

// EntitySpec describes an entity to spawn.
type EntitySpec struct {
	Name       string
	Tags       []string
	Position   mgl64.Vec2
	Forward    mgl64.Vec2
	Speed      float64
	Radius     float64
	Layer      *int
	Controller string
	// Params overrides preset node and sensor params by name.
	Params map[string]map[string]any
}

func (e *Entity) HasTag(tag string) bool { return slices.Contains(e.Tags, tag) }

// Agent returns the behaviour driving e, or nil for props.
func (e *Entity) Agent() npc.Agent { return e.agent }

// Body snapshots e for agents.
func (e *Entity) Body() npc.Body {
	return npc.Body{
		ID:       e.ID.String(),
		Name:     e.Name,
		Tags:     slices.Clone(e.Tags),
		Pos:      e.Position,
		Heading:  e.Forward,
		Velocity: e.Velocity,
		Speed:    e.Speed,
		Radius:   e.Radius,
	}
}

// integrate moves e along v for delta seconds. The heading follows any
// non-zero velocity.
func (e *Entity) integrate(v mgl64.Vec2, delta float64) {
	if e.Speed > 0 {
		v = planar.Truncate(v, e.Speed)
	}
	e.Velocity = v
	e.Position = e.Position.Add(v.Mul(delta))
	if dir, ok := planar.Normalize(v); ok {
		e.Forward = dir
	}
}

// EntityState is the wire form of an entity inside a Frame.
type EntityState struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Tags       []string   `json:"tags,omitempty"`
	Position   [2]float64 `json:"position"`
	Forward    [2]float64 `json:"forward"`
	Velocity   [2]float64 `json:"velocity"`
	Radius     float64    `json:"radius"`
	Controller string     `json:"controller,omitempty"`
}

// ObstacleState is the wire form of a static collider.
type ObstacleState struct {
	Name    string     `json:"name"`
	Shape   string     `json:"shape"`
	Center  [2]float64 `json:"center"`
	Radius  float64    `json:"radius,omitempty"`
	Half    [2]float64 `json:"half,omitempty"`
	Layer   int        `json:"layer"`
	Trigger bool       `json:"trigger,omitempty"`
}

// Frame is the scene after one tick.
type Frame struct {
	Tick      uint64          `json:"tick"`
	Time      float64         `json:"time"`
	Entities  []EntityState   `json:"entities"`
	Obstacles []ObstacleState `json:"obstacles,omitempty"`
}

// Find returns the state of the first entity called name.
func (f Frame) Find(name string) (EntityState, bool) {
	for _, e := range f.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return EntityState{}, false
}

func (e *Entity) state() EntityState {
	return EntityState{
		ID:         e.ID.String(),
		Name:       e.Name,
		Tags:       slices.Clone(e.Tags),
		Position:   e.Position,
		Forward:    e.Forward,
		Velocity:   e.Velocity,
		Radius:     e.Radius,
		Controller: e.Controller,
	}
}

func obstacleState(c *physics.Collider) ObstacleState {
	return ObstacleState{
		Name:    c.Name,
		Shape:   c.Shape.String(),
		Center:  c.Center,
		Radius:  c.Radius,
		Half:    c.Half,
		Layer:   c.Layer,
		Trigger: c.Trigger,
	}
}
