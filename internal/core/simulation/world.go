// Package simulation owns the entities, steps their agents each tick and
// moves them through the physics world.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/steerkit/internal/core/events/bus"
	"github.com/zeusync/steerkit/internal/core/npc"
	"github.com/zeusync/steerkit/internal/core/observability/log"
	"github.com/zeusync/steerkit/internal/core/planar"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

const (
	// EventFrame is published on bus.TopicFrames after every tick.
	EventFrame = "frame"
	// EventBoxReached is raised by agents that reach a box; the box is
	// removed at the end of the tick.
	EventBoxReached = "box.reached"
	// TagBox marks entities that EventBoxReached may remove.
	TagBox = "box"
)

var (
	ErrUnknownEntity = errors.New("simulation: unknown entity")
	ErrEmptyName     = errors.New("simulation: entity needs a name")
)

// World is the authoritative scene. Tick is not reentrant; Spawn and Despawn
// may be called between ticks from any goroutine.
type World struct {
	mu       sync.Mutex
	log      log.Log
	physics  *physics.World
	events   bus.EventBus
	registry npc.Registry
	clock    Clock
	workers  int

	entities []*Entity
	byID     map[uuid.UUID]*Entity
	tick     uint64
	elapsed  float64

	scene atomic.Pointer[scene]
	last  atomic.Pointer[Frame]

	doomedMu sync.Mutex
	doomed   []uuid.UUID
}

// NewWorld wires a world. The npc registry gets the builtin and steering
// nodes, reading the scene from this world and casting against pw.
func NewWorld(logger log.Log, pw *physics.World, events bus.EventBus, clock Clock) (*World, error) {
	w := &World{
		log:      logger.With(log.String("component", "simulation")),
		physics:  pw,
		events:   events,
		registry: npc.NewRegistry(),
		clock:    clock,
		workers:  runtime.GOMAXPROCS(0),
		byID:     make(map[uuid.UUID]*Entity),
	}
	npc.RegisterBuiltins(w.registry)
	npc.RegisterSteering(w.registry, w, pw)
	w.scene.Store(newScene(nil))
	w.last.Store(&Frame{})

	if _, err := events.SubscribeTopic(bus.TopicAgents, EventBoxReached, w.onBoxReached); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) Registry() npc.Registry  { return w.registry }
func (w *World) Physics() *physics.World { return w.physics }
func (w *World) Events() bus.EventBus    { return w.events }
func (w *World) LastFrame() Frame        { return *w.last.Load() }
func (w *World) SetWorkers(n int)        { w.workers = max(n, 1) }

// Body and Tagged implement npc.Scene over the snapshot taken at the start of
// the current tick.
func (w *World) Body(id string) (npc.Body, bool) { return w.scene.Load().Body(id) }
func (w *World) Tagged(tag string) []npc.Body    { return w.scene.Load().Tagged(tag) }

// Spawn adds an entity and, when it names a controller, builds its agent
// from the matching preset.
func (w *World) Spawn(spec EntitySpec) (*Entity, error) {
	if spec.Name == "" {
		return nil, ErrEmptyName
	}
	e := &Entity{
		ID:         uuid.New(),
		Name:       spec.Name,
		Tags:       slices.Clone(spec.Tags),
		Position:   spec.Position,
		Forward:    spec.Forward,
		Speed:      spec.Speed,
		Radius:     spec.Radius,
		Layer:      DefaultEntityLayer,
		Controller: spec.Controller,
	}
	if spec.Layer != nil {
		e.Layer = *spec.Layer
	}
	if dir, ok := planar.Normalize(e.Forward); ok {
		e.Forward = dir
	} else {
		e.Forward = planar.Forward
	}

	if spec.Controller != "" {
		cfg, err := npc.Preset(spec.Controller)
		if err != nil {
			return nil, err
		}
		agent, err := npc.BuildAgent(e.ID.String(), cfg.WithParams(spec.Params), w.registry,
			npc.WithEvents(w.events), npc.WithClock(w.clock.Now))
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", spec.Name, err)
		}
		e.agent = agent
	}

	if e.Radius > 0 {
		e.collider = &physics.Collider{
			Name:   e.Name,
			Center: e.Position,
			Radius: e.Radius,
			Layer:  e.Layer,
			Owner:  e.ID.String(),
		}
		if err := w.physics.Add(e.collider); err != nil {
			return nil, fmt.Errorf("entity %s: %w", spec.Name, err)
		}
	}

	w.mu.Lock()
	w.entities = append(w.entities, e)
	w.byID[e.ID] = e
	w.publishScene()
	w.mu.Unlock()

	w.log.Debug("entity spawned",
		log.String("name", e.Name),
		log.String("id", e.ID.String()),
		log.String("controller", e.Controller),
		log.Vec2("position", e.Position),
	)
	return e, nil
}

// Despawn removes an entity and its collider.
func (w *World) Despawn(id uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.despawnLocked(id)
}

func (w *World) despawnLocked(id uuid.UUID) error {
	e, ok := w.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	delete(w.byID, id)
	w.entities = slices.DeleteFunc(w.entities, func(x *Entity) bool { return x == e })
	if e.collider != nil {
		if err := w.physics.Remove(e.collider); err != nil {
			return err
		}
	}
	w.publishScene()
	w.log.Info("entity removed", log.String("name", e.Name), log.String("id", id.String()))
	return nil
}

// AddObstacle places a static collider.
func (w *World) AddObstacle(c *physics.Collider) error {
	return w.physics.Add(c)
}

// Entity looks an entity up by id.
func (w *World) Entity(id uuid.UUID) (*Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.byID[id]
	return e, ok
}

// Find returns the first entity called name.
func (w *World) Find(name string) (*Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entities)
}

// Tick advances the world by one clock step. Agents decide concurrently
// against a frozen scene; movement is then applied in spawn order.
func (w *World) Tick(ctx context.Context) (Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delta, _ := w.clock.Advance()
	w.tick++
	w.elapsed += delta
	ctx = log.ContextWithTick(npc.WithDelta(ctx, delta), w.tick)
	logger := w.log.WithContext(ctx)

	w.publishScene()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for _, e := range w.entities {
		if e.agent == nil {
			continue
		}
		e.agent.Blackboard().Delete(npc.KeyVelocity)
		g.Go(func() error {
			if _, err := e.agent.Step(gctx); err != nil {
				return fmt.Errorf("agent %s: %w", e.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Frame{}, err
	}

	for _, e := range w.entities {
		if e.agent == nil {
			continue
		}
		v, _ := e.agent.Blackboard().Get(npc.KeyVelocity)
		vel, _ := v.(mgl64.Vec2)
		e.integrate(vel, delta)
		if e.collider != nil {
			if err := w.physics.Move(e.collider, e.Position); err != nil {
				return Frame{}, err
			}
		}
	}

	w.reapDoomed(logger)
	w.publishScene()

	frame := w.frameLocked()
	w.last.Store(&frame)
	logger.Debug("tick", log.Int("entities", len(frame.Entities)), log.Float64("time", frame.Time))
	if err := w.events.PublishToTopic(bus.TopicFrames, bus.NewEvent(EventFrame, "simulation", frame)); err != nil {
		logger.Warn("frame subscriber failed", log.Error(err))
	}
	return frame, nil
}

// Run ticks until ctx is done or, when ticks is positive, that many times.
// A positive interval paces ticks in real time.
func (w *World) Run(ctx context.Context, ticks int, interval time.Duration) error {
	var pace <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		pace = t.C
	}
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) onBoxReached(e bus.Event) error {
	body, ok := e.Data().(npc.Body)
	if !ok || !body.HasTag(TagBox) {
		return nil
	}
	id, err := uuid.Parse(body.ID)
	if err != nil {
		return err
	}
	w.doomedMu.Lock()
	w.doomed = append(w.doomed, id)
	w.doomedMu.Unlock()
	return nil
}

func (w *World) reapDoomed(logger log.Log) {
	w.doomedMu.Lock()
	doomed := w.doomed
	w.doomed = nil
	w.doomedMu.Unlock()

	for _, id := range doomed {
		// several destroyers may report the same box
		if _, ok := w.byID[id]; !ok {
			continue
		}
		if err := w.despawnLocked(id); err != nil {
			logger.Warn("despawn failed", log.String("id", id.String()), log.Error(err))
		}
	}
}

func (w *World) publishScene() {
	bodies := make([]npc.Body, len(w.entities))
	for i, e := range w.entities {
		bodies[i] = e.Body()
	}
	w.scene.Store(newScene(bodies))
}

func (w *World) frameLocked() Frame {
	f := Frame{Tick: w.tick, Time: w.elapsed, Entities: make([]EntityState, len(w.entities))}
	for i, e := range w.entities {
		f.Entities[i] = e.state()
	}
	for _, c := range w.physics.Colliders() {
		if _, isEntity := c.Owner.(string); isEntity {
			continue
		}
		f.Obstacles = append(f.Obstacles, obstacleState(c))
	}
	return f
}
