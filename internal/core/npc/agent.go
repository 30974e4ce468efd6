package npc

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/zeusync/steerkit/internal/core/events/bus"
)

var ErrNilConfig = errors.New("npc: config is nil")

type agent struct {
	id      string
	bb      Blackboard
	mem     Memory
	events  bus.EventBus
	tree    DecisionTree
	sensors []Sensor
	clock   func() time.Time
}

type Option func(*agent)

func WithBlackboard(bb Blackboard) Option { return func(a *agent) { a.bb = bb } }
func WithMemory(m Memory) Option          { return func(a *agent) { a.mem = m } }
func WithEvents(eb bus.EventBus) Option   { return func(a *agent) { a.events = eb } }

// WithClock replaces the wall clock used for timers and decision records.
func WithClock(clock func() time.Time) Option { return func(a *agent) { a.clock = clock } }

// NewAgent wires an agent. Missing parts default to a fresh blackboard,
// memory and event bus. The agent id is written to KeySelf.
func NewAgent(id string, tree DecisionTree, sensors []Sensor, opts ...Option) Agent {
	a := &agent{id: id, tree: tree, sensors: sensors, clock: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.bb == nil {
		a.bb = NewBlackboard()
	}
	if a.mem == nil {
		a.mem = NewMemory(0)
	}
	if a.events == nil {
		a.events = bus.New()
	}
	if a.tree == nil {
		a.tree = Tree{}
	}
	a.bb.Set(KeySelf, id)
	return a
}

func (a *agent) ID() string             { return a.id }
func (a *agent) Blackboard() Blackboard { return a.bb }
func (a *agent) Memory() Memory         { return a.mem }
func (a *agent) Events() bus.EventBus   { return a.events }

func (a *agent) Step(ctx context.Context) (Status, error) {
	for _, s := range a.sensors {
		if err := s.Update(ctx, a.bb); err != nil {
			return StatusFailure, fmt.Errorf("sensor %s: %w", s.Name(), err)
		}
	}

	tc := TickContext{
		Ctx:    ctx,
		BB:     a.bb,
		Memory: a.mem,
		Events: a.events,
		Self:   a.id,
		Clock:  a.clock,
		Delta:  DeltaFrom(ctx),
	}
	start := a.clock()
	st, err := a.tree.Tick(tc)

	name := "<empty>"
	if root := a.tree.Root(); root != nil {
		name = root.Name()
	}
	end := a.clock()
	a.mem.AppendDecision(DecisionRecord{Node: name, Status: st, Duration: end.Sub(start), Timestamp: end})
	return st, err
}

type agentState struct{ BB, Mem []byte }

func (a *agent) SaveState() ([]byte, error) {
	bbBytes, err := a.bb.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("blackboard: %w", err)
	}
	memBytes, err := a.mem.Save()
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	var buf bytes.Buffer
	if err = gob.NewEncoder(&buf).Encode(agentState{BB: bbBytes, Mem: memBytes}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *agent) LoadState(b []byte) error {
	var state agentState
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&state); err != nil {
		return err
	}
	if len(state.BB) > 0 {
		if err := a.bb.UnmarshalBinary(state.BB); err != nil {
			return fmt.Errorf("blackboard: %w", err)
		}
	}
	if len(state.Mem) > 0 {
		if err := a.mem.Load(state.Mem); err != nil {
			return fmt.Errorf("memory: %w", err)
		}
	}
	// the snapshot may come from another agent
	a.bb.Set(KeySelf, a.id)
	return nil
}

// BuildAgent builds a fresh tree from cfg and wraps it in an agent.
func BuildAgent(id string, cfg *Config, reg Registry, opts ...Option) (Agent, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	tree, sensors, err := cfg.Build(reg)
	if err != nil {
		return nil, err
	}
	return NewAgent(id, tree, sensors, opts...), nil
}
