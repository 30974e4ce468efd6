package npc

import (
	"fmt"
	"sync"
)

type factories[T any] struct {
	kind string
	m    map[string]Factory[T]
}

func newFactories[T any](kind string) factories[T] {
	return factories[T]{kind: kind, m: make(map[string]Factory[T])}
}

func (f factories[T]) build(name string, params map[string]any) (T, error) {
	var zero T
	factory := f.m[name]
	if factory == nil {
		return zero, fmt.Errorf("unknown %s: %q", f.kind, name)
	}
	v, err := factory(params)
	if err != nil {
		return zero, fmt.Errorf("%s %q: %w", f.kind, name, err)
	}
	return v, nil
}

type reg struct {
	mu    sync.RWMutex
	acts  factories[Action]
	conds factories[Condition]
	decos factories[Decorator]
	sens  factories[Sensor]
}

// NewRegistry returns an empty registry. See RegisterBuiltins and
// RegisterSteering for the stock nodes.
func NewRegistry() Registry {
	return &reg{
		acts:  newFactories[Action]("action"),
		conds: newFactories[Condition]("condition"),
		decos: newFactories[Decorator]("decorator"),
		sens:  newFactories[Sensor]("sensor"),
	}
}

func (r *reg) RegisterAction(name string, factory Factory[Action]) {
	r.mu.Lock()
	r.acts.m[name] = factory
	r.mu.Unlock()
}

func (r *reg) RegisterCondition(name string, factory Factory[Condition]) {
	r.mu.Lock()
	r.conds.m[name] = factory
	r.mu.Unlock()
}

func (r *reg) RegisterDecorator(name string, factory Factory[Decorator]) {
	r.mu.Lock()
	r.decos.m[name] = factory
	r.mu.Unlock()
}

func (r *reg) RegisterSensor(name string, factory Factory[Sensor]) {
	r.mu.Lock()
	r.sens.m[name] = factory
	r.mu.Unlock()
}

func (r *reg) NewAction(name string, params map[string]any) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.acts.build(name, params)
}

func (r *reg) NewCondition(name string, params map[string]any) (Condition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conds.build(name, params)
}

func (r *reg) NewDecorator(name string, params map[string]any) (Decorator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.decos.build(name, params)
}

func (r *reg) NewSensor(name string, params map[string]any) (Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sens.build(name, params)
}
