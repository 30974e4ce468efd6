package npc

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrNilChild      = errors.New("npc: decorator has no child")
	ErrUnknownPolicy = errors.New("npc: unknown parallel policy")
)

type baseNode struct{ name string }

func (b baseNode) Name() string { return b.name }

// ActionFunc adapts a function into an Action.
type ActionFunc struct {
	baseNode
	Fn func(t TickContext) (Status, error)
}

func NewActionFunc(name string, fn func(t TickContext) (Status, error)) ActionFunc {
	return ActionFunc{baseNode: baseNode{name: name}, Fn: fn}
}

func (a ActionFunc) Tick(t TickContext) (Status, error) { return a.Fn(t) }

// ConditionFunc adapts a predicate into a Condition.
type ConditionFunc struct {
	baseNode
	Fn func(t TickContext) (bool, error)
}

func NewConditionFunc(name string, fn func(t TickContext) (bool, error)) ConditionFunc {
	return ConditionFunc{baseNode: baseNode{name: name}, Fn: fn}
}

func (c ConditionFunc) Tick(t TickContext) (Status, error) {
	ok, err := c.Fn(t)
	switch {
	case err != nil:
		return StatusFailure, err
	case ok:
		return StatusSuccess, nil
	default:
		return StatusFailure, nil
	}
}

// Sequence succeeds when every child succeeds and stops at the first child
// that fails or is still running.
type Sequence struct {
	baseNode
	children []BehaviorNode
}

func NewSequence(name string, children ...BehaviorNode) *Sequence {
	return &Sequence{baseNode: baseNode{name: name}, children: children}
}

func (s *Sequence) SetChildren(children ...BehaviorNode) { s.children = children }

func (s *Sequence) Tick(t TickContext) (Status, error) {
	for _, ch := range s.children {
		st, err := ch.Tick(t)
		if err != nil {
			return StatusFailure, fmt.Errorf("%s: %w", ch.Name(), err)
		}
		if st != StatusSuccess {
			return st, nil
		}
	}
	return StatusSuccess, nil
}

// Selector returns the first child result that is not a failure.
type Selector struct {
	baseNode
	children []BehaviorNode
}

func NewSelector(name string, children ...BehaviorNode) *Selector {
	return &Selector{baseNode: baseNode{name: name}, children: children}
}

func (s *Selector) SetChildren(children ...BehaviorNode) { s.children = children }

func (s *Selector) Tick(t TickContext) (Status, error) {
	var errs error
	for _, ch := range s.children {
		st, err := ch.Tick(t)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		if st != StatusFailure {
			return st, nil
		}
	}
	return StatusFailure, errs
}

type ParallelPolicy int

const (
	ParallelRequireAllSuccess ParallelPolicy = iota
	ParallelRequireOneSuccess
)

// Parallel ticks every child in order on each tick and folds the results
// with its policy.
type Parallel struct {
	baseNode
	children []BehaviorNode
	policy   ParallelPolicy
}

func NewParallel(name string, policy ParallelPolicy, children ...BehaviorNode) *Parallel {
	return &Parallel{baseNode: baseNode{name: name}, policy: policy, children: children}
}

func (p *Parallel) SetChildren(children ...BehaviorNode) { p.children = children }

func (p *Parallel) Tick(t TickContext) (Status, error) {
	if len(p.children) == 0 {
		return StatusSuccess, nil
	}
	var (
		successes int
		running   bool
		errs      error
	)
	for _, ch := range p.children {
		st, err := ch.Tick(t)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
		switch st {
		case StatusSuccess:
			successes++
		case StatusRunning:
			running = true
		}
	}

	var done bool
	switch p.policy {
	case ParallelRequireAllSuccess:
		done = successes == len(p.children)
	case ParallelRequireOneSuccess:
		done = successes > 0
	default:
		return StatusFailure, ErrUnknownPolicy
	}
	switch {
	case done:
		return StatusSuccess, errs
	case running:
		return StatusRunning, errs
	default:
		return StatusFailure, errs
	}
}

// Repeat ticks its child Times times within one tick.
type Repeat struct {
	baseNode
	child         BehaviorNode
	Times         int
	StopOnFailure bool
}

func NewRepeat(name string, times int, stopOnFailure bool) *Repeat {
	return &Repeat{baseNode: baseNode{name: name}, Times: times, StopOnFailure: stopOnFailure}
}

func (r *Repeat) SetChild(child BehaviorNode) { r.child = child }

func (r *Repeat) Tick(t TickContext) (Status, error) {
	if r.child == nil {
		return StatusFailure, ErrNilChild
	}
	for range r.Times {
		st, err := r.child.Tick(t)
		if err != nil {
			return StatusFailure, err
		}
		if st == StatusRunning {
			return StatusRunning, nil
		}
		if st == StatusFailure && r.StopOnFailure {
			return StatusFailure, nil
		}
	}
	return StatusSuccess, nil
}

// Timer holds its child back for Duration of tick-clock time, then runs it
// once and rearms. The start time is kept on the blackboard under
// "<name>.start".
type Timer struct {
	baseNode
	child    BehaviorNode
	Duration time.Duration
}

func NewTimer(name string, d time.Duration) *Timer {
	return &Timer{baseNode: baseNode{name: name}, Duration: d}
}

func (d *Timer) SetChild(child BehaviorNode) { d.child = child }

func (d *Timer) Tick(t TickContext) (Status, error) {
	if d.child == nil {
		return StatusFailure, ErrNilChild
	}
	key := d.name + ".start"
	now := t.Clock()
	val, ok := t.BB.Get(key)
	if !ok {
		t.BB.Set(key, now)
		return StatusRunning, nil
	}
	if start, _ := val.(time.Time); now.Sub(start) < d.Duration {
		return StatusRunning, nil
	}
	t.BB.Delete(key)
	return d.child.Tick(t)
}

// Probability runs its child with chance P and fails otherwise.
type Probability struct {
	baseNode
	child BehaviorNode
	P     float64
	rand  *rand.Rand
}

// NewProbability seeds from seed when it is non-empty, so replays draw the
// same sequence; otherwise from the wall clock.
func NewProbability(name string, p float64, seed string) *Probability {
	src := time.Now().UnixNano()
	if seed != "" {
		src = int64(xxhash.Sum64String(seed))
	}
	return &Probability{baseNode: baseNode{name: name}, P: p, rand: rand.New(rand.NewSource(src))}
}

func (p *Probability) SetChild(child BehaviorNode) { p.child = child }

func (p *Probability) Tick(t TickContext) (Status, error) {
	if p.child == nil {
		return StatusFailure, ErrNilChild
	}
	switch {
	case p.P <= 0:
		return StatusFailure, nil
	case p.P >= 1, p.rand.Float64() < p.P:
		return p.child.Tick(t)
	default:
		return StatusFailure, nil
	}
}

// Inverter swaps success and failure; running passes through.
type Inverter struct {
	baseNode
	child BehaviorNode
}

func NewInverter(name string) *Inverter { return &Inverter{baseNode: baseNode{name: name}} }

func (i *Inverter) SetChild(child BehaviorNode) { i.child = child }

func (i *Inverter) Tick(t TickContext) (Status, error) {
	if i.child == nil {
		return StatusFailure, ErrNilChild
	}
	st, err := i.child.Tick(t)
	if err != nil {
		return StatusFailure, err
	}
	switch st {
	case StatusSuccess:
		return StatusFailure, nil
	case StatusFailure:
		return StatusSuccess, nil
	default:
		return st, nil
	}
}

// Succeeder reports success whatever its child did, unless it errored.
type Succeeder struct {
	baseNode
	child BehaviorNode
}

func NewSucceeder(name string) *Succeeder { return &Succeeder{baseNode: baseNode{name: name}} }

func (s *Succeeder) SetChild(child BehaviorNode) { s.child = child }

func (s *Succeeder) Tick(t TickContext) (Status, error) {
	if s.child == nil {
		return StatusFailure, ErrNilChild
	}
	if _, err := s.child.Tick(t); err != nil {
		return StatusFailure, err
	}
	return StatusSuccess, nil
}

// Tree is a DecisionTree over a single root. A nil root always succeeds.
type Tree struct{ root BehaviorNode }

func NewTree(root BehaviorNode) Tree { return Tree{root: root} }

func (t Tree) Root() BehaviorNode { return t.root }

func (t Tree) Tick(tc TickContext) (Status, error) {
	if t.root == nil {
		return StatusSuccess, nil
	}
	return t.root.Tick(tc)
}
