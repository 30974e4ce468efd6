package steering

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/steerkit/internal/core/planar"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

// Avoid steers away from the surfaces reported by an arc cast. Each hit
// pushes along its normal, weighted by how close it is relative to
// maxDistance (a non-positive maxDistance weights every hit fully). Empty
// entries are skipped; no hits yields the zero vector.
func Avoid(pose planar.Positioned, hits []physics.Hit, speed, maxDistance float64) mgl64.Vec2 {
	var push mgl64.Vec2
	for _, h := range hits {
		if h.Empty() {
			continue
		}
		weight := 1.0
		if maxDistance > 0 {
			weight = 1 - h.Distance/maxDistance
			if weight <= 0 {
				continue
			}
		}
		n, ok := planar.Normalize(h.Normal)
		if !ok {
			n, ok = planar.Normalize(planar.Direction(pose.Position(), h.Point))
			if !ok {
				continue
			}
		}
		push = push.Add(n.Mul(weight))
	}
	return planar.Truncate(push.Mul(speed), speed)
}

// Tracker remembers the last observed position of each target so callers can
// feed Evade and Pursue from successive frames. A caller that drives it once
// per simulation step calls Advance at the start of each step; a target not
// observed on the previous step then reads as newly seen. The zero value is
// ready to use. Not safe for concurrent use.
type Tracker struct {
	step uint64
	last map[string]sighting
}

type sighting struct {
	pos  mgl64.Vec2
	step uint64
}

func NewTracker() *Tracker { return &Tracker{} }

// Advance starts a new step and drops targets missed on the step before.
func (t *Tracker) Advance() {
	t.step++
	for k, s := range t.last {
		if s.step+1 < t.step {
			delete(t.last, k)
		}
	}
}

// Observe records pos under key and returns the position seen on the previous
// call. The first observation, or one following a missed step, returns pos
// itself and false.
func (t *Tracker) Observe(key string, pos mgl64.Vec2) (mgl64.Vec2, bool) {
	if t.last == nil {
		t.last = make(map[string]sighting)
	}
	prev, ok := t.last[key]
	t.last[key] = sighting{pos: pos, step: t.step}
	if !ok || prev.step+1 < t.step {
		return pos, false
	}
	return prev.pos, true
}

// Previous returns the last recorded position without updating it.
func (t *Tracker) Previous(key string) (mgl64.Vec2, bool) {
	s, ok := t.last[key]
	return s.pos, ok
}

func (t *Tracker) Forget(key string) { delete(t.last, key) }
