package steering

import (
	"math/rand"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/steerkit/internal/core/planar"
)

// Wanderer produces a smoothly drifting heading by nudging a target point
// around a circle projected ahead of the agent. A zero Wanderer draws from a
// fixed seed. Each agent needs its own Wanderer; it is not safe for
// concurrent use.
type Wanderer struct {
	// Distance from the agent to the circle centre.
	Distance float64
	// Radius of the circle.
	Radius float64
	// Jitter is the largest change of the wander angle per call, in degrees.
	Jitter float64

	angle float64
	rng   *rand.Rand
}

// NewWanderer seeds the wander sequence from seed so the same agent id walks
// the same way across runs.
func NewWanderer(seed string, distance, radius, jitter float64) *Wanderer {
	return &Wanderer{
		Distance: distance,
		Radius:   radius,
		Jitter:   jitter,
		rng:      rand.New(rand.NewSource(int64(xxhash.Sum64String(seed)))),
	}
}

// Angle is the current offset of the wander target, in degrees.
func (w *Wanderer) Angle() float64 { return w.angle }

func (w *Wanderer) Wander(pose planar.Pose, speed float64) mgl64.Vec2 {
	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(0))
	}
	w.angle += (w.rng.Float64()*2 - 1) * w.Jitter
	if w.angle > 180 {
		w.angle -= 360
	} else if w.angle < -180 {
		w.angle += 360
	}
	fwd, ok := planar.Normalize(pose.Forward())
	if !ok {
		fwd = planar.Forward
	}
	ahead := fwd.Mul(w.Distance)
	offset := planar.Rotate(fwd, w.angle).Mul(w.Radius)
	return planar.WithLength(ahead.Add(offset), speed)
}
