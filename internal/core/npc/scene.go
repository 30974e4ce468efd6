package npc

import (
	"context"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/steerkit/internal/core/planar"
)

// Blackboard keys written by the steering sensors and read by the steering
// nodes.
const (
	KeySelf     = "self.id"
	KeyBody     = "self"
	KeyPosition = "position"
	KeyForward  = "forward"
	KeySpeed    = "speed"
	KeyRadius   = "radius"
	KeyVelocity = "velocity"
	KeyTarget   = "target"
	KeyFuture   = "future"
	KeyHits     = "hits"

	// suffixes appended to a target key
	suffixDistance = ".distance"
	suffixPrevious = ".prev"
)

// keyHitList holds the raw hits of the last arc cast in the volatile
// namespace.
const keyHitList = VolatileNamespace + ":hits"

// Body is an immutable snapshot of one entity as agents see it.
type Body struct {
	ID       string
	Name     string
	Tags     []string
	Pos      mgl64.Vec2
	Heading  mgl64.Vec2
	Velocity mgl64.Vec2
	Speed    float64
	Radius   float64
}

func (b Body) Position() mgl64.Vec2 { return b.Pos }

func (b Body) Forward() mgl64.Vec2 {
	if planar.IsZero(b.Heading) {
		return planar.Forward
	}
	return b.Heading
}

func (b Body) HasTag(tag string) bool { return slices.Contains(b.Tags, tag) }

// Scene is the read-only world view agents sense. Implementations must be
// safe for concurrent readers.
type Scene interface {
	Body(id string) (Body, bool)
	// Tagged returns every body carrying tag, in a stable order.
	Tagged(tag string) []Body
}

type deltaKey struct{}

// WithDelta attaches the simulated step length, in seconds, to ctx.
func WithDelta(ctx context.Context, seconds float64) context.Context {
	return context.WithValue(ctx, deltaKey{}, seconds)
}

// DeltaFrom returns the step length set by WithDelta, or 0.
func DeltaFrom(ctx context.Context) float64 {
	d, _ := ctx.Value(deltaKey{}).(float64)
	return d
}
