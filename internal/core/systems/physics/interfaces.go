package physics

// Casting abstractions the steering layer issues queries through. The
// in-memory World in this package is one implementation; a game host plugs
// its own engine in behind Caster.

import (
	"github.com/go-gl/mathgl/mgl64"
)

// LayerMask selects collider layers by bit. Layer n is bit 1<<n.
type LayerMask uint32

// AllLayers selects every layer. A zero mask in a Query is read as AllLayers.
const AllLayers LayerMask = ^LayerMask(0)

// Layer returns the mask holding only layer n, or 0 when n is out of range.
func Layer(n int) LayerMask {
	if n < 0 || n > 31 {
		return 0
	}
	return LayerMask(1) << uint(n)
}

// Has reports whether layer n is selected.
func (m LayerMask) Has(n int) bool { return m&Layer(n) != 0 }

// TriggerInteraction decides whether trigger colliders stop a cast.
type TriggerInteraction uint8

const (
	// UseGlobal defers to the caster's default.
	UseGlobal TriggerInteraction = iota
	Ignore
	Collide
)

func (t TriggerInteraction) String() string {
	switch t {
	case Ignore:
		return "ignore"
	case Collide:
		return "collide"
	default:
		return "global"
	}
}

// Query filters a single cast. A non-positive MaxDistance is unbounded.
type Query struct {
	MaxDistance float64
	Mask        LayerMask
	Triggers    TriggerInteraction
}

// DefaultQuery hits everything at any range.
var DefaultQuery = Query{Mask: AllLayers}

func (q Query) mask() LayerMask {
	if q.Mask == 0 {
		return AllLayers
	}
	return q.Mask
}

// Hit describes where a cast struck a collider. The zero Hit means nothing
// was struck.
type Hit struct {
	Point    mgl64.Vec2
	Normal   mgl64.Vec2
	Distance float64
	Collider *Collider
}

// Empty reports whether h is a miss.
func (h Hit) Empty() bool { return h.Collider == nil }

// Caster issues ray and swept-circle queries on the ground plane.
// Directions need not be normalized. A reported hit must carry the Collider
// it struck; callers treat a hit without one as a miss.
type Caster interface {
	Raycast(origin, dir mgl64.Vec2, q Query) (Hit, bool)
	SphereCast(origin mgl64.Vec2, radius float64, dir mgl64.Vec2, q Query) (Hit, bool)
}
