package physics

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNilCollider     = errors.New("physics: nil collider")
	ErrUnknownCollider = errors.New("physics: collider not in world")
	ErrInvalidShape    = errors.New("physics: collider has no extent")
)

// Shape is the collision primitive of a Collider.
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeBox
)

func (s Shape) String() string {
	if s == ShapeBox {
		return "box"
	}
	return "circle"
}

// Collider is a static or kinematic obstacle. Boxes are axis aligned.
type Collider struct {
	Name    string
	Shape   Shape
	Center  mgl64.Vec2
	Radius  float64
	Half    mgl64.Vec2
	Layer   int
	Trigger bool
	// Owner lets callers map a hit back to their own entity.
	Owner any

	seq  uint64
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial with the bounds cached at insertion.
func (c *Collider) Bounds() rtreego.Rect { return c.rect }

func (c *Collider) extent() mgl64.Vec2 {
	if c.Shape == ShapeBox {
		return c.Half
	}
	return mgl64.Vec2{c.Radius, c.Radius}
}

func (c *Collider) computeBounds() (rtreego.Rect, error) {
	ext := c.extent()
	if ext[0] <= 0 || ext[1] <= 0 {
		return rtreego.Rect{}, ErrInvalidShape
	}
	return rtreego.NewRect(
		rtreego.Point{c.Center[0] - ext[0], c.Center[1] - ext[1]},
		[]float64{2 * ext[0], 2 * ext[1]},
	)
}

// World is an in-memory Caster over circles and boxes. Broad-phase goes
// through an R-tree; narrow-phase is exact for rays and for circles swept
// against circles. Boxes swept by a circle are tested as boxes grown by the
// radius, so corners are square rather than rounded.
type World struct {
	mu        sync.RWMutex
	tree      *rtreego.Rtree
	colliders map[*Collider]struct{}
	nextSeq   uint64

	// QueriesHitTriggers is the policy applied to queries using UseGlobal.
	QueriesHitTriggers bool
}

var _ Caster = (*World)(nil)

func NewWorld() *World {
	return &World{
		tree:               rtreego.NewTree(2, 25, 50),
		colliders:          make(map[*Collider]struct{}),
		QueriesHitTriggers: true,
	}
}

// Add inserts c. Adding a collider twice is a no-op.
func (w *World) Add(c *Collider) error {
	if c == nil {
		return ErrNilCollider
	}
	rect, err := c.computeBounds()
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.colliders[c]; ok {
		return nil
	}
	w.nextSeq++
	c.seq = w.nextSeq
	c.rect = rect
	w.colliders[c] = struct{}{}
	w.tree.Insert(c)
	return nil
}

func (w *World) Remove(c *Collider) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.colliders[c]; !ok {
		return ErrUnknownCollider
	}
	w.tree.Delete(c)
	delete(w.colliders, c)
	return nil
}

// Move relocates c and reindexes it.
func (w *World) Move(c *Collider, center mgl64.Vec2) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.colliders[c]; !ok {
		return ErrUnknownCollider
	}
	w.tree.Delete(c)
	c.Center = center
	rect, err := c.computeBounds()
	if err != nil {
		delete(w.colliders, c)
		return err
	}
	c.rect = rect
	w.tree.Insert(c)
	return nil
}

// Len is the number of colliders in the world.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.colliders)
}

// Colliders returns a snapshot in insertion order.
func (w *World) Colliders() []*Collider {
	w.mu.RLock()
	out := make([]*Collider, 0, len(w.colliders))
	for c := range w.colliders {
		out = append(out, c)
	}
	w.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Collider) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

func (w *World) Raycast(origin, dir mgl64.Vec2, q Query) (Hit, bool) {
	return w.cast(origin, 0, dir, q)
}

func (w *World) SphereCast(origin mgl64.Vec2, radius float64, dir mgl64.Vec2, q Query) (Hit, bool) {
	if radius < 0 {
		radius = 0
	}
	return w.cast(origin, radius, dir, q)
}

func (w *World) cast(origin mgl64.Vec2, radius float64, dir mgl64.Vec2, q Query) (Hit, bool) {
	l := dir.Len()
	if l < 1e-12 || math.IsNaN(l) {
		return Hit{}, false
	}
	d := dir.Mul(1 / l)
	maxDist := q.MaxDistance
	if maxDist <= 0 {
		maxDist = math.Inf(1)
	}
	mask := q.mask()
	hitTriggers := q.Triggers == Collide || (q.Triggers == UseGlobal && w.QueriesHitTriggers)

	w.mu.RLock()
	defer w.mu.RUnlock()

	var best Hit
	found := false
	for _, c := range w.candidates(origin, d, radius, maxDist) {
		if !mask.Has(c.Layer) || (c.Trigger && !hitTriggers) {
			continue
		}
		var (
			t      float64
			normal mgl64.Vec2
			ok     bool
		)
		if c.Shape == ShapeBox {
			t, normal, ok = rayBox(origin, d, c.Center, c.Half.Add(mgl64.Vec2{radius, radius}))
		} else {
			t, normal, ok = rayCircle(origin, d, c.Center, c.Radius+radius)
		}
		if !ok || t > maxDist {
			continue
		}
		if found && (t > best.Distance || (t == best.Distance && c.seq > best.Collider.seq)) {
			continue
		}
		best = Hit{
			Point:    origin.Add(d.Mul(t)).Sub(normal.Mul(radius)),
			Normal:   normal,
			Distance: t,
			Collider: c,
		}
		found = true
	}
	return best, found
}

// candidates narrows the search to colliders whose bounds touch the swept
// segment. Unbounded casts scan everything.
func (w *World) candidates(origin, d mgl64.Vec2, radius, maxDist float64) []*Collider {
	if math.IsInf(maxDist, 1) {
		out := make([]*Collider, 0, len(w.colliders))
		for c := range w.colliders {
			out = append(out, c)
		}
		return out
	}
	end := origin.Add(d.Mul(maxDist))
	minX := math.Min(origin[0], end[0]) - radius
	minY := math.Min(origin[1], end[1]) - radius
	maxX := math.Max(origin[0], end[0]) + radius
	maxY := math.Max(origin[1], end[1]) + radius
	const pad = 1e-6
	bb, err := rtreego.NewRect(
		rtreego.Point{minX - pad, minY - pad},
		[]float64{maxX - minX + 2*pad, maxY - minY + 2*pad},
	)
	if err != nil {
		return nil
	}
	found := w.tree.SearchIntersect(bb)
	out := make([]*Collider, 0, len(found))
	for _, s := range found {
		out = append(out, s.(*Collider))
	}
	return out
}

// rayCircle intersects a unit-direction ray with a circle. Rays starting
// inside the circle do not report it.
func rayCircle(origin, d, center mgl64.Vec2, r float64) (float64, mgl64.Vec2, bool) {
	m := origin.Sub(center)
	b := m.Dot(d)
	c := m.Dot(m) - r*r
	if c <= 0 {
		return 0, mgl64.Vec2{}, false
	}
	if b > 0 {
		return 0, mgl64.Vec2{}, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, mgl64.Vec2{}, false
	}
	t := -b - math.Sqrt(disc)
	p := origin.Add(d.Mul(t))
	return t, p.Sub(center).Mul(1 / r), true
}

// rayBox is the slab test against an axis-aligned box. Rays starting inside
// the box do not report it.
func rayBox(origin, d, center, half mgl64.Vec2) (float64, mgl64.Vec2, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	var normal mgl64.Vec2
	for axis := 0; axis < 2; axis++ {
		lo := center[axis] - half[axis]
		hi := center[axis] + half[axis]
		if math.Abs(d[axis]) < 1e-12 {
			if origin[axis] < lo || origin[axis] > hi {
				return 0, mgl64.Vec2{}, false
			}
			continue
		}
		inv := 1 / d[axis]
		t1 := (lo - origin[axis]) * inv
		t2 := (hi - origin[axis]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			normal = mgl64.Vec2{}
			normal[axis] = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl64.Vec2{}, false
		}
	}
	if tmin <= 0 || math.IsInf(tmin, -1) {
		return 0, mgl64.Vec2{}, false
	}
	return tmin, normal, true
}
