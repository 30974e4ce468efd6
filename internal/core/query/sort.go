package query

import (
	"cmp"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/steerkit/internal/core/planar"
	"github.com/zeusync/steerkit/pkg/generic"
)

// AngleSortMode picks how bearings are ordered.
type AngleSortMode uint8

const (
	// Magnitude orders by absolute deviation from dead ahead.
	Magnitude AngleSortMode = iota
	// Smallest orders signed bearings ascending, left before right.
	Smallest
	// Largest orders signed bearings descending, right before left.
	Largest
)

func (m AngleSortMode) String() string {
	switch m {
	case Smallest:
		return "smallest"
	case Largest:
		return "largest"
	default:
		return "magnitude"
	}
}

// ParseAngleSortMode accepts the String forms; anything else is Magnitude.
func ParseAngleSortMode(s string) AngleSortMode {
	switch s {
	case "smallest":
		return Smallest
	case "largest":
		return Largest
	default:
		return Magnitude
	}
}

// TieBreak orders candidates whose bearings compare equal.
type TieBreak uint8

const (
	None TieBreak = iota
	NearestFirst
	FarthestFirst
)

// AngleResolution is the bearing granularity, in degrees. Bearings are
// rounded to it before comparing so that points on one line of sight tie
// despite rounding error in their computed angles.
const AngleResolution = 1e-7

func compareAngles(a, b float64, mode AngleSortMode) int {
	a, b = math.Round(a/AngleResolution), math.Round(b/AngleResolution)
	switch mode {
	case Smallest:
		return cmp.Compare(a, b)
	case Largest:
		return cmp.Compare(b, a)
	default:
		return cmp.Compare(math.Abs(a), math.Abs(b))
	}
}

func compareTie(da, db float64, tie TieBreak) int {
	switch tie {
	case NearestFirst:
		return cmp.Compare(da, db)
	case FarthestFirst:
		return cmp.Compare(db, da)
	default:
		return 0
	}
}

// CompareAngle orders a and b by their bearing from pos relative to forward.
// A zero forward faces +Z.
func CompareAngle(pos, forward, a, b mgl64.Vec2, mode AngleSortMode) int {
	forward = orForward(forward)
	return compareAngles(
		planar.SignedAngle(forward, a.Sub(pos)),
		planar.SignedAngle(forward, b.Sub(pos)),
		mode,
	)
}

func orForward(v mgl64.Vec2) mgl64.Vec2 {
	if planar.IsZero(v) {
		return planar.Forward
	}
	return v
}

// AngleComparer orders candidates by bearing, then by distance when a
// TieBreak is set. Nil candidates sort last. The zero value compares from the
// origin facing +Z by magnitude.
type AngleComparer[T planar.Positioned] struct {
	Position mgl64.Vec2
	Forward  mgl64.Vec2
	Mode     AngleSortMode
	TieBreak TieBreak
}

// NewAngleComparer takes position and forward from a pose.
func NewAngleComparer[T planar.Positioned](pose planar.Pose, mode AngleSortMode, tie TieBreak) AngleComparer[T] {
	return AngleComparer[T]{Position: pose.Position(), Forward: pose.Forward(), Mode: mode, TieBreak: tie}
}

func (c AngleComparer[T]) key(v T) sortKey {
	if isNil(v) {
		return sortKey{missing: true}
	}
	p := v.Position()
	return sortKey{
		angle: planar.SignedAngle(orForward(c.Forward), p.Sub(c.Position)),
		dist:  planar.Distance(c.Position, p),
	}
}

func (c AngleComparer[T]) compareKeys(a, b sortKey) int {
	if r := compareMissing(a, b); r != 0 || a.missing {
		return r
	}
	if r := compareAngles(a.angle, b.angle, c.Mode); r != 0 {
		return r
	}
	return compareTie(a.dist, b.dist, c.TieBreak)
}

func (c AngleComparer[T]) Compare(a, b T) int { return c.compareKeys(c.key(a), c.key(b)) }

// DistanceComparer orders candidates nearest first, or farthest first when
// Farthest is set. Nil candidates sort last.
type DistanceComparer[T planar.Positioned] struct {
	Position mgl64.Vec2
	Farthest bool
}

func (c DistanceComparer[T]) key(v T) sortKey {
	if isNil(v) {
		return sortKey{missing: true}
	}
	return sortKey{dist: planar.SqrDistance(c.Position, v.Position())}
}

func (c DistanceComparer[T]) compareKeys(a, b sortKey) int {
	if r := compareMissing(a, b); r != 0 || a.missing {
		return r
	}
	if c.Farthest {
		return cmp.Compare(b.dist, a.dist)
	}
	return cmp.Compare(a.dist, b.dist)
}

func (c DistanceComparer[T]) Compare(a, b T) int { return c.compareKeys(c.key(a), c.key(b)) }

// SortByAngle stably sorts items with c. Bearings and distances are computed
// once per item into a pooled buffer.
func SortByAngle[T planar.Positioned](items []T, c AngleComparer[T]) {
	sortKeyed(items, c.key, c.compareKeys)
}

// SortByDistance stably sorts items with c.
func SortByDistance[T planar.Positioned](items []T, c DistanceComparer[T]) {
	sortKeyed(items, c.key, c.compareKeys)
}

type sortKey struct {
	missing bool
	angle   float64
	dist    float64
}

func compareMissing(a, b sortKey) int {
	switch {
	case a.missing && b.missing:
		return 0
	case a.missing:
		return 1
	case b.missing:
		return -1
	}
	return 0
}

type keyBuffer struct{ keys []sortKey }

var keyPool = generic.NewResetPool(
	func() *keyBuffer { return &keyBuffer{keys: make([]sortKey, 0, 64)} },
	func(b *keyBuffer) *keyBuffer {
		b.keys = b.keys[:0]
		return b
	},
)

type keyed[T any] struct {
	items []T
	keys  []sortKey
	cmp   func(a, b sortKey) int
}

func (k *keyed[T]) Len() int           { return len(k.items) }
func (k *keyed[T]) Less(i, j int) bool { return k.cmp(k.keys[i], k.keys[j]) < 0 }
func (k *keyed[T]) Swap(i, j int) {
	k.items[i], k.items[j] = k.items[j], k.items[i]
	k.keys[i], k.keys[j] = k.keys[j], k.keys[i]
}

func sortKeyed[T any](items []T, key func(T) sortKey, compare func(a, b sortKey) int) {
	if len(items) < 2 {
		return
	}
	buf := keyPool.Get()
	defer keyPool.Put(buf)
	for _, it := range items {
		buf.keys = append(buf.keys, key(it))
	}
	sort.Stable(&keyed[T]{items: items, keys: buf.keys, cmp: compare})
}
