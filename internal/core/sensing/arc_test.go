package sensing

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/steerkit/internal/core/planar"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

// recorder hits whenever accept says so and remembers every direction cast.
type recorder struct {
	dirs   []mgl64.Vec2
	radii  []float64
	accept func(dir mgl64.Vec2) bool
	target *physics.Collider
}

func (r *recorder) Raycast(origin, dir mgl64.Vec2, q physics.Query) (physics.Hit, bool) {
	return r.SphereCast(origin, 0, dir, q)
}

func (r *recorder) SphereCast(origin mgl64.Vec2, radius float64, dir mgl64.Vec2, _ physics.Query) (physics.Hit, bool) {
	r.dirs = append(r.dirs, dir)
	r.radii = append(r.radii, radius)
	if r.accept != nil && r.accept(dir) {
		return physics.Hit{Point: origin.Add(dir), Normal: dir.Mul(-1), Distance: 1, Collider: r.target}, true
	}
	return physics.Hit{}, false
}

func TestArcStep(t *testing.T) {
	assert.Equal(t, 0.0, ArcStep(1, 90))
	assert.Equal(t, 45.0, ArcStep(3, 90))
	assert.Equal(t, 90.0, ArcStep(4, 360))
	assert.Equal(t, 90.0, ArcStep(4, 720))
	assert.Equal(t, 120.0, ArcStep(3, FullCircle))
}

func TestArcAnglesOpenArcReachesEdges(t *testing.T) {
	angles := ArcAngles(5, 120)
	require.Len(t, angles, 5)
	assert.Equal(t, -60.0, angles[0])
	assert.Equal(t, 60.0, angles[4])
	assert.Equal(t, 0.0, angles[2])
}

func TestArcAnglesFullCircleNoSeam(t *testing.T) {
	angles := ArcAngles(4, FullCircle)
	assert.Equal(t, []float64{-180, -90, 0, 90}, angles)
	// -180 and +180 are the same ray, so the last ray must stop short of it
	assert.Less(t, angles[len(angles)-1], 180.0)
}

func TestArcAnglesDegenerate(t *testing.T) {
	assert.Empty(t, ArcAngles(0, 90))
	assert.Empty(t, ArcAngles(-3, 90))
	assert.Equal(t, []float64{0}, ArcAngles(1, 90))
}

func TestArcDirectionsEdgesRotatedHalfAngle(t *testing.T) {
	center := mgl64.Vec2{0, 2}
	dirs := ArcDirections(center, 3, 90)
	require.Len(t, dirs, 3)
	assert.InDelta(t, -45.0, planar.SignedAngle(center, dirs[0]), 1e-9)
	assert.InDelta(t, 0.0, planar.SignedAngle(center, dirs[1]), 1e-9)
	assert.InDelta(t, 45.0, planar.SignedAngle(center, dirs[2]), 1e-9)
	for _, d := range dirs {
		assert.InDelta(t, 2.0, d.Len(), 1e-9)
	}
}

func TestArcRaycastEmptyBuffer(t *testing.T) {
	r := &recorder{}
	assert.Equal(t, 0, ArcRaycast(r, planar.Zero, planar.Forward, nil, 90, physics.DefaultQuery))
	assert.Empty(t, r.dirs)
}

func TestArcRaycastSingleRayAlongCenter(t *testing.T) {
	target := &physics.Collider{Name: "t"}
	r := &recorder{accept: func(mgl64.Vec2) bool { return true }, target: target}
	results := make([]physics.Hit, 1)
	center := mgl64.Vec2{1, 0}
	assert.Equal(t, 1, ArcRaycast(r, planar.Zero, center, results, 90, physics.DefaultQuery))
	require.Len(t, r.dirs, 1)
	assert.Equal(t, center, r.dirs[0])
	assert.Same(t, target, results[0].Collider)
}

func TestArcRaycastClearsStaleHits(t *testing.T) {
	stale := &physics.Collider{Name: "stale"}
	fresh := &physics.Collider{Name: "fresh"}
	results := make([]physics.Hit, 7)
	for i := range results {
		results[i] = physics.Hit{Distance: 99, Collider: stale}
	}
	// only rays to the right of center connect
	r := &recorder{
		accept: func(d mgl64.Vec2) bool { return planar.SignedAngle(planar.Forward, d) > 1 },
		target: fresh,
	}
	hits := ArcRaycast(r, planar.Zero, planar.Forward, results, 180, physics.DefaultQuery)

	assert.Equal(t, 3, hits)
	nonEmpty := 0
	for i, h := range results {
		if h.Empty() {
			assert.Equal(t, physics.Hit{}, h, "index %d not cleared", i)
			continue
		}
		nonEmpty++
		assert.Same(t, fresh, h.Collider)
		assert.Greater(t, i, 3, "hits are ordered left to right")
	}
	assert.Equal(t, hits, nonEmpty)
}

// anonymous reports a hit on every ray but never names the collider.
type anonymous struct{}

func (anonymous) Raycast(origin, dir mgl64.Vec2, q physics.Query) (physics.Hit, bool) {
	return physics.Hit{Point: origin.Add(dir), Normal: dir.Mul(-1), Distance: 1}, true
}

func (a anonymous) SphereCast(origin mgl64.Vec2, _ float64, dir mgl64.Vec2, q physics.Query) (physics.Hit, bool) {
	return a.Raycast(origin, dir, q)
}

func TestArcCastIgnoresHitsWithoutCollider(t *testing.T) {
	results := make([]physics.Hit, 5)
	assert.Equal(t, 0, ArcRaycast(anonymous{}, planar.Zero, planar.Forward, results, 90, physics.DefaultQuery))
	assert.Equal(t, 0, ArcSphereCast(anonymous{}, planar.Zero, 0.5, planar.Forward, results, 90, physics.DefaultQuery))
	for i, h := range results {
		assert.Equal(t, physics.Hit{}, h, "index %d", i)
	}
}

func TestArcSphereCastPassesRadius(t *testing.T) {
	r := &recorder{}
	results := make([]physics.Hit, 4)
	assert.Equal(t, 0, ArcSphereCast(r, planar.Zero, 0.5, planar.Forward, results, FullCircle, physics.DefaultQuery))
	require.Len(t, r.radii, 4)
	for _, rad := range r.radii {
		assert.Equal(t, 0.5, rad)
	}
}

func TestArcRaycastAgainstWorld(t *testing.T) {
	w := physics.NewWorld()
	north := &physics.Collider{Name: "north", Center: mgl64.Vec2{0, 5}, Radius: 1}
	east := &physics.Collider{Name: "east", Shape: physics.ShapeBox, Center: mgl64.Vec2{5, 0}, Half: mgl64.Vec2{1, 1}}
	require.NoError(t, w.Add(north))
	require.NoError(t, w.Add(east))

	results := make([]physics.Hit, 4)
	hits := ArcRaycast(w, planar.Zero, planar.Forward, results, FullCircle, physics.Query{MaxDistance: 10})
	// rays at -180, -90, 0, 90 degrees: south, west, north, east
	assert.Equal(t, 2, hits)
	assert.True(t, results[0].Empty())
	assert.True(t, results[1].Empty())
	assert.Same(t, north, results[2].Collider)
	assert.InDelta(t, 4.0, results[2].Distance, 1e-9)
	assert.Same(t, east, results[3].Collider)
	assert.InDelta(t, 4.0, results[3].Distance, 1e-9)
}
