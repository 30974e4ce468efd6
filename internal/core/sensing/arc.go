// Package sensing fans casts across an arc around a heading.
package sensing

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/steerkit/internal/core/planar"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

// FullCircle is the default arc: rays all the way round.
const FullCircle = 360.0

// IsFullCircle reports whether an arc closes on itself. Arcs wider than a
// full turn are treated as a full turn.
func IsFullCircle(angle float64) bool { return angle >= FullCircle }

// ArcStep is the angle between neighbouring rays of an n-ray fan. A closed
// circle spreads n rays over n gaps so the seam is not covered twice; an open
// arc uses n-1 gaps so the outer rays land on its edges.
func ArcStep(n int, angle float64) float64 {
	if n < 2 {
		return 0
	}
	if IsFullCircle(angle) {
		return FullCircle / float64(n)
	}
	return angle / float64(n-1)
}

// ArcAngles returns the offsets, in degrees from center, of an n-ray fan
// ordered left to right.
func ArcAngles(n int, angle float64) []float64 {
	out := make([]float64, 0, max(n, 0))
	return appendArcAngles(out, n, angle)
}

func appendArcAngles(out []float64, n int, angle float64) []float64 {
	switch {
	case n < 1:
		return out
	case n == 1:
		return append(out, 0)
	}
	if IsFullCircle(angle) {
		angle = FullCircle
	}
	step := ArcStep(n, angle)
	start := -angle / 2
	for i := 0; i < n; i++ {
		out = append(out, start+step*float64(i))
	}
	return out
}

// ArcDirections rotates center by each offset of ArcAngles.
func ArcDirections(center mgl64.Vec2, n int, angle float64) []mgl64.Vec2 {
	angles := ArcAngles(n, angle)
	out := make([]mgl64.Vec2, len(angles))
	for i, a := range angles {
		out[i] = planar.Rotate(center, a)
	}
	return out
}

// ArcRaycast fires len(results) rays from origin spread across angle degrees
// around center, left to right. results[i] holds the hit of ray i or is
// cleared when ray i missed. A hit without a collider counts as a miss. It
// returns the number of hits.
func ArcRaycast(caster physics.Caster, origin, center mgl64.Vec2, results []physics.Hit, angle float64, q physics.Query) int {
	return arcCast(results, center, angle, func(dir mgl64.Vec2) (physics.Hit, bool) {
		return caster.Raycast(origin, dir, q)
	})
}

// ArcSphereCast is ArcRaycast with circles of the given radius swept along
// each ray.
func ArcSphereCast(caster physics.Caster, origin mgl64.Vec2, radius float64, center mgl64.Vec2, results []physics.Hit, angle float64, q physics.Query) int {
	return arcCast(results, center, angle, func(dir mgl64.Vec2) (physics.Hit, bool) {
		return caster.SphereCast(origin, radius, dir, q)
	})
}

func arcCast(results []physics.Hit, center mgl64.Vec2, angle float64, cast func(dir mgl64.Vec2) (physics.Hit, bool)) int {
	n := len(results)
	if n < 1 {
		return 0
	}
	var buf [32]float64
	angles := appendArcAngles(buf[:0], n, angle)
	hits := 0
	for i, a := range angles {
		dir := center
		if a != 0 {
			dir = planar.Rotate(center, a)
		}
		if h, ok := cast(dir); ok && !h.Empty() {
			results[i] = h
			hits++
		} else {
			results[i] = physics.Hit{}
		}
	}
	return hits
}
