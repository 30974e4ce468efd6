// Package query ranks and picks candidates by where they stand relative to a
// reference position and heading.
package query

import (
	"reflect"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/steerkit/internal/core/planar"
)

// FarthestPoint returns the point farthest from `from` and its distance.
// With no points it returns from itself at distance 0. The first point at the
// maximum distance wins ties.
func FarthestPoint(from mgl64.Vec2, points []mgl64.Vec2) (mgl64.Vec2, float64) {
	best, dist := from, 0.0
	found := false
	for _, p := range points {
		d := planar.Distance(from, p)
		if !found || d > dist {
			best, dist, found = p, d, true
		}
	}
	return best, dist
}

// NearestPoint mirrors FarthestPoint for the minimum distance.
func NearestPoint(from mgl64.Vec2, points []mgl64.Vec2) (mgl64.Vec2, float64) {
	best, dist := from, 0.0
	found := false
	for _, p := range points {
		d := planar.Distance(from, p)
		if !found || d < dist {
			best, dist, found = p, d, true
		}
	}
	return best, dist
}

// Farthest returns the candidate farthest from `from`. Nil candidates are
// skipped; ok is false when nothing remains.
func Farthest[T planar.Positioned](from mgl64.Vec2, candidates []T) (best T, dist float64, ok bool) {
	return pick(from, candidates, func(d, cur float64) bool { return d > cur })
}

// Nearest returns the candidate nearest to `from`. Nil candidates are
// skipped; ok is false when nothing remains.
func Nearest[T planar.Positioned](from mgl64.Vec2, candidates []T) (best T, dist float64, ok bool) {
	return pick(from, candidates, func(d, cur float64) bool { return d < cur })
}

func pick[T planar.Positioned](from mgl64.Vec2, candidates []T, better func(d, cur float64) bool) (best T, dist float64, ok bool) {
	for _, c := range candidates {
		if isNil(c) {
			continue
		}
		d := planar.Distance(from, c.Position())
		if !ok || better(d, dist) {
			best, dist, ok = c, d, true
		}
	}
	return best, dist, ok
}

// WithinRadius keeps the candidates no farther than radius from `from`.
func WithinRadius[T planar.Positioned](from mgl64.Vec2, radius float64, candidates []T) []T {
	var out []T
	r2 := radius * radius
	for _, c := range candidates {
		if isNil(c) {
			continue
		}
		if planar.SqrDistance(from, c.Position()) <= r2 {
			out = append(out, c)
		}
	}
	return out
}

// WithinAngle keeps the candidates whose bearing from pose deviates from its
// forward by at most halfAngle degrees.
func WithinAngle[T planar.Positioned](pose planar.Pose, halfAngle float64, candidates []T) []T {
	var out []T
	for _, c := range candidates {
		if isNil(c) {
			continue
		}
		if InCone(pose, c.Position(), halfAngle) {
			out = append(out, c)
		}
	}
	return out
}

// InCone reports whether target lies within halfAngle degrees of the pose's
// forward. A target on the pose itself is in the cone.
func InCone(pose planar.Pose, target mgl64.Vec2, halfAngle float64) bool {
	if planar.IsZero(target.Sub(pose.Position())) {
		return true
	}
	return planar.Angle(pose.Forward(), target.Sub(pose.Position())) <= halfAngle
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
