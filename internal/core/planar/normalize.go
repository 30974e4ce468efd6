package planar

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Range bounds a normalized value.
type Range struct{ Min, Max float64 }

// DefaultRange is the [-1, 1] interval observation encoders use.
var DefaultRange = Range{Min: -1, Max: 1}

// NormalizeScalar scales value by 1/original and clamps it into r.
// A zero original yields 0 clamped into r.
func NormalizeScalar(value, original float64, r Range) float64 {
	if original == 0 {
		return mgl64.Clamp(0, r.Min, r.Max)
	}
	return mgl64.Clamp(value/original, r.Min, r.Max)
}

// NormalizeVec applies NormalizeScalar to each component.
func NormalizeVec(v mgl64.Vec2, original float64, r Range) mgl64.Vec2 {
	return mgl64.Vec2{
		NormalizeScalar(v[0], original, r),
		NormalizeScalar(v[1], original, r),
	}
}

// Local reprojects a world position into the pose's frame:
// x along its right axis, y along its forward axis.
func Local(pose Pose, world mgl64.Vec2) mgl64.Vec2 {
	fwd, ok := Normalize(pose.Forward())
	if !ok {
		fwd = Forward
	}
	d := world.Sub(pose.Position())
	return mgl64.Vec2{d.Dot(RightOf(fwd)), d.Dot(fwd)}
}

// NormalizeRelative encodes world relative to pose, scaled by original.
func NormalizeRelative(pose Pose, world mgl64.Vec2, original float64, r Range) mgl64.Vec2 {
	return NormalizeVec(Local(pose, world), original, r)
}

// NormalizeAngle maps degrees in [-180, 180] onto [-1, 1].
func NormalizeAngle(deg float64) float64 {
	return NormalizeScalar(deg, 180, DefaultRange)
}
