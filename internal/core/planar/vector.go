// Package planar holds the ground-plane geometry every steering computation
// runs on. World positions are 3D (x, y, z) with Y up; the plane keeps (x, z).
package planar

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length under which a vector is treated as zero.
const Epsilon = 1e-9

var (
	Zero    = mgl64.Vec2{}
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec2{0, 1}
	Right   = mgl64.Vec2{1, 0}
)

// Flatten drops the vertical component of a world position.
func Flatten(v mgl64.Vec3) mgl64.Vec2 { return mgl64.Vec2{v[0], v[2]} }

// Expand lifts a planar position back to world space at Y = 0.
// Any height lost by Flatten is not recovered.
func Expand(p mgl64.Vec2) mgl64.Vec3 { return mgl64.Vec3{p[0], 0, p[1]} }

// ExpandAt lifts a planar position to world space at a known height.
func ExpandAt(p mgl64.Vec2, y float64) mgl64.Vec3 { return mgl64.Vec3{p[0], y, p[1]} }

// Direction returns a - b: the vector pointing from b toward a.
func Direction(a, b mgl64.Vec2) mgl64.Vec2 { return a.Sub(b) }

// Distance is the Euclidean distance between a and b.
func Distance(a, b mgl64.Vec2) float64 { return b.Sub(a).Len() }

// SqrDistance avoids the square root when only ordering matters.
func SqrDistance(a, b mgl64.Vec2) float64 {
	d := b.Sub(a)
	return d.Dot(d)
}

// IsZero reports whether v is shorter than Epsilon.
func IsZero(v mgl64.Vec2) bool { return v.Dot(v) < Epsilon*Epsilon }

// Normalize returns v scaled to unit length, or the zero vector (and false)
// when v has no usable direction.
func Normalize(v mgl64.Vec2) (mgl64.Vec2, bool) {
	l := v.Len()
	if l < Epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return Zero, false
	}
	return v.Mul(1 / l), true
}

// WithLength rescales v to length l; zero vectors stay zero.
func WithLength(v mgl64.Vec2, l float64) mgl64.Vec2 {
	n, ok := Normalize(v)
	if !ok {
		return Zero
	}
	return n.Mul(l)
}

// Truncate caps the length of v at limit.
func Truncate(v mgl64.Vec2, limit float64) mgl64.Vec2 {
	if limit <= 0 {
		return Zero
	}
	if v.Dot(v) <= limit*limit {
		return v
	}
	return WithLength(v, limit)
}

// Rotate turns v clockwise (to the right, seen from above) by deg degrees.
func Rotate(v mgl64.Vec2, deg float64) mgl64.Vec2 {
	return mgl64.Rotate2D(-mgl64.DegToRad(deg)).Mul2x1(v)
}

// RightOf returns the heading 90 degrees to the right of forward.
func RightOf(forward mgl64.Vec2) mgl64.Vec2 { return mgl64.Vec2{forward[1], -forward[0]} }

// SignedAngle is the angle in degrees from one heading to another, in
// (-180, 180]. Positive values are to the right.
func SignedAngle(from, to mgl64.Vec2) float64 {
	if IsZero(from) || IsZero(to) {
		return 0
	}
	cross := from[0]*to[1] - from[1]*to[0]
	return -mgl64.RadToDeg(math.Atan2(cross, from.Dot(to)))
}

// Angle is the unsigned angle in degrees between two headings.
func Angle(from, to mgl64.Vec2) float64 { return math.Abs(SignedAngle(from, to)) }

// Heading converts a yaw in degrees (0 = +Z, positive to the right) to a unit heading.
func Heading(yaw float64) mgl64.Vec2 { return Rotate(Forward, yaw) }

// Yaw is the inverse of Heading.
func Yaw(heading mgl64.Vec2) float64 { return SignedAngle(Forward, heading) }
