package planar

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-9

func TestFlattenExpand(t *testing.T) {
	ground := mgl64.Vec3{3, 0, -4}
	assert.Equal(t, ground, Expand(Flatten(ground)))
	assert.Equal(t, mgl64.Vec2{3, -4}, Flatten(ground))

	raised := mgl64.Vec3{3, 7, -4}
	assert.Equal(t, mgl64.Vec2{3, -4}, Flatten(raised))
	assert.Equal(t, ground, Expand(Flatten(raised)), "height is dropped by flatten")
	assert.Equal(t, raised, ExpandAt(Flatten(raised), 7))

	p := mgl64.Vec2{1.5, 2.5}
	assert.Equal(t, p, Flatten(Expand(p)))
}

func TestDirectionAndDistance(t *testing.T) {
	a := mgl64.Vec2{1, 1}
	b := mgl64.Vec2{4, 5}
	assert.Equal(t, mgl64.Vec2{-3, -4}, Direction(a, b))
	assert.InDelta(t, 5.0, Distance(a, b), delta)
	assert.InDelta(t, 25.0, SqrDistance(a, b), delta)
	assert.Equal(t, Distance(a, b), Distance(b, a))
}

func TestNormalizeZero(t *testing.T) {
	v, ok := Normalize(Zero)
	assert.False(t, ok)
	assert.Equal(t, Zero, v)

	v, ok = Normalize(mgl64.Vec2{0, 3})
	require.True(t, ok)
	assert.InDelta(t, 1.0, v.Len(), delta)
}

func TestSignedAngleConvention(t *testing.T) {
	assert.InDelta(t, 90.0, SignedAngle(Forward, Right), delta)
	assert.InDelta(t, -90.0, SignedAngle(Forward, Right.Mul(-1)), delta)
	assert.InDelta(t, 45.0, SignedAngle(Forward, mgl64.Vec2{1, 1}), delta)
	assert.InDelta(t, 0.0, SignedAngle(Forward, mgl64.Vec2{0, 10}), delta)
	assert.InDelta(t, 180.0, Angle(Forward, mgl64.Vec2{0, -1}), delta)
}

func TestRotateMatchesSignedAngle(t *testing.T) {
	for _, deg := range []float64{-170, -90, -30, 0, 15, 90, 135} {
		r := Rotate(Forward, deg)
		assert.InDelta(t, deg, SignedAngle(Forward, r), 1e-6, "deg=%v", deg)
		assert.InDelta(t, 1.0, r.Len(), delta)
	}
	r := Rotate(Forward, 90)
	assert.InDelta(t, 1.0, r[0], delta)
	assert.InDelta(t, 0.0, r[1], delta)
}

func TestNodeComposesParents(t *testing.T) {
	root := &Node{Name: "root", Local: mgl64.Vec2{10, 0}, Yaw: 90, Height: 1}
	child := &Node{Name: "turret", Parent: root, Local: mgl64.Vec2{0, 2}, Height: 0.5}

	pos := child.Position()
	assert.InDelta(t, 12.0, pos[0], 1e-9)
	assert.InDelta(t, 0.0, pos[1], 1e-9)

	fwd := child.Forward()
	assert.InDelta(t, 1.0, fwd[0], 1e-9)
	assert.InDelta(t, 0.0, fwd[1], 1e-9)
	assert.InDelta(t, 1.5, child.World()[1], delta)
}

func TestTransformForwardFallback(t *testing.T) {
	tr := Transform{World: mgl64.Vec3{1, 2, 3}, Facing: mgl64.Vec3{0, 1, 0}}
	assert.Equal(t, Forward, tr.Forward(), "straight up has no planar facing")
	assert.Equal(t, mgl64.Vec2{1, 3}, tr.Position())
}

func TestNormalizeHelpers(t *testing.T) {
	assert.Equal(t, 0.5, NormalizeScalar(5, 10, DefaultRange))
	assert.Equal(t, 1.0, NormalizeScalar(50, 10, DefaultRange))
	assert.Equal(t, -1.0, NormalizeScalar(-50, 10, DefaultRange))
	assert.Equal(t, 0.0, NormalizeScalar(5, 0, DefaultRange))
	assert.Equal(t, 0.5, NormalizeScalar(5, 0, Range{Min: 0.5, Max: 1}))
	assert.Equal(t, mgl64.Vec2{0.2, -1}, NormalizeVec(mgl64.Vec2{2, -20}, 10, DefaultRange))
	assert.Equal(t, -0.5, NormalizeAngle(-90))
}

func TestNormalizeRelative(t *testing.T) {
	pose := Transform{World: mgl64.Vec3{0, 0, 0}, Facing: mgl64.Vec3{1, 0, 0}}
	// facing +X: right is -Z
	got := NormalizeRelative(pose, mgl64.Vec2{5, -5}, 10, DefaultRange)
	assert.InDelta(t, 0.5, got[0], delta)
	assert.InDelta(t, 0.5, got[1], delta)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, mgl64.Vec2{1, 0}, Truncate(mgl64.Vec2{1, 0}, 2))
	got := Truncate(mgl64.Vec2{3, 4}, 1)
	assert.InDelta(t, 1.0, got.Len(), delta)
	assert.Equal(t, Zero, Truncate(mgl64.Vec2{3, 4}, 0))
}
