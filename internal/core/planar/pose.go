package planar

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Positioned is anything that can report where it stands on the ground plane.
type Positioned interface {
	Position() mgl64.Vec2
}

// Pose adds a facing to a position. Forward need not be normalized.
type Pose interface {
	Positioned
	Forward() mgl64.Vec2
}

var (
	_ Pose = Point{}
	_ Pose = Transform{}
	_ Pose = (*Node)(nil)
)

// Point is a bare planar position facing +Z.
type Point mgl64.Vec2

func (p Point) Position() mgl64.Vec2 { return mgl64.Vec2(p) }
func (p Point) Forward() mgl64.Vec2  { return Forward }

// Transform is a world-space position and facing, flattened on read.
type Transform struct {
	World  mgl64.Vec3
	Facing mgl64.Vec3
}

// NewTransform builds a Transform facing +Z.
func NewTransform(world mgl64.Vec3) Transform {
	return Transform{World: world, Facing: Expand(Forward)}
}

func (t Transform) Position() mgl64.Vec2 { return Flatten(t.World) }

func (t Transform) Forward() mgl64.Vec2 {
	f := Flatten(t.Facing)
	if IsZero(f) {
		return Forward
	}
	return f
}

// Node is a scene-graph entry. Its local offset and yaw are expressed in the
// parent's frame; a nil parent means world space.
type Node struct {
	Name   string
	Parent *Node
	Local  mgl64.Vec2
	Yaw    float64
	Height float64
}

// WorldYaw accumulates yaw through the parent chain.
func (n *Node) WorldYaw() float64 {
	yaw := n.Yaw
	for p := n.Parent; p != nil; p = p.Parent {
		yaw += p.Yaw
	}
	return yaw
}

func (n *Node) Position() mgl64.Vec2 {
	if n.Parent == nil {
		return n.Local
	}
	return n.Parent.Position().Add(Rotate(n.Local, n.Parent.WorldYaw()))
}

func (n *Node) Forward() mgl64.Vec2 { return Heading(n.WorldYaw()) }

// World lifts the node's planar position to its height.
func (n *Node) World() mgl64.Vec3 {
	h := n.Height
	for p := n.Parent; p != nil; p = p.Parent {
		h += p.Height
	}
	return ExpandAt(n.Position(), h)
}

// AngleTo is the signed angle of target relative to the pose's forward.
func AngleTo(pose Pose, target mgl64.Vec2) float64 {
	return SignedAngle(pose.Forward(), target.Sub(pose.Position()))
}

// Towards is the heading from one position to another.
func Towards(from Positioned, target Positioned) mgl64.Vec2 {
	return Direction(target.Position(), from.Position())
}
