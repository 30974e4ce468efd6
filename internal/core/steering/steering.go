// Package steering turns positions into desired velocities. Every function
// works on ground-plane vectors and returns a velocity for one step.
package steering

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/steerkit/internal/core/planar"
)

// Seek moves from position straight toward target at speed.
// Coincident positions have no direction and yield the zero vector.
func Seek(position, target mgl64.Vec2, speed float64) mgl64.Vec2 {
	return planar.WithLength(planar.Direction(target, position), speed)
}

// Flee moves from position straight away from target at speed.
func Flee(position, target mgl64.Vec2, speed float64) mgl64.Vec2 {
	return planar.WithLength(planar.Direction(position, target), speed)
}

// Velocity estimates how fast a target moved between two samples delta
// seconds apart. A non-positive delta reports a stationary target.
func Velocity(current, previous mgl64.Vec2, delta float64) mgl64.Vec2 {
	if delta <= 0 {
		return planar.Zero
	}
	return current.Sub(previous).Mul(1 / delta)
}

// Predict projects where target will be by the time an agent moving at speed
// could cover the distance to it, assuming both keep their speed.
func Predict(position, target, previous mgl64.Vec2, speed, delta float64) mgl64.Vec2 {
	vel := Velocity(target, previous, delta)
	closing := speed + vel.Len()
	if closing <= 0 {
		return target
	}
	lookahead := planar.Distance(position, target) / closing
	return target.Add(vel.Mul(lookahead))
}

// Evade flees from the predicted future position of a moving target. The
// prediction is returned alongside the velocity.
func Evade(position, target, previous mgl64.Vec2, speed, delta float64) (velocity, future mgl64.Vec2) {
	future = Predict(position, target, previous, speed, delta)
	return Flee(position, future, speed), future
}

// Pursue seeks the predicted future position of a moving target.
func Pursue(position, target, previous mgl64.Vec2, speed, delta float64) (velocity, future mgl64.Vec2) {
	future = Predict(position, target, previous, speed, delta)
	return Seek(position, future, speed), future
}

// Arrive seeks target but ramps speed down linearly inside slowingRadius,
// reaching zero on the target.
func Arrive(position, target mgl64.Vec2, speed, slowingRadius float64) mgl64.Vec2 {
	dist := planar.Distance(position, target)
	if dist < planar.Epsilon {
		return planar.Zero
	}
	if slowingRadius > 0 && dist < slowingRadius {
		speed *= dist / slowingRadius
	}
	return Seek(position, target, speed)
}

// Weighted pairs a behaviour output with its blend weight.
type Weighted struct {
	Velocity mgl64.Vec2
	Weight   float64
}

// Blend sums weighted velocities and caps the result at maxSpeed.
func Blend(maxSpeed float64, parts ...Weighted) mgl64.Vec2 {
	var sum mgl64.Vec2
	for _, p := range parts {
		sum = sum.Add(p.Velocity.Mul(p.Weight))
	}
	return planar.Truncate(sum, maxSpeed)
}
