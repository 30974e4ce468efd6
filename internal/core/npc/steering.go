package npc

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/steerkit/internal/core/planar"
	"github.com/zeusync/steerkit/internal/core/query"
	"github.com/zeusync/steerkit/internal/core/steering"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

// RegisterSteering adds the steering sensors, conditions and actions. Scene
// and caster may be nil; the nodes that need them then fail to build.
func RegisterSteering(r Registry, scene Scene, caster physics.Caster) {
	registerSteeringSensors(r, scene, caster)
	registerSteeringConditions(r, caster)
	registerSteeringActions(r)
}

func registerSteeringConditions(r Registry, caster physics.Caster) {
	r.RegisterCondition("HasTarget", func(params map[string]any) (Condition, error) {
		key := paramString(params, "key", KeyTarget)
		return NewConditionFunc(label("HasTarget", key), func(t TickContext) (bool, error) {
			_, ok := bbBody(t.BB, key)
			return ok, nil
		}), nil
	})

	r.RegisterCondition("WithinDistance", func(params map[string]any) (Condition, error) {
		key := paramString(params, "key", KeyTarget)
		limit := paramFloat(params, "distance", 1)
		return NewConditionFunc(label("WithinDistance", key), func(t TickContext) (bool, error) {
			d, ok := targetDistance(t.BB, key)
			return ok && d <= limit, nil
		}), nil
	})

	// InSight passes when the target is inside the view cone and, with
	// occlusion on, no collider stands between agent and target.
	r.RegisterCondition("InSight", func(params map[string]any) (Condition, error) {
		key := paramString(params, "key", KeyTarget)
		half := paramFloat(params, "angle", 45)
		occlusion := paramBool(params, "occlusion", false)
		if occlusion && caster == nil {
			return nil, ErrNoCaster
		}
		q := physics.Query{Mask: physics.LayerMask(paramInt(params, "mask", 0)), Triggers: physics.Ignore}
		return NewConditionFunc(label("InSight", key), func(t TickContext) (bool, error) {
			self, ok := bbBody(t.BB, KeyBody)
			if !ok {
				return false, nil
			}
			target, ok := bbBody(t.BB, key)
			if !ok || !query.InCone(self, target.Pos, half) {
				return false, nil
			}
			if !occlusion {
				return true, nil
			}
			dir := target.Pos.Sub(self.Pos)
			reach := dir.Len() - target.Radius
			if reach <= 0 {
				return true, nil
			}
			sight := q
			sight.MaxDistance = reach
			hit, blocked := caster.Raycast(self.Pos, dir, sight)
			return !blocked || hit.Empty() || hit.Collider.Owner == target.ID, nil
		}), nil
	})

	r.RegisterCondition("Blocked", func(params map[string]any) (Condition, error) {
		threshold := paramInt(params, "threshold", 1)
		return NewConditionFunc("Blocked", func(t TickContext) (bool, error) {
			v, _ := t.BB.Get(KeyHits)
			n, _ := v.(int)
			return n >= threshold, nil
		}), nil
	})
}

// mover carries what every steering action reads from the blackboard.
type mover struct {
	key   string
	speed float64
	scale float64
}

func newMover(params map[string]any) mover {
	return mover{
		key:   paramString(params, "key", KeyTarget),
		speed: paramFloat(params, "speed", 0),
		scale: paramFloat(params, "speed_scale", 1),
	}
}

// resolve returns the agent position and the speed it should move at. A
// positive speed param overrides the body's own speed.
func (m mover) resolve(bb Blackboard) (mgl64.Vec2, float64, bool) {
	pos, ok := bbVec(bb, KeyPosition)
	if !ok {
		return mgl64.Vec2{}, 0, false
	}
	speed := m.speed
	if speed <= 0 {
		speed, _ = bbFloat(bb, KeySpeed)
	}
	return pos, speed * m.scale, true
}

func (m mover) target(bb Blackboard) (Body, bool) { return bbBody(bb, m.key) }

func setVelocity(bb Blackboard, v mgl64.Vec2) (Status, error) {
	bb.Set(KeyVelocity, v)
	return StatusSuccess, nil
}

// toward builds the Seek and Flee actions, which differ only in the
// steering function.
func toward(kind string, steer func(position, target mgl64.Vec2, speed float64) mgl64.Vec2) Factory[Action] {
	return func(params map[string]any) (Action, error) {
		m := newMover(params)
		return NewActionFunc(label(kind, m.key), func(t TickContext) (Status, error) {
			pos, speed, ok := m.resolve(t.BB)
			target, found := m.target(t.BB)
			if !ok || !found {
				return StatusFailure, nil
			}
			return setVelocity(t.BB, steer(pos, target.Pos, speed))
		}), nil
	}
}

// predictive builds Evade and Pursue, which need the target's previous
// position from a TrackSensor. Without one the target reads as stationary.
func predictive(kind string, steer func(position, target, previous mgl64.Vec2, speed, delta float64) (mgl64.Vec2, mgl64.Vec2)) Factory[Action] {
	return func(params map[string]any) (Action, error) {
		m := newMover(params)
		return NewActionFunc(label(kind, m.key), func(t TickContext) (Status, error) {
			pos, speed, ok := m.resolve(t.BB)
			target, found := m.target(t.BB)
			if !ok || !found {
				return StatusFailure, nil
			}
			prev, tracked := bbVec(t.BB, m.key+suffixPrevious)
			if !tracked {
				prev = target.Pos
			}
			v, future := steer(pos, target.Pos, prev, speed, t.Delta)
			t.BB.Set(KeyFuture, future)
			return setVelocity(t.BB, v)
		}), nil
	}
}

func registerSteeringActions(r Registry) {
	r.RegisterAction("Seek", toward("Seek", steering.Seek))
	r.RegisterAction("Flee", toward("Flee", steering.Flee))
	r.RegisterAction("Evade", predictive("Evade", steering.Evade))
	r.RegisterAction("Pursue", predictive("Pursue", steering.Pursue))

	r.RegisterAction("Arrive", func(params map[string]any) (Action, error) {
		m := newMover(params)
		slowing := paramFloat(params, "slowing_radius", 3)
		return NewActionFunc(label("Arrive", m.key), func(t TickContext) (Status, error) {
			pos, speed, ok := m.resolve(t.BB)
			target, found := m.target(t.BB)
			if !ok || !found {
				return StatusFailure, nil
			}
			return setVelocity(t.BB, steering.Arrive(pos, target.Pos, speed, slowing))
		}), nil
	})

	r.RegisterAction("Wander", func(params map[string]any) (Action, error) {
		m := newMover(params)
		distance := paramFloat(params, "distance", 2)
		radius := paramFloat(params, "radius", 1)
		jitter := paramFloat(params, "jitter", 15)
		var w *steering.Wanderer
		return NewActionFunc("Wander", func(t TickContext) (Status, error) {
			self, ok := bbBody(t.BB, KeyBody)
			_, speed, moving := m.resolve(t.BB)
			if !ok || !moving {
				return StatusFailure, nil
			}
			if w == nil {
				w = steering.NewWanderer(t.Self, distance, radius, jitter)
			}
			return setVelocity(t.BB, w.Wander(self, speed))
		}), nil
	})

	// Avoid folds a push away from the last arc cast into the velocity
	// already chosen this tick. It fails when there is nothing to avoid.
	r.RegisterAction("Avoid", func(params map[string]any) (Action, error) {
		m := newMover(params)
		maxDistance := paramFloat(params, "max_distance", 0)
		weight := paramFloat(params, "weight", 2)
		return NewActionFunc("Avoid", func(t TickContext) (Status, error) {
			pos, speed, ok := m.resolve(t.BB)
			if !ok {
				return StatusFailure, nil
			}
			v, _ := t.BB.Get(keyHitList)
			hits, _ := v.([]physics.Hit)
			push := steering.Avoid(planar.Point(pos), hits, speed, maxDistance)
			if planar.IsZero(push) {
				return StatusFailure, nil
			}
			current, _ := bbVec(t.BB, KeyVelocity)
			return setVelocity(t.BB, steering.Blend(speed,
				steering.Weighted{Velocity: current, Weight: 1},
				steering.Weighted{Velocity: push, Weight: weight},
			))
		}), nil
	})

	r.RegisterAction("Stop", func(map[string]any) (Action, error) {
		return NewActionFunc("Stop", func(t TickContext) (Status, error) {
			return setVelocity(t.BB, planar.Zero)
		}), nil
	})
}

func targetDistance(bb Blackboard, key string) (float64, bool) {
	if d, ok := bbFloat(bb, key+suffixDistance); ok {
		return d, true
	}
	pos, ok := bbVec(bb, KeyPosition)
	if !ok {
		return 0, false
	}
	target, ok := bbBody(bb, key)
	if !ok {
		return 0, false
	}
	return planar.Distance(pos, target.Pos), true
}
