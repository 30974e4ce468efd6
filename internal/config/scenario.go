package config

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/zeusync/steerkit/internal/core/simulation"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

func (o ObstacleConfig) Collider() *physics.Collider {
	c := &physics.Collider{
		Name:    o.Name,
		Center:  mgl64.Vec2(o.Position),
		Radius:  o.Radius,
		Layer:   o.Layer,
		Trigger: o.Trigger,
	}
	if o.Shape == ShapeBox {
		c.Shape = physics.ShapeBox
		c.Half = mgl64.Vec2{o.Size[0] / 2, o.Size[1] / 2}
	}
	return c
}

func (e EntityConfig) Spec() simulation.EntitySpec {
	return simulation.EntitySpec{
		Name:       e.Name,
		Tags:       e.Tags,
		Position:   mgl64.Vec2(e.Position),
		Forward:    mgl64.Vec2(e.Forward),
		Speed:      e.Speed,
		Radius:     e.Radius,
		Layer:      e.Layer,
		Controller: e.Controller,
		Params:     e.Params,
	}
}

// Populate adds the obstacles and then the entities of c to w.
func (c *Config) Populate(w *simulation.World) error {
	w.Physics().QueriesHitTriggers = c.Physics.HitTriggers
	if c.Workers > 0 {
		w.SetWorkers(c.Workers)
	}
	for i, o := range c.Obstacles {
		if err := w.AddObstacle(o.Collider()); err != nil {
			return errors.Wrapf(err, "obstacles[%d]", i)
		}
	}
	for _, e := range c.Entities {
		if _, err := w.Spawn(e.Spec()); err != nil {
			return errors.Wrapf(err, "spawn %s", e.Name)
		}
	}
	return nil
}
