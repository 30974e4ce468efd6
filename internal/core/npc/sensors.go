package npc

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/zeusync/steerkit/internal/core/query"
	"github.com/zeusync/steerkit/internal/core/sensing"
	"github.com/zeusync/steerkit/internal/core/steering"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

var (
	ErrNoScene     = errors.New("npc: steering sensors need a scene")
	ErrNoCaster    = errors.New("npc: arc sensing needs a caster")
	ErrUnknownBody = errors.New("npc: agent has no body in the scene")
)

// SelfSensor copies the agent's own body into the blackboard.
type SelfSensor struct {
	scene Scene
}

func NewSelfSensor(scene Scene) *SelfSensor { return &SelfSensor{scene: scene} }

func (s *SelfSensor) Name() string { return "SelfSensor" }

func (s *SelfSensor) Update(_ context.Context, bb Blackboard) error {
	id := bbString(bb, KeySelf)
	body, ok := s.scene.Body(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBody, id)
	}
	bb.Set(KeyBody, body)
	bb.Set(KeyPosition, body.Pos)
	bb.Set(KeyForward, body.Forward())
	bb.Set(KeySpeed, body.Speed)
	bb.Set(KeyRadius, body.Radius)
	return nil
}

// Pick chooses among tagged candidates.
type Pick uint8

const (
	PickNearest Pick = iota
	PickFarthest
	// PickAhead takes the candidate closest to dead ahead, nearest first on
	// equal bearings.
	PickAhead
)

func (p Pick) String() string {
	switch p {
	case PickFarthest:
		return "Farthest"
	case PickAhead:
		return "Ahead"
	default:
		return "Nearest"
	}
}

// TargetSensor picks one body carrying Tag and stores it under Out, with its
// distance under Out+".distance". Both keys are cleared when nothing
// qualifies. The agent never targets itself.
type TargetSensor struct {
	scene Scene
	Pick  Pick
	Tag   string
	Out   string
	// Radius limits the search when positive.
	Radius float64
	// Cone is the half-angle, in degrees, PickAhead searches within.
	Cone float64
	// Mode orders bearings for PickAhead.
	Mode query.AngleSortMode
}

func (s *TargetSensor) Name() string { return s.Pick.String() + "Sensor" }

func (s *TargetSensor) Update(_ context.Context, bb Blackboard) error {
	self, ok := bbBody(bb, KeyBody)
	if !ok {
		if self, ok = s.scene.Body(bbString(bb, KeySelf)); !ok {
			return ErrUnknownBody
		}
	}

	cands := slices.DeleteFunc(slices.Clone(s.scene.Tagged(s.Tag)), func(b Body) bool { return b.ID == self.ID })
	if s.Radius > 0 {
		cands = query.WithinRadius(self.Pos, s.Radius, cands)
	}

	var (
		best  Body
		dist  float64
		found bool
	)
	switch s.Pick {
	case PickFarthest:
		best, dist, found = query.Farthest(self.Pos, cands)
	case PickAhead:
		cands = query.WithinAngle(self, s.Cone, cands)
		query.SortByAngle(cands, query.NewAngleComparer[Body](self, s.Mode, query.NearestFirst))
		if found = len(cands) > 0; found {
			best = cands[0]
			dist = best.Pos.Sub(self.Pos).Len()
		}
	default:
		best, dist, found = query.Nearest(self.Pos, cands)
	}

	if !found {
		bb.Delete(s.Out)
		bb.Delete(s.Out + suffixDistance)
		return nil
	}
	bb.Set(s.Out, best)
	bb.Set(s.Out+suffixDistance, dist)
	return nil
}

// TrackSensor remembers where the body under Key stood on the previous step
// and stores that position under Key+".prev". A target lost for a step and
// then reacquired starts over as stationary. Each agent needs its own.
type TrackSensor struct {
	Key     string
	tracker *steering.Tracker
	current string
}

func NewTrackSensor(key string) *TrackSensor {
	return &TrackSensor{Key: key, tracker: steering.NewTracker()}
}

func (s *TrackSensor) Name() string { return "TrackSensor" }

func (s *TrackSensor) Update(_ context.Context, bb Blackboard) error {
	s.tracker.Advance()
	target, ok := bbBody(bb, s.Key)
	if !ok {
		if s.current != "" {
			s.tracker.Forget(s.current)
			s.current = ""
		}
		bb.Delete(s.Key + suffixPrevious)
		return nil
	}
	s.current = target.ID
	prev, _ := s.tracker.Observe(target.ID, target.Pos)
	bb.Set(s.Key+suffixPrevious, prev)
	return nil
}

// ArcSensor fans rays (or swept circles when Radius is positive) across an
// arc centred on the agent's forward. The hit count goes to KeyHits.
type ArcSensor struct {
	caster physics.Caster
	Rays   int
	Angle  float64
	Radius float64
	Query  physics.Query
	buf    []physics.Hit
}

func NewArcSensor(caster physics.Caster, rays int, angle, radius float64, q physics.Query) *ArcSensor {
	return &ArcSensor{caster: caster, Rays: rays, Angle: angle, Radius: radius, Query: q, buf: make([]physics.Hit, max(rays, 0))}
}

func (s *ArcSensor) Name() string { return "ArcSensor" }

func (s *ArcSensor) Update(_ context.Context, bb Blackboard) error {
	pos, ok := bbVec(bb, KeyPosition)
	if !ok {
		return ErrUnknownBody
	}
	fwd, _ := bbVec(bb, KeyForward)

	var n int
	if s.Radius > 0 {
		n = sensing.ArcSphereCast(s.caster, pos, s.Radius, fwd, s.buf, s.Angle, s.Query)
	} else {
		n = sensing.ArcRaycast(s.caster, pos, fwd, s.buf, s.Angle, s.Query)
	}
	bb.Set(KeyHits, n)
	bb.Set(keyHitList, slices.Clone(s.buf))
	return nil
}

func registerSteeringSensors(r Registry, scene Scene, caster physics.Caster) {
	r.RegisterSensor("SelfSensor", func(map[string]any) (Sensor, error) {
		if scene == nil {
			return nil, ErrNoScene
		}
		return NewSelfSensor(scene), nil
	})

	target := func(pick Pick) Factory[Sensor] {
		return func(params map[string]any) (Sensor, error) {
			if scene == nil {
				return nil, ErrNoScene
			}
			tag, err := requireString(params, "tag")
			if err != nil {
				return nil, err
			}
			return &TargetSensor{
				scene:  scene,
				Pick:   pick,
				Tag:    tag,
				Out:    paramString(params, "out", KeyTarget),
				Radius: paramFloat(params, "radius", 0),
				Cone:   paramFloat(params, "cone", 180),
				Mode:   query.ParseAngleSortMode(paramString(params, "mode", "")),
			}, nil
		}
	}
	r.RegisterSensor("NearestSensor", target(PickNearest))
	r.RegisterSensor("FarthestSensor", target(PickFarthest))
	r.RegisterSensor("AheadSensor", target(PickAhead))

	r.RegisterSensor("TrackSensor", func(params map[string]any) (Sensor, error) {
		return NewTrackSensor(paramString(params, "key", KeyTarget)), nil
	})

	r.RegisterSensor("ArcSensor", func(params map[string]any) (Sensor, error) {
		if caster == nil {
			return nil, ErrNoCaster
		}
		q := physics.Query{
			MaxDistance: paramFloat(params, "max_distance", 5),
			Mask:        physics.LayerMask(paramInt(params, "mask", 0)),
		}
		if paramBool(params, "ignore_triggers", true) {
			q.Triggers = physics.Ignore
		}
		return NewArcSensor(caster, paramInt(params, "rays", 5), paramFloat(params, "angle", 90), paramFloat(params, "radius", 0), q), nil
	})
}
