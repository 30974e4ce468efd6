package npc

import (
	"context"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/steerkit/internal/core/events/bus"
	"github.com/zeusync/steerkit/internal/core/planar"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
)

type fakeScene map[string]Body

func (s fakeScene) Body(id string) (Body, bool) {
	b, ok := s[id]
	return b, ok
}

func (s fakeScene) Tagged(tag string) []Body {
	var out []Body
	for _, b := range s {
		if b.HasTag(tag) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b Body) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

func (s fakeScene) add(id, tag string, pos mgl64.Vec2, speed float64) {
	s[id] = Body{ID: id, Name: id, Tags: []string{tag}, Pos: pos, Heading: planar.Forward, Speed: speed, Radius: 0.5}
}

func presetAgent(t *testing.T, id, preset string, scene Scene, caster physics.Caster, opts ...Option) Agent {
	t.Helper()
	r := NewRegistry()
	RegisterBuiltins(r)
	RegisterSteering(r, scene, caster)
	cfg, err := Preset(preset)
	require.NoError(t, err)
	a, err := BuildAgent(id, cfg, r, opts...)
	require.NoError(t, err)
	return a
}

func step(t *testing.T, a Agent) mgl64.Vec2 {
	t.Helper()
	_, err := a.Step(WithDelta(context.Background(), 0.1))
	require.NoError(t, err)
	v, ok := bbVec(a.Blackboard(), KeyVelocity)
	require.True(t, ok, "no velocity written")
	return v
}

func TestPresetsEmbedded(t *testing.T) {
	assert.Equal(t, []string{"destroyer", "hunter", "prey", "stalker"}, Presets())
	_, err := Preset("kraken")
	assert.ErrorIs(t, err, ErrUnknownPreset)

	r := NewRegistry()
	RegisterBuiltins(r)
	RegisterSteering(r, fakeScene{}, physics.NewWorld())
	for _, name := range Presets() {
		cfg, err := Preset(name)
		require.NoError(t, err, name)
		_, _, err = cfg.Build(r)
		assert.NoError(t, err, name)
	}
}

func TestHunterPursuesNearestPrey(t *testing.T) {
	scene := fakeScene{}
	scene.add("h", "hunter", mgl64.Vec2{0, 0}, 2)
	scene.add("p1", "prey", mgl64.Vec2{0, 10}, 1)
	scene.add("p2", "prey", mgl64.Vec2{20, 0}, 1)
	a := presetAgent(t, "h", "hunter", scene, physics.NewWorld())

	v := step(t, a)
	assert.InDelta(t, 0.0, v[0], 1e-9)
	assert.InDelta(t, 2.0, v[1], 1e-9)
	target, ok := bbBody(a.Blackboard(), KeyTarget)
	require.True(t, ok)
	assert.Equal(t, "p1", target.ID)

	// prey moves right; the hunter leads it
	scene.add("p1", "prey", mgl64.Vec2{1, 10}, 1)
	v = step(t, a)
	assert.Greater(t, v[0], 1.0/10.0*2)
	assert.InDelta(t, 2.0, v.Len(), 1e-9)
}

func TestHunterWandersWithoutPrey(t *testing.T) {
	scene := fakeScene{}
	scene.add("h", "hunter", mgl64.Vec2{0, 0}, 2)
	scene.add("far", "prey", mgl64.Vec2{0, 100}, 1)
	a := presetAgent(t, "h", "hunter", scene, physics.NewWorld())

	v := step(t, a)
	assert.InDelta(t, 2.0, v.Len(), 1e-9)
	_, ok := a.Blackboard().Get(KeyTarget)
	assert.False(t, ok, "prey outside the search radius")
}

func TestPreyEvadesCloseHunter(t *testing.T) {
	scene := fakeScene{}
	scene.add("p", "prey", mgl64.Vec2{0, 0}, 1)
	scene.add("h", "hunter", mgl64.Vec2{0, 3}, 2)
	a := presetAgent(t, "p", "prey", scene, physics.NewWorld())

	v := step(t, a)
	assert.InDelta(t, 0.0, v[0], 1e-9)
	assert.InDelta(t, -1.0, v[1], 1e-9)

	scene.add("h", "hunter", mgl64.Vec2{0, 30}, 2)
	v = step(t, a)
	assert.InDelta(t, 1.0, v.Len(), 1e-9, "wanders at its own speed")
}

func TestDestroyerReportsBox(t *testing.T) {
	scene := fakeScene{}
	scene.add("d", "destroyer", mgl64.Vec2{0, 0}, 3)
	scene.add("box", "box", mgl64.Vec2{0, 10}, 0)
	events := bus.New()
	var reached []bus.Event
	_, err := events.SubscribeTopic(bus.TopicAgents, "box.reached", func(e bus.Event) error {
		reached = append(reached, e)
		return nil
	})
	require.NoError(t, err)
	a := presetAgent(t, "d", "destroyer", scene, nil, WithEvents(events))

	v := step(t, a)
	assert.InDelta(t, 3.0, v[1], 1e-9)
	assert.Empty(t, reached)

	scene.add("d", "destroyer", mgl64.Vec2{0, 9}, 3)
	v = step(t, a)
	assert.Equal(t, planar.Zero, v)
	require.Len(t, reached, 1)
	assert.Equal(t, "d", reached[0].Source())
	box, ok := reached[0].Data().(Body)
	require.True(t, ok)
	assert.Equal(t, "box", box.ID)

	delete(scene, "box")
	v = step(t, a)
	assert.Equal(t, planar.Zero, v, "idles once no box is left")
}

func TestAvoidBendsVelocityAwayFromWall(t *testing.T) {
	scene := fakeScene{}
	scene.add("h", "hunter", mgl64.Vec2{0, 0}, 2)
	scene.add("p", "prey", mgl64.Vec2{0, 10}, 1)
	world := physics.NewWorld()
	require.NoError(t, world.Add(&physics.Collider{Name: "post", Center: mgl64.Vec2{0, 2}, Radius: 1}))

	cfg := &Config{
		Root: "root",
		Nodes: map[string]ConfigNode{
			"root":  {Type: "parallel", Params: map[string]any{"policy": "one"}, Children: []string{"seek", "avoid"}},
			"seek":  {Type: "action", Action: "Seek"},
			"avoid": {Type: "action", Action: "Avoid", Params: map[string]any{"max_distance": 4}},
		},
		Sensors: []ConfigSensor{
			{Name: "self", Type: "SelfSensor"},
			{Name: "prey", Type: "NearestSensor", Params: map[string]any{"tag": "prey"}},
			{Name: "whiskers", Type: "ArcSensor", Params: map[string]any{"rays": 3, "angle": 90, "max_distance": 4}},
		},
	}
	r := NewRegistry()
	RegisterSteering(r, scene, world)
	a, err := BuildAgent("h", cfg, r)
	require.NoError(t, err)

	v := step(t, a)
	hits, _ := a.Blackboard().Get(KeyHits)
	assert.Equal(t, 1, hits)
	// seek (0,2) plus twice the push (0,-1.5)
	assert.InDelta(t, 0.0, v[0], 1e-9)
	assert.InDelta(t, -1.0, v[1], 1e-9)
}

func TestAheadSensorPrefersBearing(t *testing.T) {
	scene := fakeScene{}
	scene.add("s", "stalker", mgl64.Vec2{0, 0}, 1)
	scene["near"] = Body{ID: "near", Tags: []string{"prey"}, Pos: planar.Heading(30).Mul(2)}
	scene["ahead"] = Body{ID: "ahead", Tags: []string{"prey"}, Pos: planar.Heading(5).Mul(9)}
	scene["behind"] = Body{ID: "behind", Tags: []string{"prey"}, Pos: mgl64.Vec2{0, -1}}

	bb := NewBlackboard()
	bb.Set(KeySelf, "s")
	sensors := []Sensor{
		NewSelfSensor(scene),
		&TargetSensor{scene: scene, Pick: PickAhead, Tag: "prey", Out: "ahead", Cone: 60},
		&TargetSensor{scene: scene, Pick: PickNearest, Tag: "prey", Out: "nearest"},
		&TargetSensor{scene: scene, Pick: PickFarthest, Tag: "prey", Out: "farthest"},
	}
	for _, s := range sensors {
		require.NoError(t, s.Update(context.Background(), bb))
	}

	got := func(key string) string {
		b, ok := bbBody(bb, key)
		require.True(t, ok, key)
		return b.ID
	}
	assert.Equal(t, "ahead", got("ahead"))
	assert.Equal(t, "behind", got("nearest"))
	assert.Equal(t, "ahead", got("farthest"))
	d, _ := bbFloat(bb, "ahead.distance")
	assert.InDelta(t, 9.0, d, 1e-9)
}

func TestTargetSensorClearsWhenEmpty(t *testing.T) {
	scene := fakeScene{}
	scene.add("s", "prey", mgl64.Vec2{0, 0}, 1)
	bb := NewBlackboard()
	bb.Set(KeySelf, "s")
	bb.Set(KeyTarget, Body{ID: "stale"})
	bb.Set(KeyTarget+".distance", 4.0)

	sensor := &TargetSensor{scene: scene, Tag: "prey", Out: KeyTarget}
	require.NoError(t, sensor.Update(context.Background(), bb))
	_, ok := bb.Get(KeyTarget)
	assert.False(t, ok, "self is never a target")
	_, ok = bb.Get(KeyTarget + ".distance")
	assert.False(t, ok)
}

func TestSelfSensorUnknownBody(t *testing.T) {
	bb := NewBlackboard()
	bb.Set(KeySelf, "ghost")
	assert.ErrorIs(t, NewSelfSensor(fakeScene{}).Update(context.Background(), bb), ErrUnknownBody)
}

func TestTrackSensorRemembersPreviousStep(t *testing.T) {
	bb := NewBlackboard()
	s := NewTrackSensor(KeyTarget)
	require.NoError(t, s.Update(context.Background(), bb))
	_, ok := bb.Get(KeyTarget + ".prev")
	assert.False(t, ok)

	bb.Set(KeyTarget, Body{ID: "p", Pos: mgl64.Vec2{1, 1}})
	require.NoError(t, s.Update(context.Background(), bb))
	prev, _ := bbVec(bb, KeyTarget+".prev")
	assert.Equal(t, mgl64.Vec2{1, 1}, prev)

	bb.Set(KeyTarget, Body{ID: "p", Pos: mgl64.Vec2{2, 1}})
	require.NoError(t, s.Update(context.Background(), bb))
	prev, _ = bbVec(bb, KeyTarget+".prev")
	assert.Equal(t, mgl64.Vec2{1, 1}, prev)
}

func TestTrackSensorReacquiredTargetStartsFresh(t *testing.T) {
	ctx := context.Background()
	bb := NewBlackboard()
	s := NewTrackSensor(KeyTarget)

	bb.Set(KeyTarget, Body{ID: "x", Pos: mgl64.Vec2{0, 0}})
	require.NoError(t, s.Update(ctx, bb))

	bb.Delete(KeyTarget)
	for range 10 {
		require.NoError(t, s.Update(ctx, bb))
		_, ok := bb.Get(KeyTarget + ".prev")
		require.False(t, ok)
	}

	bb.Set(KeyTarget, Body{ID: "x", Pos: mgl64.Vec2{50, 0}})
	require.NoError(t, s.Update(ctx, bb))
	prev, _ := bbVec(bb, KeyTarget+".prev")
	assert.Equal(t, mgl64.Vec2{50, 0}, prev)

	// switching away and back also starts over
	bb.Set(KeyTarget, Body{ID: "y", Pos: mgl64.Vec2{5, 5}})
	require.NoError(t, s.Update(ctx, bb))
	require.NoError(t, s.Update(ctx, bb))
	bb.Set(KeyTarget, Body{ID: "x", Pos: mgl64.Vec2{60, 0}})
	require.NoError(t, s.Update(ctx, bb))
	prev, _ = bbVec(bb, KeyTarget+".prev")
	assert.Equal(t, mgl64.Vec2{60, 0}, prev)
}

func TestInSightOcclusion(t *testing.T) {
	world := physics.NewWorld()
	r := NewRegistry()
	RegisterSteering(r, fakeScene{}, world)
	cond, err := r.NewCondition("InSight", map[string]any{"angle": 45, "occlusion": true})
	require.NoError(t, err)

	bb := NewBlackboard()
	bb.Set(KeyBody, Body{ID: "s", Pos: planar.Zero, Heading: planar.Forward})
	bb.Set(KeyTarget, Body{ID: "p", Pos: mgl64.Vec2{0, 10}, Radius: 0.5})
	tc := TickContext{Ctx: context.Background(), BB: bb}

	st, err := cond.Tick(tc)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st)

	wall := &physics.Collider{Name: "wall", Center: mgl64.Vec2{0, 5}, Radius: 1}
	require.NoError(t, world.Add(wall))
	st, _ = cond.Tick(tc)
	assert.Equal(t, StatusFailure, st)

	// the target's own collider does not hide it
	require.NoError(t, world.Remove(wall))
	require.NoError(t, world.Add(&physics.Collider{Name: "p", Center: mgl64.Vec2{0, 10}, Radius: 0.5, Owner: "p"}))
	st, _ = cond.Tick(tc)
	assert.Equal(t, StatusSuccess, st)

	bb.Set(KeyTarget, Body{ID: "p", Pos: mgl64.Vec2{10, 0}})
	st, _ = cond.Tick(tc)
	assert.Equal(t, StatusFailure, st, "outside the cone")
}

type namelessCaster struct{}

func (namelessCaster) Raycast(origin, dir mgl64.Vec2, _ physics.Query) (physics.Hit, bool) {
	return physics.Hit{Point: origin.Add(dir), Distance: 1}, true
}

func (c namelessCaster) SphereCast(origin mgl64.Vec2, _ float64, dir mgl64.Vec2, q physics.Query) (physics.Hit, bool) {
	return c.Raycast(origin, dir, q)
}

func TestInSightTreatsHitWithoutColliderAsClear(t *testing.T) {
	r := NewRegistry()
	RegisterSteering(r, fakeScene{}, namelessCaster{})
	cond, err := r.NewCondition("InSight", map[string]any{"angle": 45, "occlusion": true})
	require.NoError(t, err)

	bb := NewBlackboard()
	bb.Set(KeyBody, Body{ID: "s", Pos: planar.Zero, Heading: planar.Forward})
	bb.Set(KeyTarget, Body{ID: "p", Pos: mgl64.Vec2{0, 10}, Radius: 0.5})
	var st Status
	require.NotPanics(t, func() { st, err = cond.Tick(TickContext{Ctx: context.Background(), BB: bb}) })
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st)
}

func TestSteeringNodesNeedWiring(t *testing.T) {
	r := NewRegistry()
	RegisterSteering(r, nil, nil)
	_, err := r.NewSensor("SelfSensor", nil)
	assert.ErrorIs(t, err, ErrNoScene)
	_, err = r.NewSensor("ArcSensor", nil)
	assert.ErrorIs(t, err, ErrNoCaster)
	_, err = r.NewCondition("InSight", map[string]any{"occlusion": true})
	assert.ErrorIs(t, err, ErrNoCaster)
	_, err = r.NewSensor("NearestSensor", map[string]any{})
	assert.Error(t, err)
}

func TestStepFailsWithoutBody(t *testing.T) {
	a := presetAgent(t, "ghost", "hunter", fakeScene{}, physics.NewWorld())
	_, err := a.Step(context.Background())
	assert.ErrorIs(t, err, ErrUnknownBody)
}

func TestWithParamsOverridesByName(t *testing.T) {
	cfg, err := Preset("hunter")
	require.NoError(t, err)
	over := cfg.WithParams(map[string]map[string]any{"prey": {"tag": "sheep"}, "pursue": {"speed_scale": 0.5}})

	var tag any
	for _, s := range over.Sensors {
		if s.Name == "prey" {
			tag = s.Params["tag"]
			assert.Equal(t, 30, s.Params["radius"], "unrelated params kept")
		}
	}
	assert.Equal(t, "sheep", tag)
	assert.Equal(t, 0.5, over.Nodes["pursue"].Params["speed_scale"])
	for _, s := range cfg.Sensors {
		if s.Name == "prey" {
			assert.Equal(t, "prey", s.Params["tag"], "original untouched")
		}
	}
}
