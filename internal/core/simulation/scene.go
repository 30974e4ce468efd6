package simulation

import (
	"github.com/zeusync/steerkit/internal/core/npc"
)

// scene is an immutable view of the entities, rebuilt whenever the world
// changes and read by agents without locking.
type scene struct {
	bodies []npc.Body
	byID   map[string]int
	byTag  map[string][]int
}

func newScene(bodies []npc.Body) *scene {
	s := &scene{
		bodies: bodies,
		byID:   make(map[string]int, len(bodies)),
		byTag:  make(map[string][]int),
	}
	for i, b := range bodies {
		s.byID[b.ID] = i
		for _, tag := range b.Tags {
			s.byTag[tag] = append(s.byTag[tag], i)
		}
	}
	return s
}

func (s *scene) Body(id string) (npc.Body, bool) {
	i, ok := s.byID[id]
	if !ok {
		return npc.Body{}, false
	}
	return s.bodies[i], true
}

// Tagged returns a fresh slice in spawn order.
func (s *scene) Tagged(tag string) []npc.Body {
	idx := s.byTag[tag]
	if len(idx) == 0 {
		return nil
	}
	out := make([]npc.Body, len(idx))
	for i, j := range idx {
		out[i] = s.bodies[j]
	}
	return out
}
