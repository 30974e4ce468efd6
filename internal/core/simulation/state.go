package simulation

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/zeusync/steerkit/internal/core/observability/log"
)

// SaveAgents snapshots the blackboard and memory of every controlled entity,
// keyed by entity name.
func (w *World) SaveAgents() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	states := make(map[string][]byte, len(w.entities))
	for _, e := range w.entities {
		if e.agent == nil {
			continue
		}
		b, err := e.agent.SaveState()
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", e.Name, err)
		}
		states[e.Name] = b
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(states); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadAgents restores a SaveAgents snapshot onto the entities of the same
// name. Snapshots for names that are missing or have no agent are skipped.
// It returns the number of agents restored.
func (w *World) LoadAgents(b []byte) (int, error) {
	var states map[string][]byte
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&states); err != nil {
		return 0, fmt.Errorf("decode agent snapshot: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	restored := 0
	for _, e := range w.entities {
		state, ok := states[e.Name]
		if !ok || e.agent == nil {
			continue
		}
		if err := e.agent.LoadState(state); err != nil {
			return restored, fmt.Errorf("agent %s: %w", e.Name, err)
		}
		restored++
		delete(states, e.Name)
	}
	for name := range states {
		w.log.Debug("agent snapshot skipped", log.String("name", name))
	}
	return restored, nil
}
