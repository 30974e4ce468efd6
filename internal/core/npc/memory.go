package npc

import (
	"bytes"
	"encoding/gob"
	"sync"
)

// DefaultMemoryLimit bounds the decision history of a long-running agent.
const DefaultMemoryLimit = 256

type boundedMemory struct {
	mu    sync.RWMutex
	limit int
	list  []DecisionRecord
}

// NewMemory keeps at most limit records, dropping the oldest. A non-positive
// limit uses DefaultMemoryLimit.
func NewMemory(limit int) Memory {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &boundedMemory{limit: limit, list: make([]DecisionRecord, 0, min(limit, 64))}
}

func (m *boundedMemory) AppendDecision(rec DecisionRecord) {
	m.mu.Lock()
	if len(m.list) == m.limit {
		copy(m.list, m.list[1:])
		m.list = m.list[:len(m.list)-1]
	}
	m.list = append(m.list, rec)
	m.mu.Unlock()
}

func (m *boundedMemory) History() []DecisionRecord {
	m.mu.RLock()
	cp := make([]DecisionRecord, len(m.list))
	copy(cp, m.list)
	m.mu.RUnlock()
	return cp
}

func (m *boundedMemory) Reset() {
	m.mu.Lock()
	m.list = m.list[:0]
	m.mu.Unlock()
}

func (m *boundedMemory) Save() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m.list); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *boundedMemory) Load(b []byte) error {
	var list []DecisionRecord
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&list); err != nil {
		return err
	}
	if len(list) > m.limit {
		list = list[len(list)-m.limit:]
	}
	m.mu.Lock()
	m.list = list
	m.mu.Unlock()
	return nil
}
