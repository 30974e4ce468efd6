package npc

import (
	"bytes"
	"encoding/gob"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// VolatileNamespace holds per-tick values that are rebuilt every step and
// never persisted.
const VolatileNamespace = "tick"

func init() {
	gob.Register(mgl64.Vec2{})
	gob.Register(Body{})
	gob.Register(time.Time{})
}

type bbMap struct {
	mu     sync.RWMutex
	data   map[string]any
	prefix string
	root   *bbMap
}

func NewBlackboard() Blackboard {
	m := &bbMap{data: make(map[string]any)}
	m.root = m
	return m
}

func (b *bbMap) fullKey(key string) string {
	if b.prefix == "" {
		return key
	}
	return b.prefix + ":" + key
}

func (b *bbMap) Get(key string) (any, bool) {
	r := b.root
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[b.fullKey(key)]
	return v, ok
}

func (b *bbMap) Set(key string, value any) {
	r := b.root
	r.mu.Lock()
	r.data[b.fullKey(key)] = value
	r.mu.Unlock()
}

func (b *bbMap) Delete(key string) {
	r := b.root
	r.mu.Lock()
	delete(r.data, b.fullKey(key))
	r.mu.Unlock()
}

// Namespace nests under the current prefix. Colons in ns are replaced so a
// namespace cannot escape into a sibling.
func (b *bbMap) Namespace(ns string) Blackboard {
	ns = strings.ReplaceAll(ns, ":", "_")
	return &bbMap{root: b.root, prefix: b.fullKey(ns)}
}

func (b *bbMap) Keys() []string {
	r := b.root
	r.mu.RLock()
	keys := make([]string, 0, len(r.data))
	pref := ""
	if b.prefix != "" {
		pref = b.prefix + ":"
	}
	for k := range r.data {
		if strings.HasPrefix(k, pref) {
			keys = append(keys, strings.TrimPrefix(k, pref))
		}
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (b *bbMap) MarshalBinary() ([]byte, error) {
	r := b.root
	r.mu.RLock()
	persist := make(map[string]any, len(r.data))
	for k, v := range r.data {
		if strings.HasPrefix(k, VolatileNamespace+":") {
			continue
		}
		persist[k] = v
	}
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(persist); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *bbMap) UnmarshalBinary(data []byte) error {
	restored := make(map[string]any)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&restored); err != nil {
		return err
	}
	r := b.root
	r.mu.Lock()
	for k, v := range restored {
		r.data[k] = v
	}
	r.mu.Unlock()
	return nil
}

// typed helpers

func bbFloat(bb Blackboard, key string) (float64, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func bbVec(bb Blackboard, key string) (mgl64.Vec2, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return mgl64.Vec2{}, false
	}
	vec, ok := v.(mgl64.Vec2)
	return vec, ok
}

func bbBody(bb Blackboard, key string) (Body, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return Body{}, false
	}
	body, ok := v.(Body)
	return body, ok
}

func bbString(bb Blackboard, key string) string {
	v, _ := bb.Get(key)
	s, _ := v.(string)
	return s
}
