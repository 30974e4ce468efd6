package npc

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
)

//go:embed presets/*.yaml
var presetFS embed.FS

var ErrUnknownPreset = errors.New("npc: unknown preset")

// Presets lists the embedded controller presets by name.
func Presets() []string {
	entries, _ := fs.ReadDir(presetFS, "presets")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	slices.Sort(names)
	return names
}

// Preset decodes the embedded controller called name.
func Preset(name string) (*Config, error) {
	raw, err := presetFS.ReadFile("presets/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return LoadYAML(bytes.NewReader(raw))
}

// WithParams returns a copy of c where the params of every node or sensor
// named in overrides are merged with the override values.
func (c *Config) WithParams(overrides map[string]map[string]any) *Config {
	out := &Config{Root: c.Root, Nodes: make(map[string]ConfigNode, len(c.Nodes))}
	for name, n := range c.Nodes {
		n.Params = merged(n.Params, overrides[name])
		out.Nodes[name] = n
	}
	for _, s := range c.Sensors {
		s.Params = merged(s.Params, overrides[s.Name])
		out.Sensors = append(out.Sensors, s)
	}
	return out
}

func merged(base, over map[string]any) map[string]any {
	if len(over) == 0 {
		return base
	}
	out := make(map[string]any, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}
