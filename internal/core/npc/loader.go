package npc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/steerkit/internal/core/events/bus"
)

var ErrCycle = errors.New("npc: node graph has a cycle")

// Config describes a tree and its sensors by registry name. It decodes from
// JSON or YAML.
type Config struct {
	Root    string                `json:"root" yaml:"root"`
	Nodes   map[string]ConfigNode `json:"nodes" yaml:"nodes"`
	Sensors []ConfigSensor        `json:"sensors" yaml:"sensors"`
}

type ConfigSensor struct {
	Name   string         `json:"name" yaml:"name"`
	Type   string         `json:"type" yaml:"type"`
	Params map[string]any `json:"params" yaml:"params"`
}

// ConfigNode is one entry in Config.Nodes. Type is sequence, selector,
// parallel, decorator, action or condition (case-insensitive).
type ConfigNode struct {
	Type      string         `json:"type" yaml:"type"`
	Children  []string       `json:"children,omitempty" yaml:"children,omitempty"`
	Child     string         `json:"child,omitempty" yaml:"child,omitempty"`
	Action    string         `json:"action,omitempty" yaml:"action,omitempty"`
	Condition string         `json:"condition,omitempty" yaml:"condition,omitempty"`
	Decorator string         `json:"decorator,omitempty" yaml:"decorator,omitempty"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

func LoadJSON(r io.Reader) (*Config, error) {
	var c Config
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func LoadYAML(r io.Reader) (*Config, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Build instantiates the tree and sensors through reg. Every call produces
// fresh node instances, so one Config can drive many agents.
func (c *Config) Build(reg Registry) (DecisionTree, []Sensor, error) {
	b := builder{cfg: c, reg: reg, created: make(map[string]BehaviorNode), visiting: make(map[string]bool)}
	var tree Tree
	if c.Root != "" {
		root, err := b.node(c.Root)
		if err != nil {
			return nil, nil, err
		}
		tree = NewTree(root)
	}

	sensors := make([]Sensor, 0, len(c.Sensors))
	for _, s := range c.Sensors {
		sen, err := reg.NewSensor(s.Type, s.Params)
		if err != nil {
			return nil, nil, fmt.Errorf("sensor %s: %w", s.Name, err)
		}
		sensors = append(sensors, sen)
	}
	return tree, sensors, nil
}

type builder struct {
	cfg      *Config
	reg      Registry
	created  map[string]BehaviorNode
	visiting map[string]bool
}

func (b *builder) node(name string) (BehaviorNode, error) {
	if n, ok := b.created[name]; ok {
		return n, nil
	}
	if b.visiting[name] {
		return nil, fmt.Errorf("%w at %s", ErrCycle, name)
	}
	nc, ok := b.cfg.Nodes[name]
	if !ok {
		return nil, fmt.Errorf("unknown node in config: %s", name)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	var (
		n   BehaviorNode
		err error
	)
	switch strings.ToLower(nc.Type) {
	case "sequence":
		n, err = b.composite(NewSequence(name), nc.Children)
	case "selector":
		n, err = b.composite(NewSelector(name), nc.Children)
	case "parallel":
		policy := ParallelRequireAllSuccess
		if p := paramString(nc.Params, "policy", "all"); p == "one" || p == "any" {
			policy = ParallelRequireOneSuccess
		}
		n, err = b.composite(NewParallel(name, policy), nc.Children)
	case "decorator":
		n, err = b.decorator(name, nc)
	case "action":
		n, err = b.reg.NewAction(nc.Action, nc.Params)
	case "condition":
		n, err = b.reg.NewCondition(nc.Condition, nc.Params)
	default:
		err = fmt.Errorf("unsupported node type: %s", nc.Type)
	}
	if err != nil {
		return nil, err
	}
	b.created[name] = n
	return n, nil
}

func (b *builder) composite(c Composite, names []string) (BehaviorNode, error) {
	children := make([]BehaviorNode, 0, len(names))
	for _, chname := range names {
		ch, err := b.node(chname)
		if err != nil {
			return nil, err
		}
		children = append(children, ch)
	}
	c.SetChildren(children...)
	return c, nil
}

func (b *builder) decorator(name string, nc ConfigNode) (BehaviorNode, error) {
	kind := nc.Decorator
	if kind == "" {
		kind = paramString(nc.Params, "name", "")
	}
	if nc.Child == "" {
		return nil, fmt.Errorf("decorator %s requires child", name)
	}
	dec, err := b.reg.NewDecorator(kind, nc.Params)
	if err != nil {
		return nil, err
	}
	ch, err := b.node(nc.Child)
	if err != nil {
		return nil, err
	}
	dec.SetChild(ch)
	return dec, nil
}

// RegisterBuiltins adds the generic blackboard nodes and decorators.
func RegisterBuiltins(r Registry) {
	r.RegisterCondition("IsTrue", func(params map[string]any) (Condition, error) {
		key, err := requireString(params, "key")
		if err != nil {
			return nil, err
		}
		return NewConditionFunc(label("IsTrue", key), func(t TickContext) (bool, error) {
			v, _ := t.BB.Get(key)
			b, _ := v.(bool)
			return b, nil
		}), nil
	})

	r.RegisterAction("SetBool", func(params map[string]any) (Action, error) {
		key, err := requireString(params, "key")
		if err != nil {
			return nil, err
		}
		val := paramBool(params, "value", false)
		return NewActionFunc(label("SetBool", key), func(t TickContext) (Status, error) {
			t.BB.Set(key, val)
			return StatusSuccess, nil
		}), nil
	})
	r.RegisterAction("Noop", func(map[string]any) (Action, error) {
		return NewActionFunc("Noop", func(TickContext) (Status, error) { return StatusSuccess, nil }), nil
	})
	// Publish raises an event of `type` on `topic` carrying the blackboard
	// value under `key`. It fails when the key is empty.
	r.RegisterAction("Publish", func(params map[string]any) (Action, error) {
		typ, err := requireString(params, "type")
		if err != nil {
			return nil, err
		}
		topic := paramString(params, "topic", bus.TopicAgents)
		key := paramString(params, "key", "")
		return NewActionFunc(label("Publish", typ), func(t TickContext) (Status, error) {
			var data any
			if key != "" {
				v, ok := t.BB.Get(key)
				if !ok {
					return StatusFailure, nil
				}
				data = v
			}
			if t.Events == nil {
				return StatusFailure, nil
			}
			if err := t.Events.PublishToTopic(topic, bus.NewEvent(typ, t.Self, data)); err != nil {
				return StatusFailure, err
			}
			return StatusSuccess, nil
		}), nil
	})

	r.RegisterDecorator("Repeat", func(params map[string]any) (Decorator, error) {
		return NewRepeat("Repeat", paramInt(params, "times", 1), paramBool(params, "stop_on_failure", false)), nil
	})
	r.RegisterDecorator("Timer", func(params map[string]any) (Decorator, error) {
		ms := paramInt(params, "ms", 0)
		return NewTimer(paramString(params, "id", "Timer"), time.Duration(ms)*time.Millisecond), nil
	})
	r.RegisterDecorator("Probability", func(params map[string]any) (Decorator, error) {
		return NewProbability("Probability", paramFloat(params, "p", 0.5), paramString(params, "seed", "")), nil
	})
	r.RegisterDecorator("Inverter", func(map[string]any) (Decorator, error) {
		return NewInverter("Inverter"), nil
	})
	r.RegisterDecorator("Succeeder", func(map[string]any) (Decorator, error) {
		return NewSucceeder("Succeeder"), nil
	})
}
