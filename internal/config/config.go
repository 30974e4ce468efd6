// Package config loads steersim scenarios: the world's obstacles and
// entities plus the knobs for logging, ticking and serving.
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/steerkit/internal/core/npc"
	"github.com/zeusync/steerkit/internal/core/observability/log"
)

var ErrInvalidConfig = stderrors.New("invalid configuration")

const (
	DefaultTickRate     = 20
	DefaultAddr         = ":8080"
	DefaultSendBuffer   = 16
	DefaultWriteTimeout = 5 * time.Second
	ShapeCircle         = "circle"
	ShapeBox            = "box"
)

type Config struct {
	LogLevel string `yaml:"log_level"`
	// TickRate is the number of ticks per simulated second.
	TickRate float64 `yaml:"tick_rate"`
	// Ticks bounds a headless run. Zero runs until interrupted.
	Ticks int `yaml:"ticks"`
	// Workers caps concurrent agent steps; zero uses GOMAXPROCS.
	Workers int `yaml:"workers"`

	Server    ServerConfig     `yaml:"server"`
	Physics   PhysicsConfig    `yaml:"physics"`
	Obstacles []ObstacleConfig `yaml:"obstacles"`
	Entities  []EntityConfig   `yaml:"entities"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	SendBuffer   int           `yaml:"send_buffer"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// Token, when set, must be passed as ?token= to open a stream.
	Token string `yaml:"token"`
}

type PhysicsConfig struct {
	// HitTriggers is the trigger policy of casts that do not set their own.
	HitTriggers bool `yaml:"hit_triggers"`
}

type ObstacleConfig struct {
	Name     string     `yaml:"name"`
	Shape    string     `yaml:"shape"`
	Position [2]float64 `yaml:"position"`
	Radius   float64    `yaml:"radius"`
	// Size is the full width and depth of a box.
	Size    [2]float64 `yaml:"size"`
	Layer   int        `yaml:"layer"`
	Trigger bool       `yaml:"trigger"`
}

type EntityConfig struct {
	Name       string                    `yaml:"name"`
	Tags       []string                  `yaml:"tags"`
	Position   [2]float64                `yaml:"position"`
	Forward    [2]float64                `yaml:"forward"`
	Speed      float64                   `yaml:"speed"`
	Radius     float64                   `yaml:"radius"`
	Layer      *int                      `yaml:"layer"`
	Controller string                    `yaml:"controller"`
	Params     map[string]map[string]any `yaml:"params"`
}

// Default is an empty world served on DefaultAddr.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		TickRate: DefaultTickRate,
		Server: ServerConfig{
			Addr:         DefaultAddr,
			SendBuffer:   DefaultSendBuffer,
			WriteTimeout: DefaultWriteTimeout,
		},
		Physics: PhysicsConfig{HitTriggers: true},
	}
}

// Load reads and validates the scenario at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys are
// rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TickRate <= 0 {
		return invalid("tick_rate must be positive, got %v", c.TickRate)
	}
	if c.Ticks < 0 {
		return invalid("ticks must not be negative, got %d", c.Ticks)
	}
	if c.Workers < 0 {
		return invalid("workers must not be negative, got %d", c.Workers)
	}
	if c.Server.SendBuffer < 1 {
		return invalid("server.send_buffer must be at least 1, got %d", c.Server.SendBuffer)
	}

	for i, o := range c.Obstacles {
		if err := o.validate(); err != nil {
			return errors.Wrapf(err, "obstacles[%d]", i)
		}
	}

	seen := make(map[string]struct{}, len(c.Entities))
	for i, e := range c.Entities {
		if e.Name == "" {
			return errors.Wrapf(invalid("entity needs a name"), "entities[%d]", i)
		}
		if _, dup := seen[e.Name]; dup {
			return errors.Wrapf(invalid("duplicate entity name %q", e.Name), "entities[%d]", i)
		}
		seen[e.Name] = struct{}{}
		if err := e.validate(); err != nil {
			return errors.Wrapf(err, "entity %s", e.Name)
		}
	}
	return nil
}

func (o ObstacleConfig) validate() error {
	switch o.Shape {
	case "", ShapeCircle:
		if o.Radius <= 0 {
			return invalid("circle radius must be positive")
		}
	case ShapeBox:
		if o.Size[0] <= 0 || o.Size[1] <= 0 {
			return invalid("box size must be positive")
		}
	default:
		return invalid("unknown shape %q", o.Shape)
	}
	return validLayer(o.Layer)
}

func (e EntityConfig) validate() error {
	if e.Speed < 0 || e.Radius < 0 {
		return invalid("speed and radius must not be negative")
	}
	if e.Layer != nil {
		if err := validLayer(*e.Layer); err != nil {
			return err
		}
	}
	if e.Controller != "" {
		if _, err := npc.Preset(e.Controller); err != nil {
			return errors.Wrap(ErrInvalidConfig, err.Error())
		}
	}
	return nil
}

func validLayer(n int) error {
	if n < 0 || n > 31 {
		return invalid("layer %d out of range 0..31", n)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Wrap(ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Level is the parsed log_level.
func (c *Config) Level() log.Level { return log.ParseLevel(c.LogLevel) }

// TickInterval is the wall time between ticks when serving.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
