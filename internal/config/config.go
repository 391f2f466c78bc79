package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/logging"
)

const (
	DefaultDt       = 10.0
	DefaultDuration = 5400.0
	DefaultSample   = 60.0
	DefaultEpoch    = 946728000.0 // 2000-01-01T12:00:00Z
	DefaultMass     = 100.0
	DefaultInertia  = 10.0
	DefaultHalfSide = 0.5
	DefaultRadius   = 7000e3
	DefaultSpeed    = 7546.05
)

// EnvPrefix prefixes the environment overrides read by LoadWithEnv.
const EnvPrefix = "EPICYCLE"

type Config struct {
	Name       string        `yaml:"name" mapstructure:"name"`
	Integrator string        `yaml:"integrator" mapstructure:"integrator"`
	Adaptive   bool          `yaml:"adaptive" mapstructure:"adaptive"`
	Dt         float64       `yaml:"dt" mapstructure:"dt"`
	Duration   float64       `yaml:"duration" mapstructure:"duration"`
	Sample     float64       `yaml:"sample" mapstructure:"sample"`
	Epoch      float64       `yaml:"epoch" mapstructure:"epoch"`
	Seed       int64         `yaml:"seed" mapstructure:"seed"`
	Models     []string      `yaml:"models" mapstructure:"models"`
	Initial    InitialConfig `yaml:"initial" mapstructure:"initial"`
	Objects    []ObjectSpec  `yaml:"objects" mapstructure:"objects"`
	Events     []EventSpec   `yaml:"events,omitempty" mapstructure:"events"`

	Storage StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Influx  InfluxConfig   `yaml:"influx" mapstructure:"influx"`
	Logging logging.Config `yaml:"logging" mapstructure:"logging"`
}

// InitialConfig is the composite body's starting state: inertial position
// and velocity, attitude quaternion (w, x, y, z) and body rates.
type InitialConfig struct {
	R [3]float64 `yaml:"r" mapstructure:"r"`
	V [3]float64 `yaml:"v" mapstructure:"v"`
	Q [4]float64 `yaml:"q" mapstructure:"q"`
	W [3]float64 `yaml:"w" mapstructure:"w"`
}

type ObjectSpec struct {
	Symbol         string     `yaml:"symbol" mapstructure:"symbol"`
	Mass           float64    `yaml:"mass" mapstructure:"mass"`
	Inertia        [3]float64 `yaml:"inertia" mapstructure:"inertia"`
	Box            [3]float64 `yaml:"box" mapstructure:"box"`
	Position       [3]float64 `yaml:"position" mapstructure:"position"`
	Attitude       [4]float64 `yaml:"attitude" mapstructure:"attitude"`
	Charge         float64    `yaml:"charge,omitempty" mapstructure:"charge"`
	MagneticDipole [3]float64 `yaml:"magnetic_dipole,omitempty" mapstructure:"magnetic_dipole"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

type InfluxConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	Token  string `yaml:"token" mapstructure:"token"`
	Org    string `yaml:"org" mapstructure:"org"`
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
}

func DefaultObject() ObjectSpec {
	return ObjectSpec{
		Symbol:   "BUS",
		Mass:     DefaultMass,
		Inertia:  [3]float64{DefaultInertia, DefaultInertia, DefaultInertia},
		Box:      [3]float64{DefaultHalfSide, DefaultHalfSide, DefaultHalfSide},
		Attitude: [4]float64{1, 0, 0, 0},
	}
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "leo",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Sample:     DefaultSample,
		Epoch:      DefaultEpoch,
		Models:     []string{"gravity"},
		Initial: InitialConfig{
			R: [3]float64{DefaultRadius, 0, 0},
			V: [3]float64{0, DefaultSpeed, 0},
			Q: [4]float64{1, 0, 0, 0},
		},
		Objects: []ObjectSpec{DefaultObject()},
		Storage: StorageConfig{Driver: "sqlite", DSN: "epicycle.db"},
		Logging: logging.Config{Level: "info", Format: "console"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadWithEnv layers defaults, the optional yaml file at path and EPICYCLE_*
// environment variables, in increasing precedence. Nested keys use an
// underscore: EPICYCLE_STORAGE_DSN sets storage.dsn.
func LoadWithEnv(path string) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("name", def.Name)
	v.SetDefault("integrator", def.Integrator)
	v.SetDefault("adaptive", def.Adaptive)
	v.SetDefault("dt", def.Dt)
	v.SetDefault("duration", def.Duration)
	v.SetDefault("sample", def.Sample)
	v.SetDefault("epoch", def.Epoch)
	v.SetDefault("seed", def.Seed)
	v.SetDefault("models", def.Models)
	v.SetDefault("storage.driver", def.Storage.Driver)
	v.SetDefault("storage.dsn", def.Storage.DSN)
	v.SetDefault("influx.url", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "")
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.gelf", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks what can be checked without the registries.
func (c *Config) Validate() error {
	if c.Integrator == "" {
		return fmt.Errorf("integrator must be set")
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if c.Sample < 0 {
		return fmt.Errorf("sample interval must not be negative, got %f", c.Sample)
	}
	if err := dynamo.Capacity(len(c.Objects)); err != nil {
		return err
	}
	total := 0.0
	for i, o := range c.Objects {
		if o.Mass < 0 {
			return fmt.Errorf("object %d: negative mass %f", i, o.Mass)
		}
		for _, x := range o.Inertia {
			if x < 0 {
				return fmt.Errorf("object %d: negative inertia %v", i, o.Inertia)
			}
		}
		total += o.Mass
	}
	if total <= 0 {
		return fmt.Errorf("total mass must be positive")
	}
	for i, e := range c.Events {
		if e.Time < 0 || e.Time > c.Duration {
			return fmt.Errorf("event %d at %g outside [0, %g]", i, e.Time, c.Duration)
		}
		if e.Object < 0 || e.Object >= len(c.Objects) {
			return fmt.Errorf("event %d: no object %d", i, e.Object)
		}
		if _, err := e.Event(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}
