// Package config provides configuration loading and access for the generator.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/siege/level"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all generator configuration parameters.
type Config struct {
	Screen     ScreenConfig              `yaml:"screen"`
	World      WorldConfig               `yaml:"world"`
	Physics    PhysicsConfig             `yaml:"physics"`
	Evolution  EvolutionConfig           `yaml:"evolution"`
	Level      LevelConfig               `yaml:"level"`
	Materials  map[string]MaterialConfig `yaml:"materials"`
	Shapes     []ShapeConfig             `yaml:"shapes"`
	Target     ActorConfig               `yaml:"target"`
	Decoration ActorConfig               `yaml:"decoration"`
	Damage     DamageConfig              `yaml:"damage"`
	Launcher   LauncherConfig            `yaml:"launcher"`
	Evaluation EvaluationConfig          `yaml:"evaluation"`
	Telemetry  TelemetryConfig           `yaml:"telemetry"`
	Classifier ClassifierConfig          `yaml:"classifier"`
	Archive    ArchiveConfig             `yaml:"archive"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the play field layout. The world is y-up with the ground
// at y = 0.
type WorldConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	FirstColumnX  float64 `yaml:"first_column_x"` // Centre of column 0
	ColumnSpacing float64 `yaml:"column_spacing"` // Distance between column centres
}

// PhysicsConfig holds rigid body parameters.
type PhysicsConfig struct {
	DT            float64 `yaml:"dt"`
	Gravity       float64 `yaml:"gravity"`        // Downward acceleration, units/s^2
	Damping       float64 `yaml:"damping"`        // Linear velocity loss per second
	Restitution   float64 `yaml:"restitution"`    // Bounce on contact (0-1)
	Iterations    int     `yaml:"iterations"`     // Contact resolution passes per step
	SleepVelocity float64 `yaml:"sleep_velocity"` // Speed below which a body counts as still
	SleepTicks    int     `yaml:"sleep_ticks"`    // Still ticks before a body sleeps
	WakeVelocity  float64 `yaml:"wake_velocity"`  // Impact speed that wakes a sleeping body
}

// EvolutionConfig holds genetic algorithm parameters.
type EvolutionConfig struct {
	PopulationSize  int     `yaml:"population_size"`
	Generations     int     `yaml:"generations"`
	CrossoverRate   float64 `yaml:"crossover_rate"` // Reported only; every pair is recombined
	MutationRate    float64 `yaml:"mutation_rate"`
	Elitism         bool    `yaml:"elitism"`
	TournamentSize  int     `yaml:"tournament_size"`
	FilterFeasible  bool    `yaml:"filter_feasible"`
	MaxInitAttempts int     `yaml:"max_init_attempts"` // 0 = unbounded
}

// LevelConfig bounds generated levels.
type LevelConfig struct {
	MinColumns       int      `yaml:"min_columns"`
	MaxColumns       int      `yaml:"max_columns"`
	MinBudget        int      `yaml:"min_budget"`
	MaxBudget        int      `yaml:"max_budget"`
	ClampBudget      bool     `yaml:"clamp_budget"`
	MaxStackHeight   int      `yaml:"max_stack_height"`
	DecorationChance float64  `yaml:"decoration_chance"`
	MaxOffset        float64  `yaml:"max_offset"` // Fraction of column spacing
	BuriedTargets    bool     `yaml:"buried_targets"`
	Materials        []string `yaml:"materials"` // Materials the generator may use
}

// MaterialConfig holds per-material block properties.
type MaterialConfig struct {
	Density  float64  `yaml:"density"`
	Health   float64  `yaml:"health"`
	Friction float64  `yaml:"friction"`
	Color    [3]uint8 `yaml:"color,flow"`
}

// ShapeConfig is one entry of the block shape table.
type ShapeConfig struct {
	Name   string  `yaml:"name"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ActorConfig holds properties for non-block actors.
type ActorConfig struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Density  float64 `yaml:"density"`
	Health   float64 `yaml:"health"`
	Friction float64 `yaml:"friction"`
}

// DamageConfig holds impact damage parameters.
type DamageConfig struct {
	Threshold  float64 `yaml:"threshold"`  // Relative speed below which impacts are harmless
	Multiplier float64 `yaml:"multiplier"` // Health lost per unit of speed above threshold
}

// LauncherConfig holds the offensive unit launcher parameters.
type LauncherConfig struct {
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	Speed          float64 `yaml:"speed"`            // Launch speed, units/s
	Radius         float64 `yaml:"radius"`           // Projectile half extent
	Density        float64 `yaml:"density"`
	Health         float64 `yaml:"health"`
	MaxFlightTicks int     `yaml:"max_flight_ticks"` // Projectile removed after this many ticks
	QuietTicks     int     `yaml:"quiet_ticks"`      // Settled ticks before the next shot
}

// EvaluationConfig holds fitness evaluation parameters.
type EvaluationConfig struct {
	MaxTicks  int `yaml:"max_ticks"`  // 0 = wait for settlement indefinitely
	TimeScale int `yaml:"time_scale"` // Simulation steps per rendered frame while evolving
}

// TelemetryConfig holds output and monitoring parameters.
type TelemetryConfig struct {
	MetricsAddr    string `yaml:"metrics_addr"`    // Prometheus listen address; empty disables
	LogEvaluations bool   `yaml:"log_evaluations"` // Log every evaluation, not only generations
	PerfEvery      int    `yaml:"perf_every"`      // Ticks between perf samples (0 = off)
	Plot           bool   `yaml:"plot"`            // Render fitness.png at the end of a run
}

// ClassifierConfig holds the feasibility model location.
type ClassifierConfig struct {
	ModelPath string `yaml:"model_path"`
}

// ArchiveConfig holds the level archive settings.
type ArchiveConfig struct {
	Path     string `yaml:"path"`      // SQLite file; empty disables the archive
	SaveTopN int    `yaml:"save_top_n"` // Levels stored from the final generation
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	DT32      float32
	ScreenW32 float32
	ScreenH32 float32
	WorldW32  float32
	WorldH32  float32

	// MaterialTable is indexed by level.Material.
	MaterialTable [level.MaterialCount]MaterialConfig
	// LevelMaterials are the parsed Level.Materials.
	LevelMaterials []level.Material
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() error {
	return c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)

	if len(c.Shapes) == 0 {
		return fmt.Errorf("config: shape table is empty")
	}

	for name, mc := range c.Materials {
		var m level.Material
		if err := m.UnmarshalText([]byte(name)); err != nil {
			return fmt.Errorf("config: materials: %w", err)
		}
		c.Derived.MaterialTable[m] = mc
	}

	c.Derived.LevelMaterials = c.Derived.LevelMaterials[:0]
	for _, name := range c.Level.Materials {
		var m level.Material
		if err := m.UnmarshalText([]byte(name)); err != nil {
			return fmt.Errorf("config: level materials: %w", err)
		}
		c.Derived.LevelMaterials = append(c.Derived.LevelMaterials, m)
	}

	if c.Evaluation.TimeScale < 1 {
		c.Evaluation.TimeScale = 1
	}
	return nil
}

// Shape returns the shape table entry for id, wrapping out of range ids.
func (c *Config) Shape(id int) ShapeConfig {
	n := len(c.Shapes)
	return c.Shapes[((id%n)+n)%n]
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
