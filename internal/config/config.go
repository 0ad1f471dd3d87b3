package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Simulation holds all configuration for the headless simulation host.
type Simulation struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Fixed simulation step in seconds
	TickStep float64 `yaml:"tick_step"`

	// Periodic stats log interval in seconds (0 disables)
	StatsInterval float64 `yaml:"stats_interval"`

	// Archetype table file (built-in defaults when absent)
	ArchetypesPath string `yaml:"archetypes_path"`

	// Navigation field
	Field FieldConfig `yaml:"field"`

	// Scripted player
	Player PlayerConfig `yaml:"player"`

	// Per-archetype pool sizing
	Pools []PoolEntry `yaml:"pools"`

	// Wave director
	Waves WavesConfig `yaml:"waves"`

	// Spawn placement
	Placement PlacementConfig `yaml:"placement"`

	// Difficulty response curve
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// FieldConfig describes the rectangular walkable field and its
// obstacles.
type FieldConfig struct {
	MinX      float64          `yaml:"min_x"`
	MinY      float64          `yaml:"min_y"`
	MaxX      float64          `yaml:"max_x"`
	MaxY      float64          `yaml:"max_y"`
	Obstacles []ObstacleConfig `yaml:"obstacles"`
}

// ObstacleConfig is one circular blocker on the field.
type ObstacleConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// PlayerConfig drives the scripted player: a walker circling a center
// point, standing in for real player input.
type PlayerConfig struct {
	CenterX      float64 `yaml:"center_x"`
	CenterY      float64 `yaml:"center_y"`
	OrbitRadius  float64 `yaml:"orbit_radius"`
	AngularSpeed float64 `yaml:"angular_speed"` // radians per second
	AttackDamage float64 `yaml:"attack_damage"` // per hit on the nearest enemy
	AttackRange  float64 `yaml:"attack_range"`
	AttackRate   float64 `yaml:"attack_rate"` // hits per second, 0 disables
}

// PoolEntry sizes the enemy pool for one archetype.
type PoolEntry struct {
	Archetype   string `yaml:"archetype"`
	InitialSize int    `yaml:"initial_size"`
	MaxSize     int    `yaml:"max_size"`
	AllowGrowth bool   `yaml:"allow_growth"`
}

// WavesConfig holds the wave director tunables.
type WavesConfig struct {
	DecisionInterval float64 `yaml:"decision_interval"`
	Continuous       bool    `yaml:"continuous"`
	ConcurrencyCap   int     `yaml:"concurrency_cap"`

	BaseEnemyCount   int     `yaml:"base_enemy_count"`
	EnemyCountGrowth float64 `yaml:"enemy_count_growth"`
	SpawnInterval    float64 `yaml:"spawn_interval"`
	WaveDelay        float64 `yaml:"wave_delay"`
	SpawnTimeout     float64 `yaml:"spawn_timeout"`

	HealthGrowthPerWave float64 `yaml:"health_growth_per_wave"`
	SpeedGrowthPerWave  float64 `yaml:"speed_growth_per_wave"`
	DamageGrowthPerWave float64 `yaml:"damage_growth_per_wave"`
	WeightScaling       bool    `yaml:"weight_scaling"`

	ReleaseOnStop bool `yaml:"release_on_stop"`

	Roster   []RosterConfig `yaml:"roster"`
	Authored []AuthoredWave `yaml:"authored"`
}

// RosterConfig is one archetype eligible for generated waves.
type RosterConfig struct {
	Type    string  `yaml:"type"`
	Weight  float64 `yaml:"weight"`
	MinWave int     `yaml:"min_wave"`
	// SpawnChance is the independent per-slot roll, 0..1. Omitted (or
	// zero) means always; remove the entry to disable an archetype.
	SpawnChance float64 `yaml:"spawn_chance"`
	PerWaveCap  int     `yaml:"per_wave_cap"`
}

// AuthoredWave overrides the generated descriptor for one wave number.
// Zero fields fall back to the generated values.
type AuthoredWave struct {
	Wave             int            `yaml:"wave"`
	EnemyCount       int            `yaml:"enemy_count"`
	SpawnInterval    float64        `yaml:"spawn_interval"`
	WaveDelay        float64        `yaml:"wave_delay"`
	HealthMultiplier float64        `yaml:"health_multiplier"`
	SpeedMultiplier  float64        `yaml:"speed_multiplier"`
	DamageMultiplier float64        `yaml:"damage_multiplier"`
	Roster           []RosterConfig `yaml:"roster"`
}

// PlacementConfig bounds the spawn annulus around the player.
type PlacementConfig struct {
	MinDistanceFromPlayer float64 `yaml:"min_distance_from_player"`
	MaxDistanceFromPlayer float64 `yaml:"max_distance_from_player"`
	MinSeparation         float64 `yaml:"min_separation"`
	Attempts              int     `yaml:"attempts"`
	WalkableTolerance     float64 `yaml:"walkable_tolerance"`
}

// DifficultyConfig parametrizes the saturating difficulty curve.
type DifficultyConfig struct {
	Ceiling      float64 `yaml:"ceiling"`
	TimeConstant float64 `yaml:"time_constant"` // seconds
}

// DefaultSimulation returns Simulation config with sensible defaults:
// a 20 Hz loop over an 80x80 field, three-archetype roster, waves of
// five growing by one per wave.
func DefaultSimulation() Simulation {
	return Simulation{
		LogLevel:       "info",
		TickStep:       0.05,
		StatsInterval:  10,
		ArchetypesPath: "config/archetypes.yaml",
		Field: FieldConfig{
			MinX: -40, MinY: -40,
			MaxX: 40, MaxY: 40,
		},
		Player: PlayerConfig{
			OrbitRadius:  12,
			AngularSpeed: 0.25,
			AttackDamage: 25,
			AttackRange:  6,
			AttackRate:   1.5,
		},
		Pools: []PoolEntry{
			{Archetype: "husk", InitialSize: 20, MaxSize: 60, AllowGrowth: true},
			{Archetype: "stalker", InitialSize: 10, MaxSize: 30, AllowGrowth: true},
			{Archetype: "spitter", InitialSize: 8, MaxSize: 20, AllowGrowth: true},
		},
		Waves: WavesConfig{
			DecisionInterval:    0.5,
			Continuous:          false,
			ConcurrencyCap:      50,
			BaseEnemyCount:      5,
			EnemyCountGrowth:    1.0,
			SpawnInterval:       0.8,
			WaveDelay:           4.0,
			SpawnTimeout:        30,
			HealthGrowthPerWave: 0.10,
			SpeedGrowthPerWave:  0.02,
			DamageGrowthPerWave: 0.08,
			WeightScaling:       true,
			ReleaseOnStop:       true,
			Roster: []RosterConfig{
				{Type: "husk", Weight: 3, SpawnChance: 1},
				{Type: "stalker", Weight: 1.5, MinWave: 3, SpawnChance: 1},
				{Type: "spitter", Weight: 1, MinWave: 5, SpawnChance: 0.8, PerWaveCap: 4},
			},
		},
		Placement: PlacementConfig{
			MinDistanceFromPlayer: 10,
			MaxDistanceFromPlayer: 25,
			MinSeparation:         1.5,
			Attempts:              20,
			WalkableTolerance:     2.0,
		},
		Difficulty: DifficultyConfig{
			Ceiling:      2.5,
			TimeConstant: 300,
		},
	}
}

// LoadSimulation loads simulation config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSimulation(path string) (Simulation, error) {
	cfg := DefaultSimulation()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize fills omitted roster fields after unmarshal: an absent
// spawn_chance would otherwise read as zero and silently make the
// entry unspawnable.
func (c *Simulation) normalize() {
	normalizeRoster(c.Waves.Roster)
	for i := range c.Waves.Authored {
		normalizeRoster(c.Waves.Authored[i].Roster)
	}
}

func normalizeRoster(entries []RosterConfig) {
	for i := range entries {
		if entries[i].SpawnChance <= 0 {
			entries[i].SpawnChance = 1
		}
	}
}
