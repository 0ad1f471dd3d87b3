// Package data holds the static archetype table: per-type tunable
// profiles loaded once at startup and read-only afterwards.
package data

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/velmoren/duskfall/internal/model"
)

// ArchetypeTable is the global registry of enemy archetype profiles.
// map[type]ArchetypeConfig. Populated by LoadArchetypes at startup,
// never modified afterwards.
var ArchetypeTable map[string]model.ArchetypeConfig

// archetypeEntry is the YAML shape of one archetype.
type archetypeEntry struct {
	Type             string  `yaml:"type"`
	Style            string  `yaml:"style"` // "melee" or "ranged"
	MaxHealth        float64 `yaml:"max_health"`
	MoveSpeed        float64 `yaml:"move_speed"`
	Acceleration     float64 `yaml:"acceleration"`
	AttackRange      float64 `yaml:"attack_range"`
	AttackCooldown   float64 `yaml:"attack_cooldown"`
	AttackDamage     float64 `yaml:"attack_damage"`
	DetectionRange   float64 `yaml:"detection_range"`
	StateChangeDelay float64 `yaml:"state_change_delay"`
	DeathDelay       float64 `yaml:"death_delay"`
	Scale            float64 `yaml:"scale"`
	ChaseSpeedFactor float64 `yaml:"chase_speed_factor"`
	Aggressive       bool    `yaml:"aggressive"`
}

// GetArchetype returns the profile for a type name.
func GetArchetype(archetypeType string) (model.ArchetypeConfig, bool) {
	cfg, ok := ArchetypeTable[archetypeType]
	return cfg, ok
}

// ArchetypeCount returns the number of loaded archetypes.
func ArchetypeCount() int {
	return len(ArchetypeTable)
}

// LoadArchetypes builds ArchetypeTable from a YAML file. If the file
// doesn't exist the built-in defaults are used instead, so a fresh
// checkout runs without any config.
func LoadArchetypes(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			loadBuiltinArchetypes()
			slog.Info("loaded built-in archetypes", "count", len(ArchetypeTable))
			return nil
		}
		return fmt.Errorf("reading archetypes %s: %w", path, err)
	}

	var file struct {
		Archetypes []archetypeEntry `yaml:"archetypes"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing archetypes %s: %w", path, err)
	}
	if len(file.Archetypes) == 0 {
		return fmt.Errorf("archetypes %s: empty table", path)
	}

	table := make(map[string]model.ArchetypeConfig, len(file.Archetypes))
	for _, entry := range file.Archetypes {
		cfg, err := entry.toConfig()
		if err != nil {
			return fmt.Errorf("archetypes %s: %w", path, err)
		}
		if _, dup := table[cfg.Type]; dup {
			return fmt.Errorf("archetypes %s: duplicate type %q", path, cfg.Type)
		}
		table[cfg.Type] = cfg
	}

	ArchetypeTable = table
	slog.Info("loaded archetypes", "path", path, "count", len(ArchetypeTable))
	return nil
}

// toConfig validates one YAML entry and converts it to the model type.
func (e archetypeEntry) toConfig() (model.ArchetypeConfig, error) {
	if e.Type == "" {
		return model.ArchetypeConfig{}, fmt.Errorf("archetype with empty type")
	}

	var style model.AttackStyle
	switch e.Style {
	case "melee", "":
		style = model.StyleMelee
	case "ranged":
		style = model.StyleRanged
	default:
		return model.ArchetypeConfig{}, fmt.Errorf("archetype %q: unknown style %q", e.Type, e.Style)
	}

	if e.MaxHealth <= 0 {
		return model.ArchetypeConfig{}, fmt.Errorf("archetype %q: max_health must be positive", e.Type)
	}
	if e.MoveSpeed <= 0 {
		return model.ArchetypeConfig{}, fmt.Errorf("archetype %q: move_speed must be positive", e.Type)
	}
	if e.AttackRange <= 0 {
		return model.ArchetypeConfig{}, fmt.Errorf("archetype %q: attack_range must be positive", e.Type)
	}

	cfg := model.ArchetypeConfig{
		Type:             e.Type,
		Style:            style,
		MaxHealth:        e.MaxHealth,
		MoveSpeed:        e.MoveSpeed,
		Acceleration:     e.Acceleration,
		AttackRange:      e.AttackRange,
		AttackCooldown:   e.AttackCooldown,
		AttackDamage:     e.AttackDamage,
		DetectionRange:   e.DetectionRange,
		StateChangeDelay: e.StateChangeDelay,
		DeathDelay:       e.DeathDelay,
		Scale:            e.Scale,
		ChaseSpeedFactor: e.ChaseSpeedFactor,
		Aggressive:       e.Aggressive,
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.ChaseSpeedFactor <= 0 {
		cfg.ChaseSpeedFactor = 1
	}
	return cfg, nil
}

// loadBuiltinArchetypes installs the default three-archetype table.
func loadBuiltinArchetypes() {
	ArchetypeTable = map[string]model.ArchetypeConfig{
		"husk": {
			Type:             "husk",
			Style:            model.StyleMelee,
			MaxHealth:        100,
			MoveSpeed:        2.4,
			Acceleration:     10,
			AttackRange:      1.6,
			AttackCooldown:   1.2,
			AttackDamage:     10,
			DetectionRange:   14,
			StateChangeDelay: 0.4,
			DeathDelay:       2.5,
			Scale:            1,
			ChaseSpeedFactor: 1.25,
			Aggressive:       true,
		},
		"stalker": {
			Type:             "stalker",
			Style:            model.StyleMelee,
			MaxHealth:        60,
			MoveSpeed:        3.4,
			Acceleration:     14,
			AttackRange:      1.4,
			AttackCooldown:   0.8,
			AttackDamage:     7,
			DetectionRange:   18,
			StateChangeDelay: 0.3,
			DeathDelay:       2.0,
			Scale:            0.9,
			ChaseSpeedFactor: 1.4,
			Aggressive:       true,
		},
		"spitter": {
			Type:             "spitter",
			Style:            model.StyleRanged,
			MaxHealth:        45,
			MoveSpeed:        2.0,
			Acceleration:     8,
			AttackRange:      9,
			AttackCooldown:   2.0,
			AttackDamage:     14,
			DetectionRange:   16,
			StateChangeDelay: 0.5,
			DeathDelay:       2.0,
			Scale:            1.1,
			ChaseSpeedFactor: 1.1,
			Aggressive:       false,
		},
	}
}
