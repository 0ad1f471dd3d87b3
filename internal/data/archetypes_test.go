package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velmoren/duskfall/internal/model"
)

func TestLoadArchetypesMissingFileUsesBuiltins(t *testing.T) {
	require.NoError(t, LoadArchetypes("does/not/exist.yaml"))

	assert.Equal(t, 3, ArchetypeCount())

	husk, ok := GetArchetype("husk")
	require.True(t, ok)
	assert.Equal(t, model.StyleMelee, husk.Style)
	assert.True(t, husk.Aggressive)

	spitter, ok := GetArchetype("spitter")
	require.True(t, ok)
	assert.Equal(t, model.StyleRanged, spitter.Style)
	assert.False(t, spitter.Aggressive)

	_, ok = GetArchetype("dragon")
	assert.False(t, ok)
}

func TestLoadArchetypesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archetypes.yaml")
	content := []byte(`
archetypes:
  - type: brute
    style: melee
    max_health: 240
    move_speed: 1.8
    attack_range: 2.2
    attack_cooldown: 1.8
    attack_damage: 30
    detection_range: 12
    state_change_delay: 0.5
    death_delay: 3.0
    aggressive: true
  - type: archer
    style: ranged
    max_health: 50
    move_speed: 2.2
    attack_range: 11
    attack_damage: 12
    detection_range: 15
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	require.NoError(t, LoadArchetypes(path))
	assert.Equal(t, 2, ArchetypeCount())

	brute, ok := GetArchetype("brute")
	require.True(t, ok)
	assert.Equal(t, 240.0, brute.MaxHealth)
	assert.Equal(t, model.StyleMelee, brute.Style)
	// Omitted factors fall back to 1.
	assert.Equal(t, 1.0, brute.Scale)
	assert.Equal(t, 1.0, brute.ChaseSpeedFactor)

	archer, ok := GetArchetype("archer")
	require.True(t, ok)
	assert.Equal(t, model.StyleRanged, archer.Style)
}

func TestLoadArchetypesValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty table", "archetypes: []"},
		{"missing type", "archetypes:\n  - max_health: 10\n    move_speed: 1\n    attack_range: 1"},
		{"unknown style", "archetypes:\n  - type: x\n    style: psychic\n    max_health: 10\n    move_speed: 1\n    attack_range: 1"},
		{"zero health", "archetypes:\n  - type: x\n    max_health: 0\n    move_speed: 1\n    attack_range: 1"},
		{"zero speed", "archetypes:\n  - type: x\n    max_health: 10\n    move_speed: 0\n    attack_range: 1"},
		{"duplicate type", "archetypes:\n  - type: x\n    max_health: 10\n    move_speed: 1\n    attack_range: 1\n  - type: x\n    max_health: 10\n    move_speed: 1\n    attack_range: 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "archetypes.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			assert.Error(t, LoadArchetypes(path))
		})
	}
}
