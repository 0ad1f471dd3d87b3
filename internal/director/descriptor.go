package director

import (
	"log/slog"
	"math/rand/v2"

	"github.com/velmoren/duskfall/internal/ai"
	"github.com/velmoren/duskfall/internal/model"
)

// Wave-scaling constants for weighted roster selection: heavier
// archetypes ramp in linearly until their weight doubles at wave 20.
const (
	weightScalingMaxWave = 20
	weightScalingMax     = 2.0
)

// resolveDescriptor returns the plan for a wave: a pre-authored entry
// when one exists for the wave number, otherwise one generated from
// the template scaled by wave number. The descriptor is immutable for
// the duration of the wave.
func (d *Director) resolveDescriptor(waveNumber int) model.WaveDescriptor {
	if authored, ok := d.cfg.AuthoredWaves[waveNumber]; ok {
		authored.WaveNumber = waveNumber
		if len(authored.Roster) == 0 {
			authored.Roster = d.cfg.Roster
		}
		if authored.HealthMultiplier == 0 {
			authored.HealthMultiplier = 1
		}
		if authored.SpeedMultiplier == 0 {
			authored.SpeedMultiplier = 1
		}
		if authored.DamageMultiplier == 0 {
			authored.DamageMultiplier = 1
		}
		return authored
	}

	n := float64(waveNumber - 1)
	return model.WaveDescriptor{
		WaveNumber:       waveNumber,
		EnemyCount:       d.cfg.BaseEnemyCount + int(n*d.cfg.EnemyCountGrowth),
		SpawnInterval:    d.cfg.SpawnInterval,
		WaveDelay:        d.cfg.WaveDelay,
		Roster:           d.cfg.Roster,
		HealthMultiplier: 1 + n*d.cfg.HealthGrowthPerWave,
		SpeedMultiplier:  1 + n*d.cfg.SpeedGrowthPerWave,
		DamageMultiplier: 1 + n*d.cfg.DamageGrowthPerWave,
	}
}

// waveWeightFactor returns the wave-number weight multiplier, linearly
// increasing to 2x by wave 20 when scaling is enabled.
func waveWeightFactor(waveNumber int, enabled bool) float64 {
	if !enabled {
		return 1
	}
	if waveNumber >= weightScalingMaxWave {
		return weightScalingMax
	}
	return 1 + (weightScalingMax-1)*float64(waveNumber)/float64(weightScalingMaxWave)
}

// selectArchetype picks one archetype for the next spawn slot via
// weighted random selection. Candidates are dropped when the wave is
// below their minimum, their independent spawn-chance roll fails, or
// they already hit their per-wave cap. Returns false when every
// candidate was filtered out — the slot is retried on a later tick.
func (d *Director) selectArchetype(wave model.WaveDescriptor) (string, bool) {
	type candidate struct {
		entry  model.RosterEntry
		weight float64
	}

	factor := waveWeightFactor(wave.WaveNumber, d.cfg.WaveWeightScaling)

	var candidates []candidate
	total := 0.0
	for _, entry := range wave.Roster {
		if wave.WaveNumber < entry.MinWave {
			continue
		}
		if entry.PerWaveCap > 0 && d.spawnedPerType[entry.Type] >= entry.PerWaveCap {
			continue
		}
		if entry.SpawnChance < 1 && rand.Float64() >= entry.SpawnChance {
			continue
		}

		w := entry.Weight * factor
		if w <= 0 {
			continue
		}
		candidates = append(candidates, candidate{entry: entry, weight: w})
		total += w
	}

	if len(candidates) == 0 {
		if ai.IsDebugEnabled() {
			slog.Debug("no spawnable archetype this roll",
				"wave", wave.WaveNumber,
				"rosterSize", len(wave.Roster))
		}
		return "", false
	}

	roll := rand.Float64() * total
	for _, c := range candidates {
		roll -= c.weight
		if roll < 0 {
			return c.entry.Type, true
		}
	}

	// Floating-point tail: fall back to the last candidate.
	return candidates[len(candidates)-1].entry.Type, true
}
