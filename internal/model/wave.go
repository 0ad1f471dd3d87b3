package model

// RosterEntry describes one archetype eligible for a wave and the
// selection constraints applied to it.
type RosterEntry struct {
	Type        string
	Weight      float64 // base weighted-selection weight
	MinWave     int     // archetype excluded below this wave number
	SpawnChance float64 // independent per-slot roll, 0..1 (1 = always)
	PerWaveCap  int     // max spawns per wave, 0 = unlimited
}

// WaveDescriptor is the immutable plan for one wave: roster, counts,
// pacing and the scaling multipliers applied to every enemy spawned
// during it. Generated (template x wave-number scaling) or looked up
// from pre-authored config; never modified after generation.
type WaveDescriptor struct {
	WaveNumber       int
	EnemyCount       int
	SpawnInterval    float64 // seconds between spawn slots
	WaveDelay        float64 // seconds before the first spawn
	Roster           []RosterEntry
	HealthMultiplier float64
	SpeedMultiplier  float64
	DamageMultiplier float64
}
