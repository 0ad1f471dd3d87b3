package model

// ArchetypeConfig holds the static tunable profile for one enemy type.
// Loaded once at startup and never modified afterwards; per-instance
// copies with wave/difficulty multipliers applied are derived via
// Scaled so that no two enemies ever share mutable tunables.
type ArchetypeConfig struct {
	Type             string
	Style            AttackStyle
	MaxHealth        float64
	MoveSpeed        float64
	Acceleration     float64
	AttackRange      float64
	AttackCooldown   float64 // seconds between attacks
	AttackDamage     float64
	DetectionRange   float64
	StateChangeDelay float64 // anti-thrash debounce, seconds
	DeathDelay       float64 // corpse linger before pool return, seconds
	Scale            float64 // visual scale hint for external consumers
	ChaseSpeedFactor float64 // speed multiplier applied while chasing
	Aggressive       bool    // scans for targets unprompted
}

// Scaled returns an owned copy with health/speed/damage multipliers
// applied. The copy belongs exclusively to the enemy instance that
// receives it.
func (a ArchetypeConfig) Scaled(healthMul, speedMul, damageMul float64) ArchetypeConfig {
	scaled := a
	scaled.MaxHealth = a.MaxHealth * healthMul
	scaled.MoveSpeed = a.MoveSpeed * speedMul
	scaled.AttackDamage = a.AttackDamage * damageMul
	return scaled
}

// StoppingDistance returns how close the archetype tries to get before
// halting pursuit: melee closes almost to contact, ranged holds back to
// preserve its optimal firing distance.
func (a ArchetypeConfig) StoppingDistance() float64 {
	if a.Style == StyleRanged {
		return a.AttackRange * 0.9
	}
	return a.AttackRange * 0.5
}
