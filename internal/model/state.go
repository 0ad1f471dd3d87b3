package model

// EnemyState represents the AI state an enemy instance is driving.
type EnemyState int32

const (
	// StateIdle - enemy is standing still, periodically scanning for a target
	StateIdle EnemyState = iota
	// StateChase - enemy is pursuing an acquired target
	StateChase
	// StateAttack - enemy is in attack range and executing attacks
	StateAttack
	// StateDeath - enemy is dead; terminal, waiting out the death delay
	StateDeath
)

// String returns human-readable state name.
func (s EnemyState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateChase:
		return "CHASE"
	case StateAttack:
		return "ATTACK"
	case StateDeath:
		return "DEATH"
	default:
		return "UNKNOWN"
	}
}

// AttackStyle distinguishes how an archetype engages its target.
type AttackStyle int32

const (
	// StyleMelee - closes to point-blank range before attacking
	StyleMelee AttackStyle = iota
	// StyleRanged - holds distance to preserve firing position
	StyleRanged
)

// String returns human-readable style name.
func (s AttackStyle) String() string {
	switch s {
	case StyleMelee:
		return "MELEE"
	case StyleRanged:
		return "RANGED"
	default:
		return "UNKNOWN"
	}
}
