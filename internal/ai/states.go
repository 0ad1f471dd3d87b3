package ai

import (
	"log/slog"
	"math/rand/v2"

	"github.com/velmoren/duskfall/internal/event"
	"github.com/velmoren/duskfall/internal/model"
)

// behavior holds the enter/update/exit functions for one state. The
// four states are a closed set, so dispatch is a flat table indexed by
// the state enum rather than virtual dispatch over state objects.
type behavior struct {
	enter  func(m *Machine, now float64)
	update func(m *Machine, now, dt float64)
	exit   func(m *Machine, now float64)
}

var behaviors []behavior

// Assigned in init rather than a package-level composite literal: the
// handlers reference ChangeState, which reaches back into behaviors via
// handlerFor, and a direct initializer would be an initialization cycle.
func init() {
	behaviors = []behavior{
		model.StateIdle: {
			enter:  idleEnter,
			update: idleUpdate,
		},
		model.StateChase: {
			enter:  chaseEnter,
			update: chaseUpdate,
			exit:   chaseExit,
		},
		model.StateAttack: {
			enter:  attackEnter,
			update: attackUpdate,
		},
		model.StateDeath: {
			enter:  deathEnter,
			update: deathUpdate,
		},
	}
}

// handlerFor returns the behavior for a state, or nil for states
// outside the table.
func handlerFor(state model.EnemyState) *behavior {
	if state < 0 || int(state) >= len(behaviors) {
		return nil
	}
	return &behaviors[state]
}

// --- Idle ---

func idleEnter(m *Machine, now float64) {
	m.mover.Stop()
	m.nextBehaviorTick = now // scan immediately on the next update
}

func idleUpdate(m *Machine, now, dt float64) {
	if now < m.nextBehaviorTick {
		return
	}
	m.nextBehaviorTick = now + behaviorTickInterval

	archetype := m.enemy.Archetype()

	playerPos, ok := m.player()
	if ok {
		sight := archetype.DetectionRange
		if !archetype.Aggressive {
			sight *= passiveSightFactor
		}
		if m.enemy.Position().DistanceSquared(playerPos) <= sight*sight {
			m.enemy.SetTarget()
			m.ChangeState(model.StateChase, now)
			return
		}
	}

	// No target: occasional drift around the spawn anchor.
	if rand.IntN(wanderChance) == 0 {
		dx := (rand.Float64()*2 - 1) * wanderRadius
		dy := (rand.Float64()*2 - 1) * wanderRadius
		m.mover.MoveTo(m.spawnAnchor.Add(model.NewVec2(dx, dy)), now)
	}
}

// --- Chase ---

func chaseEnter(m *Machine, now float64) {
	archetype := m.enemy.Archetype()
	m.mover.SetSpeed(archetype.MoveSpeed * archetype.ChaseSpeedFactor)
}

func chaseUpdate(m *Machine, now, dt float64) {
	playerPos, ok := m.player()
	if !ok {
		// Target lost and re-search found nothing — back to Idle.
		m.enemy.ClearTarget()
		m.ChangeState(model.StateIdle, now)
		return
	}
	m.enemy.SetTarget()

	archetype := m.enemy.Archetype()
	dist := m.enemy.Position().DistanceTo(playerPos)

	if dist <= archetype.AttackRange {
		m.ChangeState(model.StateAttack, now)
		return
	}

	// No distance-based abandonment: ranged archetypes deliberately
	// never give up, and melee currently shares that policy.

	// Approach to the style-specific stopping distance, not to the
	// player's exact position. The mover throttles how often this
	// actually reaches the navigation provider.
	dir := playerPos.Sub(m.enemy.Position()).Normalized()
	dest := playerPos.Sub(dir.Scale(archetype.StoppingDistance()))
	m.mover.MoveTo(dest, now)
}

func chaseExit(m *Machine, now float64) {
	m.mover.SetSpeed(m.enemy.Archetype().MoveSpeed)
}

// --- Attack ---

func attackEnter(m *Machine, now float64) {
	m.mover.Stop()
	if m.attack == nil {
		slog.Warn("enemy entered Attack without a bound attack capability",
			"enemyID", m.enemy.ID(),
			"archetype", m.enemy.Type())
	}
}

func attackUpdate(m *Machine, now, dt float64) {
	// Missing capability: recover to Chase instead of idling in place.
	if m.attack == nil {
		m.forceState(model.StateChase, now)
		return
	}

	playerPos, ok := m.player()
	if !ok {
		m.enemy.ClearTarget()
		m.ChangeState(model.StateIdle, now)
		return
	}

	archetype := m.enemy.Archetype()
	if m.enemy.Position().DistanceTo(playerPos) > archetype.AttackRange {
		m.ChangeState(model.StateChase, now)
		return
	}

	m.enemy.FaceToward(playerPos)

	if now-m.lastAttackAt < archetype.AttackCooldown {
		return
	}
	if !m.attack.CanAttack() {
		return
	}

	if err := m.attack.PerformAttack(playerPos); err != nil {
		// A failed attack must not leave the machine stuck here.
		slog.Warn("attack capability failed, recovering to Chase",
			"enemyID", m.enemy.ID(),
			"archetype", m.enemy.Type(),
			"error", err)
		m.forceState(model.StateChase, now)
		return
	}

	m.lastAttackAt = now
}

// --- Death ---

func deathEnter(m *Machine, now float64) {
	m.mover.Stop()
	m.enemy.SetCollisionEnabled(false)
	m.enemy.ClearTarget()
	m.deathDeadline = now + m.enemy.Archetype().DeathDelay

	// Exactly once per life, even if Death is re-entered through the
	// recovery path.
	if m.enemy.MarkKillNotified() {
		m.bus.Publish(event.Event{
			Topic:     event.TopicEnemyKilled,
			EnemyID:   m.enemy.ID(),
			Archetype: m.enemy.Type(),
		})
	}
}

func deathUpdate(m *Machine, now, dt float64) {
	if now < m.deathDeadline {
		return
	}

	m.isRunning.Store(false)
	if m.release != nil {
		m.release(m.enemy)
	}
}
