// Package ai drives per-enemy behavior through a closed four-state
// machine: Idle → Chase → Attack, with Death as the terminal state.
// States are a plain enum dispatched through a behavior table; all
// timed behavior is countdown state advanced by the simulation tick.
package ai

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/velmoren/duskfall/internal/event"
	"github.com/velmoren/duskfall/internal/model"
	"github.com/velmoren/duskfall/internal/nav"
)

// PlayerProvider reports the player's current position, or false when
// no player transform is available (death screen, scene transition).
type PlayerProvider func() (model.Vec2, bool)

// AttackCapability is the attack behavior bound to an enemy instance
// at spawn time — melee lunge or ranged projectile, external to the
// core.
type AttackCapability interface {
	// CanAttack reports whether the capability is ready to fire.
	CanAttack() bool

	// PerformAttack executes one attack toward the target position.
	PerformAttack(target model.Vec2) error
}

// ReleaseFunc returns a finished instance to its pool once the death
// delay has elapsed. Injected by the director to avoid an import cycle
// with the pool.
type ReleaseFunc func(*model.Enemy)

// AlertFunc propagates an attack on one enemy to nearby packmates.
// Injected by the director, which owns the active population.
type AlertFunc func(source *model.Enemy)

const (
	// behaviorTickInterval is the target-scan cadence in Idle, seconds.
	behaviorTickInterval = 1.0
	// passiveSightFactor shrinks detection range for non-aggressive
	// archetypes: they only notice the player at close range.
	passiveSightFactor = 0.5
	// wanderChance is the 1-in-N chance per behavior tick to drift
	// around the spawn anchor while idle.
	wanderChance = 30
	// wanderRadius bounds idle drift from the spawn anchor.
	wanderRadius = 4.0
)

// Machine is the state driver for one enemy instance. Each instance's
// transitions are strictly sequential; the machine is updated by a
// single coordinating tick and is not safe for concurrent Update calls.
type Machine struct {
	enemy  *model.Enemy
	mover  *nav.Mover
	player PlayerProvider
	bus    *event.Bus

	attack  AttackCapability
	release ReleaseFunc
	alert   AlertFunc

	isRunning atomic.Bool

	spawnAnchor model.Vec2

	// Simulated-time bookkeeping. All countdowns are plain state
	// advanced per tick; there are no background timers.
	lastStateChange  float64
	nextBehaviorTick float64
	lastAttackAt     float64
	deathDeadline    float64
}

// NewMachine creates a state machine for an activated enemy instance.
// The release callback is invoked when the death delay elapses.
func NewMachine(
	enemy *model.Enemy,
	mover *nav.Mover,
	player PlayerProvider,
	bus *event.Bus,
	release ReleaseFunc,
) *Machine {
	return &Machine{
		enemy:           enemy,
		mover:           mover,
		player:          player,
		bus:             bus,
		release:         release,
		spawnAnchor:     enemy.Position(),
		lastStateChange: math.Inf(-1),
		lastAttackAt:    math.Inf(-1),
	}
}

// BindAttack binds the attack capability. A machine without one falls
// back from Attack to Chase instead of getting stuck.
func (m *Machine) BindAttack(capability AttackCapability) {
	m.attack = capability
}

// SetAlertFunc sets the pack-alert callback.
func (m *Machine) SetAlertFunc(fn AlertFunc) {
	m.alert = fn
}

// Enemy returns the driven instance.
func (m *Machine) Enemy() *model.Enemy {
	return m.enemy
}

// Mover returns the movement adapter.
func (m *Machine) Mover() *nav.Mover {
	return m.mover
}

// Start activates the machine in Idle.
func (m *Machine) Start() {
	m.isRunning.Store(true)
	m.spawnAnchor = m.enemy.Position()
	m.enemy.SetState(model.StateIdle)
	behaviors[model.StateIdle].enter(m, 0)

	if IsDebugEnabled() {
		slog.Debug("AI machine started",
			"enemyID", m.enemy.ID(),
			"archetype", m.enemy.Type(),
			"state", m.enemy.State())
	}
}

// Stop deactivates the machine.
func (m *Machine) Stop() {
	m.isRunning.Store(false)
	m.enemy.ClearTarget()
	m.mover.Stop()

	if IsDebugEnabled() {
		slog.Debug("AI machine stopped", "enemyID", m.enemy.ID())
	}
}

// Running reports whether the machine is active.
func (m *Machine) Running() bool {
	return m.isRunning.Load()
}

// ChangeState transitions to next at simulated time now. Rejected
// silently when next equals the current state, or when next is not
// Death and the anti-thrash debounce window has not elapsed. Death
// bypasses the debounce and is terminal: nothing leaves it. Returns
// whether the transition happened.
func (m *Machine) ChangeState(next model.EnemyState, now float64) bool {
	current := m.enemy.State()
	if next == current {
		return false
	}
	if current == model.StateDeath {
		return false
	}
	if next != model.StateDeath &&
		now-m.lastStateChange < m.enemy.Archetype().StateChangeDelay {
		return false
	}

	m.transition(current, next, now)
	return true
}

// forceState is the recovery path: bypasses the debounce to pull the
// machine out of an inconsistent situation (unknown state, missing
// capability). Death stays terminal even here.
func (m *Machine) forceState(next model.EnemyState, now float64) {
	current := m.enemy.State()
	if next == current || current == model.StateDeath {
		return
	}
	m.transition(current, next, now)
}

func (m *Machine) transition(current, next model.EnemyState, now float64) {
	if h := handlerFor(current); h != nil && h.exit != nil {
		h.exit(m, now)
	}

	m.enemy.SetState(next)
	m.lastStateChange = now

	if h := handlerFor(next); h != nil && h.enter != nil {
		h.enter(m, now)
	}

	if IsDebugEnabled() {
		slog.Debug("AI state changed",
			"enemyID", m.enemy.ID(),
			"archetype", m.enemy.Type(),
			"from", current,
			"to", next)
	}
}

// Update advances the machine by one simulation tick.
func (m *Machine) Update(now, dt float64) {
	if !m.isRunning.Load() {
		return
	}

	// Mover owns movement integration; mirror its position onto the
	// instance before thinking.
	if m.enemy.State() != model.StateDeath {
		m.enemy.SetPosition(m.mover.Position())
	}

	state := m.enemy.State()
	h := handlerFor(state)
	if h == nil || h.update == nil {
		// Corrupted state table: log the fault and force a safe state.
		slog.Error("unresolvable AI state, forcing recovery",
			"enemyID", m.enemy.ID(),
			"state", int32(state))
		if m.enemy.IsDead() {
			m.forceState(model.StateDeath, now)
		} else {
			m.forceState(model.StateIdle, now)
		}
		return
	}

	h.update(m, now, dt)
}

// NotifyDamage applies damage from the player at simulated time now.
// Lethal hits enter Death immediately; survivors acquire the attacker,
// switch to Chase if not already engaged, and alert nearby packmates.
func (m *Machine) NotifyDamage(damage float64, now float64) {
	if !m.isRunning.Load() || m.enemy.State() == model.StateDeath {
		return
	}

	if lethal := m.enemy.ApplyDamage(damage); lethal {
		m.ChangeState(model.StateDeath, now)
		return
	}

	m.enemy.SetTarget()
	if m.enemy.State() == model.StateIdle {
		m.ChangeState(model.StateChase, now)
	}

	if m.alert != nil {
		m.alert(m.enemy)
	}

	if IsDebugEnabled() {
		slog.Debug("AI notified of damage",
			"enemyID", m.enemy.ID(),
			"damage", damage,
			"health", m.enemy.Health())
	}
}

// NotifyAlert is the receiving side of a pack alert: an idle packmate
// acquires the target as if it had spotted the player itself.
func (m *Machine) NotifyAlert(now float64) {
	if !m.isRunning.Load() {
		return
	}
	if m.enemy.State() != model.StateIdle {
		return
	}

	m.enemy.SetTarget()
	m.ChangeState(model.StateChase, now)
}
