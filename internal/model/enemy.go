package model

import (
	"math"
	"sync"
	"sync/atomic"
)

// Enemy is the mutable runtime state of one spawned agent.
// Instances are constructed only by the pool and live as long as the
// pool does: between spawns they are reset via ResetFor, never
// destroyed. An instance is in exactly one of the pool's
// available/active sets at any time and Active() mirrors that
// membership.
type Enemy struct {
	id uint32

	mu        sync.RWMutex
	archetype ArchetypeConfig // owned scaled copy, never shared
	position  Vec2
	heading   Vec2

	state     atomic.Int32
	health    atomic.Uint64 // float64 bits
	hasTarget atomic.Bool
	active    atomic.Bool
	collision atomic.Bool
	killSent  atomic.Bool // kill notification fired exactly once per life
}

// NewEnemy creates a pooled enemy instance with the given id and
// initial archetype copy. The instance starts inactive.
func NewEnemy(id uint32, archetype ArchetypeConfig) *Enemy {
	e := &Enemy{
		id:        id,
		archetype: archetype,
	}
	e.state.Store(int32(StateIdle))
	e.storeHealth(archetype.MaxHealth)
	e.collision.Store(true)
	return e
}

// ID returns the pool-assigned instance id.
func (e *Enemy) ID() uint32 {
	return e.id
}

// Archetype returns the instance's owned scaled archetype copy.
func (e *Enemy) Archetype() ArchetypeConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.archetype
}

// Type returns the archetype type name.
func (e *Enemy) Type() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.archetype.Type
}

// State returns current AI state (atomic read).
func (e *Enemy) State() EnemyState {
	return EnemyState(e.state.Load())
}

// SetState sets current AI state (atomic write).
func (e *Enemy) SetState(s EnemyState) {
	e.state.Store(int32(s))
}

// Health returns current health.
func (e *Enemy) Health() float64 {
	return math.Float64frombits(e.health.Load())
}

// SetHealth sets current health, clamped at zero.
func (e *Enemy) SetHealth(h float64) {
	if h < 0 {
		h = 0
	}
	e.storeHealth(h)
}

// ApplyDamage reduces health and reports whether the hit was lethal.
func (e *Enemy) ApplyDamage(amount float64) bool {
	h := e.Health() - amount
	e.SetHealth(h)
	return h <= 0
}

// IsDead returns true when health is exhausted.
func (e *Enemy) IsDead() bool {
	return e.Health() <= 0
}

// HasTarget returns whether the instance currently tracks the player.
func (e *Enemy) HasTarget() bool {
	return e.hasTarget.Load()
}

// SetTarget marks the player as acquired.
func (e *Enemy) SetTarget() {
	e.hasTarget.Store(true)
}

// ClearTarget drops the current target.
func (e *Enemy) ClearTarget() {
	e.hasTarget.Store(false)
}

// Active returns whether the instance is checked out of the pool.
func (e *Enemy) Active() bool {
	return e.active.Load()
}

// SetActive flips pool membership; only the pool calls this.
func (e *Enemy) SetActive(active bool) {
	e.active.Store(active)
}

// CollisionEnabled returns whether physical interaction is enabled.
func (e *Enemy) CollisionEnabled() bool {
	return e.collision.Load()
}

// SetCollisionEnabled toggles physical interaction (disabled on death).
func (e *Enemy) SetCollisionEnabled(enabled bool) {
	e.collision.Store(enabled)
}

// MarkKillNotified records the one-shot kill notification.
// Returns true only for the first caller per life.
func (e *Enemy) MarkKillNotified() bool {
	return e.killSent.CompareAndSwap(false, true)
}

// Position returns current position.
func (e *Enemy) Position() Vec2 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// SetPosition updates current position.
func (e *Enemy) SetPosition(p Vec2) {
	e.mu.Lock()
	e.position = p
	e.mu.Unlock()
}

// Heading returns the facing direction (unit vector, may be zero).
func (e *Enemy) Heading() Vec2 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.heading
}

// FaceToward points the instance at a target position.
func (e *Enemy) FaceToward(target Vec2) {
	e.mu.Lock()
	e.heading = target.Sub(e.position).Normalized()
	e.mu.Unlock()
}

// ResetFor re-initializes the instance for a fresh activation: owned
// scaled config swapped in, health to max, state to Idle, target
// cleared, collision re-enabled, kill latch re-armed, placed at the
// spawn position.
func (e *Enemy) ResetFor(scaled ArchetypeConfig, position Vec2) {
	e.mu.Lock()
	e.archetype = scaled
	e.position = position
	e.heading = Vec2{}
	e.mu.Unlock()

	e.state.Store(int32(StateIdle))
	e.storeHealth(scaled.MaxHealth)
	e.hasTarget.Store(false)
	e.collision.Store(true)
	e.killSent.Store(false)
}

func (e *Enemy) storeHealth(h float64) {
	e.health.Store(math.Float64bits(h))
}
