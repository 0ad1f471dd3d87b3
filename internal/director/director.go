// Package director decides when waves start, what they contain, and
// where their enemies appear. It owns the wave lifecycle state machine
// (Idle → WaveStarting → Spawning → WaveComplete → loop), tracks the
// active population through the pool, and escalates difficulty over
// elapsed play time. All waits are countdowns advanced by the
// simulation tick; the director never blocks.
package director

import (
	"log/slog"
	"sync/atomic"

	"github.com/velmoren/duskfall/internal/ai"
	"github.com/velmoren/duskfall/internal/event"
	"github.com/velmoren/duskfall/internal/model"
	"github.com/velmoren/duskfall/internal/nav"
	"github.com/velmoren/duskfall/internal/pool"
)

// Phase is the wave lifecycle state.
type Phase int32

const (
	// PhaseIdle - waiting for the periodic decision tick to allow a wave
	PhaseIdle Phase = iota
	// PhaseWaveStarting - wave announced, counting down the wave delay
	PhaseWaveStarting
	// PhaseSpawning - spawn loop running
	PhaseSpawning
	// PhaseWaveComplete - wave finished spawning, looping back to Idle
	PhaseWaveComplete
)

// String returns human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseWaveStarting:
		return "WAVE_STARTING"
	case PhaseSpawning:
		return "SPAWNING"
	case PhaseWaveComplete:
		return "WAVE_COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// packAlertRadius is how far a damaged enemy's call for help carries.
const packAlertRadius = 8.0

// Config holds all director tunables, populated from the simulation
// config file.
type Config struct {
	// Decision cadence and gating
	DecisionInterval float64 // seconds between wave-start checks (~0.5)
	ContinuousWaves  bool    // allow overlapping waves
	ConcurrencyCap   int     // hard cap on active population

	// Wave generation template
	BaseEnemyCount      int
	EnemyCountGrowth    float64 // extra enemies per wave
	SpawnInterval       float64 // seconds between spawn slots
	WaveDelay           float64 // seconds before first spawn (skipped wave 1)
	HealthGrowthPerWave float64
	SpeedGrowthPerWave  float64
	DamageGrowthPerWave float64
	WaveWeightScaling   bool
	SpawnTimeout        float64 // truncate a stalled wave after this long

	// Placement
	MinDistanceFromPlayer float64
	MaxDistanceFromPlayer float64
	MinSeparation         float64
	PlacementAttempts     int
	WalkableTolerance     float64

	// Shutdown behavior
	ReleaseOnStop bool

	// Roster and pre-authored waves
	Roster        []model.RosterEntry
	AuthoredWaves map[int]model.WaveDescriptor

	// Difficulty response curve
	Difficulty Curve
}

// ArchetypeLookup resolves a base archetype config by type name.
// Injected so the director stays decoupled from the data registry.
type ArchetypeLookup func(archetypeType string) (model.ArchetypeConfig, bool)

// AttackFactory builds the attack capability bound to a freshly
// spawned enemy (melee lunge, ranged projectile — external to the
// core).
type AttackFactory func(enemy *model.Enemy) ai.AttackCapability

// Director runs the wave lifecycle.
type Director struct {
	cfg        Config
	bus        *event.Bus
	pool       *pool.Pool
	nav        nav.Provider
	player     ai.PlayerProvider
	archetypes ArchetypeLookup
	tickMgr    *ai.TickManager

	obstacle      ObstacleFunc
	attackFactory AttackFactory

	difficulty *Difficulty

	phase      Phase
	waveNumber int
	wave       model.WaveDescriptor

	// Countdowns, all in simulated seconds.
	decisionCountdown  float64
	waveDelayRemaining float64
	interSpawnWait     float64
	spawnDeadline      float64

	spawnedThisWave int
	spawnedPerType  map[string]int

	now     float64 // last simulated time seen by Update
	stopped atomic.Bool

	killSubID int

	// Lifetime counters for the stats log.
	totalSpawned atomic.Int64
	totalKilled  atomic.Int64
}

// New creates a director. Call SetObstacleFunc/SetAttackFactory before
// the first Update if the host provides them.
func New(
	cfg Config,
	bus *event.Bus,
	enemyPool *pool.Pool,
	navProvider nav.Provider,
	player ai.PlayerProvider,
	archetypes ArchetypeLookup,
	tickMgr *ai.TickManager,
) *Director {
	d := &Director{
		cfg:               cfg,
		bus:               bus,
		pool:              enemyPool,
		nav:               navProvider,
		player:            player,
		archetypes:        archetypes,
		tickMgr:           tickMgr,
		difficulty:        NewDifficulty(cfg.Difficulty),
		phase:             PhaseIdle,
		decisionCountdown: cfg.DecisionInterval,
		spawnedPerType:    make(map[string]int),
	}

	// Kill tracking: the director consumes the same notification the
	// external score/audio collaborators do.
	d.killSubID = bus.Subscribe(event.TopicEnemyKilled, func(event.Event) {
		d.totalKilled.Add(1)
	})

	return d
}

// SetObstacleFunc sets the scene obstacle query used by placement.
func (d *Director) SetObstacleFunc(fn ObstacleFunc) {
	d.obstacle = fn
}

// SetAttackFactory sets the per-spawn attack capability builder.
func (d *Director) SetAttackFactory(fn AttackFactory) {
	d.attackFactory = fn
}

// Update advances the director by one simulation tick.
func (d *Director) Update(now, dt float64) {
	if d.stopped.Load() {
		return
	}

	d.now = now
	d.difficulty.Advance(dt)

	switch d.phase {
	case PhaseIdle:
		d.decisionCountdown -= dt
		if d.decisionCountdown <= 0 {
			d.decisionCountdown = d.cfg.DecisionInterval
			d.maybeStartWave()
		}

	case PhaseWaveStarting:
		d.waveDelayRemaining -= dt
		if d.waveDelayRemaining <= 0 {
			d.phase = PhaseSpawning
			d.spawnDeadline = now + d.cfg.SpawnTimeout
			d.interSpawnWait = 0
		}

	case PhaseSpawning:
		d.updateSpawning(now, dt)

	case PhaseWaveComplete:
		d.bus.Publish(event.Event{
			Topic:      event.TopicWaveCompleted,
			WaveNumber: d.waveNumber,
		})
		slog.Info("wave completed",
			"wave", d.waveNumber,
			"spawned", d.spawnedThisWave,
			"active", d.pool.ActiveCount())
		d.phase = PhaseIdle
		d.decisionCountdown = d.cfg.DecisionInterval
	}
}

// maybeStartWave applies the wave gating rules and, when allowed,
// announces the next wave.
func (d *Director) maybeStartWave() {
	active := d.pool.ActiveCount()

	// Non-continuous mode: wait for the prior wave to be cleared.
	if !d.cfg.ContinuousWaves && active > 0 {
		return
	}

	// Never start a wave into a saturated population.
	if d.cfg.ConcurrencyCap > 0 && active >= d.cfg.ConcurrencyCap {
		return
	}

	d.waveNumber++
	d.wave = d.resolveDescriptor(d.waveNumber)
	d.spawnedThisWave = 0
	clear(d.spawnedPerType)

	d.bus.Publish(event.Event{
		Topic:      event.TopicWaveStarted,
		WaveNumber: d.waveNumber,
	})

	// Wave 1 starts immediately; later waves grant a breather.
	d.waveDelayRemaining = d.wave.WaveDelay
	if d.waveNumber == 1 {
		d.waveDelayRemaining = 0
	}
	d.phase = PhaseWaveStarting

	slog.Info("wave started",
		"wave", d.waveNumber,
		"enemyCount", d.wave.EnemyCount,
		"healthMul", d.wave.HealthMultiplier,
		"difficulty", d.difficulty.Multiplier())
}

// updateSpawning runs one tick of the spawn loop. Transient failures
// (pool exhausted, no valid position, population at cap) leave the
// slot to be retried; the global timeout truncates a stalled wave
// rather than dead-locking the lifecycle.
func (d *Director) updateSpawning(now, dt float64) {
	if d.spawnedThisWave >= d.wave.EnemyCount {
		d.phase = PhaseWaveComplete
		return
	}

	if now >= d.spawnDeadline {
		slog.Warn("wave spawn timed out, truncating",
			"wave", d.waveNumber,
			"spawned", d.spawnedThisWave,
			"planned", d.wave.EnemyCount,
			"shortfall", d.wave.EnemyCount-d.spawnedThisWave)
		d.phase = PhaseWaveComplete
		return
	}

	d.interSpawnWait -= dt
	if d.interSpawnWait > 0 {
		return
	}

	// At the cap: wait and recheck instead of aborting the wave.
	if d.cfg.ConcurrencyCap > 0 && d.pool.ActiveCount() >= d.cfg.ConcurrencyCap {
		return
	}

	playerPos, ok := d.player()
	if !ok {
		return
	}

	archetypeType, ok := d.selectArchetype(d.wave)
	if !ok {
		return
	}

	position, ok := d.findSpawnPosition(playerPos)
	if !ok {
		if ai.IsDebugEnabled() {
			slog.Debug("no valid spawn position this tick",
				"wave", d.waveNumber,
				"attempts", d.cfg.PlacementAttempts)
		}
		return
	}

	base, ok := d.archetypes(archetypeType)
	if !ok {
		// Configuration error: skip the slot entirely, never crash the
		// director over one bad roster entry.
		slog.Error("roster references unknown archetype, skipping slot",
			"archetype", archetypeType,
			"wave", d.waveNumber)
		d.spawnedThisWave++
		return
	}

	// The inter-spawn pause applies between successful spawns only; a
	// failed acquire leaves the slot to be retried on the next tick.
	if d.spawnOne(base, position) {
		d.interSpawnWait = d.wave.SpawnInterval
	}
}

// spawnOne acquires, scales, and activates a single enemy. Reports
// whether an instance was actually spawned.
func (d *Director) spawnOne(base model.ArchetypeConfig, position model.Vec2) bool {
	// Wave multipliers and the global difficulty multiplier compound.
	diff := d.difficulty.Multiplier()
	scaled := base.Scaled(
		d.wave.HealthMultiplier*diff,
		d.wave.SpeedMultiplier*diff,
		d.wave.DamageMultiplier*diff,
	)

	enemy, ok := d.pool.Acquire(base.Type, position, scaled)
	if !ok {
		// Transient exhaustion; the slot stays open for a later tick.
		return false
	}

	agent := d.nav.NewAgent(position, scaled.MoveSpeed)
	mover := nav.NewMover(agent)

	machine := ai.NewMachine(enemy, mover, d.player, d.bus, d.releaseInstance)
	if d.attackFactory != nil {
		machine.BindAttack(d.attackFactory(enemy))
	}
	machine.SetAlertFunc(d.alertPack)

	d.tickMgr.Register(enemy.ID(), machine)

	d.spawnedThisWave++
	d.spawnedPerType[base.Type]++
	d.totalSpawned.Add(1)

	if ai.IsDebugEnabled() {
		slog.Debug("enemy spawned",
			"enemyID", enemy.ID(),
			"archetype", base.Type,
			"wave", d.waveNumber,
			"position", position,
			"health", scaled.MaxHealth)
	}
	return true
}

// releaseInstance tears one enemy down: machine unregistered, nav
// agent released, instance returned to the pool. Used by the death
// path and by Stop.
func (d *Director) releaseInstance(enemy *model.Enemy) {
	if machine, err := d.tickMgr.GetMachine(enemy.ID()); err == nil {
		d.tickMgr.Unregister(enemy.ID())
		d.nav.ReleaseAgent(machine.Mover().Agent())
	}
	d.pool.Release(enemy)
}

// alertPack relays a damaged enemy's position to idle packmates of the
// same archetype within the alert radius.
func (d *Director) alertPack(source *model.Enemy) {
	radiusSq := packAlertRadius * packAlertRadius
	sourcePos := source.Position()
	sourceType := source.Type()

	d.tickMgr.ForEach(func(machine *ai.Machine) bool {
		other := machine.Enemy()
		if other.ID() == source.ID() || other.Type() != sourceType {
			return true
		}
		if other.Position().DistanceSquared(sourcePos) > radiusSq {
			return true
		}
		machine.NotifyAlert(d.now)
		return true
	})
}

// DamageEnemy routes player damage to the enemy's state machine.
// Unknown ids are ignored (the enemy may have been reclaimed on the
// same tick).
func (d *Director) DamageEnemy(enemyID uint32, damage float64) {
	machine, err := d.tickMgr.GetMachine(enemyID)
	if err != nil {
		return
	}
	machine.NotifyDamage(damage, d.now)
}

// Stop halts wave progression immediately. Idempotent. When
// ReleaseOnStop is configured, every active instance is force-returned
// to the pool.
func (d *Director) Stop() {
	if !d.stopped.CompareAndSwap(false, true) {
		return
	}

	d.bus.Unsubscribe(event.TopicEnemyKilled, d.killSubID)

	if d.cfg.ReleaseOnStop {
		var active []*model.Enemy
		d.pool.ForEachActive(func(e *model.Enemy) bool {
			active = append(active, e)
			return true
		})
		for _, e := range active {
			d.releaseInstance(e)
		}
	}

	slog.Info("director stopped",
		"wave", d.waveNumber,
		"totalSpawned", d.totalSpawned.Load(),
		"totalKilled", d.totalKilled.Load())
}

// Stopped reports whether Stop has been called.
func (d *Director) Stopped() bool {
	return d.stopped.Load()
}

// Phase returns the current lifecycle phase.
func (d *Director) Phase() Phase {
	return d.phase
}

// WaveNumber returns the current wave number (0 before the first).
func (d *Director) WaveNumber() int {
	return d.waveNumber
}

// ActiveCount returns the live enemy population.
func (d *Director) ActiveCount() int {
	return d.pool.ActiveCount()
}

// TotalSpawned returns the lifetime spawn count.
func (d *Director) TotalSpawned() int64 {
	return d.totalSpawned.Load()
}

// TotalKilled returns the lifetime kill count.
func (d *Director) TotalKilled() int64 {
	return d.totalKilled.Load()
}

// Difficulty returns the difficulty tracker.
func (d *Director) Difficulty() *Difficulty {
	return d.difficulty
}
