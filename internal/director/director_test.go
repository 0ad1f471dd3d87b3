package director

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velmoren/duskfall/internal/ai"
	"github.com/velmoren/duskfall/internal/event"
	"github.com/velmoren/duskfall/internal/model"
	"github.com/velmoren/duskfall/internal/nav"
	"github.com/velmoren/duskfall/internal/pool"
)

func huskArchetype() model.ArchetypeConfig {
	return model.ArchetypeConfig{
		Type:             "husk",
		Style:            model.StyleMelee,
		MaxHealth:        100,
		MoveSpeed:        3,
		AttackRange:      2,
		AttackCooldown:   1,
		AttackDamage:     10,
		DetectionRange:   15,
		StateChangeDelay: 0.1,
		DeathDelay:       0.2,
		ChaseSpeedFactor: 1.2,
		Aggressive:       true,
	}
}

func stalkerArchetype() model.ArchetypeConfig {
	a := huskArchetype()
	a.Type = "stalker"
	a.Style = model.StyleRanged
	a.AttackRange = 8
	return a
}

func testConfig() Config {
	return Config{
		DecisionInterval:      0.5,
		ContinuousWaves:       false,
		ConcurrencyCap:        20,
		BaseEnemyCount:        3,
		EnemyCountGrowth:      1,
		SpawnInterval:         0.2,
		WaveDelay:             1.0,
		HealthGrowthPerWave:   0.1,
		SpeedGrowthPerWave:    0.05,
		DamageGrowthPerWave:   0.1,
		WaveWeightScaling:     true,
		SpawnTimeout:          30,
		MinDistanceFromPlayer: 5,
		MaxDistanceFromPlayer: 10,
		MinSeparation:         0.5,
		PlacementAttempts:     16,
		WalkableTolerance:     0.5,
		ReleaseOnStop:         true,
		Roster: []model.RosterEntry{
			{Type: "husk", Weight: 1, SpawnChance: 1},
		},
		Difficulty: Curve{Ceiling: 3, TimeConstant: 120},
	}
}

type harness struct {
	bus     *event.Bus
	pool    *pool.Pool
	plane   *nav.Plane
	tickMgr *ai.TickManager
	dir     *Director

	playerPos model.Vec2
	playerOK  bool

	started   []int
	completed []int
	spawned   []uint32
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	h := &harness{
		bus:       event.NewBus(),
		plane:     nav.NewPlane(model.NewVec2(-50, -50), model.NewVec2(50, 50)),
		tickMgr:   ai.NewTickManager(),
		playerPos: model.NewVec2(0, 0),
		playerOK:  true,
	}

	h.pool = pool.New(h.bus)
	h.pool.Initialize(huskArchetype(), 8, 30, true)
	h.pool.Initialize(stalkerArchetype(), 4, 10, true)

	archetypes := map[string]model.ArchetypeConfig{
		"husk":    huskArchetype(),
		"stalker": stalkerArchetype(),
	}

	h.bus.Subscribe(event.TopicWaveStarted, func(ev event.Event) {
		h.started = append(h.started, ev.WaveNumber)
	})
	h.bus.Subscribe(event.TopicWaveCompleted, func(ev event.Event) {
		h.completed = append(h.completed, ev.WaveNumber)
	})
	h.bus.Subscribe(event.TopicEnemySpawned, func(ev event.Event) {
		h.spawned = append(h.spawned, ev.EnemyID)
	})

	h.dir = New(cfg, h.bus, h.pool, h.plane,
		func() (model.Vec2, bool) { return h.playerPos, h.playerOK },
		func(name string) (model.ArchetypeConfig, bool) {
			a, ok := archetypes[name]
			return a, ok
		},
		h.tickMgr,
	)
	h.dir.SetObstacleFunc(func(p model.Vec2, radius float64) bool {
		return h.plane.Blocked(p, radius)
	})
	return h
}

// run advances the director and AI by fixed steps until the predicate
// holds or the time budget runs out.
func (h *harness) run(t *testing.T, from, budget, dt float64, done func() bool) float64 {
	t.Helper()
	now := from
	for elapsed := 0.0; elapsed < budget; elapsed += dt {
		h.dir.Update(now, dt)
		h.tickMgr.UpdateAll(now, dt)
		now += dt
		if done != nil && done() {
			return now
		}
	}
	if done != nil && !done() {
		t.Fatalf("condition not reached within %v simulated seconds", budget)
	}
	return now
}

func TestDirectorRunsFirstWaveWithoutDelay(t *testing.T) {
	h := newHarness(t, testConfig())

	h.run(t, 0, 10, 0.1, func() bool {
		return len(h.completed) >= 1
	})

	require.Equal(t, []int{1}, h.started)
	require.Equal(t, []int{1}, h.completed)
	assert.Len(t, h.spawned, 3, "wave 1 spawns BaseEnemyCount enemies")
	assert.Equal(t, 3, h.pool.ActiveCount())
	assert.Equal(t, PhaseIdle, h.dir.Phase())
}

func TestDirectorBlocksNextWaveUntilCleared(t *testing.T) {
	h := newHarness(t, testConfig()) // continuousWaves=false

	now := h.run(t, 0, 10, 0.1, func() bool { return len(h.completed) >= 1 })

	// Enemies still active: no second wave for a long while.
	now = h.run(t, now, 5, 0.1, nil)
	assert.Equal(t, 1, h.dir.WaveNumber(), "wave 2 must not start while enemies remain")

	// Kill everything; after death delays the population drains.
	for _, id := range h.spawned {
		h.dir.DamageEnemy(id, 1e6)
	}

	now = h.run(t, now, 10, 0.1, func() bool { return len(h.started) >= 2 })
	assert.Equal(t, 2, h.dir.WaveNumber())

	// Wave 2 grows by EnemyCountGrowth.
	h.run(t, now, 20, 0.1, func() bool { return len(h.completed) >= 2 })
	assert.Len(t, h.spawned, 3+4)
}

func TestDirectorContinuousWavesOverlap(t *testing.T) {
	cfg := testConfig()
	cfg.ContinuousWaves = true
	h := newHarness(t, cfg)

	h.run(t, 0, 30, 0.1, func() bool { return len(h.started) >= 2 })
	assert.GreaterOrEqual(t, h.pool.ActiveCount(), 3,
		"second wave started over a live population")
}

func TestDirectorRespectsConcurrencyCap(t *testing.T) {
	cfg := testConfig()
	cfg.ConcurrencyCap = 2
	cfg.SpawnTimeout = 2.0
	h := newHarness(t, cfg)

	h.run(t, 0, 10, 0.1, func() bool { return len(h.completed) >= 1 })

	assert.Equal(t, 2, h.pool.ActiveCount(), "spawning must stall at the cap")
	assert.Len(t, h.spawned, 2, "wave truncated by timeout at the cap")
}

func TestDirectorTruncatesStalledWave(t *testing.T) {
	cfg := testConfig()
	// Annulus entirely off the walkable plane: placement always fails.
	cfg.MinDistanceFromPlayer = 200
	cfg.MaxDistanceFromPlayer = 220
	cfg.SpawnTimeout = 1.5
	h := newHarness(t, cfg)

	h.run(t, 0, 10, 0.1, func() bool { return len(h.completed) >= 1 })

	assert.Empty(t, h.spawned, "no enemy can spawn off-mesh")
	assert.Equal(t, PhaseIdle, h.dir.Phase(), "lifecycle must not deadlock")
}

func TestDirectorSpawnsWithinAnnulusAndWalkable(t *testing.T) {
	h := newHarness(t, testConfig())
	h.playerPos = model.NewVec2(10, -5)

	h.run(t, 0, 10, 0.1, func() bool { return len(h.completed) >= 1 })

	h.pool.ForEachActive(func(e *model.Enemy) bool {
		dist := e.Position().DistanceTo(h.playerPos)
		assert.GreaterOrEqual(t, dist, 5.0, "inside min distance")
		assert.LessOrEqual(t, dist, 10.0+1e-9, "outside max distance")
		_, ok := h.plane.IsWalkable(e.Position(), 0.01)
		assert.True(t, ok, "spawn position must be walkable")
		return true
	})
}

func TestDirectorSpawnsInAnnulusNearFieldEdge(t *testing.T) {
	cfg := testConfig()
	cfg.MinDistanceFromPlayer = 5
	cfg.MaxDistanceFromPlayer = 6
	cfg.WalkableTolerance = 3

	// Small field, player against the east edge: sampled candidates
	// beyond the boundary get projected back in, shortening their
	// distance to the player.
	plane := nav.NewPlane(model.NewVec2(-10, -10), model.NewVec2(10, 10))
	player := model.NewVec2(9.5, 0)

	bus := event.NewBus()
	dir := New(cfg, bus, pool.New(bus), plane,
		func() (model.Vec2, bool) { return player, true },
		func(string) (model.ArchetypeConfig, bool) { return huskArchetype(), true },
		ai.NewTickManager(),
	)
	dir.SetObstacleFunc(plane.Blocked)

	for range 2000 {
		pos, ok := dir.findSpawnPosition(player)
		if !ok {
			continue
		}
		dist := pos.DistanceTo(player)
		require.GreaterOrEqual(t, dist, 5.0,
			"projected position must not fall inside the min distance")
		require.LessOrEqual(t, dist, 6.0+1e-9)
	}
}

func TestDirectorRetriesExhaustedPoolNextTick(t *testing.T) {
	cfg := testConfig()
	cfg.BaseEnemyCount = 4
	cfg.SpawnInterval = 2.0

	bus := event.NewBus()
	plane := nav.NewPlane(model.NewVec2(-50, -50), model.NewVec2(50, 50))
	enemyPool := pool.New(bus)
	enemyPool.Initialize(huskArchetype(), 2, 2, false) // exhausts after two
	tickMgr := ai.NewTickManager()

	spawned := 0
	bus.Subscribe(event.TopicEnemySpawned, func(event.Event) { spawned++ })

	dir := New(cfg, bus, enemyPool, plane,
		func() (model.Vec2, bool) { return model.NewVec2(0, 0), true },
		func(string) (model.ArchetypeConfig, bool) { return huskArchetype(), true },
		tickMgr,
	)
	dir.SetObstacleFunc(plane.Blocked)

	now := 0.0
	step := func(budget float64, done func() bool) {
		t.Helper()
		for elapsed := 0.0; elapsed < budget; elapsed += 0.05 {
			dir.Update(now, 0.05)
			tickMgr.UpdateAll(now, 0.05)
			now += 0.05
			if done != nil && done() {
				return
			}
		}
		if done != nil && !done() {
			t.Fatalf("condition not reached within %v simulated seconds", budget)
		}
	}

	step(10, func() bool { return spawned == 2 })

	// Outlast the pause from the second spawn and let the director run
	// against the exhausted pool for a while.
	step(2.5, nil)
	require.Equal(t, 2, spawned)

	// Free one instance. The open slot must be picked up on the next
	// tick, not a full spawn interval later.
	var victim *model.Enemy
	enemyPool.ForEachActive(func(e *model.Enemy) bool { victim = e; return false })
	require.NotNil(t, victim)
	tickMgr.Unregister(victim.ID())
	enemyPool.Release(victim)

	step(0.5, func() bool { return spawned == 3 })
}

func TestDirectorPackAlertReachesNearbyPackmates(t *testing.T) {
	cfg := testConfig()

	// Passive archetype with minimal sight: packmates stay idle until
	// the alert arrives, not because they spotted the player.
	passive := huskArchetype()
	passive.Aggressive = false
	passive.DetectionRange = 2

	bus := event.NewBus()
	plane := nav.NewPlane(model.NewVec2(-50, -50), model.NewVec2(50, 50))
	enemyPool := pool.New(bus)
	enemyPool.Initialize(passive, 4, 8, false)
	tickMgr := ai.NewTickManager()

	var spawned []uint32
	bus.Subscribe(event.TopicEnemySpawned, func(ev event.Event) {
		spawned = append(spawned, ev.EnemyID)
	})

	dir := New(cfg, bus, enemyPool, plane,
		func() (model.Vec2, bool) { return model.NewVec2(0, 0), true },
		func(string) (model.ArchetypeConfig, bool) { return passive, true },
		tickMgr,
	)
	dir.SetObstacleFunc(plane.Blocked)

	now := 0.0
	for elapsed := 0.0; elapsed < 10 && len(spawned) < 3; elapsed += 0.05 {
		dir.Update(now, 0.05)
		tickMgr.UpdateAll(now, 0.05)
		now += 0.05
	}
	require.GreaterOrEqual(t, len(spawned), 3)

	stage := func(id uint32, pos model.Vec2) *ai.Machine {
		machine, err := tickMgr.GetMachine(id)
		require.NoError(t, err)
		machine.Mover().Place(pos)
		machine.Enemy().SetPosition(pos)
		return machine
	}
	source := stage(spawned[0], model.NewVec2(20, 20))
	packmate := stage(spawned[1], model.NewVec2(23, 20))  // inside the alert radius
	outlier := stage(spawned[2], model.NewVec2(-35, -35)) // far beyond it

	dir.DamageEnemy(spawned[0], 10)

	assert.Equal(t, model.StateChase, source.Enemy().State(), "damaged enemy retaliates")
	assert.Equal(t, model.StateChase, packmate.Enemy().State(), "nearby packmate alerted")
	assert.Equal(t, model.StateIdle, outlier.Enemy().State(), "alert must not carry beyond its radius")
}

func TestDirectorAppliesCompoundScaling(t *testing.T) {
	cfg := testConfig()
	cfg.Difficulty = Curve{Ceiling: 2, TimeConstant: 0.0001} // saturates instantly
	h := newHarness(t, cfg)

	h.run(t, 0, 10, 0.1, func() bool { return len(h.completed) >= 1 })

	h.pool.ForEachActive(func(e *model.Enemy) bool {
		// Wave 1: wave multiplier 1.0, difficulty ~2.0.
		assert.InDelta(t, 200, e.Archetype().MaxHealth, 1.0,
			"difficulty multiplier applied to spawned health")
		return true
	})
}

func TestDirectorSkipsUnknownArchetype(t *testing.T) {
	cfg := testConfig()
	cfg.Roster = []model.RosterEntry{{Type: "ghost", Weight: 1, SpawnChance: 1}}
	h := newHarness(t, cfg)

	h.run(t, 0, 10, 0.1, func() bool { return len(h.completed) >= 1 })

	assert.Empty(t, h.spawned, "unknown archetype slots are skipped")
	assert.Equal(t, PhaseIdle, h.dir.Phase())
}

func TestDirectorStopIsIdempotentAndReleases(t *testing.T) {
	h := newHarness(t, testConfig())

	h.run(t, 0, 10, 0.1, func() bool { return len(h.completed) >= 1 })
	require.Equal(t, 3, h.pool.ActiveCount())

	h.dir.Stop()
	assert.Equal(t, 0, h.pool.ActiveCount(), "ReleaseOnStop drains the population")
	assert.Equal(t, 0, h.tickMgr.Count(), "machines unregistered on stop")
	assert.Equal(t, 0, h.plane.AgentCount(), "nav agents released on stop")

	h.dir.Stop() // second call is a no-op
	assert.True(t, h.dir.Stopped())

	// A stopped director ignores further updates.
	h.dir.Update(100, 0.1)
	assert.Equal(t, PhaseIdle, h.dir.Phase())
}

func TestWeightedSelectionConvergence(t *testing.T) {
	cfg := testConfig()
	cfg.WaveWeightScaling = false
	cfg.Roster = []model.RosterEntry{
		{Type: "husk", Weight: 1, SpawnChance: 1},
		{Type: "stalker", Weight: 3, SpawnChance: 1},
	}
	h := newHarness(t, cfg)

	wave := model.WaveDescriptor{WaveNumber: 1, Roster: cfg.Roster}

	const trials = 20000
	counts := map[string]int{}
	for range trials {
		name, ok := h.dir.selectArchetype(wave)
		require.True(t, ok)
		counts[name]++
	}

	assert.InDelta(t, 0.25, float64(counts["husk"])/trials, 0.02)
	assert.InDelta(t, 0.75, float64(counts["stalker"])/trials, 0.02)
}

func TestSelectionFiltersMinWaveAndCap(t *testing.T) {
	cfg := testConfig()
	cfg.Roster = []model.RosterEntry{
		{Type: "husk", Weight: 1, SpawnChance: 1},
		{Type: "stalker", Weight: 100, SpawnChance: 1, MinWave: 5, PerWaveCap: 2},
	}
	h := newHarness(t, cfg)

	// Below MinWave: only husk is eligible.
	early := model.WaveDescriptor{WaveNumber: 2, Roster: cfg.Roster}
	for range 200 {
		name, ok := h.dir.selectArchetype(early)
		require.True(t, ok)
		require.Equal(t, "husk", name)
	}

	// At MinWave with the cap already reached: stalker filtered again.
	late := model.WaveDescriptor{WaveNumber: 5, Roster: cfg.Roster}
	h.dir.spawnedPerType["stalker"] = 2
	for range 200 {
		name, ok := h.dir.selectArchetype(late)
		require.True(t, ok)
		require.Equal(t, "husk", name)
	}
}

func TestSelectionZeroSpawnChanceNeverPicked(t *testing.T) {
	cfg := testConfig()
	cfg.Roster = []model.RosterEntry{
		{Type: "husk", Weight: 1, SpawnChance: 0},
	}
	h := newHarness(t, cfg)

	wave := model.WaveDescriptor{WaveNumber: 1, Roster: cfg.Roster}
	_, ok := h.dir.selectArchetype(wave)
	assert.False(t, ok, "all candidates filtered must report absent")
}

func TestWaveWeightFactor(t *testing.T) {
	assert.Equal(t, 1.0, waveWeightFactor(10, false), "disabled scaling")
	assert.InDelta(t, 1.05, waveWeightFactor(1, true), 1e-9)
	assert.InDelta(t, 1.5, waveWeightFactor(10, true), 1e-9)
	assert.Equal(t, 2.0, waveWeightFactor(20, true))
	assert.Equal(t, 2.0, waveWeightFactor(50, true), "capped past wave 20")
}

func TestResolveDescriptorPrefersAuthoredWaves(t *testing.T) {
	cfg := testConfig()
	cfg.AuthoredWaves = map[int]model.WaveDescriptor{
		3: {EnemyCount: 1, SpawnInterval: 2, WaveDelay: 5},
	}
	h := newHarness(t, cfg)

	authored := h.dir.resolveDescriptor(3)
	assert.Equal(t, 3, authored.WaveNumber)
	assert.Equal(t, 1, authored.EnemyCount)
	assert.Equal(t, 1.0, authored.HealthMultiplier, "zero multipliers default to 1")
	assert.Equal(t, cfg.Roster, authored.Roster, "empty roster falls back to config")

	generated := h.dir.resolveDescriptor(4)
	assert.Equal(t, 3+3, generated.EnemyCount)
	assert.InDelta(t, 1.3, generated.HealthMultiplier, 1e-9)
}

func TestPlacementRejectsObstructedAndCrowded(t *testing.T) {
	h := newHarness(t, testConfig())

	// Obstacle query that blocks everything: no position is valid.
	h.dir.SetObstacleFunc(func(model.Vec2, float64) bool { return true })
	_, ok := h.dir.findSpawnPosition(model.NewVec2(0, 0))
	assert.False(t, ok)

	// Restore and verify the annulus property directly.
	h.dir.SetObstacleFunc(func(p model.Vec2, r float64) bool {
		return h.plane.Blocked(p, r)
	})
	for range 100 {
		pos, ok := h.dir.findSpawnPosition(model.NewVec2(0, 0))
		require.True(t, ok)
		dist := pos.DistanceTo(model.NewVec2(0, 0))
		require.GreaterOrEqual(t, dist, 5.0)
		require.LessOrEqual(t, dist, 10.0+1e-9)
	}
}
