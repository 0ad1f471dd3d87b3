package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/velmoren/duskfall/internal/ai"
	"github.com/velmoren/duskfall/internal/config"
	"github.com/velmoren/duskfall/internal/data"
	"github.com/velmoren/duskfall/internal/director"
	"github.com/velmoren/duskfall/internal/event"
	"github.com/velmoren/duskfall/internal/model"
	"github.com/velmoren/duskfall/internal/nav"
	"github.com/velmoren/duskfall/internal/pool"
	"github.com/velmoren/duskfall/internal/sim"
)

const SimConfigPath = "config/simulation.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := SimConfigPath
	if p := os.Getenv("DUSKFALL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSimulation(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("duskfall simulation starting",
		"log_level", cfg.LogLevel,
		"tick_step", cfg.TickStep)

	if err := data.LoadArchetypes(cfg.ArchetypesPath); err != nil {
		return fmt.Errorf("loading archetypes: %w", err)
	}

	bus := event.NewBus()

	// Navigation field
	plane := nav.NewPlane(
		model.Vec2{X: cfg.Field.MinX, Y: cfg.Field.MinY},
		model.Vec2{X: cfg.Field.MaxX, Y: cfg.Field.MaxY},
	)
	for _, ob := range cfg.Field.Obstacles {
		plane.AddObstacle(model.Vec2{X: ob.X, Y: ob.Y}, ob.Radius)
	}
	slog.Info("field initialized",
		"min", model.Vec2{X: cfg.Field.MinX, Y: cfg.Field.MinY},
		"max", model.Vec2{X: cfg.Field.MaxX, Y: cfg.Field.MaxY},
		"obstacles", len(cfg.Field.Obstacles))

	// Enemy pools
	enemyPool := pool.New(bus)
	for _, entry := range cfg.Pools {
		archetype, ok := data.GetArchetype(entry.Archetype)
		if !ok {
			return fmt.Errorf("pool config references unknown archetype %q", entry.Archetype)
		}
		enemyPool.Initialize(archetype, entry.InitialSize, entry.MaxSize, entry.AllowGrowth)
	}

	tickMgr := ai.NewTickManager()

	// Scripted player circling the field center
	player := newScriptedPlayer(cfg.Player)

	dir := director.New(
		buildDirectorConfig(cfg),
		bus,
		enemyPool,
		plane,
		player.Provider(),
		data.GetArchetype,
		tickMgr,
	)
	dir.SetObstacleFunc(plane.Blocked)
	dir.SetAttackFactory(func(enemy *model.Enemy) ai.AttackCapability {
		return newEnemyStrike(enemy, player, plane)
	})
	player.BindDirector(dir, enemyPool)
	defer dir.Stop()

	// Simulation loop: field physics, player script, enemy AI, director.
	loop := sim.NewLoop(cfg.TickStep)
	loop.Add(sim.UpdateFunc(plane.Advance))
	loop.Add(player)
	loop.Add(tickMgr)
	loop.Add(dir)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting simulation loop")
		if err := loop.Run(gctx); err != nil {
			return fmt.Errorf("simulation loop: %w", err)
		}
		return nil
	})

	if cfg.StatsInterval > 0 {
		g.Go(func() error {
			interval := time.Duration(cfg.StatsInterval * float64(time.Second))
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					slog.Info("stats",
						"simTime", fmt.Sprintf("%.1fs", loop.Now()),
						"wave", dir.WaveNumber(),
						"phase", dir.Phase(),
						"active", dir.ActiveCount(),
						"spawned", dir.TotalSpawned(),
						"killed", dir.TotalKilled(),
						"difficulty", fmt.Sprintf("%.2f", dir.Difficulty().Multiplier()),
						"playerDamage", fmt.Sprintf("%.0f", player.DamageTaken()))
				}
			}
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("simulation error: %w", err)
	}

	slog.Info("simulation finished",
		"ticks", loop.Ticks(),
		"waves", dir.WaveNumber(),
		"spawned", dir.TotalSpawned(),
		"killed", dir.TotalKilled())
	return nil
}

// buildDirectorConfig maps the YAML config onto director tunables.
func buildDirectorConfig(cfg config.Simulation) director.Config {
	return director.Config{
		DecisionInterval:      cfg.Waves.DecisionInterval,
		ContinuousWaves:       cfg.Waves.Continuous,
		ConcurrencyCap:        cfg.Waves.ConcurrencyCap,
		BaseEnemyCount:        cfg.Waves.BaseEnemyCount,
		EnemyCountGrowth:      cfg.Waves.EnemyCountGrowth,
		SpawnInterval:         cfg.Waves.SpawnInterval,
		WaveDelay:             cfg.Waves.WaveDelay,
		HealthGrowthPerWave:   cfg.Waves.HealthGrowthPerWave,
		SpeedGrowthPerWave:    cfg.Waves.SpeedGrowthPerWave,
		DamageGrowthPerWave:   cfg.Waves.DamageGrowthPerWave,
		WaveWeightScaling:     cfg.Waves.WeightScaling,
		SpawnTimeout:          cfg.Waves.SpawnTimeout,
		MinDistanceFromPlayer: cfg.Placement.MinDistanceFromPlayer,
		MaxDistanceFromPlayer: cfg.Placement.MaxDistanceFromPlayer,
		MinSeparation:         cfg.Placement.MinSeparation,
		PlacementAttempts:     cfg.Placement.Attempts,
		WalkableTolerance:     cfg.Placement.WalkableTolerance,
		ReleaseOnStop:         cfg.Waves.ReleaseOnStop,
		Roster:                buildRoster(cfg.Waves.Roster),
		AuthoredWaves:         buildAuthoredWaves(cfg.Waves.Authored),
		Difficulty: director.Curve{
			Ceiling:      cfg.Difficulty.Ceiling,
			TimeConstant: cfg.Difficulty.TimeConstant,
		},
	}
}

func buildRoster(entries []config.RosterConfig) []model.RosterEntry {
	roster := make([]model.RosterEntry, 0, len(entries))
	for _, e := range entries {
		roster = append(roster, model.RosterEntry{
			Type:        e.Type,
			Weight:      e.Weight,
			MinWave:     e.MinWave,
			SpawnChance: e.SpawnChance,
			PerWaveCap:  e.PerWaveCap,
		})
	}
	return roster
}

func buildAuthoredWaves(waves []config.AuthoredWave) map[int]model.WaveDescriptor {
	if len(waves) == 0 {
		return nil
	}
	authored := make(map[int]model.WaveDescriptor, len(waves))
	for _, w := range waves {
		authored[w.Wave] = model.WaveDescriptor{
			WaveNumber:       w.Wave,
			EnemyCount:       w.EnemyCount,
			SpawnInterval:    w.SpawnInterval,
			WaveDelay:        w.WaveDelay,
			HealthMultiplier: w.HealthMultiplier,
			SpeedMultiplier:  w.SpeedMultiplier,
			DamageMultiplier: w.DamageMultiplier,
			Roster:           buildRoster(w.Roster),
		}
	}
	return authored
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
