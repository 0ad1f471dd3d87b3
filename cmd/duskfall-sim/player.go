package main

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/velmoren/duskfall/internal/ai"
	"github.com/velmoren/duskfall/internal/config"
	"github.com/velmoren/duskfall/internal/director"
	"github.com/velmoren/duskfall/internal/model"
	"github.com/velmoren/duskfall/internal/nav"
	"github.com/velmoren/duskfall/internal/pool"
)

// scriptedPlayer stands in for real player input: it orbits a center
// point at constant angular speed and periodically strikes the nearest
// enemy in range. Updated once per simulation tick.
type scriptedPlayer struct {
	cfg config.PlayerConfig

	mu          sync.Mutex
	angle       float64
	position    model.Vec2
	damageTaken float64
	attackWait  float64

	dir       *director.Director
	enemyPool *pool.Pool
}

func newScriptedPlayer(cfg config.PlayerConfig) *scriptedPlayer {
	return &scriptedPlayer{
		cfg: cfg,
		position: model.Vec2{
			X: cfg.CenterX + cfg.OrbitRadius,
			Y: cfg.CenterY,
		},
	}
}

// BindDirector wires the attack targets in once the director exists.
func (p *scriptedPlayer) BindDirector(dir *director.Director, enemyPool *pool.Pool) {
	p.dir = dir
	p.enemyPool = enemyPool
}

// Provider returns the position callback handed to the AI layer.
func (p *scriptedPlayer) Provider() ai.PlayerProvider {
	return func() (model.Vec2, bool) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.position, true
	}
}

// Update advances the orbit and fires the scripted attack.
func (p *scriptedPlayer) Update(now, dt float64) {
	p.mu.Lock()
	p.angle += p.cfg.AngularSpeed * dt
	p.position = model.Vec2{
		X: p.cfg.CenterX + p.cfg.OrbitRadius*math.Cos(p.angle),
		Y: p.cfg.CenterY + p.cfg.OrbitRadius*math.Sin(p.angle),
	}
	pos := p.position

	attack := false
	if p.cfg.AttackRate > 0 {
		p.attackWait -= dt
		if p.attackWait <= 0 {
			p.attackWait = 1 / p.cfg.AttackRate
			attack = true
		}
	}
	p.mu.Unlock()

	if attack {
		p.strikeNearest(pos)
	}
}

// strikeNearest damages the closest active enemy within attack range.
func (p *scriptedPlayer) strikeNearest(pos model.Vec2) {
	rangeSq := p.cfg.AttackRange * p.cfg.AttackRange

	var target *model.Enemy
	bestSq := rangeSq
	p.enemyPool.ForEachActive(func(e *model.Enemy) bool {
		if e.IsDead() {
			return true
		}
		if distSq := e.Position().DistanceSquared(pos); distSq <= bestSq {
			bestSq = distSq
			target = e
		}
		return true
	})

	if target != nil {
		p.dir.DamageEnemy(target.ID(), p.cfg.AttackDamage)
	}
}

// TakeHit accumulates damage dealt to the player by enemy attacks.
func (p *scriptedPlayer) TakeHit(damage float64) {
	p.mu.Lock()
	p.damageTaken += damage
	p.mu.Unlock()
}

// DamageTaken returns the lifetime damage the player absorbed.
func (p *scriptedPlayer) DamageTaken() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.damageTaken
}

// errLineOfSight aborts a ranged attack whose shot path is obstructed.
var errLineOfSight = errors.New("no line of sight to target")

// enemyStrike is the attack capability bound to each spawned enemy.
// Melee always connects; ranged shots are blocked by obstacles between
// shooter and target.
type enemyStrike struct {
	enemy  *model.Enemy
	player *scriptedPlayer
	plane  *nav.Plane
}

func newEnemyStrike(enemy *model.Enemy, player *scriptedPlayer, plane *nav.Plane) *enemyStrike {
	return &enemyStrike{enemy: enemy, player: player, plane: plane}
}

func (s *enemyStrike) CanAttack() bool {
	return !s.enemy.IsDead()
}

func (s *enemyStrike) PerformAttack(target model.Vec2) error {
	archetype := s.enemy.Archetype()

	if archetype.Style == model.StyleRanged && s.shotBlocked(target) {
		return errLineOfSight
	}

	s.player.TakeHit(archetype.AttackDamage)

	if ai.IsDebugEnabled() {
		slog.Debug("enemy attack landed",
			"enemyID", s.enemy.ID(),
			"archetype", archetype.Type,
			"damage", archetype.AttackDamage,
			"style", archetype.Style)
	}
	return nil
}

// shotBlocked samples the shooter-to-target segment against the field
// obstacles. Coarse, but enough to make ranged enemies reposition.
func (s *enemyStrike) shotBlocked(target model.Vec2) bool {
	const samples = 8

	from := s.enemy.Position()
	delta := target.Sub(from)
	for i := 1; i < samples; i++ {
		pt := from.Add(delta.Scale(float64(i) / samples))
		if s.plane.Blocked(pt, 0) {
			return true
		}
	}
	return false
}
