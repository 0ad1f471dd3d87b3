package director

import (
	"math"
	"math/rand/v2"

	"github.com/velmoren/duskfall/internal/model"
)

// ObstacleFunc reports whether a circle at p with the given radius is
// blocked by scene geometry. Injected by the host to avoid coupling
// the director to any particular spatial index.
type ObstacleFunc func(p model.Vec2, radius float64) bool

// findSpawnPosition samples candidate points in the annulus between
// MinDistanceFromPlayer and MaxDistanceFromPlayer around the player.
// A candidate is valid only when it projects onto the walkable
// surface, is not blocked by an obstacle, and keeps MinSeparation to
// every already-active enemy. Returns false when every attempt failed;
// the spawn slot is then abandoned for this tick and retried later.
func (d *Director) findSpawnPosition(playerPos model.Vec2) (model.Vec2, bool) {
	minDist := d.cfg.MinDistanceFromPlayer
	maxDist := d.cfg.MaxDistanceFromPlayer
	sepSq := d.cfg.MinSeparation * d.cfg.MinSeparation

	for range d.cfg.PlacementAttempts {
		r := minDist + rand.Float64()*(maxDist-minDist)
		theta := rand.Float64() * 2 * math.Pi
		candidate := playerPos.Add(model.NewVec2(r*math.Cos(theta), r*math.Sin(theta)))

		projected, ok := d.nav.IsWalkable(candidate, d.cfg.WalkableTolerance)
		if !ok {
			continue
		}

		// Projection may pull an edge candidate back onto the walkable
		// boundary; the annulus must hold for the projected point, not
		// the sampled one.
		distSq := projected.DistanceSquared(playerPos)
		if distSq < minDist*minDist || distSq > maxDist*maxDist {
			continue
		}

		if d.obstacle != nil && d.obstacle(projected, d.cfg.MinSeparation) {
			continue
		}

		if sepSq > 0 && d.tooCloseToActive(projected, sepSq) {
			continue
		}

		return projected, true
	}

	return model.Vec2{}, false
}

func (d *Director) tooCloseToActive(p model.Vec2, sepSq float64) bool {
	crowded := false
	d.pool.ForEachActive(func(e *model.Enemy) bool {
		if e.Position().DistanceSquared(p) < sepSq {
			crowded = true
			return false
		}
		return true
	})
	return crowded
}
