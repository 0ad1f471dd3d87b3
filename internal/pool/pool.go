// Package pool amortizes enemy instance creation for high-frequency
// spawn/despawn cycles. Instances are arena-style: constructed once,
// recycled between activations, destroyed only when the pool itself is
// torn down. Per archetype the pool keeps two disjoint accounting
// sets — an available FIFO and an active set — and an instance's
// Active flag always mirrors which set holds it.
package pool

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/velmoren/duskfall/internal/event"
	"github.com/velmoren/duskfall/internal/model"
)

// poolData is the per-archetype accounting.
// Invariant: len(available) + len(active) == totalSize <= maxSize,
// except transiently inside a single growth step in Acquire.
type poolData struct {
	archetype   model.ArchetypeConfig
	available   []*model.Enemy // FIFO queue
	active      map[uint32]*model.Enemy
	totalSize   int
	maxSize     int
	allowGrowth bool
}

// Counts is a snapshot of one archetype's accounting, for the director
// and for tests.
type Counts struct {
	Available int
	Active    int
	Total     int
	Max       int
}

// Pool recycles enemy instances per archetype type.
type Pool struct {
	mu    sync.Mutex
	types map[string]*poolData
	byID  map[uint32]*poolData // reverse lookup for Release

	bus       *event.Bus
	idCounter atomic.Uint32
}

// New creates an empty pool publishing on the given bus.
func New(bus *event.Bus) *Pool {
	p := &Pool{
		types: make(map[string]*poolData),
		byID:  make(map[uint32]*poolData),
		bus:   bus,
	}
	// Enemy ids start above zero so 0 stays "no enemy".
	p.idCounter.Store(1000)
	return p
}

// Initialize pre-populates the pool for one archetype with initialSize
// reset instances and records the growth policy.
func (p *Pool) Initialize(archetype model.ArchetypeConfig, initialSize, maxSize int, allowGrowth bool) {
	if initialSize > maxSize {
		slog.Warn("pool initial size exceeds max, clamping",
			"archetype", archetype.Type,
			"initialSize", initialSize,
			"maxSize", maxSize)
		initialSize = maxSize
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	data := &poolData{
		archetype:   archetype,
		active:      make(map[uint32]*model.Enemy),
		maxSize:     maxSize,
		allowGrowth: allowGrowth,
	}

	for range initialSize {
		enemy := p.construct(data)
		data.available = append(data.available, enemy)
	}

	p.types[archetype.Type] = data

	slog.Info("pool initialized",
		"archetype", archetype.Type,
		"initialSize", initialSize,
		"maxSize", maxSize,
		"allowGrowth", allowGrowth)
}

// construct allocates one arena instance. Caller holds p.mu.
func (p *Pool) construct(data *poolData) *model.Enemy {
	id := p.idCounter.Add(1)
	enemy := model.NewEnemy(id, data.archetype)
	data.totalSize++
	p.byID[id] = data
	return enemy
}

// Acquire checks an instance of the given archetype out of the pool,
// re-initialized with the caller's owned scaled config and placed at
// position. Returns (nil, false) when the pool is exhausted — a
// recoverable condition the caller retries on a later tick.
func (p *Pool) Acquire(archetypeType string, position model.Vec2, scaled model.ArchetypeConfig) (*model.Enemy, bool) {
	p.mu.Lock()

	data, ok := p.types[archetypeType]
	if !ok {
		p.mu.Unlock()
		slog.Error("pool acquire for unknown archetype", "archetype", archetypeType)
		return nil, false
	}

	var enemy *model.Enemy
	switch {
	case len(data.available) > 0:
		enemy = data.available[0]
		data.available = data.available[1:]
	case data.allowGrowth && data.totalSize < data.maxSize:
		enemy = p.construct(data)
		slog.Debug("pool grew",
			"archetype", archetypeType,
			"totalSize", data.totalSize,
			"maxSize", data.maxSize)
	default:
		p.mu.Unlock()
		slog.Debug("pool exhausted",
			"archetype", archetypeType,
			"totalSize", data.totalSize,
			"maxSize", data.maxSize)
		return nil, false
	}

	enemy.ResetFor(scaled, position)
	enemy.SetActive(true)
	data.active[enemy.ID()] = enemy

	p.mu.Unlock()

	p.bus.Publish(event.Event{
		Topic:     event.TopicEnemySpawned,
		EnemyID:   enemy.ID(),
		Archetype: archetypeType,
	})

	return enemy, true
}

// Release reclaims an active instance: transient fields reset, target
// cleared, collision re-enabled, accounting moved from active to
// available. Releasing an instance not in the active set is a warning
// no-op.
func (p *Pool) Release(enemy *model.Enemy) {
	p.mu.Lock()

	data, ok := p.byID[enemy.ID()]
	if !ok {
		p.mu.Unlock()
		slog.Warn("release of enemy not owned by pool", "enemyID", enemy.ID())
		return
	}

	if _, isActive := data.active[enemy.ID()]; !isActive {
		p.mu.Unlock()
		slog.Warn("release of enemy not in active set",
			"enemyID", enemy.ID(),
			"archetype", data.archetype.Type)
		return
	}

	delete(data.active, enemy.ID())

	// Park the instance in a neutral resting state; full
	// re-initialization happens on the next Acquire.
	enemy.ResetFor(data.archetype, model.Vec2{})
	enemy.SetActive(false)

	data.available = append(data.available, enemy)
	archetypeType := data.archetype.Type

	p.mu.Unlock()

	p.bus.Publish(event.Event{
		Topic:     event.TopicEnemyReturned,
		EnemyID:   enemy.ID(),
		Archetype: archetypeType,
	})
}

// ReleaseAll reclaims every active instance across all archetypes.
// Used for scene resets and spawner shutdown.
func (p *Pool) ReleaseAll() {
	p.mu.Lock()
	var all []*model.Enemy
	for _, data := range p.types {
		for _, enemy := range data.active {
			all = append(all, enemy)
		}
	}
	p.mu.Unlock()

	for _, enemy := range all {
		p.Release(enemy)
	}

	if len(all) > 0 {
		slog.Info("pool released all active enemies", "count", len(all))
	}
}

// CountsFor returns the accounting snapshot for an archetype.
func (p *Pool) CountsFor(archetypeType string) (Counts, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, ok := p.types[archetypeType]
	if !ok {
		return Counts{}, false
	}
	return Counts{
		Available: len(data.available),
		Active:    len(data.active),
		Total:     data.totalSize,
		Max:       data.maxSize,
	}, true
}

// ActiveCount returns the number of active instances across all
// archetypes.
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, data := range p.types {
		count += len(data.active)
	}
	return count
}

// ForEachActive visits every active instance. The visitor must not
// call back into the pool.
func (p *Pool) ForEachActive(fn func(*model.Enemy) bool) {
	p.mu.Lock()
	var all []*model.Enemy
	for _, data := range p.types {
		for _, enemy := range data.active {
			all = append(all, enemy)
		}
	}
	p.mu.Unlock()

	for _, enemy := range all {
		if !fn(enemy) {
			return
		}
	}
}
