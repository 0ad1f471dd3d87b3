package nav

import (
	"sync"

	"github.com/velmoren/duskfall/internal/model"
)

// Obstacle is a circular blocker on the plane.
type Obstacle struct {
	Center model.Vec2
	Radius float64
}

// Plane is the reference navigation provider: a rectangular walkable
// field with circular obstacles and straight-line agent steering.
// It stands in for a real navmesh in the headless simulation and in
// tests; the core only ever talks to the Provider interface.
type Plane struct {
	min model.Vec2
	max model.Vec2

	mu        sync.Mutex
	obstacles []Obstacle
	agents    map[*planeAgent]struct{}
}

// NewPlane creates a plane spanning [min, max].
func NewPlane(min, max model.Vec2) *Plane {
	return &Plane{
		min:    min,
		max:    max,
		agents: make(map[*planeAgent]struct{}),
	}
}

// AddObstacle registers a circular blocker.
func (p *Plane) AddObstacle(center model.Vec2, radius float64) {
	p.mu.Lock()
	p.obstacles = append(p.obstacles, Obstacle{Center: center, Radius: radius})
	p.mu.Unlock()
}

// IsWalkable projects a point onto the walkable field. Points within
// tolerance outside the bounds are clamped back in; points inside an
// obstacle are rejected.
func (p *Plane) IsWalkable(pt model.Vec2, tolerance float64) (model.Vec2, bool) {
	if pt.X < p.min.X-tolerance || pt.X > p.max.X+tolerance ||
		pt.Y < p.min.Y-tolerance || pt.Y > p.max.Y+tolerance {
		return model.Vec2{}, false
	}

	projected := model.Vec2{
		X: clamp(pt.X, p.min.X, p.max.X),
		Y: clamp(pt.Y, p.min.Y, p.max.Y),
	}

	if p.Blocked(projected, 0) {
		return model.Vec2{}, false
	}

	return projected, true
}

// Blocked reports whether a circle at pt with the given radius overlaps
// any obstacle. Used by the director's placement query.
func (p *Plane) Blocked(pt model.Vec2, radius float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ob := range p.obstacles {
		r := ob.Radius + radius
		if ob.Center.DistanceSquared(pt) < r*r {
			return true
		}
	}
	return false
}

// NewAgent registers a straight-line steering agent.
func (p *Plane) NewAgent(start model.Vec2, speed float64) Agent {
	a := &planeAgent{position: start, speed: speed}
	p.mu.Lock()
	p.agents[a] = struct{}{}
	p.mu.Unlock()
	return a
}

// ReleaseAgent removes an agent from the plane.
func (p *Plane) ReleaseAgent(agent Agent) {
	a, ok := agent.(*planeAgent)
	if !ok {
		return
	}
	p.mu.Lock()
	delete(p.agents, a)
	p.mu.Unlock()
}

// AgentCount returns the number of live agents.
func (p *Plane) AgentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.agents)
}

// Advance integrates all agents by dt simulated seconds. Driven once
// per tick by the simulation loop.
func (p *Plane) Advance(now, dt float64) {
	p.mu.Lock()
	agents := make([]*planeAgent, 0, len(p.agents))
	for a := range p.agents {
		agents = append(agents, a)
	}
	p.mu.Unlock()

	for _, a := range agents {
		a.advance(dt)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// planeAgent steers straight toward its destination at max speed.
type planeAgent struct {
	mu       sync.Mutex
	position model.Vec2
	dest     model.Vec2
	speed    float64
	moving   bool
	velocity model.Vec2
}

func (a *planeAgent) MoveTo(dest model.Vec2) {
	a.mu.Lock()
	a.dest = dest
	a.moving = true
	a.mu.Unlock()
}

func (a *planeAgent) Stop() {
	a.mu.Lock()
	a.moving = false
	a.velocity = model.Vec2{}
	a.mu.Unlock()
}

func (a *planeAgent) Velocity() model.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.velocity
}

func (a *planeAgent) Position() model.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.position
}

func (a *planeAgent) SetPosition(p model.Vec2) {
	a.mu.Lock()
	a.position = p
	a.moving = false
	a.velocity = model.Vec2{}
	a.mu.Unlock()
}

func (a *planeAgent) SetSpeed(speed float64) {
	a.mu.Lock()
	a.speed = speed
	a.mu.Unlock()
}

func (a *planeAgent) advance(dt float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.moving {
		return
	}

	delta := a.dest.Sub(a.position)
	dist := delta.Length()
	step := a.speed * dt

	if dist <= step {
		a.position = a.dest
		a.moving = false
		a.velocity = model.Vec2{}
		return
	}

	dir := delta.Scale(1 / dist)
	a.velocity = dir.Scale(a.speed)
	a.position = a.position.Add(a.velocity.Scale(dt))
}
