package nav

import "github.com/velmoren/duskfall/internal/model"

// Default throttle tuning. Re-pathing every frame for every agent is
// the dominant navigation cost under load, so destinations are only
// re-issued when the target actually moved or the interval elapsed.
const (
	// DefaultRepathInterval caps path updates at ~10/sec per agent.
	DefaultRepathInterval = 0.1
	// DefaultRepathDistance is how far a destination must drift before
	// an early re-path is allowed.
	DefaultRepathDistance = 0.5
)

// Mover is the throttled movement adapter between one AI state machine
// and its navigation agent. Not safe for concurrent use; each enemy's
// machine owns exactly one Mover and updates it sequentially.
type Mover struct {
	agent Agent

	repathInterval float64
	repathDistance float64

	hasDest    bool
	lastDest   model.Vec2
	lastIssued float64 // simulated time of last forwarded MoveTo
}

// NewMover wraps an agent with default throttle tuning.
func NewMover(agent Agent) *Mover {
	return &Mover{
		agent:          agent,
		repathInterval: DefaultRepathInterval,
		repathDistance: DefaultRepathDistance,
	}
}

// SetThrottle overrides the re-path interval and distance threshold.
func (m *Mover) SetThrottle(interval, distance float64) {
	m.repathInterval = interval
	m.repathDistance = distance
}

// MoveTo requests movement toward dest at simulated time now.
// The request is forwarded to the agent only when there is no live
// destination yet, the destination drifted beyond the distance
// threshold, or the re-path interval elapsed. Returns whether the
// request was forwarded.
func (m *Mover) MoveTo(dest model.Vec2, now float64) bool {
	if m.hasDest {
		drifted := m.lastDest.DistanceSquared(dest) > m.repathDistance*m.repathDistance
		stale := now-m.lastIssued >= m.repathInterval
		if !drifted && !stale {
			return false
		}
	}

	m.agent.MoveTo(dest)
	m.hasDest = true
	m.lastDest = dest
	m.lastIssued = now
	return true
}

// Stop halts the agent and clears throttle state so the next MoveTo
// forwards immediately.
func (m *Mover) Stop() {
	m.agent.Stop()
	m.hasDest = false
}

// Velocity returns the agent's current velocity.
func (m *Mover) Velocity() model.Vec2 {
	return m.agent.Velocity()
}

// Position returns the agent's current position.
func (m *Mover) Position() model.Vec2 {
	return m.agent.Position()
}

// SetSpeed sets the agent's maximum speed.
func (m *Mover) SetSpeed(speed float64) {
	m.agent.SetSpeed(speed)
}

// Place teleports the agent (spawn placement).
func (m *Mover) Place(p model.Vec2) {
	m.agent.SetPosition(p)
	m.hasDest = false
}

// Agent returns the wrapped agent for provider release.
func (m *Mover) Agent() Agent {
	return m.agent
}
