// Package nav defines the navigation contract the simulation core
// consumes and the throttled movement adapter placed between AI state
// machines and whatever provider implements it. The core never
// implements pathfinding itself; it only requires walkability queries
// and per-agent steering.
package nav

import "github.com/velmoren/duskfall/internal/model"

// Agent is one steerable body owned by a navigation provider.
// All calls are relative to simulated time advanced by the provider.
type Agent interface {
	// MoveTo sets the current movement destination.
	MoveTo(dest model.Vec2)

	// Stop halts movement and clears the destination.
	Stop()

	// Velocity returns the current velocity vector.
	Velocity() model.Vec2

	// Position returns the agent's current position.
	Position() model.Vec2

	// SetPosition teleports the agent (used on spawn placement).
	SetPosition(p model.Vec2)

	// SetSpeed sets the maximum movement speed.
	SetSpeed(speed float64)
}

// Provider is the navigation/movement collaborator contract.
type Provider interface {
	// IsWalkable projects a point onto the walkable surface within
	// tolerance. Returns the projected point and true, or false when
	// the point is off-mesh.
	IsWalkable(p model.Vec2, tolerance float64) (model.Vec2, bool)

	// NewAgent registers a steerable agent at the given position.
	NewAgent(start model.Vec2, speed float64) Agent

	// ReleaseAgent removes an agent from the provider.
	ReleaseAgent(a Agent)
}
