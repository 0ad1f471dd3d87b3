package ai

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// TickManager holds the machines of all active enemies and advances
// them once per simulation tick. Registration happens on spawn,
// removal on pool return; the update pass itself runs on the single
// coordinating tick.
type TickManager struct {
	mu       sync.RWMutex
	machines map[uint32]*Machine

	machineCount atomic.Int32 // cached count (O(1) access)
}

// NewTickManager creates an empty tick manager.
func NewTickManager() *TickManager {
	return &TickManager{
		machines: make(map[uint32]*Machine),
	}
}

// Register starts and tracks a machine under the enemy id.
func (m *TickManager) Register(enemyID uint32, machine *Machine) {
	m.mu.Lock()
	if _, exists := m.machines[enemyID]; exists {
		m.mu.Unlock()
		slog.Warn("AI machine already registered, replacing", "enemyID", enemyID)
		m.Unregister(enemyID)
		m.mu.Lock()
	}
	m.machines[enemyID] = machine
	m.mu.Unlock()

	m.machineCount.Add(1)
	machine.Start()

	if IsDebugEnabled() {
		slog.Debug("AI machine registered",
			"enemyID", enemyID,
			"state", machine.Enemy().State())
	}
}

// Unregister stops and removes the machine for an enemy id. Unknown
// ids are a no-op.
func (m *TickManager) Unregister(enemyID uint32) {
	m.mu.Lock()
	machine, ok := m.machines[enemyID]
	if ok {
		delete(m.machines, enemyID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	m.machineCount.Add(-1)
	machine.Stop()

	if IsDebugEnabled() {
		slog.Debug("AI machine unregistered", "enemyID", enemyID)
	}
}

// UpdateAll advances every registered machine by one tick. Machines
// may unregister themselves (death release) during the pass, so it
// iterates over a snapshot.
func (m *TickManager) UpdateAll(now, dt float64) {
	m.mu.RLock()
	snapshot := make([]*Machine, 0, len(m.machines))
	for _, machine := range m.machines {
		snapshot = append(snapshot, machine)
	}
	m.mu.RUnlock()

	for _, machine := range snapshot {
		machine.Update(now, dt)
	}
}

// Update implements the simulation loop's Updatable contract.
func (m *TickManager) Update(now, dt float64) {
	m.UpdateAll(now, dt)
}

// Count returns the number of registered machines (O(1) cached count).
func (m *TickManager) Count() int {
	return int(m.machineCount.Load())
}

// GetMachine returns the machine for an enemy id.
func (m *TickManager) GetMachine(enemyID uint32) (*Machine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	machine, ok := m.machines[enemyID]
	if !ok {
		return nil, fmt.Errorf("machine not found for enemyID %d", enemyID)
	}
	return machine, nil
}

// ForEach visits every registered machine.
func (m *TickManager) ForEach(fn func(*Machine) bool) {
	m.mu.RLock()
	snapshot := make([]*Machine, 0, len(m.machines))
	for _, machine := range m.machines {
		snapshot = append(snapshot, machine)
	}
	m.mu.RUnlock()

	for _, machine := range snapshot {
		if !fn(machine) {
			return
		}
	}
}
