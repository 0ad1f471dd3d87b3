package ai

import (
	"testing"

	"github.com/velmoren/duskfall/internal/event"
	"github.com/velmoren/duskfall/internal/model"
	"github.com/velmoren/duskfall/internal/nav"
)

func newManagedMachine(id uint32) *Machine {
	enemy := model.NewEnemy(id, testArchetype())
	mover := nav.NewMover(&fakeAgent{})
	return NewMachine(enemy, mover,
		func() (model.Vec2, bool) { return model.Vec2{}, false },
		event.NewBus(),
		nil,
	)
}

func TestTickManagerRegisterUnregister(t *testing.T) {
	mgr := NewTickManager()

	m1 := newManagedMachine(1)
	m2 := newManagedMachine(2)

	mgr.Register(1, m1)
	mgr.Register(2, m2)

	if got := mgr.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	if !m1.Running() {
		t.Error("registered machine must be started")
	}

	if _, err := mgr.GetMachine(1); err != nil {
		t.Errorf("GetMachine(1) error: %v", err)
	}

	mgr.Unregister(1)
	if got := mgr.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1 after unregister", got)
	}
	if m1.Running() {
		t.Error("unregistered machine must be stopped")
	}
	if _, err := mgr.GetMachine(1); err == nil {
		t.Error("GetMachine(1) must fail after unregister")
	}

	// Unknown id is a no-op.
	mgr.Unregister(99)
	if got := mgr.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1 after no-op unregister", got)
	}
}

func TestTickManagerUpdateAllAdvancesMachines(t *testing.T) {
	mgr := NewTickManager()

	// Machine with a visible player: Idle → Chase on the first pass.
	enemy := model.NewEnemy(5, testArchetype())
	mover := nav.NewMover(&fakeAgent{})
	machine := NewMachine(enemy, mover,
		func() (model.Vec2, bool) { return model.NewVec2(3, 0), true },
		event.NewBus(),
		nil,
	)
	machine.BindAttack(&fakeAttack{ready: true})

	mgr.Register(5, machine)
	mgr.UpdateAll(0, 0.016)

	if got := enemy.State(); got != model.StateChase {
		t.Errorf("state = %v, want CHASE after UpdateAll", got)
	}
}

func TestTickManagerMachineMayUnregisterDuringPass(t *testing.T) {
	mgr := NewTickManager()

	// Dying machine whose release unregisters it mid-pass.
	enemy := model.NewEnemy(7, testArchetype())
	mover := nav.NewMover(&fakeAgent{})
	machine := NewMachine(enemy, mover,
		func() (model.Vec2, bool) { return model.Vec2{}, false },
		event.NewBus(),
		func(e *model.Enemy) { mgr.Unregister(e.ID()) },
	)

	mgr.Register(7, machine)
	machine.ChangeState(model.StateDeath, 0)

	// Past the death delay: release fires inside the pass.
	mgr.UpdateAll(10, 0.016)

	if got := mgr.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0 after self-unregister", got)
	}
}

func TestTickManagerForEachVisitsAndStopsEarly(t *testing.T) {
	mgr := NewTickManager()
	for id := uint32(1); id <= 3; id++ {
		mgr.Register(id, newManagedMachine(id))
	}

	seen := map[uint32]bool{}
	mgr.ForEach(func(m *Machine) bool {
		seen[m.Enemy().ID()] = true
		return true
	})
	if len(seen) != 3 {
		t.Errorf("ForEach visited %d machines, want 3", len(seen))
	}

	visits := 0
	mgr.ForEach(func(*Machine) bool {
		visits++
		return false
	})
	if visits != 1 {
		t.Errorf("ForEach made %d visits after stop, want 1", visits)
	}
}

func BenchmarkTickManagerUpdateAll(b *testing.B) {
	mgr := NewTickManager()
	bus := event.NewBus()

	for i := uint32(1); i <= 200; i++ {
		enemy := model.NewEnemy(i, testArchetype())
		mover := nav.NewMover(&fakeAgent{})
		machine := NewMachine(enemy, mover,
			func() (model.Vec2, bool) { return model.NewVec2(50, 50), true },
			bus,
			nil,
		)
		machine.BindAttack(&fakeAttack{ready: true})
		mgr.Register(i, machine)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mgr.UpdateAll(float64(i)*0.016, 0.016)
	}
}
