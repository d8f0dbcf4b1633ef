package lock

import (
	"sync"
)

// Manager hands out one RWMutex per project and one Mutex per section, plus a
// per-project batch guard. Structural changes hold the batch guard and then the
// project lock exclusively; section mutations hold the project lock shared plus the
// section mutex. A Generate All batch holds only the batch guard shared, so a
// structural change waiting for the batch never blocks readers of the project.
type Manager struct {
	mu       sync.Mutex
	projects map[uint64]*sync.RWMutex
	batches  map[uint64]*sync.RWMutex
	sections map[uint64]*sync.Mutex
}

func NewManager() *Manager {
	return &Manager{
		projects: make(map[uint64]*sync.RWMutex),
		batches:  make(map[uint64]*sync.RWMutex),
		sections: make(map[uint64]*sync.Mutex),
	}
}

// Batch returns the guard a Generate All batch holds shared.
func (m *Manager) Batch(id uint64) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.batches[id]
	if !ok {
		l = &sync.RWMutex{}
		m.batches[id] = l
	}
	return l
}

// Structure takes the batch guard and the project lock exclusively, in that
// order, and returns the matching unlock.
func (m *Manager) Structure(id uint64) func() {
	guard := m.Batch(id)
	guard.Lock()
	pl := m.Project(id)
	pl.Lock()
	return func() {
		pl.Unlock()
		guard.Unlock()
	}
}

func (m *Manager) Project(id uint64) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.projects[id]
	if !ok {
		l = &sync.RWMutex{}
		m.projects[id] = l
	}
	return l
}

func (m *Manager) Section(id uint64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.sections[id]
	if !ok {
		l = &sync.Mutex{}
		m.sections[id] = l
	}
	return l
}

// ForgetSections drops the mutexes of deleted sections. Ids are never reused,
// so a goroutine still holding an old mutex only ever finds the section gone.
func (m *Manager) ForgetSections(ids ...uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.sections, id)
	}
}

func (m *Manager) ForgetProject(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	delete(m.batches, id)
}

// Len reports how many locks are tracked, for tests.
func (m *Manager) Len() (projects, sections int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.projects), len(m.sections)
}
