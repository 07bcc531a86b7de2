package store

import (
	"context"
	"sync"
)

type inMemory struct {
	mu      sync.RWMutex
	storage map[string][]*HealthReport
}

func NewMemoryStore() Reports {
	return &inMemory{}
}

func (m *inMemory) Save(_ context.Context, report *HealthReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string][]*HealthReport)
	}
	m.storage[report.City] = append(m.storage[report.City], report)
	return nil
}

func (m *inMemory) List(_ context.Context, city string) ([]*HealthReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return nil, nil
	}
	return m.storage[city], nil
}
