package store

import (
	"context"
	"sync"

	"plantwatch/internal/models"
)

// MemoryStore is an in-process TelemetryStore holding the latest
// snapshot per domain. Used for local development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[models.Domain]*models.Snapshot
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		latest: make(map[models.Domain]*models.Snapshot),
	}
}

// Put stores snap as the latest snapshot for its domain
func (m *MemoryStore) Put(snap *models.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[snap.Domain] = snap
}

// GetLatestSnapshot returns a copy of the newest snapshot for domain
func (m *MemoryStore) GetLatestSnapshot(_ context.Context, domain models.Domain) (*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.latest[domain]
	if !ok {
		return nil, ErrNoSnapshot
	}

	// Copy so callers never share the stored slices.
	out := *snap
	out.Parameters = append([]models.Parameter(nil), snap.Parameters...)
	out.Violations = append([]models.Violation(nil), snap.Violations...)
	return &out, nil
}

// AppendViolations annotates the stored snapshot, skipping parameters
// that already carry a violation
func (m *MemoryStore) AppendViolations(_ context.Context, snapshotID string, violations []models.Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, snap := range m.latest {
		if snap.ID != snapshotID {
			continue
		}
		for _, v := range violations {
			if !snap.HasViolation(v.Parameter) {
				snap.Violations = append(snap.Violations, v)
			}
		}
		return nil
	}
	return ErrNoSnapshot
}

// Ping always succeeds for the in-memory store
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }
