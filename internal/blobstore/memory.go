package blobstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory Client with CAS semantics, used by tests and by the
// offline CLI mode. Versions are monotonic per store.
type Memory struct {
	mu      sync.Mutex
	seq     int
	objects map[string]Object

	// GetErr and PutErr, when set, are returned by every Get/Put. Used by
	// tests to simulate an unreachable store.
	GetErr error
	PutErr error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

// Seed stores content under key without CAS checks and returns the assigned
// version.
func (m *Memory) Seed(key string, content []byte) Version {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.nextVersion()
	m.objects[key] = Object{Content: append([]byte(nil), content...), Version: v}
	return v
}

func (m *Memory) Get(_ context.Context, key string) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return Object{}, m.GetErr
	}
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return Object{Content: append([]byte(nil), obj.Content...), Version: obj.Version}, nil
}

func (m *Memory) Put(_ context.Context, key string, content []byte, expected Version) (Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return VersionAbsent, m.PutErr
	}
	current, exists := m.objects[key]
	switch {
	case !exists && expected != VersionAbsent:
		return VersionAbsent, ErrVersionConflict
	case exists && expected != current.Version:
		return VersionAbsent, ErrVersionConflict
	}
	v := m.nextVersion()
	m.objects[key] = Object{Content: append([]byte(nil), content...), Version: v}
	return v, nil
}

func (m *Memory) nextVersion() Version {
	m.seq++
	return Version(fmt.Sprintf("v%d", m.seq))
}
