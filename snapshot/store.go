/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package snapshot persists one opaque record per puzzle, keyed by the
// puzzle's URL or path. Every save is a full overwrite.
package snapshot

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned by Load when nothing is stored under a key.
var ErrNoSnapshot = errors.New("no snapshot stored")

type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

type memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory returns a Store that lives as long as the process.
func NewMemory() Store {
	return &memory{records: make(map[string][]byte)}
}

func (m *memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *memory) Save(_ context.Context, key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.records[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *memory) Close() error { return nil }
