package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"MacroLens/internal/model"
)

// MemoryStore is a size-bounded in-process store with a single TTL.
type MemoryStore struct {
	lru *expirable.LRU[string, model.TimeSeries]
}

// NewMemoryStore keeps at most size entries for ttl each.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 512
	}
	return &MemoryStore{lru: expirable.NewLRU[string, model.TimeSeries](size, nil, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (model.TimeSeries, bool, error) {
	ts, ok := m.lru.Get(key)
	return ts, ok, nil
}

// Set ignores the per-call ttl; the LRU applies the TTL it was built with.
func (m *MemoryStore) Set(_ context.Context, key string, ts model.TimeSeries, _ time.Duration) error {
	m.lru.Add(key, ts)
	return nil
}

func (m *MemoryStore) Purge(_ context.Context, prefix string) error {
	if prefix == "" {
		m.lru.Purge()
		return nil
	}
	for _, k := range m.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			m.lru.Remove(k)
		}
	}
	return nil
}

func (m *MemoryStore) Len() int { return m.lru.Len() }

func (m *MemoryStore) Close() error { return nil }
