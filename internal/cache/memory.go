package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

const (
	memoryCapacity           = 10000
	memoryShards             = 64
	memoryEvictionPercentage = 10
)

// Memory is an in-process Cache backed by sturdyc. Every entry shares the TTL
// given to NewMemory; the per-call ttl passed to Set is ignored.
type Memory struct {
	client *sturdyc.Client[[]byte]
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		client: sturdyc.New[[]byte](memoryCapacity, memoryShards, ttl, memoryEvictionPercentage),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.client.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.client.Set(key, value)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.client.Delete(key)
	}
	return nil
}

func (m *Memory) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	keys, _ := m.Keys(ctx, prefix)
	for _, key := range keys {
		m.client.Delete(key)
	}
	return len(keys), nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	for _, key := range m.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
