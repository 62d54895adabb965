package entity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/georecon/internal/db"
	domentity "github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/entitystore"
)

// mockStore is an in-memory hash store with optional error hooks.
type mockStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	values  map[string]string
	expired map[string]time.Duration

	hsetMultiCalls int
	hsetMultiErr   error
	hgetAllErr     error
	scanErr        error
	expireErr      error
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:  make(map[string]map[string]string),
		values:  make(map[string]string),
		expired: make(map[string]time.Duration),
	}
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(items) == 0 {
		return nil
	}
	m.hsetMultiCalls++
	if m.hsetMultiErr != nil {
		return m.hsetMultiErr
	}
	for _, it := range items {
		h := make(map[string]string, len(it.Fields))
		for k, v := range it.Fields {
			h[k] = v
		}
		m.hashes[it.Key] = h
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hgetAllErr != nil {
		return nil, m.hgetAllErr
	}
	return m.hashes[key], nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hgetAllErr != nil {
		return nil, m.hgetAllErr
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.hashes[k]
	}
	return out, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := pattern[:len(pattern)-1] // patterns end with '*'
	var keys []string
	for k := range m.hashes {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = string(value)
	return nil
}

func (m *mockStore) ExpireMulti(_ context.Context, keys []string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expireErr != nil {
		return m.expireErr
	}
	for _, k := range keys {
		m.expired[k] = ttl
	}
	return nil
}

func testEntityStore(t *testing.T, n int) *entitystore.Store {
	t.Helper()
	b := entitystore.NewBuilder(n)
	for i := range n {
		e, err := domentity.New(domentity.Params{
			ID:             idFor(i),
			PrimaryName:    "Place " + idFor(i),
			AlternateNames: []string{"Alias"},
			Class:          domentity.ClassPopulated,
			Code:           "PPL",
			CountryCode:    "fr",
			Population:     int64(i * 10),
			Coords:         &domentity.Coordinates{Latitude: 48.8, Longitude: 2.3},
		})
		if err != nil {
			t.Fatalf("new entity: %v", err)
		}
		b.AddEntity(e)
	}
	s, _, err := b.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	return s
}

func idFor(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "id" + digits[i:i+1]
	}
	return idFor(i/10) + digits[i%10:i%10+1]
}
