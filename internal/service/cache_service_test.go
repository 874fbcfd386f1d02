package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type mockCacheRepo struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	deleted []string
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{data: map[string][]byte{}}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMockCacheRepo(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]int
	assert.False(t, svc.Get(ctx, "students:stats", &out))

	svc.Set(ctx, "students:stats", map[string]int{"total": 7}, 0)
	assert.True(t, svc.Get(ctx, "students:stats", &out))
	assert.Equal(t, 7, out["total"])

	svc.Invalidate(ctx, "students:*")
	assert.False(t, svc.Get(ctx, "students:stats", &out))

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.CacheHits)
	assert.EqualValues(t, 2, snap.CacheMisses)
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	repo := newMockCacheRepo()
	disabled := NewCacheService(repo, nil, 0, nil, false)
	disabled.Set(context.Background(), "k", 1, 0)
	assert.Empty(t, repo.data)
	assert.False(t, disabled.Enabled())

	repo.getErr = errors.New("redis down")
	failing := NewCacheService(repo, nil, 0, nil, true)
	var v int
	assert.False(t, failing.Get(context.Background(), "k", &v))
}
