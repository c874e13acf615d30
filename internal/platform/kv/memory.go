package kv

import (
	"context"
	"fmt"
	"maps"
	"path"
	"sort"
	"sync"
	"time"

	"openmod/pkg/platform/sentinel"
)

// Memory implements Store in process. It mirrors the Redis semantics openmod
// relies on (lazy expiry, NX writes, ascending score order with member
// tie-break) for unit tests and single-process runs.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*entry
}

type entry struct {
	str       *string
	hash      map[string]string
	zset      map[string]float64
	expiresAt time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithNow overrides the clock used for expiry.
func WithNow(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// live returns the entry for key, dropping it if expired. Callers hold mu.
func (m *Memory) live(key string) *entry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil || e.str == nil {
		return "", fmt.Errorf("key %s: %w", key, sentinel.ErrNotFound)
	}
	return *e.str, nil
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.live(key) != nil {
		return false, nil
	}
	e := &entry{str: &value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return true, nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return false, nil
	}
	if ttl <= 0 {
		delete(m.entries, key)
		return true, nil
	}
	e.expiresAt = m.now().Add(ttl)
	return true, nil
}

// TTL reports the remaining lifetime of key, or zero when it has none.
func (m *Memory) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil || e.expiresAt.IsZero() {
		return 0
	}
	return e.expiresAt.Sub(m.now())
}

// Exists reports whether key is present and unexpired.
func (m *Memory) Exists(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.live(key) != nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil || e.hash == nil {
		return map[string]string{}, nil
	}
	return maps.Clone(e.hash), nil
}

func (m *Memory) HSet(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if len(fields) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		e = &entry{hash: make(map[string]string, len(fields))}
		m.entries[key] = e
	}
	if e.hash == nil {
		return fmt.Errorf("key %s holds a non-hash value: %w", key, sentinel.ErrInvalidState)
	}
	maps.Copy(e.hash, fields)
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	return nil
}

func (m *Memory) HReplace(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	if len(fields) > 0 {
		m.entries[key] = &entry{hash: maps.Clone(fields)}
	}
	return nil
}

func (m *Memory) zset(key string) (*entry, error) {
	e := m.live(key)
	if e == nil {
		e = &entry{zset: make(map[string]float64)}
		m.entries[key] = e
	}
	if e.zset == nil {
		return nil, fmt.Errorf("key %s holds a non-zset value: %w", key, sentinel.ErrInvalidState)
	}
	return e, nil
}

func (m *Memory) ZAdd(_ context.Context, key string, members ...Member) error {
	if len(members) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.zset(key)
	if err != nil {
		return err
	}
	for _, mem := range members {
		e.zset[mem.Member] = mem.Score
	}
	return nil
}

func (m *Memory) ZAddNX(_ context.Context, key string, members ...Member) error {
	if len(members) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.zset(key)
	if err != nil {
		return err
	}
	for _, mem := range members {
		if _, ok := e.zset[mem.Member]; !ok {
			e.zset[mem.Member] = mem.Score
		}
	}
	return nil
}

func (m *Memory) sorted(key string, keep func(float64) bool) []Member {
	e := m.live(key)
	if e == nil || e.zset == nil {
		return nil
	}
	members := make([]Member, 0, len(e.zset))
	for name, score := range e.zset {
		if keep(score) {
			members = append(members, Member{Member: name, Score: score})
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score < members[j].Score
		}
		return members[i].Member < members[j].Member
	})
	return members
}

func (m *Memory) ZRange(_ context.Context, key string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sorted(key, func(float64) bool { return true }), nil
}

func (m *Memory) ZRangeByScore(_ context.Context, key string, max float64) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sorted(key, func(score float64) bool { return score <= max }), nil
}

func (m *Memory) ZRem(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil || e.zset == nil {
		return 0, nil
	}
	var removed int64
	for _, name := range members {
		if _, ok := e.zset[name]; ok {
			delete(e.zset, name)
			removed++
		}
	}
	if len(e.zset) == 0 {
		delete(m.entries, key)
	}
	return removed, nil
}

func (m *Memory) ZScore(_ context.Context, key, member string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil || e.zset == nil {
		return 0, false, nil
	}
	score, ok := e.zset[member]
	return score, ok, nil
}

func (m *Memory) Scan(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key := range m.entries {
		if m.live(key) == nil {
			continue
		}
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, fmt.Errorf("scan pattern %q: %w", pattern, err)
		}
		if ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
