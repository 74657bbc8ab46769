package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is a size-bounded LRU store with a TTL per entry.
type Memory struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

func NewMemory(maxSize int) *Memory {
	return &Memory{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	e := elem.Value.(*entry)
	if !m.now().Before(e.expiresAt) {
		m.remove(elem)
		return nil, false, nil
	}
	m.lru.MoveToFront(elem)
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{key: key, value: value, expiresAt: m.now().Add(ttl)}
	if elem, ok := m.items[key]; ok {
		elem.Value = e
		m.lru.MoveToFront(elem)
		return nil
	}

	m.items[key] = m.lru.PushFront(e)
	for m.lru.Len() > m.maxSize {
		m.remove(m.lru.Back())
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		if elem, ok := m.items[k]; ok {
			m.remove(elem)
		}
	}
	return nil
}

func (m *Memory) CleanExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for elem := m.lru.Front(); elem != nil; {
		next := elem.Next()
		if !now.Before(elem.Value.(*entry).expiresAt) {
			m.remove(elem)
			removed++
		}
		elem = next
	}
	return removed, nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) remove(elem *list.Element) {
	delete(m.items, elem.Value.(*entry).key)
	m.lru.Remove(elem)
}
