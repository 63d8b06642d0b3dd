package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultMemoryCapacity bounds the memory tier when no capacity is given.
const DefaultMemoryCapacity = 2048

// DefaultSweepInterval is how often tiers scan for entries past retention.
const DefaultSweepInterval = time.Minute

type memoryItem struct {
	key   string
	entry *Entry
}

// MemoryTier is the bounded, process-local L1: a map plus an LRU list, all
// operations O(1). Entries past their retention are dropped lazily on Get
// and by a background sweeper; eviction beyond capacity is least recently
// used. Eviction here never touches the persistent tier.
type MemoryTier struct {
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front is most recently used
	capacity int
	sweep    time.Duration
	counters tierCounters
	wg       sync.WaitGroup
	once     sync.Once
}

var _ TierStore = (*MemoryTier)(nil)

// NewMemoryTier returns a memory tier bounded to capacity entries. Values
// <= 0 select DefaultMemoryCapacity and DefaultSweepInterval.
func NewMemoryTier(parent context.Context, capacity int, sweepInterval time.Duration) *MemoryTier {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	ctx, cancel := context.WithCancel(parent)
	t := &MemoryTier{
		ctx:      ctx,
		cancel:   cancel,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		sweep:    sweepInterval,
	}
	t.wg.Add(1)
	go t.run()
	return t
}

func (t *MemoryTier) Get(_ context.Context, key string) (*Entry, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	elem, ok := t.items[key]
	if !ok {
		t.counters.misses.Add(1)
		return nil, false, nil
	}
	item := elem.Value.(*memoryItem)
	if item.entry.expired(time.Now()) {
		t.removeLocked(elem)
		t.counters.deletes.Add(1)
		t.counters.misses.Add(1)
		return nil, false, nil
	}
	t.order.MoveToFront(elem)
	t.counters.hits.Add(1)
	return item.entry, true, nil
}

func (t *MemoryTier) Set(_ context.Context, key string, entry *Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if elem, ok := t.items[key]; ok {
		elem.Value.(*memoryItem).entry = entry
		t.order.MoveToFront(elem)
	} else {
		t.items[key] = t.order.PushFront(&memoryItem{key: key, entry: entry})
		if t.order.Len() > t.capacity {
			if back := t.order.Back(); back != nil {
				t.removeLocked(back)
				t.counters.evictions.Add(1)
			}
		}
	}
	t.counters.sets.Add(1)
	return nil
}

func (t *MemoryTier) Delete(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if elem, ok := t.items[key]; ok {
		t.removeLocked(elem)
		t.counters.deletes.Add(1)
	}
	return nil
}

func (t *MemoryTier) DeleteByPrefix(_ context.Context, prefix string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, elem := range t.items {
		if strings.HasPrefix(key, prefix) {
			t.removeLocked(elem)
			t.counters.deletes.Add(1)
		}
	}
	return nil
}

func (t *MemoryTier) Stats() TierStats {
	return t.counters.snapshot()
}

// Len reports the current number of resident entries.
func (t *MemoryTier) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}

func (t *MemoryTier) Close() error {
	t.once.Do(func() {
		t.cancel()
		t.wg.Wait()
	})
	return nil
}

// removeLocked unlinks elem from both structures. Caller holds t.mu.
func (t *MemoryTier) removeLocked(elem *list.Element) {
	item := t.order.Remove(elem).(*memoryItem)
	delete(t.items, item.key)
}

func (t *MemoryTier) run() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			t.mu.Lock()
			for _, elem := range t.items {
				if elem.Value.(*memoryItem).entry.expired(now) {
					t.removeLocked(elem)
					t.counters.deletes.Add(1)
				}
			}
			t.mu.Unlock()
		}
	}
}
