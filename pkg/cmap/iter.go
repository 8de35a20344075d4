package cmap

// Range calls fn for each pair until fn returns false. Shards are locked
// one at a time, so the view is not a snapshot; fn must not call back into
// the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, shard := range m.shards {
		shard.mu.RLock()
		for k, v := range shard.items {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// GetOrSet returns the existing value for key, or stores and returns value.
// The bool reports whether the value already existed.
func (m *Map[K, V]) GetOrSet(key K, value V) (V, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if existing, ok := shard.items[key]; ok {
		return existing, true
	}
	shard.items[key] = value
	return value, false
}

// DeleteFunc removes every pair for which del returns true and reports how
// many were removed. del runs under the shard's write lock.
func (m *Map[K, V]) DeleteFunc(del func(key K, value V) bool) int {
	removed := 0
	for _, shard := range m.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			if del(k, v) {
				delete(shard.items, k)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}
