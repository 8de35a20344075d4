// Package cmap provides a sharded map safe for concurrent use.
//
// Each shard has its own RWMutex, so lookups of different keys rarely
// contend. It backs per-client state such as login rate limiters.
//
//	m := cmap.New[string, *rate.Limiter]()
//	l, _ := m.GetOrSet(ip, rate.NewLimiter(1, 5))
package cmap
