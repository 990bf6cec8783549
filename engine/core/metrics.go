package core

import "sync/atomic"

// CacheMetrics counts asset cache activity. Safe for concurrent use.
type CacheMetrics struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	loads   atomic.Uint64
	failed  atomic.Uint64
	expired atomic.Uint64
}

type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Loads   uint64
	Failed  uint64
	Expired uint64
}

func (m *CacheMetrics) Hit() {
	m.hits.Add(1)
}

func (m *CacheMetrics) Miss() {
	m.misses.Add(1)
}

func (m *CacheMetrics) Load() {
	m.loads.Add(1)
}

func (m *CacheMetrics) Fail() {
	m.failed.Add(1)
}

func (m *CacheMetrics) Expire() {
	m.expired.Add(1)
}

func (m *CacheMetrics) Snapshot() CacheStats {
	return CacheStats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Loads:   m.loads.Load(),
		Failed:  m.failed.Load(),
		Expired: m.expired.Load(),
	}
}
