package clicklog

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store for tests and single-node development.
type Memory struct {
	mu     sync.Mutex
	clicks map[string][]time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{clicks: make(map[string][]time.Time)}
}

func (m *Memory) Record(_ context.Context, ipHash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks[ipHash] = append(m.clicks[ipHash], at)
	return nil
}

func (m *Memory) CountSince(_ context.Context, ipHash string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, at := range m.clicks[ipHash] {
		if at.After(since) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Prune(_ context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ipHash, times := range m.clicks {
		kept := times[:0]
		for _, at := range times {
			if !at.Before(before) {
				kept = append(kept, at)
			}
		}
		if len(kept) == 0 {
			delete(m.clicks, ipHash)
			continue
		}
		m.clicks[ipHash] = kept
	}
	return nil
}
