// Package indexer exports the settlement audit trail to external stores.
package indexer

import (
	"context"
	"sort"
	"sync"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// Sink persists audit records. Write must be idempotent per sequence number so
// a batch can be retried after a partial failure.
type Sink interface {
	// LastSeq returns the highest sequence stored, or 0 when empty.
	LastSeq(ctx context.Context) (uint64, error)
	Write(ctx context.Context, records []types.AuditRecord) error
	Close() error
}

// MemorySink keeps records in memory. Used by tests and dry runs.
type MemorySink struct {
	mu      sync.RWMutex
	records map[uint64]types.AuditRecord
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{records: make(map[uint64]types.AuditRecord)}
}

// LastSeq implements Sink.
func (s *MemorySink) LastSeq(context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last uint64
	for seq := range s.records {
		if seq > last {
			last = seq
		}
	}
	return last, nil
}

// Write implements Sink; existing sequence numbers are left untouched.
func (s *MemorySink) Write(_ context.Context, records []types.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if _, ok := s.records[rec.Seq]; !ok {
			s.records[rec.Seq] = rec
		}
	}
	return nil
}

// Records returns the stored records in sequence order.
func (s *MemorySink) Records() []types.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.AuditRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Close implements Sink.
func (s *MemorySink) Close() error { return nil }
