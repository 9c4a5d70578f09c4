package audit

import (
	"context"
	"strconv"
	"sync"

	"github.com/kenya-hie/platform/internal/shared/errors"
	"github.com/kenya-hie/platform/internal/shared/metrics"
	"github.com/kenya-hie/platform/internal/shared/types"
)

// MemoryRepository is an in-memory audit store, used when the platform runs
// without KurrentDB (development and tests). The hash chain semantics are
// identical to the durable implementations.
type MemoryRepository struct {
	mu       sync.Mutex
	entries  []*Entry
	lastHash string
	sequence int64
}

// NewMemoryRepository creates a new in-memory audit repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Initialize is a no-op for the in-memory store
func (r *MemoryRepository) Initialize(ctx context.Context) error {
	return nil
}

// Append appends a new audit entry (thread-safe)
func (r *MemoryRepository) Append(ctx context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.PrevHash = r.lastHash
	entry.Hash = entry.calculateHash()

	r.sequence++
	entry.Sequence = r.sequence

	r.entries = append(r.entries, entry)
	r.lastHash = entry.Hash

	metrics.RecordAuditEntry()
	return nil
}

// FindByID finds an audit entry by ID
func (r *MemoryRepository) FindByID(ctx context.Context, id types.ID) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, errors.NotFound("audit entry", id.String())
}

// List lists audit entries matching the filter, newest first
func (r *MemoryRepository) List(ctx context.Context, filter ListEntriesFilter) ([]*Entry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if matchesFilter(entry, filter) {
			matched = append(matched, entry)
		}
	}

	total := len(matched)

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[filter.Offset:]
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, total, nil
}

func matchesFilter(entry *Entry, filter ListEntriesFilter) bool {
	if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
		return false
	}
	if filter.ActorType != nil && entry.ActorType != *filter.ActorType {
		return false
	}
	if filter.Action != "" && entry.Action != filter.Action {
		return false
	}
	if filter.ResourceType != "" && entry.ResourceType != filter.ResourceType {
		return false
	}
	if filter.ResourceID != nil {
		if entry.ResourceID == nil || *entry.ResourceID != *filter.ResourceID {
			return false
		}
	}
	if filter.StartTime != nil && entry.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && entry.Timestamp.After(*filter.EndTime) {
		return false
	}
	return true
}

// VerifyChain verifies hash integrity over the most recent entries
func (r *MemoryRepository) VerifyChain(ctx context.Context, limit int) (*VerifyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	result := &VerifyResult{Valid: true}
	var prevHash string
	for i, entry := range entries {
		result.CheckedCount++

		if !entry.VerifyHash() {
			result.Valid = false
			seq := entry.Sequence
			result.BrokenAt = &seq
			result.Problems = append(result.Problems, "entry hash mismatch at sequence "+itoa(seq))
			return result, nil
		}

		// The first checked entry may chain to an unchecked predecessor
		if i > 0 && entry.PrevHash != prevHash {
			result.Valid = false
			seq := entry.Sequence
			result.BrokenAt = &seq
			result.Problems = append(result.Problems, "chain break at sequence "+itoa(seq))
			return result, nil
		}
		prevHash = entry.Hash
	}

	return result, nil
}

// LastHash returns the last hash in the chain
func (r *MemoryRepository) LastHash() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastHash
}

// Count returns the total number of audit entries
func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries), nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
