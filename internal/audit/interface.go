package audit

import (
	"context"

	"github.com/kenya-hie/platform/internal/shared/types"
)

// Repository defines the interface for audit storage. Implementations are
// append-only; entries are never updated or deleted.
type Repository interface {
	// Initialize loads initial state (last hash, sequence)
	Initialize(ctx context.Context) error

	// Append appends a new audit entry, linking it into the hash chain
	Append(ctx context.Context, entry *Entry) error

	// FindByID finds an audit entry by ID
	FindByID(ctx context.Context, id types.ID) (*Entry, error)

	// List lists audit entries with filters, newest first
	List(ctx context.Context, filter ListEntriesFilter) ([]*Entry, int, error)

	// VerifyChain verifies the integrity of the audit chain
	VerifyChain(ctx context.Context, limit int) (*VerifyResult, error)

	// LastHash returns the last hash in the chain
	LastHash() string

	// Count returns the total number of audit entries
	Count(ctx context.Context) (int, error)
}

// Ensure implementations satisfy the interface
var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*KurrentDBRepository)(nil)
)
