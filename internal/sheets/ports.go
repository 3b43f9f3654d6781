package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound mirror adapters.
type (
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionDeleter removes a mirrored transaction. The full transaction
	// is passed, not just the id: the local row is already gone by the time a
	// delete message is processed.
	TransactionDeleter interface {
		Delete(ctx context.Context, t core.Transaction) error
	}
)
