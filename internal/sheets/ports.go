package sheets

import (
	"context"

	"moneytracker/internal/core"
)

// Ports for outbound adapters.
type TransactionAppender interface {
	Append(ctx context.Context, tx core.Transaction, sourceName string) (rowRef string, err error)
}
