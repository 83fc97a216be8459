package rowsource

import (
	"context"

	"github.com/rxtech-lab/pnl-downloader/internal/types"
)

// RowSource supplies trader and PnL rows to the downloader.
type RowSource interface {
	// TradersForStrategy returns the ids of every trader currently in the strategy.
	// An empty result means the strategy has no traders.
	TradersForStrategy(ctx context.Context, strategyID string) ([]string, error)
	// PnlForTraders returns the PnL rows of the given traders dated on or after startDate
	// (YYYYMMDD, inclusive). Traders without rows in range are absent from the result.
	PnlForTraders(ctx context.Context, traderIDs []string, startDate string) ([]types.PnlRow, error)
	// Close releases the underlying connection pool.
	Close() error
}
