package sync

import (
	"context"
	"time"

	"github.com/rafaelduartes/salescope-backend/pkg/ventra"
)

// GatewayClient is the per-brand fetch capability the sync engine drives.
// Implementations own pagination, date windowing, and request pacing; the
// engine only sees canonical records.
type GatewayClient interface {
	TestConnection(ctx context.Context) error
	FetchSales(ctx context.Context, from, to time.Time) ([]ventra.SaleRecord, error)
	FetchAbandons(ctx context.Context, from, to time.Time) ([]ventra.AbandonRecord, error)
	FetchProducts(ctx context.Context) ([]ventra.ProductRecord, error)
}
