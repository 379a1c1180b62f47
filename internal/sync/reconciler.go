package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	dbtypes "github.com/rafaelduartes/salescope-backend/pkg/db/types"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
	"github.com/rafaelduartes/salescope-backend/pkg/ventra"
)

type reconcileStore interface {
	UpsertSales(ctx context.Context, sales []models.Sale) (int, error)
	UpsertAbandons(ctx context.Context, abandons []models.Abandon) (int, error)
	UpsertProducts(ctx context.Context, products []models.Product) (int, error)
}

// Reconciler maps canonical gateway records onto local rows and upserts them
// by their natural composite keys, making ingestion replay-safe.
type Reconciler struct {
	store reconcileStore
	logg  *logger.Logger
}

// NewReconciler builds a reconciler over the sync store.
func NewReconciler(store reconcileStore, logg *logger.Logger) (*Reconciler, error) {
	if store == nil {
		return nil, fmt.Errorf("sync store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reconciler{store: store, logg: logg}, nil
}

// ReconcileSales upserts sale records under the gateway. Records without a
// transaction key are skipped; duplicate keys within the batch collapse to
// the last occurrence so a single statement never touches one row twice.
func (r *Reconciler) ReconcileSales(ctx context.Context, gatewayConfigID uuid.UUID, records []ventra.SaleRecord) (int, error) {
	rows := make([]models.Sale, 0, len(records))
	index := make(map[string]int, len(records))
	skipped := 0

	for _, record := range records {
		if record.TransactionKey == "" {
			skipped++
			continue
		}
		status, err := enums.ParseSaleStatus(record.Status)
		if err != nil {
			r.logg.Warn(r.logg.WithField(ctx, "transaction_key", record.TransactionKey), "unknown sale status, defaulting to awaiting payment")
		}
		row := models.Sale{
			ID:                     uuid.New(),
			GatewayConfigID:        gatewayConfigID,
			ExternalTransactionKey: record.TransactionKey,
			ProductKey:             record.ProductKey,
			ProductName:            record.ProductName,
			PlanKey:                record.PlanKey,
			PlanName:               record.PlanName,
			ClientName:             record.ClientName,
			ClientEmail:            record.ClientEmail,
			ClientPhone:            record.ClientPhone,
			ClientDocument:         record.ClientDocument,
			AmountCents:            record.AmountCents,
			NetAmountCents:         record.NetAmountCents,
			PaymentMethod:          record.PaymentMethod,
			Status:                 status,
			Commissions:            mapCommissions(record.Commissions),
			SaleDate:               record.SaleDate,
		}
		if at, ok := index[record.TransactionKey]; ok {
			row.ID = rows[at].ID
			rows[at] = row
			continue
		}
		index[record.TransactionKey] = len(rows)
		rows = append(rows, row)
	}

	if skipped > 0 {
		r.logg.Warn(r.logg.WithField(ctx, "skipped", skipped), "dropped sale records without a transaction key")
	}
	return r.store.UpsertSales(ctx, rows)
}

// ReconcileAbandons upserts abandon records. Records missing a gateway id get
// a deterministic fallback key so replays still collapse onto one row.
func (r *Reconciler) ReconcileAbandons(ctx context.Context, gatewayConfigID uuid.UUID, records []ventra.AbandonRecord) (int, error) {
	rows := make([]models.Abandon, 0, len(records))
	index := make(map[string]int, len(records))

	for _, record := range records {
		key := record.AbandonKey
		if key == "" {
			key = abandonFallbackKey(record)
		}
		row := models.Abandon{
			ID:              uuid.New(),
			GatewayConfigID: gatewayConfigID,
			AbandonKey:      key,
			ProductKey:      record.ProductKey,
			ProductName:     record.ProductName,
			ClientName:      record.ClientName,
			ClientEmail:     record.ClientEmail,
			ClientPhone:     record.ClientPhone,
			CheckoutURL:     record.CheckoutURL,
			AmountCents:     record.AmountCents,
			AbandonedAt:     record.AbandonedAt,
		}
		if at, ok := index[key]; ok {
			row.ID = rows[at].ID
			rows[at] = row
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}

	return r.store.UpsertAbandons(ctx, rows)
}

// ReconcileProducts upserts the gateway's product listings. A product present
// in more than one listing variant keeps the first role seen, producer
// listings coming first.
func (r *Reconciler) ReconcileProducts(ctx context.Context, gatewayConfigID uuid.UUID, records []ventra.ProductRecord) (int, error) {
	rows := make([]models.Product, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	skipped := 0

	for _, record := range records {
		if record.ProductHash == "" {
			skipped++
			continue
		}
		if _, ok := seen[record.ProductHash]; ok {
			continue
		}
		seen[record.ProductHash] = struct{}{}
		rows = append(rows, models.Product{
			ID:              uuid.New(),
			GatewayConfigID: gatewayConfigID,
			ProductHash:     record.ProductHash,
			Name:            record.Name,
			SourceRole:      string(record.Role),
			Description:     record.Description,
			PriceCents:      record.PriceCents,
		})
	}

	if skipped > 0 {
		r.logg.Warn(r.logg.WithField(ctx, "skipped", skipped), "dropped product records without a hash")
	}
	return r.store.UpsertProducts(ctx, rows)
}

func mapCommissions(records []ventra.CommissionRecord) dbtypes.CommissionList {
	if len(records) == 0 {
		return nil
	}
	out := make(dbtypes.CommissionList, 0, len(records))
	for _, record := range records {
		out = append(out, dbtypes.CommissionEntry{
			Type:          record.Type,
			AffiliateCode: record.AffiliateCode,
			Name:          record.Name,
			Email:         record.Email,
			ValueCents:    record.ValueCents,
		})
	}
	return out
}

// abandonFallbackKey derives a stable identity for abandons the gateway ships
// without an id. Two fetches of the same abandon must produce the same key.
func abandonFallbackKey(record ventra.AbandonRecord) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d", record.ProductKey, record.ClientEmail, record.AbandonedAt.Unix()))
	return "derived-" + hex.EncodeToString(sum[:16])
}
