package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
)

type aggregateStore interface {
	ListProducts(ctx context.Context, gatewayConfigID uuid.UUID) ([]models.Product, error)
	DistinctSaleProducts(ctx context.Context, gatewayConfigID uuid.UUID) ([]ProductSeed, error)
	DistinctAbandonProducts(ctx context.Context, gatewayConfigID uuid.UUID) ([]ProductSeed, error)
	UpsertProducts(ctx context.Context, products []models.Product) (int, error)
	PlanCandidates(ctx context.Context, gatewayConfigID uuid.UUID) ([]PlanCandidate, error)
	PlanApprovedStats(ctx context.Context, gatewayConfigID uuid.UUID) ([]PlanStat, error)
	ListSales(ctx context.Context, gatewayConfigID uuid.UUID) ([]models.Sale, error)
	ReplacePlans(ctx context.Context, gatewayConfigID uuid.UUID, plans []models.Plan) error
	ReplaceAffiliates(ctx context.Context, gatewayConfigID uuid.UUID, affiliates []models.Affiliate) error
	ApprovedSaleTallies(ctx context.Context, gatewayConfigID uuid.UUID) ([]ProductTally, error)
	AbandonTallies(ctx context.Context, gatewayConfigID uuid.UUID) ([]ProductTally, error)
	UpdateProductStats(ctx context.Context, productID uuid.UUID, totalSales, totalRevenueCents, totalAbandons int64, conversionRate float64) error
}

// AggregateRebuilder recomputes the derived tables (plans, affiliates,
// per-product statistics) wholesale from ingested sale and abandon rows.
type AggregateRebuilder struct {
	store aggregateStore
	logg  *logger.Logger
}

// NewAggregateRebuilder builds a rebuilder over the sync store.
func NewAggregateRebuilder(store aggregateStore, logg *logger.Logger) (*AggregateRebuilder, error) {
	if store == nil {
		return nil, fmt.Errorf("sync store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &AggregateRebuilder{store: store, logg: logg}, nil
}

// SeedMissingProducts inserts product rows for keys referenced by sales or
// abandons but absent from the gateway's listings. Returns rows touched.
func (a *AggregateRebuilder) SeedMissingProducts(ctx context.Context, gatewayConfigID uuid.UUID) (int, error) {
	existing, err := a.store.ListProducts(ctx, gatewayConfigID)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, product := range existing {
		known[product.ProductHash] = struct{}{}
	}

	saleSeeds, err := a.store.DistinctSaleProducts(ctx, gatewayConfigID)
	if err != nil {
		return 0, err
	}
	abandonSeeds, err := a.store.DistinctAbandonProducts(ctx, gatewayConfigID)
	if err != nil {
		return 0, err
	}

	var missing []models.Product
	for _, seed := range append(saleSeeds, abandonSeeds...) {
		if _, ok := known[seed.ProductKey]; ok {
			continue
		}
		known[seed.ProductKey] = struct{}{}
		name := seed.ProductName
		if name == "" {
			name = seed.ProductKey
		}
		missing = append(missing, models.Product{
			ID:              uuid.New(),
			GatewayConfigID: gatewayConfigID,
			ProductHash:     seed.ProductKey,
			Name:            name,
		})
	}

	return a.store.UpsertProducts(ctx, missing)
}

// RebuildPlans replaces the gateway's plan rows with one row per
// (product, planKey) pair seen in sales, carrying approved-only figures. A
// plan with zero approved sales still gets a zero-stat row.
func (a *AggregateRebuilder) RebuildPlans(ctx context.Context, gatewayConfigID uuid.UUID) error {
	products, err := a.store.ListProducts(ctx, gatewayConfigID)
	if err != nil {
		return err
	}
	productIDs := make(map[string]uuid.UUID, len(products))
	for _, product := range products {
		productIDs[product.ProductHash] = product.ID
	}

	candidates, err := a.store.PlanCandidates(ctx, gatewayConfigID)
	if err != nil {
		return err
	}
	stats, err := a.store.PlanApprovedStats(ctx, gatewayConfigID)
	if err != nil {
		return err
	}

	type planKey struct{ product, plan string }
	statIndex := make(map[planKey]PlanStat, len(stats))
	for _, stat := range stats {
		statIndex[planKey{stat.ProductKey, stat.PlanKey}] = stat
	}

	plans := make([]models.Plan, 0, len(candidates))
	orphans := 0
	for _, candidate := range candidates {
		productID, ok := productIDs[candidate.ProductKey]
		if !ok {
			orphans++
			continue
		}
		stat := statIndex[planKey{candidate.ProductKey, candidate.PlanKey}]
		plans = append(plans, models.Plan{
			ID:                uuid.New(),
			ProductID:         productID,
			GatewayConfigID:   gatewayConfigID,
			PlanKey:           candidate.PlanKey,
			Name:              candidate.PlanName,
			TotalSales:        stat.TotalSales,
			TotalRevenueCents: stat.TotalRevenueCents,
		})
	}
	if orphans > 0 {
		a.logg.Warn(a.logg.WithField(ctx, "orphans", orphans), "plan candidates referenced unknown products")
	}

	return a.store.ReplacePlans(ctx, gatewayConfigID, plans)
}

// RebuildAffiliates replaces the gateway's affiliate rows by aggregating the
// commission lists embedded in sales. Every sale's list nominates candidate
// rows; only approved sales contribute to the summed figures, so an affiliate
// seen solely on refunded or canceled sales keeps a zero-stat row.
func (a *AggregateRebuilder) RebuildAffiliates(ctx context.Context, gatewayConfigID uuid.UUID) error {
	sales, err := a.store.ListSales(ctx, gatewayConfigID)
	if err != nil {
		return err
	}

	totals := make(map[string]*models.Affiliate)
	for _, sale := range sales {
		approved := sale.Status == enums.SaleStatusApproved
		// An affiliate is credited once per sale even if the split lists it
		// in several entries.
		credited := make(map[string]struct{})
		for _, entry := range sale.Commissions {
			if !entry.IsAffiliateCommission() {
				continue
			}
			affiliate, ok := totals[entry.AffiliateCode]
			if !ok {
				affiliate = &models.Affiliate{
					ID:              uuid.New(),
					GatewayConfigID: gatewayConfigID,
					AffiliateHash:   entry.AffiliateCode,
					Name:            entry.Name,
					Email:           entry.Email,
				}
				totals[entry.AffiliateCode] = affiliate
			}
			if affiliate.Name == "" {
				affiliate.Name = entry.Name
			}
			if affiliate.Email == "" {
				affiliate.Email = entry.Email
			}
			if !approved {
				continue
			}
			affiliate.TotalCommissionCents += entry.ValueCents
			if _, ok := credited[entry.AffiliateCode]; !ok {
				credited[entry.AffiliateCode] = struct{}{}
				affiliate.TotalSales++
				affiliate.TotalRevenueCents += sale.AmountCents
			}
		}
	}

	affiliates := make([]models.Affiliate, 0, len(totals))
	for _, affiliate := range totals {
		affiliates = append(affiliates, *affiliate)
	}

	return a.store.ReplaceAffiliates(ctx, gatewayConfigID, affiliates)
}

// RebuildProductStats recomputes totals and conversion rate on every product
// row from the ingested sale and abandon tables.
func (a *AggregateRebuilder) RebuildProductStats(ctx context.Context, gatewayConfigID uuid.UUID) error {
	products, err := a.store.ListProducts(ctx, gatewayConfigID)
	if err != nil {
		return err
	}
	saleTallies, err := a.store.ApprovedSaleTallies(ctx, gatewayConfigID)
	if err != nil {
		return err
	}
	abandonTallies, err := a.store.AbandonTallies(ctx, gatewayConfigID)
	if err != nil {
		return err
	}

	sales := make(map[string]ProductTally, len(saleTallies))
	for _, tally := range saleTallies {
		sales[tally.ProductKey] = tally
	}
	abandons := make(map[string]int64, len(abandonTallies))
	for _, tally := range abandonTallies {
		abandons[tally.ProductKey] = tally.Total
	}

	for _, product := range products {
		saleTally := sales[product.ProductHash]
		abandonTotal := abandons[product.ProductHash]
		rate := conversionRate(saleTally.Total, abandonTotal)
		if err := a.store.UpdateProductStats(ctx, product.ID, saleTally.Total, saleTally.TotalRevenueCents, abandonTotal, rate); err != nil {
			return err
		}
	}
	return nil
}

// conversionRate is sales / (sales + abandons) x 100, rounded to two places.
// A zero denominator yields zero.
func conversionRate(sales, abandons int64) float64 {
	denominator := sales + abandons
	if denominator == 0 {
		return 0
	}
	rate := decimal.NewFromInt(sales).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(denominator)).
		Round(2)
	value, _ := rate.Float64()
	return value
}
