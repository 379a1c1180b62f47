package sync

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
)

const upsertBatchSize = 200

// Repository owns the sync engine's writes: idempotent upserts for ingested
// entities and the bulk queries behind aggregate rebuilds.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to sync persistence.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertSales inserts or fully replaces sales keyed by
// (gateway_config_id, external_transaction_key). Returns rows touched.
func (r *Repository) UpsertSales(ctx context.Context, sales []models.Sale) (int, error) {
	if len(sales) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gateway_config_id"}, {Name: "external_transaction_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"product_key", "product_name", "plan_key", "plan_name",
			"client_name", "client_email", "client_phone", "client_document",
			"amount_cents", "net_amount_cents", "payment_method", "status",
			"commissions", "sale_date", "updated_at",
		}),
	}).CreateInBatches(sales, upsertBatchSize).Error
	if err != nil {
		return 0, err
	}
	return len(sales), nil
}

// UpsertAbandons inserts or fully replaces abandons keyed by
// (gateway_config_id, abandon_key). Returns rows touched.
func (r *Repository) UpsertAbandons(ctx context.Context, abandons []models.Abandon) (int, error) {
	if len(abandons) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gateway_config_id"}, {Name: "abandon_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"product_key", "product_name", "client_name", "client_email",
			"client_phone", "checkout_url", "amount_cents", "abandoned_at",
			"updated_at",
		}),
	}).CreateInBatches(abandons, upsertBatchSize).Error
	if err != nil {
		return 0, err
	}
	return len(abandons), nil
}

// UpsertProducts inserts or refreshes gateway-listed products keyed by
// (gateway_config_id, product_hash). Only gateway-supplied metadata is
// written; derived statistics belong to the rebuild step.
func (r *Repository) UpsertProducts(ctx context.Context, products []models.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gateway_config_id"}, {Name: "product_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "source_role", "description", "price_cents", "updated_at",
		}),
	}).CreateInBatches(products, upsertBatchSize).Error
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

// ListProducts returns every product row under a gateway.
func (r *Repository) ListProducts(ctx context.Context, gatewayConfigID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("gateway_config_id = ?", gatewayConfigID).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ProductSeed is a distinct (key, name) pair observed in ingested rows.
type ProductSeed struct {
	ProductKey  string
	ProductName string
}

// DistinctSaleProducts lists the product identities referenced by sales.
func (r *Repository) DistinctSaleProducts(ctx context.Context, gatewayConfigID uuid.UUID) ([]ProductSeed, error) {
	var seeds []ProductSeed
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("product_key, MAX(product_name) AS product_name").
		Where("gateway_config_id = ? AND product_key <> ''", gatewayConfigID).
		Group("product_key").
		Scan(&seeds).Error
	if err != nil {
		return nil, err
	}
	return seeds, nil
}

// DistinctAbandonProducts lists the product identities referenced by abandons.
func (r *Repository) DistinctAbandonProducts(ctx context.Context, gatewayConfigID uuid.UUID) ([]ProductSeed, error) {
	var seeds []ProductSeed
	err := r.db.WithContext(ctx).
		Model(&models.Abandon{}).
		Select("product_key, MAX(product_name) AS product_name").
		Where("gateway_config_id = ? AND product_key <> ''", gatewayConfigID).
		Group("product_key").
		Scan(&seeds).Error
	if err != nil {
		return nil, err
	}
	return seeds, nil
}

// PlanCandidate is one (productKey, planKey) pair seen in any sale row,
// approved or not.
type PlanCandidate struct {
	ProductKey string
	PlanKey    string
	PlanName   string
}

// PlanCandidates groups every sale row by product and plan key, so plans with
// zero approved sales still earn a row.
func (r *Repository) PlanCandidates(ctx context.Context, gatewayConfigID uuid.UUID) ([]PlanCandidate, error) {
	var candidates []PlanCandidate
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("product_key, plan_key, MAX(plan_name) AS plan_name").
		Where("gateway_config_id = ? AND plan_key <> ''", gatewayConfigID).
		Group("product_key, plan_key").
		Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// PlanStat carries approved-only figures for one (productKey, planKey) pair.
type PlanStat struct {
	ProductKey        string
	PlanKey           string
	TotalSales        int64
	TotalRevenueCents int64
}

// PlanApprovedStats sums approved sales per (productKey, planKey).
func (r *Repository) PlanApprovedStats(ctx context.Context, gatewayConfigID uuid.UUID) ([]PlanStat, error) {
	var stats []PlanStat
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("product_key, plan_key, COUNT(*) AS total_sales, COALESCE(SUM(amount_cents), 0) AS total_revenue_cents").
		Where("gateway_config_id = ? AND plan_key <> '' AND status = ?", gatewayConfigID, enums.SaleStatusApproved).
		Group("product_key, plan_key").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ListSales loads every sale row under a gateway for commission aggregation.
func (r *Repository) ListSales(ctx context.Context, gatewayConfigID uuid.UUID) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Where("gateway_config_id = ?", gatewayConfigID).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// ReplacePlans swaps the gateway's plan rows for the freshly derived set in
// one transaction.
func (r *Repository) ReplacePlans(ctx context.Context, gatewayConfigID uuid.UUID, plans []models.Plan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gateway_config_id = ?", gatewayConfigID).Delete(&models.Plan{}).Error; err != nil {
			return err
		}
		if len(plans) == 0 {
			return nil
		}
		return tx.CreateInBatches(plans, upsertBatchSize).Error
	})
}

// ReplaceAffiliates swaps the gateway's affiliate rows for the freshly
// derived set in one transaction.
func (r *Repository) ReplaceAffiliates(ctx context.Context, gatewayConfigID uuid.UUID, affiliates []models.Affiliate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gateway_config_id = ?", gatewayConfigID).Delete(&models.Affiliate{}).Error; err != nil {
			return err
		}
		if len(affiliates) == 0 {
			return nil
		}
		return tx.CreateInBatches(affiliates, upsertBatchSize).Error
	})
}

// ProductTally is an aggregate per product key.
type ProductTally struct {
	ProductKey        string
	Total             int64
	TotalRevenueCents int64
}

// ApprovedSaleTallies counts approved sales and revenue per product key.
func (r *Repository) ApprovedSaleTallies(ctx context.Context, gatewayConfigID uuid.UUID) ([]ProductTally, error) {
	var tallies []ProductTally
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("product_key, COUNT(*) AS total, COALESCE(SUM(amount_cents), 0) AS total_revenue_cents").
		Where("gateway_config_id = ? AND status = ?", gatewayConfigID, enums.SaleStatusApproved).
		Group("product_key").
		Scan(&tallies).Error
	if err != nil {
		return nil, err
	}
	return tallies, nil
}

// AbandonTallies counts abandons per product key.
func (r *Repository) AbandonTallies(ctx context.Context, gatewayConfigID uuid.UUID) ([]ProductTally, error) {
	var tallies []ProductTally
	err := r.db.WithContext(ctx).
		Model(&models.Abandon{}).
		Select("product_key, COUNT(*) AS total").
		Where("gateway_config_id = ?", gatewayConfigID).
		Group("product_key").
		Scan(&tallies).Error
	if err != nil {
		return nil, err
	}
	return tallies, nil
}

// UpdateProductStats writes the recomputed statistics onto one product row.
func (r *Repository) UpdateProductStats(ctx context.Context, productID uuid.UUID, totalSales, totalRevenueCents, totalAbandons int64, conversionRate float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"total_sales":         totalSales,
			"total_revenue_cents": totalRevenueCents,
			"total_abandons":      totalAbandons,
			"conversion_rate":     conversionRate,
		}).Error
}
