package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	dbtypes "github.com/rafaelduartes/salescope-backend/pkg/db/types"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
)

func setupSyncTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  gateway_config_id TEXT NOT NULL,
  external_transaction_key TEXT NOT NULL,
  product_key TEXT NOT NULL,
  product_name TEXT,
  plan_key TEXT,
  plan_name TEXT,
  client_name TEXT,
  client_email TEXT,
  client_phone TEXT,
  client_document TEXT,
  amount_cents INTEGER NOT NULL DEFAULT 0,
  net_amount_cents INTEGER NOT NULL DEFAULT 0,
  payment_method TEXT,
  status TEXT NOT NULL,
  commissions TEXT,
  sale_date DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (gateway_config_id, external_transaction_key)
);`,
		`CREATE TABLE IF NOT EXISTS abandons (
  id TEXT PRIMARY KEY,
  gateway_config_id TEXT NOT NULL,
  abandon_key TEXT NOT NULL,
  product_key TEXT NOT NULL,
  product_name TEXT,
  client_name TEXT,
  client_email TEXT,
  client_phone TEXT,
  checkout_url TEXT,
  amount_cents INTEGER NOT NULL DEFAULT 0,
  abandoned_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (gateway_config_id, abandon_key)
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  gateway_config_id TEXT NOT NULL,
  product_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  source_role TEXT,
  description TEXT,
  price_cents INTEGER NOT NULL DEFAULT 0,
  total_sales INTEGER NOT NULL DEFAULT 0,
  total_revenue_cents INTEGER NOT NULL DEFAULT 0,
  total_abandons INTEGER NOT NULL DEFAULT 0,
  conversion_rate REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (gateway_config_id, product_hash)
);`,
		`CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  gateway_config_id TEXT NOT NULL,
  plan_key TEXT NOT NULL,
  name TEXT,
  total_sales INTEGER NOT NULL DEFAULT 0,
  total_revenue_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_id, plan_key)
);`,
		`CREATE TABLE IF NOT EXISTS affiliates (
  id TEXT PRIMARY KEY,
  gateway_config_id TEXT NOT NULL,
  affiliate_hash TEXT NOT NULL,
  name TEXT,
  email TEXT,
  total_sales INTEGER NOT NULL DEFAULT 0,
  total_revenue_cents INTEGER NOT NULL DEFAULT 0,
  total_commission_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (gateway_config_id, affiliate_hash)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func saleRow(gatewayID uuid.UUID, key, productKey, planKey string, status enums.SaleStatus, amountCents int64) models.Sale {
	return models.Sale{
		ID:                     uuid.New(),
		GatewayConfigID:        gatewayID,
		ExternalTransactionKey: key,
		ProductKey:             productKey,
		ProductName:            "Product " + productKey,
		PlanKey:                planKey,
		PlanName:               "Plan " + planKey,
		AmountCents:            amountCents,
		Status:                 status,
		SaleDate:               time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertSalesIsIdempotent(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	gatewayID := uuid.New()

	first := saleRow(gatewayID, "tx-1", "prod-1", "plan-1", enums.SaleStatusApproved, 1000)
	count, err := repo.UpsertSales(ctx, []models.Sale{first})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Replaying the same transaction with changed fields must overwrite the
	// existing row, not add a second one.
	replay := saleRow(gatewayID, "tx-1", "prod-1", "plan-1", enums.SaleStatusRefunded, 1500)
	count, err = repo.UpsertSales(ctx, []models.Sale{replay})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var rows []models.Sale
	require.NoError(t, db.Where("gateway_config_id = ?", gatewayID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, enums.SaleStatusRefunded, rows[0].Status)
	assert.Equal(t, int64(1500), rows[0].AmountCents)
}

func TestUpsertSalesScopesKeyPerGateway(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	gatewayA := uuid.New()
	gatewayB := uuid.New()
	_, err := repo.UpsertSales(ctx, []models.Sale{
		saleRow(gatewayA, "tx-1", "prod-1", "plan-1", enums.SaleStatusApproved, 1000),
		saleRow(gatewayB, "tx-1", "prod-1", "plan-1", enums.SaleStatusApproved, 2000),
	})
	require.NoError(t, err)

	var total int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&total).Error)
	assert.Equal(t, int64(2), total)
}

func TestUpsertAbandonsIsIdempotent(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	gatewayID := uuid.New()

	row := models.Abandon{
		ID:              uuid.New(),
		GatewayConfigID: gatewayID,
		AbandonKey:      "ab-1",
		ProductKey:      "prod-1",
		AmountCents:     500,
		AbandonedAt:     time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	_, err := repo.UpsertAbandons(ctx, []models.Abandon{row})
	require.NoError(t, err)

	row.ID = uuid.New()
	row.AmountCents = 900
	_, err = repo.UpsertAbandons(ctx, []models.Abandon{row})
	require.NoError(t, err)

	var rows []models.Abandon
	require.NoError(t, db.Where("gateway_config_id = ?", gatewayID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(900), rows[0].AmountCents)
}

func TestUpsertProductsPreservesDerivedStats(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	gatewayID := uuid.New()

	product := models.Product{
		ID:              uuid.New(),
		GatewayConfigID: gatewayID,
		ProductHash:     "prod-1",
		Name:            "Course",
		PriceCents:      10000,
	}
	_, err := repo.UpsertProducts(ctx, []models.Product{product})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateProductStats(ctx, product.ID, 5, 50000, 0, 100))

	// A later listing refresh must update metadata without clobbering the
	// rebuilt statistics.
	refreshed := product
	refreshed.ID = uuid.New()
	refreshed.Name = "Course v2"
	_, err = repo.UpsertProducts(ctx, []models.Product{refreshed})
	require.NoError(t, err)

	var rows []models.Product
	require.NoError(t, db.Where("gateway_config_id = ?", gatewayID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Course v2", rows[0].Name)
	assert.Equal(t, int64(5), rows[0].TotalSales)
	assert.Equal(t, float64(100), rows[0].ConversionRate)
}

func TestPlanQueriesSeparateCandidatesFromApprovedStats(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	gatewayID := uuid.New()

	_, err := repo.UpsertSales(ctx, []models.Sale{
		saleRow(gatewayID, "tx-1", "prod-1", "plan-a", enums.SaleStatusApproved, 1000),
		saleRow(gatewayID, "tx-2", "prod-1", "plan-a", enums.SaleStatusApproved, 1000),
		saleRow(gatewayID, "tx-3", "prod-1", "plan-b", enums.SaleStatusCanceled, 1000),
	})
	require.NoError(t, err)

	candidates, err := repo.PlanCandidates(ctx, gatewayID)
	require.NoError(t, err)
	assert.Len(t, candidates, 2, "canceled-only plans still earn a candidate row")

	stats, err := repo.PlanApprovedStats(ctx, gatewayID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "plan-a", stats[0].PlanKey)
	assert.Equal(t, int64(2), stats[0].TotalSales)
	assert.Equal(t, int64(2000), stats[0].TotalRevenueCents)
}

func TestReplacePlansSwapsWholesale(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	gatewayID := uuid.New()
	productID := uuid.New()

	stale := models.Plan{ID: uuid.New(), ProductID: productID, GatewayConfigID: gatewayID, PlanKey: "old"}
	require.NoError(t, db.Create(&stale).Error)

	fresh := models.Plan{ID: uuid.New(), ProductID: productID, GatewayConfigID: gatewayID, PlanKey: "new", TotalSales: 3}
	require.NoError(t, repo.ReplacePlans(ctx, gatewayID, []models.Plan{fresh}))

	var rows []models.Plan
	require.NoError(t, db.Where("gateway_config_id = ?", gatewayID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].PlanKey)
}

func TestCommissionListRoundTripsThroughStore(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	gatewayID := uuid.New()

	sale := saleRow(gatewayID, "tx-1", "prod-1", "plan-a", enums.SaleStatusApproved, 1000)
	sale.Commissions = dbtypes.CommissionList{
		{Type: "affiliate", AffiliateCode: "AFF1", Name: "Alex", ValueCents: 250},
		{Type: "producer", Name: "Owner", ValueCents: 750},
	}
	_, err := repo.UpsertSales(ctx, []models.Sale{sale})
	require.NoError(t, err)

	sales, err := repo.ListSales(ctx, gatewayID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.Len(t, sales[0].Commissions, 2)
	assert.True(t, sales[0].Commissions[0].IsAffiliateCommission())
	assert.False(t, sales[0].Commissions[1].IsAffiliateCommission())
}
