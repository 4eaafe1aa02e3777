package sales

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

func setupSalesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS agents (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  commission_balance TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS retailers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  contact_email TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  balance NUMERIC NOT NULL DEFAULT 0,
  credit_limit NUMERIC NOT NULL DEFAULT 0,
  credit_used NUMERIC NOT NULL DEFAULT 0,
  commission_balance TEXT NOT NULL DEFAULT '0',
  commission_group_id TEXT,
  agent_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS terminals (
  id TEXT PRIMARY KEY,
  retailer_id TEXT NOT NULL,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  last_active_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS voucher_types (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  network_provider TEXT NOT NULL,
  sub_category TEXT,
  instructions TEXT,
  help_text TEXT,
  vendor_issued INTEGER NOT NULL DEFAULT 0,
  vendor_product_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS voucher_inventory_units (
  id TEXT PRIMARY KEY,
  voucher_type_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  pin TEXT NOT NULL,
  serial_number TEXT NOT NULL UNIQUE,
  sold INTEGER NOT NULL DEFAULT 0,
  sold_at DATETIME,
  batch_id TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  inventory_unit_id TEXT UNIQUE,
  voucher_type_id TEXT NOT NULL,
  retailer_id TEXT NOT NULL,
  terminal_id TEXT NOT NULL,
  reference_number TEXT NOT NULL UNIQUE,
  amount TEXT NOT NULL,
  from_balance TEXT NOT NULL,
  from_credit TEXT NOT NULL,
  retailer_commission_pct TEXT NOT NULL,
  agent_commission_pct TEXT NOT NULL,
  retailer_commission_amount TEXT NOT NULL,
  agent_commission_amount TEXT NOT NULL,
  vendor_reference TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS vendor_issuances (
  id TEXT PRIMARY KEY,
  voucher_type_id TEXT NOT NULL,
  retailer_id TEXT NOT NULL,
  terminal_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  pin TEXT NOT NULL,
  serial_number TEXT,
  vendor_ref TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  sale_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  published_at DATETIME,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func seedRetailer(t *testing.T, db *gorm.DB, balance, creditLimit, creditUsed string, agentID *uuid.UUID) *models.Retailer {
	t.Helper()
	retailer := &models.Retailer{
		ID:                uuid.New(),
		Name:              "Retailer " + uuid.NewString()[:8],
		Status:            enums.RetailerStatusActive,
		Balance:           decimal.RequireFromString(balance),
		CreditLimit:       decimal.RequireFromString(creditLimit),
		CreditUsed:        decimal.RequireFromString(creditUsed),
		CommissionBalance: decimal.Zero,
		AgentID:           agentID,
	}
	require.NoError(t, db.Create(retailer).Error)
	return retailer
}

func seedTerminal(t *testing.T, db *gorm.DB, retailerID uuid.UUID) *models.Terminal {
	t.Helper()
	terminal := &models.Terminal{
		ID:         uuid.New(),
		RetailerID: retailerID,
		Name:       "Till " + uuid.NewString()[:8],
		Status:     enums.TerminalStatusActive,
	}
	require.NoError(t, db.Create(terminal).Error)
	return terminal
}

func seedVoucherType(t *testing.T, db *gorm.DB, category enums.VoucherCategory) *models.VoucherType {
	t.Helper()
	vt := &models.VoucherType{
		ID:              uuid.New(),
		Name:            "Type " + uuid.NewString()[:8],
		Category:        category,
		NetworkProvider: "CellOne",
	}
	require.NoError(t, db.Create(vt).Error)
	return vt
}

func seedUnit(t *testing.T, db *gorm.DB, typeID uuid.UUID, amount string) *models.VoucherInventoryUnit {
	t.Helper()
	unit := &models.VoucherInventoryUnit{
		ID:            uuid.New(),
		VoucherTypeID: typeID,
		Amount:        decimal.RequireFromString(amount),
		Pin:           "PIN-" + uuid.NewString(),
		SerialNumber:  "SN-" + uuid.NewString(),
	}
	require.NoError(t, db.Create(unit).Error)
	return unit
}
