package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	voucherTypes := `
CREATE TABLE IF NOT EXISTS voucher_types (
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
);`
	units := `
CREATE TABLE IF NOT EXISTS voucher_inventory_units (
  id TEXT PRIMARY KEY,
  voucher_type_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  pin TEXT NOT NULL,
  serial_number TEXT NOT NULL UNIQUE,
  sold INTEGER NOT NULL DEFAULT 0,
  sold_at DATETIME,
  batch_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(voucherTypes).Error)
	require.NoError(t, db.Exec(units).Error)
	return db
}

func newVoucherType(t *testing.T, db *gorm.DB, name, provider string, category enums.VoucherCategory) *models.VoucherType {
	t.Helper()
	vt := &models.VoucherType{
		ID:              uuid.New(),
		Name:            name,
		Category:        category,
		NetworkProvider: provider,
	}
	require.NoError(t, db.Create(vt).Error)
	return vt
}

func newUnit(t *testing.T, db *gorm.DB, typeID uuid.UUID, amount string, sold bool) *models.VoucherInventoryUnit {
	t.Helper()
	unit := &models.VoucherInventoryUnit{
		ID:            uuid.New(),
		VoucherTypeID: typeID,
		Amount:        decimal.RequireFromString(amount),
		Pin:           "PIN-" + uuid.NewString(),
		SerialNumber:  "SN-" + uuid.NewString(),
		Sold:          sold,
	}
	require.NoError(t, db.Create(unit).Error)
	return unit
}
