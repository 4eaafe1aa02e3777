package commission

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCommissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	groups := `
CREATE TABLE IF NOT EXISTS commission_groups (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	rates := `
CREATE TABLE IF NOT EXISTS commission_rates (
  id TEXT PRIMARY KEY,
  group_id TEXT NOT NULL,
  voucher_type_id TEXT NOT NULL,
  retailer_percent TEXT NOT NULL,
  agent_percent TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (group_id, voucher_type_id)
);`
	retailers := `
CREATE TABLE IF NOT EXISTS retailers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  contact_email TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  balance TEXT NOT NULL DEFAULT '0',
  credit_limit TEXT NOT NULL DEFAULT '0',
  credit_used TEXT NOT NULL DEFAULT '0',
  commission_balance TEXT NOT NULL DEFAULT '0',
  commission_group_id TEXT,
  agent_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(groups).Error)
	require.NoError(t, db.Exec(rates).Error)
	require.NoError(t, db.Exec(retailers).Error)
	return db
}
