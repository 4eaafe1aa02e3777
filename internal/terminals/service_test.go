package terminals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
)

func setupTerminalsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS retailers (
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
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTerminalsFixture(t *testing.T) (Service, *gorm.DB, *models.Retailer) {
	t.Helper()
	db := setupTerminalsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	retailer := &models.Retailer{
		ID:                uuid.New(),
		Name:              "Retailer " + uuid.NewString()[:8],
		Status:            enums.RetailerStatusActive,
		Balance:           decimal.Zero,
		CreditLimit:       decimal.Zero,
		CreditUsed:        decimal.Zero,
		CommissionBalance: decimal.Zero,
	}
	require.NoError(t, db.Create(retailer).Error)
	return svc, db, retailer
}

func TestRegisterAndListTerminals(t *testing.T) {
	svc, _, retailer := newTerminalsFixture(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, retailer.ID, "Front till")
	require.NoError(t, err)
	assert.Equal(t, enums.TerminalStatusActive, first.Status)

	_, err = svc.Register(ctx, retailer.ID, "Back till")
	require.NoError(t, err)

	rows, err := svc.ListByRetailer(ctx, retailer.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestRegisterUnknownRetailer(t *testing.T) {
	svc, _, _ := newTerminalsFixture(t)

	_, err := svc.Register(context.Background(), uuid.New(), "Till")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestSetStatusDisablesTerminal(t *testing.T) {
	svc, _, retailer := newTerminalsFixture(t)
	ctx := context.Background()

	terminal, err := svc.Register(ctx, retailer.ID, "Till")
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, terminal.ID, enums.TerminalStatusDisabled))

	loaded, err := svc.Get(ctx, terminal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TerminalStatusDisabled, loaded.Status)
}

func TestTouchStampsLastActive(t *testing.T) {
	svc, _, retailer := newTerminalsFixture(t)
	ctx := context.Background()

	terminal, err := svc.Register(ctx, retailer.ID, "Till")
	require.NoError(t, err)
	require.Nil(t, terminal.LastActiveAt)

	require.NoError(t, svc.Touch(ctx, terminal.ID))

	loaded, err := svc.Get(ctx, terminal.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastActiveAt)
}

func TestListEmptyIsNotAnError(t *testing.T) {
	svc, _, retailer := newTerminalsFixture(t)

	rows, err := svc.ListByRetailer(context.Background(), retailer.ID)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
