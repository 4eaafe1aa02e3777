package vouchers

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/outbox"
)

func setupVouchersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
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
		`CREATE TABLE IF NOT EXISTS voucher_batches (
  id TEXT PRIMARY KEY,
  voucher_type_id TEXT NOT NULL,
  uploaded_by TEXT NOT NULL,
  unit_count INTEGER NOT NULL,
  rejected_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
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

type noopInvalidator struct {
	categories []enums.VoucherCategory
}

func (n *noopInvalidator) InvalidateCategory(ctx context.Context, category enums.VoucherCategory) error {
	n.categories = append(n.categories, category)
	return nil
}

func newVouchersFixture(t *testing.T) (Service, *gorm.DB, *noopInvalidator) {
	t.Helper()
	db := setupVouchersTestDB(t)
	inval := &noopInvalidator{}
	svc, err := NewService(
		&testTxRunner{db: db},
		NewRepository(db),
		outbox.NewService(outbox.NewRepository(db), nil),
		inval,
		nil,
	)
	require.NoError(t, err)
	return svc, db, inval
}

func createAirtimeType(t *testing.T, svc Service) *models.VoucherType {
	t.Helper()
	voucherType, err := svc.CreateType(context.Background(), TypeParams{
		Name:            "CellOne Airtime " + uuid.NewString()[:8],
		Category:        enums.VoucherCategoryAirtime,
		NetworkProvider: "CellOne",
	})
	require.NoError(t, err)
	return voucherType
}

func TestCreateTypeValidation(t *testing.T) {
	svc, _, _ := newVouchersFixture(t)
	ctx := context.Background()

	_, err := svc.CreateType(ctx, TypeParams{Category: enums.VoucherCategoryAirtime, NetworkProvider: "CellOne"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.CreateType(ctx, TypeParams{Name: "X", Category: "lottery", NetworkProvider: "CellOne"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	// vendor-issued requires a product mapping
	_, err = svc.CreateType(ctx, TypeParams{
		Name:            "OTT",
		Category:        enums.VoucherCategoryOTT,
		NetworkProvider: "OTT",
		VendorIssued:    true,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestUploadStockAcceptsAndRejectsRows(t *testing.T) {
	svc, db, inval := newVouchersFixture(t)
	ctx := context.Background()

	voucherType := createAirtimeType(t, svc)
	uploader := uuid.New()

	payload := strings.Join([]string{
		"pin,serial,amount",
		"1111,SER-1,10.00",
		"2222,SER-2,20.00",
		"3333,SER-2,20.00",
		"4444,SER-4,-5",
		",SER-5,10.00",
	}, "\n")

	result, err := svc.UploadStock(ctx, voucherType.ID, uploader, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 3, result.Rejected)
	require.Len(t, result.Errors, 3)

	var unitCount int64
	require.NoError(t, db.Model(&models.VoucherInventoryUnit{}).
		Where("voucher_type_id = ?", voucherType.ID).
		Count(&unitCount).Error)
	assert.EqualValues(t, 2, unitCount)

	batch, err := svc.GetBatch(ctx, result.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.UnitCount)
	assert.Equal(t, 3, batch.RejectedCount)

	var eventCount int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", result.BatchID, enums.EventInventoryUploaded).
		Count(&eventCount).Error)
	assert.EqualValues(t, 1, eventCount)

	require.Len(t, inval.categories, 1)
	assert.Equal(t, enums.VoucherCategoryAirtime, inval.categories[0])
}

func TestUploadStockRejectsSerialAlreadyInStock(t *testing.T) {
	svc, _, _ := newVouchersFixture(t)
	ctx := context.Background()

	voucherType := createAirtimeType(t, svc)
	uploader := uuid.New()

	first, err := svc.UploadStock(ctx, voucherType.ID, uploader, strings.NewReader("1111,DUP-1,10.00\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Accepted)

	second, err := svc.UploadStock(ctx, voucherType.ID, uploader, strings.NewReader("2222,DUP-1,10.00\n5555,NEW-1,10.00\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Accepted)
	assert.Equal(t, 1, second.Rejected)
	require.Len(t, second.Errors, 1)
	assert.Contains(t, second.Errors[0].Reason, "duplicate serial")
}

func TestUploadStockRefusedForVendorIssuedTypes(t *testing.T) {
	svc, _, _ := newVouchersFixture(t)
	ctx := context.Background()

	productID := "ott-100"
	voucherType, err := svc.CreateType(ctx, TypeParams{
		Name:            "OTT Voucher",
		Category:        enums.VoucherCategoryOTT,
		NetworkProvider: "OTT",
		VendorIssued:    true,
		VendorProductID: &productID,
	})
	require.NoError(t, err)

	_, err = svc.UploadStock(ctx, voucherType.ID, uuid.New(), strings.NewReader("1,S,10\n"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestUpdateTypeKeepsCategory(t *testing.T) {
	svc, _, _ := newVouchersFixture(t)
	ctx := context.Background()

	voucherType := createAirtimeType(t, svc)

	updated, err := svc.UpdateType(ctx, voucherType.ID, TypeParams{
		Name:            "Renamed",
		Category:        enums.VoucherCategoryData,
		NetworkProvider: "CellOne",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	// category never changes once the type exists
	assert.Equal(t, enums.VoucherCategoryAirtime, updated.Category)
}

func TestListTypesFiltersByCategory(t *testing.T) {
	svc, _, _ := newVouchersFixture(t)
	ctx := context.Background()

	created := createAirtimeType(t, svc)

	category := enums.VoucherCategoryAirtime
	rows, err := svc.ListTypes(ctx, &category)
	require.NoError(t, err)

	found := false
	for _, row := range rows {
		require.Equal(t, enums.VoucherCategoryAirtime, row.Category)
		if row.ID == created.ID {
			found = true
		}
	}
	assert.True(t, found)
}
