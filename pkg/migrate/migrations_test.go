package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TRPST/airvoucher-backend/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_inventory.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS voucher_inventory_units",
		"FOREIGN KEY (voucher_type_id) REFERENCES voucher_types(id) ON DELETE CASCADE",
		"CHECK (amount > 0)",
		"ux_inventory_serial",
		"DROP TABLE IF EXISTS voucher_inventory_units",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSalesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_sales.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS sales",
		"CHECK (from_balance + from_credit = amount)",
		"ux_sales_inventory_unit",
		"ux_sales_reference",
		"DROP TABLE IF EXISTS sales",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxDLQMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_outbox_dlq.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_dlq",
		"error_reason text NOT NULL",
		"idx_outbox_dlq_event",
		"DROP TABLE IF EXISTS outbox_dlq",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestVendorIssuanceMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_vendor_issuances.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS vendor_issuances",
		"status text NOT NULL DEFAULT 'pending'",
		"idx_vendor_issuances_status",
		"DROP TABLE IF EXISTS vendor_issuances",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
