package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestItemsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS items",
		"CHECK (barcode <> '')",
		"CHECK (quantity > 0)",
		"items_owner_barcode_idx",
		"DROP TABLE IF EXISTS items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCategoriesMigrationEnforcesOwnerScopedNames(t *testing.T) {
	content := readMigration(t, "*_create_categories.sql")

	if !strings.Contains(content, "UNIQUE (owner_id, name)") {
		t.Error("categories migration must enforce per-owner unique names")
	}
}

func TestProductCacheMigrationKeyedByBarcode(t *testing.T) {
	content := readMigration(t, "*_create_product_cache.sql")

	if !strings.Contains(content, "UNIQUE (barcode)") {
		t.Error("product cache migration must key rows by barcode")
	}
}
