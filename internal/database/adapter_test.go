package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
)

func sampleTable() *table.Table {
	t := table.New("transactions")
	_ = t.AddStrings("transaction_id", []string{"a", "b", "c"})
	_ = t.AddFloats("transaction_amount", []float64{1.5, 20, 300.25})
	_ = t.AddInts("n", []int64{1, 2, 3})
	_ = t.AddBools("is_international", []bool{false, true, false})
	_ = t.AddTimes("transaction_timestamp", []time.Time{
		time.Date(2021, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 2, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	return t
}

func TestNewAdapterUnknownProvider(t *testing.T) {
	if _, err := NewAdapter("oracle"); err == nil {
		t.Error("Expected unsupported provider to fail")
	}
}

func TestGenerateCreateTableSQL(t *testing.T) {
	tests := []struct {
		provider string
		contains []string
	}{
		{"postgres", []string{`CREATE TABLE IF NOT EXISTS "transactions"`, `"transaction_amount" DOUBLE PRECISION`, `"transaction_timestamp" TIMESTAMPTZ`}},
		{"mysql", []string{"CREATE TABLE IF NOT EXISTS `transactions`", "`is_international` BOOLEAN", "DATETIME(6)"}},
		{"sqlite", []string{`"n" INTEGER`, `"transaction_id" TEXT`}},
	}

	for _, tt := range tests {
		a, err := NewAdapter(tt.provider)
		if err != nil {
			t.Fatalf("Failed to create adapter: %v", err)
		}
		query, err := a.GenerateCreateTableSQL("transactions", sampleTable())
		if err != nil {
			t.Fatalf("%s: failed to generate SQL: %v", tt.provider, err)
		}
		for _, want := range tt.contains {
			if !strings.Contains(query, want) {
				t.Errorf("%s: expected SQL to contain %q, got:\n%s", tt.provider, want, query)
			}
		}
	}
}

func TestGenerateCreateTableSQLRejectsBadNames(t *testing.T) {
	a, _ := NewAdapter("sqlite")
	if _, err := a.GenerateCreateTableSQL("drop table; --", sampleTable()); err == nil {
		t.Error("Expected invalid table name to be rejected")
	}
}

func TestSQLiteLoad(t *testing.T) {
	ctx := context.Background()
	a, err := NewAdapter("sqlite")
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	if err := a.Connect(ctx, filepath.Join(t.TempDir(), "txsynth.db")); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer a.Close()

	n, err := a.Load(ctx, "transactions", sampleTable(), false, 2)
	if err != nil {
		t.Fatalf("Failed to load table: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 inserted rows, got %d", n)
	}

	if _, err := a.Load(ctx, "transactions", sampleTable(), false, 2); err != nil {
		t.Fatalf("Failed to load table twice: %v", err)
	}
	if count, _ := a.CountRows(ctx, "transactions"); count != 6 {
		t.Errorf("Expected 6 rows after appending, got %d", count)
	}

	if _, err := a.Load(ctx, "transactions", sampleTable(), true, 100); err != nil {
		t.Fatalf("Failed to reload table: %v", err)
	}
	if count, _ := a.CountRows(ctx, "transactions"); count != 3 {
		t.Errorf("Expected 3 rows after truncate, got %d", count)
	}
}
