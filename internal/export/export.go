package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/database"
	"github.com/Lumos-Labs-HQ/txsynth/internal/logger"
	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
)

// Database is the connection used by the "database" output format.
type Database struct {
	Provider string
	URL      string
}

// Result says where a table ended up.
type Result struct {
	Format   string
	Location string
	Rows     int
	// File is set for file formats and is what gets uploaded.
	File string
}

// Write persists t according to out. db is only used for database output.
func Write(ctx context.Context, t *table.Table, out config.Output, db Database) (*Result, error) {
	switch out.Format {
	case "csv", "json", "parquet":
		if err := ensureDir(out.Path); err != nil {
			return nil, err
		}
	}

	var err error
	switch out.Format {
	case "csv":
		err = WriteCSV(out.Path, t)
	case "json":
		err = WriteJSON(out.Path, t)
	case "parquet":
		err = WriteParquet(out.Path, t)
	case "database":
		return writeDatabase(ctx, t, out, db)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", out.Format)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Format: out.Format, Location: out.Path, Rows: t.Len(), File: out.Path}, nil
}

func writeDatabase(ctx context.Context, t *table.Table, out config.Output, db Database) (*Result, error) {
	adapter, err := database.NewAdapter(db.Provider)
	if err != nil {
		return nil, err
	}
	if err := adapter.Connect(ctx, db.URL); err != nil {
		return nil, err
	}
	defer adapter.Close()

	n, err := adapter.Load(ctx, out.Table, t, out.Truncate, out.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s into %s: %w", t.Name, out.Table, err)
	}
	log := logger.FromContext(ctx)
	log.Debug().
		Str("provider", adapter.Provider()).
		Str("table", out.Table).
		Bool("truncate", out.Truncate).
		Int("rows", n).
		Msg("loaded table")

	return &Result{Format: out.Format, Location: fmt.Sprintf("%s:%s", db.Provider, out.Table), Rows: n}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}
