package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type dialect struct {
	driver      string
	placeholder squirrel.PlaceholderFormat
	types       map[table.Kind]string
	quote       func(string) string
	truncate    string
}

var (
	postgresDialect = dialect{
		driver:      "pgx",
		placeholder: squirrel.Dollar,
		types: map[table.Kind]string{
			table.String: "TEXT",
			table.Int:    "BIGINT",
			table.Float:  "DOUBLE PRECISION",
			table.Bool:   "BOOLEAN",
			table.Time:   "TIMESTAMPTZ",
		},
		quote:    pq.QuoteIdentifier,
		truncate: "TRUNCATE TABLE %s",
	}
	mysqlDialect = dialect{
		driver:      "mysql",
		placeholder: squirrel.Question,
		types: map[table.Kind]string{
			table.String: "VARCHAR(255)",
			table.Int:    "BIGINT",
			table.Float:  "DOUBLE",
			table.Bool:   "BOOLEAN",
			table.Time:   "DATETIME(6)",
		},
		quote:    func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
		truncate: "TRUNCATE TABLE %s",
	}
	sqliteDialect = dialect{
		driver:      "sqlite3",
		placeholder: squirrel.Question,
		types: map[table.Kind]string{
			table.String: "TEXT",
			table.Int:    "INTEGER",
			table.Float:  "REAL",
			table.Bool:   "INTEGER",
			table.Time:   "TIMESTAMP",
		},
		quote:    func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
		truncate: "DELETE FROM %s",
	}
)

type Adapter struct {
	provider string
	d        dialect
	db       *sql.DB
	qb       squirrel.StatementBuilderType
}

func NewAdapter(provider string) (*Adapter, error) {
	var d dialect
	switch provider {
	case "postgresql", "postgres":
		d = postgresDialect
	case "mysql":
		d = mysqlDialect
	case "sqlite", "sqlite3":
		d = sqliteDialect
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", provider)
	}
	return &Adapter{
		provider: provider,
		d:        d,
		qb:       squirrel.StatementBuilder.PlaceholderFormat(d.placeholder),
	}, nil
}

func (a *Adapter) Provider() string { return a.provider }

func (a *Adapter) Connect(ctx context.Context, url string) error {
	dsn := url
	if a.d.driver == "sqlite3" {
		dsn = strings.TrimPrefix(url, "sqlite://")
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL"
		}
	}

	db, err := sql.Open(a.d.driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", a.provider, err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	a.db = db
	return nil
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Adapter) GenerateCreateTableSQL(name string, t *table.Table) (string, error) {
	if !validIdentifier.MatchString(name) {
		return "", fmt.Errorf("invalid table name: %s", name)
	}

	var defs []string
	for _, col := range t.Columns() {
		if !validIdentifier.MatchString(col.Name) {
			return "", fmt.Errorf("invalid column name in table %s: %s", name, col.Name)
		}
		defs = append(defs, fmt.Sprintf("%s %s", a.d.quote(col.Name), a.d.types[col.Kind]))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", a.d.quote(name), strings.Join(defs, ",\n  ")), nil
}

func (a *Adapter) CreateTable(ctx context.Context, name string, t *table.Table) error {
	query, err := a.GenerateCreateTableSQL(name, t)
	if err != nil {
		return err
	}
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	return nil
}

func (a *Adapter) Truncate(ctx context.Context, name string) error {
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("invalid table name: %s", name)
	}
	if _, err := a.db.ExecContext(ctx, fmt.Sprintf(a.d.truncate, a.d.quote(name))); err != nil {
		return fmt.Errorf("failed to truncate table %s: %w", name, err)
	}
	return nil
}

// InsertTable writes every row of t in multi-row batches inside a single
// transaction. A failed batch rolls the whole load back.
func (a *Adapter) InsertTable(ctx context.Context, name string, t *table.Table, batchSize int) (int, error) {
	if !validIdentifier.MatchString(name) {
		return 0, fmt.Errorf("invalid table name: %s", name)
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	cols := make([]string, 0, len(t.Columns()))
	for _, c := range t.ColumnNames() {
		cols = append(cols, a.d.quote(c))
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	inserted := 0
	for start := 0; start < t.Len(); start += batchSize {
		end := min(start+batchSize, t.Len())

		q := a.qb.Insert(a.d.quote(name)).Columns(cols...)
		for i := start; i < end; i++ {
			q = q.Values(t.Row(i)...)
		}
		query, args, err := q.ToSql()
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return 0, fmt.Errorf("insert failed and rollback failed: %v (original: %w)", rbErr, err)
			}
			return 0, fmt.Errorf("failed to insert batch at row %d: %w", start, err)
		}
		inserted += end - start
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

func (a *Adapter) CountRows(ctx context.Context, name string) (int, error) {
	if !validIdentifier.MatchString(name) {
		return 0, fmt.Errorf("invalid table name: %s", name)
	}
	query, args, err := a.qb.Select("COUNT(*)").From(a.d.quote(name)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", name, err)
	}
	return n, nil
}

// Load creates the table if needed, optionally empties it, then inserts t.
func (a *Adapter) Load(ctx context.Context, name string, t *table.Table, truncate bool, batchSize int) (int, error) {
	if err := a.CreateTable(ctx, name, t); err != nil {
		return 0, err
	}
	if truncate {
		if err := a.Truncate(ctx, name); err != nil {
			return 0, err
		}
	}
	return a.InsertTable(ctx, name, t, batchSize)
}
