package crm

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver        string        `split_words:"true" default:"sqlite"`
	Path          string        `split_words:"true"`
	DSN           string        `envconfig:"DSN"`
	BusyTimeout   time.Duration `split_words:"true" default:"5s"`
	RetryAttempts int           `split_words:"true" default:"5"`
	RetryDelay    time.Duration `split_words:"true" default:"1s"`
}

// OpenDatabase opens the configured backend and makes sure the schema exists.
func OpenDatabase(ctx context.Context, cfg Config) (*bun.DB, error) {
	var (
		db     *bun.DB
		schema string
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite, "sqlite3":
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}

		dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", path, cfg.BusyTimeout.Milliseconds())
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
		schema = sqliteSchema

	case DriverPostgres, "pg":
		dsn := strings.TrimSpace(cfg.DSN)
		if dsn == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
		schema = postgresSchema

	default:
		return nil, fmt.Errorf("unsupported crm driver %q", cfg.Driver)
	}

	if err := InitSchema(ctx, db, schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("driver", cfg.Driver).Msg("crm: database ready")
	return db, nil
}

func InitSchema(ctx context.Context, db *bun.DB, schema string) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init crm schema: %w", err)
	}
	if schema == sqliteSchema {
		return migrateSQLite(ctx, db)
	}
	return nil
}

// migrateSQLite adds columns missing from databases created before the
// current-interaction pointer existed.
func migrateSQLite(ctx context.Context, db *bun.DB) error {
	var n int
	err := db.NewRaw(`SELECT COUNT(*) FROM pragma_table_info('Customers') WHERE name = 'CurrentInteractionID'`).Scan(ctx, &n)
	if err != nil {
		return fmt.Errorf("inspect customers table: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, `ALTER TABLE "Customers" ADD COLUMN "CurrentInteractionID" INTEGER`); err != nil {
		return fmt.Errorf("add current interaction column: %w", err)
	}
	return nil
}
