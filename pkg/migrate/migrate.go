// Package migrate applies the embedded goose migrations for the receipt
// table.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

// Dir is the migrations directory inside the embedded filesystem.
const Dir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Result is one applied or rolled back migration.
type Result struct {
	Version   int64
	File      string
	Direction string
	Duration  time.Duration
}

// State is one migration's position in the database.
type State struct {
	Version   int64
	File      string
	Applied   bool
	AppliedAt time.Time
}

func gooseDialect(dialect string) (goose.Dialect, error) {
	switch dialect {
	case "postgres", "":
		return goose.DialectPostgres, nil
	case "sqlite", "sqlite3":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}

// newProvider builds a goose provider over the embedded files. On postgres
// an advisory session lock keeps concurrently booting api instances from
// migrating at the same time.
func newProvider(db *sql.DB, dialect string) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	d, err := gooseDialect(dialect)
	if err != nil {
		return nil, err
	}
	files, err := fs.Sub(migrationsFS, Dir)
	if err != nil {
		return nil, err
	}
	var opts []goose.ProviderOption
	if d == goose.DialectPostgres {
		locker, err := lock.NewPostgresSessionLocker()
		if err != nil {
			return nil, fmt.Errorf("postgres session locker: %w", err)
		}
		opts = append(opts, goose.WithSessionLocker(locker))
	}
	p, err := goose.NewProvider(d, db, files, opts...)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, dialect string) ([]Result, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return nil, err
	}
	res, err := p.Up(ctx)
	if err != nil {
		return toResults(res), fmt.Errorf("goose up: %w", err)
	}
	return toResults(res), nil
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, dialect string) ([]Result, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return nil, err
	}
	res, err := p.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose down: %w", err)
	}
	return toResults([]*goose.MigrationResult{res}), nil
}

// To moves the schema up or down until target is the newest applied version.
func To(ctx context.Context, db *sql.DB, dialect string, target int64) ([]Result, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return nil, err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("db version: %w", err)
	}
	var res []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		res, err = p.UpTo(ctx, target)
	default:
		res, err = p.DownTo(ctx, target)
	}
	if err != nil {
		return toResults(res), fmt.Errorf("goose to %d: %w", target, err)
	}
	return toResults(res), nil
}

// Version reports the newest applied migration, 0 on an empty database.
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return 0, err
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("db version: %w", err)
	}
	return v, nil
}

// Status lists every known migration and whether it is applied.
func Status(ctx context.Context, db *sql.DB, dialect string) ([]State, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	out := make([]State, 0, len(statuses))
	for _, s := range statuses {
		st := State{Applied: s.State == goose.StateApplied, AppliedAt: s.AppliedAt}
		if s.Source != nil {
			st.Version = s.Source.Version
			st.File = s.Source.Path
		}
		out = append(out, st)
	}
	return out, nil
}

func toResults(in []*goose.MigrationResult) []Result {
	out := make([]Result, 0, len(in))
	for _, r := range in {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, Result{
			Version:   r.Source.Version,
			File:      r.Source.Path,
			Direction: r.Direction,
			Duration:  r.Duration,
		})
	}
	return out
}
