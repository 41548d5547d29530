package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
)

//go:embed migrations
var migrationsDir embed.FS

var migrationName = regexp.MustCompile(`^(\d+)[-_]`)

type migration struct {
	version int
	name    string
}

// migrations lists the embedded sql files ordered by version.
func migrations() ([]migration, error) {
	files, err := migrationsDir.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var result []migration
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".sql" {
			continue
		}
		matches := migrationName.FindStringSubmatch(f.Name())
		if len(matches) < 2 {
			return nil, fmt.Errorf("parse version from migration file: %s", f.Name())
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("convert migration version from file %s: %w", f.Name(), err)
		}
		result = append(result, migration{version: version, name: f.Name()})
	}

	slices.SortFunc(result, func(a, b migration) int { return a.version - b.version })
	return result, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	var currVer int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currVer); err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	all, err := migrations()
	if err != nil {
		return err
	}

	for _, m := range all {
		if m.version <= currVer {
			continue // Already applied
		}

		data, err := migrationsDir.ReadFile(path.Join("migrations", m.name))
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", m.name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("start transaction for migration %d: %w", m.version, err)
		}

		if _, err = tx.ExecContext(ctx, string(data)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}

		if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d;", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("update database version for migration %d: %w", m.version, err)
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
		slog.Default().Debug("migration applied", slog.String("module", "database"), slog.Int("version", m.version))
	}

	return nil
}

// Version is the schema version of the open database.
func (d *Database) Version(ctx context.Context) (int, error) {
	var v int
	if err := d.read.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	return v, nil
}
