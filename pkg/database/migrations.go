package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Migration is one numbered schema change, e.g. "001_initial_schema.sql"
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies pending migrations and records them in schema_migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// RunMigrations applies every migration in fsys that has not been applied yet.
// Each migration runs in its own transaction.
func (m *Migrator) RunMigrations(fsys fs.FS) (int, error) {
	if err := m.createMigrationsTable(); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	count := 0
	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}

		m.logger.Info("Applying migration",
			zap.Int("version", migration.Version),
			zap.String("name", migration.Name))

		if err := m.apply(migration); err != nil {
			return count, fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
		count++
	}

	m.logger.Info("Database migrations completed", zap.Int("applied", count), zap.Int("total", len(migrations)))
	return count, nil
}

// LoadMigrations reads *.sql files from fsys sorted by version
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	var migrations []Migration
	seen := make(map[int]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".sql") {
			return nil
		}

		filename := path.Base(p)
		var version int
		if _, err := fmt.Sscanf(filename, "%d", &version); err != nil {
			return fmt.Errorf("invalid migration filename format: %s", filename)
		}
		if prev, dup := seen[version]; dup {
			return fmt.Errorf("duplicate migration version %d: %s and %s", version, prev, filename)
		}
		seen[version] = filename

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", p, err)
		}

		name := ""
		if parts := strings.SplitN(filename, "_", 2); len(parts) == 2 {
			name = strings.TrimSuffix(parts[1], ".sql")
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			SQL:     string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *Migrator) createMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func (m *Migrator) appliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(migration Migration) error {
	return m.db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(migration.SQL); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}
