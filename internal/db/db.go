package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database holding the persistent market-history cache.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
		CREATE TABLE IF NOT EXISTS market_history (
			region_id   INTEGER NOT NULL,
			type_id     INTEGER NOT NULL,
			date        TEXT NOT NULL,
			average     REAL NOT NULL,
			highest     REAL NOT NULL,
			lowest      REAL NOT NULL,
			volume      INTEGER NOT NULL,
			order_count INTEGER NOT NULL,
			PRIMARY KEY (region_id, type_id, date)
		);

		CREATE TABLE IF NOT EXISTS market_history_meta (
			region_id  INTEGER NOT NULL,
			type_id    INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			no_data    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (region_id, type_id)
		);
	`)
	return err
}
