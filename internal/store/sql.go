package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

const activeSlotKey = "active_slot"

// SQLRepository keeps slots in a SQL database. SQLite and Postgres share the
// same queries apart from placeholders.
type SQLRepository struct {
	dialect Dialect
	db      *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("tmp", "world_protocol.sqlite")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	return openSQL(ctx, DialectSQLite, "sqlite", path)
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLRepository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
	}
	return openSQL(ctx, DialectPostgres, "pgx", dsn)
}

func openSQL(ctx context.Context, dialect Dialect, driverName, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	repo := &SQLRepository{dialect: dialect, db: db}
	if err := repo.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLRepository) Close() error { return r.db.Close() }

func (r *SQLRepository) bind(pos int) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLRepository) insertQuery(table string, cols []string) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = r.bind(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(cols, ", "),
		strings.Join(ph, ", "),
	)
}

func (r *SQLRepository) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	pattern := fmt.Sprintf("migrations/%s/*.sql", r.dialect)
	files, err := fs.Glob(migrationFS, pattern)
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := r.insertQuery("schema_migrations", []string{"version", "applied_at"})
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func (r *SQLRepository) Load(ctx context.Context, slot Slot) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	q := "SELECT payload FROM save_slots WHERE slot = " + r.bind(1)
	var payload string
	err := r.db.QueryRowContext(ctx, q, int(slot)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", slot, err)
	}
	return []byte(payload), nil
}

// Save replaces the slot's blob in one transaction.
func (r *SQLRepository) Save(ctx context.Context, slot Slot, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM save_slots WHERE slot = "+r.bind(1), int(slot)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear %s: %w", slot, err)
	}
	q := r.insertQuery("save_slots", []string{"slot", "payload", "updated_at"})
	if _, err := tx.ExecContext(ctx, q, int(slot), string(data), time.Now().UTC().UnixMilli()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("save %s: %w", slot, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, slot Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM save_slots WHERE slot = "+r.bind(1), int(slot)); err != nil {
		return fmt.Errorf("delete %s: %w", slot, err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) ([]SlotInfo, error) {
	updated := map[Slot]int64{}
	rows, err := r.db.QueryContext(ctx, "SELECT slot, updated_at FROM save_slots")
	if err != nil {
		return nil, fmt.Errorf("list save slots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			slot int
			at   int64
		)
		if err := rows.Scan(&slot, &at); err != nil {
			return nil, fmt.Errorf("scan save slot: %w", err)
		}
		updated[Slot(slot)] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate save slots: %w", err)
	}

	out := make([]SlotInfo, 0, SlotCount)
	for _, s := range Slots() {
		info := SlotInfo{Slot: s, Key: s.Key(), Empty: true}
		if at, ok := updated[s]; ok {
			info.Empty = false
			info.UpdatedAt = time.UnixMilli(at).UTC()
		}
		out = append(out, info)
	}
	return out, nil
}

// ActiveSlot returns the remembered slot, defaulting to slot 1.
func (r *SQLRepository) ActiveSlot(ctx context.Context) (Slot, error) {
	q := "SELECT value FROM settings WHERE name = " + r.bind(1)
	var v string
	err := r.db.QueryRowContext(ctx, q, activeSlotKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read active slot: %w", err)
	}
	slot, err := ParseSlot(v)
	if err != nil {
		return 1, nil
	}
	return slot, nil
}

func (r *SQLRepository) SetActiveSlot(ctx context.Context, slot Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM settings WHERE name = "+r.bind(1), activeSlotKey); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear active slot: %w", err)
	}
	q := r.insertQuery("settings", []string{"name", "value"})
	if _, err := tx.ExecContext(ctx, q, activeSlotKey, strconv.Itoa(int(slot))); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write active slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings tx: %w", err)
	}
	return nil
}
