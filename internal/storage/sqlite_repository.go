package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// LoadSnapshot reads everything back in insertion order. Rows that
// cannot be scanned or fail shape validation are dropped and counted,
// never fatal; a missing tally row means a fresh database.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Tasks:  make([]TaskRecord, 0),
		Graves: make([]GraveRecord, 0),
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, deadline, created_at FROM tasks ORDER BY rowid ASC`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		rec, ok := scanTaskRecord(rows)
		if !ok {
			snap.Malformed++
			continue
		}
		snap.Tasks = append(snap.Tasks, rec)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("load tasks: %w", err)
	}

	graveRows, err := r.db.QueryContext(ctx, `SELECT id, name, deadline, created_at, expired_at FROM graveyard ORDER BY rowid ASC`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load graveyard: %w", err)
	}
	defer graveRows.Close()
	for graveRows.Next() {
		rec, ok := scanGraveRecord(graveRows)
		if !ok {
			snap.Malformed++
			continue
		}
		snap.Graves = append(snap.Graves, rec)
	}
	if err := graveRows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("load graveyard: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `SELECT completed, expired, streak FROM tally WHERE id = 1`)
	if err := row.Scan(&snap.Tally.Completed, &snap.Tally.Expired, &snap.Tally.Streak); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("load tally: %w", err)
		}
	}

	return snap, nil
}

// SaveSnapshot replaces the persisted state wholesale in one
// transaction, so a crash mid-save never leaves a half-written world.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM graveyard`); err != nil {
		return fmt.Errorf("clear graveyard: %w", err)
	}

	for _, rec := range snap.Tasks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, name, deadline, created_at)
			VALUES (?, ?, ?, ?)`,
			rec.ID, rec.Name, mustTime(rec.Deadline), mustTime(rec.Created),
		); err != nil {
			return fmt.Errorf("insert task %s: %w", rec.ID, err)
		}
	}
	for _, rec := range snap.Graves {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO graveyard (id, name, deadline, created_at, expired_at)
			VALUES (?, ?, ?, ?, ?)`,
			rec.ID, rec.Name, mustTime(rec.Deadline), mustTime(rec.Created), mustTime(rec.ExpiredAt),
		); err != nil {
			return fmt.Errorf("insert grave entry %s: %w", rec.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tally (id, completed, expired, streak)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET completed = excluded.completed, expired = excluded.expired, streak = excluded.streak`,
		snap.Tally.Completed, snap.Tally.Expired, snap.Tally.Streak,
	); err != nil {
		return fmt.Errorf("save tally: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseTimeField(v sql.NullString) (time.Time, bool) {
	if !v.Valid || v.String == "" {
		return time.Time{}, false
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return time.Time{}, false
	}
	return tm, true
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTaskRecord(s scanner) (TaskRecord, bool) {
	var id, name sql.NullString
	var deadline, created sql.NullString
	if err := s.Scan(&id, &name, &deadline, &created); err != nil {
		return TaskRecord{}, false
	}
	rec := TaskRecord{ID: id.String, Name: name.String}
	var ok bool
	if rec.Deadline, ok = parseTimeField(deadline); !ok {
		return TaskRecord{}, false
	}
	if rec.Created, ok = parseTimeField(created); !ok {
		return TaskRecord{}, false
	}
	if !rec.valid() {
		return TaskRecord{}, false
	}
	return rec, true
}

func scanGraveRecord(s scanner) (GraveRecord, bool) {
	var id, name sql.NullString
	var deadline, created, expired sql.NullString
	if err := s.Scan(&id, &name, &deadline, &created, &expired); err != nil {
		return GraveRecord{}, false
	}
	rec := GraveRecord{ID: id.String, Name: name.String}
	var ok bool
	if rec.Deadline, ok = parseTimeField(deadline); !ok {
		return GraveRecord{}, false
	}
	if rec.Created, ok = parseTimeField(created); !ok {
		return GraveRecord{}, false
	}
	if rec.ExpiredAt, ok = parseTimeField(expired); !ok {
		return GraveRecord{}, false
	}
	if !rec.valid() {
		return GraveRecord{}, false
	}
	return rec, true
}
