package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Visit is one recorded page visit.
type Visit struct {
	ID        int64
	Page      string
	Title     string
	VisitedAt time.Time
}

// VisitLog is a journal of visited pages kept in SQLite. It is what the
// "recent pages" view lists; it is not a back/forward history.
type VisitLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewVisitLog creates a visit log using the given database.
func NewVisitLog(db *DB) *VisitLog {
	return &VisitLog{db: db.Conn(), now: time.Now}
}

// Record logs a visit. If page is already the most recent entry, its
// timestamp (and title, when given) is updated instead.
func (vl *VisitLog) Record(ctx context.Context, page, title string) error {
	if page == "" {
		return nil
	}
	now := vl.now().UnixNano()

	tx, err := vl.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning visit transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	var last string
	err = tx.QueryRowContext(ctx,
		`SELECT id, page FROM visits ORDER BY visited_at DESC, id DESC LIMIT 1`,
	).Scan(&id, &last)
	switch {
	case err == nil && last == page:
		_, err = tx.ExecContext(ctx,
			`UPDATE visits SET visited_at = ?, title = CASE WHEN ? = '' THEN title ELSE ? END WHERE id = ?`,
			now, title, title, id)
	case err == nil || errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO visits (page, title, visited_at) VALUES (?, ?, ?)`,
			page, title, now)
	}
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return tx.Commit()
}

// List returns up to limit visits, newest first. limit <= 0 returns all.
func (vl *VisitLog) List(ctx context.Context, limit int) ([]Visit, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := vl.db.QueryContext(ctx,
		`SELECT id, page, title, visited_at FROM visits ORDER BY visited_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var at int64
		if err := rows.Scan(&v.ID, &v.Page, &v.Title, &at); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		v.VisitedAt = time.Unix(0, at)
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Count returns the number of recorded visits.
func (vl *VisitLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := vl.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting visits: %w", err)
	}
	return n, nil
}

// Clear removes all recorded visits.
func (vl *VisitLog) Clear(ctx context.Context) error {
	if _, err := vl.db.ExecContext(ctx, `DELETE FROM visits`); err != nil {
		return fmt.Errorf("clearing visits: %w", err)
	}
	return nil
}
