package reports

import (
	"database/sql"
	"fmt"
	"time"
)

// Delivery outcomes recorded per channel
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Run is one delivery attempt of a report to a channel
type Run struct {
	ReportID    string    `json:"report_id"`
	Kind        Kind      `json:"kind"`
	SessionDate string    `json:"session_date"`
	Channel     string    `json:"channel"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository persists report delivery history
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new report run repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record stores a delivery attempt, replacing an earlier attempt for the same report and channel
func (r *Repository) Record(run Run) error {
	var errText interface{}
	if run.Error != "" {
		errText = run.Error
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO report_runs (id, kind, session_date, channel, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ReportID, string(run.Kind), run.SessionDate, run.Channel, run.Status, errText, run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record report run: %w", err)
	}
	return nil
}

// Delivered reports whether any channel received a report of this kind for the session
func (r *Repository) Delivered(kind Kind, sessionDate string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM report_runs WHERE kind = ? AND session_date = ? AND status = ?",
		string(kind), sessionDate, StatusSent,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query report runs: %w", err)
	}
	return count > 0, nil
}

// Recent returns the latest delivery attempts, newest first
func (r *Repository) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, kind, session_date, channel, status, error, created_at
		FROM report_runs
		ORDER BY created_at DESC, id, channel
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			kind      string
			errText   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&run.ReportID, &kind, &run.SessionDate, &run.Channel, &run.Status, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		run.Kind = Kind(kind)
		run.Error = errText.String
		run.CreatedAt = time.Unix(createdAt, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteBefore removes history older than cutoff
func (r *Repository) DeleteBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM report_runs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete report runs: %w", err)
	}
	return result.RowsAffected()
}
