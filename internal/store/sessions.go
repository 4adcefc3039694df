package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/natya/internal/score"
)

// SessionRepository persists finished session results.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Save inserts a finished session and its per-joint breakdown in one
// transaction.
func (r *SessionRepository) Save(res *score.Result) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, track_id, final_score, weighted_score, frame_count, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.TrackID, res.Final, res.Weighted, res.FrameCount,
		res.StartedAt, res.Duration.Milliseconds(),
	)
	if err != nil {
		return err
	}

	for joint, percent := range res.Breakdown {
		if _, err := tx.Exec(
			`INSERT INTO session_joints (session_id, joint, match_percent) VALUES (?, ?, ?)`,
			res.ID, joint, percent,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves one session result with its breakdown.
func (r *SessionRepository) GetByID(id string) (*score.Result, error) {
	res := &score.Result{}
	var durationMs int64

	err := r.db.QueryRow(
		`SELECT id, track_id, final_score, weighted_score, frame_count, started_at, duration_ms
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&res.ID, &res.TrackID, &res.Final, &res.Weighted, &res.FrameCount, &res.StartedAt, &durationMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res.Duration = time.Duration(durationMs) * time.Millisecond

	res.Breakdown, err = r.breakdown(id)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// List retrieves session results newest first, without breakdowns.
// A limit of 0 means no limit.
func (r *SessionRepository) List(limit int) ([]*score.Result, error) {
	query := `SELECT id, track_id, final_score, weighted_score, frame_count, started_at, duration_ms
	          FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*score.Result
	for rows.Next() {
		res := &score.Result{}
		var durationMs int64
		if err := rows.Scan(&res.ID, &res.TrackID, &res.Final, &res.Weighted, &res.FrameCount, &res.StartedAt, &durationMs); err != nil {
			return nil, err
		}
		res.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// ListByTrack retrieves the results for one track, newest first.
func (r *SessionRepository) ListByTrack(trackID string, limit int) ([]*score.Result, error) {
	query := `SELECT id, track_id, final_score, weighted_score, frame_count, started_at, duration_ms
	          FROM sessions WHERE track_id = ? ORDER BY started_at DESC`
	args := []any{trackID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*score.Result
	for rows.Next() {
		res := &score.Result{}
		var durationMs int64
		if err := rows.Scan(&res.ID, &res.TrackID, &res.Final, &res.Weighted, &res.FrameCount, &res.StartedAt, &durationMs); err != nil {
			return nil, err
		}
		res.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Delete removes a session and, via the cascade, its breakdown rows.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepository) breakdown(sessionID string) (map[string]float64, error) {
	rows, err := r.db.Query(
		`SELECT joint, match_percent FROM session_joints WHERE session_id = ?`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var joint string
		var percent float64
		if err := rows.Scan(&joint, &percent); err != nil {
			return nil, err
		}
		out[joint] = percent
	}
	return out, rows.Err()
}
