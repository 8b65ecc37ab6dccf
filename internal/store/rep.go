package store

import (
	"database/sql"
	"time"
)

// Rep is one completed repetition inside a session.
type Rep struct {
	ID          int64
	SessionID   string
	Direction   string
	Count       int
	HoldMs      int64
	CompletedAt time.Time
}

// RepRepository stores reps per session.
type RepRepository struct {
	db *sql.DB
}

// Reps returns the rep repository for this store.
func (s *Store) Reps() *RepRepository {
	return &RepRepository{db: s.db}
}

// Add appends a rep and sets its ID.
func (r *RepRepository) Add(rep *Rep) error {
	result, err := r.db.Exec(
		`INSERT INTO session_reps (session_id, direction, count, hold_ms, completed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rep.SessionID, rep.Direction, rep.Count, rep.HoldMs, rep.CompletedAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = id
	return nil
}

// ListBySession returns the reps of a session in completion order.
func (r *RepRepository) ListBySession(sessionID string) ([]Rep, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, direction, count, hold_ms, completed_at
		 FROM session_reps WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reps []Rep
	for rows.Next() {
		var rep Rep
		if err := rows.Scan(&rep.ID, &rep.SessionID, &rep.Direction, &rep.Count, &rep.HoldMs, &rep.CompletedAt); err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reps, nil
}
