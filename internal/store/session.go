package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is a persisted exercise session.
type Session struct {
	ID            string
	Exercise      string
	StartedAt     time.Time
	EndedAt       *time.Time
	RepsLeft      int
	RepsRight     int
	TargetPerSide int
	Sides         int
	Completed     bool
}

// Total returns the reps over both sides.
func (s *Session) Total() int {
	return s.RepsLeft + s.RepsRight
}

// ExerciseStats aggregates finished sessions of one exercise.
type ExerciseStats struct {
	Exercise  string
	Sessions  int
	Completed int
	Reps      int
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, exercise, started_at, ended_at, reps_left, reps_right, target_per_side, sides, completed`

// Create inserts a new session. An empty ID is filled with a new UUID.
func (r *SessionRepository) Create(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Exercise, s.StartedAt, nullTime(s.EndedAt), s.RepsLeft, s.RepsRight,
		s.TargetPerSide, s.Sides, s.Completed,
	)
	return err
}

// Update stores the counters and end state of an existing session.
func (r *SessionRepository) Update(s *Session) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, reps_left = ?, reps_right = ?, completed = ?
		 WHERE id = ?`,
		nullTime(s.EndedAt), s.RepsLeft, s.RepsRight, s.Completed, s.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns sessions newest first. limit <= 0 returns all of them.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
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

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session and its reps.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Stats aggregates finished sessions per exercise, ordered by exercise name.
func (r *SessionRepository) Stats() ([]ExerciseStats, error) {
	rows, err := r.db.Query(
		`SELECT exercise, COUNT(*), COALESCE(SUM(completed), 0), COALESCE(SUM(reps_left + reps_right), 0)
		 FROM sessions WHERE ended_at IS NOT NULL
		 GROUP BY exercise ORDER BY exercise`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ExerciseStats
	for rows.Next() {
		var st ExerciseStats
		if err := rows.Scan(&st.Exercise, &st.Sessions, &st.Completed, &st.Reps); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	s := &Session{}
	var ended sql.NullTime
	var completed int

	err := row.Scan(&s.ID, &s.Exercise, &s.StartedAt, &ended, &s.RepsLeft, &s.RepsRight,
		&s.TargetPerSide, &s.Sides, &completed)
	if err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	s.Completed = completed != 0
	return s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
