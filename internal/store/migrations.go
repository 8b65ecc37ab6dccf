package store

func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per exercise session, written at start and finished at stop or completion
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			exercise TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			reps_left INTEGER NOT NULL DEFAULT 0,
			reps_right INTEGER NOT NULL DEFAULT 0,
			target_per_side INTEGER NOT NULL,
			sides INTEGER NOT NULL CHECK(sides IN (1, 2)),
			completed INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS session_reps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			direction TEXT NOT NULL CHECK(direction IN ('left', 'right')),
			count INTEGER NOT NULL,
			hold_ms INTEGER NOT NULL,
			completed_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_session_reps_session_id ON session_reps(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
