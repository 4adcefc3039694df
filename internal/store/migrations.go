package store

// runMigrations executes all schema migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// User preferences as key-value pairs. Holds, among others, the
		// persisted detection mode.
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Finished play sessions with their aggregate scores.
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			track_id TEXT NOT NULL,
			final_score REAL NOT NULL,
			weighted_score REAL NOT NULL,
			frame_count INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Per-joint match percentages for a session's breakdown view.
		`CREATE TABLE IF NOT EXISTS session_joints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			joint TEXT NOT NULL,
			match_percent REAL NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_track_id ON sessions(track_id)`,
		`CREATE INDEX IF NOT EXISTS idx_session_joints_session_id ON session_joints(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
