package store

import (
	"database/sql"
	"errors"
)

// PrefsRepository stores user preferences as key-value pairs. Its Get
// signature matches the mode manager's persistence collaborator.
type PrefsRepository struct {
	db *sql.DB
}

// Prefs returns the preferences repository for this store.
func (s *Store) Prefs() *PrefsRepository {
	return &PrefsRepository{db: s.db}
}

// Get reads a preference. ok is false when the key has never been set.
func (r *PrefsRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set writes a preference, replacing any previous value.
func (r *PrefsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Delete removes a preference. Deleting an absent key is a no-op.
func (r *PrefsRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	return err
}
