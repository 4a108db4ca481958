package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// SavedState is the durable subset of game state. Everything else (players,
// judge, the round in flight) is runtime-only and resets on startup.
type SavedState struct {
	Scores            map[string]int `json:"scores"`
	Questions         []Question     `json:"questions"`
	NextQuestionID    int            `json:"nextQuestionId"`
	QuestionsAnswered int            `json:"questionsAnswered"`
}

// Store is the narrow persistence contract the game needs. Load returns
// (nil, nil) when nothing has been saved yet.
type Store interface {
	Load() (*SavedState, error)
	Save(state SavedState) error
}

// newStore picks the backend: a sqlite database when --database is set,
// otherwise a local JSON file.
func newStore(cfg *Config) (Store, error) {
	if cfg.database != "" {
		logf(cfg, "STORE: Using sqlite database %s", cfg.database)
		return newSqliteStore(cfg.database)
	}

	logf(cfg, "STORE: Using local file %s", cfg.dataFile)
	return &fileStore{path: cfg.dataFile}, nil
}

type fileStore struct {
	path string
}

func (s *fileStore) Load() (*SavedState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state SavedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("corrupt save file %s: %w", s.path, err)
	}
	return &state, nil
}

func (s *fileStore) Save(state SavedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

const gameStateKey = "trivia_game_state"

type sqliteStore struct {
	db *sql.DB
}

func newSqliteStore(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Safe to call multiple times.
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS game_state (
    key TEXT PRIMARY KEY,
    payload TEXT NOT NULL
)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Load() (*SavedState, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM game_state WHERE key = ?`, gameStateKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state SavedState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("corrupt saved payload: %w", err)
	}
	return &state, nil
}

func (s *sqliteStore) Save(state SavedState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT INTO game_state (key, payload) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET payload = excluded.payload`, gameStateKey, payload)
	return err
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
