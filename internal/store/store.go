package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each new connection to :memory: is a separate empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exams (
		code TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		year INTEGER NOT NULL,
		is_spring INTEGER NOT NULL,
		import_batch TEXT NOT NULL DEFAULT '',
		imported_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_code TEXT NOT NULL,
		question_number TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		total_points INTEGER NOT NULL DEFAULT 0,
		prompt_text TEXT NOT NULL DEFAULT '',
		question_json TEXT NOT NULL,
		source_path TEXT NOT NULL DEFAULT '',
		scraped_at DATETIME NOT NULL,
		UNIQUE (exam_code, question_number),
		FOREIGN KEY (exam_code) REFERENCES exams(code)
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL,
		student_id TEXT NOT NULL,
		answer_text TEXT NOT NULL,
		ai_grade TEXT NOT NULL DEFAULT '',
		ai_feedback TEXT NOT NULL DEFAULT '',
		ai_score INTEGER NOT NULL DEFAULT 0,
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_student ON submissions(student_id);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetImportedFileHash returns the content hash recorded for path, or "" if
// the file was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the content hash of an imported file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?`,
		path, hash, hash,
	)
	return err
}
