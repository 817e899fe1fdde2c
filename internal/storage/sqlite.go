package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

var _ Storage = (*SQLiteStorage)(nil)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		content_type TEXT,
		source_id TEXT NOT NULL,
		chunks_count INTEGER NOT NULL,
		processing_status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	CREATE INDEX IF NOT EXISTS idx_documents_source_id ON documents(source_id);

	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		wrong_answer TEXT,
		correct_answer TEXT,
		note TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_timestamp ON feedback(timestamp);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// CreateDocument inserts a document metadata row.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, file_name, file_size, content_type, source_id, chunks_count, processing_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.FileName, doc.FileSize, doc.ContentType, doc.SourceID, doc.ChunksCount, doc.ProcessingStatus, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

const documentColumns = `id, file_name, file_size, content_type, source_id, chunks_count, processing_status, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var doc models.Document
	var contentType sql.NullString
	if err := row.Scan(&doc.ID, &doc.FileName, &doc.FileSize, &contentType, &doc.SourceID,
		&doc.ChunksCount, &doc.ProcessingStatus, &doc.CreatedAt); err != nil {
		return nil, err
	}
	doc.ContentType = contentType.String
	return &doc, nil
}

// GetDocument returns a document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns documents, newest first, with offset and limit.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of ingested documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// AppendFeedback inserts a feedback entry.
func (s *SQLiteStorage) AppendFeedback(ctx context.Context, entry *models.FeedbackEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, question, wrong_answer, correct_answer, note, timestamp, processed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Question, entry.WrongAnswer, entry.CorrectAnswer, entry.Note, entry.Timestamp, entry.Processed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListFeedback returns feedback entries in the order they were recorded.
func (s *SQLiteStorage) ListFeedback(ctx context.Context, offset, limit int) ([]*models.FeedbackEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, wrong_answer, correct_answer, note, timestamp, processed
		 FROM feedback ORDER BY timestamp ASC, rowid ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.FeedbackEntry, 0)
	for rows.Next() {
		var e models.FeedbackEntry
		var wrong, correct sql.NullString
		if err := rows.Scan(&e.ID, &e.Question, &wrong, &correct, &e.Note, &e.Timestamp, &e.Processed); err != nil {
			return nil, err
		}
		e.WrongAnswer = wrong.String
		e.CorrectAnswer = correct.String
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountFeedback returns the number of feedback entries.
func (s *SQLiteStorage) CountFeedback(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
