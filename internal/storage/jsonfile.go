package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

var _ FeedbackStore = (*JSONFileSink)(nil)

// JSONFileSink keeps feedback as an indented JSON array in a single file.
// The whole file is rewritten on every append.
type JSONFileSink struct {
	path string
	mu   sync.Mutex
}

// NewJSONFileSink returns a sink writing to path. The file is created on first append.
func NewJSONFileSink(path string) (*JSONFileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create feedback directory: %w", err)
		}
	}
	return &JSONFileSink{path: path}, nil
}

// AppendFeedback adds entry to the end of the file.
func (s *JSONFileSink) AppendFeedback(_ context.Context, entry *models.FeedbackEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.read()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write feedback: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace feedback file: %w", err)
	}
	return nil
}

// ListFeedback returns entries in file order.
func (s *JSONFileSink) ListFeedback(_ context.Context, offset, limit int) ([]*models.FeedbackEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	if offset >= len(entries) {
		return []*models.FeedbackEntry{}, nil
	}
	entries = entries[offset:]
	if limit >= 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// CountFeedback returns the number of entries in the file.
func (s *JSONFileSink) CountFeedback(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.read()
	return int64(len(entries)), err
}

// Close is a no-op; the file is not held open.
func (s *JSONFileSink) Close() error {
	return nil
}

func (s *JSONFileSink) read() ([]*models.FeedbackEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}
	var entries []*models.FeedbackEntry
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse feedback file: %w", err)
	}
	return entries, nil
}
