package models

import "time"

// Answer is the result of a successful query.
type Answer struct {
	Answer            string `json:"response"`
	ContextChunksUsed int    `json:"context_chunks_used"`
	Query             string `json:"query"`
}

// FeedbackEntry is one append-only user correction.
type FeedbackEntry struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	WrongAnswer   string    `json:"wrong_answer,omitempty"`
	CorrectAnswer string    `json:"correct_answer,omitempty"`
	Note          string    `json:"user_feedback"`
	Timestamp     time.Time `json:"timestamp"`
	Processed     bool      `json:"processed"`
}
