package models

import "errors"

var (
	// ErrValidation marks missing or malformed input; no external call is made.
	ErrValidation = errors.New("validation error")
	// ErrExtraction marks a document whose text could not be read.
	ErrExtraction = errors.New("extraction error")
	// ErrStorage marks a vector store or metadata store failure.
	ErrStorage = errors.New("storage error")
	// ErrDimensionMismatch marks a vector whose length differs from the configured dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInferenceSubmission marks a job that could not be submitted.
	ErrInferenceSubmission = errors.New("inference submission error")
	// ErrInferenceFailed marks a job the service reported as failed.
	ErrInferenceFailed = errors.New("inference failed")
	// ErrInferenceTimeout marks a job that never reached a terminal status within its attempt budget.
	ErrInferenceTimeout = errors.New("inference timeout")
	// ErrNotFound marks a missing metadata row.
	ErrNotFound = errors.New("not found")
)
