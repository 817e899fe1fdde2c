package search

import "fmt"

// User-facing messages returned alongside failures and empty generations.
const (
	InferenceFallbackMessage = "I'm having trouble accessing my knowledge base right now. Please ensure all API credentials are properly configured and try again."
	StorageFallbackMessage   = "I'm sorry, I can't reach the fastener catalogue right now. Please try again in a few moments."
	EmptyAnswerMessage       = "I apologize, but I was unable to generate a response."
)

// AnswerError is a failed query. Err carries the technical cause and
// FallbackMessage the text to show the user instead of an answer.
type AnswerError struct {
	Stage           State
	Err             error
	FallbackMessage string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("answer failed after %s: %v", e.Stage, e.Err)
}

func (e *AnswerError) Unwrap() error {
	return e.Err
}
