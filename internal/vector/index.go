// Package vector stores passage vectors and answers similarity queries.
package vector

import (
	"context"
	"fmt"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

// Store holds passage vectors in one named collection.
type Store interface {
	// Upsert writes records as one batch. Records with an existing id replace
	// it. A rejected batch is reported as a single error.
	Upsert(ctx context.Context, records []models.VectorRecord) error
	// Search returns at most limit hits scoring at least threshold, best first.
	Search(ctx context.Context, query []float32, limit int, threshold float64) ([]models.SearchResult, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	Close() error
}

// ValidateRecords rejects any record whose vector length differs from dimensions.
func ValidateRecords(records []models.VectorRecord, dimensions int) error {
	for _, r := range records {
		if len(r.Vector) != dimensions {
			return fmt.Errorf("%w: record %s has %d values, expected %d",
				models.ErrDimensionMismatch, r.ID, len(r.Vector), dimensions)
		}
	}
	return nil
}

func validateQuery(query []float32, dimensions int) error {
	if len(query) != dimensions {
		return fmt.Errorf("%w: query has %d values, expected %d",
			models.ErrDimensionMismatch, len(query), dimensions)
	}
	return nil
}
