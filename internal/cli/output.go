// Package cli renders pipeline results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes a generated answer.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, answer)
	}
	fmt.Fprintf(w, "\nQ: %s\n\n%s\n\n(%d context passages)\n", answer.Query, answer.Answer, answer.ContextChunksUsed)
	return nil
}

// WriteFailure writes a failed query: the fallback text for the user and the cause.
func WriteFailure(w io.Writer, cause error, fallback string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]string{"error": cause.Error(), "fallback_response": fallback})
	}
	fmt.Fprintf(w, "\n%s\n\nerror: %v\n", fallback, cause)
	return nil
}

// WriteIngestResult writes the outcome of one ingestion.
func WriteIngestResult(w io.Writer, res *models.IngestResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Ingested %s: %d passages, %d embeddings\n", res.SourceID, res.ChunksProcessed, res.EmbeddingsCreated)
	if res.Document != nil {
		fmt.Fprintf(w, "Document ID: %s\n", res.Document.ID)
	}
	return nil
}

// WriteSearchResults writes raw retrieval hits.
func WriteSearchResults(w io.Writer, query string, results []models.SearchResult, format OutputFormat) error {
	if format == OutputJSON {
		if results == nil {
			results = []models.SearchResult{}
		}
		return writeJSON(w, map[string]interface{}{"query": query, "results": results, "total": len(results)})
	}
	fmt.Fprintf(w, "\nFound %d passages for %q\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%d. Score: %.4f | Source: %s | Chunk: %d\n", i+1, r.Score, r.Payload.SourceID, r.Payload.Index)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Payload.Text, 200))
	}
	return nil
}

// WriteStatus writes a key/value status map. Keys are printed in the given order.
func WriteStatus(w io.Writer, keys []string, status map[string]interface{}, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	for _, k := range keys {
		if v, ok := status[k]; ok {
			fmt.Fprintf(w, "%-22s %v\n", k+":", v)
		}
	}
	return nil
}
