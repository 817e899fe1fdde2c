package search

import (
	"fmt"
	"strings"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

const promptTemplate = `You are ScrewSavvy, an expert AI assistant for screw and fastener recommendations. Use the provided context to answer questions about screws, fasteners, and hardware. Be helpful, accurate, and specific in your recommendations. If the context doesn't contain relevant information, say so politely.

Context:
%s

User Question: %s

Answer:`

// JoinContext concatenates passage texts in result order, separated by a blank line.
func JoinContext(results []models.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Payload.Text
	}
	return strings.Join(texts, "\n\n")
}

// BuildPrompt fills the answer template. The context section is empty when
// no passage cleared the score threshold.
func BuildPrompt(results []models.SearchResult, question string) string {
	return fmt.Sprintf(promptTemplate, JoinContext(results), question)
}
