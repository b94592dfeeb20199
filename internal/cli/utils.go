// Package cli provides CLI output formatting for Annai.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/annai/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteRetrievalResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteRetrievalResults(w io.Writer, results []models.RetrievalResult, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	writeRetrievalResultsText(w, results)
	return nil
}

func writeRetrievalResultsText(w io.Writer, results []models.RetrievalResult) {
	fmt.Fprintf(w, "\nFound %d results\n\n", len(results))
	for _, result := range results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result models.RetrievalResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | Type: %s\n",
		result.Rank, result.Score, MetadataString(result.Metadata, "type"))
	if id := MetadataString(result.Metadata, "id"); id != "" {
		fmt.Fprintf(w, "ID: %s\n", id)
	}
	if name := MetadataString(result.Metadata, "name"); name != "" {
		fmt.Fprintf(w, "Name: %s\n", name)
	}
	if content := MetadataString(result.Metadata, "content"); content != "" {
		fmt.Fprintf(w, "\n%s\n", Truncate(content, 200))
	}
	fmt.Fprintln(w)
}

// WriteAnswer writes a RAG answer to w in the given format. Text output
// shows the response body followed by a short summary of the sources
// the answer was grounded on.
func WriteAnswer(w io.Writer, answer *models.AnswerResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	fmt.Fprintf(w, "\n%s\n", answer.Response)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(w, "\nSources (%d):\n", len(answer.Sources))
		for _, source := range answer.Sources {
			fmt.Fprintf(w, "  %d. [%s] %s (score %.4f)\n",
				source.Rank,
				MetadataString(source.Metadata, "type"),
				MetadataString(source.Metadata, "name"),
				source.Score)
		}
	}
	fmt.Fprintf(w, "\nconfidence: %.1f   session: %s\n", answer.Confidence, answer.SessionID)
	return nil
}

// MetadataString returns the metadata value under key rendered as a string,
// or "" when the key is absent.
func MetadataString(meta models.Metadata, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
