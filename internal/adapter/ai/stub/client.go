// Package stub provides a fast, deterministic AI client for local runs.
package stub

import (
	"fmt"
	"time"

	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

// Client is a deterministic AIClient used when AI_USE_STUB is set; it never
// touches the network.
type Client struct{}

func New() *Client { return &Client{} }

// GenerateSummary returns a canned structured summary derived from the
// transcript length, with a small delay to resemble real work.
func (c *Client) GenerateSummary(_ domain.Context, transcript, _ string, opts domain.SummarizeOptions) (domain.Summary, error) {
	time.Sleep(50 * time.Millisecond)
	model := opts.Model
	if model == "" {
		model = "stub"
	}
	content := fmt.Sprintf(
		"Key points:\n- Transcript of %d characters discussed.\n\nDecisions made:\n- None recorded.\n\nAction items:\n- None recorded.",
		len(transcript))
	return domain.Summary{
		Content:     content,
		Model:       model,
		TokensUsed:  len(transcript) / 4,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
