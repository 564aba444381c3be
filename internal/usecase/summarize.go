// Package usecase contains application business logic services.
package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/fairyhunter13/meeting-summarizer/internal/cache"
	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

// SummarizeService orchestrates cache lookup and the AI adapter for one
// summarization request. Admission control runs before this service is
// invoked; a denied request never reaches it.
type SummarizeService struct {
	AI      domain.AIClient
	Cache   *cache.Cache
	History domain.SummaryRepository // nil when no DB is configured
	TTL     time.Duration
	Min     int
	Max     int
}

// NewSummarizeService constructs a SummarizeService with its dependencies.
func NewSummarizeService(ai domain.AIClient, c *cache.Cache, history domain.SummaryRepository, ttl time.Duration, minChars, maxChars int) SummarizeService {
	return SummarizeService{AI: ai, Cache: c, History: history, TTL: ttl, Min: minChars, Max: maxChars}
}

// Summarize validates bounds, consults the cache, and falls through to the
// AI adapter on miss. Successful summaries are cached for the configured TTL
// and appended to history best-effort.
func (s SummarizeService) Summarize(ctx domain.Context, transcript, customPrompt string, opts domain.SummarizeOptions) (domain.Summary, error) {
	if len(transcript) < s.Min {
		return domain.Summary{}, fmt.Errorf("%w: transcript shorter than %d characters", domain.ErrInvalidArgument, s.Min)
	}
	if s.Max > 0 && len(transcript) > s.Max {
		return domain.Summary{}, fmt.Errorf("%w: transcript longer than %d characters", domain.ErrInvalidArgument, s.Max)
	}

	key := cacheKey(transcript, customPrompt, opts.Model)
	raw, hit, err := s.Cache.GetOrCompute(ctx, key, s.TTL, func(ctx domain.Context) ([]byte, error) {
		sum, err := s.AI.GenerateSummary(ctx, transcript, customPrompt, opts)
		if err != nil {
			return nil, err
		}
		s.record(ctx, transcript, sum)
		return json.Marshal(sum)
	})
	if err != nil {
		return domain.Summary{}, err
	}

	var sum domain.Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return domain.Summary{}, fmt.Errorf("%w: decode cached summary: %v", domain.ErrInternal, err)
	}
	sum.Cached = hit
	return sum, nil
}

// ListHistory returns recent summary records; empty when no DB is configured.
func (s SummarizeService) ListHistory(ctx domain.Context, limit int) ([]domain.SummaryRecord, error) {
	if s.History == nil {
		return nil, fmt.Errorf("%w: history not configured", domain.ErrNotFound)
	}
	return s.History.ListRecent(ctx, limit)
}

func (s SummarizeService) record(ctx domain.Context, transcript string, sum domain.Summary) {
	if s.History == nil {
		return
	}
	rec := domain.SummaryRecord{
		TranscriptHash: hash(transcript),
		Content:        sum.Content,
		Model:          sum.Model,
		TokensUsed:     sum.TokensUsed,
	}
	if _, err := s.History.Create(ctx, rec); err != nil {
		// History is an auxiliary sink; never fail the request over it.
		slog.Warn("summary history write failed", slog.Any("error", err))
	}
}

func cacheKey(transcript, customPrompt, model string) string {
	return hash(transcript + "\x00" + customPrompt + "\x00" + model)
}

func hash(s string) string { h := sha256.Sum256([]byte(s)); return hex.EncodeToString(h[:]) }
