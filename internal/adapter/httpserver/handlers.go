package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/meeting-summarizer/internal/cache"
	"github.com/fairyhunter13/meeting-summarizer/internal/config"
	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
	"github.com/fairyhunter13/meeting-summarizer/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Summarize  usecase.SummarizeService
	Email      usecase.EmailService
	Cache      *cache.Cache
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, summarize usecase.SummarizeService, email usecase.EmailService, c *cache.Cache, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Summarize: summarize, Email: email, Cache: c, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type summarizeRequest struct {
	Transcript   string `json:"transcript" validate:"required"`
	CustomPrompt string `json:"custom_prompt"`
	Options      struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
		MaxTokens   int     `json:"max_tokens" validate:"gte=0"`
	} `json:"options"`
}

type summarizeResponse struct {
	Summary         string    `json:"summary"`
	Model           string    `json:"model"`
	TokensUsed      int       `json:"tokens_used"`
	PromptTokensEst int       `json:"prompt_tokens_est,omitempty"`
	Cached          bool      `json:"cached"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// SummarizeHandler accepts a transcript and returns its structured summary.
func (s *Server) SummarizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req summarizeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		sum, err := s.Summarize.Summarize(r.Context(), req.Transcript, req.CustomPrompt, domain.SummarizeOptions{
			Model:       req.Options.Model,
			Temperature: req.Options.Temperature,
			MaxTokens:   req.Options.MaxTokens,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, summarizeResponse{
			Summary:         sum.Content,
			Model:           sum.Model,
			TokensUsed:      sum.TokensUsed,
			PromptTokensEst: sum.PromptEst,
			Cached:          sum.Cached,
			GeneratedAt:     sum.GeneratedAt,
		})
	}
}

type emailRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required"`
	Subject    string   `json:"subject"`
	Summary    string   `json:"summary" validate:"required"`
	SenderName string   `json:"sender_name"`
}

type emailResponse struct {
	MessageID  string   `json:"message_id"`
	Recipients []string `json:"recipients"`
}

// EmailHandler sends a previously generated summary to a recipient list.
// Address syntax is enforced by the mail adapter before any transport work.
func (s *Server) EmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		receipt, err := s.Email.Send(r.Context(), domain.EmailMessage{
			Recipients: req.Recipients,
			Subject:    req.Subject,
			Summary:    req.Summary,
			SenderName: req.SenderName,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, emailResponse{MessageID: receipt.MessageID, Recipients: receipt.Recipients})
	}
}

// SummariesHandler lists recent summaries when a history DB is configured.
func (s *Server) SummariesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidArgument), nil)
				return
			}
			limit = n
		}
		recs, err := s.Summarize.ListHistory(r.Context(), limit)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		type item struct {
			ID             string    `json:"id"`
			TranscriptHash string    `json:"transcript_hash"`
			Content        string    `json:"content"`
			Model          string    `json:"model"`
			TokensUsed     int       `json:"tokens_used"`
			CreatedAt      time.Time `json:"created_at"`
		}
		out := make([]item, 0, len(recs))
		for _, rec := range recs {
			out = append(out, item(rec))
		}
		writeJSON(w, http.StatusOK, map[string]any{"summaries": out})
	}
}

// ReadyzHandler reports dependency readiness.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name string `json:"name"`
		OK   bool   `json:"ok"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := []check{}
		allOK := true
		for name, fn := range map[string]func(context.Context) error{"db": s.DBCheck, "redis": s.RedisCheck} {
			if fn == nil {
				continue
			}
			ok := fn(ctx) == nil
			allOK = allOK && ok
			checks = append(checks, check{Name: name, OK: ok})
		}
		status := http.StatusOK
		if !allOK {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"ready": allOK, "checks": checks})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}
