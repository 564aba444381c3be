package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

// SummaryRepo persists and loads summary history.
type SummaryRepo struct{ Pool PgxPool }

// NewSummaryRepo constructs a SummaryRepo with the given pool.
func NewSummaryRepo(p PgxPool) *SummaryRepo { return &SummaryRepo{Pool: p} }

// Create stores a summary record and returns its id (generates one if empty).
func (r *SummaryRepo) Create(ctx domain.Context, rec domain.SummaryRecord) (string, error) {
	tracer := otel.Tracer("repo.summaries")
	ctx, span := tracer.Start(ctx, "summaries.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "summaries"),
	)
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO summaries (id, transcript_hash, content, model, tokens_used, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.Pool.Exec(ctx, q, id, rec.TranscriptHash, rec.Content, rec.Model, rec.TokensUsed, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=summary.create: %w", err)
	}
	return id, nil
}

// ListRecent loads the most recent summaries, newest first.
func (r *SummaryRepo) ListRecent(ctx domain.Context, limit int) ([]domain.SummaryRecord, error) {
	tracer := otel.Tracer("repo.summaries")
	ctx, span := tracer.Start(ctx, "summaries.ListRecent")
	defer span.End()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := `SELECT id, transcript_hash, content, model, tokens_used, created_at FROM summaries ORDER BY created_at DESC LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=summary.list: %w", err)
	}
	defer rows.Close()
	var out []domain.SummaryRecord
	for rows.Next() {
		var rec domain.SummaryRecord
		if err := rows.Scan(&rec.ID, &rec.TranscriptHash, &rec.Content, &rec.Model, &rec.TokensUsed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=summary.scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=summary.rows: %w", err)
	}
	return out, nil
}
