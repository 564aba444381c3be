package postgres_test

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

func TestSummaryRepo_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rec     domain.SummaryRecord
		setup   func(pgxmock.PgxPoolIface)
		wantErr bool
		errMsg  string
	}{
		{
			name: "create with provided id",
			rec: domain.SummaryRecord{
				ID:             "sum-123",
				TranscriptHash: "abc",
				Content:        "Key points: launch approved.",
				Model:          "gpt-4o-mini",
				TokensUsed:     42,
			},
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec("INSERT INTO summaries").
					WithArgs("sum-123", "abc", "Key points: launch approved.", "gpt-4o-mini", 42, pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "create without id generates one",
			rec: domain.SummaryRecord{
				TranscriptHash: "def",
				Content:        "Decisions: none.",
				Model:          "gpt-4o-mini",
			},
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec("INSERT INTO summaries").
					WithArgs(pgxmock.AnyArg(), "def", "Decisions: none.", "gpt-4o-mini", 0, pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "database error",
			rec:  domain.SummaryRecord{ID: "err-1", TranscriptHash: "x"},
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec("INSERT INTO summaries").
					WithArgs("err-1", "x", "", "", 0, pgxmock.AnyArg()).
					WillReturnError(assert.AnError)
			},
			wantErr: true,
			errMsg:  "op=summary.create",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer m.Close()
			tt.setup(m)

			repo := postgres.NewSummaryRepo(m)
			id, err := repo.Create(context.Background(), tt.rec)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Empty(t, id)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, id)
				if tt.rec.ID != "" {
					assert.Equal(t, tt.rec.ID, id)
				}
			}
			assert.NoError(t, m.ExpectationsWereMet())
		})
	}
}

func TestSummaryRepo_ListRecent(t *testing.T) {
	t.Parallel()
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	now := time.Now().UTC()
	m.ExpectQuery("SELECT id, transcript_hash, content, model, tokens_used, created_at FROM summaries").
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "transcript_hash", "content", "model", "tokens_used", "created_at"}).
			AddRow("b", "h2", "second", "gpt-4o-mini", 10, now).
			AddRow("a", "h1", "first", "gpt-4o-mini", 5, now.Add(-time.Hour)))

	repo := postgres.NewSummaryRepo(m)
	recs, err := repo.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].ID)
	assert.Equal(t, "second", recs[0].Content)
	assert.Equal(t, 10, recs[0].TokensUsed)
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestSummaryRepo_ListRecent_LimitClamped(t *testing.T) {
	t.Parallel()
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	// Out-of-range limits fall back to the default page size.
	m.ExpectQuery("SELECT id, transcript_hash").
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "transcript_hash", "content", "model", "tokens_used", "created_at"}))

	repo := postgres.NewSummaryRepo(m)
	recs, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestSummaryRepo_ListRecent_QueryError(t *testing.T) {
	t.Parallel()
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	m.ExpectQuery("SELECT id, transcript_hash").
		WithArgs(20).
		WillReturnError(assert.AnError)

	_, err = postgres.NewSummaryRepo(m).ListRecent(context.Background(), 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=summary.list")
}
