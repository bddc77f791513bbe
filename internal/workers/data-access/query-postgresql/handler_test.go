package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	apperrors "directory-workers/internal/common/errors"
	"directory-workers/internal/common/logger"
	"directory-workers/internal/models"
	"directory-workers/internal/store"
	"directory-workers/internal/workers/data-access/query-postgresql/queries"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)

var providerColumns = []string{
	"id", "nombre", "distrito", "calificacion", "total_visitas", "total_comentarios",
	"latitud", "longitud", "servicios", "usuario_id", "resumen_coment",
}

var ratingColumns = []string{"notaria_id", "puntaje", "texto", "creado_en"}

func createTestConfig() *Config {
	return &Config{
		Timeout:          5 * time.Second,
		DefaultSinceDays: 30,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createBenchmarkLogger(b *testing.B) logger.Logger {
	zapLogger, _ := zap.NewProduction()
	return logger.NewZapAdapter(zapLogger)
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(createTestConfig(), store.NewPostgres(db, 100), createTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h, mock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		input          *Input
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "provider candidates",
			input: &Input{QueryType: string(QueryTypeProviderCandidates), Term: "  poderes "},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(providerColumns).
					AddRow(int64(1), "Notaría Ríos", "Cercado", 4.1, int64(10), int64(2), -12.0, -77.0, "{poderes}", "3", "")
				mock.ExpectQuery(`FROM notarias n`).
					WithArgs("%poderes%", 100).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				providers := output.Data.([]models.Provider)
				assert.Equal(t, "Notaría Ríos", providers[0].Name)
			},
		},
		{
			name:  "provider details",
			input: &Input{QueryType: string(QueryTypeProviderDetails), ProviderID: 4},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(providerColumns).
					AddRow(int64(4), "Notaría Vega", "Surco", 3.9, int64(0), int64(0), nil, nil, "{}", "", "Resumen")
				mock.ExpectQuery(`WHERE n.id = \$1`).WithArgs(int64(4)).WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				p := output.Data.(*models.Provider)
				assert.Equal(t, "Resumen", p.Summary)
				assert.False(t, p.HasCoordinates())
			},
		},
		{
			name:  "provider ratings",
			input: &Input{QueryType: string(QueryTypeProviderRatings), OwnerID: "9"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(ratingColumns)
				for _, s := range []int{5, 5, 5, 1, 1} {
					rows.AddRow(int64(2), s, "", created)
				}
				rows.AddRow(int64(1), 4, "bien", created)
				mock.ExpectQuery(`FROM comentarios c`).WithArgs("9").WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				stats := output.Data.([]queries.RatingStats)
				assert.Equal(t, int64(1), stats[0].ProviderID)
				assert.Nil(t, stats[0].StdDev)
				assert.Equal(t, int64(2), stats[1].ProviderID)
				assert.InDelta(t, 3.4, stats[1].Mean, 1e-9)
				require.NotNil(t, stats[1].StdDev)
				assert.InDelta(t, 1.959591794, *stats[1].StdDev, 1e-6)
			},
		},
		{
			name:  "rating history",
			input: &Input{QueryType: string(QueryTypeRatingHistory), ProviderID: 2},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(ratingColumns).
					AddRow(int64(2), 5, "Excelente atención", created).
					AddRow(int64(2), 3, "", created.Add(time.Hour))
				mock.ExpectQuery(`FROM comentarios`).WithArgs(int64(2)).WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				samples := output.Data.([]models.RatingSample)
				assert.Equal(t, "Excelente atención", samples[0].Text)
			},
		},
		{
			name:  "search log uses default window",
			input: &Input{QueryType: string(QueryTypeSearchLog)},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "termino", "usuario_id", "cantidad_resultados", "fecha"}).
					AddRow(int64(11), "apostilla", "", 0, created)
				mock.ExpectQuery(`FROM registros_busqueda`).
					WithArgs(fixedNow.AddDate(0, 0, -30)).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				entries := output.Data.([]models.SearchLogEntry)
				assert.Equal(t, int64(11), entries[0].ID)
				assert.Zero(t, entries[0].ResultCount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)
			tt.mockQuery(mock)

			output, err := handler.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))
			tt.validateOutput(t, output)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		mockQuery func(mock sqlmock.Sqlmock)
		code      apperrors.ErrorCode
	}{
		{
			name:  "unknown query type",
			input: &Input{QueryType: "user_profile"},
			code:  apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:  "missing term",
			input: &Input{QueryType: string(QueryTypeProviderCandidates), Term: "   "},
			code:  apperrors.ErrCodeInvalidQueryParams,
		},
		{
			name:  "missing provider id",
			input: &Input{QueryType: string(QueryTypeRatingHistory)},
			code:  apperrors.ErrCodeInvalidQueryParams,
		},
		{
			name:  "provider not found",
			input: &Input{QueryType: string(QueryTypeProviderDetails), ProviderID: 99},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`WHERE n.id = \$1`).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)
			},
			code: apperrors.ErrCodeProviderNotFound,
		},
		{
			name:  "database failure",
			input: &Input{QueryType: string(QueryTypeRatingHistory), ProviderID: 2},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM comentarios`).WithArgs(int64(2)).WillReturnError(errors.New("connection refused"))
			},
			code: apperrors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)
			if tt.mockQuery != nil {
				tt.mockQuery(mock)
			}

			output, err := handler.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, output)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_NilInput(t *testing.T) {
	handler, _ := newTestHandler(t)

	_, err := handler.Execute(context.Background(), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidQueryParams))
}

func TestHandler_Execute_Timeout(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectQuery(`FROM comentarios`).
		WithArgs(int64(2)).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows(ratingColumns))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := handler.Execute(ctx, &Input{QueryType: string(QueryTypeRatingHistory), ProviderID: 2})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryTimeout), "got %v", err)
}

func TestRegistry_CoversAllQueryTypes(t *testing.T) {
	for _, qt := range []models.QueryType{
		QueryTypeProviderCandidates,
		QueryTypeProviderDetails,
		QueryTypeProviderRatings,
		QueryTypeRatingHistory,
		QueryTypeSearchLog,
	} {
		assert.Contains(t, queries.Registry, qt)
	}
}

// ==========================
// Performance Tests
// ==========================

func BenchmarkHandler_Execute(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	handler := NewHandler(createTestConfig(), store.NewPostgres(db, 100), createBenchmarkLogger(b))
	input := &Input{QueryType: string(QueryTypeRatingHistory), ProviderID: 2}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mock.ExpectQuery(`FROM comentarios`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(ratingColumns).AddRow(int64(2), 5, "", time.Now()))
		_, _ = handler.Execute(context.Background(), input)
	}
}
