// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"directory-workers/internal/cache"
	"directory-workers/internal/common/config"
	"directory-workers/internal/common/database"
	apperrors "directory-workers/internal/common/errors"
	"directory-workers/internal/common/logger"
	"directory-workers/internal/store"

	detectqualityalerts "directory-workers/internal/workers/analytics/detect-quality-alerts"
	generatecommentsummary "directory-workers/internal/workers/analytics/generate-comment-summary"
	searchtrends "directory-workers/internal/workers/analytics/search-trends"
	queryelasticsearch "directory-workers/internal/workers/data-access/query-elasticsearch"
	querypostgresql "directory-workers/internal/workers/data-access/query-postgresql"
	searchproviders "directory-workers/internal/workers/directory/search-providers"
)

// Seeded rows use ids far above anything a dev database holds.
const (
	polarizedID = int64(90001)
	steadyID    = int64(90002)
	seedOwner   = "9001"
	seedTerm    = "e2e"
)

var (
	cfg         *config.Config
	zeebeClient zbc.Client
	pg          *database.PostgresClient
	rdb         *database.RedisClient
	es          *database.ElasticsearchClient
	log         logger.Logger
)

// TestMain needs E2E=1 plus the services from configs/config.yaml
// (Zeebe, PostgreSQL, Redis and optionally Elasticsearch).
func TestMain(m *testing.M) {
	if os.Getenv("E2E") == "" {
		fmt.Println("skipping e2e tests: set E2E=1 to run against live services")
		os.Exit(0)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to load config: %v", err))
	}

	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Zeebe: %v", err))
	}

	if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
		panic(fmt.Sprintf("❌ Failed to open PostgreSQL: %v", err))
	}
	if rdb, err = database.NewRedis(cfg.Database.Redis); err != nil {
		panic(fmt.Sprintf("❌ Failed to open Redis: %v", err))
	}
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		if es, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
			panic(fmt.Sprintf("❌ Failed to open Elasticsearch: %v", err))
		}
	}

	zapLog, _ := zap.NewDevelopment()
	log = logger.NewZapAdapter(zapLog)

	code := m.Run()

	zeebeClient.Close()
	pg.Close()
	rdb.Close()
	os.Exit(code)
}

// ==========================
// 1. Connectivity
// ==========================

func TestServicesConnectivity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pingers := []database.Pinger{pg, rdb}
	if es != nil {
		pingers = append(pingers, es)
	}
	for name, err := range database.PingAll(ctx, pingers...) {
		assert.NoError(t, err, "❌ %s ping failed", name)
	}

	_, err := zeebeClient.NewTopologyCommand().Send(ctx)
	assert.NoError(t, err, "❌ Zeebe topology request failed")
}

// ==========================
// 2. Schema + Seed Data
// ==========================

func seedDirectory(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	db := pg.DB

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS notarias (
			id BIGINT PRIMARY KEY,
			nombre TEXT NOT NULL,
			distrito TEXT,
			calificacion NUMERIC(3,2),
			total_visitas INTEGER DEFAULT 0,
			total_comentarios INTEGER DEFAULT 0,
			latitud DOUBLE PRECISION,
			longitud DOUBLE PRECISION,
			usuario_id INTEGER,
			resumen_coment TEXT,
			relevancia_score DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS notaria_servicios_generales (
			id SERIAL PRIMARY KEY,
			notaria_id BIGINT NOT NULL REFERENCES notarias(id) ON DELETE CASCADE,
			servicio TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS comentarios (
			id SERIAL PRIMARY KEY,
			notaria_id BIGINT NOT NULL REFERENCES notarias(id) ON DELETE CASCADE,
			puntaje SMALLINT NOT NULL CHECK (puntaje BETWEEN 1 AND 5),
			texto TEXT,
			creado_en TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS registros_busqueda (
			id BIGSERIAL PRIMARY KEY,
			termino TEXT NOT NULL,
			usuario_id VARCHAR(128),
			fecha TIMESTAMPTZ NOT NULL,
			cantidad_resultados INTEGER NOT NULL
		)`,
	}
	for _, q := range ddl {
		_, err := db.ExecContext(ctx, q)
		require.NoError(t, err, "❌ Failed to create table")
	}

	_, err := db.ExecContext(ctx, `DELETE FROM notarias WHERE id IN ($1, $2)`, polarizedID, steadyID)
	require.NoError(t, err)

	seed := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO notarias (id, nombre, distrito, calificacion, total_visitas, total_comentarios, latitud, longitud, usuario_id)
		  VALUES ($1, 'Notaría E2E Poderes', 'Miraflores', 4.2, 120, 10, -12.1211, -77.0297, $2)`,
			[]interface{}{polarizedID, seedOwner}},
		{`INSERT INTO notarias (id, nombre, distrito, calificacion, total_visitas, total_comentarios, usuario_id)
		  VALUES ($1, 'Notaría E2E Centro', 'Cercado de Lima', 4.8, 40, 5, $2)`,
			[]interface{}{steadyID, seedOwner}},
		{`INSERT INTO notaria_servicios_generales (notaria_id, servicio) VALUES ($1, 'Poderes'), ($1, 'Testamentos')`,
			[]interface{}{polarizedID}},
	}
	for _, s := range seed {
		_, err := db.ExecContext(ctx, s.query, s.args...)
		require.NoError(t, err, "❌ Failed to insert seed data")
	}

	insertComments(t, db, polarizedID, []int{5, 5, 5, 5, 5, 5, 5, 5, 1, 1},
		"Atención rápida y trámite claro", "Pésima atención, me cobraron de más")
	insertComments(t, db, steadyID, []int{5, 5, 4, 5, 5},
		"Muy buena atención", "")
}

func insertComments(t *testing.T, db *sql.DB, id int64, scores []int, good, bad string) {
	t.Helper()
	for i, score := range scores {
		text := good
		if score <= 2 {
			text = bad
		}
		_, err := db.ExecContext(context.Background(),
			`INSERT INTO comentarios (notaria_id, puntaje, texto, creado_en) VALUES ($1, $2, NULLIF($3, ''), NOW() - ($4 || ' minutes')::interval)`,
			id, score, text, fmt.Sprint(len(scores)-i))
		require.NoError(t, err)
	}
}

// ==========================
// 3. Workers Against Live Services
// ==========================

func TestDirectoryWorkers(t *testing.T) {
	seedDirectory(t)

	pgStore := store.NewPostgres(pg.DB, cfg.Ranking.MaxCandidates)

	t.Run("search-providers", func(t *testing.T) { testSearchProviders(t, pgStore, rdb.Client) })
	t.Run("generate-comment-summary", func(t *testing.T) { testGenerateCommentSummary(t, pgStore, rdb.Client) })
	t.Run("detect-quality-alerts", func(t *testing.T) { testDetectQualityAlerts(t, pgStore) })
	t.Run("search-trends", func(t *testing.T) { testSearchTrends(t, pgStore) })
	t.Run("query-postgresql", func(t *testing.T) { testQueryPostgreSQL(t, pgStore) })
	t.Run("query-elasticsearch", testQueryElasticsearch)
}

func testSearchProviders(t *testing.T, pgStore *store.Postgres, client *redis.Client) {
	spCfg := searchproviders.LoadConfig()
	spCfg.Weights = cfg.Ranking.Weights
	spCfg.MaxLimit = cfg.Ranking.MaxLimit
	scores := cache.NewRedisScoreCache(client, time.Minute)
	handler := searchproviders.NewHandler(spCfg, pgStore, scores, pgStore, nil, log)

	lat, lon := -12.1200, -77.0300
	out, err := handler.Execute(context.Background(), &searchproviders.Input{
		Query:     strings.ToUpper(seedTerm),
		Latitude:  &lat,
		Longitude: &lon,
		Limit:     10,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, out.Total, 2)

	ids := make([]int64, 0, len(out.Results))
	for _, r := range out.Results {
		ids = append(ids, r.Provider.ID)
	}
	assert.Contains(t, ids, polarizedID)
	assert.Contains(t, ids, steadyID)

	cached, err := client.Get(context.Background(), cache.ScoreKey(polarizedID)).Result()
	require.NoError(t, err, "❌ relevance score not cached")
	assert.NotEmpty(t, cached)

	_, err = handler.Execute(context.Background(), &searchproviders.Input{Query: "zzz sin resultados e2e"})
	require.NoError(t, err)
}

func testGenerateCommentSummary(t *testing.T, pgStore *store.Postgres, client *redis.Client) {
	summaries := cache.NewSummaryCache(client, time.Minute)
	handler := generatecommentsummary.NewHandler(generatecommentsummary.LoadConfig(), pgStore, pgStore, pgStore, summaries, nil, log)

	out, err := handler.Execute(context.Background(), &generatecommentsummary.Input{ProviderID: polarizedID})
	require.NoError(t, err)
	assert.True(t, out.Persisted)
	assert.Equal(t, 10, out.CommentsAnalyzed)

	var stored string
	require.NoError(t, pg.DB.QueryRowContext(context.Background(),
		`SELECT resumen_coment FROM notarias WHERE id = $1`, polarizedID).Scan(&stored))
	assert.Equal(t, out.Summary, stored)

	cached, ok, err := summaries.Get(context.Background(), polarizedID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, out.Summary, cached)

	_, err = handler.Execute(context.Background(), &generatecommentsummary.Input{ProviderID: 99999999})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeProviderNotFound))
}

func testDetectQualityAlerts(t *testing.T, pgStore *store.Postgres) {
	dqaCfg := detectqualityalerts.LoadConfig()
	dqaCfg.Thresholds = cfg.Quality.Thresholds
	handler := detectqualityalerts.NewHandler(dqaCfg, pgStore, pgStore, nil, nil, log)

	out, err := handler.Execute(context.Background(), &detectqualityalerts.Input{OwnerID: seedOwner})
	require.NoError(t, err)
	assert.Equal(t, 2, out.ProvidersEvaluated)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, polarizedID, out.Alerts[0].ProviderID)
	assert.InDelta(t, 1.6, out.Alerts[0].StdDev, 1e-9)
}

func testSearchTrends(t *testing.T, pgStore *store.Postgres) {
	handler := searchtrends.NewHandler(searchtrends.LoadConfig(), pgStore, nil, log)

	out, err := handler.Execute(context.Background(), &searchtrends.Input{Days: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Searches, 2)
	require.Len(t, out.Trend, 1)
	assert.GreaterOrEqual(t, out.Trend[0].Total, 2)
}

func testQueryPostgreSQL(t *testing.T, pgStore *store.Postgres) {
	handler := querypostgresql.NewHandler(querypostgresql.LoadConfig(), pgStore, log)

	out, err := handler.Execute(context.Background(), &querypostgresql.Input{
		QueryType:  string(querypostgresql.QueryTypeProviderDetails),
		ProviderID: steadyID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.RowCount)

	out, err = handler.Execute(context.Background(), &querypostgresql.Input{
		QueryType: string(querypostgresql.QueryTypeProviderRatings),
		OwnerID:   seedOwner,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.RowCount)

	_, err = handler.Execute(context.Background(), &querypostgresql.Input{QueryType: "unknown"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidQueryType))
}

func testQueryElasticsearch(t *testing.T) {
	if es == nil {
		t.Skip("Elasticsearch not configured")
	}
	handler := queryelasticsearch.NewHandler(queryelasticsearch.LoadConfig(), es.Client, log)

	_, err := handler.Execute(context.Background(), &queryelasticsearch.Input{
		IndexName: "nonexistent-e2e",
		QueryType: "provider_search",
		Keywords:  seedTerm,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeIndexNotFound))
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkHandler_SearchProviders(b *testing.B) {
	pgStore := store.NewPostgres(pg.DB, cfg.Ranking.MaxCandidates)
	handler := searchproviders.NewHandler(searchproviders.LoadConfig(), pgStore, nil, nil, nil, logger.NewNoOpLogger())
	input := &searchproviders.Input{Query: "notaría", Limit: 20}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}
