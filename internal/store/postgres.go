package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"directory-workers/internal/models"
)

const DefaultMaxCandidates = 1000

const providerColumns = `
		n.id, n.nombre, COALESCE(n.distrito, ''), COALESCE(n.calificacion, 0),
		COALESCE(n.total_visitas, 0), COALESCE(n.total_comentarios, 0),
		n.latitud, n.longitud,
		COALESCE(array_agg(s.servicio ORDER BY s.servicio) FILTER (WHERE s.servicio IS NOT NULL), '{}'),
		COALESCE(n.usuario_id::text, ''), COALESCE(n.resumen_coment, '')`

const searchCandidatesQuery = `
	SELECT` + providerColumns + `
	FROM notarias n
	LEFT JOIN notaria_servicios_generales s ON s.notaria_id = n.id
	WHERE n.nombre ILIKE $1 ESCAPE '\'
	   OR n.distrito ILIKE $1 ESCAPE '\'
	   OR EXISTS (
		SELECT 1 FROM notaria_servicios_generales sx
		WHERE sx.notaria_id = n.id AND sx.servicio ILIKE $1 ESCAPE '\')
	GROUP BY n.id
	ORDER BY n.id
	LIMIT $2`

const getProviderQuery = `
	SELECT` + providerColumns + `
	FROM notarias n
	LEFT JOIN notaria_servicios_generales s ON s.notaria_id = n.id
	WHERE n.id = $1
	GROUP BY n.id`

const listProvidersQuery = `
	SELECT` + providerColumns + `
	FROM notarias n
	LEFT JOIN notaria_servicios_generales s ON s.notaria_id = n.id
	WHERE ($1 = '' OR n.usuario_id::text = $1)
	GROUP BY n.id
	ORDER BY n.id`

const ratingHistoryQuery = `
	SELECT notaria_id, puntaje, COALESCE(texto, ''), creado_en
	FROM comentarios
	WHERE notaria_id = $1
	ORDER BY creado_en, id`

const ratingsByProviderQuery = `
	SELECT c.notaria_id, c.puntaje, COALESCE(c.texto, ''), c.creado_en
	FROM comentarios c
	JOIN notarias n ON n.id = c.notaria_id
	WHERE ($1 = '' OR n.usuario_id::text = $1)
	ORDER BY c.notaria_id, c.creado_en, c.id`

const saveSummaryQuery = `UPDATE notarias SET resumen_coment = $1 WHERE id = $2`

const updateScoreQuery = `UPDATE notarias SET relevancia_score = $1 WHERE id = $2`

const logSearchQuery = `
	INSERT INTO registros_busqueda (termino, usuario_id, fecha, cantidad_resultados)
	VALUES ($1, NULLIF($2, ''), $3, $4)
	RETURNING id`

const searchLogQuery = `
	SELECT id, termino, COALESCE(usuario_id, ''), cantidad_resultados, fecha
	FROM registros_busqueda
	WHERE fecha >= $1
	ORDER BY fecha, id`

// Postgres implements every store interface over the directory schema.
type Postgres struct {
	db            *sql.DB
	maxCandidates int
}

func NewPostgres(db *sql.DB, maxCandidates int) *Postgres {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Postgres{db: db, maxCandidates: maxCandidates}
}

// SearchCandidates returns providers whose name, district or any service tag
// contains term, case-insensitively. At most maxCandidates rows are returned.
func (p *Postgres) SearchCandidates(ctx context.Context, term string) ([]models.Provider, error) {
	rows, err := p.db.QueryContext(ctx, searchCandidatesQuery, ContainsPattern(term), p.maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	return scanProviders(rows)
}

func (p *Postgres) GetProvider(ctx context.Context, id int64) (*models.Provider, error) {
	row := p.db.QueryRowContext(ctx, getProviderQuery, id)
	provider, err := scanProvider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get provider %d: %w", id, err)
	}
	return provider, nil
}

// ListProviders returns every provider, or only those owned by ownerID when
// it is non-empty.
func (p *Postgres) ListProviders(ctx context.Context, ownerID string) ([]models.Provider, error) {
	rows, err := p.db.QueryContext(ctx, listProvidersQuery, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	return scanProviders(rows)
}

func (p *Postgres) RatingHistory(ctx context.Context, providerID int64) ([]models.RatingSample, error) {
	rows, err := p.db.QueryContext(ctx, ratingHistoryQuery, providerID)
	if err != nil {
		return nil, fmt.Errorf("rating history %d: %w", providerID, err)
	}
	defer rows.Close()

	samples := []models.RatingSample{}
	for rows.Next() {
		s, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (p *Postgres) RatingsByProvider(ctx context.Context, ownerID string) (map[int64][]models.RatingSample, error) {
	rows, err := p.db.QueryContext(ctx, ratingsByProviderQuery, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ratings by provider: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.RatingSample)
	for rows.Next() {
		s, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out[s.ProviderID] = append(out[s.ProviderID], s)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveSummary(ctx context.Context, providerID int64, summary string) error {
	res, err := p.db.ExecContext(ctx, saveSummaryQuery, summary, providerID)
	if err != nil {
		return fmt.Errorf("save summary %d: %w", providerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save summary %d: %w", providerID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, providerID)
	}
	return nil
}

// UpdateRelevanceScores writes scores to the cached relevance column in one
// transaction. Missing providers are skipped.
func (p *Postgres) UpdateRelevanceScores(ctx context.Context, scores map[int64]float64) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin score update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, updateScoreQuery)
	if err != nil {
		return fmt.Errorf("prepare score update: %w", err)
	}
	defer stmt.Close()

	for _, id := range sortedIDs(scores) {
		if _, err := stmt.ExecContext(ctx, scores[id], id); err != nil {
			return fmt.Errorf("update score %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit score update: %w", err)
	}
	return nil
}

// LogSearch appends entry to the search log. The term is truncated to
// MaxTermLength runes and the user id to MaxUserIDLength.
func (p *Postgres) LogSearch(ctx context.Context, entry models.SearchLogEntry) error {
	if entry.Term == "" {
		return fmt.Errorf("%w: empty search term", ErrInvalidInput)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := p.db.QueryRowContext(ctx, logSearchQuery,
		truncateRunes(entry.Term, MaxTermLength), truncateRunes(entry.UserID, MaxUserIDLength), entry.CreatedAt, entry.ResultCount,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("log search: %w", err)
	}
	return nil
}

func (p *Postgres) SearchLog(ctx context.Context, since time.Time) ([]models.SearchLogEntry, error) {
	rows, err := p.db.QueryContext(ctx, searchLogQuery, since)
	if err != nil {
		return nil, fmt.Errorf("search log: %w", err)
	}
	defer rows.Close()

	entries := []models.SearchLogEntry{}
	for rows.Next() {
		var e models.SearchLogEntry
		if err := rows.Scan(&e.ID, &e.Term, &e.UserID, &e.ResultCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row rowScanner) (*models.Provider, error) {
	var (
		p        models.Provider
		lat, lon sql.NullFloat64
		services pq.StringArray
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.District, &p.Rating,
		&p.TotalViews, &p.TotalComments,
		&lat, &lon,
		&services,
		&p.OwnerID, &p.Summary,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if lon.Valid {
		p.Longitude = &lon.Float64
	}
	p.Services = []string(services)
	if p.Services == nil {
		p.Services = []string{}
	}
	return &p, nil
}

func scanProviders(rows *sql.Rows) ([]models.Provider, error) {
	providers := []models.Provider{}
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return providers, nil
}

func scanRating(rows *sql.Rows) (models.RatingSample, error) {
	var s models.RatingSample
	if err := rows.Scan(&s.ProviderID, &s.Score, &s.Text, &s.CreatedAt); err != nil {
		return s, fmt.Errorf("scan rating: %w", err)
	}
	return s, nil
}
