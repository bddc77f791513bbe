// internal/workers/directory/search-providers/handler.go
package searchproviders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"directory-workers/internal/cache"
	apperrors "directory-workers/internal/common/errors"
	"directory-workers/internal/common/logger"
	"directory-workers/internal/common/metrics"
	"directory-workers/internal/common/observability"
	"directory-workers/internal/common/validation"
	"directory-workers/internal/models"
	"directory-workers/internal/ranking"
	"directory-workers/internal/store"
)

const (
	TaskType = "search-providers"
)

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config     *Config
	candidates store.CandidateSource
	scores     cache.ScoreCache
	searchLog  store.SearchLogger
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

// NewHandler wires the search path. scores and searchLog are optional; when
// nil the corresponding best-effort step is skipped.
func NewHandler(config *Config, candidates store.CandidateSource, scores cache.ScoreCache, searchLog store.SearchLogger, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		candidates: candidates,
		scores:     scores,
		searchLog:  searchLog,
		obs:        obs,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, start, apperrors.NewInvalidSearchInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("jobKey", job.Key))
	output, err := h.execute(ctx, &input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		h.fail(ctx, client, job, start, err)
		return
	}
	span.SetAttributes(attribute.Int("total", output.Total))
	span.End()

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidSearchInputError("input cannot be nil")
	}

	query, weights, err := h.prepare(input)
	if err != nil {
		return nil, err
	}

	candidates, err := h.candidates.SearchCandidates(ctx, query.Text)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("candidate source", err)
		}
		return nil, apperrors.NewCandidateQueryFailedError(query.Text, err)
	}

	start := time.Now()
	ranked := ranking.Rank(candidates, query, weights)
	page := ranking.Paginate(ranked, query.Offset, query.Limit)
	elapsed := time.Since(start)

	metrics.CandidatesScored.Observe(float64(len(ranked)))
	if elapsed > h.config.SlowThreshold {
		h.logger.Warn("ranking exceeded slow threshold", map[string]interface{}{
			"durationMs":  elapsed.Milliseconds(),
			"candidates":  len(ranked),
			"thresholdMs": h.config.SlowThreshold.Milliseconds(),
		})
	}

	h.storeScores(ctx, ranked)
	h.logSearch(ctx, query.Text, input.UserID, len(ranked))

	h.logger.Info("search completed", map[string]interface{}{
		"query":       query.Text,
		"total":       len(ranked),
		"returned":    len(page),
		"offset":      query.Offset,
		"limit":       query.Limit,
		"rankingMs":   elapsed.Milliseconds(),
		"hasLocation": query.Origin() != nil,
	})

	return &Output{
		Results: page,
		Total:   len(ranked),
		Offset:  query.Offset,
		Limit:   query.Limit,
	}, nil
}

// prepare validates input and resolves the query and weights for this request.
func (h *Handler) prepare(input *Input) (ranking.Query, ranking.Weights, error) {
	if input.Limit == 0 {
		input.Limit = DefaultLimit
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return ranking.Query{}, ranking.Weights{}, apperrors.NewInvalidSearchInputError(err.Error())
	}
	result, err := schema.ValidateJSON(string(raw))
	if err != nil {
		return ranking.Query{}, ranking.Weights{}, apperrors.NewInvalidSearchInputError(err.Error())
	}
	if !result.Valid {
		return ranking.Query{}, ranking.Weights{}, apperrors.NewInvalidSearchInputError(result.Error())
	}

	text := strings.TrimSpace(input.Query)
	if utf8.RuneCountInString(text) < 2 {
		return ranking.Query{}, ranking.Weights{}, apperrors.NewInvalidSearchInputError("query must have at least 2 characters")
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return ranking.Query{}, ranking.Weights{}, apperrors.NewInvalidSearchInputError("latitude and longitude must be given together")
	}

	limit := input.Limit
	if h.config.MaxLimit > 0 && limit > h.config.MaxLimit {
		limit = h.config.MaxLimit
	}

	weights := h.config.Weights
	if input.Weights != nil {
		weights = *input.Weights
		if err := weights.Validate(); err != nil {
			return ranking.Query{}, ranking.Weights{}, apperrors.NewInvalidWeightsError(err)
		}
	}

	return ranking.Query{
		Text:      text,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Offset:    input.Offset,
		Limit:     limit,
	}, weights, nil
}

func (h *Handler) storeScores(ctx context.Context, ranked []ranking.ScoredResult) {
	if h.scores == nil || len(ranked) == 0 {
		return
	}
	if err := h.scores.StoreScores(ctx, ranking.ScoreMap(ranked)); err != nil {
		metrics.CacheWriteFailures.WithLabelValues("score").Inc()
		h.logger.Warn("failed to cache relevance scores", map[string]interface{}{
			"error": err,
			"count": len(ranked),
		})
	}
}

func (h *Handler) logSearch(ctx context.Context, term, userID string, total int) {
	if h.searchLog == nil {
		return
	}
	entry := models.SearchLogEntry{
		Term:        term,
		UserID:      userID,
		ResultCount: total,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.searchLog.LogSearch(ctx, entry); err != nil {
		metrics.CacheWriteFailures.WithLabelValues("search_log").Inc()
		h.logger.Warn("failed to record search", map[string]interface{}{
			"error": err,
			"term":  term,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	code := apperrors.Normalize(err).Code
	metrics.ObserveJob(TaskType, start, string(code))
	h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
