// internal/workers/analytics/generate-comment-summary/handler.go
package generatecommentsummary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	apperrors "directory-workers/internal/common/errors"
	"directory-workers/internal/common/logger"
	"directory-workers/internal/common/metrics"
	"directory-workers/internal/common/observability"
	"directory-workers/internal/insight"
	"directory-workers/internal/store"
)

const (
	TaskType = "generate-comment-summary"
)

var ErrInvalidProviderID = errors.New("providerId must be positive")

type SummaryCache interface {
	Set(ctx context.Context, providerID int64, summary string) error
}

type Handler struct {
	config     *Config
	providers  store.ProviderReader
	ratings    store.RatingSource
	summaries  store.SummaryWriter
	cache      SummaryCache
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, providers store.ProviderReader, ratings store.RatingSource, summaries store.SummaryWriter, cache SummaryCache, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		providers:  providers,
		ratings:    ratings,
		summaries:  summaries,
		cache:      cache,
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

	input, err := ParseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("providerId", input.ProviderID))
	output, err := h.execute(ctx, input)
	span.End()
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

// ParseInput decodes job variables into an Input.
func ParseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidSummaryInputError(fmt.Errorf("parse input: %w", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.ProviderID <= 0 {
		return nil, apperrors.NewInvalidSummaryInputError(ErrInvalidProviderID)
	}
	id := input.ProviderID

	if _, err := h.providers.GetProvider(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewProviderNotFoundError(id)
		}
		return nil, apperrors.NewQueryExecutionFailedError("provider_details", err)
	}

	ratings, err := h.ratings.RatingHistory(ctx, id)
	if err != nil {
		return nil, apperrors.NewRatingQueryFailedError(err)
	}

	if len(ratings) == 0 {
		h.logger.Info("no comments to summarize", map[string]interface{}{"providerId": id})
		return &Output{
			ProviderID: id,
			Summary:    insight.EmptySummary,
			Keywords:   []string{},
		}, nil
	}

	samples := insight.FromRatings(ratings)
	summary := insight.Summarize(samples)

	if err := h.summaries.SaveSummary(ctx, id, summary); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewProviderNotFoundError(id)
		}
		return nil, apperrors.NewSummaryPersistFailedError(id, err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, id, summary); err != nil {
			metrics.CacheWriteFailures.WithLabelValues("summary").Inc()
			h.logger.Warn("failed to cache summary", map[string]interface{}{
				"providerId": id,
				"error":      err,
			})
		}
	}

	h.logger.Info("summary generated", map[string]interface{}{
		"providerId": id,
		"comments":   len(samples),
	})

	return &Output{
		ProviderID:       id,
		Summary:          summary,
		CommentsAnalyzed: len(samples),
		AverageRating:    insight.MeanRating(samples),
		Keywords:         insight.Keywords(samples),
		Persisted:        true,
	}, nil
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
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	metrics.ObserveJob(TaskType, start, string(apperrors.Normalize(err).Code))
	h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
