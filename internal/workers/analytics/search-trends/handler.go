// internal/workers/analytics/search-trends/handler.go
package searchtrends

import (
	"context"
	"encoding/json"
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
	TaskType = "search-trends"
)

type Handler struct {
	config     *Config
	searchLog  store.SearchLogReader
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(config *Config, searchLog store.SearchLogReader, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		searchLog:  searchLog,
		obs:        obs,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
		now:        time.Now,
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

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int("days", input.Days))
	output, err := h.execute(ctx, &input)
	span.End()
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		input = &Input{}
	}

	days := input.Days
	if days == 0 {
		days = h.config.WindowDays
	}
	if days < 0 || days > h.config.MaxDays {
		return nil, apperrors.NewInvalidSearchInputError(
			fmt.Sprintf("days must be between 1 and %d", h.config.MaxDays))
	}

	limit := input.Limit
	if limit <= 0 || limit > h.config.TopTermsMax {
		limit = h.config.TopTermsMax
	}

	until := h.now().UTC()
	// The window includes today, so N days start N-1 days back at midnight.
	today := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(days - 1))

	entries, err := h.searchLog.SearchLog(ctx, since)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewQueryTimeoutError("search_log")
		}
		return nil, apperrors.NewQueryExecutionFailedError("search_log", err)
	}

	trends := insight.SearchTrends(entries, since, until, limit)

	h.logger.Info("search trends computed", map[string]interface{}{
		"days":     days,
		"searches": len(entries),
		"terms":    len(trends.TopTerms),
		"gaps":     len(trends.DataGaps),
	})

	return &Output{
		TopTerms: trends.TopTerms,
		Trend:    trends.Trend,
		DataGaps: trends.DataGaps,
		Since:    since.Format("2006-01-02"),
		Until:    until.Format("2006-01-02"),
		Searches: len(entries),
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
