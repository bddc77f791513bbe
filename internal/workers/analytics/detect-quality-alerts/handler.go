// internal/workers/analytics/detect-quality-alerts/handler.go
package detectqualityalerts

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
	"directory-workers/internal/notify"
	"directory-workers/internal/quality"
	"directory-workers/internal/store"
)

const (
	TaskType = "detect-quality-alerts"
)

type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, alerts []quality.QualityAlert) (notify.Result, error)
}

type Handler struct {
	config     *Config
	providers  store.ProviderReader
	ratings    store.RatingSource
	notifier   Notifier
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, providers store.ProviderReader, ratings store.RatingSource, notifier Notifier, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		providers:  providers,
		ratings:    ratings,
		notifier:   notifier,
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
		h.fail(ctx, client, job, start, apperrors.NewInvalidThresholdsError(fmt.Errorf("parse input: %w", err)))
		return
	}

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.String("ownerId", input.OwnerID))
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

	thresholds := h.config.Thresholds.Override(input.MinSampleSize, input.MeanThreshold, input.StdDevThreshold)
	if err := thresholds.Validate(); err != nil {
		return nil, apperrors.NewInvalidThresholdsError(err)
	}

	providers, err := h.providers.ListProviders(ctx, input.OwnerID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list_providers", err)
	}

	samples, err := h.ratings.RatingsByProvider(ctx, input.OwnerID)
	if err != nil {
		return nil, apperrors.NewRatingQueryFailedError(err)
	}

	alerts := quality.EvaluateAll(providers, samples, thresholds)
	metrics.QualityAlertsEmitted.Add(float64(len(alerts)))

	output := &Output{
		Alerts:             alerts,
		Count:              len(alerts),
		ProvidersEvaluated: len(providers),
		Thresholds:         thresholds,
	}

	if len(alerts) > 0 && h.notifier != nil && h.notifier.Enabled() {
		res, err := h.notifier.Notify(ctx, alerts)
		if err != nil {
			h.logger.Warn("alert notification failed", map[string]interface{}{
				"error":          apperrors.NewNotificationSendFailedError("alerts", err),
				"notificationId": res.NotificationID,
				"alerts":         len(alerts),
			})
		}
		output.Notification = &res
	}

	h.logger.Info("quality scan completed", map[string]interface{}{
		"providers":       len(providers),
		"alerts":          len(alerts),
		"minSampleSize":   thresholds.MinSampleSize,
		"meanThreshold":   thresholds.MeanThreshold,
		"stddevThreshold": thresholds.StdDevThreshold,
	})

	return output, nil
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
