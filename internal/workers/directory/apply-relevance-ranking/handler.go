// internal/workers/directory/apply-relevance-ranking/handler.go
package applyrelevanceranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"directory-workers/internal/common/logger"
	"directory-workers/internal/common/metrics"
	"directory-workers/internal/common/observability"
	"directory-workers/internal/models"
	"directory-workers/internal/ranking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "apply-relevance-ranking"
)

var (
	ErrNilInput       = errors.New("input cannot be nil")
	ErrInvalidWeights = errors.New("invalid ranking weights")
)

type Handler struct {
	config *Config
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Handler{
		config: config,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		metrics.ObserveJob(TaskType, start, "PARSE_ERROR")
		h.obs.RecordJob(context.Background(), TaskType, "failed", time.Since(start))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int("candidates", len(input.Candidates)))
	output, err := h.execute(ctx, &input)
	span.End()
	if err != nil {
		code := "RANKING_FAILED"
		if errors.Is(err, ErrInvalidWeights) {
			code = "INVALID_WEIGHTS"
		}
		h.failJob(client, job, code, err.Error())
		metrics.ObserveJob(TaskType, start, code)
		h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	weights := h.config.Weights
	if input.Weights != nil {
		weights = *input.Weights
		if err := weights.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWeights, err)
		}
	}

	start := time.Now()

	// Earlier tasks may merge overlapping result sets; keep the first copy.
	seen := make(map[int64]bool, len(input.Candidates))
	candidates := make([]models.Provider, 0, len(input.Candidates))
	for _, c := range input.Candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		candidates = append(candidates, c)
	}

	limit := input.Limit
	if limit <= 0 || limit > h.config.MaxItems {
		limit = h.config.MaxItems
	}

	query := ranking.Query{
		Text:      strings.TrimSpace(input.Query),
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Offset:    input.Offset,
		Limit:     limit,
	}

	ranked := ranking.Rank(candidates, query, weights)
	page := ranking.Paginate(ranked, query.Offset, query.Limit)

	duration := time.Since(start).Milliseconds()
	h.logger.Info("ranking completed", map[string]interface{}{
		"inputCount":  len(input.Candidates),
		"uniqueCount": len(candidates),
		"outputCount": len(page),
		"durationMs":  duration,
	})

	if duration > 500 {
		h.logger.Warn("ranking exceeded 500ms", map[string]interface{}{
			"durationMs": duration,
		})
	}

	return &Output{
		RankedProviders: page,
		Total:           len(ranked),
		Scores:          ranking.ScoreMap(ranked),
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
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
