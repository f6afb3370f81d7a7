package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studynook-backend/internal/logger"
	"studynook-backend/internal/models"
	"studynook-backend/internal/repository"
	"studynook-backend/internal/services"
)

const (
	ArtifactQueue   = "queue:artifact-generation"
	ArtifactJobType = "artifact-generation"

	lockTTL    = 10 * time.Minute
	popTimeout = 30 * time.Second
)

type artifactGenerator interface {
	Generate(ctx context.Context, kind models.ArtifactKind, input json.RawMessage) (json.RawMessage, error)
}

type jobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Complete(ctx context.Context, id, artifactID uuid.UUID) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

type artifactStore interface {
	Create(ctx context.Context, a *models.Artifact) error
}

// Broker requeues jobs and publishes updates to the owning user.
type Broker interface {
	Enqueue(ctx context.Context, queue string, payload []byte) error
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error
}

// Pool runs artifact generation jobs popped from redis. Failed jobs are
// requeued with exponential backoff until they reach their retry limit.
type Pool struct {
	redis       *redis.Client
	generator   artifactGenerator
	jobs        jobStore
	artifacts   artifactStore
	broker      Broker
	logger      *slog.Logger
	workerCount int
	backoff     func(attempt int) time.Duration
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	generator artifactGenerator,
	jobs jobStore,
	artifacts artifactStore,
	broker Broker,
	log *slog.Logger,
	workerCount int,
) *Pool {
	if log == nil {
		log = logger.Nop()
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		generator:   generator,
		jobs:        jobs,
		artifacts:   artifacts,
		broker:      broker,
		logger:      log,
		workerCount: workerCount,
		backoff:     func(attempt int) time.Duration { return time.Duration(1<<uint(attempt)) * time.Second },
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	p.logger.Info("started worker goroutines", "count", p.workerCount, "queue", ArtifactQueue)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	log := p.logger.With("worker", id)
	for {
		select {
		case <-p.stopChan:
			log.Info("worker shutting down")
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, popTimeout, ArtifactQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Warn("queue read failed", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Error("failed to parse job", "error", err)
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil || !locked {
			continue
		}

		log.Info("processing job", "job_id", job.ID, "type", job.Type, "attempt", job.RetryCount+1)
		p.Process(ctx, &job)

		p.redis.Del(ctx, lockKey)
	}
}

// Process runs one job to completion, retry or permanent failure.
func (p *Pool) Process(ctx context.Context, job *models.Job) {
	if current, err := p.jobs.GetByID(ctx, job.ID); err == nil && current.Status == repository.JobCancelled {
		p.logger.Info("skipping cancelled job", "job_id", job.ID)
		return
	}

	var req models.GenerateArtifactRequest
	if job.Type != ArtifactJobType {
		p.fail(ctx, job, fmt.Errorf("unknown job type: %s", job.Type), false)
		return
	}
	if err := json.Unmarshal(job.ConfigJSON, &req); err != nil {
		p.fail(ctx, job, fmt.Errorf("invalid job config: %w", err), false)
		return
	}

	_ = p.jobs.UpdateStatus(ctx, job.ID, repository.JobProcessing)
	p.publish(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     1,
			StepName: "Generating " + string(req.Kind),
		},
	})

	payload, err := p.generator.Generate(ctx, req.Kind, req.Input)
	if err != nil {
		var verr *services.ValidationError
		p.fail(ctx, job, err, !errors.As(err, &verr))
		return
	}

	if current, err := p.jobs.GetByID(ctx, job.ID); err == nil && current.Status == repository.JobCancelled {
		p.logger.Info("job cancelled during generation, discarding result", "job_id", job.ID)
		return
	}

	p.publish(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     2,
			StepName: "Saving results",
		},
	})

	artifact := &models.Artifact{
		UserID:      job.UserID,
		Kind:        req.Kind,
		Title:       req.Title,
		PayloadJSON: payload,
	}
	if err := p.artifacts.Create(ctx, artifact); err != nil {
		p.fail(ctx, job, fmt.Errorf("failed to store artifact: %w", err), true)
		return
	}
	if err := p.jobs.Complete(ctx, job.ID, artifact.ID); err != nil {
		p.logger.Error("failed to mark job completed", "job_id", job.ID, "error", err)
	}

	p.publish(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   artifact.ID,
			ResultType: req.Kind,
		},
	})
	p.logger.Info("job completed", "job_id", job.ID, "artifact_id", artifact.ID, "kind", req.Kind)
}

func (p *Pool) fail(ctx context.Context, job *models.Job, err error, retryable bool) {
	job.RetryCount++
	errMsg := err.Error()

	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = repository.DefaultMaxRetries
	}

	if retryable && job.RetryCount < maxRetries {
		p.logger.Warn("job failed, retrying", "job_id", job.ID, "attempt", job.RetryCount, "error", errMsg)
		_ = p.jobs.UpdateStatus(ctx, job.ID, repository.JobPending)
		_ = p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		time.AfterFunc(p.backoff(job.RetryCount), func() {
			if err := p.broker.Enqueue(context.Background(), ArtifactQueue, jobBytes); err != nil {
				p.logger.Error("failed to requeue job", "job_id", job.ID, "error", err)
			}
		})
		return
	}

	p.logger.Error("job failed permanently", "job_id", job.ID, "attempts", job.RetryCount, "error", errMsg)
	_ = p.jobs.UpdateStatus(ctx, job.ID, repository.JobFailed)
	_ = p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

	code := "JOB_FAILED"
	if errors.Is(err, services.ErrEmptyArtifact) {
		code = "EMPTY_RESULT"
	}
	p.publish(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    code,
			ErrorMessage: errMsg,
		},
	})
}

func (p *Pool) publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if err := p.broker.Publish(ctx, userID, msg); err != nil {
		p.logger.Warn("failed to publish job update", "user_id", userID, "type", msg.Type, "error", err)
	}
}
