/**
 * Queue consumer for the schedule worker.
 *
 * Consumes schedule-extraction jobs from the Redis-backed queue via Asynq.
 * Retry policy lives here, not in the extraction core: named extraction
 * failures (no headers, name not found, no shifts) are terminal and must not
 * be retried, while transient boundary failures back off exponentially.
 */

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	workererrors "github.com/shiftlens/schedule-worker/internal/errors"
	"github.com/shiftlens/schedule-worker/internal/extract"
	"github.com/shiftlens/schedule-worker/internal/logging"
	"github.com/shiftlens/schedule-worker/internal/processor"
)

// TaskTypeExtract is the asynq task type for schedule extraction jobs.
const TaskTypeExtract = "schedule:extract"

// JobData is the queue payload for one extraction job.
type JobData struct {
	JobID       string                 `json:"jobId"`
	PersonName  string                 `json:"personName"`
	ImageURL    string                 `json:"imageUrl,omitempty"`
	ImageBuffer []byte                 `json:"imageBuffer,omitempty"` // base64 on the wire
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Consumer handles job consumption from the Redis queue.
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor processor.ScheduleProcessorInterface
	status    *StatusTracker
	config    *ConsumerConfig
	log       *logging.Logger
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         processor.ScheduleProcessorInterface
	Status            *StatusTracker // optional
	ProcessingTimeout int64          // milliseconds, default 120000
}

// NewConsumer creates a new queue consumer.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	log := logging.NewLogger("queue")

	client := asynq.NewClient(redisOpt)
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s, capped at 60s.
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task processing error", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		processor: cfg.Processor,
		status:    cfg.Status,
		config:    cfg,
		log:       log,
	}

	mux.HandleFunc(TaskTypeExtract, consumer.handleExtract)

	return consumer, nil
}

// Start starts the queue consumer.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("starting queue consumer", "concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.log.Error("queue consumer stopped", "error", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	c.log.Info("stopping queue consumer")
	c.server.Shutdown()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}
	return nil
}

// Enqueue submits an extraction job to the queue.
func (c *Consumer) Enqueue(ctx context.Context, job *JobData) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	task := asynq.NewTask(TaskTypeExtract, payload)
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.config.QueueName), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// handleExtract processes one schedule extraction task.
func (c *Consumer) handleExtract(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var job JobData
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %v: %w", err, asynq.SkipRetry)
	}

	c.log.Info("processing extraction job", "job", job.JobID, "person", job.PersonName)

	if err := c.processor.UpdateJobStatus(ctx, job.JobID, "processing", map[string]interface{}{
		"personName": job.PersonName,
	}); err != nil {
		c.log.Warn("failed to update status to processing", "job", job.JobID, "error", err)
	}
	c.markStatus(ctx, job.JobID, "processing", nil)

	timeout := 120 * time.Second
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}
	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.processor.ProcessSchedule(processCtx, &processor.ExtractRequest{
		JobID:       job.JobID,
		PersonName:  job.PersonName,
		ImageURL:    job.ImageURL,
		ImageBuffer: job.ImageBuffer,
		Metadata:    job.Metadata,
	})

	duration := time.Since(startTime)

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded {
			timeoutErr := workererrors.NewProcessingTimeoutError(job.JobID, timeout, err)
			c.failJob(ctx, &job, timeoutErr.ToMap())
			return fmt.Errorf("processing timeout: %w", timeoutErr)
		}

		detail := map[string]interface{}{
			"error":     err.Error(),
			"errorCode": string(errorCodeOf(err)),
		}
		c.failJob(ctx, &job, detail)

		// Named extraction outcomes are deterministic; re-running the same
		// photo cannot change them.
		if isTerminalExtractionFailure(err) {
			c.log.Info("job failed terminally", "job", job.JobID, "code", detail["errorCode"])
			return fmt.Errorf("extraction failed: %v: %w", err, asynq.SkipRetry)
		}

		c.log.Error("job failed", "job", job.JobID, "duration", duration, "error", err)
		return fmt.Errorf("schedule processing failed: %w", err)
	}

	c.log.Info("job completed", "job", job.JobID, "shifts", result.ShiftsFound, "duration", duration)

	if err := c.processor.UpdateJobStatus(ctx, job.JobID, "completed", map[string]interface{}{
		"personName":     job.PersonName,
		"shiftsFound":    result.ShiftsFound,
		"processingTime": duration.Milliseconds(),
		"detections":     result.DetectionCount,
		"calendarPushed": result.CalendarPushed,
		"calendarEvents": result.CalendarEvents,
	}); err != nil {
		c.log.Warn("failed to update status to completed", "job", job.JobID, "error", err)
	}
	c.markStatus(ctx, job.JobID, "completed", result)

	return nil
}

func (c *Consumer) failJob(ctx context.Context, job *JobData, detail map[string]interface{}) {
	update := map[string]interface{}{"personName": job.PersonName}
	for k, v := range detail {
		update[k] = v
	}
	if ec, ok := detail["error_code"].(string); ok {
		update["errorCode"] = ec
	}
	if err := c.processor.UpdateJobStatus(ctx, job.JobID, "failed", update); err != nil {
		c.log.Warn("failed to update status to failed", "job", job.JobID, "error", err)
	}
	c.markStatus(ctx, job.JobID, "failed", detail)
}

func (c *Consumer) markStatus(ctx context.Context, jobID, status string, result interface{}) {
	if c.status == nil {
		return
	}
	if err := c.status.Mark(ctx, jobID, status, result); err != nil {
		c.log.Warn("failed to record job status in redis", "job", jobID, "error", err)
	}
}

func errorCodeOf(err error) workererrors.ErrorCode {
	var perr *workererrors.ProcessingError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return workererrors.CodeForExtraction(err)
}

func isTerminalExtractionFailure(err error) bool {
	return errors.Is(err, extract.ErrEmptyDetectionSet) ||
		errors.Is(err, extract.ErrNoDateHeaders) ||
		errors.Is(err, extract.ErrNameNotFound) ||
		errors.Is(err, extract.ErrNoShiftsParsed)
}
