/**
 * Schedule processor.
 *
 * Orchestrates one extraction job end to end: load the photographed schedule,
 * run OCR, reconstruct the target person's shifts, persist the result, and
 * push it to the calendar sink. The extraction core stays pure; everything
 * stateful lives here.
 */

package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shiftlens/schedule-worker/internal/calendar"
	workererrors "github.com/shiftlens/schedule-worker/internal/errors"
	"github.com/shiftlens/schedule-worker/internal/extract"
	"github.com/shiftlens/schedule-worker/internal/logging"
	"github.com/shiftlens/schedule-worker/internal/ocr"
	"github.com/shiftlens/schedule-worker/internal/storage"
)

// ScheduleProcessorInterface defines the processing contract the queue layer
// depends on.
type ScheduleProcessorInterface interface {
	ProcessSchedule(ctx context.Context, req *ExtractRequest) (*ExtractResult, error)
	UpdateJobStatus(ctx context.Context, jobID, status string, details map[string]interface{}) error
}

// ProcessorConfig holds processor dependencies.
type ProcessorConfig struct {
	OCREngine    ocr.Engine
	Storage      *storage.PostgresClient
	Calendar     *calendar.Client // nil disables calendar push
	MaxImageSize int64
}

// ExtractRequest is one schedule extraction job.
type ExtractRequest struct {
	JobID       string
	PersonName  string
	ImageURL    string
	ImageBuffer []byte
	Metadata    map[string]interface{}
}

// ExtractResult is the outcome of a completed job.
type ExtractResult struct {
	Shifts           []extract.ShiftCandidate
	DetectionCount   int
	ShiftsFound      int
	CalendarEvents   int
	CalendarPushed   bool
	ProcessingTimeMs int64
}

// ScheduleProcessor implements ScheduleProcessorInterface.
type ScheduleProcessor struct {
	config     *ProcessorConfig
	storage    *storage.PostgresClient
	ocrEngine  ocr.Engine
	calendar   *calendar.Client
	extractor  *extract.Extractor
	httpClient *http.Client
	log        *logging.Logger
}

// NewScheduleProcessor creates a schedule processor.
func NewScheduleProcessor(cfg *ProcessorConfig) (*ScheduleProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.OCREngine == nil {
		return nil, fmt.Errorf("OCR engine is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage client is required")
	}

	return &ScheduleProcessor{
		config:    cfg,
		storage:   cfg.Storage,
		ocrEngine: cfg.OCREngine,
		calendar:  cfg.Calendar,
		extractor: extract.New(),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: logging.NewLogger("processor"),
	}, nil
}

// ProcessSchedule runs one job through the full pipeline.
func (p *ScheduleProcessor) ProcessSchedule(ctx context.Context, req *ExtractRequest) (*ExtractResult, error) {
	startTime := time.Now()
	p.log.Info("starting schedule extraction", "job", req.JobID, "person", req.PersonName)

	if req.PersonName == "" {
		return nil, fmt.Errorf("person name is required")
	}

	imageData, err := p.loadImage(ctx, req)
	if err != nil {
		return nil, workererrors.NewImageLoadFailedError(req.JobID, imageSource(req), err)
	}

	detections, err := p.ocrEngine.Detect(ctx, imageData)
	if err != nil {
		return nil, workererrors.NewOCRFailedError(req.JobID, err)
	}
	p.log.Info("OCR pass complete", "job", req.JobID, "detections", len(detections))

	// Keep the raw detections with the job so the UI collaborator can render
	// bounding-box overlays.
	if dump := DetectionDump(detections); dump != nil {
		if err := p.UpdateJobStatus(ctx, req.JobID, "processing", map[string]interface{}{
			"personName":    req.PersonName,
			"detectionDump": dump,
		}); err != nil {
			p.log.Warn("failed to store detection dump", "job", req.JobID, "error", err)
		}
	}

	shifts, err := p.extractor.Extract(detections, req.PersonName)
	if err != nil {
		return nil, workererrors.NewExtractionError(req.JobID, err)
	}
	p.log.Info("extraction complete", "job", req.JobID, "shifts", len(shifts))

	if err := p.storage.StoreShifts(ctx, req.JobID, req.PersonName, shifts); err != nil {
		return nil, workererrors.NewStorageFailedError(req.JobID, err)
	}

	result := &ExtractResult{
		Shifts:         shifts,
		DetectionCount: len(detections),
		ShiftsFound:    len(shifts),
	}

	// The calendar sink is permission-gated and owned by an external
	// collaborator; a failed push does not destroy a finished extraction.
	if p.calendar != nil {
		created, err := p.calendar.PushEvents(ctx, req.JobID, req.PersonName, shifts)
		if err != nil {
			p.log.Warn("calendar push failed", "job", req.JobID, "error", err)
		} else {
			result.CalendarEvents = created
			result.CalendarPushed = true
		}
	}

	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return result, nil
}

// UpdateJobStatus records a job transition in PostgreSQL. The details map may
// carry personName, shiftsFound, processingTime, errorCode and errorMessage;
// anything else lands in the metadata column.
func (p *ScheduleProcessor) UpdateJobStatus(ctx context.Context, jobID, status string, details map[string]interface{}) error {
	update := &storage.JobUpdate{
		JobID:  jobID,
		Status: status,
	}

	metadata := make(map[string]interface{})
	for k, v := range details {
		switch k {
		case "personName":
			if s, ok := v.(string); ok {
				update.PersonName = s
			}
		case "shiftsFound":
			if n, ok := v.(int); ok {
				update.ShiftsFound = n
			}
		case "processingTime":
			if n, ok := v.(int64); ok {
				update.ProcessingTimeMs = n
			}
		case "errorCode":
			if s, ok := v.(string); ok {
				update.ErrorCode = s
			}
		case "errorMessage", "error":
			if s, ok := v.(string); ok {
				update.ErrorMessage = s
			}
		default:
			metadata[k] = v
		}
	}
	if len(metadata) > 0 {
		update.Metadata = metadata
	}

	return p.storage.UpdateJobStatus(ctx, update)
}

// loadImage resolves the job's image bytes: an inline buffer wins, otherwise
// the image is downloaded from the given URL with a size cap.
func (p *ScheduleProcessor) loadImage(ctx context.Context, req *ExtractRequest) ([]byte, error) {
	if len(req.ImageBuffer) > 0 {
		if p.config.MaxImageSize > 0 && int64(len(req.ImageBuffer)) > p.config.MaxImageSize {
			return nil, fmt.Errorf("image exceeds size limit: %d > %d bytes", len(req.ImageBuffer), p.config.MaxImageSize)
		}
		return req.ImageBuffer, nil
	}

	if req.ImageURL == "" {
		return nil, fmt.Errorf("no image buffer or URL provided")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.ImageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned HTTP %d", resp.StatusCode)
	}

	limit := p.config.MaxImageSize
	if limit <= 0 {
		limit = 32 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds size limit: %d bytes", limit)
	}
	return data, nil
}

// DetectionDump serializes a detection list for the job metadata column so
// the UI collaborator can render bounding-box overlays.
func DetectionDump(detections []extract.Detection) json.RawMessage {
	data, err := json.Marshal(detections)
	if err != nil {
		return nil
	}
	return data
}

func imageSource(req *ExtractRequest) string {
	if len(req.ImageBuffer) > 0 {
		return "buffer"
	}
	return req.ImageURL
}
