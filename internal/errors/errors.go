package errors

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/shiftlens/schedule-worker/internal/extract"
)

/**
 * Structured error types for the schedule worker.
 *
 * Every failure a job can end in carries a stable code so the API and UI can
 * branch on it without string matching.
 */

// ErrorCode identifies a failure class for persistence and reporting.
type ErrorCode string

const (
	// Extraction outcomes (non-fatal, reported to the caller).
	ErrorEmptyDetectionSet ErrorCode = "EMPTY_DETECTION_SET"
	ErrorNoDateHeaders     ErrorCode = "NO_DATE_HEADERS"
	ErrorNameNotFound      ErrorCode = "NAME_NOT_FOUND"
	ErrorNoShiftsParsed    ErrorCode = "NO_SHIFTS_PARSED"
	ErrorExtractionFailed  ErrorCode = "EXTRACTION_FAILED"

	// Boundary failures.
	ErrorOCRFailed         ErrorCode = "OCR_FAILED"
	ErrorImageLoadFailed   ErrorCode = "IMAGE_LOAD_FAILED"
	ErrorStorageFailed     ErrorCode = "STORAGE_FAILED"
	ErrorCalendarDenied    ErrorCode = "CALENDAR_DENIED"
	ErrorCalendarFailed    ErrorCode = "CALENDAR_FAILED"
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"
)

// ProcessingError is a structured job failure.
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	JobID     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// ToMap converts the error to a map for database storage.
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}
	for k, v := range e.Details {
		result[k] = v
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	return result
}

// Factory functions for common errors

func NewProcessingTimeoutError(jobID string, duration time.Duration, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("processing timed out after %v", duration),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewOCRFailedError(jobID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorOCRFailed,
		Message:   "OCR pass failed",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewImageLoadFailedError(jobID string, source string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorImageLoadFailed,
		Message:   fmt.Sprintf("failed to load schedule image from %s", source),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"source": source,
		},
		Cause: cause,
	}
}

func NewStorageFailedError(jobID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorStorageFailed,
		Message:   "failed to store extraction results",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewExtractionError(jobID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      CodeForExtraction(cause),
		Message:   "schedule extraction failed",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// CodeForExtraction maps the extraction pipeline's sentinel failures to
// stable codes.
func CodeForExtraction(err error) ErrorCode {
	switch {
	case stderrors.Is(err, extract.ErrEmptyDetectionSet):
		return ErrorEmptyDetectionSet
	case stderrors.Is(err, extract.ErrNoDateHeaders):
		return ErrorNoDateHeaders
	case stderrors.Is(err, extract.ErrNameNotFound):
		return ErrorNameNotFound
	case stderrors.Is(err, extract.ErrNoShiftsParsed):
		return ErrorNoShiftsParsed
	default:
		return ErrorExtractionFailed
	}
}
