/**
 * Extraction pipeline entry point.
 *
 * Reconstructs a table's row/column structure from scattered, unordered OCR
 * fragments: date headers become columns, a fuzzy name match becomes a row
 * band, and the cells inside the band become parsed shift intervals.
 *
 * The pipeline is pure, synchronous and side-effect-free over its inputs;
 * independent callers may run it concurrently. Per-call cost is linear to
 * low-quadratic in the detection count, dominated by nearest-header lookups
 * during cell parsing.
 */

package extract

import (
	"errors"
	"time"
)

// Named failures, all non-fatal and reported to the caller. Malformed
// individual cells are never surfaced here; they are excluded silently in
// favor of partial results.
var (
	// ErrEmptyDetectionSet: extraction requested before any OCR pass
	// produced a detection list.
	ErrEmptyDetectionSet = errors.New("no detection set: OCR has not produced any detections")

	// ErrNoDateHeaders: no detection matched the date-header shape.
	ErrNoDateHeaders = errors.New("no date headers detected")

	// ErrNameNotFound: no detection text contains the target name.
	ErrNameNotFound = errors.New("target name not found in detections")

	// ErrNoShiftsParsed: headers and row band found, but zero cells survived
	// classification and parsing.
	ErrNoShiftsParsed = errors.New("no shifts parsed from row band")
)

// Extractor turns an OCR detection set into shift records for one person.
// The zero-value clock is time.Now; the clock only feeds year resolution,
// since photographed headers never carry a year.
type Extractor struct {
	now func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the time source used for year resolution.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the full pipeline for one target person. A nil detection list
// means no OCR pass has completed; an empty but non-nil list runs the header
// scan first and fails there.
func (e *Extractor) Extract(detections []Detection, targetName string) ([]ShiftCandidate, error) {
	if detections == nil {
		return nil, ErrEmptyDetectionSet
	}

	tagged := make([]classifiedDetection, len(detections))
	for i, d := range detections {
		tagged[i] = classifiedDetection{det: d, classification: classify(d)}
	}

	headers := detectHeaders(tagged, e.now().Year())
	if len(headers) == 0 {
		return nil, ErrNoDateHeaders
	}

	band, ok := locateRowBand(detections, targetName)
	if !ok {
		return nil, ErrNameNotFound
	}

	var candidates []ShiftCandidate
	for _, cell := range classifyCells(tagged, band) {
		if shift, ok := parseCell(cell, headers); ok {
			candidates = append(candidates, shift)
		}
	}

	shifts := dedupeShifts(candidates)
	if len(shifts) == 0 {
		return nil, ErrNoShiftsParsed
	}
	return shifts, nil
}
