/**
 * Core types for schedule extraction.
 *
 * All geometry lives in normalized box space: coordinates are fractions of
 * the photographed image's width/height, origin at the bottom-left, axes
 * independent of display orientation.
 */

package extract

import "time"

// Detection is a single OCR text fragment with its confidence and location.
// A detection set is produced once per OCR pass and never mutated.
type Detection struct {
	Text       string
	Confidence float64 // [0,1]
	Box        NormalizedRect
}

// NormalizedRect is a rectangle with all coordinates in [0,1].
type NormalizedRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MidX returns the horizontal center of the rectangle.
func (r NormalizedRect) MidX() float64 { return r.X + r.Width/2 }

// MidY returns the vertical center of the rectangle.
func (r NormalizedRect) MidY() float64 { return r.Y + r.Height/2 }

// HeaderColumn is one recognized date header: a resolved calendar date and
// the horizontal position of the column it labels. Ordering by CenterX
// ascending defines column order left to right.
type HeaderColumn struct {
	CenterX float64
	Date    time.Time // midnight, local time
}

// RowBand is the horizontal stripe presumed to contain one person's row of
// cells across all columns. At most one band exists per extraction call.
type RowBand struct {
	MinY float64
	MaxY float64
}

func (b RowBand) contains(y float64) bool { return y >= b.MinY && y <= b.MaxY }

// ShiftCandidate is a parsed (date, start, end) interval derived from one
// table cell. End may fall on the calendar day after Date (overnight shift);
// Start is always strictly before End. Immutable once constructed.
type ShiftCandidate struct {
	Date       time.Time
	Start      time.Time
	End        time.Time
	SourceText string
}
