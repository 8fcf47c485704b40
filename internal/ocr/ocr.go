/**
 * OCR boundary for the schedule worker.
 *
 * Wraps Tesseract (gosseract) behind the Engine interface the processor
 * depends on. Line-level recognition keeps a cell like "6:30a-1p" inside a
 * single detection; pixel boxes are normalized into the extractor's
 * bottom-left [0,1] space.
 */

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/shiftlens/schedule-worker/internal/extract"
)

// Engine produces a detection set from raw image bytes. Production is
// asynchronous and cancelable on the caller's side; the extraction core only
// ever sees the finished list.
type Engine interface {
	Detect(ctx context.Context, imageData []byte) ([]extract.Detection, error)
}

// TesseractEngine is the default Engine, backed by a local Tesseract install.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates an engine for the given Tesseract languages
// (defaults to "eng"). Each argument may itself be a comma-separated list,
// so an OCR_LANGUAGES value like "eng,deu" passes through unchanged.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	var langs []string
	for _, l := range languages {
		for _, part := range strings.Split(l, ",") {
			if part = strings.TrimSpace(part); part != "" {
				langs = append(langs, part)
			}
		}
	}
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &TesseractEngine{languages: langs}
}

// Detect runs line-level OCR over the image and returns normalized
// detections. Blank recognitions are dropped.
func (t *TesseractEngine) Detect(ctx context.Context, imageData []byte) ([]extract.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(imageData) == 0 {
		return nil, fmt.Errorf("image data is required")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to read image dimensions: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(imageData); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	detections := make([]extract.Detection, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		detections = append(detections, extract.Detection{
			Text:       text,
			Confidence: b.Confidence / 100, // tesseract reports 0-100
			Box:        normalizeBox(b.Box, cfg.Width, cfg.Height),
		})
	}
	return detections, nil
}

// normalizeBox converts a pixel rectangle (top-left origin, y growing down)
// into the extractor's fractional bottom-left space.
func normalizeBox(r image.Rectangle, imgW, imgH int) extract.NormalizedRect {
	w := float64(imgW)
	h := float64(imgH)
	if w <= 0 || h <= 0 {
		return extract.NormalizedRect{}
	}
	return extract.NormalizedRect{
		X:      float64(r.Min.X) / w,
		Y:      1 - float64(r.Max.Y)/h,
		Width:  float64(r.Dx()) / w,
		Height: float64(r.Dy()) / h,
	}
}
