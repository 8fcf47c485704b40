package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(dets []Detection) []classifiedDetection {
	tagged := make([]classifiedDetection, len(dets))
	for i, d := range dets {
		tagged[i] = classifiedDetection{det: d, classification: classify(d)}
	}
	return tagged
}

func TestDetectHeadersOrdersByCenterX(t *testing.T) {
	tagged := tag([]Detection{
		det("11-Aug", 0.475, 0.85, 0.05, 0.03),
		det("10-Aug", 0.175, 0.85, 0.05, 0.03),
		det("12-Aug", 0.775, 0.85, 0.05, 0.03),
	})

	cols := detectHeaders(tagged, 2025)
	require.Len(t, cols, 3)
	assert.True(t, cols[0].CenterX < cols[1].CenterX)
	assert.True(t, cols[1].CenterX < cols[2].CenterX)
	assert.Equal(t, time.Date(2025, time.August, 10, 0, 0, 0, 0, time.Local), cols[0].Date)
	assert.Equal(t, time.Date(2025, time.August, 12, 0, 0, 0, 0, time.Local), cols[2].Date)
}

func TestDetectHeadersMergesDuplicateRecognitions(t *testing.T) {
	// The same physical "10-Aug" header recognized twice, centers 0.02 apart.
	tagged := tag([]Detection{
		det("10-Aug", 0.175, 0.85, 0.05, 0.03),
		det("10-Aug", 0.195, 0.85, 0.05, 0.03),
		det("11-Aug", 0.475, 0.85, 0.05, 0.03),
	})

	cols := detectHeaders(tagged, 2025)
	require.Len(t, cols, 2)
	assert.InDelta(t, 0.2, cols[0].CenterX, 1e-9)
	assert.InDelta(t, 0.5, cols[1].CenterX, 1e-9)
}

func TestDetectHeadersKeepsColumnsAtTolerance(t *testing.T) {
	// Exactly headerDupTolerance apart is not a duplicate.
	tagged := tag([]Detection{
		det("10-Aug", 0.175, 0.85, 0.05, 0.03),
		det("11-Aug", 0.205, 0.85, 0.05, 0.03),
	})

	cols := detectHeaders(tagged, 2025)
	assert.Len(t, cols, 2)
}

func TestDetectHeadersIgnoresNonHeaders(t *testing.T) {
	tagged := tag([]Detection{
		det("Sonu", 0.02, 0.39, 0.06, 0.02),
		det("7a-3p", 0.175, 0.40, 0.05, 0.02),
		det("off", 0.475, 0.40, 0.05, 0.02),
	})

	assert.Empty(t, detectHeaders(tagged, 2025))
}

func TestDetectHeadersEmptyInput(t *testing.T) {
	assert.Empty(t, detectHeaders(nil, 2025))
}
