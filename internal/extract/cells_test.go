package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2025, time.August, 10, 0, 0, 0, 0, time.Local)

func testHeaders() []HeaderColumn {
	return []HeaderColumn{
		{CenterX: 0.2, Date: testBase},
		{CenterX: 0.5, Date: testBase.AddDate(0, 0, 1)},
	}
}

func cell(text string, x, y float64) classifiedDetection {
	d := det(text, x, y, 0.05, 0.02)
	return classifiedDetection{det: d, classification: classify(d)}
}

func TestClassifyCellsFiltersByBandAndKind(t *testing.T) {
	band := RowBand{MinY: 0.375, MaxY: 0.425}
	tagged := []classifiedDetection{
		cell("7a-3p", 0.175, 0.40),   // time range in band
		cell("off", 0.475, 0.41),     // off marker in band
		cell("9a-5p", 0.175, 0.70),   // time range outside band
		cell("Sonu", 0.02, 0.40),     // unclassified in band
		cell("10-Aug", 0.175, 0.40),  // header in band
	}

	cells := classifyCells(tagged, band)
	require.Len(t, cells, 2)
	assert.Equal(t, "7a-3p", cells[0].det.Text)
	assert.Equal(t, "off", cells[1].det.Text)
}

func TestNearestHeaderPicksClosestColumn(t *testing.T) {
	headers := testHeaders()

	assert.Equal(t, testBase, nearestHeader(headers, 0.21).Date)
	assert.Equal(t, testBase.AddDate(0, 0, 1), nearestHeader(headers, 0.49).Date)

	// No distance cutoff: a far-off cell still lands on some column.
	assert.Equal(t, testBase.AddDate(0, 0, 1), nearestHeader(headers, 0.99).Date)
}

func TestParseCellPlainRange(t *testing.T) {
	sc, ok := parseCell(cell("7a-3p", 0.175, 0.40), testHeaders())
	require.True(t, ok)
	assert.Equal(t, testBase, sc.Date)
	assert.Equal(t, time.Date(2025, time.August, 10, 7, 0, 0, 0, time.Local), sc.Start)
	assert.Equal(t, time.Date(2025, time.August, 10, 15, 0, 0, 0, time.Local), sc.End)
	assert.Equal(t, "7a-3p", sc.SourceText)
}

func TestParseCellWithMinutesAndSpaces(t *testing.T) {
	sc, ok := parseCell(cell("6:30a - 1p", 0.475, 0.40), testHeaders())
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.August, 11, 6, 30, 0, 0, time.Local), sc.Start)
	assert.Equal(t, time.Date(2025, time.August, 11, 13, 0, 0, 0, time.Local), sc.End)
}

func TestParseCellOvernightRollover(t *testing.T) {
	sc, ok := parseCell(cell("11p-7a", 0.175, 0.40), testHeaders())
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.August, 10, 23, 0, 0, 0, time.Local), sc.Start)
	assert.Equal(t, time.Date(2025, time.August, 11, 7, 0, 0, 0, time.Local), sc.End)
}

func TestParseCellEnDash(t *testing.T) {
	sc, ok := parseCell(cell("9am–5pm", 0.175, 0.40), testHeaders())
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.August, 10, 9, 0, 0, 0, time.Local), sc.Start)
	assert.Equal(t, time.Date(2025, time.August, 10, 17, 0, 0, 0, time.Local), sc.End)
}

func TestParseCellOffYieldsNothing(t *testing.T) {
	_, ok := parseCell(cell("off", 0.175, 0.40), testHeaders())
	assert.False(t, ok)
}

func TestParseCellZeroLengthShiftRejected(t *testing.T) {
	// Identical start and end does not roll over; it is rejected outright.
	_, ok := parseCell(cell("7a-7a", 0.175, 0.40), testHeaders())
	assert.False(t, ok)
}

func TestParseTimeToken(t *testing.T) {
	tests := []struct {
		token  string
		hour   int
		minute int
		ok     bool
	}{
		{"7a", 7, 0, true},
		{"7am", 7, 0, true},
		{"12a", 0, 0, true},
		{"12p", 12, 0, true},
		{"6:30a", 6, 30, true},
		{"11 pm", 23, 0, true},
		{" 3P ", 15, 0, true},
		{"6:75a", 0, 0, false},
		{"7", 0, 0, false},
		{"a", 0, 0, false},
		{"25a", 1, 0, true}, // hour wraps mod 12; OCR noise, not validated
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		got, ok := parseTimeToken(tt.token, testBase)
		assert.Equal(t, tt.ok, ok, "token %q", tt.token)
		if tt.ok {
			assert.Equal(t, tt.hour, got.Hour(), "token %q", tt.token)
			assert.Equal(t, tt.minute, got.Minute(), "token %q", tt.token)
			assert.Equal(t, testBase.Day(), got.Day(), "token %q", tt.token)
		}
	}
}
