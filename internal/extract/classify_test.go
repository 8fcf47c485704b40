package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchDateHeaderFormats(t *testing.T) {
	tests := []struct {
		text  string
		day   int
		month time.Month
		ok    bool
	}{
		{"10-Aug", 10, time.August, true},
		{"16 Aug", 16, time.August, true},
		{"7/sep", 7, time.September, true},
		{"3-December", 3, time.December, true},
		{"Mon 10-Aug", 10, time.August, true},
		{"31-jan", 31, time.January, true},
		{"0-Aug", 0, 0, false},
		{"32-Aug", 0, 0, false},
		{"10-Xyz", 0, 0, false},
		{"10-Au", 0, 0, false},
		{"Aug", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		day, month, ok := matchDateHeader(tt.text)
		assert.Equal(t, tt.ok, ok, "text %q", tt.text)
		if tt.ok {
			assert.Equal(t, tt.day, day, "text %q", tt.text)
			assert.Equal(t, tt.month, month, "text %q", tt.text)
		}
	}
}

func TestIsOffMarker(t *testing.T) {
	for _, text := range []string{"off", "OFF", "Off", "0ff", "RD", " o f f ", "off "} {
		assert.True(t, isOffMarker(text), "text %q", text)
	}
	for _, text := range []string{"day off", "offer", "0", "", "7a-3p"} {
		assert.False(t, isOffMarker(text), "text %q", text)
	}
}

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
	}{
		{"10-Aug", KindHeader},
		{"off", KindOffMarker},
		{"7a-3p", KindTimeRange},
		{"6:30a-1p", KindTimeRange},
		{"11p - 7a", KindTimeRange},
		{"9am–5pm", KindTimeRange},
		{"Sonu M.", KindUnclassified},
		{"garbled", KindUnclassified},
		{"7a-3p extra", KindUnclassified},
		{"", KindUnclassified},
	}

	for _, tt := range tests {
		got := classify(Detection{Text: tt.text})
		assert.Equal(t, tt.kind, got.kind, "text %q", tt.text)
	}
}

func TestClassifyHeaderCarriesDate(t *testing.T) {
	c := classify(Detection{Text: "16 Aug"})
	assert.Equal(t, KindHeader, c.kind)
	assert.Equal(t, 16, c.day)
	assert.Equal(t, time.August, c.month)
}
