package extract

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// classifyCells returns the detections whose vertical center lies inside the
// row band and whose text has a time-range or off-marker shape. Everything
// else, mis-OCR'd cells included, is dropped silently.
func classifyCells(tagged []classifiedDetection, band RowBand) []classifiedDetection {
	var cells []classifiedDetection
	for _, c := range tagged {
		if c.kind != KindTimeRange && c.kind != KindOffMarker {
			continue
		}
		if !band.contains(c.det.Box.MidY()) {
			continue
		}
		cells = append(cells, c)
	}
	return cells
}

// nearestHeader picks the column minimizing |midX - CenterX|. There is
// deliberately no maximum-distance cutoff: a far-off cell is still assigned
// to some column.
func nearestHeader(headers []HeaderColumn, midX float64) HeaderColumn {
	best := headers[0]
	bestDist := math.Abs(midX - best.CenterX)
	for _, h := range headers[1:] {
		if d := math.Abs(midX - h.CenterX); d < bestDist {
			best = h
			bestDist = d
		}
	}
	return best
}

// parseCell converts one qualifying cell plus its nearest header's date into
// a ShiftCandidate. Rest-day markers and malformed tokens yield no candidate;
// that exclusion is silent, not reported per cell.
func parseCell(cell classifiedDetection, headers []HeaderColumn) (ShiftCandidate, bool) {
	text := cell.det.Text
	if strings.Contains(strings.ToLower(text), "off") {
		return ShiftCandidate{}, false
	}

	parts := rangeSplitRe.Split(text, -1)
	if len(parts) != 2 {
		return ShiftCandidate{}, false
	}

	base := nearestHeader(headers, cell.det.Box.MidX()).Date

	start, ok := parseTimeToken(parts[0], base)
	if !ok {
		return ShiftCandidate{}, false
	}
	end, ok := parseTimeToken(parts[1], base)
	if !ok {
		return ShiftCandidate{}, false
	}

	// Overnight rollover: the end token is first resolved against the same
	// base date; landing earlier than the start means the shift crosses
	// midnight exactly once.
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return ShiftCandidate{}, false
	}

	return ShiftCandidate{Date: base, Start: start, End: end, SourceText: text}, true
}

// parseTimeToken resolves one side of a range ("7a", "6:30p", "11 pm")
// against the base date's year/month/day.
func parseTimeToken(token string, base time.Time) (time.Time, bool) {
	m := timeTokenRe.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
		if minute > 59 {
			return time.Time{}, false
		}
	}
	hour %= 12
	if strings.EqualFold(m[3], "p") {
		hour += 12
	}
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location()), true
}
