package extract

import "strings"

// locateRowBand finds the first detection (input order, not spatial order)
// whose text contains the target name and derives the horizontal band
// presumed to hold that person's cells. Matching is trimmed, case-insensitive
// substring; the band is twice the matched label's height, floored at
// minRowBandHeight and clamped to [0,1].
func locateRowBand(detections []Detection, targetName string) (RowBand, bool) {
	needle := strings.ToLower(strings.TrimSpace(targetName))
	if needle == "" {
		return RowBand{}, false
	}
	for _, d := range detections {
		if !strings.Contains(strings.ToLower(d.Text), needle) {
			continue
		}
		h := 2 * d.Box.Height
		if h < minRowBandHeight {
			h = minRowBandHeight
		}
		mid := d.Box.MidY()
		return RowBand{
			MinY: clamp01(mid - h/2),
			MaxY: clamp01(mid + h/2),
		}, true
	}
	return RowBand{}, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
