package extract

import (
	"sort"
	"time"
)

// detectHeaders collects every date-header detection into an ordered,
// deduplicated column list. Headers carry no year on the photographed table,
// so every date resolves against the supplied year; a table crossing a year
// boundary is a stated limitation.
func detectHeaders(tagged []classifiedDetection, year int) []HeaderColumn {
	var cols []HeaderColumn
	for _, c := range tagged {
		if c.kind != KindHeader {
			continue
		}
		cols = append(cols, HeaderColumn{
			CenterX: c.det.Box.MidX(),
			Date:    time.Date(year, c.month, c.day, 0, 0, 0, 0, time.Local),
		})
	}

	sort.Slice(cols, func(i, j int) bool { return cols[i].CenterX < cols[j].CenterX })

	// Duplicate recognitions of the same physical header cluster tightly;
	// one sorted pass keeps the first of each cluster.
	var merged []HeaderColumn
	for _, col := range cols {
		if len(merged) > 0 && col.CenterX-merged[len(merged)-1].CenterX < headerDupTolerance {
			continue
		}
		merged = append(merged, col)
	}
	return merged
}
