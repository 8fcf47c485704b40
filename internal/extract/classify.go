package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind tags a detection's classification outcome. Computed once per
// extraction run so later stages never re-test raw text.
type Kind int

const (
	KindUnclassified Kind = iota
	KindHeader
	KindTimeRange
	KindOffMarker
)

const (
	// headerDupTolerance is the maximum horizontal distance between two
	// header recognitions of the same physical column. Assumes the OCR never
	// recognizes two different date headers this close together.
	headerDupTolerance = 0.03

	// minRowBandHeight bounds the row band from below to tolerate OCR box
	// jitter on small name labels.
	minRowBandHeight = 0.05

	// dedupeTolerance: two candidates whose starts and ends both differ by
	// less than this are the same shift recognized twice.
	dedupeTolerance = time.Minute
)

var (
	// Day number, separator, month token: "10-Aug", "16 Aug", "7/sep".
	dateHeaderRe = regexp.MustCompile(`(?i)\b(\d{1,2})[-/ ]([A-Za-z]{3,})\b`)

	// Whole-cell time range: "7a-3p", "6:30a-1p", "11p - 7a".
	timeRangeRe = regexp.MustCompile(`(?i)^\s*\d{1,2}(?::\d{2})?\s*[ap]m?\s*[-\x{2013}]\s*\d{1,2}(?::\d{2})?\s*[ap]m?\s*$`)

	// One side of a range: hour, optional minutes, meridiem letter.
	timeTokenRe = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?::(\d{2}))?\s*([ap])m?\s*$`)

	// Hyphen or en-dash; OCR produces both.
	rangeSplitRe = regexp.MustCompile(`[-\x{2013}]`)
)

// offMarkers are rest-day cell texts, matched exactly after whitespace
// stripping, case-insensitive. "0ff" covers the common O-to-zero misread.
var offMarkers = map[string]struct{}{
	"off": {},
	"0ff": {},
	"rd":  {},
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// classification is the per-detection tagged variant. Header matches carry
// the resolved day and month so header collection is a pure scan.
type classification struct {
	kind  Kind
	day   int
	month time.Month
}

type classifiedDetection struct {
	det Detection
	classification
}

func classify(d Detection) classification {
	if day, month, ok := matchDateHeader(d.Text); ok {
		return classification{kind: KindHeader, day: day, month: month}
	}
	if isOffMarker(d.Text) {
		return classification{kind: KindOffMarker}
	}
	if timeRangeRe.MatchString(d.Text) {
		return classification{kind: KindTimeRange}
	}
	return classification{kind: KindUnclassified}
}

func matchDateHeader(text string) (day int, month time.Month, ok bool) {
	m := dateHeaderRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, false
	}
	month, ok = monthsByPrefix[strings.ToLower(m[2][:3])]
	if !ok {
		return 0, 0, false
	}
	return day, month, true
}

func isOffMarker(text string) bool {
	key := strings.ToLower(strings.Join(strings.Fields(text), ""))
	_, ok := offMarkers[key]
	return ok
}
