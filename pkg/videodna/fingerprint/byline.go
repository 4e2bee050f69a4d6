package fingerprint

import (
	"fmt"
)

// LineStatus is the outcome of comparing one position in MatchByLine.
type LineStatus int

const (
	LineSkipped LineStatus = iota
	LineMatch
	LineNoMatch
)

func (s LineStatus) String() string {
	switch s {
	case LineSkipped:
		return "skipped"
	case LineMatch:
		return "match"
	case LineNoMatch:
		return "no match"
	default:
		return "unknown"
	}
}

// LineOutcome describes one position of a by-line comparison.
// Distance is -1 for skipped lines.
type LineOutcome struct {
	Index    int
	Status   LineStatus
	Distance int
}

type ByLineResult struct {
	MatchCount    int
	TotalCompared int
	Skipped       int
	Percentage    float64
	Lines         []LineOutcome
}

// MatchByLine compares two identically sampled sequences position by position.
// Pairs where either side is below qualityTolerance are skipped entirely. A
// compared pair matches when its distance is strictly below distanceTolerance.
func MatchByLine(a, b Sequence, distanceTolerance, qualityTolerance int) (ByLineResult, error) {
	if len(a) != len(b) {
		return ByLineResult{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}

	res := ByLineResult{Lines: make([]LineOutcome, len(a))}
	for i := range a {
		if !a[i].Eligible(qualityTolerance) || !b[i].Eligible(qualityTolerance) {
			res.Skipped++
			res.Lines[i] = LineOutcome{Index: i, Status: LineSkipped, Distance: -1}
			continue
		}

		d := a[i].Hash.Distance(b[i].Hash)
		status := LineNoMatch
		if d < distanceTolerance {
			res.MatchCount++
			status = LineMatch
		}
		res.TotalCompared++
		res.Lines[i] = LineOutcome{Index: i, Status: status, Distance: d}
	}

	if res.TotalCompared == 0 {
		return res, fmt.Errorf("%w: all %d pairs below quality %d", ErrNoComparablePairs, len(a), qualityTolerance)
	}

	res.Percentage = float64(res.MatchCount) * 100 / float64(res.TotalCompared)
	return res, nil
}
