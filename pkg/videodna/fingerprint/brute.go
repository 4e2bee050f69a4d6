package fingerprint

import (
	"fmt"
)

// BruteResult holds both directional coverage figures of MatchBrute.
type BruteResult struct {
	QueryMatched     int
	QueryEligible    int
	TargetMatched    int
	TargetEligible   int
	QueryPercentage  float64
	TargetPercentage float64
}

// IsMatch reports whether both directions reach the threshold percentage.
func (r BruteResult) IsMatch(threshold float64) bool {
	return r.QueryPercentage >= threshold && r.TargetPercentage >= threshold
}

// Score is the weaker of the two directions.
func (r BruteResult) Score() float64 {
	return min(r.QueryPercentage, r.TargetPercentage)
}

// MatchBrute compares every eligible query record against every eligible
// target record. A record counts as matched when at least one record on the
// other side is strictly within distanceTolerance. Either side having no
// eligible records is reported as ErrNoEligibleRecords.
func MatchBrute(query, target Sequence, distanceTolerance, qualityTolerance int) (BruteResult, error) {
	q := eligibleHashes(query, qualityTolerance)
	if len(q) == 0 {
		return BruteResult{}, fmt.Errorf("%w: query has none of %d records at quality %d", ErrNoEligibleRecords, len(query), qualityTolerance)
	}
	t := eligibleHashes(target, qualityTolerance)
	if len(t) == 0 {
		return BruteResult{}, fmt.Errorf("%w: target has none of %d records at quality %d", ErrNoEligibleRecords, len(target), qualityTolerance)
	}

	res := BruteResult{
		QueryEligible:  len(q),
		TargetEligible: len(t),
		QueryMatched:   countCovered(q, t, distanceTolerance),
		TargetMatched:  countCovered(t, q, distanceTolerance),
	}
	res.QueryPercentage = float64(res.QueryMatched) * 100 / float64(res.QueryEligible)
	res.TargetPercentage = float64(res.TargetMatched) * 100 / float64(res.TargetEligible)
	return res, nil
}

func eligibleHashes(seq Sequence, qualityTolerance int) []Hash256 {
	out := make([]Hash256, 0, len(seq))
	for _, r := range seq {
		if r.Eligible(qualityTolerance) {
			out = append(out, r.Hash)
		}
	}
	return out
}

// countCovered counts hashes in from that have any hash in against within tolerance.
func countCovered(from, against []Hash256, distanceTolerance int) int {
	n := 0
	for _, h := range from {
		for _, o := range against {
			if h.Distance(o) < distanceTolerance {
				n++
				break
			}
		}
	}
	return n
}
