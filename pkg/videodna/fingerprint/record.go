package fingerprint

import (
	"fmt"
)

const (
	MinQuality = 0
	MaxQuality = 100
)

// Record is the fingerprint of one sampled frame.
// FrameIndex is the position in full decode order, not in the sampled sequence.
type Record struct {
	Hash       Hash256
	FrameIndex int
	Quality    int
	Timestamp  float64 // seconds
}

// NewRecord builds a record and derives its timestamp from the frame rate.
func NewRecord(hash Hash256, frameIndex, quality int, frameRate float64) Record {
	return Record{
		Hash:       hash,
		FrameIndex: frameIndex,
		Quality:    quality,
		Timestamp:  float64(frameIndex) / frameRate,
	}
}

// Eligible reports whether the record clears the quality tolerance (inclusive).
func (r Record) Eligible(qualityTolerance int) bool {
	return r.Quality >= qualityTolerance
}

// Sequence is the ordered fingerprint of one video. Once built it is never
// mutated, so it can be shared between concurrent matchers.
type Sequence []Record

// Eligible counts records at or above the quality tolerance.
func (s Sequence) Eligible(qualityTolerance int) int {
	n := 0
	for _, r := range s {
		if r.Eligible(qualityTolerance) {
			n++
		}
	}
	return n
}

// Duration returns the timestamp of the last record, or 0 for an empty sequence.
func (s Sequence) Duration() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Timestamp
}

// Validate checks ordering and ranges for sequences that come from outside
// the builder (files, databases, API requests).
func (s Sequence) Validate() error {
	for i, r := range s {
		if r.FrameIndex < 0 {
			return fmt.Errorf("record %d: negative frame index %d", i, r.FrameIndex)
		}
		if r.Quality < MinQuality || r.Quality > MaxQuality {
			return fmt.Errorf("record %d: quality %d out of range [%d,%d]", i, r.Quality, MinQuality, MaxQuality)
		}
		if r.Timestamp < 0 {
			return fmt.Errorf("record %d: negative timestamp %f", i, r.Timestamp)
		}
		if i == 0 {
			continue
		}
		prev := s[i-1]
		if r.FrameIndex <= prev.FrameIndex {
			return fmt.Errorf("record %d: frame index %d not after %d", i, r.FrameIndex, prev.FrameIndex)
		}
		if r.Timestamp < prev.Timestamp {
			return fmt.Errorf("record %d: timestamp %f before %f", i, r.Timestamp, prev.Timestamp)
		}
	}
	return nil
}
