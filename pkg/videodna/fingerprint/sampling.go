package fingerprint

import (
	"fmt"
	"math"
)

// SamplingPolicy selects which decoded frames get hashed.
type SamplingPolicy struct {
	stride int
}

// NewSamplingPolicy computes the stride as floor(secondsPerHash * framesPerSec).
// Zero seconds per hash means every frame. A product that truncates to zero
// (sub-frame intervals, framesPerSec < 1) is clamped to 1 so frame 0 is always kept.
func NewSamplingPolicy(secondsPerHash, framesPerSec float64) (SamplingPolicy, error) {
	if math.IsNaN(secondsPerHash) || math.IsInf(secondsPerHash, 0) || secondsPerHash < 0 {
		return SamplingPolicy{}, fmt.Errorf("%w: seconds per hash %v must be a non-negative number", ErrInvalidSampling, secondsPerHash)
	}
	if math.IsNaN(framesPerSec) || math.IsInf(framesPerSec, 0) || framesPerSec <= 0 {
		return SamplingPolicy{}, fmt.Errorf("%w: frame rate %v must be positive", ErrInvalidSampling, framesPerSec)
	}

	product := secondsPerHash * framesPerSec
	if product >= math.MaxInt32 {
		return SamplingPolicy{}, fmt.Errorf("%w: stride %v too large", ErrInvalidSampling, product)
	}

	// Intentional truncation.
	stride := int(product)
	if stride < 1 {
		stride = 1
	}
	return SamplingPolicy{stride: stride}, nil
}

// Stride is the number of decoded frames between two hashed frames.
func (p SamplingPolicy) Stride() int {
	if p.stride < 1 {
		return 1
	}
	return p.stride
}

// Retain reports whether the frame at full-decode index i is hashed.
func (p SamplingPolicy) Retain(i int) bool {
	return i%p.Stride() == 0
}
