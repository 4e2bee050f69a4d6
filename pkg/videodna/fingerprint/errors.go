package fingerprint

import "errors"

var (
	// ErrSourceFailure means the frame source could not open or decode the video.
	ErrSourceFailure = errors.New("frame source failure")

	// ErrUnhashableFrame means a frame is smaller than MinHashableDimension.
	ErrUnhashableFrame = errors.New("frame smaller than minimum hashable dimension")

	ErrLengthMismatch    = errors.New("sequence lengths differ")
	ErrNoComparablePairs = errors.New("no comparable pairs at quality tolerance")
	ErrNoEligibleRecords = errors.New("no eligible records at quality tolerance")
	ErrInvalidSampling   = errors.New("invalid sampling parameters")
)
