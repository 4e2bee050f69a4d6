package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Frame is one decoded, downscaled video frame.
// Pix holds packed RGB24 pixels, row-major, Width*Height*3 bytes.
type Frame struct {
	Index  int
	Width  int
	Height int
	Pix    []byte
}

// FrameSource delivers decoded frames in presentation order starting at
// index 0. Next returns io.EOF once the stream is exhausted.
type FrameSource interface {
	FrameRate() float64
	Next(ctx context.Context) (Frame, error)
}

// FrameHasher turns one frame into a hash and a quality score in [0,100].
type FrameHasher interface {
	HashFrame(frame Frame) (Hash256, int, error)
}

// ProgressFunc is called after each hashed frame.
type ProgressFunc func(rec Record)

// Build hashes a video, sampling one frame every secondsPerHash seconds.
// Any source or hasher failure discards the partial sequence.
func Build(ctx context.Context, src FrameSource, hasher FrameHasher, secondsPerHash float64) (Sequence, error) {
	return BuildWithProgress(ctx, src, hasher, secondsPerHash, nil)
}

// BuildWithProgress is Build with a per-record callback.
func BuildWithProgress(ctx context.Context, src FrameSource, hasher FrameHasher, secondsPerHash float64, progress ProgressFunc) (Sequence, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil frame source", ErrSourceFailure)
	}
	if hasher == nil {
		return nil, errors.New("nil frame hasher")
	}

	frameRate := src.FrameRate()
	policy, err := NewSamplingPolicy(secondsPerHash, frameRate)
	if err != nil {
		if frameRate <= 0 {
			return nil, fmt.Errorf("%w: %w", ErrSourceFailure, err)
		}
		return nil, err
	}

	seq := make(Sequence, 0)
	for fno := 0; ; fno++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: frame %d: %w", ErrSourceFailure, fno, err)
		}
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, ErrSourceFailure) {
				return nil, fmt.Errorf("frame %d: %w", fno, err)
			}
			return nil, fmt.Errorf("%w: frame %d: %w", ErrSourceFailure, fno, err)
		}
		if frame.Index != fno {
			return nil, fmt.Errorf("%w: frame delivered with index %d, expected %d", ErrSourceFailure, frame.Index, fno)
		}
		if !policy.Retain(fno) {
			continue
		}

		hash, quality, err := hasher.HashFrame(frame)
		if err != nil {
			if errors.Is(err, ErrUnhashableFrame) {
				return nil, fmt.Errorf("frame %d: %w", fno, err)
			}
			return nil, fmt.Errorf("hashing frame %d: %w", fno, err)
		}

		rec := NewRecord(hash, fno, quality, frameRate)
		seq = append(seq, rec)
		if progress != nil {
			progress(rec)
		}
	}

	return seq, nil
}
