package fingerprint

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestBuildSamplesByStride(t *testing.T) {
	src := newSliceSource(10, 10)
	hasher := newIndexHasher(80)

	seq, err := Build(context.Background(), src, hasher, 0.3)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	expectedFrames := []int{0, 3, 6, 9}
	if len(seq) != len(expectedFrames) {
		t.Fatalf("Expected %d records, got %d", len(expectedFrames), len(seq))
	}
	for i, rec := range seq {
		if rec.FrameIndex != expectedFrames[i] {
			t.Errorf("Record %d: expected frame %d, got %d", i, expectedFrames[i], rec.FrameIndex)
		}
		wantTS := float64(expectedFrames[i]) / 10
		if math.Abs(rec.Timestamp-wantTS) > 1e-9 {
			t.Errorf("Record %d: expected timestamp %f, got %f", i, wantTS, rec.Timestamp)
		}
		if rec.Hash != testHash(expectedFrames[i]) {
			t.Errorf("Record %d: hash does not belong to frame %d", i, expectedFrames[i])
		}
		if rec.Quality != 80 {
			t.Errorf("Record %d: expected quality 80, got %d", i, rec.Quality)
		}
	}

	// Only retained frames reach the hasher.
	if len(hasher.calls) != len(expectedFrames) {
		t.Errorf("Expected hasher to be called %d times, got %d", len(expectedFrames), len(hasher.calls))
	}

	if err := seq.Validate(); err != nil {
		t.Errorf("Built sequence failed validation: %v", err)
	}
}

func TestBuildEveryFrame(t *testing.T) {
	seq, err := Build(context.Background(), newSliceSource(25, 7), newIndexHasher(60), 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(seq) != 7 {
		t.Fatalf("Expected 7 records, got %d", len(seq))
	}
	for i, rec := range seq {
		if rec.FrameIndex != i {
			t.Errorf("Expected frame index %d, got %d", i, rec.FrameIndex)
		}
	}
}

func TestBuildSlowFrameRateClampsStride(t *testing.T) {
	seq, err := Build(context.Background(), newSliceSource(0.5, 4), newIndexHasher(60), 1)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(seq) != 4 {
		t.Errorf("Expected every frame to be hashed, got %d records", len(seq))
	}
	if seq[1].Timestamp != 2 {
		t.Errorf("Expected timestamp 2s for frame 1 at 0.5fps, got %f", seq[1].Timestamp)
	}
}

func TestBuildEmptyVideo(t *testing.T) {
	seq, err := Build(context.Background(), newSliceSource(30, 0), newIndexHasher(60), 1)
	if err != nil {
		t.Fatalf("Expected no error for empty video, got %v", err)
	}
	if seq == nil {
		t.Error("Expected non-nil empty sequence")
	}
	if len(seq) != 0 {
		t.Errorf("Expected 0 records, got %d", len(seq))
	}
}

func TestBuildUnhashableFrameAborts(t *testing.T) {
	hasher := newIndexHasher(60)
	hasher.failAt = 4

	seq, err := Build(context.Background(), newSliceSource(10, 10), hasher, 0.2)
	if !errors.Is(err, ErrUnhashableFrame) {
		t.Fatalf("Expected ErrUnhashableFrame, got %v", err)
	}
	if seq != nil {
		t.Errorf("Expected no partial sequence, got %d records", len(seq))
	}
}

func TestBuildSourceFailureMidStream(t *testing.T) {
	src := newSliceSource(10, 10)
	src.failAt = 5
	src.failErr = errDecode

	seq, err := Build(context.Background(), src, newIndexHasher(60), 0)
	if !errors.Is(err, ErrSourceFailure) {
		t.Fatalf("Expected ErrSourceFailure, got %v", err)
	}
	if !errors.Is(err, errDecode) {
		t.Errorf("Expected underlying decode error to be preserved, got %v", err)
	}
	if seq != nil {
		t.Errorf("Expected no partial sequence, got %d records", len(seq))
	}
}

func TestBuildSourceFailureBeforeFirstFrame(t *testing.T) {
	src := newSliceSource(10, 10)
	src.failAt = 0
	src.failErr = errDecode

	hasher := newIndexHasher(60)
	if _, err := Build(context.Background(), src, hasher, 0); !errors.Is(err, ErrSourceFailure) {
		t.Fatalf("Expected ErrSourceFailure, got %v", err)
	}
	if len(hasher.calls) != 0 {
		t.Errorf("Expected hasher not to run, got %d calls", len(hasher.calls))
	}
}

func TestBuildInvalidFrameRate(t *testing.T) {
	_, err := Build(context.Background(), newSliceSource(0, 10), newIndexHasher(60), 1)
	if !errors.Is(err, ErrSourceFailure) {
		t.Errorf("Expected ErrSourceFailure for zero frame rate, got %v", err)
	}
}

func TestBuildNegativeSecondsPerHash(t *testing.T) {
	_, err := Build(context.Background(), newSliceSource(30, 10), newIndexHasher(60), -1)
	if !errors.Is(err, ErrInvalidSampling) {
		t.Errorf("Expected ErrInvalidSampling, got %v", err)
	}
}

func TestBuildRejectsOutOfOrderFrames(t *testing.T) {
	src := newSliceSource(10, 5)
	src.indexFn = func(i int) int {
		if i == 2 {
			return 3
		}
		return i
	}

	if _, err := Build(context.Background(), src, newIndexHasher(60), 0); !errors.Is(err, ErrSourceFailure) {
		t.Errorf("Expected ErrSourceFailure for skipped index, got %v", err)
	}
}

func TestBuildCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq, err := Build(ctx, newSliceSource(10, 10), newIndexHasher(60), 0)
	if !errors.Is(err, ErrSourceFailure) || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected canceled source failure, got %v", err)
	}
	if seq != nil {
		t.Error("Expected no sequence after cancellation")
	}
}

func TestBuildWithProgress(t *testing.T) {
	var seen []int
	seq, err := BuildWithProgress(context.Background(), newSliceSource(10, 10), newIndexHasher(60), 0.5, func(rec Record) {
		seen = append(seen, rec.FrameIndex)
	})
	if err != nil {
		t.Fatalf("BuildWithProgress failed: %v", err)
	}
	if len(seen) != len(seq) || len(seen) != 2 {
		t.Fatalf("Expected 2 progress callbacks, got %d (sequence %d)", len(seen), len(seq))
	}
	if seen[0] != 0 || seen[1] != 5 {
		t.Errorf("Unexpected progress frames %v", seen)
	}
}
