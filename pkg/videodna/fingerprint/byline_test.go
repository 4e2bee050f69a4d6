package fingerprint

import (
	"errors"
	"testing"
)

func TestMatchByLineIdentical(t *testing.T) {
	hashes := []Hash256{testHash(1), testHash(2), testHash(3)}
	a := seqOf(hashes, []int{80, 80, 80})
	b := seqOf(hashes, []int{80, 80, 80})

	res, err := MatchByLine(a, b, 10, 50)
	if err != nil {
		t.Fatalf("MatchByLine failed: %v", err)
	}
	if res.Percentage != 100.0 {
		t.Errorf("Expected 100%% match, got %f", res.Percentage)
	}
	if res.MatchCount != 3 || res.TotalCompared != 3 || res.Skipped != 0 {
		t.Errorf("Unexpected counts: %+v", res)
	}
}

func TestMatchByLineSkipsLowQuality(t *testing.T) {
	hashes := []Hash256{testHash(10), testHash(11)}
	a := seqOf(hashes, []int{10, 90})
	b := seqOf(hashes, []int{90, 90})

	res, err := MatchByLine(a, b, 10, 50)
	if err != nil {
		t.Fatalf("MatchByLine failed: %v", err)
	}
	if res.TotalCompared != 1 || res.MatchCount != 1 || res.Skipped != 1 {
		t.Errorf("Expected 1 compared, 1 matched, 1 skipped, got %+v", res)
	}
	if res.Percentage != 100 {
		t.Errorf("Expected 100%%, got %f", res.Percentage)
	}
	if res.Lines[0].Status != LineSkipped || res.Lines[0].Distance != -1 {
		t.Errorf("Expected line 0 skipped, got %+v", res.Lines[0])
	}
	if res.Lines[1].Status != LineMatch {
		t.Errorf("Expected line 1 match, got %+v", res.Lines[1])
	}
}

func TestMatchByLineLengthMismatch(t *testing.T) {
	a := seqOf(make([]Hash256, 5), repeatQuality(90, 5))
	b := seqOf(make([]Hash256, 6), repeatQuality(90, 6))

	_, err := MatchByLine(a, b, 10, 50)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestMatchByLineDistanceIsStrict(t *testing.T) {
	base := testHash(7)
	a := seqOf([]Hash256{base, base}, []int{90, 90})
	b := seqOf([]Hash256{flipBits(base, 10), flipBits(base, 9)}, []int{90, 90})

	res, err := MatchByLine(a, b, 10, 50)
	if err != nil {
		t.Fatalf("MatchByLine failed: %v", err)
	}
	if res.Lines[0].Status != LineNoMatch || res.Lines[0].Distance != 10 {
		t.Errorf("Distance equal to tolerance must not match, got %+v", res.Lines[0])
	}
	if res.Lines[1].Status != LineMatch || res.Lines[1].Distance != 9 {
		t.Errorf("Distance below tolerance must match, got %+v", res.Lines[1])
	}
	if res.Percentage != 50 {
		t.Errorf("Expected 50%%, got %f", res.Percentage)
	}
}

func TestMatchByLineNoComparablePairs(t *testing.T) {
	hashes := []Hash256{testHash(1), testHash(2), testHash(3)}
	a := seqOf(hashes, []int{40, 60, 99})
	b := seqOf(hashes, []int{99, 99, 99})

	res, err := MatchByLine(a, b, 10, 100)
	if !errors.Is(err, ErrNoComparablePairs) {
		t.Fatalf("Expected ErrNoComparablePairs, got %v", err)
	}
	if res.Skipped != 3 {
		t.Errorf("Expected all 3 pairs skipped, got %d", res.Skipped)
	}
}

func TestMatchByLineEmpty(t *testing.T) {
	if _, err := MatchByLine(Sequence{}, Sequence{}, 10, 0); !errors.Is(err, ErrNoComparablePairs) {
		t.Errorf("Expected ErrNoComparablePairs for empty sequences, got %v", err)
	}
}

func TestMatchByLineDisjoint(t *testing.T) {
	a := seqOf([]Hash256{testHash(1), testHash(2)}, []int{90, 90})
	b := seqOf([]Hash256{testHash(3), testHash(4)}, []int{90, 90})

	res, err := MatchByLine(a, b, 31, 50)
	if err != nil {
		t.Fatalf("MatchByLine failed: %v", err)
	}
	if res.MatchCount != 0 || res.Percentage != 0 {
		t.Errorf("Expected 0%% for unrelated hashes, got %+v", res)
	}
}
