package fingerprint

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestMatchBruteContainment(t *testing.T) {
	query := seqOf([]Hash256{testHash(1), testHash(2), testHash(3)}, repeatQuality(80, 3))
	// Target holds the query hashes in a different order plus unrelated content.
	target := seqOf([]Hash256{testHash(100), testHash(3), testHash(1), testHash(101), testHash(2)}, repeatQuality(80, 5))

	res, err := MatchBrute(query, target, 1, 50)
	if err != nil {
		t.Fatalf("MatchBrute failed: %v", err)
	}
	if res.QueryPercentage != 100 {
		t.Errorf("Expected query 100%%, got %f", res.QueryPercentage)
	}
	if res.TargetPercentage >= 100 {
		t.Errorf("Expected target below 100%%, got %f", res.TargetPercentage)
	}
	if res.TargetMatched != 3 || res.TargetEligible != 5 {
		t.Errorf("Expected 3/5 target records matched, got %d/%d", res.TargetMatched, res.TargetEligible)
	}
	if math.Abs(res.TargetPercentage-60) > 1e-9 {
		t.Errorf("Expected target 60%%, got %f", res.TargetPercentage)
	}
}

func TestMatchBruteExcludesIneligible(t *testing.T) {
	query := seqOf([]Hash256{testHash(1), testHash(2), testHash(50)}, []int{90, 90, 10})
	target := seqOf([]Hash256{testHash(1), testHash(2), testHash(2)}, []int{90, 10, 90})

	res, err := MatchBrute(query, target, 5, 50)
	if err != nil {
		t.Fatalf("MatchBrute failed: %v", err)
	}
	if res.QueryEligible != 2 || res.TargetEligible != 2 {
		t.Fatalf("Expected 2 eligible records per side, got %d and %d", res.QueryEligible, res.TargetEligible)
	}
	// Query hash 2 still matches through the eligible duplicate at target index 2.
	if res.QueryMatched != 2 || res.TargetMatched != 2 {
		t.Errorf("Expected full coverage both ways, got %+v", res)
	}
}

func TestMatchBruteIneligibleTargetCannotMatch(t *testing.T) {
	query := seqOf([]Hash256{testHash(1), testHash(2)}, []int{90, 90})
	target := seqOf([]Hash256{testHash(1), testHash(2)}, []int{90, 20})

	res, err := MatchBrute(query, target, 5, 50)
	if err != nil {
		t.Fatalf("MatchBrute failed: %v", err)
	}
	if res.QueryMatched != 1 || res.QueryPercentage != 50 {
		t.Errorf("Expected 1 of 2 query records matched, got %+v", res)
	}
	if res.TargetPercentage != 100 {
		t.Errorf("Expected target 100%%, got %f", res.TargetPercentage)
	}
}

func TestMatchBruteNearDuplicates(t *testing.T) {
	base := []Hash256{testHash(1), testHash(2), testHash(3), testHash(4)}
	edited := make([]Hash256, len(base))
	for i, h := range base {
		edited[i] = flipBits(h, 20)
	}

	query := seqOf(base, repeatQuality(90, 4))
	target := seqOf(edited, repeatQuality(90, 4))

	res, err := MatchBrute(query, target, 31, 50)
	if err != nil {
		t.Fatalf("MatchBrute failed: %v", err)
	}
	if !res.IsMatch(80) {
		t.Errorf("Expected near duplicates to match at 80%%, got %+v", res)
	}

	res, err = MatchBrute(query, target, 20, 50)
	if err != nil {
		t.Fatalf("MatchBrute failed: %v", err)
	}
	if res.QueryMatched != 0 {
		t.Errorf("Expected no matches at tolerance equal to distance, got %+v", res)
	}
}

func TestMatchBruteNoEligibleRecords(t *testing.T) {
	good := seqOf([]Hash256{testHash(1)}, []int{90})
	low := seqOf([]Hash256{testHash(1)}, []int{30})

	tests := []struct {
		name          string
		query, target Sequence
	}{
		{"query side", low, good},
		{"target side", good, low},
		{"both sides", low, low},
		{"empty query", Sequence{}, good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MatchBrute(tt.query, tt.target, 10, 50)
			if !errors.Is(err, ErrNoEligibleRecords) {
				t.Errorf("Expected ErrNoEligibleRecords, got %v", err)
			}
		})
	}
}

func TestMatchBruteQualityAboveAll(t *testing.T) {
	seq := seqOf([]Hash256{testHash(1), testHash(2)}, []int{99, 100})
	if _, err := MatchBrute(seq, seq, 10, 101); !errors.Is(err, ErrNoEligibleRecords) {
		t.Errorf("Expected ErrNoEligibleRecords, got %v", err)
	}
}

func TestMatchBruteDirectional(t *testing.T) {
	short := seqOf([]Hash256{testHash(1)}, []int{90})
	long := seqOf([]Hash256{testHash(1), testHash(2), testHash(3), testHash(4)}, repeatQuality(90, 4))

	forward, err := MatchBrute(short, long, 10, 50)
	if err != nil {
		t.Fatalf("MatchBrute failed: %v", err)
	}
	backward, err := MatchBrute(long, short, 10, 50)
	if err != nil {
		t.Fatalf("MatchBrute failed: %v", err)
	}

	if forward.QueryPercentage != backward.TargetPercentage || forward.TargetPercentage != backward.QueryPercentage {
		t.Errorf("Swapping roles should swap percentages: %+v vs %+v", forward, backward)
	}
	if forward.QueryPercentage != 100 || forward.TargetPercentage != 25 {
		t.Errorf("Expected 100%% / 25%%, got %+v", forward)
	}
	if forward.Score() != 25 {
		t.Errorf("Expected score 25, got %f", forward.Score())
	}
	if forward.IsMatch(80) {
		t.Error("Expected no match at 80% threshold")
	}
}

func TestMatchBruteConcurrentReaders(t *testing.T) {
	query := seqOf([]Hash256{testHash(1), testHash(2), testHash(3)}, repeatQuality(90, 3))
	targets := []Sequence{
		seqOf([]Hash256{testHash(1), testHash(2), testHash(3)}, repeatQuality(90, 3)),
		seqOf([]Hash256{testHash(7), testHash(8)}, repeatQuality(90, 2)),
	}

	var wg sync.WaitGroup
	results := make([]BruteResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := MatchBrute(query, targets[i%2], 10, 50)
			if err != nil {
				t.Errorf("MatchBrute failed: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		want := 100.0
		if i%2 == 1 {
			want = 0
		}
		if res.QueryPercentage != want {
			t.Errorf("Result %d: expected %f, got %f", i, want, res.QueryPercentage)
		}
	}
}
