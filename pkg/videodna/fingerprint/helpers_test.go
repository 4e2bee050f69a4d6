package fingerprint

import (
	"context"
	"errors"
	"io"
)

// testHash returns a deterministic pseudo-random hash for seed (splitmix64).
func testHash(seed int) Hash256 {
	state := uint64(seed)*0x9E3779B97F4A7C15 + 1
	words := make([]uint64, 4)
	for i := range words {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		words[i] = z ^ (z >> 31)
	}
	return hashFromWords(words)
}

// flipBits returns h with its first n bits inverted.
func flipBits(h Hash256, n int) Hash256 {
	for i := 0; i < n; i++ {
		h[i/8] ^= 0x80 >> (i % 8)
	}
	return h
}

// seqOf builds a sequence at 1 fps from hashes and qualities.
func seqOf(hashes []Hash256, qualities []int) Sequence {
	seq := make(Sequence, len(hashes))
	for i := range hashes {
		seq[i] = NewRecord(hashes[i], i, qualities[i], 1)
	}
	return seq
}

func repeatQuality(q, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = q
	}
	return out
}

// sliceSource is an in-memory FrameSource.
type sliceSource struct {
	fps     float64
	total   int
	failAt  int // -1 disables
	failErr error
	indexFn func(i int) int
	next    int
}

func newSliceSource(fps float64, total int) *sliceSource {
	return &sliceSource{fps: fps, total: total, failAt: -1}
}

func (s *sliceSource) FrameRate() float64 { return s.fps }

func (s *sliceSource) Next(ctx context.Context) (Frame, error) {
	if s.next == s.failAt {
		return Frame{}, s.failErr
	}
	if s.next >= s.total {
		return Frame{}, io.EOF
	}
	idx := s.next
	if s.indexFn != nil {
		idx = s.indexFn(s.next)
	}
	s.next++
	return Frame{Index: idx, Width: 8, Height: 8, Pix: make([]byte, 8*8*3)}, nil
}

// indexHasher hashes a frame to testHash(frame.Index).
type indexHasher struct {
	quality int
	failAt  int // -1 disables
	calls   []int
}

func newIndexHasher(quality int) *indexHasher {
	return &indexHasher{quality: quality, failAt: -1}
}

func (h *indexHasher) HashFrame(frame Frame) (Hash256, int, error) {
	h.calls = append(h.calls, frame.Index)
	if frame.Index == h.failAt {
		return Hash256{}, 0, ErrUnhashableFrame
	}
	return testHash(frame.Index), h.quality, nil
}

var errDecode = errors.New("decode error")
