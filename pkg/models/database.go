package models

// VideoInfo is the technical metadata stored alongside a video's hashes.
type VideoInfo struct {
	FrameRate      float64
	SecondsPerHash float64
	DurationMs     int
	Width          int
	Height         int
}
