package models

import "time"

// MatchResult is one library video that matched a query in both directions.
type MatchResult struct {
	VideoID          string  // Database ID of the matched video (UUID)
	Title            string  // Video title
	YouTubeID        string  // YouTube video ID (if available)
	QueryPercentage  float64 // Share of eligible query frames found in the video
	TargetPercentage float64 // Share of eligible video frames found in the query
	QueryMatched     int
	QueryEligible    int
	TargetMatched    int
	TargetEligible   int
}

// Score is the weaker of the two directions; results are ranked by it.
func (m MatchResult) Score() float64 {
	return min(m.QueryPercentage, m.TargetPercentage)
}

// Video represents a video entry in the database.
type Video struct {
	ID             string    // Database ID (UUID)
	Title          string    // Video title
	SourcePath     string    // File the hashes were computed from
	YouTubeID      string    // YouTube video ID (if available)
	FrameRate      float64   // Decoded frames per second
	SecondsPerHash float64   // Sampling interval used when hashing
	DurationMs     int       // Duration in milliseconds
	HashCount      int       // Number of stored frame hashes
	CreatedAt      time.Time // Registration time
}
