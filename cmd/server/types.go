//go:build !js && !wasm

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/himanishpuri/VideoDNA/pkg/models"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/hashio"
)

// Record limits for client-supplied sequences.
const (
	// MaxRecordsHardLimit is about 14 hours at one hash per second.
	MaxRecordsHardLimit = 50000

	// RecordWarningThreshold triggers logging for large query sequences
	RecordWarningThreshold = 10000
)

const (
	CompareModeByLine = "byline"
	CompareModeBrute  = "brute"
)

func validateRecords(field string, records []hashio.JSONRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if len(records) > MaxRecordsHardLimit {
		return fmt.Errorf("too many records in %s: %d (maximum: %d)", field, len(records), MaxRecordsHardLimit)
	}
	return nil
}

// MatchHashesRequest is the request body for POST /api/match/hashes
type MatchHashesRequest struct {
	Records []hashio.JSONRecord `json:"records"`
}

func (r *MatchHashesRequest) Validate() error {
	return validateRecords("records", r.Records)
}

// CompareRequest is the request body for POST /api/compare. Tolerances
// left out use the server defaults.
type CompareRequest struct {
	Mode              string              `json:"mode"`
	Query             []hashio.JSONRecord `json:"query"`
	Target            []hashio.JSONRecord `json:"target"`
	DistanceTolerance *int                `json:"distance_tolerance,omitempty"`
	QualityTolerance  *int                `json:"quality_tolerance,omitempty"`
}

func (r *CompareRequest) Validate() error {
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	if r.Mode == "" {
		r.Mode = CompareModeBrute
	}
	var errs []error
	if r.Mode != CompareModeByLine && r.Mode != CompareModeBrute {
		errs = append(errs, fmt.Errorf("mode must be %q or %q, got %q", CompareModeByLine, CompareModeBrute, r.Mode))
	}
	if err := validateRecords("query", r.Query); err != nil {
		errs = append(errs, err)
	}
	if err := validateRecords("target", r.Target); err != nil {
		errs = append(errs, err)
	}
	if r.DistanceTolerance != nil && *r.DistanceTolerance < 0 {
		errs = append(errs, fmt.Errorf("distance_tolerance must be non-negative, got %d", *r.DistanceTolerance))
	}
	if r.QualityTolerance != nil && (*r.QualityTolerance < 0 || *r.QualityTolerance > 100) {
		errs = append(errs, fmt.Errorf("quality_tolerance must be in [0,100], got %d", *r.QualityTolerance))
	}
	return errors.Join(errs...)
}

// CompareResponse carries the percentages of one comparison. By-line
// comparisons fill Percentage, brute comparisons fill the directional fields.
type CompareResponse struct {
	Mode             string   `json:"mode"`
	Percentage       *float64 `json:"percentage,omitempty"`
	MatchCount       *int     `json:"match_count,omitempty"`
	Compared         *int     `json:"compared,omitempty"`
	Skipped          *int     `json:"skipped,omitempty"`
	QueryPercentage  *float64 `json:"query_percentage,omitempty"`
	TargetPercentage *float64 `json:"target_percentage,omitempty"`
}

// MatchResponse is the response for file and hash based matching
type MatchResponse struct {
	Matches []MatchResultDTO `json:"matches"`
	Count   int              `json:"count"`
}

// MatchResultDTO represents a single match result
type MatchResultDTO struct {
	VideoID          string  `json:"video_id"`
	Title            string  `json:"title"`
	YouTubeID        string  `json:"youtube_id,omitempty"`
	QueryPercentage  float64 `json:"query_percentage"`
	TargetPercentage float64 `json:"target_percentage"`
	QueryMatched     int     `json:"query_matched"`
	QueryEligible    int     `json:"query_eligible"`
	TargetMatched    int     `json:"target_matched"`
	TargetEligible   int     `json:"target_eligible"`
}

func toMatchDTOs(matches []models.MatchResult) []MatchResultDTO {
	out := make([]MatchResultDTO, len(matches))
	for i, m := range matches {
		out[i] = MatchResultDTO{
			VideoID:          m.VideoID,
			Title:            m.Title,
			YouTubeID:        m.YouTubeID,
			QueryPercentage:  m.QueryPercentage,
			TargetPercentage: m.TargetPercentage,
			QueryMatched:     m.QueryMatched,
			QueryEligible:    m.QueryEligible,
			TargetMatched:    m.TargetMatched,
			TargetEligible:   m.TargetEligible,
		}
	}
	return out
}

// AddVideoYouTubeRequest is the request body for POST /api/videos/youtube
type AddVideoYouTubeRequest struct {
	YouTubeURL string `json:"youtube_url"`

	// Title is optional; the YouTube title is used when empty.
	Title string `json:"title,omitempty"`
}

func (r *AddVideoYouTubeRequest) Validate() error {
	if strings.TrimSpace(r.YouTubeURL) == "" {
		return errors.New("youtube_url is required")
	}
	return nil
}

// AddVideoResponse is the response for a successful video addition
type AddVideoResponse struct {
	Message string   `json:"message"`
	Video   VideoDTO `json:"video"`
}

// VideoDTO represents a library video in API responses
type VideoDTO struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	YouTubeID      string  `json:"youtube_id,omitempty"`
	FrameRate      float64 `json:"frame_rate"`
	SecondsPerHash float64 `json:"seconds_per_hash"`
	DurationMs     int     `json:"duration_ms"`
	HashCount      int     `json:"hash_count"`
	CreatedAt      string  `json:"created_at"`
}

func toVideoDTO(v models.Video) VideoDTO {
	return VideoDTO{
		ID:             v.ID,
		Title:          v.Title,
		YouTubeID:      v.YouTubeID,
		FrameRate:      v.FrameRate,
		SecondsPerHash: v.SecondsPerHash,
		DurationMs:     v.DurationMs,
		HashCount:      v.HashCount,
		CreatedAt:      v.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ListVideosResponse is the response for GET /api/videos
type ListVideosResponse struct {
	Videos []VideoDTO `json:"videos"`
	Count  int        `json:"count"`
}

// DeleteVideoResponse is the response for DELETE /api/videos/{id}
type DeleteVideoResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status         string  `json:"status"`
	DatabasePath   string  `json:"database_path"`
	VideoCount     int     `json:"video_count"`
	HashCount      int     `json:"hash_count"`
	SecondsPerHash float64 `json:"seconds_per_hash"`
	MatchThreshold float64 `json:"match_threshold"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
	Kind    string `json:"kind,omitempty"`
}
