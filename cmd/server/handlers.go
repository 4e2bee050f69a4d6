//go:build !js && !wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/VideoDNA/pkg/logger"
	"github.com/himanishpuri/VideoDNA/pkg/models"
	"github.com/himanishpuri/VideoDNA/pkg/utils"
	"github.com/himanishpuri/VideoDNA/pkg/videodna"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/hashio"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/video"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service videodna.Service
	config  *ServerConfig
	log     videodna.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr              string
	DBPath            string
	TempDir           string
	MaxUploadBytes    int64
	SecondsPerHash    float64
	DistanceTolerance int
	QualityTolerance  int
	MatchThreshold    float64
	AllowedOrigins    []string
	LogRequests       bool
}

// NewServer creates a new server instance
func NewServer(service videodna.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondServiceError maps library and matcher errors onto HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, action string, err error) {
	status, kind := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorf("Failed to %s: %v", action, err)
	} else {
		s.log.Warnf("Failed to %s: %v", action, err)
	}
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: fmt.Sprintf("Failed to %s: %v", action, err),
		Code:    status,
		Kind:    kind,
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, videodna.ErrVideoNotFound):
		return http.StatusNotFound, "video_not_found"
	case errors.Is(err, fingerprint.ErrLengthMismatch):
		return http.StatusUnprocessableEntity, "length_mismatch"
	case errors.Is(err, fingerprint.ErrNoComparablePairs):
		return http.StatusUnprocessableEntity, "no_comparable_pairs"
	case errors.Is(err, fingerprint.ErrNoEligibleRecords):
		return http.StatusUnprocessableEntity, "no_eligible_records"
	case errors.Is(err, fingerprint.ErrUnhashableFrame):
		return http.StatusUnprocessableEntity, "unhashable_frame"
	case errors.Is(err, fingerprint.ErrSourceFailure):
		return http.StatusUnprocessableEntity, "source_failure"
	case errors.Is(err, videodna.ErrEmptySequence):
		return http.StatusUnprocessableEntity, "empty_sequence"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, ""
	}
}

// decodeJSON reads a size-limited JSON body, rejecting unknown fields.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.log.Warnf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "VideoDNA API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":          "GET /health",
			"metrics":         "GET /api/health/metrics",
			"videos":          "GET /api/videos",
			"addVideoFile":    "POST /api/videos",
			"addVideoYouTube": "POST /api/videos/youtube",
			"getVideo":        "GET /api/videos/{id}",
			"deleteVideo":     "DELETE /api/videos/{id}",
			"matchFile":       "POST /api/match",
			"matchHashes":     "POST /api/match/hashes",
			"compare":         "POST /api/compare",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	videos, err := s.service.ListVideos()
	if err != nil {
		s.log.Errorf("Failed to get video count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	hashes := 0
	for _, v := range videos {
		hashes += v.HashCount
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:         "healthy",
		DatabasePath:   s.config.DBPath,
		VideoCount:     len(videos),
		HashCount:      hashes,
		SecondsPerHash: s.config.SecondsPerHash,
		MatchThreshold: s.config.MatchThreshold,
	})
}

// handleListVideos handles GET /api/videos
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.service.ListVideos()
	if err != nil {
		s.respondServiceError(w, "list videos", err)
		return
	}

	dtos := make([]VideoDTO, len(videos))
	for i, v := range videos {
		dtos[i] = toVideoDTO(v)
	}
	s.respondJSON(w, http.StatusOK, ListVideosResponse{
		Videos: dtos,
		Count:  len(dtos),
	})
}

// handleGetVideo handles GET /api/videos/{id}
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request, videoID string) {
	v, err := s.service.GetVideoByID(videoID)
	if err != nil {
		s.respondServiceError(w, "get video "+videoID, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toVideoDTO(*v))
}

// handleDeleteVideo handles DELETE /api/videos/{id}
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request, videoID string) {
	if err := s.service.DeleteVideo(videoID); err != nil {
		s.respondServiceError(w, "delete video "+videoID, err)
		return
	}

	s.log.Infof("Deleted video ID=%s", videoID)
	s.respondJSON(w, http.StatusOK, DeleteVideoResponse{
		Message: "Video deleted successfully",
		ID:      videoID,
	})
}

// saveUpload copies the multipart "video" field into the temp directory.
// The caller removes the returned file.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, prefix string) (string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.Warnf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return "", "", false
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "video file is required")
		return "", "", false
	}
	defer file.Close()

	if err := utils.MakeDir(s.config.TempDir); err != nil {
		s.log.Errorf("Failed to create temp dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return "", "", false
	}
	out, err := os.CreateTemp(s.config.TempDir, prefix+"_*"+filepath.Ext(header.Filename))
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return "", "", false
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(out.Name())
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return "", "", false
	}
	return out.Name(), header.Filename, true
}

// handleAddVideoFile handles POST /api/videos (multipart file upload)
func (s *Server) handleAddVideoFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	tempFile, filename, ok := s.saveUpload(w, r, "upload")
	if !ok {
		return
	}
	defer os.Remove(tempFile)

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	s.log.Infof("Adding video from upload: %s", filename)
	videoID, err := s.service.AddVideo(ctx, tempFile, title, r.FormValue("youtube_id"))
	if err != nil {
		s.respondServiceError(w, "add video", err)
		return
	}
	s.respondAdded(w, videoID, "Video added successfully")
}

// handleAddVideoYouTube handles POST /api/videos/youtube
func (s *Server) handleAddVideoYouTube(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Minute)
	defer cancel()

	var req AddVideoYouTubeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !utils.IsYouTubeURL(req.YouTubeURL) {
		s.respondError(w, http.StatusBadRequest, "youtube_url is not a YouTube video URL")
		return
	}

	s.log.Infof("Adding video from YouTube URL: %s", req.YouTubeURL)
	downloadedPath, ytMeta, err := video.DownloadYouTubeVideo(ctx, req.YouTubeURL, s.config.TempDir)
	if err != nil {
		s.log.Errorf("Failed to download YouTube video: %v", err)
		s.respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to download YouTube video: %v", err))
		return
	}
	defer os.Remove(downloadedPath)

	title := req.Title
	if title == "" {
		title = ytMeta.Title
	}
	youtubeID := ytMeta.ID
	if youtubeID == "" {
		if id, err := utils.ExtractYouTubeID(req.YouTubeURL); err == nil {
			youtubeID = id
		}
	}

	videoID, err := s.service.AddVideo(ctx, downloadedPath, title, youtubeID)
	if err != nil {
		s.respondServiceError(w, "add video", err)
		return
	}
	s.respondAdded(w, videoID, "Video added successfully from YouTube")
}

func (s *Server) respondAdded(w http.ResponseWriter, videoID, message string) {
	v, err := s.service.GetVideoByID(videoID)
	if err != nil {
		s.respondServiceError(w, "load added video", err)
		return
	}
	s.log.Infof("Successfully added video %q (ID: %s)", v.Title, v.ID)
	s.respondJSON(w, http.StatusCreated, AddVideoResponse{
		Message: message,
		Video:   toVideoDTO(*v),
	})
}

// handleMatchFile handles POST /api/match (multipart file upload)
func (s *Server) handleMatchFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	tempFile, filename, ok := s.saveUpload(w, r, "query")
	if !ok {
		return
	}
	defer os.Remove(tempFile)

	s.log.Infof("Matching uploaded file: %s", filename)
	matches, err := s.service.MatchVideo(ctx, tempFile)
	if err != nil {
		s.respondServiceError(w, "match video", err)
		return
	}
	s.respondMatches(w, matches)
}

// handleMatchHashes handles POST /api/match/hashes (sequences hashed client side)
func (s *Server) handleMatchHashes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req MatchHashesRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	seq, err := hashio.FromJSON(req.Records)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(seq) >= RecordWarningThreshold {
		s.log.Warnf("Large query sequence received: %d records", len(seq))
	}

	matches, err := s.service.MatchSequence(ctx, seq)
	if err != nil {
		s.respondServiceError(w, "match hashes", err)
		return
	}
	s.respondMatches(w, matches)
}

func (s *Server) respondMatches(w http.ResponseWriter, matches []models.MatchResult) {
	s.log.Infof("Match complete: found %d matches", len(matches))
	s.respondJSON(w, http.StatusOK, MatchResponse{
		Matches: toMatchDTOs(matches),
		Count:   len(matches),
	})
}

// handleCompare handles POST /api/compare, comparing two client sequences
// without touching the library.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req CompareRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query, err := hashio.FromJSON(req.Query)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "query: "+err.Error())
		return
	}
	target, err := hashio.FromJSON(req.Target)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "target: "+err.Error())
		return
	}

	dTol, qTol := s.config.DistanceTolerance, s.config.QualityTolerance
	if req.DistanceTolerance != nil {
		dTol = *req.DistanceTolerance
	}
	if req.QualityTolerance != nil {
		qTol = *req.QualityTolerance
	}

	resp := CompareResponse{Mode: req.Mode}
	switch req.Mode {
	case CompareModeByLine:
		res, err := fingerprint.MatchByLine(query, target, dTol, qTol)
		if err != nil {
			s.respondServiceError(w, "compare", err)
			return
		}
		resp.Percentage = &res.Percentage
		resp.MatchCount = &res.MatchCount
		resp.Compared = &res.TotalCompared
		resp.Skipped = &res.Skipped
	default:
		res, err := fingerprint.MatchBrute(query, target, dTol, qTol)
		if err != nil {
			s.respondServiceError(w, "compare", err)
			return
		}
		resp.QueryPercentage = &res.QueryPercentage
		resp.TargetPercentage = &res.TargetPercentage
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleVideos routes requests to /api/videos
func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListVideos(w, r)
	case http.MethodPost:
		s.handleAddVideoFile(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleVideo routes requests to /api/videos/{id}
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/videos/"), "/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Video ID required")
		return
	}
	if !utils.IsUUID(id) {
		s.respondError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetVideo(w, r, id)
	case http.MethodDelete:
		s.handleDeleteVideo(w, r, id)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleMatch routes requests to /api/match
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleMatchFile(w, r)
}

// handleMatchHashesRoute routes requests to /api/match/hashes
func (s *Server) handleMatchHashesRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleMatchHashes(w, r)
}
