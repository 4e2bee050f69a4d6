package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/himanishpuri/VideoDNA/pkg/utils"
)

// maxDownloadHeight caps downloads; frames are downscaled before hashing anyway.
const maxDownloadHeight = 720

// YTMetadata contains metadata extracted from YouTube video
type YTMetadata struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	Duration   float64 `json:"duration"`
	WebpageURL string  `json:"webpage_url"`
	Ext        string  `json:"ext"`
}

// Author returns the best available channel name.
func (m YTMetadata) Author() string {
	if strings.TrimSpace(m.Channel) != "" {
		return m.Channel
	}
	if strings.TrimSpace(m.Uploader) != "" {
		return m.Uploader
	}
	return "Unknown"
}

func DownloadYouTubeVideo(ctx context.Context, youtubeURL string, outputDir string) (videoPath string, metadata *YTMetadata, err error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Step 1: metadata only
	metaRes, err := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		SkipDownload().
		DumpSingleJSON().
		Run(ctx, youtubeURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, fmt.Errorf("yt-dlp metadata extraction failed: %w", err)
	}

	ytMeta, err := parseYTMetadata([]byte(metaRes.Stdout))
	if err != nil {
		return "", nil, err
	}

	// Step 2: video download, muxed with audio when available
	outputTemplate := filepath.Join(outputDir, fmt.Sprintf("%s.%%(ext)s", ytMeta.ID))
	format := fmt.Sprintf("bv*[height<=%[1]d]+ba/b[height<=%[1]d]/b", maxDownloadHeight)

	_, err = ytdlp.New().
		NoPlaylist().
		NoWarnings().
		Format(format).
		Output(outputTemplate).
		Run(ctx, youtubeURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	// Step 3: the merged extension is only known after the download
	downloadedPath := findDownloaded(outputDir, ytMeta.ID)
	if downloadedPath == "" {
		return "", nil, fmt.Errorf("downloaded video file not found for video %s in %s", ytMeta.ID, outputDir)
	}

	return downloadedPath, ytMeta, nil
}

func parseYTMetadata(raw []byte) (*YTMetadata, error) {
	var ytMeta YTMetadata
	if err := json.Unmarshal(raw, &ytMeta); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp JSON: %w", err)
	}
	if strings.TrimSpace(ytMeta.ID) == "" {
		return nil, fmt.Errorf("missing video ID in yt-dlp output")
	}
	if strings.TrimSpace(ytMeta.Title) == "" {
		return nil, fmt.Errorf("missing title in yt-dlp output")
	}
	return &ytMeta, nil
}

var videoExtensions = []string{".mp4", ".webm", ".mkv", ".mov", ".flv"}

func findDownloaded(dir, id string) string {
	for _, ext := range videoExtensions {
		candidate := filepath.Join(dir, id+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
