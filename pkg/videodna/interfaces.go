package videodna

import (
	"context"

	"github.com/himanishpuri/VideoDNA/pkg/models"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/video"
)

type Service interface {
	HashVideo(ctx context.Context, videoPath string) (fingerprint.Sequence, *video.Metadata, error)
	AddVideo(ctx context.Context, videoPath, title, youtubeID string) (string, error)
	AddSequence(ctx context.Context, title, sourcePath, youtubeID string, info models.VideoInfo, seq fingerprint.Sequence) (string, error)
	MatchVideo(ctx context.Context, videoPath string) ([]models.MatchResult, error)
	MatchSequence(ctx context.Context, seq fingerprint.Sequence) ([]models.MatchResult, error)
	GetVideoByID(videoID string) (*models.Video, error)
	ListVideos() ([]models.Video, error)
	DeleteVideo(videoID string) error
	Close() error
}

type Storage interface {
	RegisterVideo(title, sourcePath, youtubeID string, info models.VideoInfo) (string, error)
	StoreSequence(videoID string, seq fingerprint.Sequence) error
	LoadSequence(videoID string) (fingerprint.Sequence, error)
	GetVideoByID(videoID string) (*models.Video, error)
	ListVideos() ([]models.Video, error)
	CountHashes(videoID string) (int64, error)
	DeleteVideoByID(videoID string) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// VideoSource is a decoder the service can hash from and must close.
type VideoSource interface {
	fingerprint.FrameSource
	Metadata() *video.Metadata
	Close() error
}

type SourceOpener func(ctx context.Context, videoPath string, cfg video.SourceConfig) (VideoSource, error)

func openFFmpeg(ctx context.Context, videoPath string, cfg video.SourceConfig) (VideoSource, error) {
	src, err := video.OpenFrameSource(ctx, videoPath, cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}
