package videodna

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/VideoDNA/pkg/logger"
	"github.com/himanishpuri/VideoDNA/pkg/models"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/video"
)

// ErrEmptySequence is returned when a video yields no hashes to store.
var ErrEmptySequence = errors.New("sequence has no records")

const lockRetryDelay = 100 * time.Millisecond

// videoService is the default implementation of the Service interface.
type videoService struct {
	storage Storage
	log     Logger
	config  *Config
	hasher  fingerprint.FrameHasher
	opener  SourceOpener
	lock    *flock.Flock
	writeMu sync.Mutex // flock does not exclude goroutines sharing one Flock
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Hasher == nil {
		cfg.Hasher = fingerprint.NewPDQHasher()
	}
	if cfg.Opener == nil {
		cfg.Opener = openFFmpeg
	}
	if cfg.LockPath == "" {
		cfg.LockPath = cfg.DBPath + ".lock"
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &videoService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
		hasher:  cfg.Hasher,
		opener:  cfg.Opener,
		lock:    flock.New(cfg.LockPath),
	}, nil
}

// HashVideo decodes a video and builds its fingerprint sequence.
func (s *videoService) HashVideo(ctx context.Context, videoPath string) (fingerprint.Sequence, *video.Metadata, error) {
	dim := s.config.DownsampleDimension
	src, err := s.opener(ctx, videoPath, video.SourceConfig{Width: dim, Height: dim})
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", videoPath, err)
	}
	defer src.Close()

	meta := src.Metadata()
	s.log.Infof("Hashing %s (%dx%d @ %.3f fps, %.1fs)", videoPath, meta.Width, meta.Height, meta.FrameRate, meta.DurationSec)

	start := time.Now()
	seq, err := fingerprint.BuildWithProgress(ctx, src, s.hasher, s.config.SecondsPerHash, func(rec fingerprint.Record) {
		s.log.Debugf("frame %d q=%d %s", rec.FrameIndex, rec.Quality, rec.Hash)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("hashing %s: %w", videoPath, err)
	}

	s.log.Infof("Hashed %d frames in %s", len(seq), time.Since(start).Round(time.Millisecond))
	return seq, meta, nil
}

// AddVideo hashes a video file and stores it in the library.
func (s *videoService) AddVideo(ctx context.Context, videoPath, title, youtubeID string) (string, error) {
	seq, meta, err := s.HashVideo(ctx, videoPath)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(title) == "" {
		title = meta.Title
	}
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	}

	info := models.VideoInfo{
		FrameRate:      meta.FrameRate,
		SecondsPerHash: s.config.SecondsPerHash,
		DurationMs:     int(meta.DurationSec * 1000),
		Width:          meta.Width,
		Height:         meta.Height,
	}
	return s.AddSequence(ctx, title, videoPath, youtubeID, info, seq)
}

// AddSequence stores an already built sequence. A video with the same title
// and source that already has hashes is returned as-is.
func (s *videoService) AddSequence(ctx context.Context, title, sourcePath, youtubeID string, info models.VideoInfo, seq fingerprint.Sequence) (string, error) {
	if len(seq) == 0 {
		return "", ErrEmptySequence
	}
	if err := seq.Validate(); err != nil {
		return "", fmt.Errorf("invalid sequence: %w", err)
	}

	var videoID string
	err := s.withWriteLock(ctx, func() error {
		id, err := s.storage.RegisterVideo(title, sourcePath, youtubeID, info)
		if err != nil {
			return fmt.Errorf("failed to register video: %w", err)
		}

		existing, err := s.storage.CountHashes(id)
		if err != nil {
			return fmt.Errorf("failed to count hashes: %w", err)
		}
		if existing > 0 {
			s.log.Infof("Video %q already indexed as %s (%d hashes)", title, id, existing)
			videoID = id
			return nil
		}

		if err := s.storage.StoreSequence(id, seq); err != nil {
			if delErr := s.storage.DeleteVideoByID(id); delErr != nil {
				s.log.Warnf("Rollback of video %s failed: %v", id, delErr)
			}
			return fmt.Errorf("failed to store hashes: %w", err)
		}
		videoID = id
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Infof("Successfully added video %q ID=%s with %d hashes", title, videoID, len(seq))
	return videoID, nil
}

// MatchVideo hashes a query video and searches the library for it.
func (s *videoService) MatchVideo(ctx context.Context, videoPath string) ([]models.MatchResult, error) {
	seq, _, err := s.HashVideo(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	return s.MatchSequence(ctx, seq)
}

// MatchSequence compares the query against every stored video with the
// exhaustive matcher. Videos without eligible frames are skipped. Results
// pass the threshold in both directions and are ordered by the weaker
// direction, best first.
func (s *videoService) MatchSequence(ctx context.Context, seq fingerprint.Sequence) ([]models.MatchResult, error) {
	q := s.config.QualityTolerance
	if seq.Eligible(q) == 0 {
		return nil, fmt.Errorf("%w: query has %d records, none at quality %d", fingerprint.ErrNoEligibleRecords, len(seq), q)
	}

	videos, err := s.storage.ListVideos()
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	s.log.Infof("Matching %d query hashes against %d videos", len(seq), len(videos))

	var (
		mu      sync.Mutex
		results = make([]models.MatchResult, 0)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for _, v := range videos {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, ok := s.matchOne(seq, v)
			if !ok {
				return nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b models.MatchResult) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return strings.Compare(a.Title, b.Title)
	})

	s.log.Infof("Returning %d matches", len(results))
	return results, nil
}

// matchOne reports whether video v matches the query above the threshold.
// Per-video failures are logged and skipped so one bad entry does not fail
// the whole search.
func (s *videoService) matchOne(query fingerprint.Sequence, v models.Video) (models.MatchResult, bool) {
	target, err := s.storage.LoadSequence(v.ID)
	if err != nil {
		s.log.Warnf("Failed to load hashes for video %s: %v", v.ID, err)
		return models.MatchResult{}, false
	}

	res, err := fingerprint.MatchBrute(query, target, s.config.DistanceTolerance, s.config.QualityTolerance)
	if err != nil {
		if errors.Is(err, fingerprint.ErrNoEligibleRecords) {
			s.log.Debugf("Skipping video %s: %v", v.ID, err)
		} else {
			s.log.Warnf("Matching video %s failed: %v", v.ID, err)
		}
		return models.MatchResult{}, false
	}

	s.log.Debugf("Video %s: query %.2f%% target %.2f%%", v.ID, res.QueryPercentage, res.TargetPercentage)
	if !res.IsMatch(s.config.MatchThreshold) {
		return models.MatchResult{}, false
	}

	return models.MatchResult{
		VideoID:          v.ID,
		Title:            v.Title,
		YouTubeID:        v.YouTubeID,
		QueryPercentage:  res.QueryPercentage,
		TargetPercentage: res.TargetPercentage,
		QueryMatched:     res.QueryMatched,
		QueryEligible:    res.QueryEligible,
		TargetMatched:    res.TargetMatched,
		TargetEligible:   res.TargetEligible,
	}, true
}

// GetVideoByID retrieves a video's metadata by its database ID.
func (s *videoService) GetVideoByID(videoID string) (*models.Video, error) {
	return s.storage.GetVideoByID(videoID)
}

// ListVideos returns all videos in the database.
func (s *videoService) ListVideos() ([]models.Video, error) {
	return s.storage.ListVideos()
}

// DeleteVideo removes a video and all its hashes from the database.
func (s *videoService) DeleteVideo(videoID string) error {
	return s.withWriteLock(context.Background(), func() error {
		return s.storage.DeleteVideoByID(videoID)
	})
}

// Close releases all resources held by the service.
func (s *videoService) Close() error {
	return s.storage.Close()
}

// withWriteLock serializes library writes across processes sharing the
// database file.
func (s *videoService) withWriteLock(ctx context.Context, fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", s.config.LockPath, err)
	}
	if !ok {
		return fmt.Errorf("acquire lock %s: not acquired", s.config.LockPath)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Warnf("Failed to release lock %s: %v", s.config.LockPath, err)
		}
	}()
	return fn()
}
