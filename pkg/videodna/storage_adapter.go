package videodna

import (
	"fmt"

	"github.com/himanishpuri/VideoDNA/pkg/models"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/storage"
)

// ErrVideoNotFound is returned for ids that are not in the library.
var ErrVideoNotFound = storage.ErrVideoNotFound

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterVideo(title, sourcePath, youtubeID string, info models.VideoInfo) (string, error) {
	return s.db.RegisterVideo(title, sourcePath, youtubeID, info)
}

func (s *storageAdapter) StoreSequence(videoID string, seq fingerprint.Sequence) error {
	return s.db.StoreSequence(videoID, seq)
}

// LoadSequence re-validates rows read back from disk; a hand-edited or
// corrupted database must not reach the matchers.
func (s *storageAdapter) LoadSequence(videoID string) (fingerprint.Sequence, error) {
	seq, err := s.db.LoadSequence(videoID)
	if err != nil {
		return nil, err
	}
	if err := seq.Validate(); err != nil {
		return nil, fmt.Errorf("stored sequence for video %s: %w", videoID, err)
	}
	return seq, nil
}

func (s *storageAdapter) GetVideoByID(videoID string) (*models.Video, error) {
	return s.db.GetVideoByID(videoID)
}

func (s *storageAdapter) ListVideos() ([]models.Video, error) {
	return s.db.ListVideos()
}

func (s *storageAdapter) CountHashes(videoID string) (int64, error) {
	return s.db.CountHashes(videoID)
}

func (s *storageAdapter) DeleteVideoByID(videoID string) error {
	return s.db.DeleteVideoByID(videoID)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
