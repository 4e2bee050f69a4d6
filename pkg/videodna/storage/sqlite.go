//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/VideoDNA/pkg/models"
	"github.com/himanishpuri/VideoDNA/pkg/utils"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
)

const DefaultDBFile = "videodna.sqlite3"
const errDBClientNil = "db client is nil"

const insertBatchSize = 500

var ErrVideoNotFound = errors.New("video not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Video struct {
	ID             string  `gorm:"primaryKey;type:varchar(36)"`
	Title          string  `gorm:"uniqueIndex:idx_video_unique,priority:1;index:idx_video_title" json:"title"`
	SourcePath     string  `gorm:"uniqueIndex:idx_video_unique,priority:2" json:"source_path"`
	YouTubeID      string  `gorm:"index:idx_youtube_id" json:"youtube_id"`
	FrameRate      float64 `json:"frame_rate"`
	SecondsPerHash float64 `json:"seconds_per_hash"`
	DurationMs     int     `json:"duration_ms"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CreatedAt      time.Time
}

type FrameHash struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	VideoID    string  `gorm:"type:varchar(36);index:idx_video_frame,priority:1" json:"video_id"`
	FrameIndex int     `gorm:"index:idx_video_frame,priority:2" json:"frame_index"`
	Quality    int     `json:"quality"`
	Hash       string  `gorm:"type:char(64);index:idx_hash" json:"hash"`
	Timestamp  float64 `json:"timestamp"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("VIDEODNA_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Video{}, &FrameHash{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterVideo returns the id of the video with this title and source path,
// creating it when absent. An existing row gains a YouTube id if it had none.
func (c *DBClient) RegisterVideo(title, sourcePath, youtubeID string, info models.VideoInfo) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	var video Video

	err := c.DB.Where("title = ? AND source_path = ?", title, sourcePath).First(&video).Error
	if err == nil {
		if video.YouTubeID == "" && youtubeID != "" {
			if err := c.DB.Model(&video).Update("YouTubeID", youtubeID).Error; err != nil {
				return "", fmt.Errorf("updating youtube_id: %w", err)
			}
		}
		return video.ID, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing video: %w", err)
	}

	video = Video{
		ID:             utils.GenerateUUID(),
		Title:          title,
		SourcePath:     sourcePath,
		YouTubeID:      youtubeID,
		FrameRate:      info.FrameRate,
		SecondsPerHash: info.SecondsPerHash,
		DurationMs:     info.DurationMs,
		Width:          info.Width,
		Height:         info.Height,
	}
	if err := c.DB.Create(&video).Error; err != nil {
		if isConstraintViolation(err) {
			if fetchErr := c.DB.Where("title = ? AND source_path = ?", title, sourcePath).First(&video).Error; fetchErr != nil {
				return "", fmt.Errorf("fetching video after constraint violation: %w", fetchErr)
			}
			return video.ID, nil
		}
		return "", fmt.Errorf("creating video: %w", err)
	}

	return video.ID, nil
}

func isConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "constraint failed")
}

// StoreSequence inserts all records of seq for videoID in one transaction.
func (c *DBClient) StoreSequence(videoID string, seq fingerprint.Sequence) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if len(seq) == 0 {
		return nil
	}

	rows := make([]FrameHash, len(seq))
	for i, rec := range seq {
		rows[i] = FrameHash{
			VideoID:    videoID,
			FrameIndex: rec.FrameIndex,
			Quality:    rec.Quality,
			Hash:       rec.Hash.String(),
			Timestamp:  rec.Timestamp,
		}
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("batch insert frame hashes: %w", err)
		}
		return nil
	})
}

// LoadSequence returns the stored sequence of a video ordered by frame index.
func (c *DBClient) LoadSequence(videoID string) (fingerprint.Sequence, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []FrameHash
	if err := c.DB.Where("video_id = ?", videoID).Order("frame_index").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying frame hashes: %w", err)
	}

	seq := make(fingerprint.Sequence, len(rows))
	for i, r := range rows {
		hash, err := fingerprint.ParseHash256(r.Hash)
		if err != nil {
			return nil, fmt.Errorf("video %s frame %d: %w", videoID, r.FrameIndex, err)
		}
		seq[i] = fingerprint.Record{
			Hash:       hash,
			FrameIndex: r.FrameIndex,
			Quality:    r.Quality,
			Timestamp:  r.Timestamp,
		}
	}
	return seq, nil
}

func (c *DBClient) GetVideoByID(videoID string) (*models.Video, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var video Video
	if err := c.DB.Where("id = ?", videoID).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
		}
		return nil, fmt.Errorf("querying video: %w", err)
	}

	count, err := c.CountHashes(videoID)
	if err != nil {
		return nil, err
	}

	out := toModel(video)
	out.HashCount = int(count)
	return &out, nil
}

// ListVideos returns all videos, oldest first, with their hash counts.
func (c *DBClient) ListVideos() ([]models.Video, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var videos []Video
	if err := c.DB.Order("created_at, title").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}

	type countRow struct {
		VideoID string
		N       int
	}
	var counts []countRow
	if err := c.DB.Model(&FrameHash{}).Select("video_id, count(*) as n").Group("video_id").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("counting frame hashes: %w", err)
	}
	byVideo := make(map[string]int, len(counts))
	for _, r := range counts {
		byVideo[r.VideoID] = r.N
	}

	out := make([]models.Video, len(videos))
	for i, v := range videos {
		out[i] = toModel(v)
		out[i].HashCount = byVideo[v.ID]
	}
	return out, nil
}

func (c *DBClient) CountHashes(videoID string) (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&FrameHash{}).Where("video_id = ?", videoID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting frame hashes: %w", err)
	}
	return count, nil
}

func (c *DBClient) DeleteVideoByID(videoID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", videoID).Delete(&FrameHash{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", videoID).Delete(&Video{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
		}
		return nil
	})
}

func toModel(v Video) models.Video {
	return models.Video{
		ID:             v.ID,
		Title:          v.Title,
		SourcePath:     v.SourcePath,
		YouTubeID:      v.YouTubeID,
		FrameRate:      v.FrameRate,
		SecondsPerHash: v.SecondsPerHash,
		DurationMs:     v.DurationMs,
		CreatedAt:      v.CreatedAt,
	}
}
