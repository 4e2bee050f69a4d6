package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const defaultProbeTimeout = 10 * time.Second

type Metadata struct {
	Filename    string
	Title       string
	Width       int
	Height      int
	FrameRate   float64
	FrameCount  int
	DurationSec float64
	Codec       string
	Format      string
}

type ffprobeOutput struct {
	Format struct {
		Filename string            `json:"filename"`
		Duration string            `json:"duration"`
		Format   string            `json:"format_name"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

func (p *ffprobeOutput) firstVideoStream() *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

// Probe reads stream metadata with ffprobe. Without a deadline on ctx the
// probe is bounded by a default timeout.
func Probe(ctx context.Context, path string) (*Metadata, error) {
	timeout := defaultProbeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	out, err := ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{"v": "quiet"})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseProbe(path, []byte(out))
}

func parseProbe(path string, raw []byte) (*Metadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	stream := probe.firstVideoStream()
	if stream == nil {
		return nil, errors.New("no video stream found")
	}

	fps, err := ParseFrameRate(stream.AvgFrameRate)
	if err != nil {
		fps, err = ParseFrameRate(stream.RFrameRate)
		if err != nil {
			return nil, fmt.Errorf("no usable frame rate: %w", err)
		}
	}

	duration, _ := strconv.ParseFloat(probe.Format.Duration, 64)
	if duration == 0 {
		duration, _ = strconv.ParseFloat(stream.Duration, 64)
	}
	frames, _ := strconv.Atoi(stream.NbFrames)

	meta := &Metadata{
		Filename:    filepath.Base(path),
		Width:       stream.Width,
		Height:      stream.Height,
		FrameRate:   fps,
		FrameCount:  frames,
		DurationSec: duration,
		Codec:       stream.CodecName,
		Format:      probe.Format.Format,
	}
	if probe.Format.Tags != nil {
		meta.Title = probe.Format.Tags["title"]
	}

	return meta, nil
}

// ParseFrameRate parses ffprobe rates such as "30000/1001" or "25".
func ParseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty frame rate")
	}

	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
	}
	d := 1.0
	if found {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
		}
	}

	if d == 0 || n <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	return n / d, nil
}
