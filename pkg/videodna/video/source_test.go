package video

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"testing"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH", bin)
		}
	}
}

// makeTestVideo renders a one-second 10fps test pattern.
func makeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pattern.mp4")
	err := ffmpeg.Input("testsrc=size=96x64:rate=10:duration=1", ffmpeg.KwArgs{"f": "lavfi"}).
		Output(path, ffmpeg.KwArgs{"pix_fmt": "yuv420p", "loglevel": "error"}).
		OverWriteOutput().
		Run()
	if err != nil {
		t.Skipf("cannot render test video: %v", err)
	}
	return path
}

func TestFFmpegSourceReadsAllFrames(t *testing.T) {
	requireFFmpeg(t)
	path := makeTestVideo(t)

	src, err := OpenFrameSource(context.Background(), path, SourceConfig{Width: 32, Height: 32})
	if err != nil {
		t.Fatalf("OpenFrameSource failed: %v", err)
	}
	defer src.Close()

	if src.FrameRate() != 10 {
		t.Errorf("Expected 10 fps, got %f", src.FrameRate())
	}

	count := 0
	for {
		frame, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed at frame %d: %v", count, err)
		}
		if frame.Index != count {
			t.Errorf("Expected frame index %d, got %d", count, frame.Index)
		}
		if frame.Width != 32 || frame.Height != 32 || len(frame.Pix) != 32*32*3 {
			t.Errorf("Unexpected frame geometry %dx%d (%d bytes)", frame.Width, frame.Height, len(frame.Pix))
		}
		count++
	}

	if count != 10 {
		t.Errorf("Expected 10 frames, got %d", count)
	}
}

func TestFFmpegSourceBuildsSequence(t *testing.T) {
	requireFFmpeg(t)
	path := makeTestVideo(t)

	src, err := OpenFrameSource(context.Background(), path, SourceConfig{Width: fingerprint.DownscaleDimension, Height: fingerprint.DownscaleDimension})
	if err != nil {
		t.Fatalf("OpenFrameSource failed: %v", err)
	}
	defer src.Close()

	seq, err := fingerprint.Build(context.Background(), src, fingerprint.NewPDQHasher(), 0.5)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(seq) != 2 {
		t.Fatalf("Expected 2 records at 0.5s per hash, got %d", len(seq))
	}
	if seq[0].FrameIndex != 0 || seq[1].FrameIndex != 5 {
		t.Errorf("Unexpected frame indices %d, %d", seq[0].FrameIndex, seq[1].FrameIndex)
	}
	if seq[0].Quality == 0 {
		t.Error("Expected test pattern to have non-zero quality")
	}
}

func TestFFmpegSourceCloseIsIdempotent(t *testing.T) {
	requireFFmpeg(t)
	path := makeTestVideo(t)

	src, err := OpenFrameSource(context.Background(), path, SourceConfig{})
	if err != nil {
		t.Fatalf("OpenFrameSource failed: %v", err)
	}
	if _, err := src.Next(context.Background()); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("First Close failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestFFmpegSourceCanceledContext(t *testing.T) {
	requireFFmpeg(t)
	path := makeTestVideo(t)

	ctx, cancel := context.WithCancel(context.Background())
	src, err := OpenFrameSource(ctx, path, SourceConfig{Width: 16, Height: 16})
	if err != nil {
		t.Fatalf("OpenFrameSource failed: %v", err)
	}
	defer src.Close()

	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, fingerprint.ErrSourceFailure) {
		t.Errorf("Expected ErrSourceFailure after cancel, got %v", err)
	}
}

func TestOpenFrameSourceMissingFile(t *testing.T) {
	requireFFmpeg(t)

	_, err := OpenFrameSource(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), SourceConfig{})
	if !errors.Is(err, fingerprint.ErrSourceFailure) {
		t.Errorf("Expected ErrSourceFailure, got %v", err)
	}
}
