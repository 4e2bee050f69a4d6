package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
)

// SourceConfig controls the size of decoded frames. Zero width or height
// keeps the native dimension reported by the probe.
type SourceConfig struct {
	Width  int
	Height int
}

// FFmpegSource streams raw RGB24 frames out of an ffmpeg child process.
// It implements fingerprint.FrameSource.
type FFmpegSource struct {
	meta   *Metadata
	width  int
	height int

	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr bytes.Buffer

	next int
	done chan struct{}

	closeOnce sync.Once
	waitOnce  sync.Once
	waitErr   error
}

func init() {
	ffmpeg.LogCompiledCommand = false
}

// OpenFrameSource probes path and starts decoding it. The caller must Close
// the returned source on every path.
func OpenFrameSource(ctx context.Context, path string, cfg SourceConfig) (*FFmpegSource, error) {
	meta, err := Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fingerprint.ErrSourceFailure, err)
	}
	return openWithMetadata(ctx, path, meta, cfg)
}

func openWithMetadata(ctx context.Context, path string, meta *Metadata, cfg SourceConfig) (*FFmpegSource, error) {
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = meta.Width
	}
	if height <= 0 {
		height = meta.Height
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: unknown frame size for %s", fingerprint.ErrSourceFailure, path)
	}

	cmd := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": "rgb24",
			"s":       fmt.Sprintf("%dx%d", width, height),
			"vsync":   "passthrough",
			"an":      "",
			"sn":      "",
		}).
		GlobalArgs("-loglevel", "error", "-nostdin").
		Compile()

	src := &FFmpegSource{
		meta:   meta,
		width:  width,
		height: height,
		cmd:    cmd,
		done:   make(chan struct{}),
	}
	cmd.Stderr = &src.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fingerprint.ErrSourceFailure, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting ffmpeg: %w", fingerprint.ErrSourceFailure, err)
	}
	src.stdout = stdout
	src.reader = bufio.NewReaderSize(stdout, width*height*3)

	go func() {
		select {
		case <-ctx.Done():
			src.kill()
		case <-src.done:
		}
	}()

	return src, nil
}

func (s *FFmpegSource) Metadata() *Metadata { return s.meta }

func (s *FFmpegSource) FrameRate() float64 { return s.meta.FrameRate }

// Next reads the next frame. It returns io.EOF after the last complete frame.
func (s *FFmpegSource) Next(ctx context.Context) (fingerprint.Frame, error) {
	if err := ctx.Err(); err != nil {
		return fingerprint.Frame{}, fmt.Errorf("%w: %w", fingerprint.ErrSourceFailure, err)
	}

	pix := make([]byte, s.width*s.height*3)
	n, err := io.ReadFull(s.reader, pix)
	switch {
	case err == nil:
		frame := fingerprint.Frame{Index: s.next, Width: s.width, Height: s.height, Pix: pix}
		s.next++
		return frame, nil
	case errors.Is(err, io.EOF):
		if werr := s.wait(); werr != nil {
			return fingerprint.Frame{}, s.failure(werr)
		}
		return fingerprint.Frame{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.wait()
		return fingerprint.Frame{}, fmt.Errorf("%w: truncated frame %d (%d of %d bytes)", fingerprint.ErrSourceFailure, s.next, n, len(pix))
	default:
		s.kill()
		s.wait()
		return fingerprint.Frame{}, s.failure(err)
	}
}

// Close stops the decoder and releases the process. Safe to call repeatedly.
func (s *FFmpegSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.kill()
		s.wait()
	})
	return nil
}

// kill is safe after the process has exited; os.Process reports that as an
// error which is ignored here.
func (s *FFmpegSource) kill() {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

func (s *FFmpegSource) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	return s.waitErr
}

func (s *FFmpegSource) failure(err error) error {
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return fmt.Errorf("%w: ffmpeg: %w", fingerprint.ErrSourceFailure, err)
	}
	return fmt.Errorf("%w: ffmpeg: %w (%s)", fingerprint.ErrSourceFailure, err, msg)
}
