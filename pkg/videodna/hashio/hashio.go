// Package hashio reads and writes fingerprint sequences in the plain text
// hash-file format, one record per line:
//
//	<frameIndex>,<quality>,<hex256>,<timestamp>
package hashio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/himanishpuri/VideoDNA/pkg/utils"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
)

const fieldCount = 4

func Write(w io.Writer, seq fingerprint.Sequence) error {
	bw := bufio.NewWriter(w)
	for _, rec := range seq {
		if _, err := fmt.Fprintf(bw, "%d,%d,%s,%.3f\n", rec.FrameIndex, rec.Quality, rec.Hash, rec.Timestamp); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes seq to path through a temporary file in the same
// directory, so readers never observe a partial file.
func WriteFile(path string, seq fingerprint.Sequence) error {
	dir := filepath.Dir(path)
	if err := utils.MakeDir(dir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Write(tmp, seq); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write hashes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write hashes: %w", err)
	}

	return utils.MoveFile(tmpPath, path)
}

// Read parses a hash file. Blank lines are ignored; the first malformed
// line aborts with its line number.
func Read(r io.Reader) (fingerprint.Sequence, error) {
	seq := make(fingerprint.Sequence, 0)
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		seq = append(seq, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return seq, nil
}

func ReadFile(path string) (fingerprint.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seq, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seq, nil
}

func parseLine(line string) (fingerprint.Record, error) {
	parts := strings.Split(line, ",")
	if len(parts) != fieldCount {
		return fingerprint.Record{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(parts))
	}

	frameIndex, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return fingerprint.Record{}, fmt.Errorf("invalid frame number: %w", err)
	}
	quality, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return fingerprint.Record{}, fmt.Errorf("invalid quality: %w", err)
	}
	hash, err := fingerprint.ParseHash256(parts[2])
	if err != nil {
		return fingerprint.Record{}, err
	}
	timestamp, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return fingerprint.Record{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	return fingerprint.Record{
		Hash:       hash,
		FrameIndex: frameIndex,
		Quality:    quality,
		Timestamp:  timestamp,
	}, nil
}

// OutputPath maps a video to <outputDir>/<name-without-extension>.txt.
func OutputPath(inputVideo, outputDir string) string {
	base := filepath.Base(inputVideo)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, name+".txt")
}
