package hashio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
)

const (
	hashA = "f8f8f0cee0f4a84f06370a22038f63f0b36e2ed596621e1d33e6b39c4e9c9b22"
	hashB = "0000000000000000000000000000000000000000000000000000000000000001"
)

func sampleSequence(t *testing.T) fingerprint.Sequence {
	t.Helper()
	a, err := fingerprint.ParseHash256(hashA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := fingerprint.ParseHash256(hashB)
	if err != nil {
		t.Fatal(err)
	}
	return fingerprint.Sequence{
		fingerprint.NewRecord(a, 0, 100, 29.97),
		fingerprint.NewRecord(b, 29, 47, 29.97),
	}
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleSequence(t)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := "0,100," + hashA + ",0.000\n" +
		"29,47," + hashB + ",0.968\n"
	if buf.String() != expected {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", buf.String(), expected)
	}
}

func TestReadParsesRecords(t *testing.T) {
	input := "0,100," + hashA + ",0.000\n\n" +
		"30,55, " + hashB + " ,1.001\n"

	seq, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(seq) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(seq))
	}
	if seq[1].FrameIndex != 30 || seq[1].Quality != 55 || seq[1].Timestamp != 1.001 {
		t.Errorf("Unexpected record: %+v", seq[1])
	}
	if seq[1].Hash.String() != hashB {
		t.Errorf("Unexpected hash %s", seq[1].Hash)
	}
}

func TestReadEmpty(t *testing.T) {
	seq, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if seq == nil || len(seq) != 0 {
		t.Errorf("Expected empty non-nil sequence, got %v", seq)
	}
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"too few fields", "0,100," + hashA, "line 1"},
		{"bad frame", "x,100," + hashA + ",0.0", "frame number"},
		{"bad quality", "0,q," + hashA + ",0.0", "quality"},
		{"bad hash", "0,100,abc,0.0", "hash"},
		{"bad timestamp", "0,100," + hashA + ",t", "timestamp"},
		{"second line", "0,100," + hashA + ",0.0\n1,2,3", "line 2"},
		{"out of order", "5,100," + hashA + ",0.5\n3,100," + hashA + ",0.3", "frame index"},
		{"quality range", "0,101," + hashA + ",0.0", "quality"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error mentioning %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestWriteFileAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	seq := sampleSequence(t)

	if err := WriteFile(path, seq); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the output file, found %d entries", len(entries))
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(loaded) != len(seq) {
		t.Fatalf("Expected %d records, got %d", len(seq), len(loaded))
	}
	for i := range seq {
		if loaded[i].Hash != seq[i].Hash || loaded[i].FrameIndex != seq[i].FrameIndex || loaded[i].Quality != seq[i].Quality {
			t.Errorf("Record %d mismatch: %+v vs %+v", i, loaded[i], seq[i])
		}
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt")); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, dir, expected string
	}{
		{"/videos/clip.mp4", "/out", filepath.Join("/out", "clip.txt")},
		{"movie.final.mkv", "hashes", filepath.Join("hashes", "movie.final.txt")},
		{"noext", ".", "noext.txt"},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.input, tt.dir); got != tt.expected {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.input, tt.dir, got, tt.expected)
		}
	}
}
