package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractYouTubeID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
		wantErr  bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/abc123XYZ_-/", "abc123XYZ_-", false},
		{"https://m.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch", "", true},
		{"https://youtu.be/", "", true},
		{"https://vimeo.com/12345", "", true},
		{"://bad", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ExtractYouTubeID(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIsYouTubeURL(t *testing.T) {
	if !IsYouTubeURL("https://www.YouTube.com/watch?v=x") {
		t.Error("Expected youtube.com to be recognised")
	}
	if !IsYouTubeURL("https://youtu.be/x") {
		t.Error("Expected youtu.be to be recognised")
	}
	if IsYouTubeURL("https://example.com/video.mp4") {
		t.Error("Expected example.com to be rejected")
	}
}

func TestGenerateUUID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateUUID()
		if !IsUUID(id) {
			t.Fatalf("Generated invalid UUID %q", id)
		}
		if len(id) != 36 || id[14] != '4' {
			t.Errorf("Expected version 4 UUID, got %q", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate UUID %q", id)
		}
		seen[id] = true
	}

	if IsUUID("not-a-uuid") {
		t.Error("Expected invalid string to be rejected")
	}
}

func TestFileHelpers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := MakeDir(dir); err != nil {
		t.Fatalf("MakeDir failed: %v", err)
	}

	src := filepath.Join(dir, "src.txt")
	if err := os.WriteFile(src, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(src) {
		t.Error("Expected file to exist")
	}
	if FileExists(dir) {
		t.Error("Directory should not count as a file")
	}

	dst := filepath.Join(dir, "dst.txt")
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if FileExists(src) || !FileExists(dst) {
		t.Error("Expected file to be moved")
	}

	if err := DeleteFile(dst); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if err := DeleteFile(dst); err != nil {
		t.Errorf("Deleting a missing file should not error: %v", err)
	}
	if err := MoveFile(dst, src); err == nil {
		t.Error("Expected error moving a missing file")
	}
}
