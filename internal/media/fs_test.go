package media_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/media"
)

// pngBytes is a PNG signature followed by filler; enough for content sniffing.
func pngBytes(fill string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), []byte(fill)...)
}

func TestFSStore_SaveIsContentAddressed(t *testing.T) {
	s, err := media.NewFSStore(t.TempDir(), "/media/", 0)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}
	ctx := context.Background()

	a, err := s.Save(ctx, "a.png", bytes.NewReader(pngBytes("loops")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(a, "/media/") || !strings.HasSuffix(a, ".png") {
		t.Errorf("ref = %q, want /media/...png", a)
	}

	b, _ := s.Save(ctx, "copy.png", bytes.NewReader(pngBytes("loops")))
	if a != b {
		t.Errorf("same content gave %q and %q", a, b)
	}
	c, _ := s.Save(ctx, "other.png", bytes.NewReader(pngBytes("recursion")))
	if c == a {
		t.Error("different content gave the same reference")
	}

	rc, err := s.Open(strings.TrimPrefix(a, "/media/"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, pngBytes("loops")) {
		t.Error("Open() returned different bytes")
	}
}

func TestFSStore_Rejects(t *testing.T) {
	s, err := media.NewFSStore(t.TempDir(), "/media", 64)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"text", []byte("def f(): pass")},
		{"too-large", pngBytes(strings.Repeat("x", 100))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(context.Background(), tt.name, bytes.NewReader(tt.body))
			if !errors.Is(err, curriculum.ErrValidation) {
				t.Errorf("Save() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestFSStore_OpenMissing(t *testing.T) {
	s, _ := media.NewFSStore(t.TempDir(), "/media", 0)
	if _, err := s.Open("ab/nothing.png"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Open("../../etc/passwd"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Open(traversal) error = %v, want ErrNotFound", err)
	}
}

func TestFSStore_Handler(t *testing.T) {
	s, _ := media.NewFSStore(t.TempDir(), "/media", 0)
	ref, err := s.Save(context.Background(), "a.png", bytes.NewReader(pngBytes("served")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	srv := httptest.NewServer(http.StripPrefix("/media", s.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + ref)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
}

func TestFSStore_HandlerHidesDirectoriesAndTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, _ := media.NewFSStore(dir, "/media", 0)
	ref, err := s.Save(context.Background(), "a.png", bytes.NewReader(pngBytes("served")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".upload-123"), pngBytes("partial"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	shard := path.Dir(strings.TrimPrefix(ref, "/media"))

	srv := httptest.NewServer(http.StripPrefix("/media", s.Handler()))
	defer srv.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"stored blob", ref, http.StatusOK},
		{"root listing", "/media/", http.StatusNotFound},
		{"shard listing", "/media" + shard + "/", http.StatusNotFound},
		{"shard without slash", "/media" + shard, http.StatusNotFound},
		{"upload in progress", "/media/.upload-123", http.StatusNotFound},
		{"missing blob", "/media/zz/nothing.png", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET error = %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
