// Package media stores topic images. Blobs are content-addressed, so uploading the same
// image twice yields the same reference.
package media

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
)

const sniffLen = 512

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FSStore keeps images under a local directory and hands out references below baseURL.
type FSStore struct {
	base     string
	baseURL  string
	maxBytes int64
}

// NewFSStore creates the directory if needed. maxBytes <= 0 means 5 MiB.
func NewFSStore(base, baseURL string, maxBytes int64) (*FSStore, error) {
	if base == "" {
		base = "./data/images"
	}
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}
	return &FSStore{base: base, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

// Save stores the image read from r and returns its reference. name is only used in
// error messages; the stored key is derived from the content.
func (s *FSStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	head = head[:n]
	if n == 0 {
		return "", invalid(name, "is empty")
	}
	ext, ok := extensions[http.DetectContentType(head)]
	if !ok {
		return "", invalid(name, "must be a PNG, JPEG, GIF or WebP image")
	}

	tmp, err := os.CreateTemp(s.base, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	body := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(io.MultiWriter(tmp, h), io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if written > s.maxBytes {
		return "", invalid(name, fmt.Sprintf("is larger than %d bytes", s.maxBytes))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	key := path.Join(sum[:2], sum[:32]+ext)
	dst := filepath.Join(s.base, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating media dir: %w", err)
	}
	if _, err := os.Stat(dst); err == nil {
		return s.ref(key), nil
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("storing %s: %w", name, err)
	}
	return s.ref(key), nil
}

// Open returns the blob stored under key.
func (s *FSStore) Open(key string) (io.ReadCloser, error) {
	clean := path.Clean("/" + key)
	f, err := os.Open(filepath.Join(s.base, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, curriculum.NotFound(curriculum.KindImage, key)
	}
	return f, err
}

// Handler serves stored blobs. Mount it below the base URL with http.StripPrefix.
// Directories and dot-prefixed names, such as uploads still being written, are not served.
func (s *FSStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.base))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.servable(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func (s *FSStore) servable(urlPath string) bool {
	if urlPath == "" || strings.HasSuffix(urlPath, "/") {
		return false
	}
	clean := path.Clean("/" + urlPath)
	for _, part := range strings.Split(clean[1:], "/") {
		if part == "" || strings.HasPrefix(part, ".") {
			return false
		}
	}
	info, err := os.Stat(filepath.Join(s.base, filepath.FromSlash(clean)))
	return err == nil && info.Mode().IsRegular()
}

func (s *FSStore) ref(key string) string {
	return s.baseURL + "/" + key
}

func invalid(name, message string) error {
	verr := &curriculum.ValidationError{}
	verr.Add("image", fmt.Sprintf("%s %s", name, message))
	return verr
}
