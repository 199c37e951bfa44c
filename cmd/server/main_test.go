package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/platform/config"
)

func testConfig(t *testing.T, seedPath string) *config.Config {
	t.Helper()
	return &config.Config{
		Store:          config.StoreConfig{Driver: config.DriverMemory},
		Media:          config.MediaConfig{Path: t.TempDir(), BaseURL: "/media", MaxBytes: 1 << 20},
		Log:            config.LogConfig{Level: "info", Format: "json"},
		CurriculumPath: seedPath,
	}
}

func newTestApp(t *testing.T, seedPath string) *app {
	t.Helper()
	a, err := newApp(context.Background(), testConfig(t, seedPath))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.close)
	return a
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestApp(t, filepath.Join(t.TempDir(), "missing"))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			a.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNewApp_SeedsCourses(t *testing.T) {
	a := newTestApp(t, filepath.Join("..", "..", "seed"))

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/dsa-101", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var c curriculum.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode course: %v", err)
	}
	if len(c.Topics) != 2 {
		t.Fatalf("topics = %d, want 2", len(c.Topics))
	}
	if !strings.HasPrefix(c.Topics[0].Content, "# Loops") {
		t.Errorf("loops content = %q, want the markdown file", c.Topics[0].Content)
	}
	if got := c.Topics[0].Questions[1].Type(); got != curriculum.TypeCoding {
		t.Errorf("second question type = %q, want %q", got, curriculum.TypeCoding)
	}
}

func TestNewApp_CreateCourse(t *testing.T) {
	a := newTestApp(t, filepath.Join(t.TempDir(), "missing"))

	req := httptest.NewRequest(http.MethodPost, "/courses", bytes.NewBufferString(`{"title":"Go Basics"}`))
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if got := rec.Header().Get("ETag"); got != `"1"` {
		t.Errorf("ETag = %s, want \"1\"", got)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
		want    string
	}{
		{"json", config.LogConfig{Level: "info", Format: "json"}, false, `"msg":"hello"`},
		{"text", config.LogConfig{Level: "debug", Format: "text"}, false, "msg=hello"},
		{"bad level", config.LogConfig{Level: "loud", Format: "json"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			logger.Info("hello")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}
