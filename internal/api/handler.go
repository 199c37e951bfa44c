// Package api exposes the authoring service as an HTTP JSON API.
package api

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/p-n-ai/pai-studio/internal/authoring"
)

// SessionHeader names the session an API call acts for. Notices for the call are
// delivered to that session.
const SessionHeader = "X-Session-ID"

const defaultMaxUpload = 5 << 20

// HealthChecker is a dependency that can report readiness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NoticeStream serves a session's live notices over an upgraded connection.
type NoticeStream interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID string) error
}

// Config holds dependencies for the HTTP handler.
type Config struct {
	Service        *authoring.Service
	Notices        NoticeStream
	Media          http.Handler
	MediaPrefix    string // e.g. "/media"; Media is not mounted when empty
	Checks         map[string]HealthChecker
	MaxUploadBytes int64
}

type server struct {
	svc       *authoring.Service
	notices   NoticeStream
	checks    map[string]HealthChecker
	maxUpload int64
}

// NewHandler creates the HTTP router.
func NewHandler(cfg Config) http.Handler {
	s := &server{
		svc:       cfg.Service,
		notices:   cfg.Notices,
		checks:    cfg.Checks,
		maxUpload: cfg.MaxUploadBytes,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUpload
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /courses", s.listCourses)
	mux.HandleFunc("POST /courses", s.createCourse)
	mux.HandleFunc("GET /courses/{id}", s.getCourse)
	mux.HandleFunc("PATCH /courses/{id}", s.updateCourse)
	mux.HandleFunc("DELETE /courses/{id}", s.deleteCourse)
	mux.HandleFunc("POST /courses/{id}/lock", s.lockCourse)
	mux.HandleFunc("GET /courses/{id}/export.xlsx", s.exportCourse)

	mux.HandleFunc("POST /courses/{id}/topics", s.addTopic)
	mux.HandleFunc("PATCH /courses/{id}/topics/{topicID}", s.updateTopic)
	mux.HandleFunc("DELETE /courses/{id}/topics/{topicID}", s.deleteTopic)
	mux.HandleFunc("POST /courses/{id}/topics/{topicID}/lock", s.toggleTopicLock)
	mux.HandleFunc("POST /courses/{id}/topics/{topicID}/questions", s.createQuestion)
	mux.HandleFunc("POST /courses/{id}/topics/{topicID}/questions/import", s.importQuestion)
	mux.HandleFunc("PUT /courses/{id}/topics/{topicID}/questions/{questionID}", s.updateQuestion)
	mux.HandleFunc("DELETE /courses/{id}/topics/{topicID}/questions/{questionID}", s.removeQuestion)
	mux.HandleFunc("POST /courses/{id}/topics/{topicID}/images", s.uploadImage)
	mux.HandleFunc("DELETE /courses/{id}/topics/{topicID}/images/{index}", s.removeImage)

	mux.HandleFunc("GET /library", s.library)

	mux.HandleFunc("POST /sessions", s.startSession)
	mux.HandleFunc("GET /sessions/{id}", s.getSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.endSession)
	mux.HandleFunc("POST /sessions/{id}/select-course", s.selectCourse)
	mux.HandleFunc("POST /sessions/{id}/select-topic", s.selectTopic)
	mux.HandleFunc("POST /sessions/{id}/open-assessment", s.openAssessment)
	mux.HandleFunc("POST /sessions/{id}/back", s.back)
	mux.HandleFunc("GET /sessions/{id}/notices", s.streamNotices)

	if cfg.Media != nil && cfg.MediaPrefix != "" {
		prefix := "/" + strings.Trim(cfg.MediaPrefix, "/")
		mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix, cfg.Media))
	}

	return logRequests(withSession(mux))
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			failed[name] = "unavailable"
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// withSession attaches the acting session from SessionHeader to the request context.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(SessionHeader); id != "" {
			r = r.WithContext(authoring.WithSession(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes the websocket upgrade through to the underlying connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
