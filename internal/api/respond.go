package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-studio/internal/authoring"
	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/navigation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Notice authoring.Notice        `json:"notice"`
	Fields []curriculum.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeCourse writes c with its version as ETag, so the next edit can send it back in
// If-Match.
func writeCourse(w http.ResponseWriter, status int, c curriculum.Course, extra map[string]any) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(c.Version, 10)))
	if extra == nil {
		writeJSON(w, status, c)
		return
	}
	extra["course"] = c
	writeJSON(w, status, extra)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, curriculum.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, curriculum.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, curriculum.ErrConflict), errors.Is(err, navigation.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	n := authoring.NoticeFor(err)
	writeJSON(w, statusFor(err), errorResponse{Notice: n, Fields: n.Fields})
}

// badRequest reports a malformed request that never reached the service.
func badRequest(w http.ResponseWriter, field, message string) {
	verr := &curriculum.ValidationError{}
	verr.Add(field, message)
	n := authoring.NoticeFor(verr)
	writeJSON(w, http.StatusBadRequest, errorResponse{Notice: n, Fields: n.Fields})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			badRequest(w, "body", "is empty")
			return false
		}
		badRequest(w, "body", fmt.Sprintf("is not valid JSON: %v", err))
		return false
	}
	return true
}

// baseVersion reads the If-Match header. No header means the edit is not version checked.
func baseVersion(w http.ResponseWriter, r *http.Request) (int64, bool) {
	h := strings.TrimSpace(r.Header.Get("If-Match"))
	if h == "" || h == "*" {
		return 0, true
	}
	h = strings.TrimPrefix(h, "W/")
	if unq, err := strconv.Unquote(h); err == nil {
		h = unq
	}
	v, err := strconv.ParseInt(h, 10, 64)
	if err != nil || v <= 0 {
		badRequest(w, "If-Match", "must be a course version")
		return 0, false
	}
	return v, true
}
