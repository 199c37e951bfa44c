package api

import (
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-studio/internal/authoring"
)

func (s *server) startSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, s.svc.StartSession())
}

func (s *server) getSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) endSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.EndSession(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) selectCourse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID string `json:"course_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	s.writeView(w)(s.svc.SelectCourse(authoring.WithSession(r.Context(), id), id, req.CourseID))
}

func (s *server) selectTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TopicID string `json:"topic_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	s.writeView(w)(s.svc.SelectTopic(authoring.WithSession(r.Context(), id), id, req.TopicID))
}

func (s *server) openAssessment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.writeView(w)(s.svc.OpenAssessment(authoring.WithSession(r.Context(), id), id))
}

func (s *server) back(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.writeView(w)(s.svc.Back(authoring.WithSession(r.Context(), id), id))
}

// writeView answers a navigation call. A failed transition still carries the view the
// session fell back to.
func (s *server) writeView(w http.ResponseWriter) func(authoring.View, error) {
	return func(v authoring.View, err error) {
		if err == nil {
			writeJSON(w, http.StatusOK, v)
			return
		}
		if v.SessionID == "" {
			writeError(w, err)
			return
		}
		n := authoring.NoticeFor(err)
		writeJSON(w, statusFor(err), struct {
			errorResponse
			View authoring.View `json:"view"`
		}{errorResponse{Notice: n, Fields: n.Fields}, v})
	}
}

func (s *server) streamNotices(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.svc.Session(id); err != nil {
		writeError(w, err)
		return
	}
	if s.notices == nil {
		http.Error(w, "notice streaming is disabled", http.StatusNotImplemented)
		return
	}
	if err := s.notices.Serve(w, r, id); err != nil {
		slog.Debug("notice stream closed", "session_id", id, "error", err)
	}
}
