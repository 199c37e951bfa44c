package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/p-n-ai/pai-studio/internal/course"
	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/export"
	"github.com/p-n-ai/pai-studio/internal/question"
)

func (s *server) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.svc.ListCourses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if courses == nil {
		courses = []curriculum.Course{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

func (s *server) createCourse(w http.ResponseWriter, r *http.Request) {
	var d course.Draft
	if !decode(w, r, &d) {
		return
	}
	c, err := s.svc.CreateCourse(r.Context(), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusCreated, c, nil)
}

func (s *server) getCourse(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Course(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusOK, c, nil)
}

func (s *server) updateCourse(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	var d course.Draft
	if !decode(w, r, &d) {
		return
	}
	c, err := s.svc.UpdateCourse(r.Context(), r.PathValue("id"), base, d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusOK, c, nil)
}

func (s *server) deleteCourse(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteCourse(r.Context(), r.PathValue("id"), base); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) lockCourse(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	var req struct {
		Locked bool `json:"locked"`
	}
	if !decode(w, r, &req) {
		return
	}
	c, err := s.svc.SetCourseLocked(r.Context(), r.PathValue("id"), base, req.Locked)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusOK, c, nil)
}

func (s *server) exportCourse(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Course(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCourse(&buf, c); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+c.ID+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *server) addTopic(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	var d course.TopicDraft
	if !decode(w, r, &d) {
		return
	}
	c, t, err := s.svc.AddTopic(r.Context(), r.PathValue("id"), base, d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusCreated, c, map[string]any{"topic": t})
}

func (s *server) updateTopic(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	var p course.TopicPatch
	if !decode(w, r, &p) {
		return
	}
	c, err := s.svc.UpdateTopic(r.Context(), r.PathValue("id"), base, r.PathValue("topicID"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusOK, c, nil)
}

func (s *server) deleteTopic(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	c, err := s.svc.DeleteTopic(r.Context(), r.PathValue("id"), base, r.PathValue("topicID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusOK, c, nil)
}

func (s *server) toggleTopicLock(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	c, err := s.svc.ToggleTopicLock(r.Context(), r.PathValue("id"), base, r.PathValue("topicID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusOK, c, nil)
}

func (s *server) createQuestion(w http.ResponseWriter, r *http.Request) {
	s.saveQuestion(w, r, "", http.StatusCreated)
}

func (s *server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	s.saveQuestion(w, r, r.PathValue("questionID"), http.StatusOK)
}

func (s *server) saveQuestion(w http.ResponseWriter, r *http.Request, questionID string, status int) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	var d question.Draft
	if !decode(w, r, &d) {
		return
	}
	c, q, err := s.svc.SaveQuestion(r.Context(), r.PathValue("id"), base, r.PathValue("topicID"), questionID, d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, status, c, map[string]any{"question": q})
}

func (s *server) removeQuestion(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	c, err := s.svc.RemoveQuestion(r.Context(), r.PathValue("id"), base, r.PathValue("topicID"), r.PathValue("questionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusOK, c, nil)
}

func (s *server) importQuestion(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	var req struct {
		QuestionID string `json:"question_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.QuestionID == "" {
		badRequest(w, "question_id", "is required")
		return
	}
	c, q, err := s.svc.ImportQuestion(r.Context(), r.PathValue("id"), base, r.PathValue("topicID"), req.QuestionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusCreated, c, map[string]any{"question": q})
}

func (s *server) uploadImage(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+(1<<20))
	file, header, err := r.FormFile("image")
	if err != nil {
		badRequest(w, "image", "multipart field is missing or too large")
		return
	}
	defer file.Close()

	c, ref, err := s.svc.UploadImage(r.Context(), r.PathValue("id"), base, r.PathValue("topicID"), header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusCreated, c, map[string]any{"image": ref})
}

func (s *server) removeImage(w http.ResponseWriter, r *http.Request) {
	base, ok := baseVersion(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		badRequest(w, "index", "must be a number")
		return
	}
	c, err := s.svc.RemoveImage(r.Context(), r.PathValue("id"), base, r.PathValue("topicID"), index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCourse(w, http.StatusOK, c, nil)
}

func (s *server) library(w http.ResponseWriter, r *http.Request) {
	questions, err := s.svc.Library(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if questions == nil {
		questions = []curriculum.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}
