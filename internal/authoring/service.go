// Package authoring runs author actions against the course store. Each mutation reads the
// stored course, applies a pure aggregate operation, saves it under optimistic concurrency
// and writes the saved course into every session viewing it. Every action ends in a Notice
// for the acting session and, on success, an audit Event.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-studio/internal/course"
	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/navigation"
	"github.com/p-n-ai/pai-studio/internal/question"
	"github.com/p-n-ai/pai-studio/internal/store"
	"github.com/p-n-ai/pai-studio/internal/topic"
)

// ImageStore turns an uploaded image into an opaque reference for Topic.Images.
type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// ServiceConfig holds dependencies for the authoring service.
type ServiceConfig struct {
	Store      store.Store
	Curriculum *course.Curriculum
	Images     ImageStore
	Events     EventLogger
	Sessions   *Sessions
}

// Service is the authoring entry point shared by every session.
type Service struct {
	store      store.Store
	curriculum *course.Curriculum
	images     ImageStore
	events     EventLogger
	sessions   *Sessions
}

// NewService creates an authoring service. Store is required.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("authoring service needs a store")
	}
	cur := cfg.Curriculum
	if cur == nil {
		cur = course.New(nil, nil)
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewSessions(nil)
	}
	return &Service{
		store:      cfg.Store,
		curriculum: cur,
		images:     cfg.Images,
		events:     events,
		sessions:   sessions,
	}, nil
}

// Sessions returns the session registry.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// ListCourses returns all courses in display order.
func (s *Service) ListCourses(ctx context.Context) ([]curriculum.Course, error) {
	return s.store.List(ctx)
}

// Course returns a single course.
func (s *Service) Course(ctx context.Context, id string) (curriculum.Course, error) {
	return s.store.Get(ctx, id)
}

// Library returns every stored question, de-duplicated by id.
func (s *Service) Library(ctx context.Context) ([]curriculum.Question, error) {
	courses, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return course.Library(courses), nil
}

// CreateCourse validates d and stores a new, empty course.
func (s *Service) CreateCourse(ctx context.Context, d course.Draft) (curriculum.Course, error) {
	c, err := s.curriculum.CreateCourse(d)
	if err != nil {
		return curriculum.Course{}, s.fail(ctx, "", err)
	}
	created, err := s.store.Create(ctx, c)
	if err != nil {
		return curriculum.Course{}, s.fail(ctx, c.ID, err)
	}
	s.succeed(ctx, created.ID, EventCourseCreated, "Course created.", map[string]any{"title": created.Title})
	return created, nil
}

// UpdateCourse replaces the course metadata.
func (s *Service) UpdateCourse(ctx context.Context, courseID string, base int64, d course.Draft) (curriculum.Course, error) {
	return s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		return course.UpdateCourse(c, d)
	}, EventCourseUpdated, "Course saved.", nil)
}

// SetCourseLocked sets the course-level lock.
func (s *Service) SetCourseLocked(ctx context.Context, courseID string, base int64, locked bool) (curriculum.Course, error) {
	return s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		return course.SetCourseLocked(c, locked), nil
	}, EventCourseLocked, lockMessage("Course", locked), map[string]any{"locked": locked})
}

// DeleteCourse removes the course and its topics. Sessions viewing it return to Courses.
// A non-zero base must match the stored version, as for every other edit.
func (s *Service) DeleteCourse(ctx context.Context, courseID string, base int64) error {
	if base != 0 {
		current, err := s.store.Get(ctx, courseID)
		if err != nil {
			return s.fail(ctx, courseID, err)
		}
		if err := checkBase(current, base); err != nil {
			return s.fail(ctx, courseID, err)
		}
	}
	if err := s.store.Delete(ctx, courseID); err != nil {
		return s.fail(ctx, courseID, err)
	}
	s.sessions.drop(courseID)
	s.succeed(ctx, courseID, EventCourseDeleted, "Course deleted.", nil)
	return nil
}

// AddTopic validates d and appends a new topic to the course.
func (s *Service) AddTopic(ctx context.Context, courseID string, base int64, d course.TopicDraft) (curriculum.Course, curriculum.Topic, error) {
	var added curriculum.Topic
	c, err := s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		t, err := s.curriculum.NewTopic(d)
		if err != nil {
			return c, err
		}
		added = t
		return course.AddTopic(c, t)
	}, EventTopicAdded, "Topic added.", nil)
	if err != nil {
		return c, curriculum.Topic{}, err
	}
	return c, added, nil
}

// UpdateTopic changes the fields present in p. Other fields and the questions are kept.
func (s *Service) UpdateTopic(ctx context.Context, courseID string, base int64, topicID string, p course.TopicPatch) (curriculum.Course, error) {
	return s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		return course.UpdateTopic(c, topicID, func(t curriculum.Topic) (curriculum.Topic, error) {
			return course.ApplyTopicPatch(t, p)
		})
	}, EventTopicUpdated, "Topic saved.", map[string]any{"topic_id": topicID})
}

// DeleteTopic removes a topic and all of its questions.
func (s *Service) DeleteTopic(ctx context.Context, courseID string, base int64, topicID string) (curriculum.Course, error) {
	return s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		updated, ok := course.DeleteTopic(c, topicID)
		if !ok {
			return c, curriculum.NotFound(curriculum.KindTopic, topicID)
		}
		return updated, nil
	}, EventTopicDeleted, "Topic deleted.", map[string]any{"topic_id": topicID})
}

// ToggleTopicLock flips a topic's general lock.
func (s *Service) ToggleTopicLock(ctx context.Context, courseID string, base int64, topicID string) (curriculum.Course, error) {
	return s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		return course.ToggleTopicLock(c, topicID)
	}, EventTopicLockToggled, "Topic lock changed.", map[string]any{"topic_id": topicID})
}

// SaveQuestion creates a question from d when questionID is empty, and otherwise replaces
// the question with that id. A draft that fails validation is returned untouched in the
// error so the form can be fixed and resubmitted.
func (s *Service) SaveQuestion(ctx context.Context, courseID string, base int64, topicID, questionID string, d question.Draft) (curriculum.Course, curriculum.Question, error) {
	builder := s.curriculum.Questions()
	var saved curriculum.Question
	c, err := s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		return course.UpdateTopic(c, topicID, func(t curriculum.Topic) (curriculum.Topic, error) {
			if questionID == "" {
				q, err := builder.Create(d)
				if err != nil {
					return t, err
				}
				saved = q
				return topic.AddQuestion(t, q)
			}
			return topic.UpdateQuestion(t, questionID, func(existing curriculum.Question) (curriculum.Question, error) {
				q, err := builder.Update(existing, d)
				saved = q
				return q, err
			})
		})
	}, EventQuestionSaved, "Question saved.", map[string]any{"topic_id": topicID, "question_id": questionID, "type": string(d.Type)})
	if err != nil {
		return c, curriculum.Question{}, err
	}
	return c, saved, nil
}

// RemoveQuestion drops a question from a topic.
func (s *Service) RemoveQuestion(ctx context.Context, courseID string, base int64, topicID, questionID string) (curriculum.Course, error) {
	return s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		return course.UpdateTopic(c, topicID, func(t curriculum.Topic) (curriculum.Topic, error) {
			updated, ok := topic.RemoveQuestion(t, questionID)
			if !ok {
				return t, curriculum.NotFound(curriculum.KindQuestion, questionID)
			}
			return updated, nil
		})
	}, EventQuestionRemoved, "Question removed.", map[string]any{"topic_id": topicID, "question_id": questionID})
}

// ImportQuestion copies a library question into a topic under a new id.
func (s *Service) ImportQuestion(ctx context.Context, courseID string, base int64, topicID, libraryQuestionID string) (curriculum.Course, curriculum.Question, error) {
	courses, err := s.store.List(ctx)
	if err != nil {
		return curriculum.Course{}, curriculum.Question{}, s.fail(ctx, courseID, err)
	}
	source, err := course.FindLibraryQuestion(courses, libraryQuestionID)
	if err != nil {
		return curriculum.Course{}, curriculum.Question{}, s.fail(ctx, courseID, err)
	}

	var imported curriculum.Question
	c, err := s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		updated, q, err := s.curriculum.ImportQuestionFromLibrary(c, topicID, source)
		imported = q
		return updated, err
	}, EventQuestionImported, "Question imported.", map[string]any{"topic_id": topicID, "source_id": libraryQuestionID})
	if err != nil {
		return c, curriculum.Question{}, err
	}
	return c, imported, nil
}

// UploadImage stores an image and attaches its reference to a topic.
func (s *Service) UploadImage(ctx context.Context, courseID string, base int64, topicID, name string, r io.Reader) (curriculum.Course, string, error) {
	if s.images == nil {
		return curriculum.Course{}, "", s.fail(ctx, courseID, errors.New("image storage is not configured"))
	}
	var ref string
	c, err := s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		if _, ok := c.Topic(topicID); !ok {
			return c, curriculum.NotFound(curriculum.KindTopic, topicID)
		}
		var err error
		if ref, err = s.images.Save(ctx, name, r); err != nil {
			return c, err
		}
		return course.UpdateTopic(c, topicID, func(t curriculum.Topic) (curriculum.Topic, error) {
			return topic.AddImage(t, ref)
		})
	}, EventImageAdded, "Image uploaded.", map[string]any{"topic_id": topicID, "name": name})
	if err != nil {
		return c, "", err
	}
	return c, ref, nil
}

// RemoveImage detaches the image at index from a topic. The stored blob is kept since
// other topics may reference the same content.
func (s *Service) RemoveImage(ctx context.Context, courseID string, base int64, topicID string, index int) (curriculum.Course, error) {
	return s.apply(ctx, courseID, base, func(c curriculum.Course) (curriculum.Course, error) {
		return course.UpdateTopic(c, topicID, func(t curriculum.Topic) (curriculum.Topic, error) {
			return topic.RemoveImage(t, index)
		})
	}, EventImageRemoved, "Image removed.", map[string]any{"topic_id": topicID, "index": index})
}

// StartSession opens a new session on the Courses screen.
func (s *Service) StartSession() View {
	return s.sessions.Start()
}

// Session returns the current view of a session.
func (s *Service) Session(id string) (View, error) {
	return s.sessions.View(id)
}

// EndSession closes a session.
func (s *Service) EndSession(id string) error {
	return s.sessions.End(id)
}

// SelectCourse moves the session from Courses to the course's Topics.
func (s *Service) SelectCourse(ctx context.Context, sessionID, courseID string) (View, error) {
	return s.navigate(ctx, sessionID, func(sess *Session) error {
		c, err := s.store.Get(ctx, courseID)
		if err != nil {
			return err
		}
		next, err := sess.state.SelectCourse(c)
		if err != nil {
			return err
		}
		sess.state = next
		sess.snapshot = &c
		return nil
	})
}

// SelectTopic moves the session from Topics to TopicDetail. The course is re-read first;
// if the topic is gone the session stays on Topics and a not-found notice is raised.
func (s *Service) SelectTopic(ctx context.Context, sessionID, topicID string) (View, error) {
	return s.navigate(ctx, sessionID, func(sess *Session) error {
		if sess.state.Screen != navigation.ScreenTopics {
			_, err := sess.state.SelectTopic(curriculum.Course{}, topicID)
			return err
		}
		c, err := s.store.Get(ctx, sess.state.CourseID)
		if errors.Is(err, curriculum.ErrNotFound) {
			return sess.setCourseLocked(nil)
		}
		if err != nil {
			return err
		}
		sess.snapshot = &c
		next, err := sess.state.SelectTopic(c, topicID)
		sess.state = next
		return err
	})
}

// OpenAssessment moves the session from TopicDetail to the topic's Assessment.
func (s *Service) OpenAssessment(ctx context.Context, sessionID string) (View, error) {
	return s.navigate(ctx, sessionID, func(sess *Session) error {
		next, err := sess.state.OpenAssessment()
		if err != nil {
			return err
		}
		sess.state = next
		return nil
	})
}

// Back moves the session one level up.
func (s *Service) Back(ctx context.Context, sessionID string) (View, error) {
	return s.navigate(ctx, sessionID, func(sess *Session) error {
		next, err := sess.state.Back()
		if err != nil {
			return err
		}
		sess.state = next
		if next.Screen == navigation.ScreenCourses {
			sess.snapshot = nil
		}
		return nil
	})
}

// navigate runs fn with the session locked. Failures are reported to the session after
// the lock is released.
func (s *Service) navigate(ctx context.Context, sessionID string, fn func(sess *Session) error) (View, error) {
	sess, err := s.sessions.get(sessionID)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	err = fn(sess)
	sess.touched = s.sessions.now()
	courseID := sess.state.CourseID
	sess.mu.Unlock()

	if err != nil {
		s.report(WithSession(ctx, sessionID), courseID, err)
	}
	v, verr := s.sessions.View(sessionID)
	if verr != nil {
		return View{}, verr
	}
	return v, err
}

// apply is the single write path for an existing course: read, check the caller's base
// version (0 skips the check), transform, save, then write the result into every session
// viewing the course.
func (s *Service) apply(ctx context.Context, courseID string, base int64, fn func(curriculum.Course) (curriculum.Course, error), event, message string, data map[string]any) (curriculum.Course, error) {
	current, err := s.store.Get(ctx, courseID)
	if err != nil {
		return curriculum.Course{}, s.fail(ctx, courseID, err)
	}
	if err := checkBase(current, base); err != nil {
		return curriculum.Course{}, s.fail(ctx, courseID, err)
	}

	updated, err := fn(current.Clone())
	if err != nil {
		return curriculum.Course{}, s.fail(ctx, courseID, err)
	}
	updated.Version = current.Version

	saved, err := s.store.Save(ctx, updated)
	if err != nil {
		return curriculum.Course{}, s.fail(ctx, courseID, err)
	}
	s.sessions.sync(saved)
	s.succeed(ctx, courseID, event, message, data)
	return saved, nil
}

// checkBase rejects an action based on a version other than the stored one. base 0 skips
// the check.
func checkBase(current curriculum.Course, base int64) error {
	if base == 0 || base == current.Version {
		return nil
	}
	return fmt.Errorf("%w: course %s is at version %d, edit was based on %d", curriculum.ErrConflict, current.ID, current.Version, base)
}

func (s *Service) succeed(ctx context.Context, courseID, event, message string, data map[string]any) {
	sessionID := SessionFromContext(ctx)
	if err := s.events.LogEvent(Event{
		SessionID: sessionID,
		CourseID:  courseID,
		EventType: event,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		slog.Warn("failed to log authoring event", "type", event, "course_id", courseID, "error", err)
	}
	if sessionID != "" {
		n := Success(message)
		n.CourseID = courseID
		s.sessions.notify(sessionID, n)
	}
}

// fail logs err at the level its kind deserves, moves sessions off a course that turned
// out to be gone, notifies the acting session and returns err unchanged.
func (s *Service) fail(ctx context.Context, courseID string, err error) error {
	var nerr *curriculum.NotFoundError
	if errors.As(err, &nerr) && nerr.Kind == curriculum.KindCourse && nerr.ID == courseID {
		s.sessions.drop(courseID)
	}
	if errors.Is(err, curriculum.ErrConflict) {
		if c, gerr := s.store.Get(ctx, courseID); gerr == nil {
			s.sessions.sync(c)
		}
	}
	s.report(ctx, courseID, err)
	return err
}

func (s *Service) report(ctx context.Context, courseID string, err error) {
	sessionID := SessionFromContext(ctx)
	switch {
	case errors.Is(err, curriculum.ErrInvariant):
		slog.Error("refusing authoring change", "course_id", courseID, "session_id", sessionID, "error", err)
	case errors.Is(err, curriculum.ErrValidation),
		errors.Is(err, curriculum.ErrNotFound),
		errors.Is(err, curriculum.ErrConflict),
		errors.Is(err, navigation.ErrInvalidTransition):
		slog.Debug("authoring action rejected", "course_id", courseID, "session_id", sessionID, "error", err)
	default:
		slog.Error("authoring action failed", "course_id", courseID, "session_id", sessionID, "error", err)
	}
	if sessionID == "" {
		return
	}
	n := NoticeFor(err)
	n.CourseID = courseID
	s.sessions.notify(sessionID, n)
}

func lockMessage(what string, locked bool) string {
	if locked {
		return what + " locked."
	}
	return what + " unlocked."
}
