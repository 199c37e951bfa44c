package store

import (
	"context"
	"sync"
	"time"

	"github.com/p-n-ai/pai-studio/internal/course"
	"github.com/p-n-ai/pai-studio/internal/curriculum"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	courses []curriculum.Course
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStore creates a new empty in-memory course store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) List(_ context.Context) ([]curriculum.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]curriculum.Course, len(s.courses))
	for i, c := range s.courses {
		out[i] = c.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (curriculum.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := curriculum.IndexOf(s.courses, id, curriculum.CourseID)
	if i < 0 {
		return curriculum.Course{}, curriculum.NotFound(curriculum.KindCourse, id)
	}
	return s.courses[i].Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, c curriculum.Course) (curriculum.Course, error) {
	if err := curriculum.CheckCourse(c); err != nil {
		return curriculum.Course{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if curriculum.IndexOf(s.courses, c.ID, curriculum.CourseID) >= 0 {
		return curriculum.Course{}, exists(c.ID)
	}
	now := s.now().UTC()
	c = c.Clone()
	c.Version = 1
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.courses = curriculum.Append(s.courses, c)
	return c.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, c curriculum.Course) (curriculum.Course, error) {
	if err := curriculum.CheckCourse(c); err != nil {
		return curriculum.Course{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var saved curriculum.Course
	courses, found, err := curriculum.Replace(s.courses, c.ID, curriculum.CourseID, func(stored curriculum.Course) (curriculum.Course, error) {
		if stored.Version != c.Version {
			return stored, conflict(c.ID, stored.Version, c.Version)
		}
		saved = c.Clone()
		saved.Version = stored.Version + 1
		saved.CreatedAt = stored.CreatedAt
		saved.UpdatedAt = s.now().UTC()
		return saved, nil
	})
	if !found {
		return curriculum.Course{}, curriculum.NotFound(curriculum.KindCourse, c.ID)
	}
	if err != nil {
		return curriculum.Course{}, err
	}
	s.courses = courses
	return saved.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, ok := course.DeleteCourse(s.courses, id)
	if !ok {
		return curriculum.NotFound(curriculum.KindCourse, id)
	}
	s.courses = courses
	return nil
}
