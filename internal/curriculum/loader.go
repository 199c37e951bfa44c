package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Loader loads seed courses from the filesystem.
//
// Each course lives in its own YAML file. Topic prose may be kept beside it in
// "<course-file>.<topic-id>.content.md", which fills the topic's content when the YAML leaves it empty.
type Loader struct {
	rootDir string
	schema  *gojsonschema.Schema
	courses map[string]Course
	order   []string
	paths   map[string]string // course file path -> course id
	mu      sync.RWMutex
}

// NewLoader creates a new seed loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(courseSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling course schema: %w", err)
	}

	l := &Loader{
		rootDir: rootDir,
		schema:  schema,
		courses: make(map[string]Course),
		paths:   make(map[string]string),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading seed courses: %w", err)
	}

	slog.Info("seed courses loaded", "courses", len(l.courses), "root", rootDir)
	return l, nil
}

// GetCourse returns a seed course by ID.
func (l *Loader) GetCourse(id string) (Course, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.courses[id]
	if !ok {
		return Course{}, false
	}
	return c.Clone(), true
}

// Courses returns all loaded courses in file order.
func (l *Loader) Courses() []Course {
	l.mu.RLock()
	defer l.mu.RUnlock()
	courses := make([]Course, 0, len(l.order))
	for _, id := range l.order {
		courses = append(courses, l.courses[id].Clone())
	}
	return courses
}

func (l *Loader) loadAll() error {
	var notes []string
	err := filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, ".content.md"):
			notes = append(notes, path)
		case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
			return l.loadCourse(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Content files are applied once every course file has been read.
	for _, path := range notes {
		if err := l.loadTopicContent(path); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadCourse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return nil
	}
	if raw == nil {
		return nil // Empty file
	}

	result, err := l.schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		slog.Warn("skipping unreadable course document", "path", path, "error", err)
		return nil
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		slog.Warn("skipping course failing schema", "path", path, "errors", strings.Join(msgs, "; "))
		return nil
	}

	var course Course
	if err := yaml.Unmarshal(data, &course); err != nil {
		slog.Warn("skipping malformed course", "path", path, "error", err)
		return nil
	}
	if err := CheckCourse(course); err != nil {
		slog.Warn("skipping course with broken structure", "path", path, "error", err)
		return nil
	}
	if course.Level == "" {
		course.Level = LevelBeginner
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.courses[course.ID]; dup {
		slog.Warn("skipping duplicate course id", "path", path, "course_id", course.ID)
		return nil
	}
	l.courses[course.ID] = course
	l.order = append(l.order, course.ID)
	l.paths[path] = course.ID
	return nil
}

func (l *Loader) loadTopicContent(path string) error {
	base := strings.TrimSuffix(path, ".content.md")
	dot := strings.LastIndex(filepath.Base(base), ".")
	if dot < 0 {
		return nil // No topic id in the name
	}
	dot += len(base) - len(filepath.Base(base))
	topicID := base[dot+1:]

	l.mu.Lock()
	defer l.mu.Unlock()

	courseID, ok := l.paths[base[:dot]+".yaml"]
	if !ok {
		courseID, ok = l.paths[base[:dot]+".yml"]
	}
	if !ok {
		return nil // No matching course, skip
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	course := l.courses[courseID]
	topics, found, _ := Replace(course.Topics, topicID, TopicID, func(t Topic) (Topic, error) {
		if t.Content == "" {
			t.Content = string(data)
		}
		return t, nil
	})
	if !found {
		return nil
	}
	course.Topics = topics
	l.courses[courseID] = course
	return nil
}
