// Package course implements the course curriculum aggregate: a course and its ordered topics.
// All operations are copy-on-write and address topics only by id.
package course

import (
	"fmt"
	"strings"
	"time"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/question"
	"github.com/p-n-ai/pai-studio/internal/topic"
)

// Draft holds the author-editable course metadata.
type Draft struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Level       curriculum.Level `json:"level"`
	Duration    string           `json:"duration"`
	Lessons     int              `json:"lessons"`
	Enrollments int              `json:"enrollments"`
	Tags        []string         `json:"tags"`
}

// TopicDraft holds the author-editable fields of a new topic.
type TopicDraft struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	IsLocked       bool     `json:"is_locked"`
	DurationLocked bool     `json:"duration_locked"`
	AccessDuration string   `json:"access_duration"`
	Deadline       string   `json:"deadline"`
	Images         []string `json:"images"`
}

// TopicPatch changes some fields of an existing topic. Nil fields are left as they are,
// so a rename keeps the topic's images, locks and content.
type TopicPatch struct {
	Title          *string  `json:"title"`
	Content        *string  `json:"content"`
	IsLocked       *bool    `json:"is_locked"`
	DurationLocked *bool    `json:"duration_locked"`
	AccessDuration *string  `json:"access_duration"`
	Deadline       *string  `json:"deadline"`
	Images         []string `json:"images"`
}

func (d TopicDraft) patch() TopicPatch {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return TopicPatch{
		Title:          &d.Title,
		Content:        &d.Content,
		IsLocked:       &d.IsLocked,
		DurationLocked: &d.DurationLocked,
		AccessDuration: &d.AccessDuration,
		Deadline:       &d.Deadline,
		Images:         images,
	}
}

// Curriculum creates courses and topics and imports library questions. It holds the
// collaborators that mint ids; the pure list operations are package functions.
type Curriculum struct {
	ids       curriculum.IDGenerator
	questions *question.Builder
	now       func() time.Time
}

// New creates a Curriculum. A nil ids uses timestamp ids; a nil builder shares ids.
func New(ids curriculum.IDGenerator, questions *question.Builder) *Curriculum {
	if ids == nil {
		ids = curriculum.TimestampIDs{}
	}
	if questions == nil {
		questions = question.NewBuilder(ids)
	}
	return &Curriculum{ids: ids, questions: questions, now: time.Now}
}

// Questions returns the question builder used for imports.
func (c *Curriculum) Questions() *question.Builder {
	return c.questions
}

// CreateCourse validates d and returns a new unlocked course with no topics.
func (c *Curriculum) CreateCourse(d Draft) (curriculum.Course, error) {
	course, err := applyDraft(curriculum.Course{}, d)
	if err != nil {
		return curriculum.Course{}, err
	}
	now := c.now().UTC()
	course.ID = c.ids.NewID(curriculum.PrefixCourse)
	course.Topics = []curriculum.Topic{}
	course.IsLocked = false
	course.CreatedAt = now
	course.UpdatedAt = now
	return course, nil
}

// UpdateCourse replaces the course metadata with d. Topics, id and lock are kept.
func UpdateCourse(course curriculum.Course, d Draft) (curriculum.Course, error) {
	return applyDraft(course, d)
}

// SetCourseLocked sets the course-level lock.
func SetCourseLocked(course curriculum.Course, locked bool) curriculum.Course {
	course.IsLocked = locked
	return course
}

func applyDraft(course curriculum.Course, d Draft) (curriculum.Course, error) {
	var verr curriculum.ValidationError

	title := strings.TrimSpace(d.Title)
	if title == "" {
		verr.Add("title", "is required")
	}
	level := d.Level
	if level == "" {
		level = curriculum.LevelBeginner
	}
	if !level.Valid() {
		verr.Add("level", fmt.Sprintf("must be %s, %s or %s", curriculum.LevelBeginner, curriculum.LevelIntermediate, curriculum.LevelAdvanced))
	}
	if d.Lessons < 0 {
		verr.Add("lessons", "must not be negative")
	}
	if d.Enrollments < 0 {
		verr.Add("enrollments", "must not be negative")
	}
	if err := verr.Err(); err != nil {
		return course, err
	}

	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	course.Title = title
	course.Description = strings.TrimSpace(d.Description)
	course.Level = level
	course.Duration = strings.TrimSpace(d.Duration)
	course.Lessons = d.Lessons
	course.Enrollments = d.Enrollments
	course.Tags = tags
	return course, nil
}

// NewTopic validates d and returns a topic with a fresh id and no questions.
func (c *Curriculum) NewTopic(d TopicDraft) (curriculum.Topic, error) {
	t, err := ApplyTopicPatch(curriculum.Topic{}, d.patch())
	if err != nil {
		return curriculum.Topic{}, err
	}
	t.ID = c.ids.NewID(curriculum.PrefixTopic)
	t.Questions = []curriculum.Question{}
	return t, nil
}

// ApplyTopicPatch sets the fields present in p. Questions are kept. A non-nil Images
// replaces the whole image list.
func ApplyTopicPatch(t curriculum.Topic, p TopicPatch) (curriculum.Topic, error) {
	var err error
	if p.Title != nil {
		if t, err = topic.SetTitle(t, *p.Title); err != nil {
			return t, err
		}
	}
	if p.Content != nil {
		t = topic.SetContent(t, *p.Content)
	}
	if p.IsLocked != nil {
		t = topic.SetLocked(t, *p.IsLocked)
	}
	if p.DurationLocked != nil {
		t = topic.SetDurationLocked(t, *p.DurationLocked)
	}
	if p.AccessDuration != nil {
		t = topic.SetAccessDuration(t, *p.AccessDuration)
	}
	if p.Deadline != nil {
		t = topic.SetDeadline(t, *p.Deadline)
	}
	if p.Images != nil {
		t.Images = []string{}
		for _, ref := range p.Images {
			if t, err = topic.AddImage(t, ref); err != nil {
				return t, err
			}
		}
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	return t, nil
}

// AddTopic appends t to the course's topic list.
func AddTopic(course curriculum.Course, t curriculum.Topic) (curriculum.Course, error) {
	if t.ID == "" {
		return course, &curriculum.InvariantError{Reason: "topic has no id"}
	}
	if _, dup := course.Topic(t.ID); dup {
		return course, &curriculum.InvariantError{Reason: fmt.Sprintf("topic %s already in course %s", t.ID, course.ID)}
	}
	for _, q := range t.Questions {
		if err := curriculum.CheckQuestion(q); err != nil {
			return course, err
		}
	}
	course.Topics = curriculum.Append(course.Topics, t)
	return course, nil
}

// UpdateTopic replaces the topic with the given id by fn's result, keeping its position.
func UpdateTopic(course curriculum.Course, topicID string, fn func(curriculum.Topic) (curriculum.Topic, error)) (curriculum.Course, error) {
	topics, found, err := curriculum.Replace(course.Topics, topicID, curriculum.TopicID, func(t curriculum.Topic) (curriculum.Topic, error) {
		updated, err := fn(t)
		if err != nil {
			return t, err
		}
		if updated.ID != topicID {
			return t, &curriculum.InvariantError{Reason: fmt.Sprintf("update changed topic id %s to %s", topicID, updated.ID)}
		}
		return updated, nil
	})
	if !found {
		return course, curriculum.NotFound(curriculum.KindTopic, topicID)
	}
	if err != nil {
		return course, err
	}
	course.Topics = topics
	return course, nil
}

// DeleteTopic removes the topic and its questions. There is no undo.
// Deleting an absent id is a no-op reported by ok=false.
func DeleteTopic(course curriculum.Course, topicID string) (curriculum.Course, bool) {
	topics, ok := curriculum.Remove(course.Topics, topicID, curriculum.TopicID)
	if !ok {
		return course, false
	}
	course.Topics = topics
	return course, true
}

// ToggleTopicLock flips the topic's general lock.
func ToggleTopicLock(course curriculum.Course, topicID string) (curriculum.Course, error) {
	return UpdateTopic(course, topicID, func(t curriculum.Topic) (curriculum.Topic, error) {
		return topic.SetLocked(t, !t.IsLocked), nil
	})
}

// ImportQuestionFromLibrary clones libraryQuestion under a new id into the topic.
// The imported question is returned alongside the updated course.
func (c *Curriculum) ImportQuestionFromLibrary(course curriculum.Course, topicID string, libraryQuestion curriculum.Question) (curriculum.Course, curriculum.Question, error) {
	if err := curriculum.CheckQuestion(libraryQuestion); err != nil {
		return course, curriculum.Question{}, err
	}
	clone := c.questions.CloneForLibraryReuse(libraryQuestion)
	updated, err := UpdateTopic(course, topicID, func(t curriculum.Topic) (curriculum.Topic, error) {
		return topic.AddQuestion(t, clone)
	})
	if err != nil {
		return course, curriculum.Question{}, err
	}
	return updated, clone, nil
}

// DeleteCourse removes the course with the given id from courses. Its topics go with it.
func DeleteCourse(courses []curriculum.Course, courseID string) ([]curriculum.Course, bool) {
	return curriculum.Remove(courses, courseID, curriculum.CourseID)
}

// Library returns every question across courses, de-duplicated by id in first-seen order.
func Library(courses []curriculum.Course) []curriculum.Question {
	seen := make(map[string]bool)
	var out []curriculum.Question
	for _, c := range courses {
		for _, t := range c.Topics {
			for _, q := range t.Questions {
				if seen[q.ID] {
					continue
				}
				seen[q.ID] = true
				out = append(out, q.Clone())
			}
		}
	}
	return out
}

// FindLibraryQuestion looks a question up by id across courses.
func FindLibraryQuestion(courses []curriculum.Course, questionID string) (curriculum.Question, error) {
	for _, c := range courses {
		for _, t := range c.Topics {
			if q, ok := t.Question(questionID); ok {
				return q.Clone(), nil
			}
		}
	}
	return curriculum.Question{}, curriculum.NotFound(curriculum.KindQuestion, questionID)
}
