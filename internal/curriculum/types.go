package curriculum

import "time"

// Level is a course difficulty level.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Course is the root of the content hierarchy. Topics are kept in authoring order.
type Course struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Level       Level     `json:"level" yaml:"level"`
	Duration    string    `json:"duration" yaml:"duration"`
	Lessons     int       `json:"lessons" yaml:"lessons"`
	Enrollments int       `json:"enrollments" yaml:"enrollments"`
	Tags        []string  `json:"tags" yaml:"tags"`
	IsLocked    bool      `json:"is_locked" yaml:"is_locked"`
	Topics      []Topic   `json:"topics" yaml:"topics"`
	Version     int64     `json:"version" yaml:"-"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// Topic is a unit of course content with its assessment questions.
type Topic struct {
	ID             string     `json:"id" yaml:"id"`
	Title          string     `json:"title" yaml:"title"`
	Content        string     `json:"content" yaml:"content"`
	Questions      []Question `json:"questions" yaml:"questions"`
	IsLocked       bool       `json:"is_locked" yaml:"is_locked"`
	DurationLocked bool       `json:"duration_locked" yaml:"duration_locked"`
	AccessDuration string     `json:"access_duration,omitempty" yaml:"access_duration"`
	Images         []string   `json:"images" yaml:"images"`
	Deadline       string     `json:"deadline,omitempty" yaml:"deadline"`
}

// QuestionType is the discriminator of a Question's body.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeCoding         QuestionType = "coding"
)

// Question is an assessment item. Exactly one body variant is attached.
type Question struct {
	ID   string
	Text string
	Body QuestionBody
}

// QuestionBody is implemented only by MultipleChoice and Coding.
type QuestionBody interface {
	clone() QuestionBody
}

// MultipleChoice is the body of a multiple_choice question.
type MultipleChoice struct {
	Options       []string
	CorrectAnswer string
}

// Coding is the body of a coding question.
type Coding struct {
	StarterCode string
	TestCases   []TestCase
}

// TestCase is one input/expected-output pair of a coding question.
type TestCase struct {
	Input          string `json:"input" yaml:"input"`
	ExpectedOutput string `json:"expected_output" yaml:"expected_output"`
	Hidden         bool   `json:"hidden" yaml:"hidden"`
}

func (m MultipleChoice) clone() QuestionBody {
	m.Options = cloneStrings(m.Options)
	return m
}

func (c Coding) clone() QuestionBody {
	if c.TestCases != nil {
		c.TestCases = append(make([]TestCase, 0, len(c.TestCases)), c.TestCases...)
	}
	return c
}

// Type returns the question's discriminator, or "" when no body is attached.
func (q Question) Type() QuestionType {
	switch q.Body.(type) {
	case MultipleChoice:
		return TypeMultipleChoice
	case Coding:
		return TypeCoding
	}
	return ""
}

// MultipleChoice returns the multiple-choice body, if that is the variant.
func (q Question) MultipleChoice() (MultipleChoice, bool) {
	b, ok := q.Body.(MultipleChoice)
	return b, ok
}

// Coding returns the coding body, if that is the variant.
func (q Question) Coding() (Coding, bool) {
	b, ok := q.Body.(Coding)
	return b, ok
}

// Clone returns a deep copy of q.
func (q Question) Clone() Question {
	if q.Type() != "" {
		q.Body = q.Body.clone()
	}
	return q
}

// Clone returns a deep copy of t.
func (t Topic) Clone() Topic {
	if t.Questions != nil {
		qs := make([]Question, len(t.Questions))
		for i, q := range t.Questions {
			qs[i] = q.Clone()
		}
		t.Questions = qs
	}
	t.Images = cloneStrings(t.Images)
	return t
}

// Clone returns a deep copy of c.
func (c Course) Clone() Course {
	if c.Topics != nil {
		ts := make([]Topic, len(c.Topics))
		for i, t := range c.Topics {
			ts[i] = t.Clone()
		}
		c.Topics = ts
	}
	c.Tags = cloneStrings(c.Tags)
	return c
}

// Topic returns the topic with the given id.
func (c Course) Topic(id string) (Topic, bool) {
	i := IndexOf(c.Topics, id, TopicID)
	if i < 0 {
		return Topic{}, false
	}
	return c.Topics[i], true
}

// Question returns the question with the given id.
func (t Topic) Question(id string) (Question, bool) {
	i := IndexOf(t.Questions, id, QuestionID)
	if i < 0 {
		return Question{}, false
	}
	return t.Questions[i], true
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
