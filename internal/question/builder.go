// Package question validates author drafts and turns them into curriculum questions.
package question

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
)

// Draft is the transient editor state for one question. It carries the fields of both
// variants; only the ones matching Type are read when building.
type Draft struct {
	Type          curriculum.QuestionType `json:"type"`
	Text          string                  `json:"question"`
	Options       []string                `json:"options,omitempty"`
	CorrectAnswer string                  `json:"correct_answer,omitempty"`
	StarterCode   string                  `json:"starter_code,omitempty"`
	TestCases     []curriculum.TestCase   `json:"test_cases,omitempty"`
}

// Builder constructs questions from drafts.
type Builder struct {
	ids curriculum.IDGenerator
}

// NewBuilder creates a builder minting ids from ids.
func NewBuilder(ids curriculum.IDGenerator) *Builder {
	if ids == nil {
		ids = curriculum.TimestampIDs{}
	}
	return &Builder{ids: ids}
}

// Create validates d and returns a new question with a fresh id.
// On failure the returned error is a *curriculum.ValidationError listing every bad field.
func (b *Builder) Create(d Draft) (curriculum.Question, error) {
	q, err := build(d)
	if err != nil {
		return curriculum.Question{}, err
	}
	q.ID = b.ids.NewID(curriculum.PrefixQuestion)
	return q, nil
}

// Update validates d and returns the edited question under existing's id.
// The variant may change between edits.
func (b *Builder) Update(existing curriculum.Question, d Draft) (curriculum.Question, error) {
	if existing.ID == "" {
		return curriculum.Question{}, &curriculum.InvariantError{Reason: "cannot update a question without id"}
	}
	q, err := build(d)
	if err != nil {
		return curriculum.Question{}, err
	}
	q.ID = existing.ID
	return q, nil
}

// CloneForLibraryReuse copies source verbatim under a new id. The copy shares no
// slices with source, so later edits to either never reach the other.
func (b *Builder) CloneForLibraryReuse(source curriculum.Question) curriculum.Question {
	q := source.Clone()
	q.ID = b.ids.NewID(curriculum.PrefixQuestion)
	return q
}

func build(d Draft) (curriculum.Question, error) {
	var verr curriculum.ValidationError

	text := normalize(d.Text)
	if text == "" {
		verr.Add("question", "is required")
	}

	q := curriculum.Question{Text: text}
	switch d.Type {
	case curriculum.TypeMultipleChoice:
		q.Body = buildMultipleChoice(d, &verr)
	case curriculum.TypeCoding:
		q.Body = buildCoding(d, &verr)
	default:
		verr.Add("type", fmt.Sprintf("must be %q or %q", curriculum.TypeMultipleChoice, curriculum.TypeCoding))
	}

	if err := verr.Err(); err != nil {
		return curriculum.Question{}, err
	}
	return q, nil
}

func buildMultipleChoice(d Draft, verr *curriculum.ValidationError) curriculum.MultipleChoice {
	// Unused option slots are dropped; the remaining order is kept.
	options := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		if o = normalize(o); o != "" {
			options = append(options, o)
		}
	}
	if len(options) < 2 {
		verr.Add("options", "at least two non-empty options are required")
	}

	answer := normalize(d.CorrectAnswer)
	switch {
	case answer == "":
		verr.Add("correct_answer", "is required")
	case !contains(options, answer):
		verr.Add("correct_answer", "must match one of the options")
	}

	return curriculum.MultipleChoice{Options: options, CorrectAnswer: answer}
}

func buildCoding(d Draft, verr *curriculum.ValidationError) curriculum.Coding {
	if strings.TrimSpace(d.StarterCode) == "" {
		verr.Add("starter_code", "is required")
	}
	if len(d.TestCases) == 0 {
		verr.Add("test_cases", "at least one test case is required")
	}

	cases := make([]curriculum.TestCase, len(d.TestCases))
	for i, tc := range d.TestCases {
		if strings.TrimSpace(tc.Input) == "" {
			verr.Add(fmt.Sprintf("test_cases[%d].input", i), "is required")
		}
		if strings.TrimSpace(tc.ExpectedOutput) == "" {
			verr.Add(fmt.Sprintf("test_cases[%d].expected_output", i), "is required")
		}
		cases[i] = tc
	}

	return curriculum.Coding{StarterCode: d.StarterCode, TestCases: cases}
}

// normalize trims and puts text in NFC so visually equal strings compare equal.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
