package curriculum

import (
	"fmt"
	"slices"
	"strings"
)

// IsCompleteMultipleChoice reports whether q is a fully authored multiple-choice question.
func IsCompleteMultipleChoice(q Question) bool {
	mc, ok := q.MultipleChoice()
	if !ok || blank(q.Text) {
		return false
	}
	filled := 0
	for _, o := range mc.Options {
		if !blank(o) {
			filled++
		}
	}
	return filled >= 2 && !blank(mc.CorrectAnswer) && slices.Contains(mc.Options, mc.CorrectAnswer)
}

// IsCompleteCoding reports whether q is a fully authored coding question.
func IsCompleteCoding(q Question) bool {
	c, ok := q.Coding()
	if !ok || blank(q.Text) || blank(c.StarterCode) || len(c.TestCases) == 0 {
		return false
	}
	for _, tc := range c.TestCases {
		if !tc.Filled() {
			return false
		}
	}
	return true
}

// IsComplete dispatches on the question variant.
func IsComplete(q Question) bool {
	switch q.Type() {
	case TypeMultipleChoice:
		return IsCompleteMultipleChoice(q)
	case TypeCoding:
		return IsCompleteCoding(q)
	}
	return false
}

// IsCompleteTopic reports whether t has a title. Content may be filled in later.
func IsCompleteTopic(t Topic) bool {
	return !blank(t.Title)
}

// Filled reports whether both input and expected output are present.
func (tc TestCase) Filled() bool {
	return !blank(tc.Input) && !blank(tc.ExpectedOutput)
}

// CheckQuestion verifies the structural shape of q, independent of completeness.
func CheckQuestion(q Question) error {
	if q.ID == "" {
		return &InvariantError{Reason: "question has no id"}
	}
	if q.Type() == "" {
		return &InvariantError{Reason: fmt.Sprintf("question %s has no recognised body (%T)", q.ID, q.Body)}
	}
	return nil
}

// CheckTopicMembership verifies that topicID belongs to course.
func CheckTopicMembership(course Course, topicID string) error {
	if IndexOf(course.Topics, topicID, TopicID) < 0 {
		return &InvariantError{Reason: fmt.Sprintf("topic %s is not a member of course %s", topicID, course.ID)}
	}
	return nil
}

// CheckCourse verifies every question in the course and that topic ids are unique within it.
func CheckCourse(c Course) error {
	if c.ID == "" {
		return &InvariantError{Reason: "course has no id"}
	}
	seen := make(map[string]bool, len(c.Topics))
	for _, t := range c.Topics {
		if t.ID == "" {
			return &InvariantError{Reason: fmt.Sprintf("course %s has a topic without id", c.ID)}
		}
		if seen[t.ID] {
			return &InvariantError{Reason: fmt.Sprintf("topic %s appears twice in course %s", t.ID, c.ID)}
		}
		seen[t.ID] = true
		for _, q := range t.Questions {
			if err := CheckQuestion(q); err != nil {
				return err
			}
		}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
