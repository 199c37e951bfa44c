// Package navigation models the authoring drill-down as an explicit finite-state value:
//
//	Courses -> Topics(course) -> TopicDetail(course, topic) -> Assessment(course, topic)
//
// States refer to the selected course and topic by id only. Transitions are pure and
// return the next state; a failed transition returns the state to fall back to.
package navigation

import (
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
)

// Screen identifies a level of the drill-down.
type Screen string

const (
	ScreenCourses     Screen = "courses"
	ScreenTopics      Screen = "topics"
	ScreenTopicDetail Screen = "topic_detail"
	ScreenAssessment  Screen = "assessment"
)

// ErrInvalidTransition is returned for a transition not allowed from the current screen.
var ErrInvalidTransition = errors.New("invalid navigation transition")

// State is the current position in the drill-down.
type State struct {
	Screen   Screen `json:"screen"`
	CourseID string `json:"course_id,omitempty"`
	TopicID  string `json:"topic_id,omitempty"`
}

// Initial returns the Courses state with nothing selected.
func Initial() State {
	return State{Screen: ScreenCourses}
}

func (s State) String() string {
	switch s.Screen {
	case ScreenTopics:
		return fmt.Sprintf("topics(%s)", s.CourseID)
	case ScreenTopicDetail, ScreenAssessment:
		return fmt.Sprintf("%s(%s, %s)", s.Screen, s.CourseID, s.TopicID)
	}
	return string(s.Screen)
}

func (s State) invalid(action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, s.Screen)
}

// SelectCourse moves from Courses to Topics(course).
func (s State) SelectCourse(course curriculum.Course) (State, error) {
	if s.Screen != ScreenCourses {
		return s, s.invalid("select course")
	}
	if course.ID == "" {
		return s, &curriculum.InvariantError{Reason: "cannot select a course without id"}
	}
	return State{Screen: ScreenTopics, CourseID: course.ID}, nil
}

// SelectTopic moves from Topics(course) to TopicDetail(course, topic). A topic id that is
// no longer in the course yields a NotFoundError and the Topics state.
func (s State) SelectTopic(course curriculum.Course, topicID string) (State, error) {
	if s.Screen != ScreenTopics {
		return s, s.invalid("select topic")
	}
	if course.ID != s.CourseID {
		return s, &curriculum.InvariantError{Reason: fmt.Sprintf("topic lookup in course %s while %s is selected", course.ID, s.CourseID)}
	}
	if _, ok := course.Topic(topicID); !ok {
		return s, curriculum.NotFound(curriculum.KindTopic, topicID)
	}
	return State{Screen: ScreenTopicDetail, CourseID: s.CourseID, TopicID: topicID}, nil
}

// OpenAssessment moves from TopicDetail to Assessment for the same course and topic.
func (s State) OpenAssessment() (State, error) {
	if s.Screen != ScreenTopicDetail {
		return s, s.invalid("open assessment")
	}
	s.Screen = ScreenAssessment
	return s, nil
}

// Back moves exactly one level up, dropping the deepest selection.
// Courses has no parent, so Back there is an invalid transition.
func (s State) Back() (State, error) {
	switch s.Screen {
	case ScreenAssessment:
		return State{Screen: ScreenTopicDetail, CourseID: s.CourseID, TopicID: s.TopicID}, nil
	case ScreenTopicDetail:
		return State{Screen: ScreenTopics, CourseID: s.CourseID}, nil
	case ScreenTopics:
		return Initial(), nil
	}
	return s, s.invalid("back")
}

// Reconcile checks the state against the current course (nil when it no longer exists) and
// returns the nearest valid state. The error names the selection that disappeared.
func (s State) Reconcile(course *curriculum.Course) (State, error) {
	if s.Screen == ScreenCourses {
		return s, nil
	}
	if course == nil || course.ID != s.CourseID {
		return Initial(), curriculum.NotFound(curriculum.KindCourse, s.CourseID)
	}
	if s.Screen == ScreenTopics {
		return s, nil
	}
	if _, ok := course.Topic(s.TopicID); !ok {
		return State{Screen: ScreenTopics, CourseID: s.CourseID}, curriculum.NotFound(curriculum.KindTopic, s.TopicID)
	}
	return s, nil
}
