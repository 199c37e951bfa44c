package authoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/p-n-ai/pai-studio/internal/authoring"
	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/navigation"
)

func TestSession_DrillDownAndBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, loops := seedLoops(t, f)

	s := f.svc.StartSession()
	if s.State != navigation.Initial() || s.Course != nil {
		t.Fatalf("new session view = %+v, want Courses", s)
	}

	steps := []struct {
		name string
		do   func() (authoring.View, error)
		want navigation.State
	}{
		{"select course", func() (authoring.View, error) { return f.svc.SelectCourse(ctx, s.SessionID, c.ID) },
			navigation.State{Screen: navigation.ScreenTopics, CourseID: c.ID}},
		{"select topic", func() (authoring.View, error) { return f.svc.SelectTopic(ctx, s.SessionID, loops.ID) },
			navigation.State{Screen: navigation.ScreenTopicDetail, CourseID: c.ID, TopicID: loops.ID}},
		{"open assessment", func() (authoring.View, error) { return f.svc.OpenAssessment(ctx, s.SessionID) },
			navigation.State{Screen: navigation.ScreenAssessment, CourseID: c.ID, TopicID: loops.ID}},
		{"back to detail", func() (authoring.View, error) { return f.svc.Back(ctx, s.SessionID) },
			navigation.State{Screen: navigation.ScreenTopicDetail, CourseID: c.ID, TopicID: loops.ID}},
		{"back to topics", func() (authoring.View, error) { return f.svc.Back(ctx, s.SessionID) },
			navigation.State{Screen: navigation.ScreenTopics, CourseID: c.ID}},
		{"back to courses", func() (authoring.View, error) { return f.svc.Back(ctx, s.SessionID) },
			navigation.Initial()},
	}

	for _, step := range steps {
		v, err := step.do()
		if err != nil {
			t.Fatalf("%s: error = %v", step.name, err)
		}
		if v.State != step.want {
			t.Fatalf("%s: State = %v, want %v", step.name, v.State, step.want)
		}
		switch v.State.Screen {
		case navigation.ScreenCourses:
			if v.Course != nil || v.Topic != nil {
				t.Errorf("%s: Courses view still carries a selection", step.name)
			}
		case navigation.ScreenTopics:
			if v.Course == nil || v.Topic != nil {
				t.Errorf("%s: Topics view = course %v, topic %v", step.name, v.Course != nil, v.Topic != nil)
			}
		default:
			if v.Topic == nil || v.Topic.ID != loops.ID {
				t.Errorf("%s: Topic = %+v, want Loops", step.name, v.Topic)
			}
		}
	}
}

func TestSession_SelectMissingTopicStaysOnTopics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, _ := seedLoops(t, f)

	s := f.svc.StartSession()
	f.svc.SelectCourse(ctx, s.SessionID, c.ID)

	v, err := f.svc.SelectTopic(ctx, s.SessionID, "t-gone")
	if !errors.Is(err, curriculum.ErrNotFound) {
		t.Fatalf("SelectTopic() error = %v, want ErrNotFound", err)
	}
	want := navigation.State{Screen: navigation.ScreenTopics, CourseID: c.ID}
	if v.State != want {
		t.Errorf("State = %v, want %v", v.State, want)
	}
	if len(v.Notices) != 1 || v.Notices[0].Kind != authoring.NoticeNotFound {
		t.Errorf("Notices = %+v, want one not_found", v.Notices)
	}
}

func TestSession_SelectTopicAfterCourseDeletedInStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, loops := seedLoops(t, f)

	s := f.svc.StartSession()
	f.svc.SelectCourse(ctx, s.SessionID, c.ID)
	// Removed behind the service's back, so no session sync happened.
	if err := f.st.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	v, err := f.svc.SelectTopic(ctx, s.SessionID, loops.ID)
	if !errors.Is(err, curriculum.ErrNotFound) {
		t.Fatalf("SelectTopic() error = %v, want ErrNotFound", err)
	}
	if v.State != navigation.Initial() {
		t.Errorf("State = %v, want courses", v.State)
	}
}

func TestSession_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.svc.StartSession()

	if _, err := f.svc.Back(ctx, s.SessionID); !errors.Is(err, navigation.ErrInvalidTransition) {
		t.Errorf("Back() from Courses error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.OpenAssessment(ctx, s.SessionID); !errors.Is(err, navigation.ErrInvalidTransition) {
		t.Errorf("OpenAssessment() from Courses error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.SelectTopic(ctx, s.SessionID, "t-1"); !errors.Is(err, navigation.ErrInvalidTransition) {
		t.Errorf("SelectTopic() from Courses error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.SelectCourse(ctx, s.SessionID, "c-missing"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("SelectCourse(missing) error = %v, want ErrNotFound", err)
	}

	v, _ := f.svc.Session(s.SessionID)
	if v.State != navigation.Initial() {
		t.Errorf("State = %v, want courses", v.State)
	}
	if len(v.Notices) != 4 {
		t.Errorf("len(Notices) = %d, want 4", len(v.Notices))
	}
}

func TestSessions_Registry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.svc.StartSession()

	if _, err := f.svc.Session("nope"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Session(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Back(ctx, "nope"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Back(unknown) error = %v, want ErrNotFound", err)
	}
	if got := f.svc.Sessions().Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	if err := f.svc.EndSession(s.SessionID); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if err := f.svc.EndSession(s.SessionID); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("EndSession(again) error = %v, want ErrNotFound", err)
	}
}

func TestSessions_Prune(t *testing.T) {
	r := authoring.NewSessions(nil)
	r.Start()
	r.Start()

	if n := r.Prune(time.Hour); n != 0 {
		t.Errorf("Prune(1h) = %d, want 0", n)
	}
	if n := r.Prune(-time.Minute); n != 2 {
		t.Errorf("Prune(-1m) = %d, want 2", n)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestSessions_NoticeHistoryIsBounded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.svc.StartSession()
	for i := 0; i < 30; i++ {
		f.svc.Back(ctx, s.SessionID)
	}
	v, _ := f.svc.Session(s.SessionID)
	if len(v.Notices) != 20 {
		t.Errorf("len(Notices) = %d, want 20", len(v.Notices))
	}
}
