package authoring_test

import (
	"testing"

	"github.com/p-n-ai/pai-studio/internal/authoring"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := authoring.NewMemoryEventLogger()

	err := logger.LogEvent(authoring.Event{
		SessionID: "s-1",
		CourseID:  "c-1",
		EventType: authoring.EventTopicAdded,
		Data: map[string]any{
			"topic_id": "t-1",
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != authoring.EventTopicAdded {
		t.Errorf("EventType = %q, want topic_added", events[0].EventType)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := authoring.NewMemoryEventLogger()
	if err := logger.LogEvent(authoring.Event{CourseID: "c-1"}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := authoring.NewPostgresEventLogger(nil)

	err := logger.LogEvent(authoring.Event{
		CourseID:  "c-1",
		EventType: authoring.EventCourseCreated,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestNopEventLogger(t *testing.T) {
	var logger authoring.EventLogger = authoring.NopEventLogger{}
	if err := logger.LogEvent(authoring.Event{}); err != nil {
		t.Errorf("LogEvent() error = %v", err)
	}
}
