package authoring

import (
	"context"
	"errors"
	"time"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/navigation"
)

// NoticeKind tells the editor which kind of outcome a Notice reports.
type NoticeKind string

const (
	NoticeSuccess           NoticeKind = "success"
	NoticeValidation        NoticeKind = "validation"
	NoticeNotFound          NoticeKind = "not_found"
	NoticeConflict          NoticeKind = "conflict"
	NoticeInvalidTransition NoticeKind = "invalid_transition"
	NoticeInvariant         NoticeKind = "invariant"
	NoticeError             NoticeKind = "error"
)

// Notice is the user-facing outcome of an authoring action.
type Notice struct {
	Kind     NoticeKind              `json:"kind"`
	Message  string                  `json:"message"`
	Fields   []curriculum.FieldError `json:"fields,omitempty"`
	CourseID string                  `json:"course_id,omitempty"`
	At       time.Time               `json:"at"`
}

// Success returns a success notice.
func Success(message string) Notice {
	return Notice{Kind: NoticeSuccess, Message: message, At: time.Now().UTC()}
}

// NoticeFor classifies err. Invariant and unknown errors get a generic message; their
// details belong in the log, not in front of the author.
func NoticeFor(err error) Notice {
	n := Notice{Kind: NoticeError, Message: "Something went wrong. Please try again.", At: time.Now().UTC()}

	var (
		verr *curriculum.ValidationError
		nerr *curriculum.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		n.Kind = NoticeValidation
		n.Message = "Please fix the highlighted fields."
		n.Fields = append([]curriculum.FieldError(nil), verr.Fields...)
	case errors.As(err, &nerr):
		n.Kind = NoticeNotFound
		n.Message = "The " + nerr.Kind + " no longer exists."
	case errors.Is(err, curriculum.ErrConflict):
		n.Kind = NoticeConflict
		n.Message = "This course was changed by someone else. Reload and try again."
	case errors.Is(err, navigation.ErrInvalidTransition):
		n.Kind = NoticeInvalidTransition
		n.Message = "That action is not available here."
	case errors.Is(err, curriculum.ErrInvariant):
		n.Kind = NoticeInvariant
		n.Message = "The change was refused because the data is inconsistent."
	}
	return n
}

// Notifier delivers notices to a session's live listeners.
type Notifier interface {
	Notify(sessionID string, n Notice)
}

// NopNotifier drops every notice.
type NopNotifier struct{}

func (NopNotifier) Notify(string, Notice) {}

type sessionKey struct{}

// WithSession marks ctx as acting on behalf of the given session.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the acting session id, or "".
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
