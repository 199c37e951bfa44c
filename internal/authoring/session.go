package authoring

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/navigation"
)

const maxNotices = 20

// Session is one editor's walk through the drill-down. It keeps the navigation state and a
// snapshot of the selected course; every saved mutation of that course is written into
// the snapshot as well as the store.
type Session struct {
	id       string
	mu       sync.Mutex
	state    navigation.State
	snapshot *curriculum.Course
	notices  []Notice
	touched  time.Time
}

// View is what an editor sees for a session.
type View struct {
	SessionID string             `json:"session_id"`
	State     navigation.State   `json:"state"`
	Course    *curriculum.Course `json:"course,omitempty"`
	Topic     *curriculum.Topic  `json:"topic,omitempty"`
	Notices   []Notice           `json:"notices"`
}

// viewLocked must be called with s.mu held.
func (s *Session) viewLocked() View {
	v := View{
		SessionID: s.id,
		State:     s.state,
		Notices:   append([]Notice{}, s.notices...),
	}
	if s.snapshot == nil || s.state.Screen == navigation.ScreenCourses {
		return v
	}
	c := s.snapshot.Clone()
	v.Course = &c
	if s.state.TopicID != "" {
		if t, ok := c.Topic(s.state.TopicID); ok {
			v.Topic = &t
		}
	}
	return v
}

// setCourseLocked replaces the snapshot with c and moves the state to the nearest screen
// that is still valid for it. c == nil means the course is gone. Must hold s.mu.
func (s *Session) setCourseLocked(c *curriculum.Course) error {
	next, err := s.state.Reconcile(c)
	s.state = next
	if next.Screen == navigation.ScreenCourses || c == nil {
		s.snapshot = nil
		return err
	}
	cp := c.Clone()
	s.snapshot = &cp
	return err
}

// Sessions is the registry of live sessions.
type Sessions struct {
	mu       sync.RWMutex
	byID     map[string]*Session
	notifier Notifier
	now      func() time.Time
}

// NewSessions creates an empty registry. Notices are also forwarded to n.
func NewSessions(n Notifier) *Sessions {
	if n == nil {
		n = NopNotifier{}
	}
	return &Sessions{
		byID:     make(map[string]*Session),
		notifier: n,
		now:      time.Now,
	}
}

// Start opens a session on the Courses screen.
func (r *Sessions) Start() View {
	s := &Session{
		id:      uuid.NewString(),
		state:   navigation.Initial(),
		notices: []Notice{},
		touched: r.now(),
	}
	v := s.viewLocked()
	r.mu.Lock()
	r.byID[s.id] = s
	r.mu.Unlock()

	slog.Info("authoring session started", "session_id", s.id)
	return v
}

// View returns the current view of session id.
func (r *Sessions) View(id string) (View, error) {
	s, err := r.get(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(), nil
}

// End closes session id.
func (r *Sessions) End(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return curriculum.NotFound(curriculum.KindSession, id)
	}
	delete(r.byID, id)
	slog.Info("authoring session ended", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Prune ends sessions idle for longer than maxIdle and returns how many were ended.
func (r *Sessions) Prune(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.byID {
		s.mu.Lock()
		idle := s.touched.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.byID, id)
			n++
		}
	}
	if n > 0 {
		slog.Info("pruned idle authoring sessions", "count", n)
	}
	return n
}

func (r *Sessions) get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, curriculum.NotFound(curriculum.KindSession, id)
	}
	return s, nil
}

// notify records n on session id and forwards it to live listeners.
func (r *Sessions) notify(id string, n Notice) {
	s, err := r.get(id)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = append([]Notice{}, s.notices[len(s.notices)-maxNotices:]...)
	}
	s.mu.Unlock()
	r.notifier.Notify(id, n)
}

func (r *Sessions) viewing(courseID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.byID {
		s.mu.Lock()
		on := s.state.CourseID == courseID
		s.mu.Unlock()
		if on {
			out = append(out, s)
		}
	}
	return out
}

// sync writes a saved course into every session viewing it. A session whose topic
// disappeared falls back to the Topics screen and is told why. Sessions already holding
// the same or a newer version are left alone, so saves that finish out of order never
// roll a snapshot back.
func (r *Sessions) sync(c curriculum.Course) {
	for _, s := range r.viewing(c.ID) {
		s.mu.Lock()
		if s.snapshot != nil && s.snapshot.Version >= c.Version {
			s.mu.Unlock()
			continue
		}
		err := s.setCourseLocked(&c)
		s.mu.Unlock()
		r.reportFallback(s.id, c.ID, err)
	}
}

// drop moves every session viewing a deleted course back to the Courses screen.
func (r *Sessions) drop(courseID string) {
	for _, s := range r.viewing(courseID) {
		s.mu.Lock()
		err := s.setCourseLocked(nil)
		s.mu.Unlock()
		r.reportFallback(s.id, courseID, err)
	}
}

func (r *Sessions) reportFallback(sessionID, courseID string, err error) {
	if err == nil {
		return
	}
	if !errors.Is(err, curriculum.ErrNotFound) {
		slog.Error("session reconcile failed", "session_id", sessionID, "course_id", courseID, "error", err)
	}
	n := NoticeFor(err)
	n.CourseID = courseID
	r.notify(sessionID, n)
}
