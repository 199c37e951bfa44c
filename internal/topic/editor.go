// Package topic holds the copy-on-write operations on a single curriculum topic.
// Every function returns a new Topic value and leaves its argument untouched.
package topic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
)

// AddQuestion appends q. Structurally identical questions may be added more than once.
func AddQuestion(t curriculum.Topic, q curriculum.Question) (curriculum.Topic, error) {
	if err := curriculum.CheckQuestion(q); err != nil {
		return t, err
	}
	if _, dup := t.Question(q.ID); dup {
		return t, &curriculum.InvariantError{Reason: fmt.Sprintf("question %s already in topic %s", q.ID, t.ID)}
	}
	t.Questions = curriculum.Append(t.Questions, q)
	return t, nil
}

// UpdateQuestion replaces the question with the given id by fn's result, keeping its position.
func UpdateQuestion(t curriculum.Topic, id string, fn func(curriculum.Question) (curriculum.Question, error)) (curriculum.Topic, error) {
	questions, found, err := curriculum.Replace(t.Questions, id, curriculum.QuestionID, func(q curriculum.Question) (curriculum.Question, error) {
		updated, err := fn(q)
		if err != nil {
			return q, err
		}
		if updated.ID != id {
			return q, &curriculum.InvariantError{Reason: fmt.Sprintf("update changed question id %s to %s", id, updated.ID)}
		}
		if err := curriculum.CheckQuestion(updated); err != nil {
			return q, err
		}
		return updated, nil
	})
	if !found {
		return t, curriculum.NotFound(curriculum.KindQuestion, id)
	}
	if err != nil {
		return t, err
	}
	t.Questions = questions
	return t, nil
}

// RemoveQuestion drops the question with the given id. Removing an absent id is a no-op
// reported by ok=false.
func RemoveQuestion(t curriculum.Topic, id string) (curriculum.Topic, bool) {
	questions, ok := curriculum.Remove(t.Questions, id, curriculum.QuestionID)
	if !ok {
		return t, false
	}
	t.Questions = questions
	return t, true
}

// SetLocked sets the visibility gate. It does not touch the duration lock.
func SetLocked(t curriculum.Topic, locked bool) curriculum.Topic {
	t.IsLocked = locked
	return t
}

// SetDurationLocked sets the time-boxed access gate. It does not touch the general lock.
func SetDurationLocked(t curriculum.Topic, locked bool) curriculum.Topic {
	t.DurationLocked = locked
	return t
}

// SetAccessDuration sets the free-text window used while the duration lock is on.
func SetAccessDuration(t curriculum.Topic, d string) curriculum.Topic {
	t.AccessDuration = strings.TrimSpace(d)
	return t
}

// SetDeadline sets the optional deadline date string.
func SetDeadline(t curriculum.Topic, deadline string) curriculum.Topic {
	t.Deadline = strings.TrimSpace(deadline)
	return t
}

// SetContent replaces the topic prose.
func SetContent(t curriculum.Topic, text string) curriculum.Topic {
	t.Content = text
	return t
}

// SetTitle renames the topic. An empty title is rejected.
func SetTitle(t curriculum.Topic, title string) (curriculum.Topic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		verr := &curriculum.ValidationError{}
		verr.Add("title", "is required")
		return t, verr
	}
	t.Title = title
	return t, nil
}

// AddImage appends an opaque image reference.
func AddImage(t curriculum.Topic, ref string) (curriculum.Topic, error) {
	if strings.TrimSpace(ref) == "" {
		verr := &curriculum.ValidationError{}
		verr.Add("image", "reference is empty")
		return t, verr
	}
	t.Images = curriculum.Append(t.Images, ref)
	return t, nil
}

// RemoveImage drops the image at index.
func RemoveImage(t curriculum.Topic, index int) (curriculum.Topic, error) {
	if index < 0 || index >= len(t.Images) {
		return t, curriculum.NotFound(curriculum.KindImage, strconv.Itoa(index))
	}
	images := make([]string, 0, len(t.Images)-1)
	images = append(images, t.Images[:index]...)
	t.Images = append(images, t.Images[index+1:]...)
	return t, nil
}
