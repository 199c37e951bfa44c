// Package store holds the single source of truth for the top-level course list.
//
// Every course carries a version. Save only succeeds when the caller's copy has the
// stored version, so two editors working on the same course cannot silently overwrite
// each other.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
)

// Store persists courses in display order.
type Store interface {
	List(ctx context.Context) ([]curriculum.Course, error)
	Get(ctx context.Context, id string) (curriculum.Course, error)
	Create(ctx context.Context, c curriculum.Course) (curriculum.Course, error)
	Save(ctx context.Context, c curriculum.Course) (curriculum.Course, error)
	Delete(ctx context.Context, id string) error
}

// Seed creates every course that is not already stored. Existing ids are left alone so a
// restart does not clobber authored changes.
func Seed(ctx context.Context, s Store, courses []curriculum.Course) (int, error) {
	created := 0
	for _, c := range courses {
		_, err := s.Create(ctx, c)
		switch {
		case err == nil:
			created++
		case errors.Is(err, curriculum.ErrConflict):
			slog.Debug("seed course already stored", "course_id", c.ID)
		default:
			return created, fmt.Errorf("seeding course %s: %w", c.ID, err)
		}
	}
	return created, nil
}

func conflict(id string, have, want int64) error {
	return fmt.Errorf("%w: course %s is at version %d, write was based on %d", curriculum.ErrConflict, id, have, want)
}

func exists(id string) error {
	return fmt.Errorf("%w: course %s already exists", curriculum.ErrConflict, id)
}
