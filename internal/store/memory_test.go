package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/store"
)

func sampleCourse(id string) curriculum.Course {
	return curriculum.Course{
		ID:    id,
		Title: "DSA 101",
		Level: curriculum.LevelBeginner,
		Tags:  []string{},
		Topics: []curriculum.Topic{{
			ID:    id + "-loops",
			Title: "Loops",
			Questions: []curriculum.Question{{
				ID:   id + "-q1",
				Text: "What is a for-loop?",
				Body: curriculum.MultipleChoice{Options: []string{"syntax", "loop construct"}, CorrectAnswer: "loop construct"},
			}},
		}},
	}
}

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	created, err := s.Create(ctx, sampleCourse("c-1"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Version != 1 {
		t.Errorf("Version = %d, want 1", created.Version)
	}
	if _, err := s.Create(ctx, sampleCourse("c-2")); err != nil {
		t.Fatalf("Create(c-2) error = %v", err)
	}
	if _, err := s.Create(ctx, sampleCourse("c-1")); !errors.Is(err, curriculum.ErrConflict) {
		t.Errorf("Create(duplicate) error = %v, want ErrConflict", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "c-1" || list[1].ID != "c-2" {
		t.Fatalf("List() = %v, want c-1, c-2 in order", ids(list))
	}

	got, err := s.Get(ctx, "c-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Topics[0].Questions[0].Type() != curriculum.TypeMultipleChoice {
		t.Errorf("question type = %q after round trip", got.Topics[0].Questions[0].Type())
	}

	got.Title = "DSA 102"
	saved, err := s.Save(ctx, got)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Version != 2 {
		t.Errorf("Version after save = %d, want 2", saved.Version)
	}

	// got still carries version 1: a second writer working from it must be rejected.
	got.Title = "stale"
	if _, err := s.Save(ctx, got); !errors.Is(err, curriculum.ErrConflict) {
		t.Errorf("Save(stale) error = %v, want ErrConflict", err)
	}
	current, _ := s.Get(ctx, "c-1")
	if current.Title != "DSA 102" {
		t.Errorf("Title = %q, stale write should not land", current.Title)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	ghost := sampleCourse("ghost")
	ghost.Version = 1
	if _, err := s.Save(ctx, ghost); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Save(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, "c-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "c-1"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Delete(again) error = %v, want ErrNotFound", err)
	}
	list, _ = s.List(ctx)
	if len(list) != 1 || list[0].ID != "c-2" {
		t.Errorf("List() after delete = %v, want c-2", ids(list))
	}

	broken := sampleCourse("c-3")
	broken.Topics[0].Questions[0].Body = nil
	if _, err := s.Create(ctx, broken); !errors.Is(err, curriculum.ErrInvariant) {
		t.Errorf("Create(broken) error = %v, want ErrInvariant", err)
	}
}

func ids(cs []curriculum.Course) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, store.NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	s.Create(ctx, sampleCourse("c-1"))

	got, _ := s.Get(ctx, "c-1")
	got.Topics[0].Title = "mutated"

	again, _ := s.Get(ctx, "c-1")
	if again.Topics[0].Title != "Loops" {
		t.Error("Get() returned a value aliasing stored state")
	}
}

func TestSeed_SkipsExisting(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	s.Create(ctx, sampleCourse("c-1"))

	n, err := store.Seed(ctx, s, []curriculum.Course{sampleCourse("c-1"), sampleCourse("c-2")})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Seed() created %d, want 1", n)
	}
}
