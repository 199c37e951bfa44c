package question_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/question"
)

func validMCQ() question.Draft {
	return question.Draft{
		Type:          curriculum.TypeMultipleChoice,
		Text:          "What is a for-loop?",
		Options:       []string{"syntax", "loop construct", "variable"},
		CorrectAnswer: "loop construct",
	}
}

func validCoding() question.Draft {
	return question.Draft{
		Type:        curriculum.TypeCoding,
		Text:        "Return the input",
		StarterCode: "def f(): pass",
		TestCases:   []curriculum.TestCase{{Input: "1", ExpectedOutput: "1"}},
	}
}

func TestCreate_MultipleChoice(t *testing.T) {
	b := question.NewBuilder(nil)

	q, err := b.Create(validMCQ())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if q.Type() != curriculum.TypeMultipleChoice {
		t.Errorf("Type() = %q, want multiple_choice", q.Type())
	}
	mc, _ := q.MultipleChoice()
	if mc.CorrectAnswer != "loop construct" {
		t.Errorf("CorrectAnswer = %q, want loop construct", mc.CorrectAnswer)
	}
	if !curriculum.IsCompleteMultipleChoice(q) {
		t.Error("created question should be complete")
	}
	if q.ID == "" {
		t.Error("Create() returned empty ID")
	}
}

func TestCreate_FreshIDs(t *testing.T) {
	b := question.NewBuilder(nil)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		q, err := b.Create(validMCQ())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[q.ID] {
			t.Fatalf("Create() reused id %q", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestCreate_DropsEmptyOptionSlots(t *testing.T) {
	d := validMCQ()
	d.Options = []string{"syntax", "", "loop construct", "  "}

	q, err := question.NewBuilder(nil).Create(d)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	mc, _ := q.MultipleChoice()
	if want := []string{"syntax", "loop construct"}; !reflect.DeepEqual(mc.Options, want) {
		t.Errorf("Options = %v, want %v", mc.Options, want)
	}
}

func TestCreate_NormalizesUnicode(t *testing.T) {
	d := validMCQ()
	d.Options = []string{"caf\u00e9", "tea"}
	d.CorrectAnswer = "cafe\u0301"

	q, err := question.NewBuilder(nil).Create(d)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	mc, _ := q.MultipleChoice()
	if mc.CorrectAnswer != "caf\u00e9" {
		t.Errorf("CorrectAnswer = %q, want composed form", mc.CorrectAnswer)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*question.Draft)
		base   func() question.Draft
		fields []string
	}{
		{"mcq missing text", func(d *question.Draft) { d.Text = "" }, validMCQ, []string{"question"}},
		{"mcq missing answer", func(d *question.Draft) { d.CorrectAnswer = "" }, validMCQ, []string{"correct_answer"}},
		{"mcq answer not an option", func(d *question.Draft) { d.CorrectAnswer = "recursion" }, validMCQ, []string{"correct_answer"}},
		{"mcq too few options", func(d *question.Draft) { d.Options = []string{"loop construct"} }, validMCQ, []string{"options"}},
		{"coding missing starter", func(d *question.Draft) { d.StarterCode = " " }, validCoding, []string{"starter_code"}},
		{"coding no test cases", func(d *question.Draft) { d.TestCases = nil }, validCoding, []string{"test_cases"}},
		{
			"coding empty row rejected",
			func(d *question.Draft) { d.TestCases = append(d.TestCases, curriculum.TestCase{}) },
			validCoding,
			[]string{"test_cases[1].input", "test_cases[1].expected_output"},
		},
		{
			"all errors at once",
			func(d *question.Draft) { d.Text = ""; d.StarterCode = ""; d.TestCases = nil },
			validCoding,
			[]string{"question", "starter_code", "test_cases"},
		},
		{"unknown type", func(d *question.Draft) { d.Type = "essay" }, validMCQ, []string{"type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.base()
			tt.mutate(&d)

			q, err := question.NewBuilder(nil).Create(d)
			if !errors.Is(err, curriculum.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			if q.ID != "" || q.Body != nil {
				t.Errorf("Create() returned a question alongside the error: %+v", q)
			}
			var verr *curriculum.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("Fields = %+v, want %v", verr.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if !verr.Has(f) {
					t.Errorf("missing field error %q in %+v", f, verr.Fields)
				}
			}
		})
	}
}

func TestCreate_DraftUntouchedOnFailure(t *testing.T) {
	d := validCoding()
	d.StarterCode = ""
	before := d.TestCases[0]

	if _, err := question.NewBuilder(nil).Create(d); err == nil {
		t.Fatal("Create() should fail without starter code")
	}
	if d.TestCases[0] != before || d.Text != "Return the input" {
		t.Error("Create() modified the draft")
	}
}

func TestUpdate_KeepsID(t *testing.T) {
	b := question.NewBuilder(nil)
	orig, err := b.Create(validMCQ())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := b.Update(orig, validCoding())
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ID != orig.ID {
		t.Errorf("Update() ID = %q, want %q", updated.ID, orig.ID)
	}
	if updated.Type() != curriculum.TypeCoding {
		t.Errorf("Update() Type() = %q, want coding", updated.Type())
	}
}

func TestUpdate_ValidationError(t *testing.T) {
	b := question.NewBuilder(nil)
	orig, _ := b.Create(validMCQ())

	d := validMCQ()
	d.CorrectAnswer = "nope"
	if _, err := b.Update(orig, d); !errors.Is(err, curriculum.ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
}

func TestUpdate_WithoutID(t *testing.T) {
	_, err := question.NewBuilder(nil).Update(curriculum.Question{}, validMCQ())
	if !errors.Is(err, curriculum.ErrInvariant) {
		t.Errorf("Update() error = %v, want ErrInvariant", err)
	}
}

func TestCloneForLibraryReuse(t *testing.T) {
	b := question.NewBuilder(nil)
	src, _ := b.Create(validCoding())

	clone := b.CloneForLibraryReuse(src)
	if clone.ID == src.ID {
		t.Fatal("clone.ID should differ from source ID")
	}

	withSrcID := clone
	withSrcID.ID = src.ID
	if !reflect.DeepEqual(withSrcID, src) {
		t.Errorf("clone differs beyond ID: %+v vs %+v", clone, src)
	}

	cd, _ := clone.Coding()
	cd.TestCases[0].Input = "changed"
	sd, _ := src.Coding()
	if sd.TestCases[0].Input != "1" {
		t.Error("clone shares test cases with source")
	}
}
