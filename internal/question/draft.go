package question

import "github.com/p-n-ai/pai-studio/internal/curriculum"

// NewDraft returns an empty draft of the given type. Coding drafts start with one
// empty test case row for the author to fill in.
func NewDraft(t curriculum.QuestionType) Draft {
	d := Draft{Type: t}
	if t == curriculum.TypeCoding {
		d.TestCases = []curriculum.TestCase{{}}
	}
	return d
}

// DraftFrom opens an existing question for editing.
func DraftFrom(q curriculum.Question) Draft {
	d := Draft{Type: q.Type(), Text: q.Text}
	switch b := q.Body.(type) {
	case curriculum.MultipleChoice:
		d.Options = append([]string(nil), b.Options...)
		d.CorrectAnswer = b.CorrectAnswer
	case curriculum.Coding:
		d.StarterCode = b.StarterCode
		d.TestCases = append([]curriculum.TestCase(nil), b.TestCases...)
	}
	if d.Type == curriculum.TypeCoding && len(d.TestCases) == 0 {
		d.TestCases = []curriculum.TestCase{{}}
	}
	return d
}

// AddTestCase appends an empty test case row.
func (d Draft) AddTestCase() Draft {
	d.TestCases = append(append([]curriculum.TestCase(nil), d.TestCases...), curriculum.TestCase{})
	return d
}

// RemoveTestCase drops the row at i. The last remaining row is cleared instead of
// removed, so the editor always shows at least one.
func (d Draft) RemoveTestCase(i int) Draft {
	if i < 0 || i >= len(d.TestCases) {
		return d
	}
	if len(d.TestCases) == 1 {
		d.TestCases = []curriculum.TestCase{{}}
		return d
	}
	cases := make([]curriculum.TestCase, 0, len(d.TestCases)-1)
	cases = append(cases, d.TestCases[:i]...)
	d.TestCases = append(cases, d.TestCases[i+1:]...)
	return d
}

// SetTestCase replaces the row at i.
func (d Draft) SetTestCase(i int, tc curriculum.TestCase) Draft {
	if i < 0 || i >= len(d.TestCases) {
		return d
	}
	cases := append([]curriculum.TestCase(nil), d.TestCases...)
	cases[i] = tc
	d.TestCases = cases
	return d
}
