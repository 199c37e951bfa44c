package curriculum

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// questionDoc is the flat document shape of a Question in JSON and YAML.
type questionDoc struct {
	ID            string       `json:"id" yaml:"id"`
	Text          string       `json:"question" yaml:"question"`
	Type          QuestionType `json:"type" yaml:"type"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty" yaml:"correct_answer,omitempty"`
	StarterCode   string       `json:"starter_code,omitempty" yaml:"starter_code,omitempty"`
	TestCases     []TestCase   `json:"test_cases,omitempty" yaml:"test_cases,omitempty"`
}

func (q Question) toDoc() (questionDoc, error) {
	doc := questionDoc{ID: q.ID, Text: q.Text, Type: q.Type()}
	switch b := q.Body.(type) {
	case MultipleChoice:
		doc.Options = b.Options
		doc.CorrectAnswer = b.CorrectAnswer
	case Coding:
		doc.StarterCode = b.StarterCode
		doc.TestCases = b.TestCases
	default:
		return doc, &InvariantError{Reason: fmt.Sprintf("question %s has no recognised body", q.ID)}
	}
	return doc, nil
}

func (d questionDoc) toQuestion() (Question, error) {
	q := Question{ID: d.ID, Text: d.Text}
	switch d.Type {
	case TypeMultipleChoice:
		if d.StarterCode != "" || len(d.TestCases) > 0 {
			return q, &InvariantError{Reason: fmt.Sprintf("multiple_choice question %s carries coding fields", d.ID)}
		}
		q.Body = MultipleChoice{Options: d.Options, CorrectAnswer: d.CorrectAnswer}
	case TypeCoding:
		if len(d.Options) > 0 || d.CorrectAnswer != "" {
			return q, &InvariantError{Reason: fmt.Sprintf("coding question %s carries multiple-choice fields", d.ID)}
		}
		q.Body = Coding{StarterCode: d.StarterCode, TestCases: d.TestCases}
	default:
		return q, &InvariantError{Reason: fmt.Sprintf("question %s has unknown type %q", d.ID, d.Type)}
	}
	return q, nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	doc, err := q.toDoc()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var doc questionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	parsed, err := doc.toQuestion()
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func (q Question) MarshalYAML() (any, error) {
	return q.toDoc()
}

func (q *Question) UnmarshalYAML(node *yaml.Node) error {
	var doc questionDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	parsed, err := doc.toQuestion()
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
