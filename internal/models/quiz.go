package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidQuiz is returned when a quiz definition is incomplete
var ErrInvalidQuiz = errors.New("invalid quiz")

// Category selects the scoring rubric of a quiz
type Category string

const (
	CategoryAnxiety    Category = "anxiety"
	CategoryDepression Category = "depression"
)

// Question is a single multiple-choice prompt
type Question struct {
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options" yaml:"options"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
}

// HasOption reports whether label is one of the question's options
func (q Question) HasOption(label string) bool {
	for _, opt := range q.Options {
		if opt == label {
			return true
		}
	}
	return false
}

// Quiz is a named self-assessment
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category"`
	Questions   []Question `json:"questions"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Clone returns a copy that shares no slices with q
func (q Quiz) Clone() Quiz {
	cp := q
	cp.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		cp.Questions[i] = question
	}
	return cp
}

// Validate checks the structural invariants of a quiz
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuiz)
	}
	if q.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidQuiz)
	}

	for i, question := range q.Questions {
		if strings.TrimSpace(question.Question) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidQuiz, i+1)
		}
		if len(question.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrInvalidQuiz, i+1)
		}
		seen := make(map[string]bool, len(question.Options))
		for _, opt := range question.Options {
			if opt == "" {
				return fmt.Errorf("%w: question %d has an empty option", ErrInvalidQuiz, i+1)
			}
			if seen[opt] {
				return fmt.Errorf("%w: question %d repeats option %q", ErrInvalidQuiz, i+1, opt)
			}
			seen[opt] = true
		}
	}

	return nil
}
