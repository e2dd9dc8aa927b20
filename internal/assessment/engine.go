package assessment

import (
	"errors"
	"fmt"
	"math"

	"github.com/mindmate-app/mindmate/internal/models"
)

var (
	ErrNotInProgress      = errors.New("no quiz in progress")
	ErrUnanswered         = errors.New("current question has not been answered")
	ErrInvalidOption      = errors.New("answer is not one of the question's options")
	ErrQuestionOutOfRange = errors.New("question index out of range")
)

// Status represents where an attempt is in its lifecycle
type Status int

const (
	NotStarted Status = iota
	InProgress
	Completed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Attempt drives one quiz from its first question to a scored result.
// Attempts live in memory only; nothing is persisted.
type Attempt struct {
	status  Status
	quiz    *models.Quiz
	current int
	answers map[int]string
	result  *Result
}

// NewAttempt returns an attempt in the NotStarted state
func NewAttempt() *Attempt {
	return &Attempt{}
}

// Start begins a fresh attempt, discarding any previous progress.
// An unscorable quiz is rejected and leaves the attempt untouched.
func (a *Attempt) Start(quiz models.Quiz) error {
	quiz = quiz.Clone()
	if err := CheckQuiz(&quiz); err != nil {
		return err
	}

	a.quiz = &quiz
	a.current = 0
	a.answers = make(map[int]string, len(quiz.Questions))
	a.result = nil
	a.status = InProgress
	return nil
}

// Answer records the selected label for a question without moving the pointer
func (a *Attempt) Answer(index int, label string) error {
	if a.status != InProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(a.quiz.Questions) {
		return fmt.Errorf("%w: %d", ErrQuestionOutOfRange, index)
	}
	if !a.quiz.Questions[index].HasOption(label) {
		return fmt.Errorf("%w: %q", ErrInvalidOption, label)
	}

	a.answers[index] = label
	return nil
}

// AnswerCurrent records the label for the question under the pointer
func (a *Attempt) AnswerCurrent(label string) error {
	return a.Answer(a.current, label)
}

// Next advances to the following question, or completes and scores the attempt
// on the last one. An unanswered question cannot be passed.
func (a *Attempt) Next() error {
	if a.status != InProgress {
		return ErrNotInProgress
	}
	if _, ok := a.answers[a.current]; !ok {
		return ErrUnanswered
	}

	if a.current < len(a.quiz.Questions)-1 {
		a.current++
		return nil
	}

	result, err := Score(a.quiz, a.answers)
	if err != nil {
		return err
	}
	a.result = &result
	a.status = Completed
	return nil
}

// Previous moves the pointer back one question; it is a no-op at the first
// question and outside an active attempt
func (a *Attempt) Previous() {
	if a.status != InProgress {
		return
	}
	if a.current > 0 {
		a.current--
	}
}

// Reset discards the quiz, pointer and answers
func (a *Attempt) Reset() {
	*a = Attempt{}
}

// Status returns the lifecycle state
func (a *Attempt) Status() Status {
	return a.status
}

// Quiz returns the quiz being attempted, or nil when not started
func (a *Attempt) Quiz() *models.Quiz {
	return a.quiz
}

// CurrentIndex returns the 0-based question pointer
func (a *Attempt) CurrentIndex() int {
	return a.current
}

// Current returns the question under the pointer
func (a *Attempt) Current() (models.Question, bool) {
	if a.quiz == nil {
		return models.Question{}, false
	}
	return a.quiz.Questions[a.current], true
}

// Selected returns the recorded answer for a question
func (a *Attempt) Selected(index int) (string, bool) {
	label, ok := a.answers[index]
	return label, ok
}

// Answers returns a copy of the recorded answers
func (a *Attempt) Answers() map[int]string {
	out := make(map[int]string, len(a.answers))
	for k, v := range a.answers {
		out[k] = v
	}
	return out
}

// IsLast reports whether the pointer is on the final question
func (a *Attempt) IsLast() bool {
	return a.quiz != nil && a.current == len(a.quiz.Questions)-1
}

// Progress returns the position of the pointer as a percentage of the quiz
func (a *Attempt) Progress() float64 {
	if a.quiz == nil {
		return 0
	}
	return float64(a.current+1) / float64(len(a.quiz.Questions)) * 100
}

// Result returns the scored result once the attempt has completed
func (a *Attempt) Result() (Result, bool) {
	if a.result == nil {
		return Result{}, false
	}
	r := *a.result
	r.Recommendations = append([]string(nil), a.result.Recommendations...)
	return r, true
}

// EstimatedMinutes is the rough time needed for a quiz, half a minute per question
func EstimatedMinutes(quiz *models.Quiz) int {
	return int(math.Ceil(float64(len(quiz.Questions)) * 0.5))
}
