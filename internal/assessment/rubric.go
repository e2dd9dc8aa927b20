package assessment

import (
	"errors"
	"fmt"
	"math"

	"github.com/mindmate-app/mindmate/internal/models"
)

// ErrUnsupportedCategory is returned for quizzes without a scoring rubric
var ErrUnsupportedCategory = errors.New("quiz category has no scoring rubric")

// MaxPointsPerQuestion is the value of the strongest answer
const MaxPointsPerQuestion = 3

// Points maps answer labels to their score. Labels outside the table are worth 0.
var Points = map[string]int{
	"Never":     0,
	"Rarely":    1,
	"Sometimes": 1,
	"Often":     2,
	"Somewhat":  2,
	"Always":    3,
	"Very much": 3,
}

// Band is one severity tier of a rubric. Upper is the exclusive percentage bound.
type Band struct {
	Upper           int
	Level           string
	Description     string
	Recommendations []string
}

// Rubric is an ordered list of bands covering 0..100
type Rubric []Band

// Rubrics holds the banding tables per quiz category
var Rubrics = map[models.Category]Rubric{
	models.CategoryAnxiety: {
		{
			Upper:       25,
			Level:       "Low",
			Description: "Your anxiety levels appear to be within normal range.",
			Recommendations: []string{
				"Continue practicing good self-care",
				"Maintain regular exercise and sleep schedule",
				"Stay connected with supportive relationships",
			},
		},
		{
			Upper:       50,
			Level:       "Mild",
			Description: "You may be experiencing mild anxiety symptoms.",
			Recommendations: []string{
				"Consider learning stress management techniques",
				"Practice mindfulness and deep breathing",
				"Talk to friends, family, or a counselor",
			},
		},
		{
			Upper:       75,
			Level:       "Moderate",
			Description: "You may be experiencing moderate anxiety symptoms.",
			Recommendations: []string{
				"Consider speaking with a mental health professional",
				"Explore therapy options like CBT",
				"Join support groups or communities",
			},
		},
		{
			Upper:       101,
			Level:       "High",
			Description: "You may be experiencing significant anxiety symptoms.",
			Recommendations: []string{
				"We strongly recommend consulting a mental health professional",
				"Consider both therapy and medical evaluation",
				"Reach out to crisis resources if needed",
			},
		},
	},
	models.CategoryDepression: {
		{
			Upper:       25,
			Level:       "Minimal",
			Description: "Your mood appears to be stable.",
			Recommendations: []string{
				"Keep up with healthy habits",
				"Stay socially connected",
				"Continue activities you enjoy",
			},
		},
		{
			Upper:       50,
			Level:       "Mild",
			Description: "You may be experiencing mild depressive symptoms.",
			Recommendations: []string{
				"Focus on self-care activities",
				"Maintain social connections",
				"Consider talking to someone you trust",
			},
		},
		{
			Upper:       75,
			Level:       "Moderate",
			Description: "You may be experiencing moderate depressive symptoms.",
			Recommendations: []string{
				"Consider professional counseling",
				"Explore therapy options",
				"Don't hesitate to reach out for support",
			},
		},
		{
			Upper:       101,
			Level:       "Severe",
			Description: "You may be experiencing significant depressive symptoms.",
			Recommendations: []string{
				"Please consult a mental health professional soon",
				"Consider both therapy and medical evaluation",
				"Reach out to support systems and crisis resources",
			},
		},
	},
}

// Supports reports whether a category can be scored
func Supports(category models.Category) bool {
	_, ok := Rubrics[category]
	return ok
}

// CheckQuiz validates a quiz and makes sure it can be scored
func CheckQuiz(quiz *models.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}
	if !Supports(quiz.Category) {
		return fmt.Errorf("%w: %q", ErrUnsupportedCategory, quiz.Category)
	}
	return nil
}

// Result is the scored outcome of a completed attempt
type Result struct {
	Category        models.Category `json:"category"`
	Score           int             `json:"score"`
	MaxScore        int             `json:"max_score"`
	Percentage      int             `json:"percentage"`
	Level           string          `json:"level"`
	Description     string          `json:"description"`
	Recommendations []string        `json:"recommendations"`
}

// SuggestsSupport is true when the result is high enough to point at professional help
func (r Result) SuggestsSupport() bool {
	return r.Percentage > 50
}

// Score computes the result for a quiz given answers keyed by question index
func Score(quiz *models.Quiz, answers map[int]string) (Result, error) {
	rubric, ok := Rubrics[quiz.Category]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedCategory, quiz.Category)
	}

	total := 0
	for i := range quiz.Questions {
		if label, answered := answers[i]; answered {
			total += Points[label]
		}
	}

	maxScore := MaxPointsPerQuestion * len(quiz.Questions)
	if maxScore == 0 {
		return Result{}, fmt.Errorf("%w: quiz has no questions", models.ErrInvalidQuiz)
	}

	band := rubric.bandFor(total, maxScore)

	return Result{
		Category:        quiz.Category,
		Score:           total,
		MaxScore:        maxScore,
		Percentage:      int(math.Round(100 * float64(total) / float64(maxScore))),
		Level:           band.Level,
		Description:     band.Description,
		Recommendations: append([]string(nil), band.Recommendations...),
	}, nil
}

// bandFor compares the exact ratio score/max against each bound
func (r Rubric) bandFor(score, maxScore int) Band {
	for _, b := range r {
		if 100*score < b.Upper*maxScore {
			return b
		}
	}
	return r[len(r)-1]
}
