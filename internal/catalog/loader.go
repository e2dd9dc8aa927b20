// Package catalog loads the bundled quiz definitions from YAML and seeds
// them into storage.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mindmate-app/mindmate/internal/assessment"
	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/storage"
)

// SystemAuthor marks quizzes that ship with the service
const SystemAuthor = "system"

// quizFile is the on-disk shape of a quiz
type quizFile struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Category    models.Category   `yaml:"category"`
	Questions   []models.Question `yaml:"questions"`
}

// Loader manages loading and caching of quiz definitions
type Loader struct {
	mu      sync.RWMutex
	quizzes map[string]*models.Quiz // by title
}

// NewLoader creates a new quiz loader
func NewLoader() *Loader {
	return &Loader{
		quizzes: make(map[string]*models.Quiz),
	}
}

// LoadFromDir loads every YAML quiz in dir. Valid files are loaded even
// when others fail; the failures are returned joined.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading quizzes from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("bad quiz pattern: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	var errs []error
	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load quiz", "file", file, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(file), err))
			continue
		}
		loaded++
	}

	slog.Info("quizzes loaded", "count", loaded, "total_files", len(files))
	return errors.Join(errs...)
}

// LoadFromFile loads a single quiz. Quizzes that cannot be scored are rejected.
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var qf quizFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	quiz := &models.Quiz{
		Title:       qf.Title,
		Description: qf.Description,
		Category:    qf.Category,
		Questions:   qf.Questions,
		CreatedBy:   SystemAuthor,
	}
	if err := assessment.CheckQuiz(quiz); err != nil {
		return err
	}

	if existing := l.Get(quiz.Title); existing != nil {
		slog.Warn("duplicate quiz title, replacing", "title", quiz.Title, "file", path)
	}
	l.Add(quiz)
	slog.Debug("quiz loaded", "title", quiz.Title, "category", quiz.Category, "questions", len(quiz.Questions))
	return nil
}

// Add programmatically adds a quiz, replacing one with the same title
func (l *Loader) Add(quiz *models.Quiz) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quizzes[quiz.Title] = quiz
}

// Get retrieves a quiz by title
func (l *Loader) Get(title string) *models.Quiz {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.quizzes[title]
}

// List returns all loaded quizzes ordered by title
func (l *Loader) List() []*models.Quiz {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Quiz, 0, len(l.quizzes))
	for _, q := range l.quizzes {
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result
}

// Seed inserts every loaded quiz whose title is not stored yet and returns
// how many were inserted
func (l *Loader) Seed(ctx context.Context, repo storage.Repository) (int, error) {
	inserted := 0
	for _, q := range l.List() {
		_, err := repo.GetQuizByTitle(ctx, q.Title)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrQuizNotFound) {
			return inserted, fmt.Errorf("failed to look up quiz %q: %w", q.Title, err)
		}

		record := *q
		record.ID = uuid.New().String()
		record.CreatedAt = time.Now().UTC()
		if err := repo.CreateQuiz(ctx, &record); err != nil {
			return inserted, fmt.Errorf("failed to seed quiz %q: %w", q.Title, err)
		}

		slog.Info("inserted sample quiz", "title", record.Title, "id", record.ID)
		inserted++
	}
	return inserted, nil
}
