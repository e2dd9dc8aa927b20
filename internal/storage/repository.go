package storage

import (
	"context"
	"errors"

	"github.com/mindmate-app/mindmate/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrQuizNotFound = errors.New("quiz not found")
)

// Repository defines the interface for user and quiz persistence
type Repository interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListCounsellors(ctx context.Context) ([]*models.User, error)

	// Quizzes
	CreateQuiz(ctx context.Context, q *models.Quiz) error
	GetQuiz(ctx context.Context, id string) (*models.Quiz, error)
	GetQuizByTitle(ctx context.Context, title string) (*models.Quiz, error)
	ListQuizzes(ctx context.Context) ([]*models.Quiz, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
