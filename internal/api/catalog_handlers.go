package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindmate-app/mindmate/internal/assessment"
	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/storage"
)

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.repo.ListQuizzes(r.Context())
	if err != nil {
		slog.Error("failed to list quizzes", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list quizzes")
		return
	}

	if quizzes == nil {
		quizzes = []*models.Quiz{}
	}
	respondJSON(w, http.StatusOK, quizzes)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusNotFound, "Quiz not found")
		return
	}

	quiz, err := s.repo.GetQuiz(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrQuizNotFound) {
			respondError(w, http.StatusNotFound, "Quiz not found")
			return
		}
		slog.Error("failed to get quiz", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to get quiz")
		return
	}

	respondJSON(w, http.StatusOK, quiz)
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := UserFromContext(r.Context())
	quiz := &models.Quiz{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Questions:   req.Questions,
		CreatedBy:   user.ID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := assessment.CheckQuiz(quiz); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.CreateQuiz(r.Context(), quiz); err != nil {
		slog.Error("failed to create quiz", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create quiz")
		return
	}

	slog.Info("quiz created", "id", quiz.ID, "category", quiz.Category, "created_by", user.ID)
	respondJSON(w, http.StatusCreated, quiz)
}
