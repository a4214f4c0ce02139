package training

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medisim/internal/platform/respond"
	"medisim/internal/profile"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type NewQuizRequest struct {
	LearnerID string `json:"learnerId"`
}

type AnswersRequest struct {
	Answers []int `json:"answers"`
}

func (h *Handler) NewQuiz(w http.ResponseWriter, r *http.Request) {
	var req NewQuizRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	learnerID, err := uuid.Parse(req.LearnerID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid learner ID")
		return
	}

	quiz, err := h.svc.Quiz(r.Context(), learnerID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "Failed to create quiz")
		return
	}
	respond.JSON(w, http.StatusCreated, quiz)
}

func (h *Handler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid quiz ID")
		return
	}
	var req AnswersRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}

	res, err := h.svc.GradeQuiz(r.Context(), quizID, req.Answers)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, res)
	case errors.Is(err, ErrQuizNotFound), errors.Is(err, profile.ErrNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyGraded):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrAnswerCount):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	modules, err := h.svc.Courses(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to load courses")
		return
	}
	respond.JSON(w, http.StatusOK, modules)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/quizzes", h.NewQuiz)
	r.Post("/quizzes/{id}/answers", h.SubmitAnswers)
	r.Get("/courses", h.ListCourses)
}
