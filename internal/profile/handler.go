package profile

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medisim/internal/platform/respond"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type CreateLearnerRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateLearner(w http.ResponseWriter, r *http.Request) {
	var req CreateLearnerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}

	p, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, ErrInvalidName) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "Failed to create learner")
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

func (h *Handler) GetLearner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid learner ID")
		return
	}

	p, err := h.svc.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "Failed to read learner")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/learners", h.CreateLearner)
	r.Get("/learners/{id}", h.GetLearner)
}
