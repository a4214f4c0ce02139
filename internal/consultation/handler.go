package consultation

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medisim/internal/feedback"
	"medisim/internal/platform/respond"
	"medisim/internal/profile"
)

// ReportService renders a finished attempt as a PDF.
type ReportService interface {
	Render(ctx context.Context, a *Attempt) ([]byte, error)
}

type Handler struct {
	svc    Service
	report ReportService
}

func NewHandler(svc Service, report ReportService) *Handler {
	return &Handler{svc: svc, report: report}
}

type StartSessionRequest struct {
	LearnerID string `json:"learnerId"`
}

type DestinationRequest struct {
	Destination Destination `json:"destination"`
}

type ChooseCaseRequest struct {
	CaseID string `json:"caseId"`
}

type MessageRequest struct {
	Text string `json:"text"`
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, profile.ErrNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidSubmission),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrUnknownCase),
		errors.Is(err, ErrUnknownDestination):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoFeedback):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) write(w http.ResponseWriter, res *ActionResult, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	learnerID, err := uuid.Parse(req.LearnerID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid learner ID")
		return
	}

	res, err := h.svc.Start(r.Context(), learnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, res)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Get(r.Context(), id)
	h.write(w, res, err)
}

func (h *Handler) SelectDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req DestinationRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	res, err := h.svc.SelectDestination(r.Context(), id, req.Destination)
	h.write(w, res, err)
}

func (h *Handler) ChooseCase(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req ChooseCaseRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	res, err := h.svc.ChooseCase(r.Context(), id, req.CaseID)
	h.write(w, res, err)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req MessageRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	res, err := h.svc.SendMessage(r.Context(), id, req.Text)
	h.write(w, res, err)
}

func (h *Handler) RequestHint(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.RequestHint(r.Context(), id)
	h.write(w, res, err)
}

func (h *Handler) SubmitDiagnosis(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req feedback.DiagnosisSubmission
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	res, err := h.svc.SubmitDiagnosis(r.Context(), id, req)
	h.write(w, res, err)
}

func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Acknowledge(r.Context(), id)
	h.write(w, res, err)
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Back(r.Context(), id)
	h.write(w, res, err)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	attempt, err := h.svc.LastAttempt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	pdf, err := h.report.Render(r.Context(), attempt)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to render report")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="medisim-feedback.pdf"`)
	w.Write(pdf)
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	learnerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid learner ID")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	attempts, err := h.svc.History(r.Context(), learnerID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, attempts)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/sessions", h.StartSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/destination", h.SelectDestination)
		r.Post("/case", h.ChooseCase)
		r.Post("/messages", h.SendMessage)
		r.Post("/hint", h.RequestHint)
		r.Post("/diagnosis", h.SubmitDiagnosis)
		r.Post("/acknowledge", h.Acknowledge)
		r.Post("/back", h.Back)
		r.Get("/report.pdf", h.Report)
	})
	r.Get("/learners/{id}/attempts", h.ListAttempts)
}
