// Package api exposes HTTP handlers for the user registry and exercise log.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"example.com/exercisetracker/internal/domain"
)

// Error messages returned in {"error": ...} bodies.
const (
	msgUsernameTaken = "Username already taken"
	msgUserNotFound  = "User not found"
	msgTryAgain      = "Error, Please try again"
	msgNotFound      = "not found"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires endpoints to the mux. Requests matching no other
// pattern fall through to a JSON 404.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/exercise/new-user", h.newUser)
	mux.HandleFunc("POST /api/exercise/add", h.addExercise)
	mux.HandleFunc("GET /api/exercise/log", h.exerciseLog)
	mux.HandleFunc("GET /api/exercise/users", h.users)
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("/", notFound)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, msgNotFound)
}

func (h *Handler) newUser(w http.ResponseWriter, r *http.Request) {
	var req NewUserRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	person, err := h.service.Register(r.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			writeError(w, http.StatusConflict, msgUsernameTaken)
		default:
			h.writeDomainError(w, "register", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, NewUserResponse{Username: person.Username, ID: person.ID})
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request) {
	var req AddExerciseRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	person, rec, err := h.service.AppendExercise(r.Context(), domain.AppendExerciseInput{
		PersonID:    req.UserID,
		Description: req.Description,
		Duration:    string(req.Duration),
		Date:        req.Date,
	})
	if err != nil {
		h.writeDomainError(w, "add exercise", err)
		return
	}

	writeJSON(w, http.StatusOK, ExerciseResponse{
		ID:          person.ID,
		Username:    person.Username,
		Date:        domain.FormatDate(rec.Date),
		Duration:    rec.Duration,
		Description: rec.Description,
	})
}

func (h *Handler) exerciseLog(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	userID := strings.TrimSpace(params.Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	var q domain.LogQuery
	if from, ok := domain.ParseDate(params.Get("from")); ok {
		q.From = &from
	}
	if to, ok := domain.ParseDate(params.Get("to")); ok {
		q.To = &to
	}
	if raw := strings.TrimSpace(params.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a whole number")
			return
		}
		if limit > 0 {
			q.Limit = limit
		}
	}

	view, err := h.service.GetLog(r.Context(), userID, q)
	if err != nil {
		h.writeDomainError(w, "exercise log", err)
		return
	}

	resp := LogResponse{
		ID:       view.ID,
		Username: view.Username,
		Count:    view.Count,
		Log:      make([]LogEntry, 0, len(view.Log)),
	}
	for _, rec := range view.Log {
		resp.Log = append(resp.Log, LogEntry{
			Description: rec.Description,
			Duration:    rec.Duration,
			Date:        domain.FormatDate(rec.Date),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	people, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeDomainError(w, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// writeDomainError maps service errors onto status codes; anything
// unrecognised is logged and reported as a retryable 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, op string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrPersonNotFound):
		writeError(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, msgTryAgain)
	default:
		h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgTryAgain)
	}
}
