// Package handlers is the HTTP transport of the todo API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/Paul-frank/todo-tracker-api/internal/metrics"
	"github.com/Paul-frank/todo-tracker-api/internal/models"
	"github.com/Paul-frank/todo-tracker-api/internal/todo"
)

const maxBodyBytes = 1 << 20

const invalidBodyMessage = "Invalid JSON body"

// TodoService is implemented by *todo.Service.
type TodoService interface {
	List(ctx context.Context, owner string, params url.Values) ([]models.Todo, error)
	Create(ctx context.Context, owner string, body models.RawRecord) (models.Todo, error)
	Update(ctx context.Context, owner, id string, patch models.RawRecord) (models.Todo, error)
	Delete(ctx context.Context, owner, id string) (string, error)
}

type Handler struct {
	service TodoService
	logger  *log.Logger
	auth    Auth
	metrics *metrics.Metrics
	health  func(context.Context) error
}

type Option func(*Handler)

// WithMetrics counts requests and operations and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithHealthCheck sets the check behind GET /healthz, usually the store ping.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(h *Handler) { h.health = check }
}

func New(service TodoService, logger *log.Logger, auth Auth, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger, auth: auth}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the complete middleware chain around the router.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /todos", h.authenticate(http.HandlerFunc(h.listTodos)))
	mux.Handle("POST /todos", h.authenticate(http.HandlerFunc(h.createTodo)))
	mux.Handle("PUT /todos/{id}", h.authenticate(http.HandlerFunc(h.updateTodo)))
	mux.Handle("DELETE /todos/{id}", h.authenticate(http.HandlerFunc(h.deleteTodo)))

	mux.HandleFunc("OPTIONS /", preflight)
	mux.HandleFunc("GET /healthz", h.healthz)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	// alles andere
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		sendErrorResponse(w, http.StatusBadRequest, "Unsupported operation")
	})

	return h.requestID(h.observe(cors(mux)))
}

// GET /todos: Liste mit Filtern aus der Query
func (h *Handler) listTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.service.List(r.Context(), ownerFrom(r.Context()), r.URL.Query())
	h.recordOperation("list", err)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	if todos == nil {
		todos = []models.Todo{} // immer ein Array senden
	}
	sendJSON(w, http.StatusOK, todos)
}

// POST /todos: Erstellen eines neuen ToDo-Eintrags
func (h *Handler) createTodo(w http.ResponseWriter, r *http.Request) {
	body, ok := parseJSONBody(w, r)
	if !ok {
		sendErrorResponse(w, http.StatusBadRequest, invalidBodyMessage)
		return
	}

	created, err := h.service.Create(r.Context(), ownerFrom(r.Context()), body)
	h.recordOperation("create", err)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, created)
}

// PUT /todos/{id}: Aktualisieren einzelner Felder
func (h *Handler) updateTodo(w http.ResponseWriter, r *http.Request) {
	patch, ok := parseJSONBody(w, r)
	if !ok {
		sendErrorResponse(w, http.StatusBadRequest, invalidBodyMessage)
		return
	}

	updated, err := h.service.Update(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), patch)
	h.recordOperation("update", err)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, updated)
}

// DELETE /todos/{id}: auch für nicht vorhandene IDs erfolgreich
func (h *Handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.Delete(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	h.recordOperation("delete", err)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, struct {
		ID string `json:"id"`
	}{ID: id})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Error("health check failed", "err", err)
			sendErrorResponse(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// parseJSONBody liest den Body als JSON-Objekt; leerer Body ergibt {}.
func parseJSONBody(w http.ResponseWriter, r *http.Request) (models.RawRecord, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, false
	}
	if len(data) == 0 {
		return models.RawRecord{}, true
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	object, ok := value.(map[string]any) // auch null, Arrays und Zahlen ablehnen
	return models.RawRecord(object), ok
}

// sendServiceError ordnet Fehler der Operationen einem Statuscode zu
func (h *Handler) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *todo.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.logger.Debug("validation failed", "field", validationErr.Field, "err", err, "request_id", requestIDFrom(r.Context()))
		sendErrorResponse(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, todo.ErrNotFound):
		h.logger.Debug("todo not found", "path", r.URL.Path, "request_id", requestIDFrom(r.Context()))
		sendErrorResponse(w, http.StatusNotFound, "Todo not found")
	default:
		h.logger.Error("unhandled error", "method", r.Method, "path", r.URL.Path, "err", err, "request_id", requestIDFrom(r.Context()))
		sendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) recordOperation(operation string, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordOperation(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case todo.IsValidation(err):
		return "invalid"
	case errors.Is(err, todo.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

type ErrorResponse struct {
	Statuscode int    `json:"status_code"`
	Error      string `json:"error"`
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, errorMessage string) {
	sendJSON(w, statusCode, ErrorResponse{
		Statuscode: statusCode,
		Error:      errorMessage,
	})
}

func sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
