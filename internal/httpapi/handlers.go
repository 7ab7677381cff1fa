package httpapi

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"scheduled-tasks/internal/model"
	"scheduled-tasks/internal/task"
)

func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

type createTaskResponse struct {
	ID uuid.UUID `json:"id"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in task.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.service.Create(r.Context(), in)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, r, "create task", err)
		return
	}

	writeJSON(w, http.StatusCreated, createTaskResponse{ID: id})
}

func (s *Server) handleShowTask(w http.ResponseWriter, r *http.Request) {
	// a malformed id cannot name an existing task
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	found, ok, err := s.service.Show(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "show task", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func isValidationError(err error) bool {
	return errors.Is(err, task.ErrUnsupportedType) ||
		errors.Is(err, task.ErrInvalidStartAt) ||
		errors.Is(err, model.ErrStartAtNotUTC) ||
		errors.Is(err, model.ErrStartAtOutOfRange)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.ErrorContext(r.Context(), op+" failed",
		"rid", RequestIDFromContext(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}
