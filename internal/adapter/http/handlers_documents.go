package adapthttp

import (
	"errors"
	"net/http"

	"journey/internal/domain"
)

func (s *Server) handleDocumentGet(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	state, err := s.docs.Get(r.Context(), account)
	if err != nil {
		s.logger.Error("failed to load document", "account", account, "err", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to load document"))
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, errors.New("document not found"))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDocumentPut(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")

	var state domain.State
	if err := parseJSON(w, r, &state); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if state.Logs == nil {
		state.Logs = []domain.LogEntry{}
	}
	if err := state.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.docs.Set(r.Context(), account, state); err != nil {
		s.logger.Error("failed to save document", "account", account, "err", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to save document"))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDocumentDelete(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	if err := s.docs.Delete(r.Context(), account); err != nil {
		s.logger.Error("failed to delete document", "account", account, "err", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to delete document"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
