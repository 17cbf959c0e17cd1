package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"coldmailer/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

type statsResponse struct {
	Contacts map[core.ContactStatus]int `json:"contacts"`
	Rate     *core.RateStats            `json:"rate"`
}

type sendRequest struct {
	Email    string            `json:"email"`
	Template string            `json:"template"`
	Custom   map[string]string `json:"custom"`
	DryRun   bool              `json:"dry_run"`
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.store.Statistics(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	rate, err := s.coordinator.Governor().Statistics(r.Context(), time.Now(), s.opts.Policy)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statsResponse{Contacts: contacts, Rate: rate})
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	var (
		contacts []*core.Contact
		err      error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, parseErr := core.ParseStatus(raw)
		if parseErr != nil {
			s.writeError(w, http.StatusBadRequest, parseErr)
			return
		}
		contacts, err = s.store.GetByStatus(r.Context(), status)
	} else {
		contacts, err = s.store.GetAll(r.Context())
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var contact core.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.Add(r.Context(), &contact); err != nil {
		status := http.StatusInternalServerError
		var ve *core.ValidationError
		switch {
		case errors.As(err, &ve):
			status = http.StatusBadRequest
		case errors.Is(err, core.ErrDuplicateContact):
			status = http.StatusConflict
		}
		s.writeError(w, status, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, &contact)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := s.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrContactNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, contact)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := core.ParseStatus(req.Status)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		if errors.Is(err, core.ErrContactNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	attempts, err := s.ledger.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, attempts)
}

func (s *Server) handleSendTo(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("email is required"))
		return
	}
	result, err := s.coordinator.SendTo(r.Context(), req.Email, s.batchOptions(req))
	s.writeBatchResult(w, result, err)
}

func (s *Server) handleSendAll(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.coordinator.SendAllPending(r.Context(), s.batchOptions(req))
	s.writeBatchResult(w, result, err)
}

func (s *Server) batchOptions(req sendRequest) core.BatchOptions {
	tmpl := req.Template
	if tmpl == "" {
		tmpl = s.opts.DefaultTemplate
	}
	return core.BatchOptions{
		Template:   tmpl,
		CustomVars: req.Custom,
		Policy:     s.opts.Policy,
		DryRun:     req.DryRun,
		OnLimit:    s.opts.OnLimit,
		MaxWait:    s.opts.MaxWait,
	}
}

func (s *Server) writeBatchResult(w http.ResponseWriter, result *core.BatchResult, err error) {
	if err != nil {
		if errors.Is(err, core.ErrContactNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
