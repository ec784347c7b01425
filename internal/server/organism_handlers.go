package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/suryap3105/EchoGenesis/internal/organism"
	"github.com/suryap3105/EchoGenesis/internal/quantum"
)

// createOrganismRequest is the body for POST /api/organisms. Stage is
// optional; omitted means the configured default.
type createOrganismRequest struct {
	Name  string `json:"name"`
	Stage *int   `json:"stage,omitempty"`
}

// optimizeRequest is the body for POST /api/organisms/{id}/optimize.
type optimizeRequest struct {
	Needs  quantum.Needs  `json:"needs"`
	Traits quantum.Traits `json:"traits"`
}

// gateRequest is one gate in a POST /api/organisms/{id}/gates body.
type gateRequest struct {
	Kind    string   `json:"kind"`
	Target  int      `json:"target"`
	Control *int     `json:"control,omitempty"`
	Theta   *float64 `json:"theta,omitempty"`
}

type applyGatesRequest struct {
	Gates []gateRequest `json:"gates"`
}

// handleCreateOrganism handles POST /api/organisms.
func (s *Server) handleCreateOrganism(w http.ResponseWriter, r *http.Request) {
	var req createOrganismRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	stage := -1
	if req.Stage != nil {
		stage = *req.Stage
	}

	o, err := s.organisms.Create(req.Name, stage)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, o)
}

// handleListOrganisms handles GET /api/organisms.
func (s *Server) handleListOrganisms(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"organisms": s.organisms.List(),
	})
}

// handleGetOrganism handles GET /api/organisms/{id}.
func (s *Server) handleGetOrganism(w http.ResponseWriter, r *http.Request) {
	o, err := s.organisms.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, o)
}

// handleDeleteOrganism handles DELETE /api/organisms/{id}.
func (s *Server) handleDeleteOrganism(w http.ResponseWriter, r *http.Request) {
	if err := s.organisms.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleOptimize handles POST /api/organisms/{id}/optimize.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := s.organisms.Optimize(chi.URLParam(r, "id"), req.Needs, req.Traits)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// handleApplyGates handles POST /api/organisms/{id}/gates.
func (s *Server) handleApplyGates(w http.ResponseWriter, r *http.Request) {
	var req applyGatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Gates) == 0 {
		s.writeError(w, http.StatusBadRequest, "gates is required")
		return
	}

	gates := make([]quantum.Gate, 0, len(req.Gates))
	for _, g := range req.Gates {
		gate := quantum.Gate{
			Kind:   quantum.GateKind(g.Kind),
			Target: g.Target,
			Theta:  g.Theta,
		}
		if g.Control != nil {
			gate.Control = *g.Control
		}
		gates = append(gates, gate)
	}

	m, err := s.organisms.ApplyGates(chi.URLParam(r, "id"), gates)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// handleReset handles POST /api/organisms/{id}/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	o, err := s.organisms.Reset(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, o)
}

// handleAdvance handles POST /api/organisms/{id}/advance.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	o, err := s.organisms.Advance(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, o)
}

// handleHistory handles GET /api/organisms/{id}/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	history, err := s.organisms.History(chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
	})
}

// writeDomainError maps domain errors onto HTTP status codes. Validation
// failures are the caller's fault; state faults are ours.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, organism.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, organism.ErrInvalidStage),
		errors.Is(err, organism.ErrMaxStage),
		errors.Is(err, quantum.ErrInvalidTarget),
		errors.Is(err, quantum.ErrInvalidParameter),
		errors.Is(err, quantum.ErrInvalidRate),
		errors.Is(err, quantum.ErrMissingParameter),
		errors.Is(err, quantum.ErrUnknownGate),
		errors.Is(err, quantum.ErrInvalidDimension):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("Request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
