// Package handlers est la couche transport: décodage JSON, appel du service,
// encodage de la réponse. Aucune logique métier ici.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/projet-lalana/backend/internal/httpx"
	"github.com/projet-lalana/backend/internal/services"
	"github.com/projet-lalana/backend/internal/sync"
)

type Handlers struct {
	Signalements *services.SignalementService
	Problemes    *services.ProblemeService
	Users        *services.UserService
	Entreprises  *services.EntrepriseService
	Orchestrator *sync.Orchestrator
}

// Router câble toutes les routes sur un mux standard.
func (h *Handlers) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sync", h.runSync)

	mux.HandleFunc("GET /signalements", h.listSignalements)
	mux.HandleFunc("GET /signalements/{id}", h.getSignalement)
	mux.HandleFunc("POST /signalements/{id}/technicien", h.envoyerTechnicien)
	mux.HandleFunc("POST /rapport-technicien", h.rapportTechnicien)

	mux.HandleFunc("GET /problemes", h.listProblemes)
	mux.HandleFunc("POST /problemes/{id}/processer", h.processerProbleme)
	mux.HandleFunc("POST /problemes/{id}/resoudre", h.resoudreProbleme)
	mux.HandleFunc("GET /problemes/stats", h.problemeStats)

	mux.HandleFunc("GET /entreprises", h.listEntreprises)
	mux.HandleFunc("POST /entreprises", h.createEntreprise)

	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /users/{id}/deblock", h.deblockUser)
	mux.HandleFunc("POST /users/{id}/block", h.blockUser)

	return mux
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	return uint(id), err
}

func (h *Handlers) runSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.Orchestrator.RunCycle(r.Context())
	if errors.Is(err, sync.ErrCycleInProgress) {
		httpx.JSONError(w, http.StatusConflict, "cycle_in_progress", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "sync_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handlers) listSignalements(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Signalements.GetAll()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handlers) getSignalement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	row, err := h.Signalements.GetByID(id)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handlers) envoyerTechnicien(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	row, err := h.Signalements.EnvoyerTechnicien(id)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "transition_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

type rapportTechRequest struct {
	SignalementID uint    `json:"signalementId"`
	EntrepriseID  uint    `json:"entrepriseId"`
	Surface       float64 `json:"surface"`
	BudgetEstime  float64 `json:"budgetEstime"`
	Niveau        int     `json:"niveau"`
}

func (h *Handlers) rapportTechnicien(w http.ResponseWriter, r *http.Request) {
	var req rapportTechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	probleme, err := h.Signalements.RapportTechnicien(services.RapportTech{
		SignalementID: req.SignalementID,
		EntrepriseID:  req.EntrepriseID,
		Surface:       req.Surface,
		BudgetEstime:  req.BudgetEstime,
		Niveau:        req.Niveau,
	})
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "rapport_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, probleme)
}

func (h *Handlers) listProblemes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Problemes.GetAll()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handlers) processerProbleme(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	row, err := h.Problemes.Processer(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "transition_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handlers) resoudreProbleme(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	row, err := h.Problemes.Resoudre(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "transition_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handlers) problemeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Problemes.Stats()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handlers) listEntreprises(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Entreprises.GetAll()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

type entrepriseRequest struct {
	Nom     string `json:"nom"`
	Contact string `json:"contact"`
}

func (h *Handlers) createEntreprise(w http.ResponseWriter, r *http.Request) {
	var req entrepriseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	row, err := h.Entreprises.Create(req.Nom, req.Contact)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "create_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, row)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	user, err := h.Users.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrAccountLocked):
		httpx.JSONError(w, http.StatusForbidden, "account_locked", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "login_failed", err.Error())
	default:
		httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
	}
}

func (h *Handlers) deblockUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	history, err := h.Users.Deblock(id)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "deblock_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, history)
}

func (h *Handlers) blockUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	history, err := h.Users.Block(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "block_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, history)
}
