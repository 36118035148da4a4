package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scuderia-bot/internal/domain"
	"scuderia-bot/internal/middleware"
	apperrors "scuderia-bot/pkg/errors"
	"scuderia-bot/pkg/logger"
)

// PickerQueries is the read side of the picker service.
type PickerQueries interface {
	MyPick(ctx context.Context, userID int64) (*domain.Pick, error)
	Leaderboard(ctx context.Context) (*domain.LeaderboardResponse, error)
	AvailabilityReport(ctx context.Context) (*domain.AvailabilityResponse, error)
	ReloadRoster(ctx context.Context) error
}

// SelectionFlow is the selection state machine the pick command drives.
type SelectionFlow interface {
	Start(ctx context.Context, userID int64) (*domain.StepResult, error)
	SubmitAlias(ctx context.Context, sessionID string, userID int64, alias string) (*domain.StepResult, error)
	ChooseTeam(ctx context.Context, sessionID string, userID int64, team string) (*domain.StepResult, error)
	ChooseDriver(ctx context.Context, sessionID string, userID int64, driver string) (*domain.StepResult, error)
}

// PickHandler exposes the bot's command surface over HTTP. The chat
// gateway translates slash commands and dropdown events into these
// endpoints.
type PickHandler struct {
	queries PickerQueries
	flow    SelectionFlow
	logger  *logger.Logger
}

// NewPickHandler creates a new pick handler
func NewPickHandler(queries PickerQueries, flow SelectionFlow, log *logger.Logger) *PickHandler {
	return &PickHandler{queries: queries, flow: flow, logger: log}
}

// StartSession handles POST /api/v1/picks/session (the /pick command)
func (h *PickHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	result, err := h.flow.Start(r.Context(), userID)
	if err != nil {
		respondAppError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// SubmitAlias handles POST /api/v1/picks/session/{sessionID}/alias
func (h *PickHandler) SubmitAlias(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req domain.AliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, apperrors.NewValidationError("Invalid request body", nil), h.logger)
		return
	}

	result, err := h.flow.SubmitAlias(r.Context(), chi.URLParam(r, "sessionID"), userID, req.Alias)
	if err != nil {
		respondAppError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ChooseTeam handles POST /api/v1/picks/session/{sessionID}/team
func (h *PickHandler) ChooseTeam(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req domain.TeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, apperrors.NewValidationError("Invalid request body", nil), h.logger)
		return
	}

	result, err := h.flow.ChooseTeam(r.Context(), chi.URLParam(r, "sessionID"), userID, req.Team)
	if err != nil {
		respondAppError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ChooseDriver handles POST /api/v1/picks/session/{sessionID}/driver.
// This is the commit step: it either saves the pick or reports that
// the driver was just taken.
func (h *PickHandler) ChooseDriver(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req domain.DriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, apperrors.NewValidationError("Invalid request body", nil), h.logger)
		return
	}

	result, err := h.flow.ChooseDriver(r.Context(), chi.URLParam(r, "sessionID"), userID, req.Driver)
	if err != nil {
		respondAppError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// MyPick handles GET /api/v1/picks/me (the /mypick command)
func (h *PickHandler) MyPick(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	pick, err := h.queries.MyPick(r.Context(), userID)
	if err != nil {
		respondAppError(w, err, h.logger)
		return
	}

	if pick == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"pick":    nil,
			"message": "You have not made a selection yet. Use /pick to get started!",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"pick": pick})
}

// Leaderboard handles GET /api/v1/leaderboard (the /leaderboard command)
func (h *PickHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.queries.Leaderboard(r.Context())
	if err != nil {
		respondAppError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// Availability handles GET /api/v1/availability (the /available command)
func (h *PickHandler) Availability(w http.ResponseWriter, r *http.Request) {
	report, err := h.queries.AvailabilityReport(r.Context())
	if err != nil {
		respondAppError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// ReloadRoster handles POST /api/v1/roster/reload
func (h *PickHandler) ReloadRoster(w http.ResponseWriter, r *http.Request) {
	if err := h.queries.ReloadRoster(r.Context()); err != nil {
		respondAppError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "roster reloaded"})
}

// userID resolves the authenticated platform identity set by the auth
// middleware.
func (h *PickHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity := middleware.UserFromContext(r.Context())
	if identity == nil {
		respondAppError(w, apperrors.NewAuthenticationError("Authentication required"), h.logger)
		return 0, false
	}
	return identity.UserID, true
}
