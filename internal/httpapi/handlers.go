package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skycourt-league/auction-backend/internal/auction"
	"github.com/skycourt-league/auction-backend/internal/engine"
	"github.com/skycourt-league/auction-backend/internal/store"
)

type api struct {
	coord *auction.Coordinator
	store *store.Store
	log   *zap.Logger
}

type bidRequest struct {
	TeamID uint            `json:"team_id"`
	Amount decimal.Decimal `json:"bid_amount"`
}

type unsoldRequest struct {
	PlayerID uint `json:"player_id,omitempty"`
}

type orderRequest struct {
	Order []engine.OrderEntry `json:"order"`
}

func (a *api) getCurrent(w http.ResponseWriter, r *http.Request) {
	snap, err := a.coord.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if snap.Session.Status == engine.SessionNotStarted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active auction found"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) start(w http.ResponseWriter, r *http.Request) {
	snap, err := a.coord.Start(r.Context())
	a.respond(w, snap, err)
}

func (a *api) placeBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request body"})
		return
	}
	snap, err := a.coord.PlaceBid(r.Context(), req.TeamID, req.Amount)
	a.respond(w, snap, err)
}

func (a *api) markSold(w http.ResponseWriter, r *http.Request) {
	snap, err := a.coord.MarkSold(r.Context())
	a.respond(w, snap, err)
}

func (a *api) markUnsold(w http.ResponseWriter, r *http.Request) {
	var req unsoldRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request body"})
			return
		}
	}
	snap, err := a.coord.MarkUnsold(r.Context(), req.PlayerID)
	a.respond(w, snap, err)
}

func (a *api) editLastBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request body"})
		return
	}
	snap, err := a.coord.EditLastBid(r.Context(), req.TeamID, req.Amount)
	a.respond(w, snap, err)
}

func (a *api) nextRandom(w http.ResponseWriter, r *http.Request) {
	snap, err := a.coord.NextRandom(r.Context())
	a.respond(w, snap, err)
}

func (a *api) reset(w http.ResponseWriter, r *http.Request) {
	snap, err := a.coord.Reset(r.Context())
	a.respond(w, snap, err)
}

func (a *api) setOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request body"})
		return
	}
	snap, err := a.coord.SetOrder(r.Context(), req.Order)
	a.respond(w, snap, err)
}

func (a *api) history(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseUint(chi.URLParam(r, "playerID"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad player id"})
		return
	}
	bids, err := a.store.History(r.Context(), uint(playerID))
	if err != nil {
		a.log.Error("bid history query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

func (a *api) respond(w http.ResponseWriter, snap auction.Snapshot, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto the HTTP taxonomy: validation 400,
// state conflicts 409, unknown ids 404, commit failures 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrBidTooLow),
		errors.Is(err, engine.ErrInvalidIncrement),
		errors.Is(err, engine.ErrBudgetExceeded),
		errors.Is(err, engine.ErrNoPlayersAvailable):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrSessionNotActive),
		errors.Is(err, engine.ErrAlreadyStarted),
		errors.Is(err, engine.ErrNoBidder),
		errors.Is(err, engine.ErrPlayerAlreadySold):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrTeamNotFound),
		errors.Is(err, engine.ErrPlayerNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
