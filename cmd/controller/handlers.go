package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/client"
	"github.com/readylabs/readyboard/internal/orders"
)

// API is the staff-facing JSON surface of the controller client.
type API struct {
	service *orders.Service
	client  *client.Client
}

// NewAPI creates the controller API.
func NewAPI(service *orders.Service, c *client.Client) *API {
	return &API{service: service, client: c}
}

// RegisterRoutes registers the API routes with an HTTP mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/board", a.handleBoard)
	mux.HandleFunc("POST /api/orders", a.handleSubmit)
	mux.HandleFunc("DELETE /api/orders/{id}", a.handleDelete)
	mux.HandleFunc("POST /api/undo", a.handleUndo)
	mux.HandleFunc("GET /api/recommendations", a.handleRecommendations)
	mux.HandleFunc("GET /api/ttl", a.handleGetTTL)
	mux.HandleFunc("PUT /api/ttl", a.handleSetTTL)
	mux.HandleFunc("GET /api/status", a.handleStatus)
}

func (a *API) handleBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"orders": a.service.ActiveView()})
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Number int `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	order, err := a.service.Submit(r.Context(), body.Number)
	switch {
	case errors.Is(err, orders.ErrInvalidNumber):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrDuplicateNumber):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		log.Error().Err(err).Int("number", body.Number).Msg("submit failed")
		writeError(w, http.StatusBadGateway, "could not reach the store")
	default:
		writeJSON(w, http.StatusCreated, order)
	}
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	if err := a.service.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("order_id", id.String()).Msg("delete failed")
		writeError(w, http.StatusBadGateway, "could not reach the store")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUndo(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.Undo(r.Context())
	switch {
	case errors.Is(err, orders.ErrNothingToUndo):
		// Nothing buffered is a no-op, not a failure.
		w.WriteHeader(http.StatusNoContent)
	case err != nil:
		log.Error().Err(err).Msg("undo failed")
		writeError(w, http.StatusBadGateway, "could not reach the store")
	default:
		writeJSON(w, http.StatusCreated, order)
	}
}

func (a *API) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"numbers": a.service.Recommendations()})
}

func (a *API) handleGetTTL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"ttl_ms": a.service.TTL()})
}

func (a *API) handleSetTTL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	err := a.service.SetTTL(r.Context(), body.Minutes)
	switch {
	case errors.Is(err, orders.ErrInvalidTTL):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Error().Err(err).Int("minutes", body.Minutes).Msg("set ttl failed")
		writeError(w, http.StatusBadGateway, "could not reach the store")
	default:
		writeJSON(w, http.StatusOK, map[string]int64{"ttl_ms": a.service.TTL()})
	}
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"connected":     a.client.Connected(),
		"server_now_ms": a.client.Clock.ServerNow(),
		"offset_ms":     a.client.Clock.Offset(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
