package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// ActionService defines the mutating methods the action handler needs from
// the orchestrator.
type ActionService interface {
	ListForSale(ctx context.Context, tokenID uint64, terms domain.SaleTerms) (domain.ActionResult, error)
	ListForAuction(ctx context.Context, tokenID uint64, terms domain.SaleTerms) (domain.ActionResult, error)
	Evolve(ctx context.Context, tokenID uint64) (domain.ActionResult, error)
	Feed(ctx context.Context, tokenID uint64) (domain.ActionResult, error)
	Resolve(ctx context.Context, tokenID uint64) (domain.ActionResult, error)
	History(ctx context.Context, limit int) ([]domain.ActionRecord, error)
}

// ActionHandler serves the marketplace action endpoints.
type ActionHandler struct {
	actions ActionService
	logger  *slog.Logger
}

// NewActionHandler creates an ActionHandler with the given service and logger.
func NewActionHandler(actions ActionService, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{
		actions: actions,
		logger:  logger,
	}
}

// listRequest is the JSON body for the list and auction endpoints. Price is
// a decimal string; duration is one of the fixed labels ("1 hour" through
// "6 months").
type listRequest struct {
	Price    string `json:"price"`
	Duration string `json:"duration"`
}

// terms validates the request body into sale terms.
func (req listRequest) terms() (domain.SaleTerms, error) {
	var t domain.SaleTerms
	if !t.SetPrice(req.Price) {
		return t, domain.ErrInvalidPrice
	}
	if err := t.SetDuration(req.Duration, time.Now()); err != nil {
		return t, err
	}
	return t, nil
}

// ListForSale lists a token on the fixed-price market.
// POST /api/assets/{id}/list
func (h *ActionHandler) ListForSale(w http.ResponseWriter, r *http.Request) {
	h.runListing(w, r, "list", h.actions.ListForSale)
}

// ListForAuction lists a token on the auction market.
// POST /api/assets/{id}/auction
func (h *ActionHandler) ListForAuction(w http.ResponseWriter, r *http.Request) {
	h.runListing(w, r, "auction", h.actions.ListForAuction)
}

// Evolve advances a token's growth stage.
// POST /api/assets/{id}/evolve
func (h *ActionHandler) Evolve(w http.ResponseWriter, r *http.Request) {
	h.runSimple(w, r, "evolve", h.actions.Evolve)
}

// Feed feeds a token, spending Drink.
// POST /api/assets/{id}/feed
func (h *ActionHandler) Feed(w http.ResponseWriter, r *http.Request) {
	h.runSimple(w, r, "feed", h.actions.Feed)
}

// Resolve settles an ended listing, dispatching on how the token is listed.
// POST /api/assets/{id}/resolve
func (h *ActionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	h.runSimple(w, r, "resolve", h.actions.Resolve)
}

// ListActions returns the wallet's recent action journal.
// GET /api/actions?limit=50
func (h *ActionHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	recs, err := h.actions.History(r.Context(), limitParam(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list actions failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	if recs == nil {
		recs = []domain.ActionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": recs})
}

// runListing handles the two listing endpoints, which share the body format.
func (h *ActionHandler) runListing(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context, uint64, domain.SaleTerms) (domain.ActionResult, error)) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	terms, err := req.terms()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := fn(r.Context(), tokenID, terms)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: "+name+" failed",
			slog.Uint64("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// runSimple handles the bodyless action endpoints.
func (h *ActionHandler) runSimple(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context, uint64) (domain.ActionResult, error)) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	res, err := fn(r.Context(), tokenID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: "+name+" failed",
			slog.Uint64("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
