package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// CollectionService defines the read-side methods the asset handler needs
// from the orchestrator. It is declared locally so the handler package does
// not depend on the concrete implementation.
type CollectionService interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	Refresh(ctx context.Context) (domain.Snapshot, error)
	GrowthInfo(ctx context.Context, tokenID uint64) (domain.GrowthInfo, error)
	Owner() string
}

// AssetHandler serves the collection read endpoints.
type AssetHandler struct {
	collection CollectionService
	logger     *slog.Logger
}

// NewAssetHandler creates an AssetHandler with the given service and logger.
func NewAssetHandler(collection CollectionService, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{
		collection: collection,
		logger:     logger,
	}
}

// snapshotResponse wraps a snapshot with the truncated display form of the
// owner address.
type snapshotResponse struct {
	domain.Snapshot
	OwnerShort string `json:"ownerShort"`
}

// GetSnapshot returns the owner's assets with their listing table, served
// from cache when warm.
// GET /api/assets
func (h *AssetHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.collection.Snapshot(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get snapshot failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{
		Snapshot:   snap,
		OwnerShort: domain.TruncateAddress(snap.Owner),
	})
}

// Refresh forces a wholesale rebuild of the listing table from chain.
// POST /api/refresh
func (h *AssetHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.collection.Refresh(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: refresh failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{
		Snapshot:   snap,
		OwnerShort: domain.TruncateAddress(snap.Owner),
	})
}

// GetGrowth returns a token's current growth stage.
// GET /api/assets/{id}/growth
func (h *AssetHandler) GetGrowth(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	info, err := h.collection.GrowthInfo(r.Context(), tokenID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get growth failed",
			slog.Uint64("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}
