package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// ArchiveHandler serves the archived snapshot endpoints. It is only
// registered when snapshot archiving is configured.
type ArchiveHandler struct {
	reader domain.BlobReader
	owner  func() string
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler. owner is read per request so
// the handler follows the active wallet session.
func NewArchiveHandler(reader domain.BlobReader, owner func() string, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		reader: reader,
		owner:  owner,
		logger: logger,
	}
}

// ListArchives enumerates the wallet's archived snapshots, oldest first
// (object keys are timestamped, so store order is chronological).
// GET /api/snapshots
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	prefix := fmt.Sprintf("snapshots/%s/", h.owner())

	infos, err := h.reader.List(r.Context(), prefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	if infos == nil {
		infos = []domain.BlobInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": infos})
}

// GetArchive streams one archived snapshot by its file name.
// GET /api/snapshots/{name}
func (h *ArchiveHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing snapshot name")
		return
	}
	path := fmt.Sprintf("snapshots/%s/%s", h.owner(), name)

	body, err := h.reader.Get(r.Context(), path)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get archive failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "handler: archive stream interrupted",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
