package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	s3blob "github.com/quantfold/divtracker/internal/blob/s3"
	"github.com/quantfold/divtracker/internal/domain"
)

// ArchiveHandler lists archived raw-page snapshots for a ticker. Registered
// only when the page archive is configured.
type ArchiveHandler struct {
	reader domain.BlobReader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(reader domain.BlobReader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		reader: reader,
		logger: logHandler(logger, "archive"),
	}
}

// snapshotResponse is the wire shape for one archived page.
type snapshotResponse struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Archived string `json:"archived"`
}

// ListSnapshots returns the archived page snapshots for a ticker, newest last.
// GET /api/archive/{ticker}
func (h *ArchiveHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(pathParam(r, "ticker"))

	infos, err := h.reader.List(r.Context(), s3blob.PagePrefix(ticker))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "snapshot listing failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}

	resp := make([]snapshotResponse, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, snapshotResponse{
			Path:     info.Path,
			Size:     info.Size,
			Archived: info.LastModified.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
