package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantfold/divtracker/internal/domain"
	"github.com/quantfold/divtracker/internal/service"
)

// FinanceHandler serves dividend-history lookups.
type FinanceHandler struct {
	finance *service.FinanceService
	logger  *slog.Logger
}

// NewFinanceHandler creates a FinanceHandler.
func NewFinanceHandler(finance *service.FinanceService, logger *slog.Logger) *FinanceHandler {
	return &FinanceHandler{
		finance: finance,
		logger:  logHandler(logger, "finance"),
	}
}

// dividendResponse is the wire shape for one payout.
type dividendResponse struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

// financeResponse is the wire shape for a company's dividend history.
type financeResponse struct {
	Company   companyResponse    `json:"company"`
	Dividends []dividendResponse `json:"dividends"`
}

// GetDividends returns the full payout history for a company display name.
// GET /api/finance/dividend/{companyName}
func (h *FinanceHandler) GetDividends(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "companyName")

	result, err := h.finance.DividendsByCompanyName(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown company: "+name)
			return
		}
		h.logger.ErrorContext(r.Context(), "dividend lookup failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to look up dividends")
		return
	}

	resp := financeResponse{
		Company: companyResponse{
			Ticker: result.Company.Ticker,
			Name:   result.Company.Name,
		},
		Dividends: make([]dividendResponse, 0, len(result.Dividends)),
	}
	for _, d := range result.Dividends {
		resp.Dividends = append(resp.Dividends, dividendResponse{
			Date:   d.Date.Format(time.DateOnly),
			Amount: d.Amount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
