package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quantfold/divtracker/internal/domain"
	"github.com/quantfold/divtracker/internal/service"
)

// CompanyHandler serves the tracked-company endpoints: list, add, delete,
// and autocomplete.
type CompanyHandler struct {
	companies *service.CompanyService
	logger    *slog.Logger
}

// NewCompanyHandler creates a CompanyHandler.
func NewCompanyHandler(companies *service.CompanyService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{
		companies: companies,
		logger:    logHandler(logger, "company"),
	}
}

// companyResponse is the wire shape for a tracked company.
type companyResponse struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// ListCompanies returns every tracked company.
// GET /api/company
func (h *CompanyHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list companies failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}

	resp := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		resp = append(resp, companyResponse{Ticker: c.Ticker, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

// addCompanyRequest is the body for AddCompany.
type addCompanyRequest struct {
	Ticker string `json:"ticker"`
}

// AddCompany starts tracking a new ticker. The initial scrape happens inline,
// so failures (unknown ticker, site unreachable) surface to the caller.
// POST /api/company
func (h *CompanyHandler) AddCompany(w http.ResponseWriter, r *http.Request) {
	var req addCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	company, err := h.companies.Add(r.Context(), ticker)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "ticker already tracked: "+ticker)
		case errors.Is(err, domain.ErrNoTitle), errors.Is(err, domain.ErrFetch):
			writeError(w, http.StatusBadGateway, "failed to scrape ticker: "+ticker)
		default:
			h.logger.ErrorContext(r.Context(), "add company failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to add company")
		}
		return
	}

	writeJSON(w, http.StatusCreated, companyResponse{Ticker: company.Ticker, Name: company.Name})
}

// DeleteCompany stops tracking a ticker and returns the removed company name.
// DELETE /api/company/{ticker}
func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(pathParam(r, "ticker"))

	name, err := h.companies.Delete(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown ticker: "+ticker)
			return
		}
		h.logger.ErrorContext(r.Context(), "delete company failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete company")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

// Autocomplete returns company names matching the keyword prefix.
// GET /api/company/autocomplete?keyword=
func (h *CompanyHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	names := h.companies.Autocomplete(keyword)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}
