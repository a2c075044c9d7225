// Package handler internal/infrastructure/handler/rate_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/application/service"
	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/damon-houk/mock-rate-server/internal/domain/repository"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// DiagnosticsPrefix is reserved for routes that describe the mock itself
const DiagnosticsPrefix = "/_mock"

// RateHandler handles HTTP requests for rate quotes
type RateHandler struct {
	service *service.QuoteService
	journal repository.QuoteJournal
	logger  logger.Logger
}

// NewRateHandler creates a new rate handler; journal may be nil to disable recording
func NewRateHandler(service *service.QuoteService, journal repository.QuoteJournal, log logger.Logger) *RateHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &RateHandler{
		service: service,
		journal: journal,
		logger:  log,
	}
}

// GetQuote serves /latest and /YYYY-MM-DD
func (h *RateHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	endpoint, err := service.ParseEndpoint(r.URL.Path)
	if err != nil {
		h.logger.Warn("Invalid endpoint", map[string]interface{}{
			"request_id": requestID,
			"path":       r.URL.Path,
		})
		http.Error(w, service.ErrInvalidEndpoint.Error(), http.StatusBadRequest)
		h.record(r, http.StatusBadRequest, nil)
		return
	}

	query := r.URL.Query()
	req := service.QuoteRequest{
		Base:    query.Get("base"),
		Symbols: service.ParseSymbols(query.Get("symbols")),
	}

	h.logger.Info("Handling quote request", map[string]interface{}{
		"request_id": requestID,
		"endpoint":   endpoint.Raw,
		"base":       req.Base,
		"symbols":    req.Symbols,
	})

	quote, err := h.service.Quote(r.Context(), endpoint, req)
	if err != nil {
		h.logger.Error("Unexpected error building quote", map[string]interface{}{
			"request_id": requestID,
			"endpoint":   endpoint.Raw,
			"error":      err.Error(),
		})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		h.record(r, http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, h.logger.WithField("request_id", requestID), http.StatusOK, quote)
	h.record(r, http.StatusOK, quote)
}

// GetCurrencies lists the codes the configured rate source can quote
func (h *RateHandler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, CurrenciesResponse{
		Base:       entity.DefaultBase,
		Currencies: h.service.Currencies(),
	})
}

// GetJournalEntry returns the quote recorded for a request ID
func (h *RateHandler) GetJournalEntry(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	entry, err := h.journal.FindByRequestID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrJournalEntryNotFound) {
			sendErrorResponse(w, h.logger, "Journal entry not found",
				"No quote was recorded for the requested ID", http.StatusNotFound, requestID)
			return
		}

		h.logger.Error("Failed to read journal", map[string]interface{}{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"The journal could not be read", http.StatusInternalServerError, requestID)
		return
	}

	writeJSON(w, h.logger.WithField("request_id", requestID), http.StatusOK, entry)
}

// RegisterRoutes registers the rate handler routes. Path cleaning is disabled
// so that ParseEndpoint alone decides how surplus slashes are treated.
func (h *RateHandler) RegisterRoutes(router *mux.Router) {
	router.SkipClean(true)

	routes := []string{"GET " + DiagnosticsPrefix + "/currencies"}
	router.HandleFunc(DiagnosticsPrefix+"/currencies", h.GetCurrencies).Methods(http.MethodGet)

	if h.journal != nil {
		router.HandleFunc(DiagnosticsPrefix+"/journal/{id}", h.GetJournalEntry).Methods(http.MethodGet)
		routes = append(routes, "GET "+DiagnosticsPrefix+"/journal/{id}")
	}

	// Every other path is resolved by ParseEndpoint so that bad paths get a 400 rather than a 404
	router.PathPrefix("/").HandlerFunc(h.GetQuote).Methods(http.MethodGet)
	routes = append(routes, "GET /latest", "GET /{YYYY-MM-DD}")

	h.logger.Info("Rate routes registered", map[string]interface{}{
		"routes": routes,
	})
}

// record writes the outcome to the journal; failures are logged and never alter the response
func (h *RateHandler) record(r *http.Request, status int, quote *entity.RateQuote) {
	if h.journal == nil {
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	entry := &entity.JournalEntry{
		RequestID: requestID,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		Status:    status,
		ServedAt:  time.Now().UTC(),
		Quote:     quote,
	}

	if err := h.journal.Record(r.Context(), entry); err != nil {
		h.logger.Warn("Failed to record quote", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
	}
}

// writeJSON sends v as the response body; encoding failures are logged since the status is already sent
func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", map[string]interface{}{
			"status": status,
			"error":  err.Error(),
		})
	}
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	writeJSON(w, log.WithField("request_id", requestID), statusCode, ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	})
}
