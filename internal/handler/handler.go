// Package handler exposes the parse/correct/confirm flow over JSON.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kiriman/internal/contact"
	"kiriman/internal/corrector"
	"kiriman/internal/extractor"
	"kiriman/internal/store"
	"kiriman/internal/wilayah"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	corrector *corrector.Corrector
	lookup    *wilayah.Client
	logger    *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(st *store.Store, co *corrector.Corrector, lookup *wilayah.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:     st,
		corrector: co,
		lookup:    lookup,
		logger:    logger.With(zap.String("component", "handler")),
	}
}

type parseRequest struct {
	Message string `json:"message"`
}

type parseResponse struct {
	Found            bool             `json:"found"`
	Contact          *contact.Contact `json:"contact,omitempty"`
	FormattedAddress string           `json:"formatted_address,omitempty"`
}

// Parse extracts a draft contact from a pasted message without touching the
// reference dataset. A message with no name and no phone is not an error;
// it answers found=false.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	logger, done := h.request(r, "parse")
	defer done()

	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	req, ok := h.decodeMessage(w, r, logger)
	if !ok {
		return
	}

	draft := extractor.Extract(req.Message)
	if draft == nil {
		respondJSON(w, http.StatusOK, parseResponse{Found: false})
		return
	}
	respondJSON(w, http.StatusOK, parseResponse{
		Found:            true,
		Contact:          draft,
		FormattedAddress: contact.FormatAddress(draft),
	})
}

// Correct extracts a draft and resolves its administrative names against
// the reference dataset.
func (h *Handler) Correct(w http.ResponseWriter, r *http.Request) {
	logger, done := h.request(r, "correct")
	defer done()

	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	req, ok := h.decodeMessage(w, r, logger)
	if !ok {
		return
	}

	draft := extractor.Extract(req.Message)
	if draft == nil {
		respondJSON(w, http.StatusOK, parseResponse{Found: false})
		return
	}

	corrected := h.corrector.Correct(r.Context(), draft)
	logger.Info("message corrected",
		zap.Bool("validated", corrected.Validated),
		zap.Int("corrections", len(corrected.Corrections)),
	)
	respondJSON(w, http.StatusOK, parseResponse{
		Found:            true,
		Contact:          corrected,
		FormattedAddress: contact.FormatAddress(corrected),
	})
}

type saveResponse struct {
	ID int64 `json:"id"`
}

// Contacts saves a confirmed contact (POST) or lists recent ones (GET).
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	logger, done := h.request(r, "contacts")
	defer done()

	switch r.Method {
	case http.MethodPost:
		h.saveContact(w, r, logger)
	case http.MethodGet:
		h.listContacts(w, r, logger)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *Handler) saveContact(w http.ResponseWriter, r *http.Request, logger *zap.Logger) {
	var c contact.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if c.Name == "" && c.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "contact needs a name or a phone number")
		return
	}
	if c.Payment == "" {
		c.Payment = contact.PaymentUnknown
	}

	id, err := h.store.SaveContact(r.Context(), &c)
	if err != nil {
		logger.Error("saving contact failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save contact")
		return
	}
	logger.Info("contact saved", zap.Int64("id", id), zap.Bool("validated", c.Validated))
	respondJSON(w, http.StatusCreated, saveResponse{ID: id})
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request, logger *zap.Logger) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	contacts, err := h.store.RecentContacts(r.Context(), limit)
	if err != nil {
		logger.Error("listing contacts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	if contacts == nil {
		contacts = []store.SavedContact{}
	}
	respondJSON(w, http.StatusOK, contacts)
}

// ClearCache resets the reference caches, forcing the next correction to
// refetch from the lookup service.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	logger, done := h.request(r, "cache_clear")
	defer done()

	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	h.lookup.ClearCache()
	logger.Info("reference cache cleared")
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeMessage(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (parseRequest, bool) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return req, false
	}
	return req, true
}

// request tags a per-request logger with a correlation id and logs the
// duration on completion.
func (h *Handler) request(r *http.Request, name string) (*zap.Logger, func()) {
	logger := h.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("handler", name),
	)
	start := time.Now()
	return logger, func() {
		logger.Debug("request done", zap.Duration("took", time.Since(start)))
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
