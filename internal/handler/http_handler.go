package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/errors"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/logger"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/service"
)

const dateLayout = "2006-01-02"

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	service *service.AccountingService
	log     *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(service *service.AccountingService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		log:     log,
	}
}

// Routes registers the API routes on mux
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/relations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListRelations(w, r)
		case http.MethodPost:
			h.SyncRelation(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/relations/link", h.GetRelationLink)
	mux.HandleFunc("/api/v1/ledgers", h.ListLedgers)
	mux.HandleFunc("/api/v1/mutations", h.ListMutations)
	mux.HandleFunc("/api/v1/invoices", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListInvoiceExports(w, r)
		case http.MethodPost:
			h.CreateInvoice(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// ListRelations handles list relations HTTP requests
func (h *HTTPHandler) ListRelations(w http.ResponseWriter, r *http.Request) {
	relations, err := h.service.ListRelations(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"relations": relations,
		"total":     len(relations),
	})
}

// SyncRelation handles create-or-update relation HTTP requests
func (h *HTTPHandler) SyncRelation(w http.ResponseWriter, r *http.Request) {
	var rel accounting.Relation
	if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	synced, err := h.service.SyncRelation(r.Context(), rel)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if rel.IsNew() {
		status = http.StatusCreated
	}
	writeJSON(w, status, synced)
}

// GetRelationLink handles relation link lookups
func (h *HTTPHandler) GetRelationLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	link, err := h.service.RelationLink(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// ListLedgers handles list ledgers HTTP requests
func (h *HTTPHandler) ListLedgers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ledgers, err := h.service.ListLedgers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ledgers": ledgers,
		"total":   len(ledgers),
	})
}

// ListMutations handles list mutations HTTP requests
func (h *HTTPHandler) ListMutations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := mutationFilterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	mutations, err := h.service.ListMutations(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mutations": mutations,
		"total":     len(mutations),
	})
}

// CreateInvoice handles create invoice HTTP requests
func (h *HTTPHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var order accounting.WorkOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	number, err := h.service.CreateInvoice(r.Context(), &order)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"invoice_number": number})
}

// ListInvoiceExports handles invoice export listings
func (h *HTTPHandler) ListInvoiceExports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, errors.InvalidInput("limit", "must be an integer"))
			return
		}
		limit = n
	}

	exports, err := h.service.InvoiceExports(r.Context(), r.URL.Query().Get("relation_code"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exports": exports,
		"total":   len(exports),
	})
}

func mutationFilterFromQuery(r *http.Request) (*accounting.MutationFilter, error) {
	q := r.URL.Query()
	filter := &accounting.MutationFilter{}

	if v := q.Get("number"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, errors.InvalidInput("number", "must be a non-negative integer")
		}
		filter.Number = n
	}

	for _, p := range []struct {
		key string
		dst **time.Time
	}{
		{"from", &filter.DateFrom},
		{"to", &filter.DateTo},
	} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, errors.InvalidInput(p.key, "invalid date format, expected YYYY-MM-DD")
		}
		*p.dst = &t
	}

	return filter, nil
}

// statusFor maps service and remote errors to an HTTP status
func statusFor(err error) int {
	var authErr *accounting.AuthenticationError
	var remoteErr *accounting.RemoteOperationError
	var appErr *errors.AppError

	switch {
	case stderrors.As(err, &appErr):
		return errors.HTTPStatus(appErr)
	case stderrors.As(err, &authErr):
		return http.StatusBadGateway
	case stderrors.As(err, &remoteErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Request failed")
	}

	body := map[string]string{"error": err.Error()}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
		body["error"] = appErr.Message
	}
	var remoteErr *accounting.RemoteOperationError
	if stderrors.As(err, &remoteErr) && remoteErr.Code != "" {
		body["code"] = remoteErr.Code
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
