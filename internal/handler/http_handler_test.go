package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/logger"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/repository"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/service"
)

func newTestMux(p *stubProvider) *http.ServeMux {
	mux := http.NewServeMux()
	NewHTTPHandler(newTestService(p), logger.Nop()).Routes(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHTTP_ListRelations(t *testing.T) {
	mux := newTestMux(&stubProvider{relations: []accounting.Relation{{ID: 3, Code: "ACME"}}})

	rec, body := do(t, mux, http.MethodGet, "/api/v1/relations", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])
	relations := body["relations"].([]interface{})
	assert.Equal(t, "ACME", relations[0].(map[string]interface{})["code"])
}

func TestHTTP_ListRelations_EmptyIsArray(t *testing.T) {
	mux := newTestMux(&stubProvider{relations: []accounting.Relation{}})

	rec, _ := do(t, mux, http.MethodGet, "/api/v1/relations", "")

	assert.Contains(t, rec.Body.String(), `"relations":[]`)
}

func TestHTTP_SyncRelation(t *testing.T) {
	mux := newTestMux(&stubProvider{})

	rec, body := do(t, mux, http.MethodPost, "/api/v1/relations", `{"id":0,"code":"ACME","company":"Acme BV"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(4711), body["id"])

	rec, body = do(t, mux, http.MethodPost, "/api/v1/relations", `{"id":12,"code":"ACME","company":"Acme BV"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(12), body["id"])
}

func TestHTTP_SyncRelation_Validation(t *testing.T) {
	mux := newTestMux(&stubProvider{})

	rec, body := do(t, mux, http.MethodPost, "/api/v1/relations", `{"company":"Acme BV"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "code", body["field"])
}

func TestHTTP_SyncRelation_BadBody(t *testing.T) {
	mux := newTestMux(&stubProvider{})

	rec, _ := do(t, mux, http.MethodPost, "/api/v1/relations", `{`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(&stubProvider{})

	rec, _ := do(t, mux, http.MethodDelete, "/api/v1/relations", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = do(t, mux, http.MethodPost, "/api/v1/ledgers", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = do(t, mux, http.MethodDelete, "/api/v1/invoices", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTP_RelationLink_NotFoundWithoutDatabase(t *testing.T) {
	mux := newTestMux(&stubProvider{})

	rec, _ := do(t, mux, http.MethodGet, "/api/v1/relations/link?code=ACME", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_ListLedgers(t *testing.T) {
	mux := newTestMux(&stubProvider{ledgers: []accounting.Ledger{{ID: 1, Code: "8000"}, {ID: 2, Code: "1300"}}})

	rec, body := do(t, mux, http.MethodGet, "/api/v1/ledgers", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["total"])
}

func TestHTTP_ListMutations_Filter(t *testing.T) {
	p := &stubProvider{mutations: []accounting.Mutation{}}
	mux := newTestMux(p)

	rec, _ := do(t, mux, http.MethodGet, "/api/v1/mutations?number=42&from=2024-01-01&to=2024-01-31", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, p.gotFilter)
	assert.Equal(t, int64(42), p.gotFilter.Number)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *p.gotFilter.DateFrom)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *p.gotFilter.DateTo)
}

func TestHTTP_ListMutations_BadQuery(t *testing.T) {
	mux := newTestMux(&stubProvider{})

	tests := []struct {
		query string
		field string
	}{
		{"number=abc", "number"},
		{"number=-1", "number"},
		{"from=01-01-2024", "from"},
		{"to=2024-13-01", "to"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec, body := do(t, mux, http.MethodGet, "/api/v1/mutations?"+tt.query, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.field, body["field"])
		})
	}
}

func TestHTTP_CreateInvoice(t *testing.T) {
	p := &stubProvider{}
	mux := newTestMux(p)

	payload := `{
		"invoice_number": "2024-001",
		"relation_code": "ACME",
		"tax_code": "HOOG_VERK_21",
		"ledger_code": "8000",
		"hours": [{"hours": "2", "price_per_hour": "85.00", "work_date": "2024-03-01"}]
	}`
	rec, body := do(t, mux, http.MethodPost, "/api/v1/invoices", payload)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "F2024-001", body["invoice_number"])
	require.NotNil(t, p.gotOrder)
	assert.Equal(t, "85", p.gotOrder.Hours[0].PricePerHour.String())
}

func TestHTTP_RemoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"authentication", &accounting.AuthenticationError{Message: "bad codes"}, http.StatusBadGateway},
		{"remote operation", &accounting.RemoteOperationError{Operation: "GetRelaties", Code: "E5", Message: "no access"}, http.StatusUnprocessableEntity},
		{"transport", assert.AnError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&stubProvider{err: tt.err})

			rec, body := do(t, mux, http.MethodGet, "/api/v1/relations", "")

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHTTP_RemoteErrorCarriesCode(t *testing.T) {
	mux := newTestMux(&stubProvider{err: &accounting.RemoteOperationError{Code: "E5", Message: "no access"}})

	_, body := do(t, mux, http.MethodGet, "/api/v1/ledgers", "")

	assert.Equal(t, "E5", body["code"])
	assert.Equal(t, "no access", body["error"])
}

func TestHTTP_ListInvoiceExports(t *testing.T) {
	syncLog := &memSyncLog{exports: []*repository.InvoiceExport{
		{InvoiceNumber: "2024-002", RelationCode: "ACME", RemoteInvoiceNumber: "F2024-002", LineCount: 3},
	}}
	mux := http.NewServeMux()
	svc := service.NewAccountingService(&stubProvider{}, syncLog, logger.Nop())
	NewHTTPHandler(svc, logger.Nop()).Routes(mux)

	rec, body := do(t, mux, http.MethodGet, "/api/v1/invoices?relation_code=ACME&limit=20", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, "ACME", syncLog.gotRelationCode)
	assert.Equal(t, 20, syncLog.gotLimit)
	export := body["exports"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "F2024-002", export["remote_invoice_number"])
}

func TestHTTP_ListInvoiceExports_BadLimit(t *testing.T) {
	mux := newTestMux(&stubProvider{})

	for _, q := range []string{"limit=abc", "limit=-5", "limit=501"} {
		rec, body := do(t, mux, http.MethodGet, "/api/v1/invoices?"+q, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, "limit", body["field"], q)
	}
}

func TestHTTP_ListInvoiceExports_WithoutDatabase(t *testing.T) {
	mux := newTestMux(&stubProvider{})

	rec, _ := do(t, mux, http.MethodGet, "/api/v1/invoices", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"exports":[]`)
}
