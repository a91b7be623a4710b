package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/config"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/logger"
)

const testConfig = `
eboekhouden:
  username: demo
  security_code1: code1
  security_code2: code2
`

type stubProvider struct {
	relations []accounting.Relation
	ledgers   []accounting.Ledger
	mutations []accounting.Mutation

	gotFilter *accounting.MutationFilter
	gotOrder  *accounting.WorkOrder
}

func (p *stubProvider) ListRelations(context.Context) ([]accounting.Relation, error) {
	return p.relations, nil
}

func (p *stubProvider) CreateRelation(_ context.Context, rel accounting.Relation) (accounting.Relation, error) {
	return rel, nil
}

func (p *stubProvider) UpdateRelation(_ context.Context, rel accounting.Relation) (accounting.Relation, error) {
	return rel, nil
}

func (p *stubProvider) ListLedgers(context.Context) ([]accounting.Ledger, error) {
	return p.ledgers, nil
}

func (p *stubProvider) ListMutations(_ context.Context, filter *accounting.MutationFilter) ([]accounting.Mutation, error) {
	p.gotFilter = filter
	return p.mutations, nil
}

func (p *stubProvider) CreateInvoice(_ context.Context, order *accounting.WorkOrder) (string, error) {
	p.gotOrder = order
	return order.InvoiceNumber, nil
}

func run(t *testing.T, p *stubProvider, args ...string) (string, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	root := NewRootCommand(func(*config.Config, *logger.Logger) (accounting.Provider, error) {
		return p, nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", path}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestRelationsCommand(t *testing.T) {
	city := "Utrecht"
	p := &stubProvider{relations: []accounting.Relation{
		{ID: 3, Code: "ACME", Company: "Acme BV", City: &city},
		{ID: 4, Code: "GLOBEX", Company: "Globex"},
	}}

	out, err := run(t, p, "relations")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Utrecht")
	assert.Contains(t, lines[2], "Globex")
	assert.Contains(t, lines[2], "-")
}

func TestLedgersCommand(t *testing.T) {
	p := &stubProvider{ledgers: []accounting.Ledger{{ID: 1, Code: "8000", Category: "VW", Description: "Omzet"}}}

	out, err := run(t, p, "ledgers")
	require.NoError(t, err)

	assert.Contains(t, out, "8000")
	assert.Contains(t, out, "Omzet")
}

func TestMutationsCommand_Flags(t *testing.T) {
	p := &stubProvider{mutations: []accounting.Mutation{
		{Number: 42, Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Kind: "FactuurVerstuurd", Lines: make([]accounting.MutationLine, 2)},
	}}

	out, err := run(t, p, "mutations", "--number", "42", "--from", "2024-01-01", "--to", "2024-01-31")
	require.NoError(t, err)

	require.NotNil(t, p.gotFilter)
	assert.Equal(t, int64(42), p.gotFilter.Number)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *p.gotFilter.DateFrom)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *p.gotFilter.DateTo)
	assert.Contains(t, out, "2024-01-05")
}

func TestMutationsCommand_BadDate(t *testing.T) {
	_, err := run(t, &stubProvider{}, "mutations", "--from", "05-01-2024")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from")
}

func TestInvoiceCommand(t *testing.T) {
	p := &stubProvider{}
	path := filepath.Join(t.TempDir(), "order.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"invoice_number": "2024-007",
		"relation_code": "ACME",
		"tax_code": "HOOG_VERK_21",
		"ledger_code": "8000",
		"hours": [{"hours": "1.5", "price_per_hour": "90", "work_date": "2024-03-01"}],
		"products": [{"amount": "2", "code": "P1", "description": "Cable", "sell_price_per_one": "4.95"}]
	}`), 0o600))

	out, err := run(t, p, "invoice", path)
	require.NoError(t, err)

	assert.Equal(t, "created invoice 2024-007 (2 lines)\n", out)
	require.NotNil(t, p.gotOrder)
	assert.True(t, p.gotOrder.Hours[0].Hours.Equal(decimal.RequireFromString("1.5")))
}

func TestInvoiceCommand_ValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"invoice_number": "2024-008"}`), 0o600))

	_, err := run(t, &stubProvider{}, "invoice", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation_code")
}

func TestInvoiceCommand_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"invoice_nr": "x"}`), 0o600))

	_, err := run(t, &stubProvider{}, "invoice", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read work order")
}

func TestInvoiceCommand_RequiresFile(t *testing.T) {
	_, err := run(t, &stubProvider{}, "invoice")

	assert.Error(t, err)
}
