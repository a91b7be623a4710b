package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/config"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/metrics"
)

// EboekhoudenConfig holds credentials and invoice defaults for the remote service
type EboekhoudenConfig struct {
	WSDL          string
	Username      string
	SecurityCode1 string
	SecurityCode2 string
	Invoice       InvoiceDefaults
	Timeout       time.Duration
}

// EboekhoudenClient implements accounting.Provider against the e-Boekhouden SOAP API.
// A session is opened on first use and reused until an operation reports an error.
type EboekhoudenClient struct {
	cfg        EboekhoudenConfig
	httpClient *http.Client
	log        zerolog.Logger
	metrics    *metrics.RemoteCalls
	now        func() time.Time

	mu        sync.Mutex
	transport *soapTransport
	sessionID string
}

var _ accounting.Provider = (*EboekhoudenClient)(nil)

// Option customises an EboekhoudenClient
type Option func(*EboekhoudenClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *EboekhoudenClient) { c.httpClient = hc }
}

// WithLogger sets the client logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *EboekhoudenClient) { c.log = log.With().Str("client", "eboekhouden").Logger() }
}

// WithMetrics records every remote call
func WithMetrics(m *metrics.RemoteCalls) Option {
	return func(c *EboekhoudenClient) { c.metrics = m }
}

// WithClock overrides the time source used for invoice dates
func WithClock(now func() time.Time) Option {
	return func(c *EboekhoudenClient) { c.now = now }
}

// NewEboekhoudenClient creates a new e-Boekhouden client. No network traffic
// happens until the first operation.
func NewEboekhoudenClient(cfg EboekhoudenConfig, opts ...Option) *EboekhoudenClient {
	c := &EboekhoudenClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ensureSession opens a session unless one is already held
func (c *EboekhoudenClient) ensureSession(ctx context.Context) (*soapTransport, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != nil && c.sessionID != "" {
		return c.transport, c.sessionID, nil
	}

	transport, err := newSOAPTransport(c.cfg.WSDL, c.httpClient)
	if err != nil {
		return nil, "", &accounting.AuthenticationError{Message: "cannot construct transport", Err: err}
	}

	var resp soapResponse[openSessionResult]
	err = c.invoke(ctx, transport, opOpenSession, &openSessionRequest{
		Username:      c.cfg.Username,
		SecurityCode1: c.cfg.SecurityCode1,
		SecurityCode2: c.cfg.SecurityCode2,
	}, &resp, &resp.Result)
	if err != nil {
		var remoteErr *accounting.RemoteOperationError
		if errors.As(err, &remoteErr) {
			return nil, "", &accounting.AuthenticationError{Message: remoteErr.Message, Err: err}
		}
		return nil, "", &accounting.AuthenticationError{Message: "cannot open session", Err: err}
	}
	if resp.Result.SessionID == "" {
		return nil, "", &accounting.AuthenticationError{Message: "no session identifier returned"}
	}

	c.transport = transport
	c.sessionID = resp.Result.SessionID
	c.log.Info().Msg("session opened")

	return c.transport, c.sessionID, nil
}

// invoke performs one remote call and checks the embedded error envelope
func (c *EboekhoudenClient) invoke(ctx context.Context, t *soapTransport, operation string, req, resp any, result operationResult) error {
	start := time.Now()
	err := t.call(ctx, operation, req, resp)
	if err != nil {
		c.metrics.Observe(operation, metrics.OutcomeTransport, time.Since(start))
		c.log.Warn().Err(err).Str("operation", operation).Msg("remote call failed")
		return fmt.Errorf("failed to call %s: %w", operation, err)
	}

	if err := checkError(operation, result); err != nil {
		c.metrics.Observe(operation, metrics.OutcomeRemoteError, time.Since(start))
		c.log.Warn().Err(err).Str("operation", operation).Msg("remote operation reported an error")
		return err
	}

	c.metrics.Observe(operation, metrics.OutcomeSuccess, time.Since(start))
	c.log.Debug().
		Str("operation", operation).
		Dur("duration", time.Since(start)).
		Msg("remote call completed")
	return nil
}

// invokeSession performs an authenticated call. A failure reported by the
// remote side drops the session so the next call opens a fresh one.
func (c *EboekhoudenClient) invokeSession(ctx context.Context, t *soapTransport, session, operation string, req, resp any, result operationResult) error {
	err := c.invoke(ctx, t, operation, req, resp, result)

	var remoteErr *accounting.RemoteOperationError
	if errors.As(err, &remoteErr) {
		c.dropSession(session)
	}
	return err
}

func (c *EboekhoudenClient) dropSession(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID == session {
		c.sessionID = ""
		c.log.Info().Msg("session dropped after remote error")
	}
}

// checkError inspects the <operation>Result envelope for a reported failure
func checkError(operation string, result operationResult) error {
	name := result.resultName()
	if name == "" {
		return fmt.Errorf("%w: %s", errMissingResult, operation)
	}
	if name != operation+"Result" {
		return fmt.Errorf("%w: %s: expected %sResult element, got %q", errMalformedResponse, operation, operation, name)
	}
	if em := result.errorDescriptor(); em.failed() {
		return &accounting.RemoteOperationError{
			Operation: operation,
			Code:      em.LastErrorCode,
			Message:   em.LastErrorDescription,
		}
	}
	return nil
}

// ListRelations returns all relations known to the remote bookkeeping
func (c *EboekhoudenClient) ListRelations(ctx context.Context) ([]accounting.Relation, error) {
	t, session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	var resp soapResponse[getRelatiesResult]
	err = c.invokeSession(ctx, t, session, opGetRelaties, &getRelatiesRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
		Filter:        relatiesFilter{Trefwoord: "", Code: "", ID: 0},
	}, &resp, &resp.Result)
	if err != nil {
		return nil, err
	}

	return mapList(asList(resp.Result.Relaties), relationFromRemote), nil
}

// CreateRelation adds a relation and returns it with the remote identifier attached
func (c *EboekhoudenClient) CreateRelation(ctx context.Context, rel accounting.Relation) (accounting.Relation, error) {
	t, session, err := c.ensureSession(ctx)
	if err != nil {
		return rel, err
	}

	var resp soapResponse[addRelatieResult]
	err = c.invokeSession(ctx, t, session, opAddRelatie, &addRelatieRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
		Relatie:       buildRelation(&rel),
	}, &resp, &resp.Result)
	if err != nil {
		return rel, err
	}

	rel.ID = resp.Result.RelID
	return rel, nil
}

// UpdateRelation updates a relation in place. The record is returned unchanged.
func (c *EboekhoudenClient) UpdateRelation(ctx context.Context, rel accounting.Relation) (accounting.Relation, error) {
	t, session, err := c.ensureSession(ctx)
	if err != nil {
		return rel, err
	}

	var resp soapResponse[updateRelatieResult]
	err = c.invokeSession(ctx, t, session, opUpdateRelatie, &updateRelatieRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
		Relatie:       buildRelation(&rel),
	}, &resp, &resp.Result)
	if err != nil {
		return rel, err
	}

	return rel, nil
}

// ListLedgers returns the chart of accounts
func (c *EboekhoudenClient) ListLedgers(ctx context.Context) ([]accounting.Ledger, error) {
	t, session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	var resp soapResponse[getGrootboekrekeningenResult]
	err = c.invokeSession(ctx, t, session, opGetGrootboekrekeningen, &getGrootboekrekeningenRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
		Filter:        ledgersFilter{ID: "", Code: "", Categorie: ""},
	}, &resp, &resp.Result)
	if err != nil {
		return nil, err
	}

	return mapList(asList(resp.Result.Rekeningen), ledgerFromRemote), nil
}

// ListMutations returns posted mutations matching filter. A nil filter matches everything.
func (c *EboekhoudenClient) ListMutations(ctx context.Context, filter *accounting.MutationFilter) ([]accounting.Mutation, error) {
	t, session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	var resp soapResponse[getMutatiesResult]
	err = c.invokeSession(ctx, t, session, opGetMutaties, &getMutatiesRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
		Filter:        mutationsFilterFrom(filter),
	}, &resp, &resp.Result)
	if errors.Is(err, errMissingResult) {
		return []accounting.Mutation{}, nil
	}
	if err != nil {
		return nil, err
	}

	// An absent mutation list means no matches.
	return mapList(asList(resp.Result.Mutaties), mutationFromRemote), nil
}

// CreateInvoice creates and books an invoice, returning the invoice number the remote side reports
func (c *EboekhoudenClient) CreateInvoice(ctx context.Context, order *accounting.WorkOrder) (string, error) {
	t, session, err := c.ensureSession(ctx)
	if err != nil {
		return "", err
	}

	var resp soapResponse[addFactuurResult]
	err = c.invokeSession(ctx, t, session, opAddFactuur, &addFactuurRequest{
		SessionID:     session,
		SecurityCode2: c.cfg.SecurityCode2,
		Factuur:       buildInvoice(order, c.cfg.Invoice, c.now()),
	}, &resp, &resp.Result)
	if err != nil {
		return "", err
	}

	return resp.Result.Factuurnummer, nil
}

// ConfigFromSettings maps loaded settings onto the client configuration
func ConfigFromSettings(s config.EboekhoudenConfig) EboekhoudenConfig {
	return EboekhoudenConfig{
		WSDL:          s.WSDL,
		Username:      s.Username,
		SecurityCode1: s.SecurityCode1,
		SecurityCode2: s.SecurityCode2,
		Invoice: InvoiceDefaults{
			PaymentTerm:      s.PaymentTerm,
			Template:         s.InvoiceTemplate,
			EmailFromAddress: s.EmailFromAddress,
			EmailFromName:    s.EmailFromName,
		},
		Timeout: s.Timeout,
	}
}
