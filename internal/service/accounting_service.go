package service

import (
	"context"
	"strings"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/errors"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/logger"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/repository"
)

// SyncLog records what has been pushed to the remote bookkeeping
type SyncLog interface {
	UpsertRelationLink(ctx context.Context, link *repository.RelationLink) error
	GetRelationLink(ctx context.Context, code string) (*repository.RelationLink, error)
	RecordInvoiceExport(ctx context.Context, export *repository.InvoiceExport) error
	ListInvoiceExports(ctx context.Context, relationCode string, limit int) ([]*repository.InvoiceExport, error)
}

// MaxExportsLimit caps a single invoice export listing
const MaxExportsLimit = 500

// NopSyncLog is used when no database is configured
type NopSyncLog struct{}

func (NopSyncLog) UpsertRelationLink(context.Context, *repository.RelationLink) error { return nil }

func (NopSyncLog) GetRelationLink(_ context.Context, code string) (*repository.RelationLink, error) {
	return nil, errors.NotFound("relation_link", code)
}

func (NopSyncLog) RecordInvoiceExport(context.Context, *repository.InvoiceExport) error { return nil }

func (NopSyncLog) ListInvoiceExports(context.Context, string, int) ([]*repository.InvoiceExport, error) {
	return []*repository.InvoiceExport{}, nil
}

// AccountingService handles relation sync and invoice export
type AccountingService struct {
	provider accounting.Provider
	syncLog  SyncLog
	log      *logger.Logger
}

// NewAccountingService creates a new accounting service
func NewAccountingService(
	provider accounting.Provider,
	syncLog SyncLog,
	log *logger.Logger,
) *AccountingService {
	if syncLog == nil {
		syncLog = NopSyncLog{}
	}
	return &AccountingService{
		provider: provider,
		syncLog:  syncLog,
		log:      log,
	}
}

// ListRelations returns every relation known remotely
func (s *AccountingService) ListRelations(ctx context.Context) ([]accounting.Relation, error) {
	relations, err := s.provider.ListRelations(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list relations")
		return nil, err
	}
	s.log.Debug().Int("count", len(relations)).Msg("Listed relations")
	return relations, nil
}

// ListLedgers returns the chart of accounts
func (s *AccountingService) ListLedgers(ctx context.Context) ([]accounting.Ledger, error) {
	ledgers, err := s.provider.ListLedgers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list ledgers")
		return nil, err
	}
	s.log.Debug().Int("count", len(ledgers)).Msg("Listed ledgers")
	return ledgers, nil
}

// ListMutations returns mutations matching the filter
func (s *AccountingService) ListMutations(ctx context.Context, filter *accounting.MutationFilter) ([]accounting.Mutation, error) {
	if filter != nil && filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, errors.InvalidInput("to", "end date cannot be before start date")
	}

	mutations, err := s.provider.ListMutations(ctx, filter)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list mutations")
		return nil, err
	}
	s.log.Debug().Int("count", len(mutations)).Msg("Listed mutations")
	return mutations, nil
}

// SyncRelation creates the relation remotely when it has no identity yet and updates it otherwise.
// The resulting remote identifier is recorded against the relation code.
func (s *AccountingService) SyncRelation(ctx context.Context, rel accounting.Relation) (accounting.Relation, error) {
	rel.Code = strings.TrimSpace(rel.Code)
	if rel.Code == "" {
		return accounting.Relation{}, errors.InvalidInput("code", "relation code is required")
	}
	if strings.TrimSpace(rel.Company) == "" {
		return accounting.Relation{}, errors.InvalidInput("company", "company name is required")
	}

	var (
		synced accounting.Relation
		err    error
	)
	if rel.IsNew() {
		synced, err = s.provider.CreateRelation(ctx, rel)
	} else {
		synced, err = s.provider.UpdateRelation(ctx, rel)
	}
	if err != nil {
		s.log.Error().Err(err).Str("code", rel.Code).Msg("Failed to sync relation")
		return accounting.Relation{}, err
	}

	link := &repository.RelationLink{Code: synced.Code, RemoteID: synced.ID}
	if err := s.syncLog.UpsertRelationLink(ctx, link); err != nil {
		// the remote side already holds the change
		s.log.Warn().Err(err).Str("code", synced.Code).Msg("Failed to record relation link")
	}

	s.log.Info().
		Str("code", synced.Code).
		Int64("remote_id", synced.ID).
		Bool("created", rel.IsNew()).
		Msg("Relation synced")

	return synced, nil
}

// RelationLink returns the remote identifier last recorded for a relation code
func (s *AccountingService) RelationLink(ctx context.Context, code string) (*repository.RelationLink, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.InvalidInput("code", "relation code is required")
	}
	return s.syncLog.GetRelationLink(ctx, code)
}

// CreateInvoice validates a work order, pushes it as an invoice and records the export
func (s *AccountingService) CreateInvoice(ctx context.Context, order *accounting.WorkOrder) (string, error) {
	if err := validateWorkOrder(order); err != nil {
		return "", err
	}

	number, err := s.provider.CreateInvoice(ctx, order)
	if err != nil {
		s.log.Error().Err(err).Str("invoice_number", order.InvoiceNumber).Msg("Failed to create invoice")
		return "", err
	}

	export := &repository.InvoiceExport{
		InvoiceNumber:       order.InvoiceNumber,
		RelationCode:        order.RelationCode,
		RemoteInvoiceNumber: number,
		LineCount:           order.LineCount(),
	}
	if err := s.syncLog.RecordInvoiceExport(ctx, export); err != nil {
		s.log.Warn().Err(err).Str("invoice_number", order.InvoiceNumber).Msg("Failed to record invoice export")
	}

	s.log.Info().
		Str("invoice_number", order.InvoiceNumber).
		Str("remote_invoice_number", number).
		Int("lines", order.LineCount()).
		Msg("Invoice created")

	return number, nil
}

// InvoiceExports lists recorded invoice exports, newest first. An empty relation code lists all.
func (s *AccountingService) InvoiceExports(ctx context.Context, relationCode string, limit int) ([]*repository.InvoiceExport, error) {
	if limit < 0 || limit > MaxExportsLimit {
		return nil, errors.InvalidInput("limit", "limit must be between 0 and 500")
	}

	exports, err := s.syncLog.ListInvoiceExports(ctx, strings.TrimSpace(relationCode), limit)
	if err != nil {
		s.log.Error().Err(err).Str("relation_code", relationCode).Msg("Failed to list invoice exports")
		return nil, err
	}
	return exports, nil
}

func validateWorkOrder(order *accounting.WorkOrder) error {
	if order == nil {
		return errors.InvalidInput("invoice", "invoice is required")
	}
	if strings.TrimSpace(order.InvoiceNumber) == "" {
		return errors.InvalidInput("invoice_number", "invoice number is required")
	}
	if strings.TrimSpace(order.RelationCode) == "" {
		return errors.InvalidInput("relation_code", "relation code is required")
	}
	if order.LineCount() < 1 {
		return errors.InvalidInput("lines", "invoice must have at least 1 line")
	}
	if strings.TrimSpace(order.LedgerCode) == "" {
		return errors.InvalidInput("ledger_code", "ledger code is required")
	}
	if strings.TrimSpace(order.TaxCode) == "" {
		return errors.InvalidInput("tax_code", "tax code is required")
	}

	for _, h := range order.Hours {
		if !h.Hours.IsPositive() {
			return errors.InvalidInput("hours", "hours must be positive")
		}
		if h.PricePerHour.IsNegative() {
			return errors.InvalidInput("price_per_hour", "price per hour cannot be negative")
		}
	}
	for _, p := range order.Products {
		if !p.Amount.IsPositive() {
			return errors.InvalidInput("amount", "product amount must be positive")
		}
		if p.SellPricePerOne.IsNegative() {
			return errors.InvalidInput("sell_price_per_one", "price cannot be negative")
		}
	}
	return nil
}
