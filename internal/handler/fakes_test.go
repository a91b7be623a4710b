package handler

import (
	"context"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/logger"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/repository"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/service"
)

type stubProvider struct {
	relations []accounting.Relation
	ledgers   []accounting.Ledger
	mutations []accounting.Mutation
	err       error

	gotFilter *accounting.MutationFilter
	gotOrder  *accounting.WorkOrder
}

func (p *stubProvider) ListRelations(ctx context.Context) ([]accounting.Relation, error) {
	return p.relations, p.err
}

func (p *stubProvider) CreateRelation(ctx context.Context, rel accounting.Relation) (accounting.Relation, error) {
	if p.err != nil {
		return accounting.Relation{}, p.err
	}
	rel.ID = 4711
	return rel, nil
}

func (p *stubProvider) UpdateRelation(ctx context.Context, rel accounting.Relation) (accounting.Relation, error) {
	return rel, p.err
}

func (p *stubProvider) ListLedgers(ctx context.Context) ([]accounting.Ledger, error) {
	return p.ledgers, p.err
}

func (p *stubProvider) ListMutations(ctx context.Context, filter *accounting.MutationFilter) ([]accounting.Mutation, error) {
	p.gotFilter = filter
	return p.mutations, p.err
}

func (p *stubProvider) CreateInvoice(ctx context.Context, order *accounting.WorkOrder) (string, error) {
	p.gotOrder = order
	if p.err != nil {
		return "", p.err
	}
	return "F" + order.InvoiceNumber, nil
}

func newTestService(p *stubProvider) *service.AccountingService {
	return service.NewAccountingService(p, nil, logger.Nop())
}

type memSyncLog struct {
	service.NopSyncLog
	exports []*repository.InvoiceExport

	gotRelationCode string
	gotLimit        int
}

func (l *memSyncLog) ListInvoiceExports(_ context.Context, relationCode string, limit int) ([]*repository.InvoiceExport, error) {
	l.gotRelationCode = relationCode
	l.gotLimit = limit
	return l.exports, nil
}
