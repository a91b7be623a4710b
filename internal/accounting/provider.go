package accounting

import "context"

// Provider is the local accounting interface backed by a remote bookkeeping service
type Provider interface {
	ListRelations(ctx context.Context) ([]Relation, error)
	CreateRelation(ctx context.Context, rel Relation) (Relation, error)
	UpdateRelation(ctx context.Context, rel Relation) (Relation, error)
	ListLedgers(ctx context.Context) ([]Ledger, error)
	ListMutations(ctx context.Context, filter *MutationFilter) ([]Mutation, error)
	CreateInvoice(ctx context.Context, order *WorkOrder) (string, error)
}
