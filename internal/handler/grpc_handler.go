package handler

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/errors"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/service"
)

// AccountingServer is the server API of eboekhouden.v1.AccountingService
type AccountingServer interface {
	ListRelations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncRelation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLedgers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMutations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateInvoice(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// GRPCHandler implements the AccountingService gRPC interface
type GRPCHandler struct {
	service *service.AccountingService
	logger  zerolog.Logger
}

var _ AccountingServer = (*GRPCHandler)(nil)

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(service *service.AccountingService, logger zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{
		service: service,
		logger:  logger.With().Str("handler", "grpc").Logger(),
	}
}

// RegisterAccountingServer registers srv on s. The service is registered even
// when its schema cannot be published for reflection; that failure is returned.
func RegisterAccountingServer(s grpc.ServiceRegistrar, srv AccountingServer) error {
	registerOnce.Do(func() {
		registerErr = registerFileDescriptor(protoregistry.GlobalFiles)
	})
	s.RegisterService(&accountingServiceDesc, srv)
	return registerErr
}

// ListRelations returns every remote relation
func (h *GRPCHandler) ListRelations(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	relations, err := h.service.ListRelations(ctx)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	return toStruct(map[string]interface{}{"relations": relations, "total": len(relations)})
}

// SyncRelation creates or updates a relation
func (h *GRPCHandler) SyncRelation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var rel accounting.Relation
	if err := fromStruct(req, &rel); err != nil {
		return nil, err
	}

	h.logger.Info().Str("code", rel.Code).Int64("id", rel.ID).Msg("gRPC SyncRelation called")

	synced, err := h.service.SyncRelation(ctx, rel)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	return toStruct(synced)
}

// ListLedgers returns the chart of accounts
func (h *GRPCHandler) ListLedgers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ledgers, err := h.service.ListLedgers(ctx)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	return toStruct(map[string]interface{}{"ledgers": ledgers, "total": len(ledgers)})
}

// ListMutations returns mutations. Accepts number, from and to (YYYY-MM-DD).
func (h *GRPCHandler) ListMutations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, err := mutationFilterFromStruct(req)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}

	mutations, err := h.service.ListMutations(ctx, filter)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	return toStruct(map[string]interface{}{"mutations": mutations, "total": len(mutations)})
}

// CreateInvoice pushes a work order as an invoice
func (h *GRPCHandler) CreateInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var order accounting.WorkOrder
	if err := fromStruct(req, &order); err != nil {
		return nil, err
	}

	h.logger.Info().
		Str("invoice_number", order.InvoiceNumber).
		Str("relation_code", order.RelationCode).
		Msg("gRPC CreateInvoice called")

	number, err := h.service.CreateInvoice(ctx, &order)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	return structpb.NewStruct(map[string]interface{}{"invoice_number": number})
}

func mutationFilterFromStruct(req *structpb.Struct) (*accounting.MutationFilter, error) {
	filter := &accounting.MutationFilter{}
	fields := req.GetFields()

	if v, ok := fields["number"]; ok {
		n := v.GetNumberValue()
		if n < 0 || n != float64(int64(n)) {
			return nil, errors.InvalidInput("number", "must be a non-negative integer")
		}
		filter.Number = int64(n)
	}

	for key, dst := range map[string]**time.Time{"from": &filter.DateFrom, "to": &filter.DateTo} {
		v, ok := fields[key]
		if !ok || v.GetStringValue() == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v.GetStringValue())
		if err != nil {
			return nil, errors.InvalidInput(key, "invalid date format, expected YYYY-MM-DD")
		}
		*dst = &t
	}

	return filter, nil
}

// toStruct converts a JSON-encodable value into a protobuf Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v interface{}) error {
	b, err := in.MarshalJSON()
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(b, v); err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("invalid request: %v", err))
	}
	return nil
}

func mapErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	var authErr *accounting.AuthenticationError
	var remoteErr *accounting.RemoteOperationError

	switch {
	case stderrors.As(err, &authErr):
		return status.Error(codes.Unauthenticated, err.Error())
	case stderrors.As(err, &remoteErr):
		return status.Error(codes.FailedPrecondition, err.Error())
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return status.Error(codes.Unavailable, err.Error())
	}

	switch appErr.Code {
	case errors.ErrCodeInvalidInput:
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.ErrCodeNotFound:
		return status.Error(codes.NotFound, err.Error())
	case errors.ErrCodeConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.ErrCodeUnauthorized:
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
