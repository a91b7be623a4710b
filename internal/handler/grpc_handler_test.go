package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
)

func dialTestServer(t *testing.T, p *stubProvider) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryServerLogger(zerolog.Nop())))
	require.NoError(t, RegisterAccountingServer(srv, NewGRPCHandler(newTestService(p), zerolog.Nop())))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, in map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(in)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := &structpb.Struct{}
	err = conn.Invoke(ctx, "/"+accountingServiceName+"/"+method, req, out, opts...)
	return out, err
}

func TestGRPC_ListRelations(t *testing.T) {
	conn := dialTestServer(t, &stubProvider{relations: []accounting.Relation{{ID: 7, Code: "ACME", Company: "Acme BV"}}})

	out, err := invoke(t, conn, "ListRelations", nil)
	require.NoError(t, err)

	assert.Equal(t, float64(1), out.Fields["total"].GetNumberValue())
	rel := out.Fields["relations"].GetListValue().Values[0].GetStructValue()
	assert.Equal(t, "Acme BV", rel.Fields["company"].GetStringValue())
}

func TestGRPC_SyncRelation(t *testing.T) {
	conn := dialTestServer(t, &stubProvider{})

	out, err := invoke(t, conn, "SyncRelation", map[string]interface{}{"code": "ACME", "company": "Acme BV"})
	require.NoError(t, err)

	assert.Equal(t, float64(4711), out.Fields["id"].GetNumberValue())
}

func TestGRPC_ListMutations(t *testing.T) {
	p := &stubProvider{mutations: []accounting.Mutation{{Number: 42}}}
	conn := dialTestServer(t, p)

	out, err := invoke(t, conn, "ListMutations", map[string]interface{}{"number": 42, "from": "2024-01-01"})
	require.NoError(t, err)

	assert.Equal(t, float64(1), out.Fields["total"].GetNumberValue())
	require.NotNil(t, p.gotFilter)
	assert.Equal(t, int64(42), p.gotFilter.Number)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *p.gotFilter.DateFrom)
	assert.Nil(t, p.gotFilter.DateTo)
}

func TestGRPC_CreateInvoice(t *testing.T) {
	conn := dialTestServer(t, &stubProvider{})

	out, err := invoke(t, conn, "CreateInvoice", map[string]interface{}{
		"invoice_number": "2024-001",
		"relation_code":  "ACME",
		"tax_code":       "HOOG_VERK_21",
		"ledger_code":    "8000",
		"products": []interface{}{
			map[string]interface{}{"amount": "1", "code": "P1", "sell_price_per_one": "12.35"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "F2024-001", out.Fields["invoice_number"].GetStringValue())
}

func TestGRPC_ErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		method string
		in     map[string]interface{}
		err    error
		code   codes.Code
	}{
		{"validation", "SyncRelation", map[string]interface{}{"company": "Acme"}, nil, codes.InvalidArgument},
		{"bad date", "ListMutations", map[string]interface{}{"to": "31-01-2024"}, nil, codes.InvalidArgument},
		{"authentication", "ListLedgers", nil, &accounting.AuthenticationError{Message: "bad codes"}, codes.Unauthenticated},
		{"remote operation", "ListLedgers", nil, &accounting.RemoteOperationError{Message: "denied"}, codes.FailedPrecondition},
		{"transport", "ListRelations", nil, assert.AnError, codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dialTestServer(t, &stubProvider{err: tt.err})

			_, err := invoke(t, conn, tt.method, tt.in)

			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestGRPC_RequestIDEchoed(t *testing.T) {
	conn := dialTestServer(t, &stubProvider{ledgers: []accounting.Ledger{}})

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDMetadataKey, "req-123")
	out := &structpb.Struct{}
	err := conn.Invoke(ctx, "/"+accountingServiceName+"/ListLedgers", &structpb.Struct{}, out, grpc.Header(&header))
	require.NoError(t, err)

	assert.Equal(t, []string{"req-123"}, header.Get(requestIDMetadataKey))
}

func TestRegisterFileDescriptor(t *testing.T) {
	require.NoError(t, registerFileDescriptor(protoregistry.GlobalFiles))
	require.NoError(t, registerFileDescriptor(protoregistry.GlobalFiles))

	fd, err := protoregistry.GlobalFiles.FindFileByPath(accountingProtoFile)
	require.NoError(t, err)

	svc := fd.Services().ByName("AccountingService")
	require.NotNil(t, svc)
	assert.Equal(t, 5, svc.Methods().Len())
	assert.Equal(t, "google.protobuf.Struct", string(svc.Methods().ByName("CreateInvoice").Input().FullName()))
}

func TestRegisterFileDescriptor_UnresolvedImport(t *testing.T) {
	err := registerFileDescriptor(new(protoregistry.Files))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build "+accountingProtoFile)
}
