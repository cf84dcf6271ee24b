package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/core/service"
)

const RequestDeskServiceName = "supplydesk.v1.RequestDesk"

type ClassifyRequest struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

type ClassifyResponse struct {
	Tag string `json:"tag"`
}

type SubmitRequest struct {
	SubmitterID    int64  `json:"submitter_id"`
	Role           string `json:"role"`
	Message        string `json:"message"`
	Tag            string `json:"tag"`
	Product        string `json:"product"`
	NewProduct     string `json:"new_product"`
	Quantity       int    `json:"quantity"`
	IdempotencyKey string `json:"idempotency_key"`
}

type AdvanceRequest struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	ActingRole   string `json:"acting_role"`
	ActingUserID int64  `json:"acting_user_id"`
}

type CloseByVendorRequest struct {
	ID         int64  `json:"id"`
	VendorName string `json:"vendor_name"`
	Solution   string `json:"solution"`
}

type ListInventoryRequest struct{}

type ListInventoryResponse struct {
	Items []ItemView `json:"items"`
}

type ListStatusLogRequest struct {
	ID int64 `json:"id"`
}

type ListStatusLogResponse struct {
	Entries []LogEntryView `json:"entries"`
}

// RequestDeskServer is the server API of the RequestDesk gRPC service.
type RequestDeskServer interface {
	Classify(context.Context, *ClassifyRequest) (*ClassifyResponse, error)
	Submit(context.Context, *SubmitRequest) (*RequestView, error)
	Advance(context.Context, *AdvanceRequest) (*RequestView, error)
	CloseByVendor(context.Context, *CloseByVendorRequest) (*RequestView, error)
	ListInventory(context.Context, *ListInventoryRequest) (*ListInventoryResponse, error)
	ListStatusLog(context.Context, *ListStatusLogRequest) (*ListStatusLogResponse, error)
}

var RequestDeskServiceDesc = grpc.ServiceDesc{
	ServiceName: RequestDeskServiceName,
	HandlerType: (*RequestDeskServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Classify", Handler: unaryHandler("Classify", RequestDeskServer.Classify)},
		{MethodName: "Submit", Handler: unaryHandler("Submit", RequestDeskServer.Submit)},
		{MethodName: "Advance", Handler: unaryHandler("Advance", RequestDeskServer.Advance)},
		{MethodName: "CloseByVendor", Handler: unaryHandler("CloseByVendor", RequestDeskServer.CloseByVendor)},
		{MethodName: "ListInventory", Handler: unaryHandler("ListInventory", RequestDeskServer.ListInventory)},
		{MethodName: "ListStatusLog", Handler: unaryHandler("ListStatusLog", RequestDeskServer.ListStatusLog)},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterRequestDeskServer registers srv on s.
func RegisterRequestDeskServer(s grpc.ServiceRegistrar, srv RequestDeskServer) {
	s.RegisterService(&RequestDeskServiceDesc, srv)
}

func unaryHandler[Req, Resp any](method string, call func(RequestDeskServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RequestDeskServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + RequestDeskServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RequestDeskServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var _ RequestDeskServer = (*GRPCHandler)(nil)

type GRPCHandler struct {
	requests  *service.RequestService
	inventory *service.InventoryService
	logger    *slog.Logger
}

func NewGRPCHandler(requests *service.RequestService, inventory *service.InventoryService, logger *slog.Logger) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{requests: requests, inventory: inventory, logger: logger}
}

func (h *GRPCHandler) Classify(ctx context.Context, req *ClassifyRequest) (*ClassifyResponse, error) {
	return &ClassifyResponse{Tag: string(service.Classify(req.Message, domain.Role(req.Role)))}, nil
}

func (h *GRPCHandler) Submit(ctx context.Context, req *SubmitRequest) (*RequestView, error) {
	role := domain.Role(req.Role)
	if !role.Known() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown role %q", req.Role)
	}

	created, err := h.requests.Submit(ctx, service.SubmitInput{
		SubmitterID:    req.SubmitterID,
		Role:           role,
		Message:        req.Message,
		Tag:            domain.Tag(req.Tag),
		Product:        req.Product,
		NewProduct:     req.NewProduct,
		Quantity:       req.Quantity,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, h.statusError(ctx, "Submit", err)
	}
	v := requestView(created)
	return &v, nil
}

func (h *GRPCHandler) Advance(ctx context.Context, req *AdvanceRequest) (*RequestView, error) {
	updated, err := h.requests.Advance(ctx, req.ID, domain.Status(req.Status), service.Actor{
		Role:   domain.Role(req.ActingRole),
		UserID: req.ActingUserID,
	})
	if err != nil {
		return nil, h.statusError(ctx, "Advance", err)
	}
	v := requestView(updated)
	return &v, nil
}

func (h *GRPCHandler) CloseByVendor(ctx context.Context, req *CloseByVendorRequest) (*RequestView, error) {
	closed, err := h.requests.CloseByVendor(ctx, req.ID, req.VendorName, req.Solution)
	if err != nil {
		return nil, h.statusError(ctx, "CloseByVendor", err)
	}
	v := requestView(closed)
	return &v, nil
}

func (h *GRPCHandler) ListInventory(ctx context.Context, _ *ListInventoryRequest) (*ListInventoryResponse, error) {
	items, err := h.inventory.List(ctx)
	if err != nil {
		return nil, h.statusError(ctx, "ListInventory", err)
	}
	return &ListInventoryResponse{Items: itemViews(items)}, nil
}

func (h *GRPCHandler) ListStatusLog(ctx context.Context, req *ListStatusLogRequest) (*ListStatusLogResponse, error) {
	entries, err := h.requests.StatusLog(ctx, req.ID)
	if err != nil {
		return nil, h.statusError(ctx, "ListStatusLog", err)
	}
	return &ListStatusLogResponse{Entries: logEntryViews(entries)}, nil
}

func (h *GRPCHandler) statusError(ctx context.Context, method string, err error) error {
	code := grpcCode(err)
	if code == codes.Internal {
		h.logger.Error("rpc failed", "method", method, "request_id", incomingRequestID(ctx), "error", err)
		return status.Error(code, "internal error")
	}
	return status.Error(code, err.Error())
}

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNotVendorRequest):
		return codes.NotFound
	case errors.Is(err, service.ErrDuplicateItem), errors.Is(err, service.ErrDuplicateRequest):
		return codes.AlreadyExists
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidQuantity):
		return codes.InvalidArgument
	case errors.Is(err, service.ErrForbidden):
		return codes.PermissionDenied
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// RequestIDInterceptor tags every call with an x-request-id, reusing the
// caller's when present, and echoes it in the response header.
func RequestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := incomingRequestID(ctx)
	if id == "" {
		id = uuid.NewString()
		md, _ := metadata.FromIncomingContext(ctx)
		md = metadata.Join(md, metadata.Pairs(grpcRequestIDKey, id))
		ctx = metadata.NewIncomingContext(ctx, md)
	}
	grpc.SetHeader(ctx, metadata.Pairs(grpcRequestIDKey, id))
	return handler(ctx, req)
}

const grpcRequestIDKey = "x-request-id"

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(grpcRequestIDKey); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
