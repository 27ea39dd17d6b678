// Package grpcserver serves the conflict check and assign-next over gRPC.
// Messages are plain structs carried by the JSON codec registered in
// libs/grpcx, so the service is described by hand instead of generated.
package grpcserver

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/md-rashed-zaman/queuedesk/libs/grpcx"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
)

const (
	ServiceName            = "scheduling.v1.SchedulingService"
	evaluateConflictMethod = "/" + ServiceName + "/EvaluateConflict"
	assignNextMethod       = "/" + ServiceName + "/AssignNext"
)

type EvaluateConflictRequest struct {
	ServiceID       string    `json:"serviceId"`
	StaffID         string    `json:"staffId,omitempty"`
	AppointmentDate time.Time `json:"appointmentDate"`
	ExcludeID       string    `json:"excludeId,omitempty"`
}

type EvaluateConflictResponse struct {
	Result  scheduling.ConflictResult `json:"result"`
	Error   string                    `json:"error,omitempty"`
	Warning string                    `json:"warning,omitempty"`
}

type AssignNextRequest struct{}

type AssignNextResponse struct {
	Assignment scheduling.Assignment `json:"assignment"`
}

type SchedulingServer interface {
	EvaluateConflict(ctx context.Context, req *EvaluateConflictRequest) (*EvaluateConflictResponse, error)
	AssignNext(ctx context.Context, req *AssignNextRequest) (*AssignNextResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "EvaluateConflict", Handler: evaluateConflictHandler},
		{MethodName: "AssignNext", Handler: assignNextHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func evaluateConflictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EvaluateConflictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulingServer).EvaluateConflict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateConflictMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulingServer).EvaluateConflict(ctx, req.(*EvaluateConflictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func assignNextHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AssignNextRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulingServer).AssignNext(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: assignNextMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulingServer).AssignNext(ctx, req.(*AssignNextRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the service with the JSON content subtype.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) EvaluateConflict(ctx context.Context, req *EvaluateConflictRequest, opts ...grpc.CallOption) (*EvaluateConflictResponse, error) {
	out := new(EvaluateConflictResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcx.JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, evaluateConflictMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AssignNext(ctx context.Context, opts ...grpc.CallOption) (*AssignNextResponse, error) {
	out := new(AssignNextResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcx.JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, assignNextMethod, &AssignNextRequest{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
