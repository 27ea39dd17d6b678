package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/desk"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

type Desk interface {
	EvaluateConflict(ctx context.Context, c scheduling.Candidate, excludeID string) (scheduling.ConflictResult, error)
	AssignNext(ctx context.Context) (scheduling.Assignment, error)
}

type server struct {
	desk Desk
}

func Register(s grpc.ServiceRegistrar, d Desk) {
	s.RegisterService(&ServiceDesc, &server{desk: d})
}

func (s *server) EvaluateConflict(ctx context.Context, req *EvaluateConflictRequest) (*EvaluateConflictResponse, error) {
	if req.ServiceID == "" {
		return nil, status.Error(codes.InvalidArgument, "serviceId is required")
	}
	res, err := s.desk.EvaluateConflict(ctx, scheduling.Candidate{
		ServiceID:       req.ServiceID,
		StaffID:         req.StaffID,
		AppointmentDate: req.AppointmentDate,
	}, req.ExcludeID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &EvaluateConflictResponse{
		Result:  res,
		Error:   res.BlockingError(),
		Warning: res.CapacityMessage(),
	}, nil
}

func (s *server) AssignNext(ctx context.Context, _ *AssignNextRequest) (*AssignNextResponse, error) {
	a, err := s.desk.AssignNext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &AssignNextResponse{Assignment: a}, nil
}

func toStatus(err error) error {
	switch {
	case model.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, desk.ErrAssignmentBusy), errors.Is(err, storage.ErrStaleSnapshot):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
