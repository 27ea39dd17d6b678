package grpcserver

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/md-rashed-zaman/queuedesk/libs/grpcx"
	"github.com/md-rashed-zaman/queuedesk/libs/lock"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/desk"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage/memory"
)

func startServer(t *testing.T, d Desk) *Client {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcx.UnaryServerRequestIDInterceptor(),
		grpcx.UnaryServerLogInterceptor(logger),
	))
	Register(srv, d)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpcx.Dial(context.Background(), lis.Addr().String(), grpcx.DialOptions{Timeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestEvaluateAndAssignOverGRPC(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	engine := scheduling.NewEngine(time.UTC)
	d := desk.New(memory.New(engine), engine, lock.NewLocalLock(), slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)
	doctor, err := d.CreateStaff(ctx, model.NewStaff{Name: "Dr. Rahman", StaffType: "doctor", DailyCapacity: 1})
	require.NoError(t, err)
	svc, err := d.CreateService(ctx, model.NewService{Name: "Checkup", DurationMinutes: 30, RequiredStaffType: "doctor"})
	require.NoError(t, err)
	when := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	_, err = d.CreateAppointment(ctx, model.NewAppointment{CustomerName: "Ann Lee", ServiceID: svc.ID, AppointmentDate: when})
	require.NoError(t, err)

	client := startServer(t, d)

	out, err := client.AssignNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, scheduling.OutcomeSuccess, out.Assignment.Outcome)
	assert.Equal(t, doctor.ID, out.Assignment.StaffID)
	assert.True(t, out.Assignment.Start.Equal(when))

	res, err := client.EvaluateConflict(ctx, &EvaluateConflictRequest{
		ServiceID:       svc.ID,
		StaffID:         doctor.ID,
		AppointmentDate: when.Add(15 * time.Minute),
	})
	require.NoError(t, err)
	assert.True(t, res.Result.Evaluated)
	require.NotNil(t, res.Result.Overlap)
	assert.Equal(t, scheduling.OverlapMessage, res.Error)
	assert.Equal(t, "Dr. Rahman already has 1 appointments today (Max: 1)", res.Warning)

	_, err = client.EvaluateConflict(ctx, &EvaluateConflictRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

type busyDesk struct{}

func (busyDesk) EvaluateConflict(context.Context, scheduling.Candidate, string) (scheduling.ConflictResult, error) {
	return scheduling.ConflictResult{}, nil
}

func (busyDesk) AssignNext(context.Context) (scheduling.Assignment, error) {
	return scheduling.Assignment{}, desk.ErrAssignmentBusy
}

func TestAssignNextBusyIsAborted(t *testing.T) {
	client := startServer(t, busyDesk{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.AssignNext(ctx)
	assert.Equal(t, codes.Aborted, status.Code(err))
}
