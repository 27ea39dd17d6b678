package outbox

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	otelx "github.com/md-rashed-zaman/queuedesk/libs/otel"
)

var ErrUnknownEvent = errors.New("outbox: event type not routed for aggregate")

var dialect = goqu.Dialect("postgres")

// eventAggregates lists every event the scheduling service emits together
// with the aggregate it describes.
var eventAggregates = map[string]string{
	AppointmentCreated:  AggregateAppointment,
	AppointmentUpdated:  AggregateAppointment,
	AppointmentAssigned: AggregateAppointment,
	AppointmentDeleted:  AggregateAppointment,
	QueueEnqueued:       AggregateQueue,
	QueueRemoved:        AggregateQueue,
	StaffChanged:        AggregateStaff,
	ServiceChanged:      AggregateService,
}

// Repository reads and writes scheduling rows of the outbox_events table.
// Rows written under other aggregates are never claimed by the relay.
type Repository struct {
	routes     map[string]string
	aggregates []string
}

func NewRepository() *Repository {
	r := &Repository{routes: eventAggregates}
	for _, agg := range eventAggregates {
		if !slices.Contains(r.aggregates, agg) {
			r.aggregates = append(r.aggregates, agg)
		}
	}
	slices.Sort(r.aggregates)
	return r
}

// Aggregates returns the aggregate types the repository relays, sorted.
func (r *Repository) Aggregates() []string {
	return slices.Clone(r.aggregates)
}

func (r *Repository) route(evt Event) error {
	if agg, ok := r.routes[evt.EventType]; !ok || agg != evt.AggregateType {
		return fmt.Errorf("%w: %s on %q", ErrUnknownEvent, evt.EventType, evt.AggregateType)
	}
	if evt.AggregateID == "" {
		return fmt.Errorf("outbox: %s without aggregate id", evt.EventType)
	}
	return nil
}

func (r *Repository) insertQuery(evt Event, traceparent, tracestate string) (string, []any, error) {
	return dialect.Insert("outbox_events").Prepared(true).Rows(goqu.Record{
		"aggregate_type": evt.AggregateType,
		"aggregate_id":   evt.AggregateID,
		"event_type":     evt.EventType,
		"payload":        evt.Payload,
		"traceparent":    traceparent,
		"tracestate":     tracestate,
	}).ToSQL()
}

// Insert stores evt inside tx together with the caller's trace context. The
// event type must belong to evt's aggregate.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, evt Event) error {
	const op = "outbox.Insert"

	if err := r.route(evt); err != nil {
		return err
	}
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	query, args, err := r.insertQuery(evt, traceparent, tracestate)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type Record struct {
	ID            int64
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
	CreatedAt     time.Time
}

func (r *Repository) pendingQuery(limit int) (string, []any, error) {
	return dialect.From("outbox_events").Prepared(true).
		Select(
			goqu.C("id"), goqu.L("event_id::text"), goqu.C("aggregate_type"), goqu.C("aggregate_id"),
			goqu.C("event_type"), goqu.C("payload"), goqu.C("traceparent"), goqu.C("tracestate"), goqu.C("created_at"),
		).
		Where(
			goqu.C("published_at").IsNull(),
			goqu.C("aggregate_type").In(r.aggregates),
		).
		Order(goqu.C("id").Asc()).
		Limit(uint(limit)).
		ForUpdate(exp.SkipLocked).
		ToSQL()
}

// FetchUnpublished claims up to limit pending scheduling events in id order.
// Rows already claimed by another relay are skipped.
func (r *Repository) FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	const op = "outbox.FetchUnpublished"

	if limit <= 0 {
		return nil, nil
	}
	query, args, err := r.pendingQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rcd Record
		if err := rows.Scan(&rcd.ID, &rcd.EventID, &rcd.AggregateType, &rcd.AggregateID, &rcd.EventType,
			&rcd.Payload, &rcd.Traceparent, &rcd.Tracestate, &rcd.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		records = append(records, rcd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

func (r *Repository) publishedQuery(ids []int64) (string, []any, error) {
	return dialect.Update("outbox_events").Prepared(true).
		Set(goqu.Record{"published_at": goqu.L("now()")}).
		Where(
			goqu.C("id").In(ids),
			goqu.C("aggregate_type").In(r.aggregates),
		).
		ToSQL()
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	const op = "outbox.MarkPublished"

	if len(ids) == 0 {
		return nil
	}
	query, args, err := r.publishedQuery(ids)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
