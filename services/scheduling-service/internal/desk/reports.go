package desk

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
)

// ListActivity returns the newest entries first, 50 when limit is not positive.
func (d *Desk) ListActivity(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityMax
	}
	out, err := d.store.ListActivity(ctx, limit)
	return out, wrap("desk.ListActivity", err)
}

func (d *Desk) Workload(ctx context.Context, day time.Time) ([]scheduling.StaffLoad, error) {
	snap, err := d.store.Snapshot(ctx)
	if err != nil {
		return nil, wrap("desk.Workload", err)
	}
	return d.engine.Workload(snap, day), nil
}

func (d *Desk) Overview(ctx context.Context, day time.Time) (scheduling.Overview, error) {
	snap, err := d.store.Snapshot(ctx)
	if err != nil {
		return scheduling.Overview{}, wrap("desk.Overview", err)
	}
	return d.engine.Overview(snap, day), nil
}

// clock renders t in the desk's location for activity messages.
func (d *Desk) clock(t time.Time) string {
	return t.In(d.engine.Location).Format("Jan 2 15:04")
}
