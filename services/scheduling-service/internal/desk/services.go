package desk

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

func (d *Desk) ListServices(ctx context.Context) ([]model.Service, error) {
	out, err := d.store.ListServices(ctx)
	return out, wrap("desk.ListServices", err)
}

func (d *Desk) GetService(ctx context.Context, id string) (model.Service, error) {
	svc, err := d.store.GetService(ctx, id)
	return svc, wrap("desk.GetService", err)
}

func (d *Desk) CreateService(ctx context.Context, in model.NewService) (model.Service, error) {
	const op = "desk.CreateService"

	in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Service{}, wrap(op, err)
	}
	msg := fmt.Sprintf("Added service %s (%d min, %s)", in.Name, in.DurationMinutes, in.RequiredStaffType)
	svc, err := d.store.CreateService(ctx, in, msg)
	return svc, wrap(op, err)
}

func (d *Desk) UpdateService(ctx context.Context, id string, p model.ServicePatch) (model.Service, error) {
	const op = "desk.UpdateService"

	if err := p.Validate(); err != nil {
		return model.Service{}, wrap(op, err)
	}
	cur, err := d.store.GetService(ctx, id)
	if err != nil {
		return model.Service{}, wrap(op, err)
	}
	if p.Empty() {
		return cur, nil
	}
	svc, err := d.store.UpdateService(ctx, id, p, fmt.Sprintf("Updated service %s", cur.Name))
	return svc, wrap(op, err)
}

func (d *Desk) DeleteService(ctx context.Context, id string) error {
	const op = "desk.DeleteService"

	cur, err := d.store.GetService(ctx, id)
	if err != nil {
		return wrap(op, err)
	}
	return wrap(op, d.store.DeleteService(ctx, id, fmt.Sprintf("Removed service %s", cur.Name)))
}
