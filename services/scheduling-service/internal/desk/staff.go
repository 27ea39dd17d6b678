package desk

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

func (d *Desk) ListStaff(ctx context.Context) ([]model.Staff, error) {
	out, err := d.store.ListStaff(ctx)
	return out, wrap("desk.ListStaff", err)
}

func (d *Desk) GetStaff(ctx context.Context, id string) (model.Staff, error) {
	st, err := d.store.GetStaff(ctx, id)
	return st, wrap("desk.GetStaff", err)
}

func (d *Desk) CreateStaff(ctx context.Context, in model.NewStaff) (model.Staff, error) {
	const op = "desk.CreateStaff"

	in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Staff{}, wrap(op, err)
	}
	st, err := d.store.CreateStaff(ctx, in, fmt.Sprintf("Added staff member %s (%s)", in.Name, in.StaffType))
	return st, wrap(op, err)
}

func (d *Desk) UpdateStaff(ctx context.Context, id string, p model.StaffPatch) (model.Staff, error) {
	const op = "desk.UpdateStaff"

	if err := p.Validate(); err != nil {
		return model.Staff{}, wrap(op, err)
	}
	cur, err := d.store.GetStaff(ctx, id)
	if err != nil {
		return model.Staff{}, wrap(op, err)
	}
	if p.Empty() {
		return cur, nil
	}

	msg := fmt.Sprintf("Updated staff member %s", cur.Name)
	if p.Status != nil && *p.Status != cur.Status {
		msg = fmt.Sprintf("%s is now %s", cur.Name, *p.Status)
	}
	st, err := d.store.UpdateStaff(ctx, id, p, msg)
	return st, wrap(op, err)
}

func (d *Desk) DeleteStaff(ctx context.Context, id string) error {
	const op = "desk.DeleteStaff"

	cur, err := d.store.GetStaff(ctx, id)
	if err != nil {
		return wrap(op, err)
	}
	return wrap(op, d.store.DeleteStaff(ctx, id, fmt.Sprintf("Removed staff member %s", cur.Name)))
}
