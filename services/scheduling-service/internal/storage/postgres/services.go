package postgres

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
)

const serviceColumns = `id::text, name, duration_minutes, required_staff_type, created_at, updated_at`

func scanService(row pgx.Row) (model.Service, error) {
	var svc model.Service
	err := row.Scan(&svc.ID, &svc.Name, &svc.DurationMinutes, &svc.RequiredStaffType, &svc.CreatedAt, &svc.UpdatedAt)
	return svc, err
}

func listServices(ctx context.Context, q pgxQuerier) ([]model.Service, error) {
	rows, err := q.Query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Store) ListServices(ctx context.Context) ([]model.Service, error) {
	out, err := listServices(ctx, s.pool)
	return out, mapErr("postgres.ListServices", err)
}

func (s *Store) GetService(ctx context.Context, id string) (model.Service, error) {
	svc, err := scanService(s.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	return svc, mapErr("postgres.GetService", err)
}

func (s *Store) CreateService(ctx context.Context, in model.NewService, activity string) (model.Service, error) {
	const op = "postgres.CreateService"

	query, args, err := build(dialect.Insert("services").Prepared(true).
		Rows(goqu.Record{
			"name":                in.Name,
			"duration_minutes":    in.DurationMinutes,
			"required_staff_type": in.RequiredStaffType,
		}).
		Returning(goqu.L(serviceColumns)))
	if err != nil {
		return model.Service{}, mapErr(op, err)
	}

	var svc model.Service
	err = s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if svc, err = scanService(tx.QueryRow(ctx, query, args...)); err != nil {
			return err
		}
		evt, err := s.event(outbox.AggregateService, svc.ID, outbox.ServiceChanged, map[string]any{"action": "created", "service": svc})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return svc, mapErr(op, err)
}

func (s *Store) UpdateService(ctx context.Context, id string, p model.ServicePatch, activity string) (model.Service, error) {
	const op = "postgres.UpdateService"

	rec := goqu.Record{"updated_at": goqu.L("now()")}
	if p.Name != nil {
		rec["name"] = strings.TrimSpace(*p.Name)
	}
	if p.DurationMinutes != nil {
		rec["duration_minutes"] = *p.DurationMinutes
	}
	if p.RequiredStaffType != nil {
		rec["required_staff_type"] = strings.TrimSpace(*p.RequiredStaffType)
	}
	query, args, err := build(dialect.Update("services").Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.L(serviceColumns)))
	if err != nil {
		return model.Service{}, mapErr(op, err)
	}

	var svc model.Service
	err = s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if svc, err = scanService(tx.QueryRow(ctx, query, args...)); err != nil {
			return err
		}
		evt, err := s.event(outbox.AggregateService, svc.ID, outbox.ServiceChanged, map[string]any{"action": "updated", "service": svc})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return svc, mapErr(op, err)
}

func (s *Store) DeleteService(ctx context.Context, id string, activity string) error {
	const op = "postgres.DeleteService"

	err := s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		evt, err := s.event(outbox.AggregateService, id, outbox.ServiceChanged, map[string]any{"action": "deleted", "id": id})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return mapErr(op, err)
}
