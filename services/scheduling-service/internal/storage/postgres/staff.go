package postgres

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
)

const staffColumns = `id::text, name, staff_type, daily_capacity, status, created_at, updated_at`

func scanStaff(row pgx.Row) (model.Staff, error) {
	var st model.Staff
	err := row.Scan(&st.ID, &st.Name, &st.StaffType, &st.DailyCapacity, &st.Status, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

func listStaff(ctx context.Context, q pgxQuerier) ([]model.Staff, error) {
	rows, err := q.Query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) ListStaff(ctx context.Context) ([]model.Staff, error) {
	out, err := listStaff(ctx, s.pool)
	return out, mapErr("postgres.ListStaff", err)
}

func (s *Store) GetStaff(ctx context.Context, id string) (model.Staff, error) {
	st, err := scanStaff(s.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id))
	return st, mapErr("postgres.GetStaff", err)
}

func (s *Store) CreateStaff(ctx context.Context, in model.NewStaff, activity string) (model.Staff, error) {
	const op = "postgres.CreateStaff"

	query, args, err := build(dialect.Insert("staff").Prepared(true).
		Rows(goqu.Record{
			"name":           in.Name,
			"staff_type":     in.StaffType,
			"daily_capacity": in.DailyCapacity,
			"status":         string(in.Status),
		}).
		Returning(goqu.L(staffColumns)))
	if err != nil {
		return model.Staff{}, mapErr(op, err)
	}

	var st model.Staff
	err = s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if st, err = scanStaff(tx.QueryRow(ctx, query, args...)); err != nil {
			return err
		}
		evt, err := s.event(outbox.AggregateStaff, st.ID, outbox.StaffChanged, map[string]any{"action": "created", "staff": st})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return st, mapErr(op, err)
}

func staffPatchRecord(p model.StaffPatch) goqu.Record {
	rec := goqu.Record{"updated_at": goqu.L("now()")}
	if p.Name != nil {
		rec["name"] = strings.TrimSpace(*p.Name)
	}
	if p.StaffType != nil {
		rec["staff_type"] = strings.TrimSpace(*p.StaffType)
	}
	if p.DailyCapacity != nil {
		rec["daily_capacity"] = *p.DailyCapacity
	}
	if p.Status != nil {
		rec["status"] = string(*p.Status)
	}
	return rec
}

func (s *Store) UpdateStaff(ctx context.Context, id string, p model.StaffPatch, activity string) (model.Staff, error) {
	const op = "postgres.UpdateStaff"

	query, args, err := build(dialect.Update("staff").Prepared(true).
		Set(staffPatchRecord(p)).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.L(staffColumns)))
	if err != nil {
		return model.Staff{}, mapErr(op, err)
	}

	var st model.Staff
	err = s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if st, err = scanStaff(tx.QueryRow(ctx, query, args...)); err != nil {
			return err
		}
		evt, err := s.event(outbox.AggregateStaff, st.ID, outbox.StaffChanged, map[string]any{"action": "updated", "staff": st})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return st, mapErr(op, err)
}

func (s *Store) DeleteStaff(ctx context.Context, id string, activity string) error {
	const op = "postgres.DeleteStaff"

	err := s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		evt, err := s.event(outbox.AggregateStaff, id, outbox.StaffChanged, map[string]any{"action": "deleted", "id": id})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return mapErr(op, err)
}
