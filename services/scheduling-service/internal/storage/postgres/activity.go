package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

func activityQuery(limit int) (string, []any, error) {
	ds := dialect.From("activity_logs").Prepared(true).
		Select(goqu.L("id::text"), goqu.C("message"), goqu.C("created_at")).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return build(ds)
}

// ListActivity returns the newest entries first.
func (s *Store) ListActivity(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	const op = "postgres.ListActivity"

	query, args, err := activityQuery(limit)
	if err != nil {
		return nil, mapErr(op, err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []model.ActivityLog
	for rows.Next() {
		var l model.ActivityLog
		if err := rows.Scan(&l.ID, &l.Message, &l.CreatedAt); err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, l)
	}
	return out, mapErr(op, rows.Err())
}
