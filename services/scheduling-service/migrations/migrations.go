// Package migrations embeds the postgres schema of the scheduling service.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/md-rashed-zaman/queuedesk/libs/db"
)

//go:embed *.sql
var files embed.FS

// Apply runs every embedded script in name order. Scripts are idempotent.
func Apply(ctx context.Context, pool *db.Pool) error {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := files.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}
