package sqlite

import "context"

// ExecRaw runs a statement directly. Tests use it to damage the graph.
func (d *DB) ExecRaw(ctx context.Context, query string, args ...any) error {
	_, err := d.db.ExecContext(ctx, query, args...)
	return err
}
