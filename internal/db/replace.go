package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Partition identifies the rows of a table owned by one writer, e.g. one (year, consumer).
type Partition struct {
	Schema string
	Table  string
	Keys   []string
	Values []any
}

func (p Partition) where() string {
	clauses := make([]string, len(p.Keys))
	for i, k := range p.Keys {
		clauses[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{k}.Sanitize(), i+1)
	}
	return strings.Join(clauses, " AND ")
}

// ReplacePartition deletes the partition's rows and copies in the new ones in a single
// transaction, so readers see either the old or the new partition.
func ReplacePartition(ctx context.Context, pool Pool, p Partition, columns []string, rows [][]any) (int64, error) {
	if len(p.Keys) == 0 || len(p.Keys) != len(p.Values) {
		return 0, eris.Errorf("db: replace %s.%s: partition needs matching keys and values", p.Schema, p.Table)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	del := fmt.Sprintf("DELETE FROM %s WHERE %s", pgx.Identifier{p.Schema, p.Table}.Sanitize(), p.where())
	if _, err := tx.Exec(ctx, del, p.Values...); err != nil {
		return 0, eris.Wrapf(err, "db: replace: delete from %s.%s", p.Schema, p.Table)
	}

	n, err := CopyFromSchema(ctx, tx, p.Schema, p.Table, columns, rows)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}
