package pipeline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mrio-cli/internal/db"
	"github.com/sells-group/mrio-cli/internal/model"
	"github.com/sells-group/mrio-cli/internal/resilience"
)

// Exporter publishes the provenance tables of one (year, consumer).
type Exporter interface {
	ExportProvenance(ctx context.Context, year, consumer int, human, feed []model.ProvenanceRecord) error
}

// PostgresExporter replaces each (year, consumer) partition of the provenance tables.
// A partition replace that fails transiently is retried as a whole.
type PostgresExporter struct {
	pool   db.Pool
	schema string
	retry  resilience.RetryConfig
}

// NewPostgresExporter creates an exporter writing into schema.
func NewPostgresExporter(pool db.Pool, schema string, retry resilience.RetryConfig) *PostgresExporter {
	if schema == "" {
		schema = "mrio"
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("pipeline", "export provenance")
	}
	return &PostgresExporter{pool: pool, schema: schema, retry: retry}
}

const (
	humanTable = "human_provenance"
	feedTable  = "feed_provenance"
)

var provenanceColumns = []string{
	"year", "consumer", "producer", "producer_iso", "item", "item_name",
	"animal_product", "animal_product_name", "ratio", "value", "provenance", "provenance_err",
}

const provenanceDDL = `
CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[1]s.human_provenance (
	year                INTEGER NOT NULL,
	consumer            INTEGER NOT NULL,
	producer            INTEGER NOT NULL,
	producer_iso        TEXT NOT NULL DEFAULT '',
	item                INTEGER NOT NULL,
	item_name           TEXT NOT NULL DEFAULT '',
	animal_product      INTEGER,
	animal_product_name TEXT NOT NULL DEFAULT '',
	ratio               DOUBLE PRECISION NOT NULL,
	value               DOUBLE PRECISION NOT NULL,
	provenance          DOUBLE PRECISION NOT NULL,
	provenance_err      DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS %[1]s.feed_provenance (LIKE %[1]s.human_provenance);

CREATE INDEX IF NOT EXISTS idx_human_provenance_year_consumer ON %[1]s.human_provenance(year, consumer);
CREATE INDEX IF NOT EXISTS idx_feed_provenance_year_consumer ON %[1]s.feed_provenance(year, consumer);
`

// Migrate creates the export schema and tables.
func (x *PostgresExporter) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(provenanceDDL, pgx.Identifier{x.schema}.Sanitize())
	_, err := x.pool.Exec(ctx, ddl)
	return eris.Wrap(err, "pipeline: migrate export tables")
}

// ExportProvenance replaces the consumer's rows of both tables for the year.
func (x *PostgresExporter) ExportProvenance(ctx context.Context, year, consumer int, human, feed []model.ProvenanceRecord) error {
	for _, t := range []struct {
		table string
		recs  []model.ProvenanceRecord
	}{
		{humanTable, human},
		{feedTable, feed},
	} {
		p := db.Partition{
			Schema: x.schema,
			Table:  t.table,
			Keys:   []string{"year", "consumer"},
			Values: []any{year, consumer},
		}
		rows := provenanceRows(t.recs)
		err := resilience.Do(ctx, x.retry, func(ctx context.Context) error {
			_, err := db.ReplacePartition(ctx, x.pool, p, provenanceColumns, rows)
			return err
		})
		if err != nil {
			return eris.Wrapf(err, "pipeline: export %s %d/%d", t.table, year, consumer)
		}
	}
	return nil
}

func provenanceRows(recs []model.ProvenanceRecord) [][]any {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		var ap any
		if r.AnimalProduct != nil {
			ap = *r.AnimalProduct
		}
		rows[i] = []any{
			r.Year, r.Consumer, r.Producer, r.ProducerISO, r.Item, r.ItemName,
			ap, r.AnimalProductName, r.Ratio, r.Value, r.Provenance, r.ProvenanceErr,
		}
	}
	return rows
}
