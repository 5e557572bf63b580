// Package postgres archives summaries in a postgres table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"regexp"
	"time"

	"github.com/grafana/globalconf"
	"github.com/grafana/metersummary/mdata"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

var (
	Enabled bool
	dsn     string
	table   string
	create  bool
)

var validTable = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func ConfigSetup() {
	fs := flag.NewFlagSet("postgres-out", flag.ExitOnError)
	fs.BoolVar(&Enabled, "enabled", false, "archive summaries in postgres")
	fs.StringVar(&dsn, "dsn", "postgres://localhost:5432/metersummary?sslmode=disable", "postgres connection string")
	fs.StringVar(&table, "table", "meter_summaries", "table to write summaries to")
	fs.BoolVar(&create, "create-table", true, "create the table if it does not exist")
	globalconf.Register("postgres-out", fs, flag.ExitOnError)
}

func ConfigProcess() {
	if !Enabled {
		return
	}
	if !validTable.MatchString(table) {
		log.Fatalf("postgres-out: invalid table name %q", table)
	}
}

// Archive writes one row per summary, keyed by destination and window start.
// Publishing the same window twice overwrites the earlier row.
type Archive struct {
	db    *sql.DB
	table string
}

// New opens the database configured by the postgres-out flags
func New(ctx context.Context) (*Archive, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	a := NewArchive(db, table)
	if create {
		if err := a.CreateTable(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return a, nil
}

func NewArchive(db *sql.DB, table string) *Archive {
	return &Archive{db: db, table: table}
}

func (a *Archive) createQuery() string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	destination  TEXT        NOT NULL,
	window_start TIMESTAMPTZ NOT NULL,
	window_end   TIMESTAMPTZ NOT NULL,
	samples      BIGINT      NOT NULL,
	summary      JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (destination, window_start)
)`, a.table)
}

func (a *Archive) insertQuery() string {
	return fmt.Sprintf(`
INSERT INTO %s (
	destination,
	window_start,
	window_end,
	samples,
	summary
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (destination, window_start)
DO UPDATE SET
	window_end = EXCLUDED.window_end,
	samples = EXCLUDED.samples,
	summary = EXCLUDED.summary`, a.table)
}

func (a *Archive) CreateTable(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, a.createQuery())
	return err
}

func (a *Archive) Publish(ctx context.Context, destination string, s *mdata.Summary) error {
	if a == nil || a.db == nil {
		return errors.New("postgres-out: nil db")
	}
	data, err := s.MarshalJSONFast(nil)
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx, a.insertQuery(),
		destination,
		time.Unix(s.Start, 0).UTC(),
		time.Unix(s.End, 0).UTC(),
		int64(s.Count),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("postgres-out: %w", err)
	}
	return nil
}

// Recent returns up to limit archived summaries for destination, newest first
func (a *Archive) Recent(ctx context.Context, destination string, limit int) ([]*mdata.Summary, error) {
	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(`SELECT window_start, window_end, samples FROM %s WHERE destination = $1 ORDER BY window_start DESC LIMIT $2`, a.table), destination, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*mdata.Summary
	for rows.Next() {
		var start, end time.Time
		var samples int64
		if err := rows.Scan(&start, &end, &samples); err != nil {
			return nil, err
		}
		out = append(out, &mdata.Summary{Start: start.Unix(), End: end.Unix(), Count: uint32(samples)})
	}
	return out, rows.Err()
}

func (*Archive) Type() string {
	return "postgres"
}

func (a *Archive) Close() error {
	return a.db.Close()
}
