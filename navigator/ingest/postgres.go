package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	logx "github.com/policynav/policy-navigator/pkg/logger"
)

// PostgresConfig points the policy source at an existing policies table.
// The source only reads; it never owns or migrates the table.
type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

// PolicyRow is the shape of one row in the policies table.
type PolicyRow struct {
	bun.BaseModel `bun:"table:policies,alias:p"`

	ID       string `bun:"id,pk"`
	Title    string `bun:"title"`
	Text     string `bun:"text"`
	Category string `bun:"category"`
	Agency   string `bun:"agency"`
	Date     string `bun:"date"`
	Type     string `bun:"type"`
}

// OpenPostgres opens a bun handle over the configured Postgres DSN.
func OpenPostgres(cfg PostgresConfig) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// PolicySource reads policy rows from Postgres as an ingestion source.
type PolicySource struct {
	db  bun.IDB
	log zerolog.Logger
}

func NewPolicySource(db bun.IDB) *PolicySource {
	return &PolicySource{
		db:  db,
		log: logx.Component("ingest.postgres"),
	}
}

// Rows fetches up to limit policy rows ordered by id. limit <= 0 fetches
// everything.
func (s *PolicySource) Rows(ctx context.Context, limit int) ([]Row, error) {
	var policies []PolicyRow
	q := s.db.NewSelect().Model(&policies).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select policy rows: %w", err)
	}

	rows := policyRows(policies)
	s.log.Info().Int("rows", len(rows)).Msg("loaded policy rows from postgres")
	return rows, nil
}

// policyRows shapes table rows into source rows, leaving empty columns out so
// the normalizer's presence checks apply.
func policyRows(policies []PolicyRow) []Row {
	rows := make([]Row, 0, len(policies))
	for _, p := range policies {
		row := Row{"id": p.ID, "text": p.Text}
		if p.Title != "" {
			row["title"] = p.Title
		}
		if p.Category != "" {
			row["category"] = p.Category
		}
		if p.Agency != "" {
			row["agency"] = p.Agency
		}
		if p.Date != "" {
			row["date"] = p.Date
		}
		if p.Type != "" {
			row["type"] = p.Type
		}
		rows = append(rows, row)
	}
	return rows
}
