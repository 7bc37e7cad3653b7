package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/acronymdata/complaints-etl/internal/config"
	"github.com/acronymdata/complaints-etl/internal/models"
)

// RedshiftWarehouse implements Warehouse against a Redshift cluster over the
// Postgres wire protocol. Loads go through COPY from the staged S3 object.
type RedshiftWarehouse struct {
	db  *sql.DB
	cfg config.WarehouseConfig
}

// NewRedshiftWarehouse creates a new Redshift warehouse instance
func NewRedshiftWarehouse(cfg config.WarehouseConfig) (*RedshiftWarehouse, error) {
	if cfg.RedshiftURI == "" {
		return nil, fmt.Errorf("REDSHIFT_URI is not configured")
	}

	db, err := sql.Open("postgres", cfg.RedshiftURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}

	return &RedshiftWarehouse{db: db, cfg: cfg}, nil
}

// EnsureTable creates the destination table. In create mode any existing
// table is dropped first so a bulk run replaces the previous snapshot.
func (w *RedshiftWarehouse) EnsureTable(ctx context.Context, mode Mode) error {
	if mode == ModeCreate {
		if _, err := w.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", w.cfg.Table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", w.cfg.Table, err)
		}
	}

	if _, err := w.db.ExecContext(ctx, createTableSQL(w.cfg.Table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", w.cfg.Table, err)
	}
	return nil
}

// Load copies the staged CSV object into the destination table. The typed
// records are not sent over the connection; Redshift reads them from S3.
func (w *RedshiftWarehouse) Load(ctx context.Context, complaints []models.Complaint, stagedURI string) error {
	if _, err := w.db.ExecContext(ctx, copySQL(w.cfg, stagedURI)); err != nil {
		return fmt.Errorf("failed to copy %s into %s: %w", stagedURI, w.cfg.Table, err)
	}
	return nil
}

// Close closes the warehouse connection
func (w *RedshiftWarehouse) Close() error {
	return w.db.Close()
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    complaint_id BIGINT DISTKEY,
    date_received DATE,
    product VARCHAR(256),
    sub_product VARCHAR(256),
    issue VARCHAR(256),
    sub_issue VARCHAR(256),
    company VARCHAR(256),
    state VARCHAR(2),
    zip VARCHAR(5),
    consumer_consent BOOLEAN,
    submitted_via VARCHAR(32),
    date_sent_to_company DATE,
    company_response VARCHAR(256),
    timely_response BOOLEAN,
    disputed BOOLEAN
)`, table)
}

func copySQL(cfg config.WarehouseConfig, stagedURI string) string {
	return fmt.Sprintf(`COPY %s FROM '%s'
CREDENTIALS 'aws_access_key_id=%s;aws_secret_access_key=%s'
REGION '%s'
FORMAT AS CSV
IGNOREHEADER 1
DATEFORMAT 'auto'
EMPTYASNULL`,
		cfg.Table, stagedURI, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.Region)
}
