package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// RecordRepository persists curated question/answer records. Review and
// approval happen elsewhere; this store only keeps the durable state
// the index worker and the rebuild path read from.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across indexer/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS curated_records (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	rating TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_curated_records_status ON curated_records(status);
CREATE INDEX IF NOT EXISTS idx_curated_records_created_at ON curated_records(created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RecordRepository) Create(ctx context.Context, record *domain.CuratedRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO curated_records (id, question, answer, source, rating, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		record.ID, record.Question, record.Answer, record.Source, record.Rating,
		record.Status, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert curated record: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.CuratedRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, question, answer, source, rating, status, created_at, updated_at
FROM curated_records
WHERE id = $1
`, id)

	var record domain.CuratedRecord
	err := row.Scan(
		&record.ID, &record.Question, &record.Answer, &record.Source,
		&record.Rating, &record.Status, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRecordNotFound, "get curated record", errors.New(id))
		}
		return nil, fmt.Errorf("select curated record: %w", err)
	}
	return &record, nil
}

// ListApproved returns approved records in creation order, which is the
// order the rebuild path indexes them in.
func (r *RecordRepository) ListApproved(ctx context.Context) ([]domain.CuratedRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, question, answer, source, rating, status, created_at, updated_at
FROM curated_records
WHERE status = $1
ORDER BY created_at, id
`, domain.RecordStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("select approved records: %w", err)
	}
	defer rows.Close()

	var records []domain.CuratedRecord
	for rows.Next() {
		var record domain.CuratedRecord
		err := rows.Scan(
			&record.ID, &record.Question, &record.Answer, &record.Source,
			&record.Rating, &record.Status, &record.CreatedAt, &record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan curated record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curated records: %w", err)
	}
	return records, nil
}

func (r *RecordRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE curated_records SET status = $1, updated_at = $2 WHERE id = $3
`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update record status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrRecordNotFound, "update record status", errors.New(id))
	}
	return nil
}
