package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/deelab/costcalc/internal/model"
)

// Pool is the minimal pgxpool surface the store uses, abstracted so
// tests can substitute a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS annotation_types (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	rate           DOUBLE PRECISION NOT NULL,
	unit           TEXT NOT NULL,
	alt_rate       DOUBLE PRECISION,
	alt_unit       TEXT NOT NULL DEFAULT '',
	is_image_based BOOLEAN NOT NULL DEFAULT false,
	input_mode     TEXT NOT NULL DEFAULT '',
	language_tiers JSONB,
	is_active      BOOLEAN NOT NULL DEFAULT true,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS faq_items (
	id         TEXT PRIMARY KEY,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	is_active  BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS settings (
	setting_key   TEXT PRIMARY KEY,
	setting_value JSONB NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS quote_requests (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL,
	company        TEXT NOT NULL DEFAULT '',
	message        TEXT NOT NULL DEFAULT '',
	selected_types JSONB NOT NULL,
	total_cost     DOUBLE PRECISION NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_annotation_types_active ON annotation_types(is_active);
CREATE INDEX IF NOT EXISTS idx_faq_items_order ON faq_items(category, sort_order);
CREATE INDEX IF NOT EXISTS idx_quote_requests_created ON quote_requests(created_at);
CREATE INDEX IF NOT EXISTS idx_quote_requests_email ON quote_requests(email);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListAnnotationTypes(ctx context.Context, activeOnly bool) ([]model.AnnotationType, error) {
	query := `SELECT ` + annotationTypeColumns + ` FROM annotation_types`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list annotation types")
	}
	defer rows.Close()

	var types []model.AnnotationType
	for rows.Next() {
		t, err := scanAnnotationTypePG(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *t)
	}
	return types, eris.Wrap(rows.Err(), "postgres: list annotation types iterate")
}

func (s *PostgresStore) GetAnnotationType(ctx context.Context, id string) (*model.AnnotationType, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+annotationTypeColumns+` FROM annotation_types WHERE id = $1`, id)
	t, err := scanAnnotationTypePG(row)
	if eris.Is(err, ErrNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "annotation type %s", id)
	}
	return t, err
}

func (s *PostgresStore) UpsertAnnotationType(ctx context.Context, t model.AnnotationType) error {
	var tiersJSON []byte
	if len(t.LanguageTiers) > 0 {
		var err error
		tiersJSON, err = json.Marshal(t.LanguageTiers)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal language tiers")
		}
	}
	now := time.Now().UTC()
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO annotation_types (`+annotationTypeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			rate = excluded.rate,
			unit = excluded.unit,
			alt_rate = excluded.alt_rate,
			alt_unit = excluded.alt_unit,
			is_image_based = excluded.is_image_based,
			input_mode = excluded.input_mode,
			language_tiers = excluded.language_tiers,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		t.ID, t.Name, t.Description, t.Rate, t.Unit, t.AltRate, t.AltUnit,
		t.IsImageBased, string(t.InputMode), tiersJSON, t.IsActive, createdAt, now,
	)
	return eris.Wrapf(err, "postgres: upsert annotation type %s", t.ID)
}

func (s *PostgresStore) ToggleAnnotationType(ctx context.Context, id string) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx,
		`UPDATE annotation_types SET is_active = NOT is_active, updated_at = $1 WHERE id = $2 RETURNING is_active`,
		time.Now().UTC(), id,
	).Scan(&active)
	if err == pgx.ErrNoRows {
		return false, eris.Wrapf(ErrNotFound, "annotation type %s", id)
	}
	if err != nil {
		return false, eris.Wrapf(err, "postgres: toggle annotation type %s", id)
	}
	return active, nil
}

func (s *PostgresStore) DeleteAnnotationType(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM annotation_types WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete annotation type %s", id)
	}
	return checkTag(tag, "annotation type", id)
}

func (s *PostgresStore) ListFAQItems(ctx context.Context, activeOnly bool) ([]model.FAQItem, error) {
	query := `SELECT id, question, answer, category, sort_order, is_active FROM faq_items`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY category, sort_order, id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list faq items")
	}
	defer rows.Close()

	var items []model.FAQItem
	for rows.Next() {
		var item model.FAQItem
		if err := rows.Scan(&item.ID, &item.Question, &item.Answer, &item.Category, &item.Order, &item.IsActive); err != nil {
			return nil, eris.Wrap(err, "postgres: scan faq item")
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list faq items iterate")
}

func (s *PostgresStore) UpsertFAQItem(ctx context.Context, item model.FAQItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO faq_items (id, question, answer, category, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			category = excluded.category,
			sort_order = excluded.sort_order,
			is_active = excluded.is_active`,
		item.ID, item.Question, item.Answer, item.Category, item.Order, item.IsActive,
	)
	return eris.Wrapf(err, "postgres: upsert faq item %s", item.ID)
}

func (s *PostgresStore) ToggleFAQItem(ctx context.Context, id string) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx,
		`UPDATE faq_items SET is_active = NOT is_active WHERE id = $1 RETURNING is_active`, id,
	).Scan(&active)
	if err == pgx.ErrNoRows {
		return false, eris.Wrapf(ErrNotFound, "faq item %s", id)
	}
	if err != nil {
		return false, eris.Wrapf(err, "postgres: toggle faq item %s", id)
	}
	return active, nil
}

func (s *PostgresStore) DeleteFAQItem(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM faq_items WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete faq item %s", id)
	}
	return checkTag(tag, "faq item", id)
}

func (s *PostgresStore) ReorderFAQItems(ctx context.Context, ids []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin reorder")
	}
	defer tx.Rollback(ctx)

	for i, id := range ids {
		tag, err := tx.Exec(ctx, `UPDATE faq_items SET sort_order = $1 WHERE id = $2`, i, id)
		if err != nil {
			return eris.Wrapf(err, "postgres: reorder faq item %s", id)
		}
		if err := checkTag(tag, "faq item", id); err != nil {
			return err
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit reorder")
}

func (s *PostgresStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT setting_value FROM settings WHERE setting_key = $1`, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get setting %s", key)
	}
	return value, nil
}

func (s *PostgresStore) SetSetting(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (setting_key, setting_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (setting_key) DO UPDATE SET
			setting_value = excluded.setting_value,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set setting %s", key)
}

func (s *PostgresStore) CreateQuote(ctx context.Context, q model.QuoteRequest) (*model.QuoteRequest, error) {
	q.ID = uuid.New().String()
	q.CreatedAt = time.Now().UTC()
	if q.Status == "" {
		q.Status = model.QuoteStatusPending
	}

	selectedJSON, err := json.Marshal(q.SelectedTypes)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal selected types")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO quote_requests (id, name, email, company, message, selected_types, total_cost, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.ID, q.Name, q.Email, q.Company, q.Message, selectedJSON, q.TotalCost, string(q.Status), q.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert quote request")
	}
	return &q, nil
}

func (s *PostgresStore) GetQuote(ctx context.Context, id string) (*model.QuoteRequest, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quote_requests WHERE id = $1`, id)
	q, err := scanQuotePG(row)
	if eris.Is(err, ErrNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "quote request %s", id)
	}
	return q, err
}

func (s *PostgresStore) ListQuotes(ctx context.Context, filter QuoteFilter) ([]model.QuoteRequest, error) {
	query := `SELECT ` + quoteColumns + ` FROM quote_requests WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query += fmt.Sprintf(` AND (lower(name) LIKE $%d OR lower(email) LIKE $%d OR lower(company) LIKE $%d)`,
			argIdx, argIdx+1, argIdx+2)
		args = append(args, pattern, pattern, pattern)
		argIdx += 3
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.Since.UTC())
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list quote requests")
	}
	defer rows.Close()

	var quotes []model.QuoteRequest
	for rows.Next() {
		q, err := scanQuotePG(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, eris.Wrap(rows.Err(), "postgres: list quote requests iterate")
}

func (s *PostgresStore) DeleteQuote(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quote_requests WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete quote request %s", id)
	}
	return checkTag(tag, "quote request", id)
}

func (s *PostgresStore) Seed(ctx context.Context, types []model.AnnotationType, faq []model.FAQItem) error {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM annotation_types`).Scan(&n); err != nil {
		return eris.Wrap(err, "postgres: count annotation types")
	}
	if n == 0 {
		for _, t := range types {
			if err := s.UpsertAnnotationType(ctx, t); err != nil {
				return err
			}
		}
	}

	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM faq_items`).Scan(&n); err != nil {
		return eris.Wrap(err, "postgres: count faq items")
	}
	if n == 0 {
		for _, item := range faq {
			if err := s.UpsertFAQItem(ctx, item); err != nil {
				return err
			}
		}
	}
	return nil
}

// helpers

func checkTag(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func scanAnnotationTypePG(row scannable) (*model.AnnotationType, error) {
	var t model.AnnotationType
	var altRate *float64
	var tiersJSON []byte
	var inputMode string

	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Rate, &t.Unit,
		&altRate, &t.AltUnit, &t.IsImageBased, &inputMode, &tiersJSON,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan annotation type")
	}

	t.AltRate = altRate
	t.InputMode = model.InputMode(inputMode)
	if len(tiersJSON) > 0 {
		if err := json.Unmarshal(tiersJSON, &t.LanguageTiers); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal language tiers for %s", t.ID)
		}
	}
	return &t, nil
}

func scanQuotePG(row scannable) (*model.QuoteRequest, error) {
	var q model.QuoteRequest
	var selectedJSON []byte

	err := row.Scan(&q.ID, &q.Name, &q.Email, &q.Company, &q.Message,
		&selectedJSON, &q.TotalCost, &q.Status, &q.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan quote request")
	}

	if err := json.Unmarshal(selectedJSON, &q.SelectedTypes); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal selected types for %s", q.ID)
	}
	return &q, nil
}
