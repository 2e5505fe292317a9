package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/deelab/costcalc/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS annotation_types (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	rate           REAL NOT NULL,
	unit           TEXT NOT NULL,
	alt_rate       REAL,
	alt_unit       TEXT NOT NULL DEFAULT '',
	is_image_based INTEGER NOT NULL DEFAULT 0,
	input_mode     TEXT NOT NULL DEFAULT '',
	language_tiers TEXT,
	is_active      INTEGER NOT NULL DEFAULT 1,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS faq_items (
	id         TEXT PRIMARY KEY,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	is_active  INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS settings (
	setting_key   TEXT PRIMARY KEY,
	setting_value TEXT NOT NULL,
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS quote_requests (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL,
	company        TEXT NOT NULL DEFAULT '',
	message        TEXT NOT NULL DEFAULT '',
	selected_types TEXT NOT NULL,
	total_cost     REAL NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_annotation_types_active ON annotation_types(is_active);
CREATE INDEX IF NOT EXISTS idx_faq_items_order ON faq_items(category, sort_order);
CREATE INDEX IF NOT EXISTS idx_quote_requests_created ON quote_requests(created_at);
CREATE INDEX IF NOT EXISTS idx_quote_requests_email ON quote_requests(email);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const annotationTypeColumns = `id, name, description, rate, unit, alt_rate, alt_unit, is_image_based, input_mode, language_tiers, is_active, created_at, updated_at`

func (s *SQLiteStore) ListAnnotationTypes(ctx context.Context, activeOnly bool) ([]model.AnnotationType, error) {
	query := `SELECT ` + annotationTypeColumns + ` FROM annotation_types`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list annotation types")
	}
	defer rows.Close()

	var types []model.AnnotationType
	for rows.Next() {
		t, err := scanAnnotationType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *t)
	}
	return types, eris.Wrap(rows.Err(), "sqlite: list annotation types iterate")
}

func (s *SQLiteStore) GetAnnotationType(ctx context.Context, id string) (*model.AnnotationType, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+annotationTypeColumns+` FROM annotation_types WHERE id = ?`, id)
	t, err := scanAnnotationType(row)
	if eris.Is(err, ErrNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "annotation type %s", id)
	}
	return t, err
}

func (s *SQLiteStore) UpsertAnnotationType(ctx context.Context, t model.AnnotationType) error {
	tiersJSON, err := marshalTiers(t.LanguageTiers)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO annotation_types (`+annotationTypeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
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
		boolToInt(t.IsImageBased), string(t.InputMode), tiersJSON,
		boolToInt(t.IsActive), createdAt, now,
	)
	return eris.Wrapf(err, "sqlite: upsert annotation type %s", t.ID)
}

func (s *SQLiteStore) ToggleAnnotationType(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE annotation_types SET is_active = 1 - is_active, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: toggle annotation type %s", id)
	}
	if err := checkRowsAffected(res, "annotation type", id); err != nil {
		return false, err
	}

	var active int
	err = s.db.QueryRowContext(ctx,
		`SELECT is_active FROM annotation_types WHERE id = ?`, id).Scan(&active)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: read toggled annotation type %s", id)
	}
	return active == 1, nil
}

func (s *SQLiteStore) DeleteAnnotationType(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM annotation_types WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete annotation type %s", id)
	}
	return checkRowsAffected(res, "annotation type", id)
}

func (s *SQLiteStore) ListFAQItems(ctx context.Context, activeOnly bool) ([]model.FAQItem, error) {
	query := `SELECT id, question, answer, category, sort_order, is_active FROM faq_items`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY category, sort_order, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list faq items")
	}
	defer rows.Close()

	var items []model.FAQItem
	for rows.Next() {
		var item model.FAQItem
		var active int
		if err := rows.Scan(&item.ID, &item.Question, &item.Answer, &item.Category, &item.Order, &active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan faq item")
		}
		item.IsActive = active == 1
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list faq items iterate")
}

func (s *SQLiteStore) UpsertFAQItem(ctx context.Context, item model.FAQItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO faq_items (id, question, answer, category, sort_order, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			category = excluded.category,
			sort_order = excluded.sort_order,
			is_active = excluded.is_active`,
		item.ID, item.Question, item.Answer, item.Category, item.Order, boolToInt(item.IsActive),
	)
	return eris.Wrapf(err, "sqlite: upsert faq item %s", item.ID)
}

func (s *SQLiteStore) ToggleFAQItem(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE faq_items SET is_active = 1 - is_active WHERE id = ?`, id)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: toggle faq item %s", id)
	}
	if err := checkRowsAffected(res, "faq item", id); err != nil {
		return false, err
	}

	var active int
	err = s.db.QueryRowContext(ctx, `SELECT is_active FROM faq_items WHERE id = ?`, id).Scan(&active)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: read toggled faq item %s", id)
	}
	return active == 1, nil
}

func (s *SQLiteStore) DeleteFAQItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM faq_items WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete faq item %s", id)
	}
	return checkRowsAffected(res, "faq item", id)
}

func (s *SQLiteStore) ReorderFAQItems(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin reorder")
	}
	defer tx.Rollback()

	for i, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE faq_items SET sort_order = ? WHERE id = ?`, i, id)
		if err != nil {
			return eris.Wrapf(err, "sqlite: reorder faq item %s", id)
		}
		if err := checkRowsAffected(res, "faq item", id); err != nil {
			return err
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit reorder")
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT setting_value FROM settings WHERE setting_key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get setting %s", key)
	}
	return []byte(value), nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (setting_key, setting_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET
			setting_value = excluded.setting_value,
			updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set setting %s", key)
}

func (s *SQLiteStore) CreateQuote(ctx context.Context, q model.QuoteRequest) (*model.QuoteRequest, error) {
	q.ID = uuid.New().String()
	q.CreatedAt = time.Now().UTC()
	if q.Status == "" {
		q.Status = model.QuoteStatusPending
	}

	selectedJSON, err := json.Marshal(q.SelectedTypes)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal selected types")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quote_requests (id, name, email, company, message, selected_types, total_cost, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Name, q.Email, q.Company, q.Message, string(selectedJSON), q.TotalCost, string(q.Status), q.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert quote request")
	}
	return &q, nil
}

const quoteColumns = `id, name, email, company, message, selected_types, total_cost, status, created_at`

func (s *SQLiteStore) GetQuote(ctx context.Context, id string) (*model.QuoteRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quote_requests WHERE id = ?`, id)
	q, err := scanQuote(row)
	if eris.Is(err, ErrNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "quote request %s", id)
	}
	return q, err
}

func (s *SQLiteStore) ListQuotes(ctx context.Context, filter QuoteFilter) ([]model.QuoteRequest, error) {
	query := `SELECT ` + quoteColumns + ` FROM quote_requests WHERE 1=1`
	var args []any

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query += ` AND (lower(name) LIKE ? OR lower(email) LIKE ? OR lower(company) LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list quote requests")
	}
	defer rows.Close()

	var quotes []model.QuoteRequest
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, eris.Wrap(rows.Err(), "sqlite: list quote requests iterate")
}

func (s *SQLiteStore) DeleteQuote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quote_requests WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete quote request %s", id)
	}
	return checkRowsAffected(res, "quote request", id)
}

// Seed inserts the defaults only when the corresponding table is empty,
// so a restart never clobbers admin edits.
func (s *SQLiteStore) Seed(ctx context.Context, types []model.AnnotationType, faq []model.FAQItem) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM annotation_types`).Scan(&n); err != nil {
		return eris.Wrap(err, "sqlite: count annotation types")
	}
	if n == 0 {
		for _, t := range types {
			if err := s.UpsertAnnotationType(ctx, t); err != nil {
				return err
			}
		}
	}

	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM faq_items`).Scan(&n); err != nil {
		return eris.Wrap(err, "sqlite: count faq items")
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

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalTiers(tiers map[string]model.LanguageTier) (sql.NullString, error) {
	if len(tiers) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tiers)
	if err != nil {
		return sql.NullString{}, eris.Wrap(err, "marshal language tiers")
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAnnotationType(row scannable) (*model.AnnotationType, error) {
	var t model.AnnotationType
	var altRate sql.NullFloat64
	var tiersJSON sql.NullString
	var imageBased, active int
	var inputMode string

	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Rate, &t.Unit,
		&altRate, &t.AltUnit, &imageBased, &inputMode, &tiersJSON,
		&active, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan annotation type")
	}

	if altRate.Valid {
		t.AltRate = &altRate.Float64
	}
	t.IsImageBased = imageBased == 1
	t.InputMode = model.InputMode(inputMode)
	t.IsActive = active == 1
	if tiersJSON.Valid {
		if err := json.Unmarshal([]byte(tiersJSON.String), &t.LanguageTiers); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal language tiers for %s", t.ID)
		}
	}
	return &t, nil
}

func scanQuote(row scannable) (*model.QuoteRequest, error) {
	var q model.QuoteRequest
	var selectedJSON string

	err := row.Scan(&q.ID, &q.Name, &q.Email, &q.Company, &q.Message,
		&selectedJSON, &q.TotalCost, &q.Status, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan quote request")
	}

	if err := json.Unmarshal([]byte(selectedJSON), &q.SelectedTypes); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal selected types for %s", q.ID)
	}
	return &q, nil
}
