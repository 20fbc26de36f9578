package store

import (
	"context"
	"time"

	"polyglot/internal/model"
)

const languageColumns = `id, code, name, native_name, is_default, is_active, direction, position, created_at, updated_at`

func scanLanguage(row interface{ Scan(...any) error }) (model.Language, error) {
	var l model.Language
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.IsDefault, &l.IsActive,
		&l.Direction, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// CreateLanguageParams holds the attributes for a new language.
type CreateLanguageParams struct {
	Code       string
	Name       string
	NativeName string
	IsDefault  bool
	IsActive   bool
	Direction  string
	Position   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateLanguage inserts a language row.
func (q *Queries) CreateLanguage(ctx context.Context, arg CreateLanguageParams) (model.Language, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO languages (code, name, native_name, is_default, is_active, direction, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Code, arg.Name, arg.NativeName, arg.IsDefault, arg.IsActive, arg.Direction,
		arg.Position, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.Language{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Language{}, err
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+languageColumns+` FROM languages WHERE id = ?`, id)
	return scanLanguage(row)
}

// GetLanguageByCode fetches a language by its ISO code.
func (q *Queries) GetLanguageByCode(ctx context.Context, code string) (model.Language, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+languageColumns+` FROM languages WHERE code = ?`, code)
	return scanLanguage(row)
}

// GetDefaultLanguage fetches the default language.
func (q *Queries) GetDefaultLanguage(ctx context.Context) (model.Language, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+languageColumns+` FROM languages WHERE is_default = 1 LIMIT 1`)
	return scanLanguage(row)
}

// ListActiveLanguages returns all active languages ordered by position.
func (q *Queries) ListActiveLanguages(ctx context.Context) ([]model.Language, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+languageColumns+` FROM languages WHERE is_active = 1 ORDER BY position, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Language
	for rows.Next() {
		l, err := scanLanguage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
