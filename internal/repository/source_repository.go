package repository

import (
	"database/sql"

	"github.com/HapppyEnd/aibot/internal/model"
)

type SourceRepository struct {
	db *sql.DB
}

func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) List(enabled *bool, limit, offset int) ([]model.Source, error) {
	query := `
		SELECT id, type, name, url, enabled, created_at
		FROM source
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	args := []interface{}{limit, offset}

	if enabled != nil {
		query = `
			SELECT id, type, name, url, enabled, created_at
			FROM source
			WHERE enabled = $3
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		args = append(args, *enabled)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		var s model.Source
		if err := rows.Scan(&s.ID, &s.Type, &s.Name, &s.URL, &s.Enabled, &s.CreatedAt); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sources, nil
}

func (r *SourceRepository) ListEnabled() ([]model.Source, error) {
	enabled := true
	return r.List(&enabled, 1000, 0)
}

func (r *SourceRepository) GetByID(id int64) (*model.Source, error) {
	var s model.Source
	err := r.db.QueryRow(`
		SELECT id, type, name, url, enabled, created_at
		FROM source
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Type, &s.Name, &s.URL, &s.Enabled, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *SourceRepository) Create(s *model.Source) error {
	return r.db.QueryRow(`
		INSERT INTO source(type, name, url, enabled)
		VALUES($1, $2, $3, $4)
		RETURNING id, created_at
	`, s.Type, s.Name, s.URL, s.Enabled).Scan(&s.ID, &s.CreatedAt)
}

func (r *SourceRepository) Update(s *model.Source) error {
	_, err := r.db.Exec(`
		UPDATE source SET name = $1, url = $2, enabled = $3 WHERE id = $4
	`, s.Name, s.URL, s.Enabled, s.ID)
	return err
}

// Delete removes a source together with its news items, their posts and
// their error records, in one transaction and in dependency order.
func (r *SourceRepository) Delete(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM post
		WHERE news_id IN (SELECT id FROM news_item WHERE source_id = $1)
	`, id)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM processing_error
		WHERE news_id IN (SELECT id FROM news_item WHERE source_id = $1)
	`, id)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM news_item WHERE source_id = $1`, id)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM source WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}
