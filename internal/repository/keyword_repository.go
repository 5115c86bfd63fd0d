package repository

import (
	"database/sql"

	"github.com/HapppyEnd/aibot/internal/model"
)

type KeywordRepository struct {
	db *sql.DB
}

func NewKeywordRepository(db *sql.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

func (r *KeywordRepository) List() ([]model.Keyword, error) {
	rows, err := r.db.Query(`
		SELECT id, word, created_at
		FROM keyword
		ORDER BY word
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []model.Keyword
	for rows.Next() {
		var k model.Keyword
		if err := rows.Scan(&k.ID, &k.Word, &k.CreatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keywords, nil
}

func (r *KeywordRepository) Words() ([]string, error) {
	keywords, err := r.List()
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, len(keywords))
	for _, k := range keywords {
		words = append(words, k.Word)
	}
	return words, nil
}

// Create inserts a keyword, reporting false when the word already exists.
func (r *KeywordRepository) Create(k *model.Keyword) (bool, error) {
	err := r.db.QueryRow(`
		INSERT INTO keyword(word)
		VALUES($1)
		ON CONFLICT (word) DO NOTHING
		RETURNING id, created_at
	`, k.Word).Scan(&k.ID, &k.CreatedAt)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *KeywordRepository) Delete(id int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM keyword WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}
