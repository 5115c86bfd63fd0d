package repository

import (
	"database/sql"

	"github.com/HapppyEnd/aibot/internal/model"
)

type NewsRepository struct {
	db *sql.DB
}

func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// Insert stores a news item unless one with the same id already exists.
// First-seen fields win: a later fetch of the same id is a no-op.
func (r *NewsRepository) Insert(item *model.NewsItem) (bool, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO news_item(id, title, url, url_hash, summary, raw_text, source, source_id, published_at)
		VALUES($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7, NULLIF($8, 0), $9)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`, item.ID, item.Title, item.URL, model.URLHash(item.URL), item.Summary,
		item.RawText, item.Source, item.SourceID, item.PublishedAt).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *NewsRepository) GetByID(id string) (*model.NewsItem, error) {
	var n model.NewsItem
	var url, rawText sql.NullString
	var sourceID sql.NullInt64
	err := r.db.QueryRow(`
		SELECT id, title, url, summary, raw_text, source, source_id, published_at, created_at
		FROM news_item
		WHERE id = $1
	`, id).Scan(&n.ID, &n.Title, &url, &n.Summary, &rawText, &n.Source, &sourceID, &n.PublishedAt, &n.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	n.URL = url.String
	n.RawText = rawText.String
	n.SourceID = sourceID.Int64
	return &n, nil
}

// ListRecent returns the newest items first, bounded to the processing
// window the dispatcher sweeps over.
func (r *NewsRepository) ListRecent(limit int) ([]model.NewsItem, error) {
	return r.list(`
		SELECT id, title, url, summary, raw_text, source, source_id, published_at, created_at
		FROM news_item
		ORDER BY published_at DESC
		LIMIT $1
	`, limit)
}

func (r *NewsRepository) List(limit, offset int) ([]model.NewsItem, error) {
	return r.list(`
		SELECT id, title, url, summary, raw_text, source, source_id, published_at, created_at
		FROM news_item
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

func (r *NewsRepository) list(query string, args ...interface{}) ([]model.NewsItem, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.NewsItem
	for rows.Next() {
		var n model.NewsItem
		var url, rawText sql.NullString
		var sourceID sql.NullInt64
		err := rows.Scan(&n.ID, &n.Title, &url, &n.Summary, &rawText, &n.Source, &sourceID, &n.PublishedAt, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		n.URL = url.String
		n.RawText = rawText.String
		n.SourceID = sourceID.Int64
		items = append(items, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// HasDuplicate reports whether another stored item shares this item's
// url hash or its case-insensitive title. Both lookups hit indexes.
func (r *NewsRepository) HasDuplicate(item *model.NewsItem) (bool, error) {
	urlHash := model.URLHash(item.URL)
	if urlHash != "" {
		var exists bool
		err := r.db.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM news_item WHERE url_hash = $1 AND id <> $2)
		`, urlHash, item.ID).Scan(&exists)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}

	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM news_item WHERE LOWER(title) = LOWER($1) AND id <> $2)
	`, item.Title, item.ID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *NewsRepository) SaveError(newsID, errMsg, errType string) error {
	_, err := r.db.Exec(`
		INSERT INTO processing_error(news_id, error_message, error_type)
		VALUES($1, $2, $3)
	`, newsID, errMsg, errType)
	return err
}

func (r *NewsRepository) GetErrorCount(newsID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM processing_error WHERE news_id = $1
	`, newsID).Scan(&count)
	return count, err
}

func (r *NewsRepository) ListErrors(limit, offset int) ([]model.ProcessingError, error) {
	rows, err := r.db.Query(`
		SELECT id, news_id, error_message, error_type, created_at
		FROM processing_error
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []model.ProcessingError
	for rows.Next() {
		var e model.ProcessingError
		if err := rows.Scan(&e.ID, &e.NewsID, &e.ErrorMessage, &e.ErrorType, &e.CreatedAt); err != nil {
			return nil, err
		}
		errs = append(errs, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return errs, nil
}
