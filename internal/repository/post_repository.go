package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/HapppyEnd/aibot/internal/model"
)

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) GetByID(id int64) (*model.Post, error) {
	var p model.Post
	var publishedAt sql.NullTime
	err := r.db.QueryRow(`
		SELECT id, news_id, generated_text, status, published_at, created_at
		FROM post
		WHERE id = $1
	`, id).Scan(&p.ID, &p.NewsID, &p.GeneratedText, &p.Status, &publishedAt, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return &p, nil
}

// CreateDraft inserts a manually drafted post in NEW. The partial
// unique index rejects a second draft while another post for the item
// is still active; that surfaces as the returned error.
func (r *PostRepository) CreateDraft(newsID, text string) (*model.Post, error) {
	var p model.Post
	var publishedAt sql.NullTime
	err := r.db.QueryRow(`
		INSERT INTO post(news_id, generated_text, status)
		VALUES($1, $2, $3)
		RETURNING id, news_id, generated_text, status, published_at, created_at
	`, newsID, text, model.StatusNew).
		Scan(&p.ID, &p.NewsID, &p.GeneratedText, &p.Status, &publishedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return &p, nil
}

// NewsState reports, in a single snapshot, whether the news item already
// has a published post and whether it has an active (new or generated)
// one. The dispatcher decides from this without any further read.
func (r *PostRepository) NewsState(newsID string) (active bool, published bool, err error) {
	err = r.db.QueryRow(`
		SELECT
			EXISTS(SELECT 1 FROM post WHERE news_id = $1 AND status = ANY($2)),
			EXISTS(SELECT 1 FROM post WHERE news_id = $1 AND status = $3)
	`, newsID, pq.StringArray(model.ActiveStatuses), model.StatusPublished).Scan(&active, &published)
	return active, published, err
}

// UpsertGenerated records a successful generation. If an active post for
// the news item already exists its text is overwritten in place;
// otherwise a new row is created in GENERATED. The row lock plus the
// partial unique index keep concurrent task redeliveries down to one row.
func (r *PostRepository) UpsertGenerated(newsID, text string) (*model.Post, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var p model.Post
	var publishedAt sql.NullTime

	err = tx.QueryRow(`
		SELECT id FROM post
		WHERE news_id = $1 AND status = ANY($2)
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE
	`, newsID, pq.StringArray(model.ActiveStatuses)).Scan(&p.ID)

	switch err {
	case nil:
		err = tx.QueryRow(`
			UPDATE post SET generated_text = $1, status = $2
			WHERE id = $3
			RETURNING id, news_id, generated_text, status, published_at, created_at
		`, text, model.StatusGenerated, p.ID).
			Scan(&p.ID, &p.NewsID, &p.GeneratedText, &p.Status, &publishedAt, &p.CreatedAt)
	case sql.ErrNoRows:
		err = tx.QueryRow(`
			INSERT INTO post(news_id, generated_text, status)
			VALUES($1, $2, $3)
			RETURNING id, news_id, generated_text, status, published_at, created_at
		`, newsID, text, model.StatusGenerated).
			Scan(&p.ID, &p.NewsID, &p.GeneratedText, &p.Status, &publishedAt, &p.CreatedAt)
	default:
		return nil, err
	}

	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}

	return &p, tx.Commit()
}

// MarkPublished moves the post to PUBLISHED with a compare-and-set
// against the active statuses. Returns false when the post was not in an
// active state, which means a concurrently applied terminal result won.
func (r *PostRepository) MarkPublished(id int64, at time.Time) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE post SET status = $1, published_at = $2
		WHERE id = $3 AND status = ANY($4)
	`, model.StatusPublished, at, id, pq.StringArray(model.ActiveStatuses))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkFailed moves the post to FAILED, never touching a terminal state.
func (r *PostRepository) MarkFailed(id int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE post SET status = $1
		WHERE id = $2 AND status = ANY($3)
	`, model.StatusFailed, id, pq.StringArray(model.ActiveStatuses))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// ListByStatus returns the oldest posts first so stuck rows drain in
// insertion order.
func (r *PostRepository) ListByStatus(status string, limit int) ([]model.Post, error) {
	return r.list(`
		SELECT id, news_id, generated_text, status, published_at, created_at
		FROM post
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2
	`, status, limit)
}

func (r *PostRepository) List(status string, limit, offset int) ([]model.Post, error) {
	if status != "" {
		return r.list(`
			SELECT id, news_id, generated_text, status, published_at, created_at
			FROM post
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, status, limit, offset)
	}
	return r.list(`
		SELECT id, news_id, generated_text, status, published_at, created_at
		FROM post
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

func (r *PostRepository) list(query string, args ...interface{}) ([]model.Post, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		var publishedAt sql.NullTime
		err := rows.Scan(&p.ID, &p.NewsID, &p.GeneratedText, &p.Status, &publishedAt, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		if publishedAt.Valid {
			p.PublishedAt = &publishedAt.Time
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
