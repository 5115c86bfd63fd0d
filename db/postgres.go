package db

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

var DB *sql.DB

func Connect(connStr string) error {
	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	return DB.Ping()
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
// The partial unique index on post(news_id) is what holds the
// one-active-post-per-news-item invariant at the store level.
func EnsureSchema() error {
	_, err := DB.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS source (
	id         BIGSERIAL PRIMARY KEY,
	type       TEXT NOT NULL,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL,
	enabled    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS news_item (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	url          TEXT,
	url_hash     TEXT NOT NULL DEFAULT '',
	summary      TEXT NOT NULL DEFAULT '',
	raw_text     TEXT,
	source       TEXT NOT NULL DEFAULT '',
	source_id    BIGINT REFERENCES source(id),
	published_at TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS news_item_url_hash_idx ON news_item(url_hash) WHERE url_hash <> '';
CREATE INDEX IF NOT EXISTS news_item_lower_title_idx ON news_item(LOWER(title));
CREATE INDEX IF NOT EXISTS news_item_published_at_idx ON news_item(published_at DESC);

CREATE TABLE IF NOT EXISTS post (
	id             BIGSERIAL PRIMARY KEY,
	news_id        TEXT NOT NULL REFERENCES news_item(id),
	generated_text TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'new',
	published_at   TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS post_single_active_idx
	ON post(news_id) WHERE status IN ('new', 'generated');
CREATE INDEX IF NOT EXISTS post_status_idx ON post(status);

CREATE TABLE IF NOT EXISTS keyword (
	id         BIGSERIAL PRIMARY KEY,
	word       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS processing_error (
	id            BIGSERIAL PRIMARY KEY,
	news_id       TEXT NOT NULL,
	error_message TEXT NOT NULL,
	error_type    TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS processing_error_news_id_idx ON processing_error(news_id);
`
