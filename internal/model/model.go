package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

const (
	SourceTypeSite    = "site"
	SourceTypeChannel = "channel"
)

const (
	StatusNew       = "new"
	StatusGenerated = "generated"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// ActiveStatuses are the non-terminal post states. At most one post per
// news item may hold one of them at any time.
var ActiveStatuses = []string{StatusNew, StatusGenerated}

type Source struct {
	ID        int64
	Type      string
	Name      string
	URL       string
	Enabled   bool
	CreatedAt time.Time
}

type NewsItem struct {
	ID          string
	Title       string
	URL         string
	Summary     string
	RawText     string
	Source      string
	SourceID    int64
	PublishedAt time.Time
	CreatedAt   time.Time
}

type Post struct {
	ID            int64
	NewsID        string
	GeneratedText string
	Status        string
	PublishedAt   *time.Time
	CreatedAt     time.Time
}

type Keyword struct {
	ID        int64
	Word      string
	CreatedAt time.Time
}

type ProcessingError struct {
	ID           int64
	NewsID       string
	ErrorMessage string
	ErrorType    string
	CreatedAt    time.Time
}

// NewsID derives the canonical news item id from the url, falling back
// to the title when the item has no url. Re-ingesting the same input
// always produces the same id.
func NewsID(url, title string) string {
	key := url
	if key == "" {
		key = title
	}
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)[:32]
}

// URLHash keys the duplicate-detection index. Empty urls hash to "" so
// they never collide with each other.
func URLHash(url string) string {
	if url == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", sum)[:32]
}
