package handler

type SourceRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled *bool  `json:"enabled"`
}

type SourceResponse struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
}

type SourceListResponse struct {
	Sources []SourceResponse `json:"sources"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type NewsItemResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	SourceID    int64  `json:"source_id"`
	PublishedAt string `json:"published_at"`
}

type NewsListResponse struct {
	News   []NewsItemResponse `json:"news"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type PostResponse struct {
	ID          int64  `json:"id"`
	NewsID      string `json:"news_id"`
	Text        string `json:"text"`
	Status      string `json:"status"`
	PublishedAt string `json:"published_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type PostListResponse struct {
	Posts  []PostResponse `json:"posts"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type DraftRequest struct {
	NewsID string `json:"news_id"`
	Text   string `json:"text"`
}

type KeywordRequest struct {
	Word string `json:"word"`
}

type KeywordResponse struct {
	ID   int64  `json:"id"`
	Word string `json:"word"`
}

type ProcessingErrorResponse struct {
	ID        int64  `json:"id"`
	NewsID    string `json:"news_id"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

type ErrorListResponse struct {
	Errors []ProcessingErrorResponse `json:"errors"`
	Limit  int                       `json:"limit"`
	Offset int                       `json:"offset"`
}

type GenerateNowRequest struct {
	NewsID  string `json:"news_id"`
	Text    string `json:"text"`
	Persist bool   `json:"persist"`
}

type PublishNowRequest struct {
	PostID int64  `json:"post_id"`
	Text   string `json:"text"`
}

type AuthRequest struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	CodeHash string `json:"code_hash"`
}
