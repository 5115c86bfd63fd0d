package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HapppyEnd/aibot/internal/model"
	"github.com/HapppyEnd/aibot/pkg/llm"
	"github.com/HapppyEnd/aibot/pkg/telegram"
)

type NewsStore interface {
	GetByID(id string) (*model.NewsItem, error)
	List(limit, offset int) ([]model.NewsItem, error)
	ListErrors(limit, offset int) ([]model.ProcessingError, error)
}

type PostStore interface {
	GetByID(id int64) (*model.Post, error)
	List(status string, limit, offset int) ([]model.Post, error)
	CreateDraft(newsID, text string) (*model.Post, error)
	UpsertGenerated(newsID, text string) (*model.Post, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, name, payload string, delay time.Duration) error
}

// ContentHandler serves the read side of the pipeline plus the manual
// generate and publish entry points.
type ContentHandler struct {
	news      NewsStore
	posts     PostStore
	queue     Enqueuer
	generator llm.Generator
	publisher telegram.Publisher
	channel   string
	genOpts   llm.Options

	generateTask string
	publishTask  string
}

func NewContentHandler(news NewsStore, posts PostStore, queue Enqueuer,
	generator llm.Generator, publisher telegram.Publisher, channel string,
	genOpts llm.Options, generateTask, publishTask string) *ContentHandler {
	return &ContentHandler{
		news:         news,
		posts:        posts,
		queue:        queue,
		generator:    generator,
		publisher:    publisher,
		channel:      channel,
		genOpts:      genOpts,
		generateTask: generateTask,
		publishTask:  publishTask,
	}
}

func (h *ContentHandler) ListNews(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	items, err := h.news.List(limit, offset)
	if err != nil {
		slog.Error("error fetching news", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := NewsListResponse{Limit: limit, Offset: offset}
	for _, item := range items {
		res.News = append(res.News, NewsItemResponse{
			ID:          item.ID,
			Title:       item.Title,
			URL:         item.URL,
			Summary:     item.Summary,
			Source:      item.Source,
			SourceID:    item.SourceID,
			PublishedAt: item.PublishedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, res)
}

func (h *ContentHandler) ListPosts(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	status := c.Query("status")
	switch status {
	case "", model.StatusNew, model.StatusGenerated, model.StatusPublished, model.StatusFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	posts, err := h.posts.List(status, limit, offset)
	if err != nil {
		slog.Error("error fetching posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := PostListResponse{Limit: limit, Offset: offset}
	for _, p := range posts {
		res.Posts = append(res.Posts, postResponse(&p))
	}

	c.JSON(http.StatusOK, res)
}

func (h *ContentHandler) GetPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	post, err := h.posts.GetByID(id)
	if err != nil {
		slog.Error("error fetching post", "error", err, "post_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, postResponse(post))
}

// CreateDraft stores a hand-written post for a news item. The draft
// starts in NEW; the pipeline treats it like any other active post.
func (h *ContentHandler) CreateDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.NewsID == "" || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "news_id and text are required"})
		return
	}

	item, err := h.news.GetByID(req.NewsID)
	if err != nil {
		slog.Error("error fetching news item", "error", err, "news_id", req.NewsID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "News item not found"})
		return
	}

	post, err := h.posts.CreateDraft(req.NewsID, req.Text)
	if err != nil {
		slog.Error("error creating draft", "error", err, "news_id", req.NewsID)
		c.JSON(http.StatusConflict, gin.H{"error": "News item already has an active post"})
		return
	}

	c.JSON(http.StatusCreated, postResponse(post))
}

func (h *ContentHandler) ListErrors(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	errs, err := h.news.ListErrors(limit, offset)
	if err != nil {
		slog.Error("error fetching processing errors", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := ErrorListResponse{Limit: limit, Offset: offset}
	for _, e := range errs {
		res.Errors = append(res.Errors, ProcessingErrorResponse{
			ID:        e.ID,
			NewsID:    e.NewsID,
			Message:   e.ErrorMessage,
			Type:      e.ErrorType,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, res)
}

// GenerateNow triggers generation outside the periodic sweep, skipping
// the eligibility filter. With a news_id the work goes through the
// queue; with raw text the provider is called inline and the result
// returned (and optionally persisted against a news item).
func (h *ContentHandler) GenerateNow(c *gin.Context) {
	var req GenerateNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Text == "" && req.NewsID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "news_id or text is required"})
		return
	}

	if req.Text == "" {
		item, err := h.news.GetByID(req.NewsID)
		if err != nil {
			slog.Error("error fetching news item", "error", err, "news_id", req.NewsID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if item == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "News item not found"})
			return
		}

		if err := h.queue.Enqueue(c.Request.Context(), h.generateTask, req.NewsID, 0); err != nil {
			slog.Error("error enqueuing generation", "error", err, "news_id", req.NewsID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Queue error"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "news_id": req.NewsID})
		return
	}

	text, err := h.generator.Generate(c.Request.Context(), req.Text, h.genOpts)
	if err != nil {
		slog.Error("error generating text", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation failed"})
		return
	}

	if req.Persist && req.NewsID != "" {
		post, err := h.posts.UpsertGenerated(req.NewsID, text)
		if err != nil {
			slog.Error("error saving generated post", "error", err, "news_id", req.NewsID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		c.JSON(http.StatusCreated, postResponse(post))
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

// PublishNow pushes one post (or ad-hoc text) to the channel outside
// the periodic republish sweep.
func (h *ContentHandler) PublishNow(c *gin.Context) {
	var req PublishNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.PostID != 0 {
		post, err := h.posts.GetByID(req.PostID)
		if err != nil {
			slog.Error("error fetching post", "error", err, "post_id", req.PostID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if post == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}

		payload := strconv.FormatInt(req.PostID, 10)
		if err := h.queue.Enqueue(c.Request.Context(), h.publishTask, payload, 0); err != nil {
			slog.Error("error enqueuing publish", "error", err, "post_id", req.PostID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Queue error"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "post_id": req.PostID})
		return
	}

	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_id or text is required"})
		return
	}

	messageID, err := h.publisher.Send(c.Request.Context(), h.channel, req.Text)
	if err != nil {
		slog.Error("error sending message", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Publish failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message_id": messageID})
}

func postResponse(p *model.Post) PostResponse {
	res := PostResponse{
		ID:        p.ID,
		NewsID:    p.NewsID,
		Text:      p.GeneratedText,
		Status:    p.Status,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	if p.PublishedAt != nil {
		res.PublishedAt = p.PublishedAt.Format(time.RFC3339)
	}
	return res
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	param := c.Query(name)
	if param == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(param)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", param, "error", err)
		return defaultValue
	}
	return parsed
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 10
		maxLimit     = 100
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}
	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}
	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt("offset", 0, c)
	if offset < 0 {
		slog.Warn("invalid query parameter, using default", "param", "offset", "value", offset, "default", 0)
		return 0
	}
	return offset
}
