package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/HapppyEnd/aibot/internal/model"
	"github.com/HapppyEnd/aibot/pkg/llm"
)

type fakeNewsStore struct {
	items []model.NewsItem
	errs  []model.ProcessingError
	dbErr error
}

func (f *fakeNewsStore) GetByID(id string) (*model.NewsItem, error) {
	if f.dbErr != nil {
		return nil, f.dbErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, nil
}

func (f *fakeNewsStore) List(limit, offset int) ([]model.NewsItem, error) {
	return f.items, f.dbErr
}

func (f *fakeNewsStore) ListErrors(limit, offset int) ([]model.ProcessingError, error) {
	return f.errs, f.dbErr
}

type fakePostStore struct {
	posts    []model.Post
	draftErr error
}

func (f *fakePostStore) GetByID(id int64) (*model.Post, error) {
	for i := range f.posts {
		if f.posts[i].ID == id {
			return &f.posts[i], nil
		}
	}
	return nil, nil
}

func (f *fakePostStore) List(status string, limit, offset int) ([]model.Post, error) {
	if status == "" {
		return f.posts, nil
	}
	var out []model.Post
	for _, p := range f.posts {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostStore) CreateDraft(newsID, text string) (*model.Post, error) {
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	p := model.Post{ID: int64(len(f.posts) + 1), NewsID: newsID, GeneratedText: text, Status: model.StatusNew}
	f.posts = append(f.posts, p)
	return &p, nil
}

func (f *fakePostStore) UpsertGenerated(newsID, text string) (*model.Post, error) {
	p := model.Post{ID: int64(len(f.posts) + 1), NewsID: newsID, GeneratedText: text, Status: model.StatusGenerated}
	f.posts = append(f.posts, p)
	return &p, nil
}

type queuedTask struct {
	name    string
	payload string
}

type fakeEnqueuer struct {
	calls []queuedTask
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, name, payload string, _ time.Duration) error {
	f.calls = append(f.calls, queuedTask{name: name, payload: payload})
	return nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Generate(context.Context, string, llm.Options) (string, error) {
	return f.text, f.err
}

type fakePublisher struct {
	messageID int64
	err       error
}

func (f *fakePublisher) Send(context.Context, string, string) (int64, error) {
	return f.messageID, f.err
}

type contentFixture struct {
	news      *fakeNewsStore
	posts     *fakePostStore
	queue     *fakeEnqueuer
	generator *fakeGenerator
	publisher *fakePublisher
	router    *gin.Engine
}

func newContentFixture() *contentFixture {
	gin.SetMode(gin.TestMode)

	f := &contentFixture{
		news:      &fakeNewsStore{},
		posts:     &fakePostStore{},
		queue:     &fakeEnqueuer{},
		generator: &fakeGenerator{text: "generated"},
		publisher: &fakePublisher{messageID: 7},
	}

	h := NewContentHandler(f.news, f.posts, f.queue, f.generator, f.publisher,
		"testchannel", llm.Options{MaxTokens: 500}, "generate-for-item", "publish-post")

	r := gin.New()
	r.GET("/news", h.ListNews)
	r.GET("/posts", h.ListPosts)
	r.GET("/posts/:id", h.GetPost)
	r.POST("/posts", h.CreateDraft)
	r.GET("/errors", h.ListErrors)
	r.POST("/generate", h.GenerateNow)
	r.POST("/publish", h.PublishNow)
	f.router = r
	return f
}

func (f *contentFixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestListNews(t *testing.T) {
	f := newContentFixture()
	f.news.items = []model.NewsItem{
		{ID: "aaa", Title: "First", PublishedAt: time.Now()},
	}

	w := f.do("GET", "/news", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var res NewsListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.News))
	assert.Equal(t, "First", res.News[0].Title)
}

func TestListNews_DBError(t *testing.T) {
	f := newContentFixture()
	f.news.dbErr = errors.New("db down")

	w := f.do("GET", "/news", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListPosts_StatusFilter(t *testing.T) {
	f := newContentFixture()
	f.posts.posts = []model.Post{
		{ID: 1, NewsID: "a", Status: model.StatusGenerated},
		{ID: 2, NewsID: "b", Status: model.StatusPublished},
	}

	w := f.do("GET", "/posts?status=published", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var res PostListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.Posts))
	assert.Equal(t, int64(2), res.Posts[0].ID)
}

func TestListPosts_InvalidStatus(t *testing.T) {
	f := newContentFixture()

	w := f.do("GET", "/posts?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPost_NotFound(t *testing.T) {
	f := newContentFixture()

	w := f.do("GET", "/posts/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateDraft(t *testing.T) {
	f := newContentFixture()
	f.news.items = []model.NewsItem{{ID: "aaa", Title: "First"}}

	w := f.do("POST", "/posts", `{"news_id":"aaa","text":"hand written"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	var res PostResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, model.StatusNew, res.Status)
	assert.Equal(t, "hand written", res.Text)
}

func TestCreateDraft_UnknownNewsItem(t *testing.T) {
	f := newContentFixture()

	w := f.do("POST", "/posts", `{"news_id":"missing","text":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateDraft_Conflict(t *testing.T) {
	f := newContentFixture()
	f.news.items = []model.NewsItem{{ID: "aaa", Title: "First"}}
	f.posts.draftErr = errors.New("duplicate key value violates unique constraint")

	w := f.do("POST", "/posts", `{"news_id":"aaa","text":"x"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGenerateNow_QueuesByNewsID(t *testing.T) {
	f := newContentFixture()
	f.news.items = []model.NewsItem{{ID: "aaa", Title: "First"}}

	w := f.do("POST", "/generate", `{"news_id":"aaa"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, len(f.queue.calls))
	assert.Equal(t, "generate-for-item", f.queue.calls[0].name)
	assert.Equal(t, "aaa", f.queue.calls[0].payload)
}

func TestGenerateNow_UnknownNewsItem(t *testing.T) {
	f := newContentFixture()

	w := f.do("POST", "/generate", `{"news_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateNow_InlineText(t *testing.T) {
	f := newContentFixture()

	w := f.do("POST", "/generate", `{"text":"raw news text"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var res map[string]string
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "generated", res["text"])
	assert.Equal(t, 0, len(f.queue.calls))
}

func TestGenerateNow_PersistInline(t *testing.T) {
	f := newContentFixture()
	f.news.items = []model.NewsItem{{ID: "aaa", Title: "First"}}

	w := f.do("POST", "/generate", `{"news_id":"aaa","text":"raw","persist":true}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, len(f.posts.posts))
	assert.Equal(t, model.StatusGenerated, f.posts.posts[0].Status)
}

func TestGenerateNow_EmptyRequest(t *testing.T) {
	f := newContentFixture()

	w := f.do("POST", "/generate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateNow_ProviderError(t *testing.T) {
	f := newContentFixture()
	f.generator.err = &llm.ProviderError{Kind: llm.ErrTransient, Message: "boom"}

	w := f.do("POST", "/generate", `{"text":"raw"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPublishNow_QueuesByPostID(t *testing.T) {
	f := newContentFixture()
	f.posts.posts = []model.Post{{ID: 5, NewsID: "a", Status: model.StatusGenerated}}

	w := f.do("POST", "/publish", `{"post_id":5}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, len(f.queue.calls))
	assert.Equal(t, "publish-post", f.queue.calls[0].name)
	assert.Equal(t, "5", f.queue.calls[0].payload)
}

func TestPublishNow_InlineText(t *testing.T) {
	f := newContentFixture()

	w := f.do("POST", "/publish", `{"text":"announcement"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var res map[string]int64
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, int64(7), res["message_id"])
}

func TestPublishNow_EmptyRequest(t *testing.T) {
	f := newContentFixture()

	w := f.do("POST", "/publish", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListErrors(t *testing.T) {
	f := newContentFixture()
	f.news.errs = []model.ProcessingError{
		{ID: 1, NewsID: "aaa", ErrorMessage: "rate_limit: slow down", ErrorType: "rate_limit", CreatedAt: time.Now()},
	}

	w := f.do("GET", "/errors", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var res ErrorListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.Errors))
	assert.Equal(t, "rate_limit", res.Errors[0].Type)
}
