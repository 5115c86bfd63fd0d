package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/HapppyEnd/aibot/internal/model"
)

type fakeSourceStore struct {
	sources []model.Source
	deleted []int64
	nextID  int64
}

func (f *fakeSourceStore) List(enabled *bool, limit, offset int) ([]model.Source, error) {
	if enabled == nil {
		return f.sources, nil
	}
	var out []model.Source
	for _, s := range f.sources {
		if s.Enabled == *enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSourceStore) GetByID(id int64) (*model.Source, error) {
	for i := range f.sources {
		if f.sources[i].ID == id {
			return &f.sources[i], nil
		}
	}
	return nil, nil
}

func (f *fakeSourceStore) Create(s *model.Source) error {
	f.nextID++
	s.ID = f.nextID
	f.sources = append(f.sources, *s)
	return nil
}

func (f *fakeSourceStore) Update(s *model.Source) error {
	for i := range f.sources {
		if f.sources[i].ID == s.ID {
			f.sources[i] = *s
		}
	}
	return nil
}

func (f *fakeSourceStore) Delete(id int64) error {
	f.deleted = append(f.deleted, id)
	for i := range f.sources {
		if f.sources[i].ID == id {
			f.sources = append(f.sources[:i], f.sources[i+1:]...)
			break
		}
	}
	return nil
}

func newSourceRouter(store SourceStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSourceHandler(store)
	r.GET("/sources", h.ListSources)
	r.GET("/sources/:id", h.GetSource)
	r.POST("/sources", h.CreateSource)
	r.PUT("/sources/:id", h.UpdateSource)
	r.DELETE("/sources/:id", h.DeleteSource)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestListSources_EnabledFilter(t *testing.T) {
	store := &fakeSourceStore{sources: []model.Source{
		{ID: 1, Name: "on", Enabled: true},
		{ID: 2, Name: "off", Enabled: false},
	}}
	r := newSourceRouter(store)

	w := doJSON(r, "GET", "/sources?enabled=true", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var res SourceListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.Sources))
	assert.Equal(t, "on", res.Sources[0].Name)
}

func TestCreateSource(t *testing.T) {
	store := &fakeSourceStore{}
	r := newSourceRouter(store)

	w := doJSON(r, "POST", "/sources", `{"type":"site","name":"example","url":"https://example.com/feed"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	var res SourceResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, true, res.Enabled)
	assert.Equal(t, int64(1), res.ID)
}

func TestCreateSource_BadType(t *testing.T) {
	store := &fakeSourceStore{}
	r := newSourceRouter(store)

	w := doJSON(r, "POST", "/sources", `{"type":"rss","name":"example"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSource_Disable(t *testing.T) {
	store := &fakeSourceStore{sources: []model.Source{
		{ID: 1, Type: model.SourceTypeSite, Name: "example", Enabled: true},
	}, nextID: 1}
	r := newSourceRouter(store)

	w := doJSON(r, "PUT", "/sources/1", `{"enabled":false}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, store.sources[0].Enabled)
}

func TestUpdateSource_NotFound(t *testing.T) {
	store := &fakeSourceStore{}
	r := newSourceRouter(store)

	w := doJSON(r, "PUT", "/sources/9", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSource(t *testing.T) {
	store := &fakeSourceStore{sources: []model.Source{
		{ID: 1, Type: model.SourceTypeSite, Name: "example"},
	}, nextID: 1}
	r := newSourceRouter(store)

	w := doJSON(r, "DELETE", "/sources/1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{1}, store.deleted)
}

func TestDeleteSource_NotFound(t *testing.T) {
	store := &fakeSourceStore{}
	r := newSourceRouter(store)

	w := doJSON(r, "DELETE", "/sources/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
