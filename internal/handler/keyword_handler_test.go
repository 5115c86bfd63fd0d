package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/HapppyEnd/aibot/internal/model"
)

type fakeKeywordStore struct {
	keywords []model.Keyword
	nextID   int64
}

func (f *fakeKeywordStore) List() ([]model.Keyword, error) {
	return f.keywords, nil
}

func (f *fakeKeywordStore) Create(k *model.Keyword) (bool, error) {
	for _, existing := range f.keywords {
		if existing.Word == k.Word {
			return false, nil
		}
	}
	f.nextID++
	k.ID = f.nextID
	f.keywords = append(f.keywords, *k)
	return true, nil
}

func (f *fakeKeywordStore) Delete(id int64) (bool, error) {
	for i := range f.keywords {
		if f.keywords[i].ID == id {
			f.keywords = append(f.keywords[:i], f.keywords[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newKeywordRouter(store KeywordStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewKeywordHandler(store)
	r.GET("/keywords", h.ListKeywords)
	r.POST("/keywords", h.CreateKeyword)
	r.DELETE("/keywords/:id", h.DeleteKeyword)
	return r
}

func TestCreateKeyword_Normalizes(t *testing.T) {
	store := &fakeKeywordStore{}
	r := newKeywordRouter(store)

	w := doJSON(r, "POST", "/keywords", `{"word":"  BitCoin  "}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	var res KeywordResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "bitcoin", res.Word)
}

func TestCreateKeyword_Duplicate(t *testing.T) {
	store := &fakeKeywordStore{keywords: []model.Keyword{{ID: 1, Word: "bitcoin"}}}
	r := newKeywordRouter(store)

	w := doJSON(r, "POST", "/keywords", `{"word":"bitcoin"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateKeyword_Empty(t *testing.T) {
	store := &fakeKeywordStore{}
	r := newKeywordRouter(store)

	w := doJSON(r, "POST", "/keywords", `{"word":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteKeyword(t *testing.T) {
	store := &fakeKeywordStore{keywords: []model.Keyword{{ID: 1, Word: "bitcoin"}}, nextID: 1}
	r := newKeywordRouter(store)

	w := doJSON(r, "DELETE", "/keywords/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "DELETE", "/keywords/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
