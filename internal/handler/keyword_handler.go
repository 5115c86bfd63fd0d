package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HapppyEnd/aibot/internal/model"
)

type KeywordStore interface {
	List() ([]model.Keyword, error)
	Create(k *model.Keyword) (bool, error)
	Delete(id int64) (bool, error)
}

type KeywordHandler struct {
	repository KeywordStore
}

func NewKeywordHandler(repository KeywordStore) *KeywordHandler {
	return &KeywordHandler{repository: repository}
}

func (h *KeywordHandler) ListKeywords(c *gin.Context) {
	keywords, err := h.repository.List()
	if err != nil {
		slog.Error("error fetching keywords", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var res []KeywordResponse
	for _, k := range keywords {
		res = append(res, KeywordResponse{ID: k.ID, Word: k.Word})
	}

	c.JSON(http.StatusOK, res)
}

func (h *KeywordHandler) CreateKeyword(c *gin.Context) {
	var req KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	word := strings.TrimSpace(strings.ToLower(req.Word))
	if word == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Keyword is required"})
		return
	}

	keyword := model.Keyword{Word: word}
	created, err := h.repository.Create(&keyword)
	if err != nil {
		slog.Error("error creating keyword", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"error": "Keyword already exists"})
		return
	}

	c.JSON(http.StatusCreated, KeywordResponse{ID: keyword.ID, Word: keyword.Word})
}

func (h *KeywordHandler) DeleteKeyword(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid keyword id"})
		return
	}

	deleted, err := h.repository.Delete(id)
	if err != nil {
		slog.Error("error deleting keyword", "error", err, "keyword_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Keyword not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
