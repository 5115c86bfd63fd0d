package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HapppyEnd/aibot/internal/model"
)

type SourceStore interface {
	List(enabled *bool, limit, offset int) ([]model.Source, error)
	GetByID(id int64) (*model.Source, error)
	Create(s *model.Source) error
	Update(s *model.Source) error
	Delete(id int64) error
}

type SourceHandler struct {
	repository SourceStore
}

func NewSourceHandler(repository SourceStore) *SourceHandler {
	return &SourceHandler{repository: repository}
}

func (h *SourceHandler) ListSources(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	var enabled *bool
	if v := c.Query("enabled"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid enabled filter"})
			return
		}
		enabled = &parsed
	}

	sources, err := h.repository.List(enabled, limit, offset)
	if err != nil {
		slog.Error("error fetching sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := SourceListResponse{Limit: limit, Offset: offset}
	for _, s := range sources {
		res.Sources = append(res.Sources, sourceResponse(&s))
	}

	c.JSON(http.StatusOK, res)
}

func (h *SourceHandler) GetSource(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source id"})
		return
	}

	source, err := h.repository.GetByID(id)
	if err != nil {
		slog.Error("error fetching source", "error", err, "source_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, sourceResponse(source))
}

func (h *SourceHandler) CreateSource(c *gin.Context) {
	var req SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source name is required"})
		return
	}
	if req.Type != model.SourceTypeSite && req.Type != model.SourceTypeChannel {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source type must be site or channel"})
		return
	}

	source := model.Source{
		Type:    req.Type,
		Name:    req.Name,
		URL:     req.URL,
		Enabled: true,
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}

	if err := h.repository.Create(&source); err != nil {
		slog.Error("error creating source", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, sourceResponse(&source))
}

func (h *SourceHandler) UpdateSource(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source id"})
		return
	}

	source, err := h.repository.GetByID(id)
	if err != nil {
		slog.Error("error fetching source", "error", err, "source_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	var req SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Type != "" {
		if req.Type != model.SourceTypeSite && req.Type != model.SourceTypeChannel {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Source type must be site or channel"})
			return
		}
		source.Type = req.Type
	}
	if req.Name != "" {
		source.Name = req.Name
	}
	if req.URL != "" {
		source.URL = req.URL
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}

	if err := h.repository.Update(source); err != nil {
		slog.Error("error updating source", "error", err, "source_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, sourceResponse(source))
}

// DeleteSource removes the source and everything ingested from it in
// one transaction.
func (h *SourceHandler) DeleteSource(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source id"})
		return
	}

	source, err := h.repository.GetByID(id)
	if err != nil {
		slog.Error("error fetching source", "error", err, "source_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	if err := h.repository.Delete(id); err != nil {
		slog.Error("error deleting source", "error", err, "source_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func sourceResponse(s *model.Source) SourceResponse {
	return SourceResponse{
		ID:        s.ID,
		Type:      s.Type,
		Name:      s.Name,
		URL:       s.URL,
		Enabled:   s.Enabled,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}
