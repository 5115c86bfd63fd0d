package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	db  *sql.DB
	rdb *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

func (h *HealthHandler) GetHealth(c *gin.Context) {
	database := "connected"
	if err := h.db.Ping(); err != nil {
		database = "disconnected"
	}

	queue := "connected"
	if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
		queue = "disconnected"
	}

	if database != "connected" || queue != "connected" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": database,
			"queue":    queue,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": database,
		"queue":    queue,
	})
}
