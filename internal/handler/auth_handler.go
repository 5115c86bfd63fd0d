package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HapppyEnd/aibot/internal/session"
)

type SessionStore interface {
	Put(ctx context.Context, sess *session.Session) error
	Get(ctx context.Context, phone string) (*session.Session, error)
	Delete(ctx context.Context, phone string) error
}

// AuthHandler runs the two-step login handshake for the publishing
// account. State lives in redis, so any api replica can serve the
// confirmation step.
type AuthHandler struct {
	sessions SessionStore
}

func NewAuthHandler(sessions SessionStore) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone is required"})
		return
	}

	sess := session.Session{
		Phone:     req.Phone,
		CodeHash:  uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	if err := h.sessions.Put(c.Request.Context(), &sess); err != nil {
		slog.Error("error saving session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session store error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "code_requested", "code_hash": sess.CodeHash})
}

func (h *AuthHandler) ConfirmCode(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Phone == "" || req.Code == "" || req.CodeHash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone, code and code_hash are required"})
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), req.Phone)
	if err != nil {
		slog.Error("error loading session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session store error"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending login for this phone"})
		return
	}
	if req.CodeHash != sess.CodeHash {
		slog.Warn("code hash mismatch on login confirmation", "phone", req.Phone)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Code hash does not match the pending login"})
		return
	}

	sess.Authenticated = true
	if err := h.sessions.Put(c.Request.Context(), sess); err != nil {
		slog.Error("error saving session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session store error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "authenticated"})
}

func (h *AuthHandler) AuthStatus(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone is required"})
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), phone)
	if err != nil {
		slog.Error("error loading session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session store error"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"status": "none"})
		return
	}

	status := "pending"
	if sess.Authenticated {
		status = "authenticated"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
