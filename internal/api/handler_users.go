package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forumwatch/internal/model"
	"forumwatch/internal/repository"
)

type UserHandler struct {
	prefs *repository.PreferenceRepository
	links *repository.LinkRepository
}

func NewUserHandler(prefs *repository.PreferenceRepository, links *repository.LinkRepository) *UserHandler {
	return &UserHandler{prefs: prefs, links: links}
}

// GetPreferences handles GET /api/users/:id/preferences
func (h *UserHandler) GetPreferences(c *gin.Context) {
	pref, err := h.prefs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": pref})
}

// SetPreferences handles PUT /api/users/:id/preferences
func (h *UserHandler) SetPreferences(c *gin.Context) {
	var req struct {
		NotifyStaticField   *bool `json:"notify_static_field" binding:"required"`
		NotifyClosedThreads *bool `json:"notify_closed_threads" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref := model.Preference{
		UserID:              c.Param("id"),
		NotifyStaticField:   *req.NotifyStaticField,
		NotifyClosedThreads: *req.NotifyClosedThreads,
	}
	if err := h.prefs.Set(c.Request.Context(), pref); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": pref})
}

// LinkTelegram handles PUT /api/users/:id/telegram
func (h *UserHandler) LinkTelegram(c *gin.Context) {
	var req struct {
		ChatID string `json:"chat_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.links.Link(c.Request.Context(), c.Param("id"), req.ChatID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link chat"})
		return
	}

	c.Status(http.StatusNoContent)
}

// UnlinkTelegram handles DELETE /api/users/:id/telegram
func (h *UserHandler) UnlinkTelegram(c *gin.Context) {
	removed, err := h.links.Unlink(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unlink chat"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "no linked chat"})
		return
	}

	c.Status(http.StatusNoContent)
}
