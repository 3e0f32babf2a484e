package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"forumwatch/internal/repository"
)

type ThreadHandler struct {
	ledger *repository.LedgerRepository
	stats  *repository.StatsRepository
}

func NewThreadHandler(ledger *repository.LedgerRepository, stats *repository.StatsRepository) *ThreadHandler {
	return &ThreadHandler{ledger: ledger, stats: stats}
}

// Forget handles DELETE /api/threads. Dropping a thread from the ledger
// makes the next pass scan it again from scratch.
func (h *ThreadHandler) Forget(c *gin.Context) {
	var req struct {
		ThreadURL string `json:"thread_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.ledger.Forget(c.Request.Context(), req.ThreadURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to forget thread"})
		return
	}
	if removed == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "thread not in ledger"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Recent handles GET /api/threads/recent
func (h *ThreadHandler) Recent(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1..500"})
			return
		}
		limit = parsed
	}

	entries, err := h.ledger.RecentThreads(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list threads"})
		return
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		urls = append(urls, e.ThreadURL)
	}
	c.JSON(http.StatusOK, gin.H{"threads": urls})
}

// Stats handles GET /api/stats
func (h *ThreadHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scanned_threads": stats.ScannedThreads,
		"uptime_seconds":  stats.UptimeSeconds,
		"updated_at":      stats.UpdatedAt,
	})
}
