package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"forumwatch/internal/model"
	"forumwatch/internal/service"
)

type RequestHandler struct {
	workflow *service.RequestWorkflow
}

func NewRequestHandler(workflow *service.RequestWorkflow) *RequestHandler {
	return &RequestHandler{workflow: workflow}
}

// Submit handles POST /api/requests
func (h *RequestHandler) Submit(c *gin.Context) {
	var req struct {
		Kind        string `json:"kind" binding:"required"`
		Value       string `json:"value" binding:"required"`
		RequesterID string `json:"requester_id" binding:"required"`
		Category    string `json:"category" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (req.Kind != string(model.KindPlayerID) && req.Kind != string(model.KindAdminName)) ||
		(req.Category != string(model.CategoryDE) && req.Category != string(model.CategoryPL)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind or category"})
		return
	}

	request, err := h.workflow.Submit(c.Request.Context(),
		model.TargetKind(req.Kind), req.Value, req.RequesterID, model.Category(req.Category))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWatchedByAnother):
			c.JSON(http.StatusConflict, gin.H{"error": "target already registered by another user"})
		case errors.Is(err, service.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "target already registered"})
		case errors.Is(err, service.ErrDuplicateRequest):
			c.JSON(http.StatusConflict, gin.H{"error": "request already pending"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit request"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// Pending handles GET /api/requests/pending
func (h *RequestHandler) Pending(c *gin.Context) {
	requests, err := h.workflow.Pending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Approve handles POST /api/requests/:id/approve
func (h *RequestHandler) Approve(c *gin.Context) {
	resolvedBy := resolverOf(c)

	request, err := h.workflow.Approve(c.Request.Context(), c.Param("id"), resolvedBy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		case errors.Is(err, service.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "request already resolved"})
		case errors.Is(err, service.ErrAlreadyOwned):
			c.JSON(http.StatusConflict, gin.H{"error": "target already owned, request denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// Deny handles POST /api/requests/:id/deny
func (h *RequestHandler) Deny(c *gin.Context) {
	resolvedBy := resolverOf(c)

	request, err := h.workflow.Deny(c.Request.Context(), c.Param("id"), resolvedBy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		case errors.Is(err, service.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "request already resolved"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deny request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// resolverOf prefers an explicit resolved_by from the body, falling back
// to the token subject.
func resolverOf(c *gin.Context) string {
	var body struct {
		ResolvedBy string `json:"resolved_by"`
	}
	if err := c.ShouldBindJSON(&body); err == nil && body.ResolvedBy != "" {
		return body.ResolvedBy
	}
	if subject, ok := c.Get("subject"); ok {
		return subject.(string)
	}
	return "admin"
}
