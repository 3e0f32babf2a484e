package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"forumwatch/internal/model"
	"forumwatch/internal/service"
)

type TargetHandler struct {
	targets *service.TargetService
}

func NewTargetHandler(targets *service.TargetService) *TargetHandler {
	return &TargetHandler{targets: targets}
}

type targetRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Value    string `json:"value" binding:"required"`
	OwnerID  string `json:"owner_id" binding:"required"`
	Category string `json:"category" binding:"required"`
}

func (r targetRequest) validate() error {
	return validateKindCategory(r.Kind, r.Category)
}

type targetDeleteRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Value    string `json:"value" binding:"required"`
	OwnerID  string `json:"owner_id"`
	Category string `json:"category" binding:"required"`
}

func validateKindCategory(kind, category string) error {
	if kind != string(model.KindPlayerID) && kind != string(model.KindAdminName) {
		return errors.New("kind must be player or admin")
	}
	if category != string(model.CategoryDE) && category != string(model.CategoryPL) {
		return errors.New("category must be de or pl")
	}
	return nil
}

// Create handles POST /api/targets
func (h *TargetHandler) Create(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := h.targets.Register(c.Request.Context(),
		model.TargetKind(req.Kind), req.Value, req.OwnerID, model.Category(req.Category))
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRegistered) {
			c.JSON(http.StatusConflict, gin.H{"error": "target already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register target"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"target": target})
}

// Delete handles DELETE /api/targets. Omitting owner_id removes the
// value for every owner.
func (h *TargetHandler) Delete(c *gin.Context) {
	var req targetDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateKindCategory(req.Kind, req.Category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.targets.Unregister(c.Request.Context(),
		model.TargetKind(req.Kind), req.Value, req.OwnerID, model.Category(req.Category))
	if err != nil {
		if errors.Is(err, service.ErrTargetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "target not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove target"})
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /api/targets
func (h *TargetHandler) List(c *gin.Context) {
	targets, err := h.targets.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list targets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

// ListForUser handles GET /api/users/:id/targets
func (h *TargetHandler) ListForUser(c *gin.Context) {
	targets, err := h.targets.UserWatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list targets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}
