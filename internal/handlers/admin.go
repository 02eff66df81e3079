package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"useraccounts/internal/models"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, newUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   items,
	})
}

type updateRoleRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

func (h HandlerSet) UpdateRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.users.UpdateRole(c.Request.Context(), req.Email, models.UserRole(req.Role))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    newUserResponse(user),
	})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "user deleted successfully",
	})
}
