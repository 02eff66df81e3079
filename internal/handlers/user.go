package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"useraccounts/internal/apperror"
	"useraccounts/internal/media/sniffer"
	"useraccounts/internal/middleware"
	"useraccounts/internal/service"
)

func (h HandlerSet) Me(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		h.fail(c, apperror.Unauthorized("please login to access this resource"))
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), current.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    newUserResponse(user),
	})
}

type updateInfoRequest struct {
	Name string `json:"name"`
}

func (h HandlerSet) UpdateInfo(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	var req updateInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.users.UpdateName(c.Request.Context(), current.ID, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    newUserResponse(user),
	})
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h HandlerSet) UpdatePassword(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.users.UpdatePassword(c.Request.Context(), current.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    newUserResponse(user),
	})
}

func (h HandlerSet) UpdateAvatar(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	if !h.avatars.Enabled() {
		h.fail(c, service.ErrStorageDisabled)
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		h.fail(c, apperror.Wrap(err, http.StatusBadRequest, "please upload an avatar"))
		return
	}
	defer file.Close()

	user, err := h.avatars.Replace(c.Request.Context(), service.AvatarInput{
		UserID:       current.ID,
		File:         file,
		DeclaredType: sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    newUserResponse(user),
	})
}
