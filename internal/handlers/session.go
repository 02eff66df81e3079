package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"useraccounts/internal/middleware"
	"useraccounts/internal/models"
)

type avatarResponse struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type userResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Avatar    *avatarResponse `json:"avatar,omitempty"`
	Role      string          `json:"role"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func newUserResponse(user models.User) userResponse {
	resp := userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if user.Avatar != nil {
		resp.Avatar = &avatarResponse{PublicID: user.Avatar.PublicID, URL: user.Avatar.URL}
	}
	return resp
}

// sendToken issues both tokens as cookies and writes the session body.
func (h HandlerSet) sendToken(c *gin.Context, user models.User, status int) {
	accessToken, err := h.tokens.SignAccessToken(user)
	if err != nil {
		h.fail(c, err)
		return
	}
	refreshToken, err := h.tokens.SignRefreshToken(user)
	if err != nil {
		h.fail(c, err)
		return
	}

	now := time.Now()
	h.setCookie(c, middleware.AccessTokenCookie, accessToken, h.tokens.AccessTTL(), now)
	h.setCookie(c, middleware.RefreshTokenCookie, refreshToken, h.tokens.RefreshTTL(), now)

	c.JSON(status, gin.H{
		"success":     true,
		"user":        newUserResponse(user),
		"accessToken": accessToken,
	})
}

func (h HandlerSet) clearSession(c *gin.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   h.cfg.IsProduction(),
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (h HandlerSet) setCookie(c *gin.Context, name, value string, ttl time.Duration, now time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  now.Add(ttl),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
