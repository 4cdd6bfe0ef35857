package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/config"
	"github.com/arsipku/arsipku/internal/tokens"
	"github.com/arsipku/arsipku/pkg/middleware"
)

// LoginRequest carries credentials plus the second-factor code when the
// account has one enrolled.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totpCode"`
}

// AuthHandler exposes login, logout and self-service account operations.
type AuthHandler struct {
	cfg *config.Config
	svc *auth.Service
}

func NewAuthHandler(cfg *config.Config, svc *auth.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, svc: svc}
}

// Register mounts the public routes; Protected mounts the ones that require
// an authenticated session.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
}

func (h *AuthHandler) Protected(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/logout", h.Logout)
	a.GET("/me", h.Me)
	a.POST("/password", h.ChangePassword)
	a.POST("/token", h.AccessToken)
	a.POST("/totp/enable", h.EnableTOTP)
	a.POST("/totp/verify", h.VerifyTOTP)
	a.PUT("/preferences", h.UpdatePreferences)
}

// Login authenticates and mints a session. When the account has a second
// factor enrolled the TOTP code is checked before the session is handed out;
// a bad code revokes the session that authentication just created.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.Authenticate(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	if res.User.TOTPEnabled {
		ok, verr := h.svc.VerifyTOTP(c.Request.Context(), res.User.ID, req.TOTPCode)
		if verr != nil || !ok {
			_ = h.svc.Logout(c.Request.Context(), res.User.ID, res.SessionToken)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "second factor required"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"credential": fmt.Sprintf("%s:%s", res.User.ID, res.SessionToken),
		"expiresAt":  res.ExpiresAt,
		"user":       res.User,
	})
}

// Logout revokes the session presented on this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.svc.Logout(c.Request.Context(), u.ID, middleware.SessionToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user's own view.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// ChangePassword requires the current password; every session is revoked on
// success, including this one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := middleware.CurrentUser(c)
	if err := h.svc.ChangePassword(c.Request.Context(), u.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AccessToken mints a short-lived JWT for service-to-service calls on behalf
// of the session holder.
func (h *AuthHandler) AccessToken(c *gin.Context) {
	u := middleware.CurrentUser(c)
	tok, err := tokens.Generate(h.cfg.JWT, u)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": tok, "ttlSeconds": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// EnableTOTP enrolls a second factor and returns the provisioning URI for
// the authenticator app.
func (h *AuthHandler) EnableTOTP(c *gin.Context) {
	u := middleware.CurrentUser(c)
	uri, err := h.svc.EnableTOTP(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provisioningUri": uri})
}

// VerifyTOTP checks a code against the enrolled secret.
func (h *AuthHandler) VerifyTOTP(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := middleware.CurrentUser(c)
	ok, err := h.svc.VerifyTOTP(c.Request.Context(), u.ID, req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": ok})
}

// UpdatePreferences stores the caller's UI preferences.
func (h *AuthHandler) UpdatePreferences(c *gin.Context) {
	var prefs auth.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := middleware.CurrentUser(c)
	if err := h.svc.UpdatePreferences(c.Request.Context(), u.ID, prefs); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
