package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/pkg/middleware"
)

// UserHandler exposes the administrative user-management routes.
type UserHandler struct {
	svc *auth.Service
}

func NewUserHandler(svc *auth.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Register(rg *gin.RouterGroup) {
	u := rg.Group("/users")
	u.POST("", middleware.RequirePermission(auth.PermUserCreate), h.Create)
	u.GET("", middleware.RequirePermission(auth.PermUserRead), h.List)
	u.GET("/:id", middleware.RequirePermission(auth.PermUserRead), h.Get)
	u.PUT("/:id/role", middleware.RequirePermission(auth.PermUserUpdate), h.ChangeRole)
	u.POST("/:id/permissions", middleware.RequirePermission(auth.PermUserUpdate), h.GrantPermission)
	u.POST("/:id/password-reset", middleware.RequirePermission(auth.PermUserUpdate), h.ResetPassword)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Username   string `json:"username" binding:"required"`
		Email      string `json:"email" binding:"required"`
		Password   string `json:"password" binding:"required"`
		FullName   string `json:"fullName" binding:"required"`
		Role       string `json:"role" binding:"required"`
		Department string `json:"department"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.CurrentUser(c)
	id, err := h.svc.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password, req.FullName, auth.Role(req.Role), req.Department, actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *UserHandler) List(c *gin.Context) {
	skip, _ := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	users, err := h.svc.ListUsers(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users})
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ChangeRole reassigns the role; the permission set is rebuilt from the role
// table, dropping any individually granted exceptions.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.CurrentUser(c)
	if err := h.svc.ChangeRole(c.Request.Context(), actor.ID, c.Param("id"), auth.Role(req.Role)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GrantPermission adds a single permission on top of the role's set.
func (h *UserHandler) GrantPermission(c *gin.Context) {
	var req struct {
		Permission string `json:"permission" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.CurrentUser(c)
	if err := h.svc.GrantPermission(c.Request.Context(), actor.ID, c.Param("id"), auth.Permission(req.Permission)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetPassword sets a new password without knowing the old one and forces a
// change on next login.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req struct {
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.CurrentUser(c)
	if err := h.svc.ResetPassword(c.Request.Context(), actor.ID, c.Param("id"), req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
