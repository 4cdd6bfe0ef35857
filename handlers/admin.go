package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/backup"
	"github.com/arsipku/arsipku/internal/document"
	"github.com/arsipku/arsipku/pkg/middleware"
)

// AdminHandler exposes the audit trail, statistics and backup operations.
type AdminHandler struct {
	rec     audit.Recorder
	docs    *document.Service
	backups *backup.Service
}

func NewAdminHandler(rec audit.Recorder, docs *document.Service, backups *backup.Service) *AdminHandler {
	return &AdminHandler{rec: rec, docs: docs, backups: backups}
}

func (h *AdminHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/audit", middleware.RequirePermission(auth.PermSystemAudit), h.ListAudit)
	rg.GET("/stats", middleware.RequirePermission(auth.PermSystemAudit), h.Stats)

	b := rg.Group("/backups")
	b.POST("", middleware.RequirePermission(auth.PermSystemBackup), h.CreateBackup)
	b.GET("", middleware.RequirePermission(auth.PermSystemBackup), h.ListBackups)
	b.POST("/:name/restore", middleware.RequirePermission(auth.PermSystemRestore), h.RestoreBackup)
}

// ListAudit pages through the audit trail, newest first.
func (h *AdminHandler) ListAudit(c *gin.Context) {
	f := audit.Filter{
		Action:    c.Query("action"),
		UserID:    c.Query("userId"),
		SubjectID: c.Query("subjectId"),
	}
	skip, _ := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	entries, err := h.rec.List(c.Request.Context(), f, skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// Stats reports document totals plus per-type and per-status counts.
func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.docs.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) CreateBackup(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	r, err := h.backups.Create(c.Request.Context(), actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *AdminHandler) ListBackups(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "30"), 10, 64)
	records, err := h.backups.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

func (h *AdminHandler) RestoreBackup(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if err := h.backups.Restore(c.Request.Context(), actor.ID, c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
