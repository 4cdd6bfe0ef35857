package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/document"
	"github.com/arsipku/arsipku/internal/storage"
	"github.com/arsipku/arsipku/pkg/middleware"
)

// DocumentHandler exposes the correspondence record routes. The attachment
// store may be nil when no object store is configured; attachment routes
// then answer 503.
type DocumentHandler struct {
	svc   *document.Service
	store *storage.AttachmentStore
}

func NewDocumentHandler(svc *document.Service, store *storage.AttachmentStore) *DocumentHandler {
	return &DocumentHandler{svc: svc, store: store}
}

func (h *DocumentHandler) Register(rg *gin.RouterGroup) {
	d := rg.Group("/documents")
	d.POST("", middleware.RequirePermission(auth.PermDocumentCreate), h.Create)
	d.GET("", middleware.RequirePermission(auth.PermDocumentRead), h.Search)
	d.GET("/:id", middleware.RequirePermission(auth.PermDocumentRead), h.Get)
	d.PUT("/:id", middleware.RequirePermission(auth.PermDocumentUpdate), h.Update)
	d.DELETE("/:id", middleware.RequirePermission(auth.PermDocumentDelete), h.Delete)
	d.GET("/:id/versions", middleware.RequirePermission(auth.PermDocumentRead), h.ListVersions)
	d.POST("/:id/attachment", middleware.RequirePermission(auth.PermDocumentUpdate), h.UploadAttachment)
	d.GET("/:id/attachment", middleware.RequirePermission(auth.PermDocumentRead), h.AttachmentURL)
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var f document.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.CurrentUser(c)
	d, err := h.svc.Create(c.Request.Context(), actor.ID, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// UpdateRequest carries the new field values plus the version the client
// read. A stale version is answered with 409 and the client must refetch.
type UpdateRequest struct {
	Version int64           `json:"version" binding:"required"`
	Fields  document.Fields `json:"fields" binding:"required"`
}

func (h *DocumentHandler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.CurrentUser(c)
	d, err := h.svc.Update(c.Request.Context(), actor.ID, c.Param("id"), req.Version, req.Fields)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	hard := c.Query("hard") == "true"
	actor := middleware.CurrentUser(c)
	if hard && !actor.HasPermission(auth.PermSystemConfig) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor.ID, c.Param("id"), hard); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) Search(c *gin.Context) {
	f := document.Filter{
		DocType:        c.Query("docType"),
		Status:         c.Query("status"),
		Classification: c.Query("classification"),
		IncludeDeleted: c.Query("includeDeleted") == "true",
	}
	skip, _ := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	sortAsc := c.Query("order") == "asc"

	res, err := h.svc.Search(c.Request.Context(), f, c.Query("q"), skip, limit, c.Query("sort"), sortAsc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *DocumentHandler) ListVersions(c *gin.Context) {
	skip, _ := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	versions, err := h.svc.ListVersions(c.Request.Context(), c.Param("id"), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": versions})
}

// UploadAttachment stores the uploaded file and records its key on the
// document through a normal versioned update, so a concurrent edit still
// surfaces as 409.
func (h *DocumentHandler) UploadAttachment(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage not configured"})
		return
	}
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field missing"})
		return
	}
	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer src.Close()

	key := fmt.Sprintf("attachments/%s/%s", d.ID, filepath.Base(fh.Filename))
	contentType := fh.Header.Get("Content-Type")
	if err := h.store.Put(c.Request.Context(), key, src, fh.Size, contentType); err != nil {
		writeError(c, err)
		return
	}

	actor := middleware.CurrentUser(c)
	f := d.Fields
	f.AttachmentKey = key
	updated, err := h.svc.Update(c.Request.Context(), actor.ID, d.ID, d.Version, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AttachmentURL hands out a time-limited download link.
func (h *DocumentHandler) AttachmentURL(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage not configured"})
		return
	}
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if d.AttachmentKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "document has no attachment"})
		return
	}
	url, err := h.store.PresignedURL(c.Request.Context(), d.AttachmentKey, 15*time.Minute)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
