package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves a minimal OpenAPI description of the API.
// - GET /swagger/index.html  -> small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>arsipku — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

var swaggerJSON = gin.H{
	"openapi": "3.0.0",
	"info": gin.H{
		"title":   "arsipku API",
		"version": "1.0.0",
	},
	"paths": gin.H{
		"/api/auth/login": gin.H{
			"post": gin.H{"summary": "Authenticate and mint a session"},
		},
		"/api/auth/logout": gin.H{
			"post": gin.H{"summary": "Revoke the current session"},
		},
		"/api/auth/me": gin.H{
			"get": gin.H{"summary": "Current user"},
		},
		"/api/documents": gin.H{
			"get":  gin.H{"summary": "Search documents"},
			"post": gin.H{"summary": "Register a document"},
		},
		"/api/documents/{id}": gin.H{
			"get":    gin.H{"summary": "Fetch a document"},
			"put":    gin.H{"summary": "Update a document (optimistic)"},
			"delete": gin.H{"summary": "Delete a document"},
		},
		"/api/documents/{id}/versions": gin.H{
			"get": gin.H{"summary": "List version history"},
		},
		"/api/users": gin.H{
			"get":  gin.H{"summary": "List users"},
			"post": gin.H{"summary": "Create a user"},
		},
		"/api/audit": gin.H{
			"get": gin.H{"summary": "Browse the audit trail"},
		},
		"/api/stats": gin.H{
			"get": gin.H{"summary": "Document totals by type and status"},
		},
		"/api/backups": gin.H{
			"get":  gin.H{"summary": "List backups"},
			"post": gin.H{"summary": "Run a backup"},
		},
	},
}
