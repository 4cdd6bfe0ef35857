package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/backup"
	"github.com/arsipku/arsipku/internal/config"
	"github.com/arsipku/arsipku/internal/counter"
	"github.com/arsipku/arsipku/internal/document"
	"github.com/arsipku/arsipku/pkg/middleware"
)

type noopExecutor struct{}

func (noopExecutor) Dump(ctx context.Context, outDir string) error     { return nil }
func (noopExecutor) Restore(ctx context.Context, dumpDir string) error { return nil }

type testAPI struct {
	router *gin.Engine
	auth   *auth.Service
	docs   *document.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Security: config.SecurityConfig{
			PasswordMinLength:  8,
			RequireUppercase:   true,
			RequireLowercase:   true,
			RequireNumber:      true,
			RequireSpecial:     true,
			LockoutThreshold:   5,
			SessionTTL:         24 * time.Hour,
			MaxSessionsPerUser: 10,
			TOTPIssuer:         "Arsipku",
		},
		Documents: config.DocumentsConfig{PageSize: 50, CounterBase: 1000},
		Backup:    config.BackupConfig{Dir: t.TempDir()},
		JWT:       config.JWTConfig{Secret: "test-secret", AccessTokenTTL: 15 * time.Minute},
	}

	rec := audit.NewMemoryRecorder()
	authSvc := auth.NewService(auth.NewMemoryRepository(), rec, cfg.Security)
	docSvc := document.NewService(document.NewMemoryRepository(), counter.NewMemoryService(cfg.Documents.CounterBase), rec, cfg.Documents)
	backupSvc := backup.NewService(backup.NewMemoryStore(), noopExecutor{}, rec, cfg.Backup, "arsipku")

	r := gin.New()
	api := r.Group("/api")
	NewAuthHandler(cfg, authSvc).Register(api)

	protected := r.Group("/api")
	protected.Use(middleware.SessionAuth(authSvc))
	NewAuthHandler(cfg, authSvc).Protected(protected)
	NewUserHandler(authSvc).Register(protected)
	NewDocumentHandler(docSvc, nil).Register(protected)
	NewAdminHandler(rec, docSvc, backupSvc).Register(protected)

	return &testAPI{router: r, auth: authSvc, docs: docSvc}
}

// mustUser creates a user directly through the service and logs in over HTTP,
// returning the bearer credential.
func (a *testAPI) mustUser(t *testing.T, username string, role auth.Role) string {
	t.Helper()
	ctx := context.Background()
	_, err := a.auth.CreateUser(ctx, username, username+"@x.test", "Str0ng!Pass", "Test "+username, role, "", "system")
	require.NoError(t, err)

	w := a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username,
		"password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Credential string `json:"credential"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Credential)
	return body.Credential
}

func (a *testAPI) do(t *testing.T, method, path, credential string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
