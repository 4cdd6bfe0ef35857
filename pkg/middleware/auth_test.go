package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/arsipku/arsipku/internal/auth"
)

type fakeVerifier struct {
	users map[string]*auth.Summary // "userID:token" -> summary
}

func (f *fakeVerifier) VerifySession(ctx context.Context, userID, token string) (*auth.Summary, error) {
	return f.users[userID+":"+token], nil
}

func newAuthRouter(ver SessionVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{SessionAuth(ver)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).Username})
	})
	r.GET("/protected", handlers...)
	return r
}

func doGet(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionAuth(t *testing.T) {
	ver := &fakeVerifier{users: map[string]*auth.Summary{
		"u1:tok": {ID: "u1", Username: "alice", Permissions: []auth.Permission{auth.PermDocumentRead}},
	}}
	r := newAuthRouter(ver)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Basic dXNlcg==").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer no-separator").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer u1:wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer u2:tok").Code)

	w := doGet(r, "Bearer u1:tok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestRequirePermission(t *testing.T) {
	ver := &fakeVerifier{users: map[string]*auth.Summary{
		"u1:tok": {ID: "u1", Username: "alice", Permissions: []auth.Permission{auth.PermDocumentRead}},
	}}

	readOnly := newAuthRouter(ver, RequirePermission(auth.PermDocumentRead))
	assert.Equal(t, http.StatusOK, doGet(readOnly, "Bearer u1:tok").Code)

	adminOnly := newAuthRouter(ver, RequirePermission(auth.PermSystemBackup))
	assert.Equal(t, http.StatusForbidden, doGet(adminOnly, "Bearer u1:tok").Code)
}
