package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/document"
)

func createLetter(t *testing.T, api *testAPI, cred, subject string) document.Document {
	t.Helper()
	w := api.do(t, http.MethodPost, "/api/documents", cred, gin.H{
		"docType": document.TypeIncoming,
		"subject": subject,
		"origin":  "Dinas Pendidikan",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var d document.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	return d
}

func TestDocumentLifecycle(t *testing.T) {
	api := newTestAPI(t)
	cred := api.mustUser(t, "alice", auth.RoleStandard)

	d := createLetter(t, api, cred, "Undangan rapat")
	assert.Equal(t, int64(1001), d.DocumentNumber)
	assert.Equal(t, int64(1), d.Version)

	w := api.do(t, http.MethodPut, "/api/documents/"+d.ID, cred, gin.H{
		"version": d.Version,
		"fields": gin.H{
			"docType": d.DocType,
			"subject": "Undangan rapat (revisi)",
			"status":  document.StatusRegistered,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated document.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, int64(2), updated.Version)

	w = api.do(t, http.MethodGet, "/api/documents/"+d.ID+"/versions", cred, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		Items []document.VersionSnapshot `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.Len(t, hist.Items, 1)
	assert.Equal(t, int64(1), hist.Items[0].Document.Version)
}

func TestDocumentUpdate_StaleVersionIs409(t *testing.T) {
	api := newTestAPI(t)
	cred := api.mustUser(t, "alice", auth.RoleStandard)

	d := createLetter(t, api, cred, "Undangan rapat")

	body := gin.H{
		"version": d.Version,
		"fields":  gin.H{"docType": d.DocType, "subject": "first"},
	}
	w := api.do(t, http.MethodPut, "/api/documents/"+d.ID, cred, body)
	require.Equal(t, http.StatusOK, w.Code)

	body["fields"] = gin.H{"docType": d.DocType, "subject": "second, stale"}
	w = api.do(t, http.MethodPut, "/api/documents/"+d.ID, cred, body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDocumentDelete_SoftByDefault(t *testing.T) {
	api := newTestAPI(t)
	cred := api.mustUser(t, "alice", auth.RoleStandard)

	d := createLetter(t, api, cred, "Undangan rapat")

	w := api.do(t, http.MethodDelete, "/api/documents/"+d.ID, cred, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// still readable by id, hidden from search
	w = api.do(t, http.MethodGet, "/api/documents/"+d.ID, cred, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/documents", cred, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res document.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, int64(0), res.Total)
}

func TestDocumentHardDelete_NeedsSystemConfig(t *testing.T) {
	api := newTestAPI(t)
	userCred := api.mustUser(t, "alice", auth.RoleStandard)
	adminCred := api.mustUser(t, "root", auth.RoleAdmin)

	d := createLetter(t, api, userCred, "Undangan rapat")

	w := api.do(t, http.MethodDelete, "/api/documents/"+d.ID+"?hard=true", userCred, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodDelete, "/api/documents/"+d.ID+"?hard=true", adminCred, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, "/api/documents/"+d.ID, adminCred, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentPermissions(t *testing.T) {
	api := newTestAPI(t)
	viewerCred := api.mustUser(t, "viewer", auth.RoleViewer)

	// viewers read but never write
	w := api.do(t, http.MethodPost, "/api/documents", viewerCred, gin.H{
		"docType": document.TypeIncoming,
		"subject": "nope",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/api/documents", viewerCred, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearch_TextAndFilters(t *testing.T) {
	api := newTestAPI(t)
	cred := api.mustUser(t, "alice", auth.RoleStandard)

	createLetter(t, api, cred, "Undangan rapat koordinasi")
	createLetter(t, api, cred, "Laporan keuangan")

	w := api.do(t, http.MethodGet, "/api/documents?q=rapat", cred, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res document.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, int64(1), res.Total)
	assert.Contains(t, res.Items[0].Subject, "rapat")
}

func TestUserManagement_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	adminCred := api.mustUser(t, "root", auth.RoleAdmin)
	userCred := api.mustUser(t, "alice", auth.RoleStandard)

	w := api.do(t, http.MethodPost, "/api/users", userCred, gin.H{
		"username": "bob", "email": "bob@x.test", "password": "Str0ng!Pass",
		"fullName": "Bob", "role": string(auth.RoleViewer),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/users", adminCred, gin.H{
		"username": "bob", "email": "bob@x.test", "password": "Str0ng!Pass",
		"fullName": "Bob", "role": string(auth.RoleViewer),
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodGet, "/api/users", adminCred, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditEndpoint_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	adminCred := api.mustUser(t, "root", auth.RoleAdmin)
	userCred := api.mustUser(t, "alice", auth.RoleStandard)

	w := api.do(t, http.MethodGet, "/api/audit", userCred, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/api/audit?action=user_login", adminCred, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user_login")
}

func TestBackupEndpoints(t *testing.T) {
	api := newTestAPI(t)
	adminCred := api.mustUser(t, "root", auth.RoleAdmin)

	w := api.do(t, http.MethodPost, "/api/backups", adminCred, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var rec struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))

	w = api.do(t, http.MethodPost, "/api/backups/"+rec.Name+"/restore", adminCred, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodPost, "/api/backups/backup_19990101_000000/restore", adminCred, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/backups", adminCred, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatsEndpoint_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	adminCred := api.mustUser(t, "root", auth.RoleAdmin)
	userCred := api.mustUser(t, "alice", auth.RoleStandard)

	ctx := context.Background()
	_, err := api.docs.Create(ctx, "root", document.Fields{DocType: document.TypeIncoming, Subject: "Undangan rapat"})
	require.NoError(t, err)
	_, err = api.docs.Create(ctx, "root", document.Fields{DocType: document.TypeMemo, Subject: "Nota dinas", Status: document.StatusRegistered})
	require.NoError(t, err)

	w := api.do(t, http.MethodGet, "/api/stats", userCred, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/api/stats", adminCred, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st document.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, int64(2), st.Total)
	assert.Len(t, st.ByType, 2)
	assert.Len(t, st.ByStatus, 2)
}
