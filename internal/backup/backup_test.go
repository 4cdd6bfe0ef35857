package backup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsipku/arsipku/internal/apperr"
	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/config"
)

type fakeExecutor struct {
	dumpErr    error
	restoreErr error
	dumped     []string
	restored   []string
}

func (f *fakeExecutor) Dump(ctx context.Context, outDir string) error {
	f.dumped = append(f.dumped, outDir)
	return f.dumpErr
}

func (f *fakeExecutor) Restore(ctx context.Context, dumpDir string) error {
	f.restored = append(f.restored, dumpDir)
	return f.restoreErr
}

func newTestService(exec *fakeExecutor) (*Service, *MemoryStore, *audit.MemoryRecorder) {
	store := NewMemoryStore()
	rec := audit.NewMemoryRecorder()
	svc := NewService(store, exec, rec, config.BackupConfig{Dir: "backups"}, "arsipku")
	return svc, store, rec
}

func TestCreate_Success(t *testing.T) {
	exec := &fakeExecutor{}
	svc, store, rec := newTestService(exec)
	ctx := context.Background()

	r, err := svc.Create(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, r.Status)
	assert.Equal(t, "arsipku", r.Database)
	require.Len(t, exec.dumped, 1)
	assert.Equal(t, r.Path, exec.dumped[0])

	stored, err := store.Get(ctx, r.Name)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, stored.Status)

	entries, err := rec.List(ctx, audit.Filter{Action: audit.ActionBackupCreated}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreate_FailureRecorded(t *testing.T) {
	exec := &fakeExecutor{dumpErr: errors.New("mongodump exploded")}
	svc, store, _ := newTestService(exec)
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin")
	require.Error(t, err)

	records, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, StatusFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "exploded")
}

func TestRestore(t *testing.T) {
	exec := &fakeExecutor{}
	svc, _, rec := newTestService(exec)
	ctx := context.Background()

	r, err := svc.Create(ctx, "admin")
	require.NoError(t, err)

	require.NoError(t, svc.Restore(ctx, "admin", r.Name))
	require.Len(t, exec.restored, 1)
	assert.Equal(t, r.Path, exec.restored[0])

	entries, err := rec.List(ctx, audit.Filter{Action: audit.ActionBackupRestored}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRestore_RejectsMissingOrFailed(t *testing.T) {
	exec := &fakeExecutor{dumpErr: errors.New("boom")}
	svc, _, _ := newTestService(exec)
	ctx := context.Background()

	assert.True(t, apperr.IsNotFound(svc.Restore(ctx, "admin", "nope")))

	svc.Create(ctx, "admin")
	records, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, apperr.IsConflict(svc.Restore(ctx, "admin", records[0].Name)))
	assert.Empty(t, exec.restored)
}
