package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryRecorder_RecordAndList(t *testing.T) {
	r := NewMemoryRecorder()
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, Entry{Action: ActionDocCreated, UserID: "u1", SubjectID: "d1"}))
	require.NoError(t, r.Record(ctx, Entry{Action: ActionDocUpdated, UserID: "u1", SubjectID: "d1"}))
	require.NoError(t, r.Record(ctx, Entry{Action: ActionUserLogin, UserID: "u2"}))

	all, err := r.List(ctx, Filter{}, 0, 50)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	require.Equal(t, ActionUserLogin, all[0].Action)
	require.False(t, all[0].Timestamp.IsZero())

	byUser, err := r.List(ctx, Filter{UserID: "u1"}, 0, 50)
	require.NoError(t, err)
	require.Len(t, byUser, 2)

	bySubject, err := r.List(ctx, Filter{SubjectID: "d1", Action: ActionDocCreated}, 0, 50)
	require.NoError(t, err)
	require.Len(t, bySubject, 1)
}

func TestMemoryRecorder_Pagination(t *testing.T) {
	r := NewMemoryRecorder()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(ctx, Entry{Action: ActionDocCreated, UserID: "u1"}))
	}

	page, err := r.List(ctx, Filter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	tail, err := r.List(ctx, Filter{}, 4, 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)

	empty, err := r.List(ctx, Filter{}, 10, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}
