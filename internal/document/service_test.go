package document

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsipku/arsipku/internal/apperr"
	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/config"
	"github.com/arsipku/arsipku/internal/counter"
)

func newTestService() (*Service, *audit.MemoryRecorder) {
	rec := audit.NewMemoryRecorder()
	seq := counter.NewMemoryService(1000)
	svc := NewService(NewMemoryRepository(), seq, rec, config.DocumentsConfig{PageSize: 50, CounterBase: 1000})
	return svc, rec
}

func incomingLetter(subject string) Fields {
	return Fields{
		DocType:      TypeIncoming,
		LetterNumber: "001/SM/2026",
		Subject:      subject,
		Origin:       "Dinas Pendidikan",
	}
}

func TestCreate_AssignsSequentialNumbers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, "u1", incomingLetter("Laporan bulanan"))
	require.NoError(t, err)

	assert.Equal(t, int64(1001), first.DocumentNumber)
	assert.Equal(t, int64(1002), second.DocumentNumber)
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, StatusDraft, first.Status)
	assert.Equal(t, "u1", first.CreatedBy)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", Fields{DocType: "Fax", Subject: "x"})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Create(ctx, "u1", Fields{DocType: TypeIncoming, Subject: "  "})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Create(ctx, "u1", Fields{DocType: TypeMemo, Subject: "ok", Status: "bogus"})
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdate_BumpsVersionAndSnapshots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)

	f := d.Fields
	f.Status = StatusRegistered
	updated, err := svc.Update(ctx, "u2", d.ID, d.Version, f)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "u2", updated.UpdatedBy)
	assert.Equal(t, StatusRegistered, updated.Status)

	versions, err := svc.ListVersions(ctx, d.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, int64(1), versions[0].Document.Version)
	assert.Equal(t, StatusDraft, versions[0].Document.Status)
}

func TestUpdate_StaleVersionConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)

	f := d.Fields
	f.Subject = "first writer"
	_, err = svc.Update(ctx, "u1", d.ID, d.Version, f)
	require.NoError(t, err)

	f.Subject = "stale writer"
	_, err = svc.Update(ctx, "u2", d.ID, d.Version, f)
	assert.True(t, apperr.IsConflict(err))
}

func TestUpdate_ConcurrentWritersOneWinner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := d.Fields
			f.Notes = "writer"
			_, errs[i] = svc.Update(ctx, "u1", d.ID, d.Version, f)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, apperr.IsConflict(err))
		}
	}
	assert.Equal(t, 1, wins)

	final, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Version+1, final.Version)
}

func TestUpdate_UnknownAndDeleted(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Update(ctx, "u1", "missing", 1, incomingLetter("x"))
	assert.True(t, apperr.IsNotFound(err))

	d, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "u1", d.ID, false))

	_, err = svc.Update(ctx, "u1", d.ID, d.Version, d.Fields)
	assert.True(t, apperr.IsValidation(err))
}

func TestDelete_SoftHidesFromSearchButKeepsRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "u1", d.ID, false))

	res, err := svc.Search(ctx, Filter{}, "", 0, 0, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)

	res, err = svc.Search(ctx, Filter{IncludeDeleted: true}, "", 0, 0, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, "u1", got.DeletedBy)
}

func TestDelete_HardRemovesRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "admin", d.ID, true))

	_, err = svc.Get(ctx, d.ID)
	assert.True(t, apperr.IsNotFound(err))

	err = svc.Delete(ctx, "admin", d.ID, true)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSearch_FiltersAndText(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", Fields{DocType: TypeIncoming, Subject: "Undangan rapat koordinasi", Origin: "Kecamatan"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", Fields{DocType: TypeOutgoing, Subject: "Balasan surat dinas", Destination: "Provinsi"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", Fields{DocType: TypeIncoming, Subject: "Laporan keuangan", Status: StatusApproved})
	require.NoError(t, err)

	res, err := svc.Search(ctx, Filter{DocType: TypeIncoming}, "", 0, 0, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	res, err = svc.Search(ctx, Filter{Status: StatusApproved}, "", 0, 0, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	res, err = svc.Search(ctx, Filter{}, "rapat", 0, 0, "", false)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	assert.Contains(t, res.Items[0].Subject, "rapat")
}

func TestSearch_Pagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, "u1", incomingLetter("Surat"))
		require.NoError(t, err)
	}

	res, err := svc.Search(ctx, Filter{}, "", 0, 2, "documentNumber", true)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(1001), res.Items[0].DocumentNumber)

	res, err = svc.Search(ctx, Filter{}, "", 4, 2, "documentNumber", true)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(1005), res.Items[0].DocumentNumber)
}

func TestMutationsAreAudited(t *testing.T) {
	svc, rec := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, "u1", d.ID, d.Version, d.Fields)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "u1", d.ID, false))

	for _, action := range []string{audit.ActionDocCreated, audit.ActionDocUpdated, audit.ActionDocDeleted} {
		entries, err := rec.List(ctx, audit.Filter{Action: action, SubjectID: d.ID}, 0, 10)
		require.NoError(t, err)
		assert.Len(t, entries, 1, action)
	}
}

// failingRecorder rejects every write; the trail sink being down must never
// fail the mutation it describes.
type failingRecorder struct{}

func (failingRecorder) Record(ctx context.Context, e audit.Entry) error {
	return errors.New("audit sink unavailable")
}

func (failingRecorder) List(ctx context.Context, f audit.Filter, skip, limit int64) ([]audit.Entry, error) {
	return nil, errors.New("audit sink unavailable")
}

func TestAuditFailureDoesNotRollBackMutation(t *testing.T) {
	seq := counter.NewMemoryService(1000)
	svc := NewService(NewMemoryRepository(), seq, failingRecorder{}, config.DocumentsConfig{PageSize: 50, CounterBase: 1000})
	ctx := context.Background()

	d, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "u1", d.ID, d.Version, d.Fields)
	require.NoError(t, err)
	assert.Equal(t, d.Version+1, updated.Version)

	require.NoError(t, svc.Delete(ctx, "u1", d.ID, false))
	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
}

func TestStats(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "u1", incomingLetter("Undangan rapat"))
		require.NoError(t, err)
	}
	memo := Fields{DocType: TypeMemo, Subject: "Nota dinas", Status: StatusRegistered}
	d, err := svc.Create(ctx, "u1", memo)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "u1", d.ID, false))

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Total)
	assert.Equal(t, int64(1), st.Deleted)
	// largest group first
	require.Len(t, st.ByType, 2)
	assert.Equal(t, Bucket{Value: TypeIncoming, Count: 3}, st.ByType[0])
	assert.Equal(t, Bucket{Value: TypeMemo, Count: 1}, st.ByType[1])
	require.Len(t, st.ByStatus, 2)
	assert.Equal(t, Bucket{Value: StatusDraft, Count: 3}, st.ByStatus[0])
	assert.Equal(t, Bucket{Value: StatusRegistered, Count: 1}, st.ByStatus[1])
}
