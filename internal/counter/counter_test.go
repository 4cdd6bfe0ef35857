package counter

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryService_SequentialFromBase(t *testing.T) {
	svc := NewMemoryService(1000)
	ctx := context.Background()

	v1, err := svc.Next(ctx, SeqDocumentNumber)
	require.NoError(t, err)
	require.Equal(t, int64(1001), v1)

	v2, err := svc.Next(ctx, SeqDocumentNumber)
	require.NoError(t, err)
	require.Equal(t, int64(1002), v2)

	// independent sequence starts fresh
	o1, err := svc.Next(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, int64(1001), o1)
}

func TestMemoryService_ConcurrentNoDuplicatesNoGaps(t *testing.T) {
	svc := NewMemoryService(0)
	ctx := context.Background()

	const n = 200
	results := make([]int64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := svc.Next(ctx, SeqDocumentNumber)
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i := 0; i < n; i++ {
		require.Equal(t, int64(i+1), results[i], "expected gap-free sequence")
	}
}
