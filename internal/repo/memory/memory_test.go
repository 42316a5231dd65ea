package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/pgpinger/internal/domain"
)

func appendTicks(t *testing.T, s *Store, results ...domain.ProbeResult) {
	t.Helper()
	for i := range results {
		results[i].Tick = int64(i)
		require.NoError(t, s.Append(context.Background(), &results[i]))
	}
}

func TestMemoryStore_EmptyStatus(t *testing.T) {
	s := New(4)
	st := s.Status()
	assert.Nil(t, st.Last)
	assert.Zero(t, st.ConsecutiveFailures)

	recent, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestMemoryStore_RecentNewestFirstAndWraps(t *testing.T) {
	s := New(3)
	ok := domain.Success("PostgreSQL 16.1", time.Millisecond)
	appendTicks(t, s, ok, ok, ok, ok, ok)

	recent, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []int64{4, 3, 2}, []int64{recent[0].Tick, recent[1].Tick, recent[2].Tick})

	two, err := s.Recent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
	assert.Equal(t, int64(4), two[0].Tick)
}

func TestMemoryStore_ConsecutiveFailures(t *testing.T) {
	s := New(8)
	fail := domain.Failure(domain.KindConnectionRefused, "refused")
	ok := domain.Success("PostgreSQL 16.1", time.Millisecond)

	appendTicks(t, s, fail, fail, fail)
	assert.Equal(t, 3, s.Status().ConsecutiveFailures)

	require.NoError(t, s.Append(context.Background(), &ok))
	st := s.Status()
	assert.Zero(t, st.ConsecutiveFailures)
	require.NotNil(t, st.Last)
	assert.True(t, st.Last.OK())
}
