package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/hamed0406/pgpinger/internal/domain"
	"github.com/hamed0406/pgpinger/internal/repo/memory"
)

type recorder struct {
	got []domain.ProbeResult
	err error
}

func (r *recorder) Report(_ context.Context, res domain.ProbeResult) error {
	r.got = append(r.got, res)
	return r.err
}

func TestMulti_ContinuesAfterError(t *testing.T) {
	first := &recorder{err: errors.New("disk full")}
	second := &recorder{}
	third := &recorder{err: errors.New("webhook down")}

	res := domain.Success("PostgreSQL 16.1", 3*time.Millisecond)
	err := Multi{first, nil, second, third}.Report(context.Background(), res)

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "webhook down")
	for _, r := range []*recorder{first, second, third} {
		assert.Len(t, r.got, 1)
	}
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.Report(context.Background(), domain.Failure(domain.KindOther, "x")))
}

func TestPersist_AppendsToStore(t *testing.T) {
	store := memory.New(4)
	p := Persist{Store: store}

	r := domain.Failure(domain.KindAuthFailure, "password authentication failed")
	r.Tick = 7
	require.NoError(t, p.Report(context.Background(), r))

	got, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Tick)
	assert.Equal(t, 1, store.Status().ConsecutiveFailures)
}
