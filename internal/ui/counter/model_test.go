package counter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/testutil"
	"github.com/nhle/studyhub-notify/internal/view"
)

func syncOnce(t *testing.T, m Model) Model {
	t.Helper()
	cmd := m.Sync()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func TestPlaceholderBeforeFirstSync(t *testing.T) {
	m := New(context.Background(), &testutil.FakeService{})
	assert.Equal(t, view.CounterPlaceholder, m.Notifications())
	assert.Equal(t, view.CounterPlaceholder, m.Messages())
}

func TestSyncWritesVerbatim(t *testing.T) {
	svc := &testutil.FakeService{Counts: model.Counts{Notifications: 3, Messages: 7, Total: 10}}
	m := syncOnce(t, New(context.Background(), svc))

	assert.Equal(t, "3", m.Notifications())
	assert.Equal(t, "7", m.Messages())
	assert.Contains(t, m.View(), "Notifications 3")
	assert.Contains(t, m.View(), "Messages 7")
	assert.False(t, m.Syncing())
}

func TestFailureKeepsPreviousValues(t *testing.T) {
	svc := &testutil.FakeService{Counts: model.Counts{Notifications: 3, Messages: 7}}
	m := syncOnce(t, New(context.Background(), svc))

	svc.FailCounts(errors.New("offline"))
	m = syncOnce(t, m)
	assert.Equal(t, "3", m.Notifications())
	assert.Equal(t, "7", m.Messages())

	svc.SetCounts(model.Counts{Notifications: 0, Messages: 12})
	m = syncOnce(t, m)
	assert.Equal(t, "0", m.Notifications())
	assert.Equal(t, "12", m.Messages())
}

func TestFailureBeforeFirstSuccessKeepsPlaceholder(t *testing.T) {
	svc := &testutil.FakeService{CountsErr: errors.New("500")}
	m := syncOnce(t, New(context.Background(), svc))
	assert.Equal(t, view.CounterPlaceholder, m.Notifications())
	assert.Equal(t, view.CounterPlaceholder, m.Messages())
}

func TestSyncCoalesces(t *testing.T) {
	svc := &testutil.FakeService{}
	m := New(context.Background(), svc)

	require.NotNil(t, m.Sync())
	assert.True(t, m.Syncing())
	assert.Nil(t, m.Sync())
}

func TestFetcherReportsError(t *testing.T) {
	svc := &testutil.FakeService{CountsErr: errors.New("down")}
	msg, err := Fetcher(svc)(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, msg.(SyncedMsg).Err)
}
