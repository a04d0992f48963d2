package testutil

import (
	"context"
	"sync"

	"github.com/nhle/studyhub-notify/internal/model"
)

// FakeService is an in-memory api.NotificationService. Each Err field, when
// set, is returned by the matching call; calls are recorded either way.
type FakeService struct {
	mu sync.Mutex

	Items  []model.Notification
	Counts model.Counts

	FetchErr   error
	RemoveErr  error
	ReadErr    error
	ReadAllErr error
	CountsErr  error

	Fetches     int
	CountsCalls int
	Removed     []model.ID
	Read        []model.ID
	ReadAll     int
}

// FetchNotifications returns Items.
func (f *FakeService) FetchNotifications(ctx context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetches++
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	out := make([]model.Notification, len(f.Items))
	copy(out, f.Items)
	return out, nil
}

// RemoveNotification records id.
func (f *FakeService) RemoveNotification(ctx context.Context, id model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, id)
	return f.RemoveErr
}

// MarkNotificationRead records id.
func (f *FakeService) MarkNotificationRead(ctx context.Context, id model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Read = append(f.Read, id)
	return f.ReadErr
}

// MarkAllNotificationsRead counts the call.
func (f *FakeService) MarkAllNotificationsRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReadAll++
	return f.ReadAllErr
}

// FetchCounts returns Counts.
func (f *FakeService) FetchCounts(ctx context.Context) (model.Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CountsCalls++
	if f.CountsErr != nil {
		return model.Counts{}, f.CountsErr
	}
	return f.Counts, nil
}

// SetCounts replaces Counts and clears CountsErr.
func (f *FakeService) SetCounts(c model.Counts) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Counts = c
	f.CountsErr = nil
}

// FailCounts makes FetchCounts return err.
func (f *FakeService) FailCounts(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CountsErr = err
}
