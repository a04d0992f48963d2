package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/studyhub-notify/internal/model"
)

// Endpoint paths consumed by the client.
const (
	PathNotifications = "/student_profile/profile/notifications"
	PathCounts        = "/profile/counts"
)

// RemovePath returns the dismissal endpoint for a notification.
func RemovePath(id model.ID) string {
	return fmt.Sprintf("%s/remove/%s", PathNotifications, url.PathEscape(id.String()))
}

// ReadPath returns the mark-as-read endpoint for a notification.
func ReadPath(id model.ID) string {
	return fmt.Sprintf("%s/%s/read", PathNotifications, url.PathEscape(id.String()))
}

// ReadAllPath is the mark-everything-read endpoint.
const ReadAllPath = PathNotifications + "/read-all"

// NotificationService is the slice of the StudyHub API the notification
// UI depends on. *Service implements it; tests substitute fakes.
type NotificationService interface {
	FetchNotifications(ctx context.Context) ([]model.Notification, error)
	RemoveNotification(ctx context.Context, id model.ID) error
	MarkNotificationRead(ctx context.Context, id model.ID) error
	MarkAllNotificationsRead(ctx context.Context) error
	FetchCounts(ctx context.Context) (model.Counts, error)
}

// Service implements NotificationService over a Client.
type Service struct {
	client *Client
}

// NewService wraps a Client with typed notification endpoints.
func NewService(c *Client) *Service {
	return &Service{client: c}
}

// FetchNotifications returns the current notification list. An absent or
// null data field yields an empty, non-nil slice.
func (s *Service) FetchNotifications(ctx context.Context) ([]model.Notification, error) {
	var items []model.Notification
	if err := s.client.Get(ctx, PathNotifications, &items); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return items, nil
}

// RemoveNotification dismisses a notification on the server.
func (s *Service) RemoveNotification(ctx context.Context, id model.ID) error {
	if err := s.client.Post(ctx, RemovePath(id), nil); err != nil {
		return fmt.Errorf("removing notification %s: %w", id, err)
	}
	return nil
}

// MarkNotificationRead flags a single notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id model.ID) error {
	if err := s.client.Post(ctx, ReadPath(id), nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead flags every notification of the student as read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.client.Post(ctx, ReadAllPath, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// FetchCounts returns the unread notification and message totals.
func (s *Service) FetchCounts(ctx context.Context) (model.Counts, error) {
	var counts model.Counts
	if err := s.client.Get(ctx, PathCounts, &counts); err != nil {
		return model.Counts{}, fmt.Errorf("fetching counts: %w", err)
	}
	return counts, nil
}
