package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// NotificationRepository captures the persistence operations of the notification feed.
type NotificationRepository interface {
	ListNotifications(ctx context.Context) ([]Notification, error)
	// PrependNotification assigns an id and stores n ahead of every existing entry.
	PrependNotification(ctx context.Context, n Notification) (Notification, error)
	ReplaceNotifications(ctx context.Context, notifications []Notification) error
}

// Notifier appends feed entries on behalf of the domain services.
type Notifier interface {
	Add(ctx context.Context, notificationType NotificationType, message, relatedID string) (Notification, error)
}

// NotificationService manages the notification feed.
type NotificationService struct {
	notifications NotificationRepository
	now           func() time.Time
	logger        *slog.Logger
}

var _ Notifier = (*NotificationService)(nil)

// NewNotificationService constructs a notification service.
func NewNotificationService(notifications NotificationRepository, now func() time.Time) *NotificationService {
	return NewNotificationServiceWithLogger(notifications, now, nil)
}

// NewNotificationServiceWithLogger constructs a notification service with a specified logger.
func NewNotificationServiceWithLogger(notifications NotificationRepository, now func() time.Time, logger *slog.Logger) *NotificationService {
	if now == nil {
		now = time.Now
	}
	return &NotificationService{notifications: notifications, now: now, logger: defaultLogger(logger)}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// List returns the feed, newest first.
func (s *NotificationService) List(ctx context.Context, principal Principal) ([]Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}
	if err := authorize(principal, CapReadNotifications); err != nil {
		return nil, err
	}
	return s.sorted(ctx)
}

// Add stores a new unread entry stamped with the current time.
func (s *NotificationService) Add(ctx context.Context, notificationType NotificationType, message, relatedID string) (created Notification, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Add", "type", notificationType, "related_id", relatedID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add notification", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("notification_id", created.ID).DebugContext(ctx, "notification added")
	}()

	created = Notification{
		Type:      notificationType,
		Message:   message,
		Timestamp: s.now(),
		Read:      false,
		RelatedID: relatedID,
	}
	if s.notifications == nil {
		return
	}
	created, err = s.notifications.PrependNotification(ctx, created)
	if err != nil {
		err = mapStoreError("add notification", err)
	}
	return
}

// MarkRead flags one entry as read. An unknown id is ignored.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, id string) error {
	return s.mark(ctx, principal, "MarkRead", func(n Notification) bool { return n.ID == id })
}

// MarkAllRead flags every entry as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal Principal) error {
	return s.mark(ctx, principal, "MarkAllRead", func(Notification) bool { return true })
}

// UnreadCount returns the number of unread entries.
func (s *NotificationService) UnreadCount(ctx context.Context, principal Principal) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("NotificationService is nil")
	}
	if err := authorize(principal, CapReadNotifications); err != nil {
		return 0, err
	}
	items, err := s.sorted(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *NotificationService) mark(ctx context.Context, principal Principal, operation string, match func(Notification) bool) (err error) {
	if s == nil {
		return fmt.Errorf("NotificationService is nil")
	}
	if err := authorize(principal, CapReadNotifications); err != nil {
		return err
	}
	if s.notifications == nil {
		return nil
	}

	logger := s.loggerWith(ctx, operation, "principal_id", principal.UserID)
	changed := 0
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to mark notifications", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "notifications marked read", "changed", changed)
	}()

	var items []Notification
	items, err = s.notifications.ListNotifications(ctx)
	if err != nil {
		err = mapStoreError("mark notifications read", err)
		return
	}
	for i := range items {
		if match(items[i]) && !items[i].Read {
			items[i].Read = true
			changed++
		}
	}
	if changed == 0 {
		return nil
	}
	if err = s.notifications.ReplaceNotifications(ctx, items); err != nil {
		err = mapStoreError("mark notifications read", err)
	}
	return
}

func (s *NotificationService) sorted(ctx context.Context) ([]Notification, error) {
	if s.notifications == nil {
		return nil, nil
	}
	items, err := s.notifications.ListNotifications(ctx)
	if err != nil {
		return nil, mapStoreError("list notifications", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, nil
}
