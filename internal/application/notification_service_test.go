package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNotificationService_AddAndList(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	clock := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	svc := NewNotificationService(store, func() time.Time { return clock })

	first, err := svc.Add(ctx, NotificationRental, "first", "r-1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ID == "" || first.Read || !first.Timestamp.Equal(clock) {
		t.Fatalf("unexpected notification %+v", first)
	}

	clock = clock.Add(time.Minute)
	if _, err := svc.Add(ctx, NotificationEquipment, "second", "7"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if store.notifications[0].Message != "second" {
		t.Fatalf("expected newest entry stored first, got %+v", store.notifications)
	}

	// an older entry stored at the front still lists after newer ones
	store.notifications = append([]Notification{{ID: "old", Message: "old", Timestamp: clock.Add(-time.Hour)}}, store.notifications...)

	items, err := svc.List(ctx, customerPrincipal)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(items))
	}
	got := [3]string{items[0].Message, items[1].Message, items[2].Message}
	if got != [3]string{"second", "first", "old"} {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewNotificationService(store, nil)
	store.notifications = []Notification{
		{ID: "a", Message: "a"},
		{ID: "b", Message: "b"},
		{ID: "c", Message: "c", Read: true},
	}

	count, err := svc.UnreadCount(ctx, staffPrincipal)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 unread, got %d %v", count, err)
	}

	if err := svc.MarkRead(ctx, staffPrincipal, "a"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !store.notifications[0].Read || store.notifications[1].Read {
		t.Fatalf("expected only a to be read, got %+v", store.notifications)
	}

	writes := store.writes
	if err := svc.MarkRead(ctx, staffPrincipal, "missing"); err != nil {
		t.Fatalf("mark unknown: %v", err)
	}
	if store.writes != writes {
		t.Fatalf("expected unknown id not to write")
	}

	if err := svc.MarkAllRead(ctx, staffPrincipal); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if count, _ := svc.UnreadCount(ctx, staffPrincipal); count != 0 {
		t.Fatalf("expected no unread entries, got %d", count)
	}
	if len(store.notifications) != 3 {
		t.Fatalf("expected entries to be kept, got %d", len(store.notifications))
	}
}

func TestNotificationService_Errors(t *testing.T) {
	ctx := context.Background()

	svc := NewNotificationService(newFakeStore(), nil)
	if _, err := svc.List(ctx, Principal{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	store := newFakeStore()
	store.failWrite = true
	svc = NewNotificationService(store, nil)
	_, err := svc.Add(ctx, NotificationRental, "msg", "r-1")
	var failure *StorageFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("expected StorageFailureError, got %v", err)
	}
	if len(store.notifications) != 0 {
		t.Fatalf("expected nothing stored, got %+v", store.notifications)
	}

	var nilSvc *NotificationService
	if _, err := nilSvc.Add(ctx, NotificationRental, "msg", ""); err == nil {
		t.Fatalf("expected nil service to fail")
	}
}
