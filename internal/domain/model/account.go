package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the slice of the dashboard user profile this service touches.
type Profile struct {
	ID               string
	Email            string
	SubscriptionPlan Plan
	UpdatedAt        time.Time
}

const NotificationTypePayment = "payment"

// Notification is a dashboard notification row.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

func NewNotification(userID, kind, title, message string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

const (
	ActivitySubscriptionUpgraded = "subscription_upgraded"
	ActivityCheckoutInitiated    = "checkout_initiated"
)

// ActivityLogEntry is an append-only audit row. It is never updated.
type ActivityLogEntry struct {
	ID        string
	UserID    string
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}

func NewActivityLogEntry(userID, action string, details map[string]any) *ActivityLogEntry {
	if details == nil {
		details = map[string]any{}
	}
	return &ActivityLogEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
}
