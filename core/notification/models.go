package notification

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	ScheduleID string    `json:"schedule_id,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type QueryFilter struct {
	UnreadOnly bool `query:"unread"`
}

type MarkReadRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type Repository interface {
	CreateNotification(ctx context.Context, n Notification) (Notification, error)
	// FilterNotifications returns userID's notifications, newest first.
	FilterNotifications(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error)
	// MarkRead marks userID's notifications with ids as read and returns how many changed.
	MarkRead(ctx context.Context, userID string, ids ...string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}
