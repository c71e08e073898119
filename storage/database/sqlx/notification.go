package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core/notification"
)

type notificationRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	Title      string      `db:"title"`
	Message    string      `db:"message"`
	ScheduleID null.String `db:"schedule_id"`
	Read       bool        `db:"read"`
	CreatedAt  time.Time   `db:"created_at"`
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	row := notificationRow{
		ID:         n.ID,
		UserID:     n.UserID,
		Title:      n.Title,
		Message:    n.Message,
		ScheduleID: null.NewString(n.ScheduleID, n.ScheduleID != ""),
		Read:       n.Read,
		CreatedAt:  n.CreatedAt.UTC(),
	}
	q := `INSERT INTO notification (id, user_id, title, message, schedule_id, read, created_at)
		VALUES (:id, :user_id, :title, :message, :schedule_id, :read, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) FilterNotifications(ctx context.Context, userID string, filter notification.QueryFilter) ([]notification.Notification, error) {
	if len(validIDs([]string{userID})) == 0 {
		return []notification.Notification{}, nil
	}
	var w where
	w.add("user_id = ?", userID)
	if filter.UnreadOnly {
		w.add("NOT read")
	}

	var rows []notificationRow
	q := query(`SELECT id, user_id, title, message, schedule_id, read, created_at FROM notification` +
		w.String() + ` ORDER BY seq DESC`)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}

	notifs := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		notifs = append(notifs, notification.Notification{
			ID:         r.ID,
			UserID:     r.UserID,
			Title:      r.Title,
			Message:    r.Message,
			ScheduleID: r.ScheduleID.String,
			Read:       r.Read,
			CreatedAt:  r.CreatedAt.UTC(),
		})
	}
	return notifs, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, userID string, ids ...string) (int, error) {
	if ids = validIDs(ids); len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE notification SET read = true WHERE user_id = $1 AND NOT read AND id = ANY($2)`,
		userID, pq.StringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return rowsAffected(res), nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if len(validIDs([]string{userID})) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx, `UPDATE notification SET read = true WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return rowsAffected(res), nil
}
