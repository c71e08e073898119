package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ratiba/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	repo.db.table[n.ID] = &notificationRow{seq: repo.db.seq, n: n}
	return n, nil
}

func (repo *notificationRepository) FilterNotifications(_ context.Context, userID string, filter notification.QueryFilter) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]notificationRow, 0)
	for _, r := range repo.db.table {
		if r.n.UserID != userID || (filter.UnreadOnly && r.n.Read) {
			continue
		}
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	notifs := make([]notification.Notification, len(rows))
	for i, r := range rows {
		notifs[i] = r.n
	}
	return notifs, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, userID string, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if r, ok := repo.db.table[id]; ok && r.n.UserID == userID && !r.n.Read {
			r.n.Read = true
			cnt++
		}
	}
	return cnt, nil
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, userID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, r := range repo.db.table {
		if r.n.UserID == userID && !r.n.Read {
			r.n.Read = true
			cnt++
		}
	}
	return cnt, nil
}
