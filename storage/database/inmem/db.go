package inmemdb

import (
	"sync"

	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

type (
	// DB keeps every table in process memory. It backs tests and the "memory" database engine.
	DB struct {
		user         *userTable
		schedule     *scheduleTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		seq   int64
		table map[string]*userRow
	}
	userRow struct {
		seq int64
		usr user.User
	}

	scheduleTable struct {
		sync.RWMutex
		seq   int64
		table map[string]*scheduleRow
	}
	scheduleRow struct {
		seq int64
		s   schedule.Schedule
	}

	notificationTable struct {
		sync.RWMutex
		seq   int64
		table map[string]*notificationRow
	}
	notificationRow struct {
		seq int64
		n   notification.Notification
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*userRow)},
		schedule:     &scheduleTable{table: make(map[string]*scheduleRow)},
		notification: &notificationTable{table: make(map[string]*notificationRow)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*userRow)
	db.user.Unlock()

	db.schedule.Lock()
	db.schedule.table = make(map[string]*scheduleRow)
	db.schedule.Unlock()

	db.notification.Lock()
	db.notification.table = make(map[string]*notificationRow)
	db.notification.Unlock()
}
