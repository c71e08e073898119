package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// rows returns a copy of the table, newest first.
func (repo *userRepository) rows() []userRow {
	rows := make([]userRow, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	return rows
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	for _, r := range repo.rows() {
		if excluded[r.usr.ID] {
			continue
		}
		if username != "" && r.usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && r.usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	repo.db.table[usr.ID] = &userRow{seq: repo.db.seq, usr: usr}
	return usr, nil
}

func (repo *userRepository) FilterUsers(_ context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(repo.db.table))
	for _, r := range repo.rows() {
		if filter == nil || filter.Match(r.usr) {
			users = append(users, r.usr)
		}
	}
	if len(ordering) > 0 {
		sort.SliceStable(users, func(i, j int) bool { return lessUser(users[i], users[j], ordering) })
	}
	return users, nil
}

func lessUser(a, b user.User, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "name":
			cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case "username":
			cmp = strings.Compare(a.Username, b.Username)
		case "email":
			cmp = strings.Compare(a.Email, b.Email)
		case "department":
			cmp = strings.Compare(strings.ToLower(a.Department), strings.ToLower(b.Department))
		case "created_at":
			cmp = compareTime(a.CreatedAt, b.CreatedAt)
		case "last_login":
			cmp = compareTime(a.LastLogin, b.LastLogin)
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return false
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if r, ok := repo.db.table[filter.ID]; ok {
			return r.usr, nil
		}
		return user.User{}, user.ErrNotFound
	}

	for _, r := range repo.rows() {
		usr := r.usr
		switch {
		case filter.Username != "" && usr.Username == filter.Username,
			filter.Email != "" && usr.Email == filter.Email,
			filter.UsernameOrEmail != "" && (usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail):
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	r.usr = usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
