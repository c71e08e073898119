package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

const userColumns = `id, name, username, email, department, phone, is_active, roles,
	email_notifications, password_hash, created_at, updated_at, last_login`

var userOrderColumns = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"department": "department",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRow struct {
	ID                 string         `db:"id"`
	Name               null.String    `db:"name"`
	Username           null.String    `db:"username"`
	Email              null.String    `db:"email"`
	Department         string         `db:"department"`
	Phone              string         `db:"phone"`
	IsActive           bool           `db:"is_active"`
	Roles              pq.StringArray `db:"roles"`
	EmailNotifications bool           `db:"email_notifications"`
	PasswordHash       []byte         `db:"password_hash"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
	LastLogin          null.Time      `db:"last_login"`
}

func toUserRow(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:                 usr.ID,
		Name:               null.NewString(usr.Name, usr.Name != ""),
		Username:           null.NewString(usr.Username, usr.Username != ""),
		Email:              null.NewString(usr.Email, usr.Email != ""),
		Department:         usr.Department,
		Phone:              usr.Phone,
		IsActive:           usr.IsActive,
		Roles:              roles,
		EmailNotifications: usr.EmailNotifications,
		PasswordHash:       usr.PasswordHash,
		CreatedAt:          usr.CreatedAt.UTC(),
		UpdatedAt:          usr.UpdatedAt.UTC(),
		LastLogin:          null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) user() user.User {
	usr := user.User{
		ID:                 r.ID,
		Name:               r.Name.String,
		Username:           r.Username.String,
		Email:              r.Email.String,
		Department:         r.Department,
		Phone:              r.Phone,
		IsActive:           r.IsActive,
		Roles:              []string(r.Roles),
		EmailNotifications: r.EmailNotifications,
		PasswordHash:       r.PasswordHash,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	if usr.Roles == nil {
		usr.Roles = []string{}
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	var w where
	switch {
	case username != "" && email != "":
		w.add("username = ? OR email = ?", username, email)
	case username != "":
		w.add("username = ?", username)
	case email != "":
		w.add("email = ?", email)
	default:
		return nil
	}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		if ids = validIDs(ids); len(ids) > 0 {
			w.add("NOT (id = ANY(?))", pq.StringArray(ids))
		}
	}

	var rows []userRow
	q := query(`SELECT ` + userColumns + ` FROM "user"` + w.String() + ` LIMIT 2`)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if username != "" && r.Username.String == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO "user" (` + userColumns + `) VALUES (:id, :name, :username, :email, :department, :phone,
		:is_active, :roles, :email_notifications, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, toUserRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

// userWhere translates filter into SQL conditions.
func userWhere(filter *user.QueryFilter) where {
	var w where
	if filter == nil {
		return w
	}
	// users with Name, Username or Email matching the search keyword
	if filter.Search != "" {
		val := like(filter.Search)
		w.add("name ILIKE ? OR username ILIKE ? OR email ILIKE ?", val, val, val)
	}
	// users with any role that starts with any of the provided roles
	if len(filter.Roles) > 0 {
		prefixes := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			prefixes = append(prefixes, role+"%")
		}
		w.add("EXISTS (SELECT 1 FROM unnest(roles) user_role WHERE user_role LIKE ANY(?))", pq.StringArray(prefixes))
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if filter.Department != "" {
		w.add("lower(department) = lower(?)", filter.Department)
	}
	if !filter.CreatedFrom.IsZero() {
		w.add("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		w.add("created_at <= ?", filter.CreatedTo.UTC())
	}
	return w
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	w := userWhere(filter)
	q := query(`SELECT ` + userColumns + ` FROM "user"` + w.String() +
		orderBy(ordering, userOrderColumns, "created_at DESC, seq DESC"))

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		if len(validIDs([]string{filter.ID})) == 0 {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Username != "":
		w.add("username = ?", filter.Username)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	case filter.UsernameOrEmail != "":
		w.add("username = ? OR email = ?", filter.UsernameOrEmail, filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var r userRow
	q := query(`SELECT ` + userColumns + ` FROM "user"` + w.String() + ` LIMIT 1`)
	if err := repo.db.GetContext(ctx, &r, q, w.args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return r.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET name = :name, username = :username, email = :email, department = :department,
		phone = :phone, is_active = :is_active, roles = :roles, email_notifications = :email_notifications,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toUserRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if rowsAffected(res) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if ids = validIDs(ids); len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
