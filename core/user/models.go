package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ratiba/core"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	// Instructor
	RoleInstructor = "instructor:"
)

var (
	AdminRoles      = []string{RoleAdmin, RoleAdminOwner}
	InstructorRoles = []string{RoleInstructor}
	AllRoles        = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner: 30,
		RoleAdmin:      21,

		// Instructors: 20 - 11
		RoleInstructor: 11,
	}

	Roles = []Role{
		{Name: "Instructor", Value: RoleInstructor},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 3)
	all = append(all, AdminRoles...)
	all = append(all, InstructorRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	Department         string    `json:"department"`
	Phone              string    `json:"phone"`
	IsActive           bool      `json:"is_active"`
	Roles              []string  `json:"roles"`
	EmailNotifications bool      `json:"email_notifications"`
	PasswordHash       []byte    `json:"-"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
	LastLogin          time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsInstructor() bool {
	return u.RoleStartsWith(RoleInstructor)
}

// Address returns the user's email as a mail.Address.
func (u *User) Address() mail.Address {
	return mail.Address{Name: u.Name, Address: u.Email}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name               string   `json:"name" validate:"required"`
	Username           string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email              string   `json:"email" validate:"omitempty,email"`
	Department         string   `json:"department" validate:"max=100"`
	Phone              string   `json:"phone" validate:"omitempty,phone"`
	Password           string   `json:"password" validate:"required"`
	PasswordConfirm    string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles              []string `json:"roles" validate:"omitempty,allroles"`
	EmailNotifications bool     `json:"email_notifications"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc uniquenessChecker) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Department = core.CleanString(nu.Department)
	nu.Phone = core.CleanString(nu.Phone)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name               string   `json:"name"`
	Username           string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email              string   `json:"email" validate:"omitempty,email"`
	Department         *string  `json:"department" validate:"omitempty,max=100"`
	Phone              *string  `json:"phone" validate:"omitempty"`
	IsActive           *bool    `json:"is_active"`
	Roles              []string `json:"roles" validate:"omitempty,allroles"`
	EmailNotifications *bool    `json:"email_notifications"`
	Password           string   `json:"password" validate:"omitempty"`
	PasswordConfirm    string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc uniquenessChecker) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if uu.Department != nil {
		*uu.Department = core.CleanString(*uu.Department)
	}
	if uu.Phone != nil {
		*uu.Phone = core.CleanString(*uu.Phone)
		if *uu.Phone != "" {
			if err := validate.Var(*uu.Phone, "phone"); err != nil {
				return core.NewFieldError("phone", "invalid phone number")
			}
		}
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Username, uu.Email, origUsr)
}

// UpdateProfile is what users may change about themselves from the portal.
type UpdateProfile struct {
	Name               string  `json:"name"`
	Department         *string `json:"department" validate:"omitempty,max=100"`
	Phone              *string `json:"phone" validate:"omitempty"`
	EmailNotifications *bool   `json:"email_notifications"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	if up.Department != nil {
		*up.Department = core.CleanString(*up.Department)
	}
	if up.Phone != nil {
		*up.Phone = core.CleanString(*up.Phone)
		if *up.Phone != "" {
			if err := validate.Var(*up.Phone, "phone"); err != nil {
				return core.NewFieldError("phone", "invalid phone number")
			}
		}
	}
	return validate.Struct(up)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	Department  string    `query:"department"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.Department == "" &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Department = core.CleanString(qf.Department)
}

// Match applies the filter to usr; used by in-memory storage.
// Search does a case-insensitive match on one of Name, Username or Email.
// Roles match when the user has any of them, or a role prefixed by one of them.
func (qf *QueryFilter) Match(usr User) bool {
	if qf.Search != "" &&
		!core.ContainsFold(usr.Name, qf.Search) &&
		!core.ContainsFold(usr.Username, qf.Search) &&
		!core.ContainsFold(usr.Email, qf.Search) {
		return false
	}
	if len(qf.Roles) > 0 {
		var found bool
		for _, role := range qf.Roles {
			if usr.RoleStartsWith(role) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if qf.IsActive != nil && usr.IsActive != *qf.IsActive {
		return false
	}
	if qf.Department != "" && !strings.EqualFold(usr.Department, qf.Department) {
		return false
	}
	if !qf.CreatedFrom.IsZero() && usr.CreatedAt.Before(qf.CreatedFrom) {
		return false
	}
	if !qf.CreatedTo.IsZero() && usr.CreatedAt.After(qf.CreatedTo) {
		return false
	}
	return true
}

// GetFilter selects a single user; the first set field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}

type uniquenessChecker interface {
	CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
}
