package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

var addUserRoles = map[string][]string{
	"admin":      user.AllRoles,
	"instructor": user.InstructorRoles,
}

// addUser updates or creates an active user.User with the given role.
func (cli *commandLine) addUser(name, uname, email, pwd, role string) error {
	roles, ok := addUserRoles[role]
	if !ok {
		return fmt.Errorf("%q: unknown role", role)
	}

	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.findUser(ctx, uname, email)
	isNew := errors.Is(err, user.ErrNotFound)
	switch {
	case isNew:
		usr = user.User{
			ID:        uuid.New().String(),
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	case err != nil:
		return err
	}

	if name = core.CleanString(name); name != "" {
		usr.Name = name
	} else if usr.Name == "" {
		usr.Name = uname
	}
	usr.Roles = roles
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if isNew {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}

func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, error) {
	for _, key := range []string{uname, email} {
		if key == "" {
			continue
		}
		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: key})
		if !errors.Is(err, user.ErrNotFound) {
			return usr, err
		}
	}
	return user.User{}, user.ErrNotFound
}
