package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/user"
)

// addAdmin creates an admin user.User, or promotes an existing one.
func (cli *commandLine) addAdmin(uname, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr, err = cli.usrRepo.GetUserByUsernameOrEmail(ctx, email)
	}
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}

		// new admin
		now := time.Now().UTC()
		usr = user.User{
			Name:       uname,
			Username:   uname,
			Email:      email,
			IsActive:   true,
			IsApproved: true,
			Roles:      []string{user.RoleAdmin},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	// promote
	if !usr.IsAdmin() {
		usr.Roles = append(usr.Roles, user.RoleAdmin)
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	active, approved := true, true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active, &approved)
	return err
}
