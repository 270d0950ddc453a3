package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/user"
)

// addUser creates a user.User, or resets the password of an existing one.
func (cli *commandLine) addUser(name, email, pwd string, isOperator bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		now := cli.clock.Now()
		usr = user.User{
			ID:        uuid.New().String(),
			Name:      name,
			Email:     email,
			IsActive:  true,
			Roles:     []string{user.RoleLearner},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if isOperator {
			usr.Roles = user.AllRoles
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	return cli.resetPassword(email, pwd)
}
