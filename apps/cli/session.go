package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/authz"
	"github.com/trezcool/masomo-portal/core/nav"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
)

// login authenticates email and keeps the token for the next commands.
func (cli *commandLine) login(ctx context.Context, email, pwd string) error {
	if s := cli.mgr.Bootstrap(ctx); s.IsAuthenticated() {
		return errors.Errorf("already logged in as %s; logout first", describe(s.User))
	}

	usr, err := cli.mgr.Login(ctx, email, pwd)
	if err != nil {
		if session.IsRetryable(err) {
			return errors.Wrap(err, "try again later")
		}
		return err
	}
	fmt.Fprintf(cli.out, "logged in as %s\n", describe(usr))
	return nil
}

func (cli *commandLine) logout() error {
	cli.mgr.Logout()
	fmt.Fprintln(cli.out, "logged out")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	s := cli.mgr.Bootstrap(ctx)
	if !s.IsAuthenticated() {
		return errNotLoggedIn
	}
	fmt.Fprintln(cli.out, describe(s.User))
	return nil
}

func (cli *commandLine) menu(ctx context.Context) error {
	s := cli.mgr.Bootstrap(ctx)
	if !s.IsAuthenticated() {
		return errNotLoggedIn
	}
	for _, entry := range nav.Resolve(s.User.Role) {
		fmt.Fprintf(cli.out, "%-22s %s\n", entry.Path, entry.Label)
	}
	return nil
}

// check prints the gate decision; anything but allow is an error so scripts can test the exit code.
func (cli *commandLine) check(ctx context.Context, allowed user.RoleSet) error {
	decision := authz.Decide(cli.mgr.Bootstrap(ctx), allowed)
	fmt.Fprintln(cli.out, decision)
	if !decision.IsAllowed() {
		return errors.Errorf("access to %s denied", allowed)
	}
	return nil
}
