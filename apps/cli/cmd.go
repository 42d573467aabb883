package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in")
)

type commandLine struct {
	mgr *session.Manager
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL - log in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout - forget the stored session")
	fmt.Fprintln(cli.out, "  whoami - print the logged in user")
	fmt.Fprintln(cli.out, "  menu - print the navigation entries of the logged in user")
	fmt.Fprintln(cli.out, "  check -roles ROLE[,ROLE] - tell whether the session may reach a screen open to ROLES")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := cli.newFlagSet("login")
	loginEmail := loginCmd.String("email", "", "The user's email. The password will be prompted next.")

	checkCmd := cli.newFlagSet("check")
	checkRoles := checkCmd.String("roles", "", "Comma separated roles allowed on the screen, eg. admin,teacher.")

	ctx := context.Background()

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if core.CleanString(*loginEmail) == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginEmail, string(pwd))
	case "logout":
		return cli.logout()
	case "whoami":
		return cli.whoami(ctx)
	case "menu":
		return cli.menu(ctx)
	case "check":
		if err := checkCmd.Parse(args[2:]); err != nil {
			return err
		}
		names := core.SplitList(*checkRoles)
		if len(names) == 0 {
			checkCmd.Usage()
			return errHelp
		}
		allowed, err := user.ParseRoleSet(names...)
		if err != nil {
			return err
		}
		return cli.check(ctx, allowed)
	default:
		cli.printUsage()
		return errHelp
	}
}

func describe(usr user.User) string {
	return fmt.Sprintf("%s <%s> (%s)", usr.Name, usr.Email, usr.Role)
}
