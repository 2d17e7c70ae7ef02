package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/sauti/core/user"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp     = errors.New("help provided")
	errAborted  = errors.New("aborted")
	errNotATerm = errors.New("cannot confirm without a terminal, use -yes")
)

type commandLine struct {
	db     *sqlx.DB
	usrSvc user.ServiceInterface
	in     io.Reader
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run database migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version)")
	fmt.Fprintln(cli.out, "  setrole -email EMAIL -role STUDENT|DSW_ADMIN|DEPT_ADMIN [-yes] - change a user's role")
	fmt.Fprintln(cli.out, "  listusers [-role ROLE] [-search TEXT] - list synced users")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	setRoleCmd := flag.NewFlagSet("setrole", flag.ContinueOnError)
	setRoleCmd.SetOutput(cli.out)
	setRoleEmail := setRoleCmd.String("email", "", "The user's email. The user must have signed in at least once.")
	setRoleRole := setRoleCmd.String("role", "", "The new role: STUDENT, DSW_ADMIN or DEPT_ADMIN.")
	setRoleYes := setRoleCmd.Bool("yes", false, "Do not ask for confirmation.")

	listUsersCmd := flag.NewFlagSet("listusers", flag.ContinueOnError)
	listUsersCmd.SetOutput(cli.out)
	listUsersRole := listUsersCmd.String("role", "", "Only list users with this role.")
	listUsersSearch := listUsersCmd.String("search", "", "Only list users whose email or name contains this text.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "setrole":
		if err := setRoleCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setRoleEmail == "" || *setRoleRole == "" {
			setRoleCmd.Usage()
			return errHelp
		}
		role, err := user.ParseRole(*setRoleRole)
		if err != nil {
			return err
		}
		if !*setRoleYes {
			if err := cli.confirm(fmt.Sprintf("Set the role of %s to %s?", *setRoleEmail, role)); err != nil {
				return err
			}
		}
		return cli.setRole(*setRoleEmail, role)
	case "listusers":
		if err := listUsersCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.listUsers(*listUsersRole, *listUsersSearch)
	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks a yes/no question on the terminal; anything but "y" or "yes" aborts.
func (cli *commandLine) confirm(question string) error {
	if !isTerminalFunc(syscall.Stdin) {
		return errNotATerm
	}
	fmt.Fprintf(cli.out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
