package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sauti/core/user"
	"github.com/trezcool/sauti/storage/database/inmem"
	"github.com/trezcool/sauti/tests"
)

func setup(t *testing.T) (*commandLine, user.Repository, *bytes.Buffer) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	usrRepo := inmemdb.NewUserRepository(db)

	out := new(bytes.Buffer)
	cli := &commandLine{
		usrSvc: user.NewService(usrRepo, testutil.NewValidator()),
		in:     strings.NewReader(""),
		out:    out,
	}
	return cli, usrRepo, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	input      string   // what is typed on the terminal
	terminal   bool
	wantErr    error
	wantErrStr string
}

func (tt cliTest) run(t *testing.T, cli *commandLine) error {
	isTerminalFunc = func(int) bool { return tt.terminal }
	cli.in = strings.NewReader(tt.input)
	return cli.run(append([]string{"admin"}, tt.args...))
}

func (tt cliTest) check(t *testing.T, err error) {
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	var ran []string
	migrateFunc = func(_ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, strings.Join(append([]string{command}, args...), " "))
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.run(t, cli))
		})
	}
	assert.Equal(t, []string{"up", "up-to 2", "down", "status"}, ran)
}

func Test_commandLine_setRole(t *testing.T) {
	cli, usrRepo, out := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "staff@uni.test", user.RoleStudent)

	tests := []struct {
		cliTest
		wantRole user.Role
	}{
		{cliTest: cliTest{name: "no command", wantErr: errHelp}, wantRole: user.RoleStudent},
		{cliTest: cliTest{name: "unknown command", args: []string{"lol"}, wantErr: errHelp}, wantRole: user.RoleStudent},
		{cliTest: cliTest{name: "no args", args: []string{"setrole"}, wantErr: errHelp}, wantRole: user.RoleStudent},
		{
			cliTest:  cliTest{name: "missing role", args: []string{"setrole", "-email", usr.Email}, wantErr: errHelp},
			wantRole: user.RoleStudent,
		},
		{
			cliTest:  cliTest{name: "invalid role", args: []string{"setrole", "-email", usr.Email, "-role", "dean", "-yes"}, wantErr: user.ErrInvalidRole},
			wantRole: user.RoleStudent,
		},
		{
			cliTest:  cliTest{name: "unknown user", args: []string{"setrole", "-email", "nobody@uni.test", "-role", "dsw_admin", "-yes"}, wantErr: user.ErrNotFound},
			wantRole: user.RoleStudent,
		},
		{
			cliTest:  cliTest{name: "no terminal to confirm", args: []string{"setrole", "-email", usr.Email, "-role", "dsw_admin"}, wantErr: errNotATerm},
			wantRole: user.RoleStudent,
		},
		{
			cliTest: cliTest{
				name: "declined", args: []string{"setrole", "-email", usr.Email, "-role", "dsw_admin"},
				terminal: true, input: "n\n", wantErr: errAborted,
			},
			wantRole: user.RoleStudent,
		},
		{
			cliTest: cliTest{
				name: "confirmed", args: []string{"setrole", "-email", usr.Email, "-role", "dsw_admin"},
				terminal: true, input: "yes\n",
			},
			wantRole: user.RoleDSWAdmin,
		},
		{
			cliTest:  cliTest{name: "without confirmation", args: []string{"setrole", "-email", "STAFF@uni.test", "-role", "DEPT_ADMIN", "-yes"}},
			wantRole: user.RoleDeptAdmin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.run(t, cli))

			refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, refreshed.Role)
		})
	}
	assert.Contains(t, out.String(), "staff@uni.test is now DEPT_ADMIN")
}

func Test_commandLine_listUsers(t *testing.T) {
	cli, usrRepo, out := setup(t)
	testutil.CreateUser(t, usrRepo, "alice@uni.test", user.RoleStudent)
	testutil.CreateUser(t, usrRepo, "works@uni.test", user.RoleDeptAdmin)

	err := cliTest{args: []string{"listusers", "-role", "dept_admin"}}.run(t, cli)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "works@uni.test")
	assert.NotContains(t, out.String(), "alice@uni.test")

	out.Reset()
	err = cliTest{args: []string{"listusers"}}.run(t, cli)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "alice@uni.test")
	assert.Contains(t, out.String(), "works@uni.test")

	err = cliTest{args: []string{"listusers", "-role", "janitor"}}.run(t, cli)
	assert.Equal(t, user.ErrInvalidRole, err)
}
