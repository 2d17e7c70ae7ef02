package main

import (
	"context"
	"fmt"

	"github.com/trezcool/sauti/core/user"
)

func (cli *commandLine) setRole(email string, role user.Role) error {
	usr, err := cli.usrSvc.SetRole(context.Background(), email, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s is now %s\n", usr.Email, usr.Role)
	return nil
}
