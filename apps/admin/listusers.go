package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/sauti/core/user"
)

func (cli *commandLine) listUsers(role, search string) error {
	filter := &user.QueryFilter{Search: search}
	if role != "" {
		r, err := user.ParseRole(role)
		if err != nil {
			return err
		}
		filter.Role = r
	}

	users, err := cli.usrSvc.Query(context.Background(), filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tSUBJECT")
	for _, usr := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", usr.Email, usr.FullName(), usr.Role, usr.SubjectID)
	}
	return w.Flush()
}
