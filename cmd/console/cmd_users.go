package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/stockroom/internal/console/roles"
	"github.com/aussiebroadwan/stockroom/internal/console/view"
)

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users and assign roles",
	}
	cmd.AddCommand(c.usersListCmd(), c.usersSetRoleCmd())
	return cmd
}

func (c *cli) usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users and their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.MinRoleAssign); err != nil {
				return err
			}
			users, err := c.app.Client().ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tbl := view.NewTable("Users", "ID", "USERNAME", "EMAIL", "ROLE")
			for _, u := range users {
				tbl.AddRow(strconv.FormatInt(u.ID, 10), u.Username, u.Email, u.Role)
			}
			fmt.Fprint(c.out, tbl.Render(c.app.Styles()))
			return nil
		},
	}
}

func (c *cli) usersSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set-role ID=ROLE...",
		Short:   "Assign roles to one or more users",
		Example: "  stockroom users set-role 3=manager 4=viewer",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.MinRoleAssign); err != nil {
				return err
			}
			users, err := c.app.Client().ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			current := make(map[int64]roles.Role, len(users))
			for _, u := range users {
				r, _ := roles.Parse(u.Role)
				current[u.ID] = r
			}

			pending := roles.NewPending()
			for _, arg := range args {
				idStr, roleStr, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid assignment %q: want ID=ROLE", arg)
				}
				id, err := parseID(idStr)
				if err != nil {
					return err
				}
				was, known := current[id]
				if !known {
					return fmt.Errorf("unknown user %d", id)
				}
				role, err := roles.Parse(roleStr)
				if err != nil {
					return err
				}
				if err := pending.Stage(id, was, role); err != nil {
					return err
				}
			}

			if pending.Len() == 0 {
				fmt.Fprintln(c.out, "Nothing to change")
				return nil
			}

			applied, err := pending.Apply(cmd.Context(), c.app.Client())
			fmt.Fprintf(c.out, "Applied %d role changes\n", applied)
			if err != nil {
				for _, ch := range pending.Changes() {
					fmt.Fprintf(c.errOut, "not applied: user %d -> %s\n", ch.UserID, ch.Role)
				}
				return err
			}
			return nil
		},
	}
}
