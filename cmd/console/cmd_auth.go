package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/stockroom/internal/console/session"
	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
	"github.com/aussiebroadwan/stockroom/pkg/jwtx"
)

func (c *cli) loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with a username and password. The token pair is stored so later
commands reuse the session until it expires.

When --password is omitted the password is read from the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(c.errOut, "Password: ")
				line, err := bufio.NewReader(c.in).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			snap, err := c.app.Session().Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %s", snap.Err)
			}
			fmt.Fprintf(c.out, "Logged in as %s (%s)\n", snap.User.Username, snap.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Session().Logout()
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := c.app.Session().Snapshot()
			if snap.State != session.Authenticated {
				fmt.Fprintln(c.out, "Not logged in")
				return nil
			}

			u := snap.User
			fmt.Fprintf(c.out, "User:  %s (id %d)\n", u.Username, u.ID)
			fmt.Fprintf(c.out, "Role:  %s\n", u.Role)
			fmt.Fprintf(c.out, "Perms: %s\n", strings.Join(u.Perms, ", "))
			if exp, ok := jwtx.PeekExpiry(c.app.Tokens().Get(invsdk.TokenAccess)); ok {
				fmt.Fprintf(c.out, "Access token expires in %s\n", time.Until(exp).Round(time.Second))
			}
			return nil
		},
	}
}
