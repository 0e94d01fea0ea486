// Command console is the stockroom operator console: sign in, browse and edit
// inventory, apply bulk stock adjustments from CSV and manage user roles.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/stockroom/internal/console/app"
	"github.com/aussiebroadwan/stockroom/internal/console/tokenstore"
)

// offline marks commands that never talk to the API.
const offline = "offline"

// cli carries the state of one invocation.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	apiURL    string
	logLevel  string
	ephemeral bool

	cfg *app.Config
	app *app.Application
}

// execute runs one invocation of the console with args.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	c := &cli{in: in, out: out, errOut: errOut}
	defer c.close()

	root := c.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockroom",
		Short:         "Inventory operator console",
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			if cmd.Annotations[offline] == "true" {
				return nil
			}
			return c.open(cmd.Context(), cmd.Name())
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "Inventory API base URL (or set STOCKROOM_API_URL)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&c.ephemeral, "ephemeral", false, "Keep tokens in memory only")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.itemsCmd(),
		c.categoriesCmd(),
		c.bulkCmd(),
		c.usersCmd(),
		c.mockCmd(),
	)
	return root
}

func (c *cli) loadConfig() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.ephemeral {
		cfg.TokenStore = tokenstore.DriverMemory
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *cli) open(ctx context.Context, name string) error {
	a, err := app.New(*c.cfg, app.WithOutput(c.errOut))
	if err != nil {
		return err
	}
	c.app = a
	a.Start(ctx, name)
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		c.app.Logger().Warn("failed to close token store", "error", err)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
