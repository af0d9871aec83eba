package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/jrsteele09/go-pod-app/internal/app"
	"github.com/jrsteele09/go-pod-app/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
func RootCmd(c config.Config, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "podctl",
		Short:        "talk to a pod through the session backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.SetupLogging(c.GetLogLevel(), c.GetEnv(), cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(out)

	cmd.AddCommand(Session(c))
	cmd.AddCommand(LoginURL(c))
	cmd.AddCommand(Read(c))
	cmd.AddCommand(Write(c))
	cmd.AddCommand(RequestAccess(c))
	cmd.AddCommand(SubmitGrant(c))
	cmd.AddCommand(Grants(c))

	return cmd
}

// Execute loads .env and runs the root command.
func Execute() error {
	if err := config.LoadDotEnv(); err != nil {
		return errors.Wrap(err, "load .env")
	}
	return RootCmd(config.New(), os.Stdout).ExecuteContext(context.Background())
}

// withApp validates the configuration, builds the application and waits for
// the first session value before calling fn.
func withApp(cmd *cobra.Command, c config.Config, fn func(ctx context.Context, a *app.App) error) error {
	if err := config.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, c)
	if err != nil {
		return errors.Wrap(err, "build app")
	}
	defer a.Close()

	waitCtx, cancel := context.WithTimeout(ctx, c.GetRequestTimeout())
	defer cancel()
	if _, err := a.Store.WaitLoaded(waitCtx); err != nil {
		return errors.Wrap(err, "wait for session")
	}
	return fn(ctx, a)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
