package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-pod-app/internal/app"
	"github.com/jrsteele09/go-pod-app/internal/config"
	"github.com/jrsteele09/go-pod-app/pod"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func Read(c config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <path>",
		Short: "read a dataset relative to the pod root and print it as Turtle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, c, func(ctx context.Context, a *app.App) error {
				ds, err := a.Pod.Read(ctx, args[0])
				if err != nil {
					return errors.Wrapf(err, "read %s", args[0])
				}
				turtle, err := ds.Turtle()
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), turtle)
				return err
			})
		},
	}
	return cmd
}

// Write reads Turtle from a file ("-" for stdin) and stores it in the pod.
func Write(c config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <path> <file>",
		Short: "write a Turtle file to a path relative to the pod root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			turtle, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			ds, err := pod.ParseTurtle(turtle)
			if err != nil {
				return errors.Wrapf(err, "parse %s", args[1])
			}
			return withApp(cmd, c, func(ctx context.Context, a *app.App) error {
				ack, err := a.Pod.Write(ctx, args[0], ds)
				if err != nil {
					return errors.Wrapf(err, "write %s", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), ack)
				return nil
			})
		},
	}
	return cmd
}

func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), errors.Wrap(err, "read stdin")
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", name)
	}
	return string(b), nil
}

func Grants(c config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grants",
		Short: "list the access grants held for the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, c, func(ctx context.Context, a *app.App) error {
				grants, err := a.Grants.ListAccessGrants(ctx)
				if err != nil {
					return errors.Wrap(err, "list access grants")
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEXPIRES\tRESOURCES")
				for _, g := range grants {
					expires := "-"
					if g.ExpirationDate != nil {
						expires = g.ExpirationDate.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%s\t%d\n", g.ID, expires, len(g.Resources()))
				}
				return w.Flush()
			})
		},
	}
	return cmd
}
