package cli

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-pod-app/endpoints"
	"github.com/jrsteele09/go-pod-app/identity"
	"github.com/jrsteele09/go-pod-app/internal/app"
	"github.com/jrsteele09/go-pod-app/internal/config"
	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
	"github.com/jrsteele09/go-pod-app/sessions"
	"github.com/jrsteele09/go-pod-app/view"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type sessionOutput struct {
	Session  *sessions.Info   `json:"session"`
	Identity *identity.Claims `json:"identity,omitempty"`
}

func Session(c config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "print the backend session information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, c, func(ctx context.Context, a *app.App) error {
				out := sessionOutput{Session: a.Store.Current()}
				claims, err := a.Main.Identity(ctx)
				if err != nil && !errors.Is(err, apperrors.ErrNoSession) {
					return errors.Wrap(err, "resolve identity")
				}
				out.Identity = claims
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	return cmd
}

func LoginURL(c config.Config) *cobra.Command {
	var switchIdentity, saveTokens bool
	cmd := &cobra.Command{
		Use:   "login-url",
		Short: "print the URL that starts a backend login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eps, err := endpoints.New(c.GetFrontendURL(), c.GetBackendURL(), c.GetConsentURL())
			if err != nil {
				return err
			}
			if switchIdentity && saveTokens {
				return errors.New("--switch-identity and --save-tokens cannot be combined")
			}
			u := eps.Login(switchIdentity)
			if saveTokens {
				u = eps.SaveTokens()
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&switchIdentity, "switch-identity", false, "log in under another identity")
	cmd.Flags().BoolVar(&saveTokens, "save-tokens", false, "log in asking the backend to keep the identity provider tokens")
	return cmd
}

func RequestAccess(c config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request-access",
		Short: "issue an access request for the pod root and print the consent URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, c, func(ctx context.Context, a *app.App) error {
				nav, err := a.Main.IssueAccessRequest(ctx)
				if err != nil {
					return errors.Wrap(err, "issue access request")
				}
				fmt.Fprintln(cmd.OutOrStdout(), nav.Location)
				return nil
			})
		},
	}
	return cmd
}

// SubmitGrant applies an access grant the way the main page does when the
// consent authority redirects back with it.
func SubmitGrant(c config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-grant <access-grant-id>",
		Short: "install an access grant in the backend session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, c, func(ctx context.Context, a *app.App) error {
				query := url.Values{view.AccessGrantParam: {args[0]}}
				if err := a.Main.Load(ctx, query); err != nil {
					return errors.Wrap(err, "submit access grant")
				}
				info := a.Store.Current()
				if info != nil && info.AccessGrantID != nil {
					fmt.Fprintln(cmd.OutOrStdout(), *info.AccessGrantID)
				}
				return nil
			})
		},
	}
	return cmd
}
