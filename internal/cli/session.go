package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gosuda/tenantdesk/internal/auth"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Email    string
	Password string //nolint:gosec // G117: credential flag
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session in the local cache",
		Long: `Sign in with an account email and password, or with the platform owner
credential from TENANTDESK_OWNER_EMAIL / TENANTDESK_OWNER_PASSWORD.

Example:
  tenantdeskctl login --email admin@demo.local --password demo1234`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc := auth.NewService(opts.app.Data, auth.Owner{
				Email:    opts.cfg.Owner.Email,
				Password: opts.cfg.Owner.Password,
			}, opts.cfg.JWT.Secret, opts.cfg.JWT.AccessTTL, opts.cfg.JWT.RefreshTTL)

			actor, err := svc.Authenticate(ctx, opts.Email, opts.Password)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidCredentials) {
					return WrapExitError(ExitFailure, "login", err)
				}
				return failed("login", err)
			}

			if err := opts.app.Session.Save(ctx, actor); err != nil {
				return failed("save session", err)
			}
			return opts.formatter(cmd).Success(actor)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rootOpts.app.Session.Clear(cmd.Context()); err != nil {
				return failed("logout", err)
			}
			return rootOpts.formatter(cmd).Success("logged out")
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in actor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actor, err := rootOpts.actor(cmd.Context())
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(actor)
		},
	}
}
