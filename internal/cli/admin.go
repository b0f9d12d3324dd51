package cli

import (
	"github.com/spf13/cobra"

	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/provision"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demonstration data into an empty remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := rootOpts.owner(ctx); err != nil {
				return err
			}
			if !rootOpts.app.Data.RemoteAvailable() {
				return rootOpts.formatter(cmd).Success("remote store unavailable; nothing seeded")
			}
			if err := rootOpts.app.Data.SeedInitialData(ctx); err != nil {
				return failed("seed", err)
			}
			return rootOpts.formatter(cmd).Success("seed complete")
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [collection...]",
		Short: "Wipe collections remotely and locally",
		Long: `Delete every row of the named collections (all of them when none are
named) from the remote store and the local cache. The stored session is
cleared too.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := rootOpts.owner(ctx); err != nil {
				return err
			}

			colls := domain.Collections()
			if len(args) > 0 {
				colls = make([]domain.Collection, 0, len(args))
				for _, name := range args {
					coll, err := lookup(name)
					if err != nil {
						return err
					}
					colls = append(colls, coll)
				}
			}

			rootOpts.app.Data.ClearAll(ctx, colls)

			names := make([]string, 0, len(colls))
			for _, c := range colls {
				names = append(names, c.Name)
			}
			return rootOpts.formatter(cmd).Success(names)
		},
	}
}

// ProvisionOptions holds flags for the provision command.
type ProvisionOptions struct {
	*RootOptions
	Request provision.Request
}

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProvisionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a tenant and its administrator account",
		Long: `Create a tenant and its first administrator. Platform owner only.

Example:
  tenantdeskctl provision --name "Acme Repairs" --admin-name Alice \
    --admin-email alice@acme.test --admin-password s3cret-pass`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := opts.owner(ctx); err != nil {
				return err
			}

			res, err := provision.NewService(opts.app.Data).CreateTenant(ctx, opts.Request)
			if err != nil {
				return failed("provision", err)
			}

			out := res.Tenant.Record()
			out["admin"] = res.Admin.Actor()
			return opts.formatter(cmd).Success(out)
		},
	}

	cmd.Flags().StringVar(&opts.Request.TenantName, "name", "", "company name")
	cmd.Flags().StringVar(&opts.Request.TenantDocument, "document", "", "company tax id")
	cmd.Flags().StringVar(&opts.Request.AdminName, "admin-name", "", "administrator display name")
	cmd.Flags().StringVar(&opts.Request.AdminEmail, "admin-email", "", "administrator login email")
	cmd.Flags().StringVar(&opts.Request.AdminPassword, "admin-password", "", "administrator password (min 8 chars)")
	for _, name := range []string{"name", "admin-name", "admin-email", "admin-password"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
