package cli

import (
	"github.com/spf13/cobra"

	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/inventory"
)

// AdjustStockOptions holds flags for the adjust-stock command.
type AdjustStockOptions struct {
	*RootOptions
	Delta float64
}

// NewAdjustStockCommand creates the adjust-stock command.
func NewAdjustStockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdjustStockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "adjust-stock <id>",
		Short: "Add or remove units of an inventory item",
		Long: `Add (positive) or remove (negative) units of an inventory item of the
session's tenant. Stock never drops below zero.

Example:
  tenantdeskctl adjust-stock 3f2a... --delta -2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := opts.actor(ctx)
			if err != nil {
				return err
			}
			scope := actor.Scope()
			if scope.IsNone() {
				return WrapExitError(ExitCommandError, "adjust-stock needs a tenant session", domain.ErrForbidden)
			}

			item, err := inventory.NewService(opts.app.Data).AdjustStock(ctx, scope, args[0], opts.Delta)
			if err != nil {
				return failed("adjust-stock", err)
			}
			return opts.formatter(cmd).Success(item)
		},
	}

	cmd.Flags().Float64Var(&opts.Delta, "delta", 0, "units to add or remove")
	_ = cmd.MarkFlagRequired("delta")

	return cmd
}

