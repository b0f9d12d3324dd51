package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gosuda/tenantdesk/internal/app"
	"github.com/gosuda/tenantdesk/internal/config"
	"github.com/gosuda/tenantdesk/internal/domain"
)

// RootOptions holds global flags and the lazily opened data layer shared by
// all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	CachePath string

	cfg *config.Config
	app *app.App
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of tenantdeskctl.
func NewRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tenantdeskctl",
		Short: "Operate a TenantDesk data store from the terminal",
		Long: `tenantdeskctl reads and writes TenantDesk collections on behalf of the
signed-in actor. The session lives in the local cache, so every command
after "login" acts within that actor's tenant.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.open(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log data layer activity to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.CachePath, "cache", "", "local cache file (overrides TENANTDESK_CACHE_PATH)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewProvisionCommand(opts))
	cmd.AddCommand(NewAdjustStockCommand(opts))

	return cmd, opts
}

// Execute runs tenantdeskctl with args and releases the data layer afterwards.
// Failures are rendered on stdout in the selected format once the data layer
// is open, and on stderr before that.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd, opts := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	defer opts.Close()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		if opts.app != nil {
			_ = opts.formatter(cmd).Error(err)
		} else {
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
	}
	return err
}

func (o *RootOptions) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}
	if o.CachePath != "" {
		cfg.Cache.Path = o.CachePath
	}

	logCfg := cfg.Log
	logCfg.Level = "warn"
	if o.Verbose {
		logCfg.Level = "debug"
	}
	app.SetupLogging(logCfg, cmd.ErrOrStderr())

	a, err := app.Open(cmd.Context(), cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "open data layer", err)
	}
	o.cfg = cfg
	o.app = a
	return nil
}

// Close releases the data layer if a command opened it.
func (o *RootOptions) Close() {
	if o.app != nil {
		o.app.Close()
		o.app = nil
	}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// actor returns the signed-in actor or an ExitCommandError.
func (o *RootOptions) actor(ctx context.Context) (*domain.Actor, error) {
	a := o.app.Session.CurrentActor(ctx)
	if a == nil {
		return nil, NewExitError(ExitCommandError, `not logged in; run "tenantdeskctl login"`)
	}
	return a, nil
}

// owner returns the signed-in actor if it is the platform owner.
func (o *RootOptions) owner(ctx context.Context) (*domain.Actor, error) {
	a, err := o.actor(ctx)
	if err != nil {
		return nil, err
	}
	if a.Role != domain.RolePlatformOwner {
		return nil, WrapExitError(ExitCommandError, "platform owner required", domain.ErrForbidden)
	}
	return a, nil
}

func lookup(name string) (domain.Collection, error) {
	coll, err := domain.Lookup(name)
	if err != nil {
		return domain.Collection{}, WrapExitError(ExitCommandError, "collection "+name, err)
	}
	return coll, nil
}

// failed wraps an operation error, keeping input errors on ExitCommandError.
func failed(op string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, domain.ErrInvalidRecord) || errors.Is(err, domain.ErrUnknownCollection) || errors.Is(err, domain.ErrForbidden) {
		return WrapExitError(ExitCommandError, op, err)
	}
	return WrapExitError(ExitFailure, op, err)
}
