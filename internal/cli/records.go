package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Sort string
	Desc bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List the records of a collection visible to the session",
		Long: `List the records of a collection visible to the signed-in actor.

Example:
  tenantdeskctl list inventory --sort name`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := opts.actor(ctx)
			if err != nil {
				return err
			}
			coll, err := lookup(args[0])
			if err != nil {
				return err
			}

			recs, err := opts.app.Data.FetchAll(ctx, actor.Scope(), coll)
			if err != nil {
				return failed("list", err)
			}
			recs = coll.ReadableBy(actor, recs)
			if opts.Sort != "" {
				domain.SortBy(recs, opts.Sort, opts.Desc)
			}
			return opts.formatter(cmd).Success(recs)
		},
	}

	cmd.Flags().StringVar(&opts.Sort, "sort", "", "field to sort by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "sort descending")

	return cmd
}

// DataOptions holds the --data flag of write commands.
type DataOptions struct {
	*RootOptions
	Data string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <collection>",
		Short: "Insert one record",
		Long: `Insert one record. An id is generated when the record has none, and the
record is stamped with the session's tenant.

Example:
  tenantdeskctl add inventory --data '{"name":"Screen","quantity":3}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := opts.actor(ctx)
			if err != nil {
				return err
			}
			coll, err := writable(actor, args[0])
			if err != nil {
				return err
			}
			rec, err := parseRecord(opts.Data)
			if err != nil {
				return err
			}

			saved, err := opts.app.Data.InsertOne(ctx, actor.Scope(), coll, rec)
			if err != nil {
				return failed("add", err)
			}
			return opts.formatter(cmd).Success(saved)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "record as a JSON object")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <collection> <id>",
		Short: "Merge fields into one record",
		Long: `Merge the given fields into the record with this id. Updating a record
of another tenant does nothing.

Example:
  tenantdeskctl update inventory 3f2a... --data '{"price":50}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := opts.actor(ctx)
			if err != nil {
				return err
			}
			coll, err := writable(actor, args[0])
			if err != nil {
				return err
			}
			partial, err := parseRecord(opts.Data)
			if err != nil {
				return err
			}

			if err := opts.app.Data.UpdateOne(ctx, actor.Scope(), coll, args[1], partial); err != nil {
				return failed("update", err)
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("updated %s/%s", coll.Name, args[1]))
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "fields as a JSON object")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := rootOpts.actor(ctx)
			if err != nil {
				return err
			}
			coll, err := writable(actor, args[0])
			if err != nil {
				return err
			}

			if err := rootOpts.app.Data.DeleteOne(ctx, actor.Scope(), coll, args[1]); err != nil {
				return failed("delete", err)
			}
			return rootOpts.formatter(cmd).Success(fmt.Sprintf("deleted %s/%s", coll.Name, args[1]))
		},
	}
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <collection>",
		Short: "Replace the session's slice of a collection",
		Long: `Upsert the given records remotely and make them the session tenant's
entire local slice of the collection.

Example:
  tenantdeskctl save finance_categories --data '[{"name":"Parts"},{"name":"Labor"}]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := opts.actor(ctx)
			if err != nil {
				return err
			}
			coll, err := writable(actor, args[0])
			if err != nil {
				return err
			}

			var recs []domain.Record
			if err := json.Unmarshal([]byte(opts.Data), &recs); err != nil {
				return WrapExitError(ExitCommandError, "--data must be a JSON array of objects", err)
			}

			if err := opts.app.Data.Save(ctx, actor.Scope(), coll, recs); err != nil {
				return failed("save", err)
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("saved %d records to %s", len(recs), coll.Name))
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "records as a JSON array")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func parseRecord(data string) (domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, WrapExitError(ExitCommandError, "--data must be a JSON object", err)
	}
	if rec == nil {
		return nil, NewExitError(ExitCommandError, "--data must be a JSON object")
	}
	return rec, nil
}

// writable resolves a collection the session is about to modify.
func writable(actor *domain.Actor, name string) (domain.Collection, error) {
	coll, err := lookup(name)
	if err != nil {
		return domain.Collection{}, err
	}
	if !coll.WritableBy(actor) {
		return domain.Collection{}, NewExitError(ExitCommandError, "platform owner required to modify "+coll.Name)
	}
	return coll, nil
}
