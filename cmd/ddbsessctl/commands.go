package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/ddbsession"
)

func newGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id] [attribute]",
		Short: "print a namespace, or one attribute of it, as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ns := e.app.backend.Namespace(args[0])
			if err := ns.Open(ctx, ddbsession.ModeRead, false); err != nil {
				return err
			}
			defer ns.Close(ctx)

			key := ddbsession.SessionKey
			if len(args) == 2 {
				key = args[1]
			}
			v, ok := ns.Get(key)
			if !ok {
				return fmt.Errorf("%s: no attribute %q", args[0], key)
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}

func newKeysCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "keys [id]",
		Short: "list attribute names of a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ns := e.app.backend.Namespace(args[0])
			if err := ns.Open(ctx, ddbsession.ModeRead, false); err != nil {
				return err
			}
			defer ns.Close(ctx)
			for _, k := range ns.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newSetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set [id] [attribute] [value]",
		Short: "set an attribute; value is parsed as JSON, else taken as a string",
		Long: `Set an attribute. Values that parse as JSON are stored decoded, anything
else is stored as a plain string. Setting "session" to a JSON object merges
its fields into the namespace.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.write(cmd, args[0], func(ns *ddbsession.Namespace) error {
				return ns.Set(args[1], parseValue(args[2]))
			})
		},
	}
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id] [attribute]",
		Short: `delete an attribute; "session" clears everything but the id`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.write(cmd, args[0], func(ns *ddbsession.Namespace) error {
				return ns.Delete(args[1])
			})
		},
	}
}

func newRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "remove the stored namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.app.backend.Namespace(args[0]).Remove(cmd.Context())
		},
	}
}

// write opens id for writing, applies fn and closes, which saves the changes.
func (e *env) write(cmd *cobra.Command, id string, fn func(*ddbsession.Namespace) error) error {
	ctx := cmd.Context()
	ns := e.app.backend.Namespace(id)
	if err := ns.Open(ctx, ddbsession.ModeWrite, false); err != nil {
		return err
	}
	if err := fn(ns); err != nil {
		_ = ns.Close(ctx)
		return err
	}
	if e.app.touch {
		if err := ns.Set(e.app.attr, float64(time.Now().UnixMilli())/1000); err != nil {
			return err
		}
	}
	return ns.Close(ctx)
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
