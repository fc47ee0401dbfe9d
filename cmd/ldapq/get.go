package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
)

var getFields []string

func runGet(ctx context.Context, w io.Writer, a *adapter.Adapter, dn string, fields []string) error {
	if len(fields) == 0 {
		fields = a.Config().Attributes
	}

	found, ok, err := a.ReadOne(ctx, adapter.DNQuery(dn, fields...))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("entry %s not found", dn)
	}

	if jsonOutput {
		return writeJSON(w, toEntryJSON(found))
	}
	return printEntryDetail(w, found)
}

var getCmd = &cobra.Command{
	Use:   "get <dn>",
	Short: "Show a single entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGet(cmd.Context(), cmd.OutOrStdout(), dir, args[0], getFields)
	},
}

func init() {
	getCmd.Flags().StringSliceVarP(&getFields, "fields", "f", nil, "attributes to read")
}
