package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
)

var deleteOpts selection

func runDelete(ctx context.Context, w io.Writer, a *adapter.Adapter, dn string, opts selection) error {
	q, err := opts.query(dn)
	if err != nil {
		return err
	}

	res, err := a.Delete(ctx, q)
	if err != nil {
		return err
	}
	return printResult(w, "Deleted", res)
}

var deleteCmd = &cobra.Command{
	Use:   "delete [dn]",
	Short: "Delete matching entries",
	Example: `  ldapq delete cn=alice,ou=people,dc=example,dc=com
  ldapq delete -w cn:like:tmp-%`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dn string
		if len(args) > 0 {
			dn = args[0]
		}
		return runDelete(cmd.Context(), cmd.OutOrStdout(), dir, dn, deleteOpts)
	},
}

func init() {
	deleteCmd.Flags().StringArrayVarP(&deleteOpts.conditions, "where", "w", nil, "condition as field:operator:value (repeatable)")
	deleteCmd.Flags().BoolVar(&deleteOpts.all, "all", false, "delete every entry when no DN or condition is given")
}
