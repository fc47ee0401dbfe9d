package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
)

// selection picks the entries a write applies to: one DN, or the entries
// matching conditions. Matching everything takes --all.
type selection struct {
	conditions []string
	all        bool
}

func (s selection) query(dn string) (*adapter.Query, error) {
	if dn != "" {
		if len(s.conditions) > 0 {
			return nil, errors.New("a DN and conditions cannot be combined")
		}
		return adapter.DNQuery(dn), nil
	}

	conditions, err := parseConditions(s.conditions)
	if err != nil {
		return nil, err
	}
	if len(conditions) == 0 && !s.all {
		return nil, errors.New("a DN or conditions are required; use --all to match every entry")
	}

	return adapter.NewQuery(nil, conditions...), nil
}

type updateOptions struct {
	selection
	sets   []string
	unsets []string
}

var updateOpts updateOptions

func runUpdate(ctx context.Context, w io.Writer, a *adapter.Adapter, dn string, opts updateOptions) error {
	q, err := opts.query(dn)
	if err != nil {
		return err
	}

	changes, err := parseAssignments(opts.sets, opts.unsets)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return errors.New("nothing to change: use --set or --unset")
	}

	res, err := a.Update(ctx, changes, q)
	if err != nil {
		return err
	}
	return printResult(w, "Modified", res)
}

var updateCmd = &cobra.Command{
	Use:   "update [dn]",
	Short: "Modify attributes of matching entries",
	Example: `  ldapq update cn=alice,ou=people,dc=example,dc=com --set mail=alice@example.com --unset description
  ldapq update -w department:eq:Sales --set l=London`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dn string
		if len(args) > 0 {
			dn = args[0]
		}
		return runUpdate(cmd.Context(), cmd.OutOrStdout(), dir, dn, updateOpts)
	},
}

func init() {
	updateCmd.Flags().StringArrayVarP(&updateOpts.conditions, "where", "w", nil, "condition as field:operator:value (repeatable)")
	updateCmd.Flags().BoolVar(&updateOpts.all, "all", false, "modify every entry when no DN or condition is given")
	updateCmd.Flags().StringArrayVar(&updateOpts.sets, "set", nil, "attribute as name=value (repeatable)")
	updateCmd.Flags().StringArrayVar(&updateOpts.unsets, "unset", nil, "attribute to remove (repeatable)")
}
