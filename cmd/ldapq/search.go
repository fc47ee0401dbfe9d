package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

type searchOptions struct {
	conditions []string
	fields     []string
	base       string
	scope      string
	limit      int
	filterOnly bool
}

var searchOpts searchOptions

// query builds the search. The DN is always read; fields default to the
// connection's attributes.
func (o searchOptions) query(defaults []string) (*adapter.Query, error) {
	conditions, err := parseConditions(o.conditions)
	if err != nil {
		return nil, err
	}

	q := &adapter.Query{
		Conditions: conditions,
		BaseDN:     o.base,
		Limit:      o.limit,
	}

	if o.scope != "" {
		scope, err := ldap.ParseScope(o.scope)
		if err != nil {
			return nil, err
		}
		q.Scope = &scope
	}

	fields := o.fields
	if len(fields) == 0 {
		fields = defaults
	}
	q.Fields = append([]string{adapter.DNField}, fields...)

	return q, nil
}

func runSearch(ctx context.Context, w io.Writer, a *adapter.Adapter, opts searchOptions) error {
	q, err := opts.query(a.Config().Attributes)
	if err != nil {
		return err
	}

	if opts.filterOnly {
		filter, err := a.Filter(ctx, q)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, filter)
		return err
	}

	found, err := a.ReadMany(ctx, q)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printEntriesJSON(w, found)
	}
	return printEntriesTable(w, found, q.Fields[1:])
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search entries matching conditions",
	Example: `  ldapq search -w objectClass:eq:person -w cn:like:a% -f cn,mail
  ldapq search -w uidNumber:gte:1000 --scope one --limit 10
  ldapq search -w sn:ne:Smith --filter`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd.Context(), cmd.OutOrStdout(), dir, searchOpts)
	},
}

func init() {
	searchCmd.Flags().StringArrayVarP(&searchOpts.conditions, "where", "w", nil, "condition as field:operator:value (repeatable)")
	searchCmd.Flags().StringSliceVarP(&searchOpts.fields, "fields", "f", nil, "attributes to read")
	searchCmd.Flags().StringVar(&searchOpts.base, "base", "", "search base DN (default from connection)")
	searchCmd.Flags().StringVar(&searchOpts.scope, "scope", "", "search scope: base, one or sub")
	searchCmd.Flags().IntVar(&searchOpts.limit, "limit", 0, "maximum number of entries")
	searchCmd.Flags().BoolVar(&searchOpts.filterOnly, "filter", false, "print the search filter instead of searching")
}
