package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

type createOptions struct {
	classes []string
	sets    []string
	rdn     string
	parent  string
}

var createOpts createOptions

// entry assembles the entry to add. Without an explicit DN one is built from
// --rdn under --parent, or under base when no parent is given; the RDN value
// is also set as an attribute.
func (o createOptions) entry(dn, base string) (*adapter.Entry, error) {
	attrs, err := parseAssignments(o.sets, nil)
	if err != nil {
		return nil, err
	}

	if dn == "" {
		if o.rdn == "" {
			return nil, errors.New("a DN or --rdn is required")
		}
		name, value, ok := strings.Cut(o.rdn, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid --rdn %q: expected attribute=value", o.rdn)
		}

		parent := o.parent
		if parent == "" {
			parent = base
		}
		if dn, err = ldap.BuildDN(name, value, parent); err != nil {
			return nil, err
		}
		if _, ok := attrs[name]; !ok {
			attrs[name] = value
		}
	}

	return adapter.NewEntry(dn, attrs, o.classes...), nil
}

func runCreate(ctx context.Context, w io.Writer, a *adapter.Adapter, dn string, opts createOptions) error {
	entry, err := opts.entry(dn, a.Config().Base)
	if err != nil {
		return err
	}

	res, err := a.Create(ctx, []adapter.Resource{entry})
	if err != nil {
		return err
	}
	if err := printResult(w, "Created", res); err != nil {
		if ldap.IsConflictError(err) {
			return fmt.Errorf("entry %s already exists: %w", entry.DN(), err)
		}
		return err
	}
	return nil
}

var createCmd = &cobra.Command{
	Use:   "create [dn]",
	Short: "Add an entry",
	Example: `  ldapq create cn=alice,ou=people,dc=example,dc=com --class person --set cn=alice --set sn=Smith
  ldapq create --rdn uid=bob --parent ou=people,dc=example,dc=com --class inetOrgPerson --set cn=Bob --set sn=Jones`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dn string
		if len(args) > 0 {
			dn = args[0]
		}
		return runCreate(cmd.Context(), cmd.OutOrStdout(), dir, dn, createOpts)
	},
}

func init() {
	createCmd.Flags().StringArrayVar(&createOpts.classes, "class", nil, "object class (repeatable)")
	createCmd.Flags().StringArrayVar(&createOpts.sets, "set", nil, "attribute as name=value (repeatable)")
	createCmd.Flags().StringVar(&createOpts.rdn, "rdn", "", "relative DN as attribute=value, when no DN is given")
	createCmd.Flags().StringVar(&createOpts.parent, "parent", "", "parent DN for --rdn (default from connection)")
}
