package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

var (
	uri        string
	configPath string
	strict     bool
	jsonOutput bool
	verbose    bool

	dir *adapter.Adapter
)

// connect opens the directory named by the global flags.
var connect = func(ctx context.Context) (*adapter.Adapter, error) {
	var opts []adapter.Option
	if strict {
		opts = append(opts, adapter.WithStrictConditions())
	}

	switch {
	case uri != "":
		return adapter.NewFromURI(ctx, uri, opts...)
	case configPath != "":
		options, err := loadOptions(configPath)
		if err != nil {
			return nil, err
		}
		return adapter.NewFromOptions(ctx, options, opts...)
	}

	return nil, errors.New("no directory configured: set --uri, --config or LDAP_URI")
}

// logLevel prefers LDAPQ_LOG, then --verbose.
func logLevel(verbose bool) hclog.Level {
	if level := hclog.LevelFromString(os.Getenv("LDAPQ_LOG")); level != hclog.NoLevel {
		return level
	}
	if verbose {
		return hclog.Debug
	}
	return hclog.Warn
}

func newLogContext(ctx context.Context, verbose bool) context.Context {
	ctx = tfsdklog.NewRootProviderLogger(ctx,
		tfsdklog.WithLogName("ldapq"),
		tfsdklog.WithLevel(logLevel(verbose)),
	)
	return ldap.WithSubsystems(ctx)
}

var rootCmd = &cobra.Command{
	Use:          "ldapq",
	Short:        "Query and modify an LDAP directory",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx := newLogContext(cmd.Context(), verbose)
		cmd.SetContext(ctx)

		var err error
		dir, err = connect(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to directory: %w", err)
		}
		if err := dir.BindErr(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dir != nil {
			dir.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&uri, "uri", os.Getenv("LDAP_URI"), "connection URI, e.g. ldap://host/dc=example,dc=com?cn,mail?sub")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file of connection options")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "reject conditions with unknown operators")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log directory operations to stderr")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
