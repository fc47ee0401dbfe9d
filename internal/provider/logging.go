package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/diag"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

// initializeLogging registers the provider subsystem alongside the ldap and
// adapter ones. Call it at the start of every data source Read and resource
// CRUD method.
func initializeLogging(ctx context.Context) context.Context {
	ctx = ldap.WithSubsystems(ctx)
	// Pattern: TF_LOG_PROVIDER_LDAP_<SUBSYSTEM>
	ctx = tflog.NewSubsystem(ctx, ldap.SubsystemProvider,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_LDAP_PROVIDER"))
	return tflog.SubsystemMaskFieldValuesWithFieldKeys(ctx, ldap.SubsystemProvider, "password")
}

// diagnosticsError reports the first error diagnostic, or nil.
func diagnosticsError(diags diag.Diagnostics) error {
	for _, d := range diags.Errors() {
		return fmt.Errorf("%s: %s", d.Summary(), d.Detail())
	}
	return nil
}
