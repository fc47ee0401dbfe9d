package validators

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

// Ensure the implementation satisfies the expected interface.
var _ validator.String = dnValidator{}

// dnValidator validates that a string is an RFC 4514 distinguished name.
type dnValidator struct {
	allowEmpty bool
}

func (v dnValidator) Description(_ context.Context) string {
	if v.allowEmpty {
		return "value must be empty (the root DSE) or a valid Distinguished Name (DN)"
	}
	return "value must be a valid Distinguished Name (DN)"
}

func (v dnValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

func (v dnValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()
	if value == "" {
		if !v.allowEmpty {
			response.Diagnostics.AddAttributeError(
				request.Path,
				"Invalid Distinguished Name",
				"The value \"\" is not a valid Distinguished Name: DN cannot be empty",
			)
		}
		return
	}

	if _, err := ldap.NormalizeDN(value); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Distinguished Name",
			fmt.Sprintf("The value %q is not a valid Distinguished Name: %s", value, err.Error()),
		)
	}
}

// IsValidDN returns a validator which ensures that any configured
// attribute value is a valid Distinguished Name (DN).
//
// Unknown values and null values are skipped from validation.
func IsValidDN() validator.String {
	return dnValidator{}
}

// IsValidDNOrEmpty is IsValidDN that also accepts the empty DN naming the
// root DSE.
func IsValidDNOrEmpty() validator.String {
	return dnValidator{allowEmpty: true}
}
