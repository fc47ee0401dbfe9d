package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
)

var _ validator.String = operatorValidator{}

// operatorValidator accepts the condition operators the filter translator
// understands, including their aliases.
type operatorValidator struct{}

func (v operatorValidator) Description(_ context.Context) string {
	return "value must be a supported condition operator: " + operatorList()
}

func (v operatorValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

func (v operatorValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()
	if _, ok := adapter.ParseOperator(value); ok {
		return
	}

	response.Diagnostics.AddAttributeError(
		request.Path,
		"Unsupported Condition Operator",
		fmt.Sprintf("The operator %q cannot be translated into a search filter. Supported operators: %s", value, operatorList()),
	)
}

// IsValidOperator returns a validator for condition operators.
func IsValidOperator() validator.String {
	return operatorValidator{}
}

func operatorList() string {
	names := make([]string, len(adapter.Operators))
	for i, op := range adapter.Operators {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
