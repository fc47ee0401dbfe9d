package validators_test

import (
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/isometry/terraform-provider-ldap/internal/provider/validators"
)

func TestOperatorValidator(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		val         types.String
		expectError bool
	}{
		"canonical":          {val: types.StringValue("gte")},
		"alias":              {val: types.StringValue(">=")},
		"upper case":         {val: types.StringValue("LIKE")},
		"not equal alias":    {val: types.StringValue("!=")},
		"unsupported":        {val: types.StringValue("between"), expectError: true},
		"empty":              {val: types.StringValue(""), expectError: true},
		"null is skipped":    {val: types.StringNull()},
		"unknown is skipped": {val: types.StringUnknown()},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			response := validator.StringResponse{}
			validators.IsValidOperator().ValidateString(t.Context(), validator.StringRequest{
				Path:        path.Root("operator"),
				ConfigValue: test.val,
			}, &response)

			if response.Diagnostics.HasError() != test.expectError {
				t.Fatalf("expected error=%v, got diagnostics: %s", test.expectError, response.Diagnostics)
			}

			if test.expectError && !strings.Contains(response.Diagnostics[0].Detail(), "eql, lt, gt, lte, gte, not, like") {
				t.Errorf("expected supported operators in detail, got %q", response.Diagnostics[0].Detail())
			}
		})
	}
}
