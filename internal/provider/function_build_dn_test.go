package provider_test

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-ldap/internal/provider"
)

func runStringFunction(t *testing.T, f function.Function, args ...string) (string, *function.FuncError) {
	t.Helper()
	ctx := context.Background()

	values := make([]attr.Value, len(args))
	for i, arg := range args {
		values[i] = types.StringValue(arg)
	}

	req := function.RunRequest{Arguments: function.NewArgumentsData(values)}
	resp := function.RunResponse{Result: function.NewResultData(types.StringUnknown())}

	f.Run(ctx, req, &resp)
	if resp.Error != nil {
		return "", resp.Error
	}

	result, ok := resp.Result.Value().(types.String)
	require.True(t, ok)
	return result.ValueString(), nil
}

func TestBuildDNFunction_Metadata(t *testing.T) {
	f := provider.NewBuildDNFunction()

	var resp function.MetadataResponse
	f.Metadata(context.Background(), function.MetadataRequest{}, &resp)

	assert.Equal(t, "build_dn", resp.Name)
}

func TestBuildDNFunction_Definition(t *testing.T) {
	f := provider.NewBuildDNFunction()

	var resp function.DefinitionResponse
	f.Definition(context.Background(), function.DefinitionRequest{}, &resp)

	assert.NotEmpty(t, resp.Definition.Summary)
	require.Len(t, resp.Definition.Parameters, 3)
	assert.Equal(t, "attribute", resp.Definition.Parameters[0].GetName())
	assert.Equal(t, "value", resp.Definition.Parameters[1].GetName())
	assert.Equal(t, "parent", resp.Definition.Parameters[2].GetName())
	assert.IsType(t, function.StringReturn{}, resp.Definition.Return)
}

func TestBuildDNFunction_Run(t *testing.T) {
	tests := []struct {
		name      string
		attribute string
		value     string
		parent    string
		want      string
		wantErr   string
	}{
		{
			name:      "simple",
			attribute: "cn",
			value:     "alice",
			parent:    "ou=people,dc=example,dc=com",
			want:      "cn=alice,ou=people,dc=example,dc=com",
		},
		{
			name:      "escaped value",
			attribute: "cn",
			value:     "Doe, John",
			parent:    "ou=people,dc=example,dc=com",
			want:      `cn=Doe\, John,ou=people,dc=example,dc=com`,
		},
		{
			name:      "leading hash and trailing space",
			attribute: "ou",
			value:     "#ops ",
			parent:    "dc=example,dc=com",
			want:      `ou=\#ops\ ,dc=example,dc=com`,
		},
		{
			name:      "no parent",
			attribute: "dc",
			value:     "com",
			want:      "dc=com",
		},
		{
			name:      "missing value",
			attribute: "cn",
			parent:    "dc=example,dc=com",
			wantErr:   "RDN attribute and value are required",
		},
		{
			name:      "invalid parent",
			attribute: "cn",
			value:     "alice",
			parent:    "not a dn",
			wantErr:   "invalid parent DN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, funcErr := runStringFunction(t, provider.NewBuildDNFunction(), tt.attribute, tt.value, tt.parent)
			if tt.wantErr != "" {
				require.NotNil(t, funcErr)
				assert.Contains(t, funcErr.Error(), tt.wantErr)
				return
			}
			require.Nil(t, funcErr)
			assert.Equal(t, tt.want, got)
		})
	}
}
