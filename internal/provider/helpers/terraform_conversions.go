// Package helpers provides conversions between Terraform values and the plain
// Go values the adapter works with.
package helpers

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
)

// TerraformValueToGo converts a Terraform value into its Go counterpart.
// Collections become []any or map[string]any. Null becomes nil and unknown
// values are an error.
func TerraformValueToGo(ctx context.Context, value attr.Value) (any, error) {
	if value.IsNull() {
		return nil, nil
	}
	if value.IsUnknown() {
		return nil, fmt.Errorf("cannot process unknown values")
	}

	switch v := value.(type) {
	case types.String:
		return v.ValueString(), nil
	case types.Int64:
		return v.ValueInt64(), nil
	case types.Float64:
		return v.ValueFloat64(), nil
	case types.Bool:
		return v.ValueBool(), nil
	case types.List:
		return elementsToGo(ctx, v.Elements())
	case types.Set:
		return elementsToGo(ctx, v.Elements())
	case types.Map:
		return MapToGo(ctx, v)
	case types.Dynamic:
		return TerraformValueToGo(ctx, v.UnderlyingValue())
	case basetypes.StringValuable:
		// Custom string types such as DNStringValue.
		s, diags := v.ToStringValue(ctx)
		if diags.HasError() {
			return nil, fmt.Errorf("failed to convert %T to string", value)
		}
		return s.ValueString(), nil
	}

	return nil, fmt.Errorf("unsupported type: %T", value)
}

// MapToGo converts a Terraform map into a map of Go values.
func MapToGo(ctx context.Context, m types.Map) (map[string]any, error) {
	if m.IsNull() {
		return map[string]any{}, nil
	}
	if m.IsUnknown() {
		return nil, fmt.Errorf("cannot process unknown values")
	}

	result := make(map[string]any, len(m.Elements()))
	for key, elem := range m.Elements() {
		goVal, err := TerraformValueToGo(ctx, elem)
		if err != nil {
			return nil, fmt.Errorf("failed to convert map element %s: %w", key, err)
		}
		result[key] = goVal
	}
	return result, nil
}

func elementsToGo(ctx context.Context, elements []attr.Value) ([]any, error) {
	result := make([]any, len(elements))
	for i, elem := range elements {
		goVal, err := TerraformValueToGo(ctx, elem)
		if err != nil {
			return nil, err
		}
		result[i] = goVal
	}
	return result, nil
}

// StringsFromList extracts the known string elements of a list or set.
func StringsFromList(ctx context.Context, value attr.Value) ([]string, diag.Diagnostics) {
	var out []string
	var diags diag.Diagnostics

	switch v := value.(type) {
	case types.List:
		if v.IsNull() || v.IsUnknown() {
			return nil, nil
		}
		diags.Append(v.ElementsAs(ctx, &out, false)...)
	case types.Set:
		if v.IsNull() || v.IsUnknown() {
			return nil, nil
		}
		diags.Append(v.ElementsAs(ctx, &out, false)...)
	default:
		diags.AddError("Unexpected Value Type", fmt.Sprintf("expected list or set of strings, got %T", value))
	}

	return out, diags
}

// StringMapValue builds a known map(string) value.
func StringMapValue(values map[string]string) types.Map {
	elements := make(map[string]attr.Value, len(values))
	for key, value := range values {
		elements[key] = types.StringValue(value)
	}
	return types.MapValueMust(types.StringType, elements)
}

// SortedKeys returns the keys of m in order.
func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
