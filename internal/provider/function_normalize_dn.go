package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/function"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

var _ function.Function = &NormalizeDNFunction{}

func NewNormalizeDNFunction() function.Function {
	return &NormalizeDNFunction{}
}

// NormalizeDNFunction implements the normalize_dn function.
type NormalizeDNFunction struct{}

func (f NormalizeDNFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "normalize_dn"
}

func (f NormalizeDNFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:             "Normalize a distinguished name",
		MarkdownDescription: "Lowercases attribute types and removes spacing around separators, so that equal DNs compare equal as strings.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:                "dn",
				MarkdownDescription: "The distinguished name to normalize.",
			},
		},
		Return: function.StringReturn{},
	}
}

func (f NormalizeDNFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var dn string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &dn))
	if resp.Error != nil {
		return
	}

	normalized, err := ldap.NormalizeDN(dn)
	if err != nil {
		resp.Error = function.NewArgumentFuncError(0, err.Error())
		return
	}

	resp.Error = resp.Result.Set(ctx, normalized)
}
