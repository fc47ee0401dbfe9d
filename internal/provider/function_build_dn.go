package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/function"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

var _ function.Function = &BuildDNFunction{}

func NewBuildDNFunction() function.Function {
	return &BuildDNFunction{}
}

// BuildDNFunction implements the build_dn function.
type BuildDNFunction struct{}

// Metadata returns the function name.
func (f BuildDNFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "build_dn"
}

// Definition returns the function schema including parameters and return types.
func (f BuildDNFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:     "Build a distinguished name from an RDN and a parent DN",
		Description: "Escapes value as an RDN value and joins attribute=value onto the parent DN. An empty parent yields the RDN alone.",
		MarkdownDescription: "Escapes `value` as an RDN value and joins `attribute=value` onto `parent`.\n\n" +
			"- Special characters (`,`, `+`, `\"`, `\\`, `<`, `>`, `;`) are escaped\n" +
			"- Leading `#` and leading or trailing spaces are escaped\n" +
			"- An empty `parent` yields the RDN alone",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:                "attribute",
				MarkdownDescription: "The naming attribute, e.g. `cn`.",
			},
			function.StringParameter{
				Name:                "value",
				MarkdownDescription: "The unescaped naming value.",
			},
			function.StringParameter{
				Name:                "parent",
				MarkdownDescription: "The parent DN, e.g. `ou=people,dc=example,dc=com`.",
			},
		},
		Return: function.StringReturn{},
	}
}

// Run implements the function logic.
func (f BuildDNFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var attribute, value, parent string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &attribute, &value, &parent))
	if resp.Error != nil {
		return
	}

	dn, err := ldap.BuildDN(attribute, value, parent)
	if err != nil {
		resp.Error = function.NewFuncError(err.Error())
		return
	}

	resp.Error = resp.Result.Set(ctx, dn)
}
