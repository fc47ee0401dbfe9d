package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
	"github.com/isometry/terraform-provider-ldap/internal/provider/helpers"
	"github.com/isometry/terraform-provider-ldap/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &EntriesDataSource{}
var _ datasource.DataSourceWithConfigure = &EntriesDataSource{}

func NewEntriesDataSource() datasource.DataSource {
	return &EntriesDataSource{}
}

// EntriesDataSource searches the directory with a list of conditions.
type EntriesDataSource struct {
	data *ProviderData
}

// EntriesDataSourceModel describes the data source data model.
type EntriesDataSourceModel struct {
	// Search configuration
	Base       types.String     `tfsdk:"base"`      // Optional search base, defaults to the provider base
	Scope      types.String     `tfsdk:"scope"`     // base, one or sub
	Fields     types.List       `tfsdk:"fields"`    // Attributes to read
	Limit      types.Int64      `tfsdk:"limit"`     // Maximum entries, 0 for the server limit
	Conditions []ConditionModel `tfsdk:"condition"` // ANDed conditions

	// Output
	Filter  types.String `tfsdk:"filter"`  // Effective search filter
	Entries types.List   `tfsdk:"entries"` // Matching entries
	ID      types.String `tfsdk:"id"`      // Computed identifier for the data source
}

// ConditionModel describes one condition block.
type ConditionModel struct {
	Field    types.String `tfsdk:"field"`
	Operator types.String `tfsdk:"operator"`
	Value    types.String `tfsdk:"value"`
}

var entryObjectType = types.ObjectType{
	AttrTypes: map[string]attr.Type{
		"dn":         types.StringType,
		"attributes": types.MapType{ElemType: types.StringType},
	},
}

func (d *EntriesDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_entries"
}

func (d *EntriesDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Searches the directory for entries matching all of the given conditions.",

		Attributes: map[string]schema.Attribute{
			"base": schema.StringAttribute{
				MarkdownDescription: "The DN to search from. Defaults to the provider's base DN.",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidDNOrEmpty(),
				},
			},
			"scope": schema.StringAttribute{
				MarkdownDescription: "The search scope: `base`, `one` or `sub`. Defaults to the provider's scope.",
				Optional:            true,
				Validators: []validator.String{
					validators.CaseInsensitiveOneOf("base", "one", "sub"),
				},
			},
			"fields": schema.ListAttribute{
				MarkdownDescription: "Attributes to read from each entry. Defaults to the attributes of the provider URI. " +
					"The first value of each attribute is returned.",
				Optional:    true,
				ElementType: types.StringType,
			},
			"limit": schema.Int64Attribute{
				MarkdownDescription: "Maximum number of entries to return. `0` leaves the limit to the server.",
				Optional:            true,
				Validators: []validator.Int64{
					int64validator.AtLeast(0),
				},
			},

			// Output attributes
			"filter": schema.StringAttribute{
				MarkdownDescription: "The search filter the conditions translated to.",
				Computed:            true,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "A computed identifier for this data source instance.",
				Computed:            true,
			},
			"entries": schema.ListNestedAttribute{
				MarkdownDescription: "Entries matching the search, in server order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"dn": schema.StringAttribute{
							MarkdownDescription: "The distinguished name of the entry.",
							Computed:            true,
						},
						"attributes": schema.MapAttribute{
							MarkdownDescription: "The selected attributes the entry carries.",
							Computed:            true,
							ElementType:         types.StringType,
						},
					},
				},
			},
		},

		Blocks: map[string]schema.Block{
			"condition": schema.ListNestedBlock{
				MarkdownDescription: "A condition on an attribute. All conditions must match (AND logic).",
				NestedObject: schema.NestedBlockObject{
					Attributes: map[string]schema.Attribute{
						"field": schema.StringAttribute{
							MarkdownDescription: "The attribute to compare.",
							Required:            true,
							Validators: []validator.String{
								stringvalidator.RegexMatches(ldap.AttributeNamePattern, "must be an attribute name or numeric OID"),
							},
						},
						"operator": schema.StringAttribute{
							MarkdownDescription: "One of `eql`, `lt`, `gt`, `lte`, `gte`, `not` or `like`. " +
								"`like` treats `%` in the value as a wildcard.",
							Required: true,
							Validators: []validator.String{
								validators.IsValidOperator(),
							},
						},
						"value": schema.StringAttribute{
							MarkdownDescription: "The value to compare against.",
							Required:            true,
						},
					},
				},
			},
		},
	}
}

func (d *EntriesDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	pd, err := providerDataFrom(req.ProviderData)
	if err != nil {
		resp.Diagnostics.AddError("Unexpected Data Source Configure Type", err.Error())
		return
	}

	d.data = pd
}

func (d *EntriesDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data EntriesDataSourceModel

	ctx = initializeLogging(ctx)
	logCompletion := ldap.LogDataSourceOperation(ctx, "ldap_entries", "read", nil)
	defer func() { logCompletion(diagnosticsError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	q, diags := d.buildQuery(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	filter, err := d.data.Filter(ctx, q)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Building Search Filter",
			fmt.Sprintf("Could not build search filter: %s", err.Error()),
		)
		return
	}

	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Searching directory entries", map[string]any{
		"base":   q.BaseDN,
		"filter": filter,
		"fields": q.Fields,
		"limit":  q.Limit,
	})

	found, err := d.data.ReadMany(ctx, q)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Searching Entries",
			fmt.Sprintf("Could not search directory entries: %s", err.Error()),
		)
		return
	}

	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Found directory entries", map[string]any{
		"count": len(found),
	})

	entries, diags := entriesValue(found)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.Filter = types.StringValue(filter)
	data.Entries = entries
	data.ID = types.StringValue(q.BaseDN + "|" + filter)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// buildQuery converts the configuration into an adapter query. The DN is
// always read; other fields default to the provider's attributes.
func (d *EntriesDataSource) buildQuery(ctx context.Context, data *EntriesDataSourceModel) (*adapter.Query, diag.Diagnostics) {
	var diags diag.Diagnostics

	q := &adapter.Query{BaseDN: d.data.BaseDN()}
	if base := data.Base.ValueString(); base != "" {
		q.BaseDN = base
	}

	if !data.Scope.IsNull() && data.Scope.ValueString() != "" {
		scope, err := ldap.ParseScope(data.Scope.ValueString())
		if err != nil {
			diags.AddError("Invalid Scope", err.Error())
			return nil, diags
		}
		q.Scope = &scope
	}

	if !data.Limit.IsNull() {
		q.Limit = int(data.Limit.ValueInt64())
	}

	fields, fieldDiags := helpers.StringsFromList(ctx, data.Fields)
	diags.Append(fieldDiags...)
	if len(fields) == 0 {
		fields = d.data.DefaultAttributes()
	}
	q.Fields = append([]string{adapter.DNField}, fields...)

	for _, c := range data.Conditions {
		op, ok := adapter.ParseOperator(c.Operator.ValueString())
		if !ok {
			diags.AddError(
				"Unsupported Condition Operator",
				fmt.Sprintf("Operator %q on field %q is not supported.", c.Operator.ValueString(), c.Field.ValueString()),
			)
			continue
		}
		q.Where(c.Field.ValueString(), op, c.Value.ValueString())
	}

	return q, diags
}

// entriesValue converts search results to the entries list.
func entriesValue(resources []adapter.Resource) (types.List, diag.Diagnostics) {
	var diags diag.Diagnostics

	elements := make([]attr.Value, 0, len(resources))
	for _, r := range resources {
		values := make(map[string]string, len(r.Attributes()))
		for name, value := range r.Attributes() {
			values[name] = fmt.Sprint(value)
		}

		obj, objDiags := types.ObjectValue(entryObjectType.AttrTypes, map[string]attr.Value{
			"dn":         types.StringValue(r.DN()),
			"attributes": helpers.StringMapValue(values),
		})
		diags.Append(objDiags...)
		elements = append(elements, obj)
	}

	list, listDiags := types.ListValue(entryObjectType, elements)
	diags.Append(listDiags...)
	return list, diags
}
