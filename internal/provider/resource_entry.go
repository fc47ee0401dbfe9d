package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-validators/listvalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/mapvalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/listplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
	"github.com/isometry/terraform-provider-ldap/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-ldap/internal/provider/types"
	"github.com/isometry/terraform-provider-ldap/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &EntryResource{}
var _ resource.ResourceWithConfigure = &EntryResource{}
var _ resource.ResourceWithImportState = &EntryResource{}

func NewEntryResource() resource.Resource {
	return &EntryResource{}
}

// EntryResource manages one directory entry.
type EntryResource struct {
	data *ProviderData
}

// EntryResourceModel describes the resource data model.
type EntryResourceModel struct {
	ID            types.String              `tfsdk:"id"`             // DN as created
	DN            customtypes.DNStringValue `tfsdk:"dn"`             // Required, forces replacement
	ObjectClasses types.List                `tfsdk:"object_classes"` // Required, forces replacement
	Attributes    types.Map                 `tfsdk:"attributes"`     // Required - single-valued attributes
}

func (r *EntryResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_entry"
}

func (r *EntryResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages a directory entry. Attributes are treated as single-valued: " +
			"the first value the server returns is the one kept in state.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The distinguished name the entry was created with.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the entry (e.g., `cn=alice,ou=people,dc=example,dc=com`). " +
					"Differences in attribute type case or spacing are not treated as changes.",
				Required:   true,
				CustomType: customtypes.DNStringType{},
				Validators: []validator.String{
					validators.IsValidDN(),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"object_classes": schema.ListAttribute{
				MarkdownDescription: "Object classes of the entry (e.g., `[\"top\", \"inetOrgPerson\"]`). " +
					"Changing them recreates the entry.",
				Required:    true,
				ElementType: types.StringType,
				Validators: []validator.List{
					listvalidator.SizeAtLeast(1),
					listvalidator.UniqueValues(),
				},
				PlanModifiers: []planmodifier.List{
					listplanmodifier.RequiresReplaceIf(
						replaceIfKnownInState,
						"Changing object classes of an existing entry recreates it.",
						"Changing object classes of an existing entry recreates it.",
					),
				},
			},
			"attributes": schema.MapAttribute{
				MarkdownDescription: "Attribute values keyed by attribute name. Must include the naming attribute of the DN. " +
					"Removing a key deletes the attribute from the entry.",
				Required:    true,
				ElementType: types.StringType,
				Validators: []validator.Map{
					mapvalidator.SizeAtLeast(1),
					mapvalidator.KeysAre(
						stringvalidator.RegexMatches(ldap.AttributeNamePattern, "must be an attribute name or numeric OID"),
						stringvalidator.NoneOfCaseInsensitive(adapter.DNField, "objectClass"),
					),
				},
			},
		},
	}
}

// replaceIfKnownInState recreates the entry when object classes change, but
// not when state has none yet, as after an import.
func replaceIfKnownInState(ctx context.Context, req planmodifier.ListRequest, resp *listplanmodifier.RequiresReplaceIfFuncResponse) {
	resp.RequiresReplace = !req.StateValue.IsNull()
}

func (r *EntryResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	pd, err := providerDataFrom(req.ProviderData)
	if err != nil {
		resp.Diagnostics.AddError("Unexpected Resource Configure Type", err.Error())
		return
	}

	r.data = pd
}

func (r *EntryResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data EntryResourceModel

	ctx = initializeLogging(ctx)
	logCompletion := ldap.LogResourceOperation(ctx, "ldap_entry", "create", nil)
	defer func() { logCompletion(diagnosticsError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	dn := data.DN.ValueString()
	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Creating directory entry", map[string]any{
		"dn": dn,
	})

	classes, diags := helpers.StringsFromList(ctx, data.ObjectClasses)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	attributes, err := helpers.MapToGo(ctx, data.Attributes)
	if err != nil {
		resp.Diagnostics.AddAttributeError(path.Root("attributes"), "Invalid Attributes", err.Error())
		return
	}

	res, err := r.data.Create(ctx, adapter.NewEntry(dn, attributes, classes...))
	if err == nil {
		err = res.Err()
	}
	if ldap.IsConflictError(err) {
		resp.Diagnostics.AddError(
			"Entry Already Exists",
			fmt.Sprintf("An entry with DN %s already exists. Import it with `terraform import` to manage it: %s", dn, err.Error()),
		)
		return
	}
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Creating Entry",
			fmt.Sprintf("Could not create entry %s: %s", dn, err.Error()),
		)
		return
	}

	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Created directory entry", map[string]any{
		"dn": dn,
	})

	data.ID = types.StringValue(dn)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *EntryResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data EntryResourceModel

	ctx = initializeLogging(ctx)
	logCompletion := ldap.LogResourceOperation(ctx, "ldap_entry", "read", nil)
	defer func() { logCompletion(diagnosticsError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	dn := data.DN.ValueString()
	names := helpers.SortedKeys(data.Attributes.Elements())

	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Reading directory entry", map[string]any{
		"dn":         dn,
		"attributes": names,
	})

	found, ok, err := r.data.ReadOne(ctx, adapter.DNQuery(dn, names...))
	if err != nil && !ldap.IsNotFoundError(err) {
		resp.Diagnostics.AddError(
			"Error Reading Entry",
			fmt.Sprintf("Could not read entry %s: %s", dn, err.Error()),
		)
		return
	}
	if err != nil || !ok {
		tflog.SubsystemWarn(ctx, ldap.SubsystemProvider, "Directory entry no longer exists, removing from state", map[string]any{
			"dn": dn,
		})
		resp.State.RemoveResource(ctx)
		return
	}

	entry, isEntry := found.(*adapter.Entry)
	if !isEntry {
		resp.Diagnostics.AddError(
			"Unexpected Read Result",
			fmt.Sprintf("Expected *adapter.Entry, got: %T. Please report this issue to the provider developers.", found),
		)
		return
	}

	r.updateModelFromEntry(&data, entry, names)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *EntryResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan, state EntryResourceModel

	ctx = initializeLogging(ctx)
	logCompletion := ldap.LogResourceOperation(ctx, "ldap_entry", "update", nil)
	defer func() { logCompletion(diagnosticsError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	dn := state.DN.ValueString()
	changes, err := attributeChanges(ctx, state.Attributes, plan.Attributes)
	if err != nil {
		resp.Diagnostics.AddAttributeError(path.Root("attributes"), "Invalid Attributes", err.Error())
		return
	}

	if len(changes) == 0 {
		tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "No attribute changes detected")
		resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
		return
	}

	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Updating directory entry", map[string]any{
		"dn":      dn,
		"changes": helpers.SortedKeys(changes),
	})

	res, err := r.data.Update(ctx, changes, adapter.DNQuery(dn))
	if err == nil {
		err = res.Err()
	}
	if err == nil && res.Succeeded == 0 {
		err = fmt.Errorf("entry not found")
	}
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Updating Entry",
			fmt.Sprintf("Could not update entry %s: %s", dn, err.Error()),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *EntryResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data EntryResourceModel

	ctx = initializeLogging(ctx)
	logCompletion := ldap.LogResourceOperation(ctx, "ldap_entry", "delete", nil)
	defer func() { logCompletion(diagnosticsError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	dn := data.DN.ValueString()
	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Deleting directory entry", map[string]any{
		"dn": dn,
	})

	res, err := r.data.Delete(ctx, adapter.DNQuery(dn))
	if ldap.IsNotFoundError(err) {
		tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Directory entry already deleted", map[string]any{
			"dn": dn,
		})
		return
	}
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Deleting Entry",
			fmt.Sprintf("Could not delete entry %s: %s", dn, err.Error()),
		)
		return
	}

	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Deleted directory entry", map[string]any{
		"dn": dn,
	})
}

// ImportState accepts `<dn>` or `<dn>?<attr>,<attr>`, the attribute list
// naming what is read into state, as in a connection URI.
func (r *EntryResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	ctx = initializeLogging(ctx)
	dn, attrList, _ := strings.Cut(strings.TrimSpace(req.ID), "?")

	tflog.SubsystemDebug(ctx, ldap.SubsystemProvider, "Importing directory entry", map[string]any{
		"dn":         dn,
		"attributes": attrList,
	})

	if _, err := ldap.NormalizeDN(dn); err != nil {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			fmt.Sprintf("Expected <dn> or <dn>?<attribute>,<attribute>: %s", err.Error()),
		)
		return
	}

	placeholders := make(map[string]string)
	for _, name := range strings.Split(attrList, ",") {
		if name = strings.TrimSpace(name); name != "" {
			placeholders[name] = ""
		}
	}

	data := EntryResourceModel{
		ID:            types.StringValue(dn),
		DN:            customtypes.DNString(dn),
		ObjectClasses: types.ListNull(types.StringType),
		Attributes:    helpers.StringMapValue(placeholders),
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// updateModelFromEntry refreshes the model from a read entry. Attributes the
// entry no longer carries are dropped so that the plan re-adds them.
func (r *EntryResource) updateModelFromEntry(model *EntryResourceModel, entry *adapter.Entry, names []string) {
	if entry.DN() != "" && !customtypes.EqualDN(model.DN.ValueString(), entry.DN()) {
		model.DN = customtypes.DNString(entry.DN())
	}

	values := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := entry.Get(name); ok {
			values[name] = v
		}
	}
	model.Attributes = helpers.StringMapValue(values)
}

// attributeChanges lists the attributes whose value differs between state
// and plan. Attributes removed from the plan map to nil, deleting them.
func attributeChanges(ctx context.Context, state, plan types.Map) (map[string]any, error) {
	before, err := helpers.MapToGo(ctx, state)
	if err != nil {
		return nil, err
	}
	after, err := helpers.MapToGo(ctx, plan)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	for name, value := range after {
		if old, ok := before[name]; !ok || old != value {
			changes[name] = value
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			changes[name] = nil
		}
	}

	return changes, nil
}
