package provider

import (
	"context"
	"testing"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/tfsdk"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

func condition(field, operator, value string) ConditionModel {
	return ConditionModel{
		Field:    types.StringValue(field),
		Operator: types.StringValue(operator),
		Value:    types.StringValue(value),
	}
}

func entriesConfig(t *testing.T, model EntriesDataSourceModel) tfsdk.Config {
	t.Helper()

	var schemaResp datasource.SchemaResponse
	(&EntriesDataSource{}).Schema(context.Background(), datasource.SchemaRequest{}, &schemaResp)
	require.False(t, schemaResp.Diagnostics.HasError(), "%v", schemaResp.Diagnostics)

	state := tfsdk.State{Schema: schemaResp.Schema}
	diags := state.Set(context.Background(), &model)
	require.False(t, diags.HasError(), "%v", diags)

	return tfsdk.Config{Schema: schemaResp.Schema, Raw: state.Raw}
}

func emptyEntriesModel() EntriesDataSourceModel {
	return EntriesDataSourceModel{
		Base:    types.StringNull(),
		Scope:   types.StringNull(),
		Fields:  types.ListNull(types.StringType),
		Limit:   types.Int64Null(),
		Filter:  types.StringNull(),
		Entries: types.ListNull(entryObjectType),
		ID:      types.StringNull(),
	}
}

func TestEntriesDataSource_Metadata(t *testing.T) {
	var resp datasource.MetadataResponse
	NewEntriesDataSource().Metadata(context.Background(), datasource.MetadataRequest{ProviderTypeName: "ldap"}, &resp)
	assert.Equal(t, "ldap_entries", resp.TypeName)
}

func TestEntriesDataSource_BuildQuery(t *testing.T) {
	pd, _ := newTestProviderData(t, func(cfg *ldap.ConnectionConfig) {
		cfg.Attributes = []string{"cn", "mail"}
	})
	d := &EntriesDataSource{data: pd}

	tests := []struct {
		name       string
		model      func(*EntriesDataSourceModel)
		wantBase   string
		wantOne    bool
		wantFields []string
		wantLimit  int
		wantConds  []adapter.Condition
		wantErr    string
	}{
		{
			name:       "provider defaults",
			wantBase:   "dc=example,dc=com",
			wantFields: []string{"dn", "cn", "mail"},
		},
		{
			name: "overrides",
			model: func(m *EntriesDataSourceModel) {
				m.Base = types.StringValue("ou=people,dc=example,dc=com")
				m.Scope = types.StringValue("ONE")
				m.Limit = types.Int64Value(5)
				m.Fields = types.ListValueMust(types.StringType, []attr.Value{types.StringValue("uid")})
			},
			wantBase:   "ou=people,dc=example,dc=com",
			wantOne:    true,
			wantFields: []string{"dn", "uid"},
			wantLimit:  5,
		},
		{
			name: "conditions with aliases",
			model: func(m *EntriesDataSourceModel) {
				m.Conditions = []ConditionModel{
					condition("sn", "eql", "Smith"),
					condition("uidNumber", ">=", "1000"),
				}
			},
			wantBase:   "dc=example,dc=com",
			wantFields: []string{"dn", "cn", "mail"},
			wantConds: []adapter.Condition{
				adapter.Where("sn", adapter.OpEqual, "Smith"),
				adapter.Where("uidNumber", adapter.OpGreaterOrEqual, "1000"),
			},
		},
		{
			name: "unsupported operator",
			model: func(m *EntriesDataSourceModel) {
				m.Conditions = []ConditionModel{condition("sn", "between", "a")}
			},
			wantErr: "Unsupported Condition Operator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := emptyEntriesModel()
			if tt.model != nil {
				tt.model(&model)
			}

			q, diags := d.buildQuery(context.Background(), &model)
			if tt.wantErr != "" {
				require.True(t, diags.HasError())
				assert.Equal(t, tt.wantErr, diags.Errors()[0].Summary())
				return
			}
			require.False(t, diags.HasError(), "%v", diags)

			assert.Equal(t, tt.wantBase, q.BaseDN)
			if tt.wantOne {
				require.NotNil(t, q.Scope)
				assert.Equal(t, ldap.ScopeSingleLevel, *q.Scope)
			} else {
				assert.Nil(t, q.Scope)
			}
			assert.Equal(t, tt.wantFields, q.Fields)
			assert.Equal(t, tt.wantLimit, q.Limit)
			assert.Equal(t, tt.wantConds, q.Conditions)
		})
	}
}

func TestEntriesDataSource_Read(t *testing.T) {
	pd, client := newTestProviderData(t, nil)
	d := &EntriesDataSource{data: pd}

	client.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.BaseDN == "dc=example,dc=com" &&
			req.Filter == "(&(objectClass=person)(cn=a*))" &&
			assert.ObjectsAreEqual([]string{"cn", "mail"}, req.Attributes)
	})).Return(&ldap.SearchResult{Entries: []*goldap.Entry{
		goldap.NewEntry("cn=alice,dc=example,dc=com", map[string][]string{"cn": {"alice"}, "mail": {"alice@example.com"}}),
		goldap.NewEntry("cn=anna,dc=example,dc=com", map[string][]string{"cn": {"anna"}}),
	}}, nil).Once()

	model := emptyEntriesModel()
	model.Fields = types.ListValueMust(types.StringType, []attr.Value{types.StringValue("cn"), types.StringValue("mail")})
	model.Conditions = []ConditionModel{
		condition("objectClass", "eql", "person"),
		condition("cn", "like", "a%"),
	}
	config := entriesConfig(t, model)

	resp := datasource.ReadResponse{State: tfsdk.State{Schema: config.Schema}}
	d.Read(context.Background(), datasource.ReadRequest{Config: config}, &resp)
	require.False(t, resp.Diagnostics.HasError(), "%v", resp.Diagnostics)

	var got EntriesDataSourceModel
	require.False(t, resp.State.Get(context.Background(), &got).HasError())

	assert.Equal(t, "(&(objectClass=person)(cn=a*))", got.Filter.ValueString())
	assert.Equal(t, "dc=example,dc=com|(&(objectClass=person)(cn=a*))", got.ID.ValueString())

	want, diags := entriesValue([]adapter.Resource{
		adapter.NewEntry("cn=alice,dc=example,dc=com", map[string]any{"cn": "alice", "mail": "alice@example.com"}),
		adapter.NewEntry("cn=anna,dc=example,dc=com", map[string]any{"cn": "anna"}),
	})
	require.False(t, diags.HasError())
	assert.True(t, want.Equal(got.Entries), "entries: %s", got.Entries)
}

func TestEntriesValue_Empty(t *testing.T) {
	list, diags := entriesValue(nil)
	require.False(t, diags.HasError())
	assert.False(t, list.IsNull())
	assert.Empty(t, list.Elements())
}
