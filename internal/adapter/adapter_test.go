package adapter

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

const baseDN = "dc=example,dc=com"

func testConfig() *ldap.ConnectionConfig {
	cfg := ldap.DefaultConfig()
	cfg.Base = baseDN
	return cfg
}

// newTestAdapter builds an adapter over a mock whose bind succeeds.
func newTestAdapter(t *testing.T, opts ...Option) (*Adapter, *MockClient) {
	t.Helper()

	client := &MockClient{}
	client.On("Bind", mock.Anything).Return(nil).Once()

	a, err := NewWithClient(t.Context(), client, testConfig(), opts...)
	require.NoError(t, err)
	require.NoError(t, a.BindErr())

	return a, client
}

func entries(list ...*goldap.Entry) *ldap.SearchResult {
	return &ldap.SearchResult{Entries: list, Total: len(list)}
}

func person(cn string, attrs map[string][]string) *goldap.Entry {
	if attrs == nil {
		attrs = map[string][]string{}
	}
	attrs["cn"] = []string{cn}
	return goldap.NewEntry("cn="+cn+",ou=people,"+baseDN, attrs)
}

func TestNewWithClient_BindFailureIsKept(t *testing.T) {
	var output bytes.Buffer
	ctx := tflogtest.RootLogger(t.Context(), &output)

	client := &MockClient{}
	bindErr := goldap.NewError(goldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
	client.On("Bind", mock.Anything).Return(bindErr)
	client.On("LastResult").Return(ldap.OperationResult{Code: 49, Message: "invalid credentials"})

	cfg := testConfig()
	cfg.Auth.Username = "cn=admin," + baseDN
	cfg.Auth.Password = "hunter2"

	a, err := NewWithClient(ctx, client, cfg)
	require.NoError(t, err)
	require.NotNil(t, a)

	var be *BindError
	require.ErrorAs(t, a.BindErr(), &be)
	assert.Equal(t, uint16(49), be.Code)
	assert.ErrorIs(t, a.BindErr(), bindErr)

	logs, err := tflogtest.MultilineJSONDecode(&output)
	require.NoError(t, err)
	require.NotEmpty(t, logs)

	var found bool
	for _, entry := range logs {
		if entry["@message"] == "Bind failed, continuing unauthenticated" {
			found = true
			assert.Equal(t, float64(49), entry["code"])
			assert.NotEqual(t, "hunter2", entry["password"])
		}
	}
	assert.True(t, found, "bind failure should be logged")
	assert.NotContains(t, output.String(), "hunter2")
}

func TestNewWithClient_Validation(t *testing.T) {
	_, err := NewWithClient(t.Context(), nil, testConfig())
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)

	cfg := testConfig()
	cfg.Filter = "(cn=a"
	_, err = NewWithClient(t.Context(), &MockClient{}, cfg)
	require.ErrorAs(t, err, &ce)
}

func TestNewFromURI_Malformed(t *testing.T) {
	a, err := NewFromURI(t.Context(), "http://u:secret@h/dc=x")
	assert.Nil(t, a)

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "uri", ce.Source)
	assert.NotContains(t, err.Error(), "secret")
}

func TestNewFromOptions_Invalid(t *testing.T) {
	_, err := NewFromOptions(t.Context(), map[string]any{"port": "many"})

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "options", ce.Source)
}

func TestCreate(t *testing.T) {
	a, client := newTestAdapter(t)

	alice := NewEntry("cn=alice,ou=people,"+baseDN, map[string]any{
		"cn":    "alice",
		"sn":    "Smith",
		"mail":  nil,
		"empty": "",
	}, "inetOrgPerson")
	bob := NewEntry("cn=bob,ou=people,"+baseDN, map[string]any{"cn": "bob", "uidNumber": 1001}, "inetOrgPerson")
	carol := NewEntry("cn=carol,ou=people,"+baseDN, map[string]any{"cn": "carol"}, "inetOrgPerson")

	client.On("Add", mock.Anything, mock.MatchedBy(func(req *ldap.AddRequest) bool {
		return req.DN == alice.DN() &&
			assert.ObjectsAreEqual(map[string][]string{
				"cn":          {"alice"},
				"sn":          {"Smith"},
				"objectClass": {"inetOrgPerson"},
			}, req.Attributes)
	})).Return(nil).Once()
	client.On("Add", mock.Anything, mock.MatchedBy(func(req *ldap.AddRequest) bool {
		return req.DN == bob.DN() && assert.ObjectsAreEqual([]string{"1001"}, req.Attributes["uidNumber"])
	})).Return(goldap.NewError(goldap.LDAPResultEntryAlreadyExists, errors.New("exists"))).Once()
	client.On("Add", mock.Anything, mock.MatchedBy(func(req *ldap.AddRequest) bool {
		return req.DN == carol.DN()
	})).Return(nil).Once()

	client.On("LastResult").Return(resultSuccess).Once()
	client.On("LastResult").Return(resultExists).Once()
	client.On("LastResult").Return(resultSuccess).Once()

	res, err := a.Create(t.Context(), []Resource{alice, bob, carol})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Succeeded)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, bob.DN(), res.Failures[0].DN)
	assert.Equal(t, uint16(68), res.Failures[0].Code)
	assert.Error(t, res.Err())
	client.AssertExpectations(t)
}

func TestCreate_ValidationAborts(t *testing.T) {
	tests := []struct {
		name    string
		invalid Resource
		reason  string
	}{
		{"empty DN", NewEntry("", map[string]any{"cn": "x"}), "DN is empty"},
		{"no attributes", NewEntry("cn=x,"+baseDN, nil, "person"), "no attributes"},
		{"only empty attributes", NewEntry("cn=x,"+baseDN, map[string]any{"cn": ""}), "no attributes"},
		{"uncoercible attribute", NewEntry("cn=x,"+baseDN, map[string]any{"cn": struct{}{}}), "attribute \"cn\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, client := newTestAdapter(t)

			first := NewEntry("cn=first,"+baseDN, map[string]any{"cn": "first"})
			never := NewEntry("cn=never,"+baseDN, map[string]any{"cn": "never"})

			client.On("Add", mock.Anything, mock.MatchedBy(func(req *ldap.AddRequest) bool {
				return req.DN == first.DN()
			})).Return(nil).Once()
			client.On("LastResult").Return(resultSuccess).Once()

			res, err := a.Create(t.Context(), []Resource{first, tt.invalid, never})

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 1, ve.Index)
			assert.Contains(t, ve.Reason, tt.reason)
			assert.Equal(t, 1, res.Succeeded, "count reached before the invalid resource")

			client.AssertNotCalled(t, "Add", mock.Anything, mock.MatchedBy(func(req *ldap.AddRequest) bool {
				return req.DN == never.DN()
			}))
			client.AssertExpectations(t)
		})
	}
}

func TestCreate_TransportFailureAborts(t *testing.T) {
	a, client := newTestAdapter(t)

	client.On("Add", mock.Anything, mock.Anything).
		Return(goldap.NewError(goldap.ErrorNetwork, errors.New("connection reset by peer"))).Once()

	res, err := a.Create(t.Context(), []Resource{
		NewEntry("cn=a,"+baseDN, map[string]any{"cn": "a"}),
		NewEntry("cn=b,"+baseDN, map[string]any{"cn": "b"}),
	})

	require.Error(t, err)
	assert.True(t, ldap.IsTransportError(err))
	assert.Zero(t, res.Succeeded)
	client.AssertNumberOfCalls(t, "Add", 1)
}

func TestUpdate_ReplaceOrAdd(t *testing.T) {
	a, client := newTestAdapter(t)

	withMail := person("alice", map[string][]string{"mail": {"old@example.com"}})
	withoutMail := person("bob", nil)

	client.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.Filter == "(cn=*)" &&
			req.BaseDN == baseDN &&
			assert.ObjectsAreEqual([]string{"mail"}, req.Attributes)
	})).Return(entries(withMail, withoutMail), nil).Once()

	client.On("Modify", mock.Anything, &ldap.ModifyRequest{
		DN:                withMail.DN,
		ReplaceAttributes: map[string][]string{"mail": {"a@b.com"}},
	}).Return(nil).Once()
	client.On("Modify", mock.Anything, &ldap.ModifyRequest{
		DN:            withoutMail.DN,
		AddAttributes: map[string][]string{"mail": {"a@b.com"}},
	}).Return(nil).Once()
	client.On("LastResult").Return(resultSuccess).Twice()

	q := NewQuery(nil).Where("cn", OpLike, "%")
	res, err := a.Update(t.Context(), map[string]any{"mail": "a@b.com"}, q)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Empty(t, res.Failures)
	client.AssertExpectations(t)
}

func TestUpdate_CountsEachAttributeAndContinues(t *testing.T) {
	a, client := newTestAdapter(t)

	entry := person("alice", map[string][]string{"mail": {"x"}, "title": {"Engineer"}})

	client.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return assert.ObjectsAreEqual([]string{"description", "mail", "telephoneNumber", "title"}, req.Attributes)
	})).Return(entries(entry), nil).Once()

	// Sorted order: description (add), mail (replace), telephoneNumber
	// (absent and empty: skipped), title (delete).
	client.On("Modify", mock.Anything, &ldap.ModifyRequest{
		DN:            entry.DN,
		AddAttributes: map[string][]string{"description": {"d"}},
	}).Return(goldap.NewError(goldap.LDAPResultInsufficientAccessRights, errors.New("denied"))).Once()
	client.On("Modify", mock.Anything, &ldap.ModifyRequest{
		DN:                entry.DN,
		ReplaceAttributes: map[string][]string{"mail": {"a@b.com"}},
	}).Return(nil).Once()
	client.On("Modify", mock.Anything, &ldap.ModifyRequest{
		DN:               entry.DN,
		DeleteAttributes: []string{"title"},
	}).Return(nil).Once()

	client.On("LastResult").Return(resultDenied).Once()
	client.On("LastResult").Return(resultSuccess).Twice()

	res, err := a.Update(t.Context(), map[string]any{
		"description":     "d",
		"mail":            "a@b.com",
		"telephoneNumber": nil,
		"title":           "",
	}, NewQuery(nil, Where("cn", OpEqual, "alice")))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Succeeded)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "description", res.Failures[0].Attribute)
	client.AssertExpectations(t)
}

func TestOperationError_Category(t *testing.T) {
	exists := &OperationError{Operation: "add", DN: "cn=a," + baseDN, Code: 68, Message: "Entry Already Exists"}
	assert.True(t, ldap.IsConflictError(exists))
	assert.True(t, ldap.IsConflictError(Result{Failures: []*OperationError{exists}}.Err()))

	denied := &OperationError{Operation: "modify", DN: "cn=a," + baseDN, Code: 50}
	assert.False(t, ldap.IsConflictError(denied))
	assert.Equal(t, ldap.ErrorCategoryPermission, ldap.GetErrorCategory(denied))
}

func TestUpdate_NoChanges(t *testing.T) {
	a, client := newTestAdapter(t)

	res, err := a.Update(t.Context(), nil, NewQuery(nil))
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestDelete(t *testing.T) {
	a, client := newTestAdapter(t)

	one, two, three := person("a", nil), person("b", nil), person("c", nil)

	client.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.Filter == "(&(sn=x)(!(cn=keep)))" &&
			assert.ObjectsAreEqual([]string{"1.1"}, req.Attributes)
	})).Return(entries(one, two, three), nil).Once()

	client.On("Delete", mock.Anything, one.DN).Return(nil).Once()
	client.On("Delete", mock.Anything, two.DN).Return(goldap.NewError(goldap.LDAPResultNotAllowedOnNonLeaf, errors.New("has children"))).Once()
	client.On("Delete", mock.Anything, three.DN).Return(nil).Once()

	client.On("LastResult").Return(resultSuccess).Once()
	client.On("LastResult").Return(ldap.OperationResult{Code: 66, Message: "has children"}).Once()
	client.On("LastResult").Return(resultSuccess).Once()

	q := NewQuery(nil, Where("sn", OpEqual, "x"), Where("cn", OpNotEqual, "keep"))
	res, err := a.Delete(t.Context(), q)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Succeeded)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, two.DN, res.Failures[0].DN)
	client.AssertExpectations(t)
}

func TestDelete_SearchFailure(t *testing.T) {
	a, client := newTestAdapter(t)

	searchErr := ldap.NewLDAPError("search", goldap.NewError(goldap.LDAPResultNoSuchObject, errors.New("no base")))
	client.On("Search", mock.Anything, mock.Anything).Return(nil, searchErr).Once()

	_, err := a.Delete(t.Context(), NewQuery(nil))
	require.Error(t, err)
	assert.True(t, ldap.IsNotFoundError(err))
	client.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestReadMany(t *testing.T) {
	a, client := newTestAdapter(t)

	sid := []byte{0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05, 0x12, 0x00, 0x00, 0x00}
	alice := person("alice", map[string][]string{"mail": {"alice@example.com", "a@example.com"}, "objectSid": {string(sid)}})
	bob := person("bob", nil)

	client.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.Filter == "(objectClass=*)" &&
			req.Scope == ldap.ScopeWholeSubtree &&
			assert.ObjectsAreEqual([]string{"cn", "mail", "objectSid"}, req.Attributes)
	})).Return(entries(alice, bob), nil).Once()

	type row struct {
		values []string
		fields []string
	}
	var rows []row
	model := &Model{
		Name: "person",
		Load: func(values []string, q *Query) (Resource, error) {
			rows = append(rows, row{values: values, fields: q.Fields})
			return NewEntry(values[0], nil), nil
		},
	}

	q := NewQuery(model).Select("dn", "cn", "mail", "objectSid")
	got, err := a.ReadMany(t.Context(), q)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, alice.DN, got[0].DN())
	assert.Equal(t, bob.DN, got[1].DN())
	assert.Equal(t, []string{alice.DN, "alice", "alice@example.com", "S-1-5-18"}, rows[0].values)
	assert.Equal(t, []string{bob.DN, "bob", "", ""}, rows[1].values)
	assert.Equal(t, []string{"dn", "cn", "mail", "objectSid"}, rows[0].fields)
	client.AssertExpectations(t)
}

func TestReadMany_QueryOverridesAndDefaults(t *testing.T) {
	client := &MockClient{}
	client.On("Bind", mock.Anything).Return(nil)

	cfg := testConfig()
	cfg.Attributes = []string{"uid"}
	cfg.Filter = "(objectClass=posixAccount)"

	a, err := NewWithClient(t.Context(), client, cfg, WithSizeLimit(100), WithTimeLimit(5*time.Second))
	require.NoError(t, err)

	scope := ldap.ScopeSingleLevel
	client.On("Search", mock.Anything, &ldap.SearchRequest{
		BaseDN:     "ou=people," + baseDN,
		Scope:      ldap.ScopeSingleLevel,
		Filter:     "(&(objectClass=posixAccount)(uid=alice))",
		Attributes: []string{"uid"},
		SizeLimit:  10,
		TimeLimit:  5 * time.Second,
	}).Return(entries(goldap.NewEntry("uid=alice,ou=people,"+baseDN, map[string][]string{"uid": {"alice"}})), nil).Once()

	q := &Query{
		Conditions: []Condition{Where("uid", OpEqual, "alice")},
		BaseDN:     "ou=people," + baseDN,
		Scope:      &scope,
		Limit:      10,
	}
	got, err := a.ReadMany(t.Context(), q)
	require.NoError(t, err)
	require.Len(t, got, 1)

	entry, ok := got[0].(*Entry)
	require.True(t, ok)
	v, ok := entry.Get("uid")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
	client.AssertExpectations(t)
}

func TestReadMany_NoFields(t *testing.T) {
	a, client := newTestAdapter(t)

	_, err := a.ReadMany(t.Context(), NewQuery(nil))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestReadOne(t *testing.T) {
	a, client := newTestAdapter(t)
	model := EntryModel("person", []string{"dn", "cn"}, "person")

	client.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.SizeLimit == 1 && req.Filter == "(cn=alice)"
	})).Return(entries(person("alice", nil)), nil).Once()

	got, found, err := a.ReadOne(t.Context(), NewQuery(model, Where("cn", OpEqual, "alice")))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "cn=alice,ou=people,"+baseDN, got.DN())
	assert.Equal(t, []string{"person"}, got.ObjectClasses())
	assert.Equal(t, map[string]any{"cn": "alice"}, got.Attributes())

	client.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
		return req.Filter == "(cn=nobody)"
	})).Return(entries(), nil).Once()

	got, found, err = a.ReadOne(t.Context(), NewQuery(model, Where("cn", OpEqual, "nobody")))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
	client.AssertExpectations(t)
}

func TestStrictConditions(t *testing.T) {
	a, client := newTestAdapter(t, WithStrictConditions())

	_, err := a.Delete(t.Context(), NewQuery(nil, Where("cn", "between", "a")))

	var uce *UnknownConditionError
	require.ErrorAs(t, err, &uce)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestFilter(t *testing.T) {
	a, _ := newTestAdapter(t)

	f, err := a.Filter(t.Context(), NewQuery(nil))
	require.NoError(t, err)
	assert.Equal(t, MatchAll, f)

	f, err = a.Filter(t.Context(), NewQuery(nil, Where("age", OpGreaterThan, 30)))
	require.NoError(t, err)
	assert.Equal(t, "(&(age>=30)(!(age=30)))", f)
}

func TestCancelledContext(t *testing.T) {
	a, client := newTestAdapter(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := a.Create(ctx, []Resource{NewEntry("cn=a,"+baseDN, map[string]any{"cn": "a"})})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Succeeded)

	_, err = a.ReadMany(ctx, NewQuery(nil).Select("cn"))
	assert.ErrorIs(t, err, context.Canceled)

	client.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestClose(t *testing.T) {
	a, client := newTestAdapter(t)
	client.On("Close").Return(nil).Once()

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err := a.Delete(t.Context(), NewQuery(nil))
	assert.ErrorIs(t, err, ldap.ErrClosed)
	client.AssertNumberOfCalls(t, "Close", 1)
}
