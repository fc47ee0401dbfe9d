package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

// MockClient implements ldap.Client for provider unit tests.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Bind(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClient) Search(ctx context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(ctx, req)
	if result, ok := args.Get(0).(*ldap.SearchResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) Add(ctx context.Context, req *ldap.AddRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockClient) Modify(ctx context.Context, req *ldap.ModifyRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockClient) Delete(ctx context.Context, dn string) error {
	args := m.Called(ctx, dn)
	return args.Error(0)
}

func (m *MockClient) LastResult() ldap.OperationResult {
	args := m.Called()
	if result, ok := args.Get(0).(ldap.OperationResult); ok {
		return result
	}
	return ldap.OperationResult{}
}

func (m *MockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// newTestProviderData returns provider data backed by a bound mock client.
func newTestProviderData(t *testing.T, mutate func(*ldap.ConnectionConfig)) (*ProviderData, *MockClient) {
	t.Helper()

	cfg := ldap.DefaultConfig()
	cfg.Base = "dc=example,dc=com"
	if mutate != nil {
		mutate(cfg)
	}

	client := &MockClient{}
	client.On("Bind", mock.Anything).Return(nil)

	a, err := adapter.NewWithClient(t.Context(), client, cfg)
	require.NoError(t, err)

	return NewProviderData(a), client
}
