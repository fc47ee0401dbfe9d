package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

// MockClient implements ldap.Client for command tests.
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

// newTestDirectory returns an adapter bound through a mock client.
func newTestDirectory(t *testing.T, opts ...adapter.Option) (*adapter.Adapter, *MockClient) {
	t.Helper()

	cfg := ldap.DefaultConfig()
	cfg.Base = "dc=example,dc=com"
	cfg.Attributes = []string{"cn", "mail"}

	client := &MockClient{}
	client.On("Bind", mock.Anything).Return(nil)

	a, err := adapter.NewWithClient(t.Context(), client, cfg, opts...)
	require.NoError(t, err)

	return a, client
}

// withJSONOutput switches --json on for the rest of the test.
func withJSONOutput(t *testing.T) {
	t.Helper()
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
}
