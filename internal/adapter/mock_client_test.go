package adapter

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

// MockClient implements ldap.Client for adapter tests.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Bind(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClient) Search(ctx context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(ctx, req)
	if result := args.Get(0); result != nil {
		if searchResult, ok := result.(*ldap.SearchResult); ok {
			return searchResult, args.Error(1)
		}
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

var (
	resultSuccess = ldap.OperationResult{Code: 0, Message: "Success"}
	resultExists  = ldap.OperationResult{Code: 68, Message: "Entry already exists"}
	resultNoSuch  = ldap.OperationResult{Code: 32, Message: "No Such Object"}
	resultDenied  = ldap.OperationResult{Code: 50, Message: "Insufficient access rights"}
)
