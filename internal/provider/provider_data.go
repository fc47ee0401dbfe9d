package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
)

// ProviderData hands the configured adapter to resources and data sources.
// Terraform calls resources concurrently while the adapter owns a single
// connection, so every call is serialized here.
type ProviderData struct {
	mu      sync.Mutex
	adapter *adapter.Adapter
}

// NewProviderData wraps a configured adapter.
func NewProviderData(a *adapter.Adapter) *ProviderData {
	return &ProviderData{adapter: a}
}

// providerDataFrom converts the framework's opaque provider data, reporting a
// diagnostic-ready error on mismatch. A nil result with a nil error means the
// provider has not been configured yet.
func providerDataFrom(data any) (*ProviderData, error) {
	if data == nil {
		return nil, nil
	}

	pd, ok := data.(*ProviderData)
	if !ok {
		return nil, fmt.Errorf("expected *provider.ProviderData, got: %T. Please report this issue to the provider developers", data)
	}

	return pd, nil
}

func (pd *ProviderData) Create(ctx context.Context, resources ...adapter.Resource) (adapter.Result, error) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.adapter.Create(ctx, resources)
}

func (pd *ProviderData) Update(ctx context.Context, changes map[string]any, q *adapter.Query) (adapter.Result, error) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.adapter.Update(ctx, changes, q)
}

func (pd *ProviderData) Delete(ctx context.Context, q *adapter.Query) (adapter.Result, error) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.adapter.Delete(ctx, q)
}

func (pd *ProviderData) ReadOne(ctx context.Context, q *adapter.Query) (adapter.Resource, bool, error) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.adapter.ReadOne(ctx, q)
}

func (pd *ProviderData) ReadMany(ctx context.Context, q *adapter.Query) ([]adapter.Resource, error) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.adapter.ReadMany(ctx, q)
}

func (pd *ProviderData) Filter(ctx context.Context, q *adapter.Query) (string, error) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.adapter.Filter(ctx, q)
}

// BaseDN returns the configured search base.
func (pd *ProviderData) BaseDN() string {
	return pd.adapter.Config().Base
}

// DefaultAttributes returns the attributes read when a query names none.
func (pd *ProviderData) DefaultAttributes() []string {
	return pd.adapter.Config().Attributes
}
