package provider

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/hashicorp/terraform-plugin-testing/terraform"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
	"github.com/isometry/terraform-provider-ldap/internal/ldap"
	"github.com/isometry/terraform-provider-ldap/internal/provider/helpers"
)

// Test environment configuration constants.
const (
	// Environment variables for test configuration.
	EnvTestURI       = "LDAP_TEST_URI"
	EnvTestUsername  = "LDAP_TEST_USERNAME"
	EnvTestPassword  = "LDAP_TEST_PASSWORD"
	EnvTestBase      = "LDAP_TEST_BASE"
	EnvTestContainer = "LDAP_TEST_CONTAINER"

	// Default values for testing.
	DefaultTestURI  = "ldap://localhost:389"
	DefaultTestBase = "dc=example,dc=com"

	// Test entry name prefix to avoid conflicts.
	TestEntryPrefix = "tf-test-"
)

// TestConfig holds common test configuration.
type TestConfig struct {
	URI       string
	Username  string
	Password  string
	Base      string
	Container string // parent DN of test entries
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	config := &TestConfig{
		URI:      getEnvWithDefault(EnvTestURI, DefaultTestURI),
		Username: os.Getenv(EnvTestUsername),
		Password: os.Getenv(EnvTestPassword),
		Base:     getEnvWithDefault(EnvTestBase, DefaultTestBase),
	}
	config.Container = getEnvWithDefault(EnvTestContainer, config.Base)

	return config
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

// testAccPreCheckWithConfig validates the test environment.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if os.Getenv(EnvTestURI) == "" {
		t.Skipf("Skipping test: %s must point at a test directory", EnvTestURI)
	}

	if config.Username == "" || config.Password == "" {
		t.Skipf("Skipping test: %s and %s must be set", EnvTestUsername, EnvTestPassword)
	}

	return config
}

// TestProviderConfig generates provider configuration for tests.
func TestProviderConfig() string {
	config := GetTestConfig()

	var providerConfig strings.Builder
	providerConfig.WriteString("provider \"ldap\" {\n")
	providerConfig.WriteString(fmt.Sprintf("  uri      = %q\n", config.URI))
	providerConfig.WriteString(fmt.Sprintf("  base     = %q\n", config.Base))
	providerConfig.WriteString(fmt.Sprintf("  username = %q\n", config.Username))
	providerConfig.WriteString(fmt.Sprintf("  password = %q\n", config.Password))
	providerConfig.WriteString("}\n")

	return providerConfig.String()
}

// GenerateTestName generates a unique test name with timestamp.
func GenerateTestName(prefix string) string {
	timestamp := time.Now().Format("20060102-150405")
	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("%s%s-%s", prefix, timestamp, shortUUID)
}

// TestDataGenerator provides test data generation utilities.
type TestDataGenerator struct {
	config *TestConfig
}

// NewTestDataGenerator creates a new test data generator.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		config: GetTestConfig(),
	}
}

// EntryDN returns the DN of a test entry named cn.
func (g *TestDataGenerator) EntryDN(cn string) string {
	dn, err := ldap.BuildDN("cn", cn, g.config.Container)
	if err != nil {
		panic(fmt.Sprintf("invalid test container %q: %v", g.config.Container, err))
	}
	return dn
}

// GeneratePersonConfig generates an ldap_entry for a person.
func (g *TestDataGenerator) GeneratePersonConfig(cn, sn string, extra map[string]string) string {
	var attrs strings.Builder
	fmt.Fprintf(&attrs, "    cn = %q\n    sn = %q\n", cn, sn)
	for _, name := range helpers.SortedKeys(extra) {
		fmt.Fprintf(&attrs, "    %s = %q\n", name, extra[name])
	}

	return fmt.Sprintf(`
resource "ldap_entry" "test" {
  dn             = %[1]q
  object_classes = ["top", "person"]
  attributes = {
%[2]s  }
}`, g.EntryDN(cn), attrs.String())
}

// newTestAdapter connects an adapter with the test credentials.
func newTestAdapter(ctx context.Context) (*adapter.Adapter, error) {
	config := GetTestConfig()

	cfg, err := ldap.ParseURI(config.URI)
	if err != nil {
		return nil, err
	}
	cfg.Base = config.Base
	cfg.Auth.Username = config.Username
	cfg.Auth.Password = config.Password

	return adapter.New(ctx, cfg)
}

// TestFixture manages test fixtures for cleanup.
type TestFixture struct {
	adapter *adapter.Adapter
	dns     []string
	t       *testing.T
}

// NewTestFixture creates a new test fixture manager.
func NewTestFixture(t *testing.T) *TestFixture {
	testAccPreCheckWithConfig(t)

	a, err := newTestAdapter(t.Context())
	if err != nil {
		t.Fatalf("Failed to connect to directory for test fixture: %v", err)
	}

	return &TestFixture{
		adapter: a,
		t:       t,
	}
}

// RegisterEntry registers an entry for cleanup.
func (f *TestFixture) RegisterEntry(dn string) {
	f.dns = append(f.dns, dn)
}

// Cleanup removes all registered test entries.
func (f *TestFixture) Cleanup() {
	ctx := context.Background()

	for _, dn := range f.dns {
		if _, err := f.adapter.Delete(ctx, adapter.DNQuery(dn)); err != nil && !ldap.IsNotFoundError(err) {
			// Log but don't fail the test if cleanup fails
			log.Printf("Failed to cleanup test entry %s: %v", dn, err)
		}
	}

	if err := f.adapter.Close(); err != nil {
		log.Printf("Failed to close directory connection during cleanup: %v", err)
	}
}

// Test check functions for acceptance tests

// TestCheckEntryExists verifies that an entry exists and carries the given
// attribute values.
func TestCheckEntryExists(resourceName string, want map[string]string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found: %s", resourceName)
		}

		if rs.Primary.ID == "" {
			return fmt.Errorf("resource ID not set")
		}

		ctx := context.Background()
		a, err := newTestAdapter(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to directory: %v", err)
		}
		defer a.Close()

		found, ok, err := a.ReadOne(ctx, adapter.DNQuery(rs.Primary.ID, helpers.SortedKeys(want)...))
		if err != nil {
			return fmt.Errorf("failed to read entry %s: %v", rs.Primary.ID, err)
		}
		if !ok {
			return fmt.Errorf("entry %s not found", rs.Primary.ID)
		}

		entry := found.(*adapter.Entry)
		for name, value := range want {
			if got, _ := entry.Get(name); got != value {
				return fmt.Errorf("entry %s: expected %s=%q, got %q", rs.Primary.ID, name, value, got)
			}
		}

		return nil
	}
}

// TestCheckEntryDestroy verifies that all test entries are destroyed.
func TestCheckEntryDestroy(s *terraform.State) error {
	ctx := context.Background()
	a, err := newTestAdapter(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to directory: %v", err)
	}
	defer a.Close()

	for _, rs := range s.RootModule().Resources {
		if rs.Type != "ldap_entry" {
			continue
		}

		_, ok, err := a.ReadOne(ctx, adapter.DNQuery(rs.Primary.ID))
		if err != nil && !ldap.IsNotFoundError(err) {
			return fmt.Errorf("unexpected error checking entry %s: %v", rs.Primary.ID, err)
		}
		if ok {
			return fmt.Errorf("entry %s still exists", rs.Primary.ID)
		}
	}

	return nil
}

// TestCheckEntryDisappears deletes the entry behind the scenes.
func TestCheckEntryDisappears(resourceName string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found: %s", resourceName)
		}

		ctx := context.Background()
		a, err := newTestAdapter(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to directory: %v", err)
		}
		defer a.Close()

		res, err := a.Delete(ctx, adapter.DNQuery(rs.Primary.ID))
		if err == nil {
			err = res.Err()
		}
		if err != nil {
			return fmt.Errorf("failed to manually delete entry: %v", err)
		}

		return nil
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
