package ldap

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Well-known directory ports.
const (
	DefaultLDAPPort  = 389
	DefaultLDAPSPort = 636
)

// ConnectionConfig holds the resolved parameters for a directory connection.
//
// Field defaults are applied with creasty/defaults; mapstructure tags name the
// keys accepted by the structured option mapping.
type ConnectionConfig struct {
	// Connection settings
	Scheme string `mapstructure:"scheme" default:"ldap"`
	Host   string `mapstructure:"host" default:"localhost"`
	Port   int    `mapstructure:"port"`
	Base   string `mapstructure:"base"` // Base DN for searches

	// Authentication settings
	Auth AuthConfig `mapstructure:"auth"`

	// Search defaults
	Scope      SearchScope `mapstructure:"scope" default:"2"`
	Attributes []string    `mapstructure:"attributes"` // Default attributes when a query names none
	Filter     string      `mapstructure:"filter"`     // Base filter ANDed into every search
	Fragment   string      `mapstructure:"fragment"`

	// Transport settings
	Encryption         Encryption    `mapstructure:"encryption" default:"none"`
	Timeout            time.Duration `mapstructure:"timeout" default:"30s"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	TLSConfig          *tls.Config   `mapstructure:"-"`

	// Kerberos settings (auth.method = gssapi)
	KerberosRealm  string `mapstructure:"kerberos_realm"`
	KerberosKeytab string `mapstructure:"kerberos_keytab"`
	KerberosConfig string `mapstructure:"kerberos_config"`
	KerberosCCache string `mapstructure:"kerberos_ccache"`
	KerberosSPN    string `mapstructure:"kerberos_spn"`
}

// AuthConfig is the nested authentication structure of a connection.
type AuthConfig struct {
	Method   AuthMethod `mapstructure:"method" default:"simple"`
	Username string     `mapstructure:"username"`
	Password string     `mapstructure:"password"`
}

// Encryption selects how the transport is secured.
type Encryption string

const (
	EncryptionNone      Encryption = "none"
	EncryptionSimpleTLS Encryption = "simple_tls" // LDAPS, TLS from the first byte
	EncryptionStartTLS  Encryption = "start_tls"
)

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// String returns the RFC 4516 name of the scope.
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	default:
		return "unknown"
	}
}

// AuthMethod defines authentication method types.
type AuthMethod string

const (
	AuthMethodSimple    AuthMethod = "simple"    // Username/password authentication
	AuthMethodGSSAPI    AuthMethod = "gssapi"    // Kerberos authentication
	AuthMethodExternal  AuthMethod = "external"  // TLS client certificate authentication
	AuthMethodAnonymous AuthMethod = "anonymous" // No bind credentials
)

// String returns string representation of authentication method.
func (a AuthMethod) String() string {
	return string(a)
}

// Client is the outbound contract the adapter drives. One Client owns one
// connection; it is not safe for concurrent use.
type Client interface {
	Bind(ctx context.Context) error
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	Add(ctx context.Context, req *AddRequest) error
	Modify(ctx context.Context, req *ModifyRequest) error
	Delete(ctx context.Context, dn string) error

	// LastResult reports the outcome of the most recent operation.
	LastResult() OperationResult

	Close() error
}

// OperationResult is the (code, message) pair recorded after every operation.
type OperationResult struct {
	Code    uint16
	Message string
}

// Success reports whether the operation completed with result code 0.
func (r OperationResult) Success() bool {
	return r.Code == ldap.LDAPResultSuccess
}

// SearchRequest encapsulates LDAP search parameters.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration
}

// SearchResult contains search results and metadata.
type SearchResult struct {
	Entries []*ldap.Entry
	Total   int
	HasMore bool
}

// AddRequest encapsulates LDAP add parameters.
type AddRequest struct {
	DN         string
	Attributes map[string][]string
}

// ModifyRequest encapsulates LDAP modify parameters.
type ModifyRequest struct {
	DN                string
	AddAttributes     map[string][]string
	ReplaceAttributes map[string][]string
	DeleteAttributes  []string
}

// IsEmpty reports whether the request carries no changes.
func (r *ModifyRequest) IsEmpty() bool {
	return len(r.AddAttributes) == 0 && len(r.ReplaceAttributes) == 0 && len(r.DeleteAttributes) == 0
}
