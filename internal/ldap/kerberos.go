package ldap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/keytab"
)

const defaultKrb5Conf = "/etc/krb5.conf"

// kerberosSettings are the Kerberos parameters resolved from a connection
// configuration. The configuration itself is never modified.
type kerberosSettings struct {
	Principal  string
	Realm      string
	Password   string
	ConfigPath string
	Keytab     string
	CCache     string

	// RuntimeConfig allows a generated krb5.conf when ConfigPath, which
	// was not configured explicitly, does not exist.
	RuntimeConfig bool
}

// resolveKerberosSettings validates the Kerberos part of cfg and splits a
// principal of the form user@REALM when no explicit realm is set.
func resolveKerberosSettings(cfg *ConnectionConfig) (*kerberosSettings, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}

	ks := &kerberosSettings{
		Principal:  cfg.Auth.Username,
		Realm:      cfg.KerberosRealm,
		Password:   cfg.Auth.Password,
		ConfigPath: cfg.KerberosConfig,
		Keytab:     cfg.KerberosKeytab,
		CCache:     cfg.KerberosCCache,
	}

	if ks.ConfigPath == "" {
		ks.ConfigPath = getDefaultKrb5ConfPath()
		ks.RuntimeConfig = true
	}

	if ks.Realm == "" && strings.Contains(ks.Principal, "@") {
		parts := strings.SplitN(ks.Principal, "@", 2)
		ks.Principal, ks.Realm = parts[0], parts[1]
	}

	if ks.Realm == "" {
		return nil, errors.New("kerberos realm is required (set kerberos_realm or include realm in username)")
	}

	if ks.Principal == "" {
		return nil, errors.New("username (principal) is required for Kerberos authentication")
	}

	hasExplicitCCache := fileExists(ks.CCache)
	hasDefaultCCache := fileExists(getDefaultCCachePath())
	hasExplicitKeytab := fileExists(ks.Keytab)
	hasDefaultKeytab := fileExists(getDefaultKeytabPath())

	if !hasExplicitCCache && !hasDefaultCCache && !hasExplicitKeytab && !hasDefaultKeytab && ks.Password == "" {
		return nil, errors.New("no suitable Kerberos credentials found: provide kerberos_ccache, kerberos_keytab, password, or ensure default credential cache/keytab exists")
	}

	return ks, nil
}

// performKerberosAuth performs a GSSAPI bind on conn.
func performKerberosAuth(ctx context.Context, conn *ldap.Conn, cfg *ConnectionConfig) error {
	ks, err := resolveKerberosSettings(cfg)
	if err != nil {
		LogKerberosEvent(ctx, "authentication_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("kerberos configuration error: %w", err)
	}

	gssapiClient, source, err := createGSSAPIClient(ctx, ks, cfg.Host)
	if err != nil {
		LogKerberosEvent(ctx, "ticket_acquisition_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}
	defer func() {
		_ = gssapiClient.DeleteSecContext()
	}()

	LogKerberosEvent(ctx, "credentials_loaded", map[string]any{
		"principal": ks.Principal,
		"realm":     ks.Realm,
		"source":    source,
	})

	spn, err := buildServicePrincipal(cfg)
	if err != nil {
		return fmt.Errorf("failed to build service principal: %w", err)
	}

	if err := conn.GSSAPIBind(gssapiClient, spn, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}

	LogKerberosEvent(ctx, "ticket_acquired", map[string]any{"spn": spn})

	return nil
}

// createGSSAPIClient creates a GSSAPI client from the resolved settings.
// Priority order: credential cache, keytab, password.
func createGSSAPIClient(ctx context.Context, ks *kerberosSettings, host string) (*gssapi.Client, string, error) {
	krb5conf, err := loadKrb5Config(ctx, ks, host)
	if err != nil {
		return nil, "", err
	}

	settings := krb5client.DisablePAFXFAST(true)

	for _, cc := range []struct{ path, source string }{
		{ks.CCache, "ccache"},
		{getDefaultCCachePath(), "default_ccache"},
	} {
		if !fileExists(cc.path) {
			continue
		}
		ccache, err := credentials.LoadCCache(cc.path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load credential cache %s: %w", cc.path, err)
		}
		client, err := krb5client.NewFromCCache(ccache, krb5conf, settings)
		if err != nil {
			return nil, "", err
		}
		return &gssapi.Client{Client: client}, cc.source, nil
	}

	for _, kt := range []struct{ path, source string }{
		{ks.Keytab, "keytab"},
		{getDefaultKeytabPath(), "default_keytab"},
	} {
		if !fileExists(kt.path) {
			continue
		}
		table, err := keytab.Load(kt.path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load keytab %s: %w", kt.path, err)
		}
		client := krb5client.NewWithKeytab(ks.Principal, ks.Realm, table, krb5conf, settings)
		return &gssapi.Client{Client: client}, kt.source, nil
	}

	if ks.Password != "" {
		client := krb5client.NewWithPassword(ks.Principal, ks.Realm, ks.Password, krb5conf, settings)
		return &gssapi.Client{Client: client}, "password", nil
	}

	return nil, "", errors.New("no suitable credentials found for Kerberos authentication")
}

// buildServicePrincipal returns the LDAP service principal name for the
// configured host. KerberosSPN overrides the derived name.
func buildServicePrincipal(cfg *ConnectionConfig) (string, error) {
	if cfg == nil {
		return "", errors.New("configuration is required for service principal")
	}

	if cfg.KerberosSPN != "" {
		return cfg.KerberosSPN, nil
	}

	hostname := cfg.Host
	if hostname == "" {
		return "", errors.New("hostname is required for service principal")
	}

	if colonPos := strings.Index(hostname, ":"); colonPos != -1 {
		hostname = hostname[:colonPos]
	}

	return "ldap/" + hostname, nil
}

// getDefaultCCachePath returns the default credential cache location.
func getDefaultCCachePath() string {
	if ccache := os.Getenv("KRB5CCNAME"); ccache != "" {
		return strings.TrimPrefix(ccache, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

// getDefaultKrb5ConfPath returns the default krb5.conf location.
func getDefaultKrb5ConfPath() string {
	if conf := os.Getenv("KRB5_CONFIG"); conf != "" {
		return conf
	}
	return defaultKrb5Conf
}

// getDefaultKeytabPath returns the default keytab location.
func getDefaultKeytabPath() string {
	if path := os.Getenv("KRB5_KTNAME"); path != "" {
		return strings.TrimPrefix(path, "FILE:")
	}
	return "/etc/krb5.keytab"
}

// fileExists checks if a file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = file.Close()
	return true
}
