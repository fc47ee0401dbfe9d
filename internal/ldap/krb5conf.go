package ldap

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/jcmturner/gokrb5/v8/config"
)

// loadKrb5Config reads ks.ConfigPath. When that path is only the default
// and does not exist, a runtime configuration for the realm is used instead.
func loadKrb5Config(ctx context.Context, ks *kerberosSettings, host string) (*config.Config, error) {
	if fileExists(ks.ConfigPath) {
		krb5conf, err := config.Load(ks.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load kerberos configuration %s: %w", ks.ConfigPath, err)
		}
		return krb5conf, nil
	}

	if !ks.RuntimeConfig {
		return nil, fmt.Errorf("kerberos configuration file not found at %s; "+
			"create it or set kerberos_config. Example:\n%s",
			ks.ConfigPath, exampleKrb5Conf(ks.Realm))
	}

	text := runtimeKrb5Conf(ks.Realm, host)

	LogKerberosEvent(ctx, "runtime_config_generated", map[string]any{
		"realm":   strings.ToUpper(ks.Realm),
		"kdc":     host,
		"missing": ks.ConfigPath,
	})
	tflog.SubsystemTrace(ctx, SubsystemKerberos, "Runtime krb5.conf", map[string]any{
		"config": text,
	})

	krb5conf, err := config.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse runtime kerberos configuration: %w", err)
	}
	return krb5conf, nil
}

// runtimeKrb5Conf renders a krb5.conf for realm. The directory host is
// listed as the KDC, as on a domain controller; DNS SRV lookup finds others.
func runtimeKrb5Conf(realm, host string) string {
	realm = strings.ToUpper(realm)
	domain := strings.ToLower(realm)

	var b strings.Builder
	fmt.Fprintf(&b, `[libdefaults]
    default_realm = %s
    dns_lookup_kdc = true
    dns_lookup_realm = false
    rdns = false
    forwardable = true
`, realm)

	if host != "" {
		fmt.Fprintf(&b, `
[realms]
    %s = {
        kdc = %s:88
    }
`, realm, host)
	}

	fmt.Fprintf(&b, `
[domain_realm]
    .%[1]s = %[2]s
    %[1]s = %[2]s
`, domain, realm)

	return b.String()
}

func exampleKrb5Conf(realm string) string {
	if realm == "" {
		realm = "EXAMPLE.COM"
	}
	kdc := "kdc." + strings.ToLower(realm)

	return fmt.Sprintf(`[libdefaults]
    default_realm = %[1]s
    dns_lookup_kdc = false

[realms]
    %[1]s = {
        kdc = %[2]s:88
    }`, realm, kdc)
}
