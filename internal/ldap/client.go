package ldap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// client implements the Client interface over a single owned connection.
type client struct {
	conn   *ldap.Conn
	config *ConnectionConfig
	last   OperationResult
	closed bool
}

// NewClient dials the configured directory and returns a client owning the
// connection. Binding is a separate step; see Client.Bind.
func NewClient(ctx context.Context, config *ConnectionConfig) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	fields := config.LogFields()
	LogConnectionEvent(ctx, "connection_attempt", fields)

	start := time.Now()
	conn, err := dial(ctx, config)
	if err != nil {
		fields["error"] = err.Error()
		fields["duration_ms"] = time.Since(start).Milliseconds()
		LogConnectionEvent(ctx, "connection_failed", fields)
		return nil, err
	}

	fields["duration_ms"] = time.Since(start).Milliseconds()
	LogConnectionEvent(ctx, "connection_established", fields)

	return &client{
		conn:   conn,
		config: config,
		last:   ResultFromError(nil),
	}, nil
}

// dial opens the transport and applies the configured encryption.
func dial(ctx context.Context, config *ConnectionConfig) (*ldap.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := config.URL()
	dialer := &net.Dialer{Timeout: config.Timeout}

	opts := []ldap.DialOpt{ldap.DialWithDialer(dialer)}
	if config.Encryption == EncryptionSimpleTLS {
		opts = append(opts, ldap.DialWithTLSConfig(config.TLSConfig))
	}

	conn, err := ldap.DialURL(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	if config.Encryption == EncryptionStartTLS {
		if err := conn.StartTLS(config.TLSConfig); err != nil {
			conn.Close()
			return nil, fmt.Errorf("StartTLS with %s failed: %w", url, err)
		}
	}

	conn.SetTimeout(config.Timeout)

	return conn, nil
}

// Bind authenticates the connection with the configured method.
func (c *client) Bind(ctx context.Context) error {
	if err := c.ready(ctx); err != nil {
		return err
	}

	method := c.config.Auth.Method
	fields := map[string]any{
		"auth_method": method.String(),
		"username":    c.config.Auth.Username,
	}

	LogConnectionEvent(ctx, "authentication_attempt", fields)

	err := LogOperation(ctx, SubsystemLDAP, "bind", fields, func() error {
		switch method {
		case AuthMethodSimple:
			if c.config.Auth.Username == "" {
				return c.conn.UnauthenticatedBind("")
			}
			return c.conn.Bind(c.config.Auth.Username, c.config.Auth.Password)
		case AuthMethodAnonymous:
			return c.conn.UnauthenticatedBind(c.config.Auth.Username)
		case AuthMethodExternal:
			return c.conn.ExternalBind()
		case AuthMethodGSSAPI:
			return performKerberosAuth(ctx, c.conn, c.config)
		default:
			return fmt.Errorf("unsupported authentication method: %s", method)
		}
	})

	c.record(err)

	if err != nil {
		LogConnectionEvent(ctx, "authentication_failed", map[string]any{
			"auth_method": method.String(),
			"error":       err.Error(),
		})
		return WrapError("bind", err)
	}

	LogConnectionEvent(ctx, "authentication_success", map[string]any{
		"auth_method": method.String(),
	})

	return nil
}

// Search performs an LDAP search. A size-limit-exceeded result that carries
// entries is returned without error and with HasMore set.
func (c *client) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req == nil {
		return nil, errors.New("search request cannot be nil")
	}

	if err := c.ready(ctx); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"base_dn":    req.BaseDN,
		"scope":      req.Scope.String(),
		"filter":     req.Filter,
		"attributes": req.Attributes,
		"size_limit": req.SizeLimit,
	}

	ldapReq := ldap.NewSearchRequest(
		req.BaseDN,
		int(req.Scope),
		ldap.NeverDerefAliases,
		req.SizeLimit,
		int(req.TimeLimit.Seconds()),
		false, // TypesOnly
		req.Filter,
		req.Attributes,
		nil, // Controls
	)

	start := time.Now()
	result, err := c.conn.Search(ldapReq)
	c.record(err)
	fields["duration_ms"] = time.Since(start).Milliseconds()

	hasMore := false
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) && result != nil {
			hasMore = true
		} else {
			LogLDAPError(ctx, SubsystemLDAP, "search", err, fields)
			return nil, WrapError("search", err)
		}
	}

	if req.SizeLimit > 0 && len(result.Entries) >= req.SizeLimit {
		hasMore = true
	}

	fields["entries_found"] = len(result.Entries)
	fields["has_more"] = hasMore
	tflog.SubsystemDebug(ctx, SubsystemLDAP, "Search completed", fields)

	return &SearchResult{
		Entries: result.Entries,
		Total:   len(result.Entries),
		HasMore: hasMore,
	}, nil
}

// Add creates a new LDAP entry.
func (c *client) Add(ctx context.Context, req *AddRequest) error {
	if req == nil {
		return errors.New("add request cannot be nil")
	}

	if err := c.ready(ctx); err != nil {
		return err
	}

	ldapReq := ldap.NewAddRequest(req.DN, nil)
	for _, attr := range sortedKeys(req.Attributes) {
		ldapReq.Attribute(attr, req.Attributes[attr])
	}

	return c.exec(ctx, "add", req.DN, func() error {
		return c.conn.Add(ldapReq)
	})
}

// Modify modifies an existing LDAP entry.
func (c *client) Modify(ctx context.Context, req *ModifyRequest) error {
	if req == nil {
		return errors.New("modify request cannot be nil")
	}

	if err := c.ready(ctx); err != nil {
		return err
	}

	ldapReq := ldap.NewModifyRequest(req.DN, nil)

	for _, attr := range sortedKeys(req.AddAttributes) {
		ldapReq.Add(attr, req.AddAttributes[attr])
	}

	for _, attr := range sortedKeys(req.ReplaceAttributes) {
		ldapReq.Replace(attr, req.ReplaceAttributes[attr])
	}

	for _, attr := range req.DeleteAttributes {
		ldapReq.Delete(attr, []string{})
	}

	return c.exec(ctx, "modify", req.DN, func() error {
		return c.conn.Modify(ldapReq)
	})
}

// Delete removes an LDAP entry.
func (c *client) Delete(ctx context.Context, dn string) error {
	if dn == "" {
		return errors.New("DN cannot be empty")
	}

	if err := c.ready(ctx); err != nil {
		return err
	}

	ldapReq := ldap.NewDelRequest(dn, nil)

	return c.exec(ctx, "delete", dn, func() error {
		return c.conn.Del(ldapReq)
	})
}

// LastResult reports the outcome of the most recent operation.
func (c *client) LastResult() OperationResult {
	return c.last
}

// Close releases the connection. Closing twice is a no-op.
func (c *client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn != nil {
		c.conn.Close()
	}

	LogConnectionEvent(context.Background(), "connection_closed", map[string]any{
		"host": c.config.Host,
	})

	return nil
}

func (c *client) ready(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (c *client) record(err error) {
	c.last = ResultFromError(err)
}

// exec runs a write operation and records its result. Errors are wrapped
// into LDAPError with the DN attached.
func (c *client) exec(ctx context.Context, operation, dn string, fn func() error) error {
	err := LogOperation(ctx, SubsystemLDAP, operation, map[string]any{"dn": dn}, fn)
	c.record(err)

	if err != nil {
		ldapErr := NewLDAPError(operation, err)
		ldapErr.DN = dn
		return ldapErr
	}

	return nil
}
