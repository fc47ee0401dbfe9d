package adapter

import (
	"errors"
	"fmt"

	goldap "github.com/go-ldap/ldap/v3"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

// ConfigurationError reports a connection configuration that could not be
// resolved.
type ConfigurationError struct {
	Source string // "uri", "options" or "config"
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// BindError records a failed authentication at construction. It is kept on
// the adapter rather than returned.
type BindError struct {
	Code    uint16
	Message string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind failed (code %d): %s", e.Code, e.Message)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// OperationError is a non-zero result code from one add, modify or delete.
type OperationError struct {
	Operation string
	DN        string
	Attribute string // set for per-attribute modifications
	Code      uint16
	Message   string
}

func (e *OperationError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s of %s on %s failed (code %d): %s", e.Operation, e.Attribute, e.DN, e.Code, e.Message)
	}
	return fmt.Sprintf("%s of %s failed (code %d): %s", e.Operation, e.DN, e.Code, e.Message)
}

// Unwrap returns the result code as a go-ldap error, so the ldap package's
// error categories apply.
func (e *OperationError) Unwrap() error {
	return goldap.NewError(e.Code, errors.New(e.Message))
}

// ValidationError rejects input before any directory call is made for it.
type ValidationError struct {
	Operation string
	Index     int // position in the input batch, -1 when not applicable
	DN        string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: resource %d (%q): %s", e.Operation, e.Index, e.DN, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// UnknownConditionError is a condition that cannot be expressed as a filter.
type UnknownConditionError struct {
	Condition Condition
	Err       error // set when the value could not be coerced
}

func (e *UnknownConditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported condition value for %q: %v", e.Condition.Field, e.Err)
	}
	if e.Condition.Field == "" {
		return fmt.Sprintf("condition with operator %q has no field", e.Condition.Operator)
	}
	if !ldap.IsAttributeName(e.Condition.Field) {
		return fmt.Sprintf("invalid attribute name %q in condition", e.Condition.Field)
	}
	return fmt.Sprintf("unknown condition operator %q on field %q", e.Condition.Operator, e.Condition.Field)
}

func (e *UnknownConditionError) Unwrap() error {
	return e.Err
}
