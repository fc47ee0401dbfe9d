package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
)

// loadOptions reads a YAML mapping of connection options, e.g.
//
//	host: ldap.example.com
//	base: dc=example,dc=com
//	auth:
//	  username: cn=admin,dc=example,dc=com
//	  password: ${LDAP_PASSWORD}
//
// Environment references are expanded before parsing.
func loadOptions(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var options map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &options); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if options == nil {
		options = map[string]any{}
	}

	return options, nil
}

// parseConditions reads field:operator:value triples. Operator aliases are
// resolved; anything else is passed through for the translator to judge.
func parseConditions(exprs []string) ([]adapter.Condition, error) {
	conditions := make([]adapter.Condition, 0, len(exprs))
	for _, expr := range exprs {
		parts := strings.SplitN(expr, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid condition %q: expected field:operator:value", expr)
		}

		op, _ := adapter.ParseOperator(parts[1])
		conditions = append(conditions, adapter.Where(parts[0], op, parts[2]))
	}
	return conditions, nil
}

// parseAssignments reads name=value pairs. A repeated name collects its
// values in order; each unset name maps to nil.
func parseAssignments(sets, unsets []string) (map[string]any, error) {
	changes := make(map[string]any, len(sets)+len(unsets))

	for _, set := range sets {
		name, value, ok := strings.Cut(set, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected name=value", set)
		}

		switch prev := changes[name].(type) {
		case nil:
			changes[name] = value
		case string:
			changes[name] = []string{prev, value}
		case []string:
			changes[name] = append(prev, value)
		}
	}

	for _, name := range unsets {
		if v, ok := changes[name]; ok && v != nil {
			return nil, fmt.Errorf("attribute %q is both set and unset", name)
		}
		changes[name] = nil
	}

	return changes, nil
}
