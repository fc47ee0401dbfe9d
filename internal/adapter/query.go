package adapter

import (
	"strings"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

// Query selects entries and the fields read from them.
type Query struct {
	Conditions []Condition
	Model      *Model
	Fields     []string

	// BaseDN and Scope override the connection defaults when set.
	BaseDN string
	Scope  *ldap.SearchScope

	// Limit caps the number of entries returned; 0 uses the adapter limit.
	Limit int
}

// NewQuery builds a query over model with the given conditions.
func NewQuery(model *Model, conditions ...Condition) *Query {
	return &Query{Model: model, Conditions: conditions}
}

// DNQuery selects exactly the entry at dn, reading its DN and fields.
func DNQuery(dn string, fields ...string) *Query {
	scope := ldap.ScopeBaseObject
	return &Query{
		BaseDN: dn,
		Scope:  &scope,
		Fields: append([]string{DNField}, fields...),
	}
}

// Select sets the fields to read and returns q.
func (q *Query) Select(fields ...string) *Query {
	q.Fields = fields
	return q
}

// Where appends a condition and returns q.
func (q *Query) Where(field string, op Operator, value any) *Query {
	q.Conditions = append(q.Conditions, Where(field, op, value))
	return q
}

// selectedFields resolves the field projection: the query's own fields,
// then the model's, then the connection's default attributes.
func (q *Query) selectedFields(defaults []string) []string {
	if q == nil {
		return defaults
	}
	if len(q.Fields) > 0 {
		return q.Fields
	}
	if q.Model != nil && len(q.Model.Fields) > 0 {
		return q.Model.Fields
	}
	return defaults
}

// searchAttributes drops the DN pseudo-field. A projection of only the DN
// requests no attributes.
func searchAttributes(fields []string) []string {
	attrs := make([]string, 0, len(fields))
	for _, f := range fields {
		if !strings.EqualFold(f, DNField) {
			attrs = append(attrs, f)
		}
	}
	if len(attrs) == 0 {
		return []string{noAttributes}
	}
	return attrs
}

// noAttributes is the RFC 4511 OID requesting no attributes.
const noAttributes = "1.1"
