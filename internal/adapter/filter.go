package adapter

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// MatchAll is the search filter used when a query has no conditions.
const MatchAll = "(objectClass=*)"

// Filter is a directory search predicate. String renders it in RFC 4515
// form with assertion values escaped.
type Filter interface {
	String() string
}

type equalityFilter struct{ attr, value string }

// binaryFilter matches raw octets, each written as an escaped pair.
type binaryFilter struct {
	attr  string
	value []byte
}

type lessOrEqualFilter struct{ attr, value string }

type greaterOrEqualFilter struct{ attr, value string }

// substringFilter holds the parts of a value split on the wildcard.
type substringFilter struct {
	attr  string
	parts []string
}

type notFilter struct{ inner Filter }

type andFilter struct{ left, right Filter }

// rawFilter is filter text taken verbatim from configuration.
type rawFilter struct{ text string }

// Equal matches entries where attr equals value.
func Equal(attr, value string) Filter {
	return equalityFilter{attr: attr, value: value}
}

// EqualBytes matches entries where attr holds exactly value.
func EqualBytes(attr string, value []byte) Filter {
	return binaryFilter{attr: attr, value: value}
}

// LessOrEqual matches entries where attr orders at or before value.
func LessOrEqual(attr, value string) Filter {
	return lessOrEqualFilter{attr: attr, value: value}
}

// GreaterOrEqual matches entries where attr orders at or after value.
func GreaterOrEqual(attr, value string) Filter {
	return greaterOrEqualFilter{attr: attr, value: value}
}

// Substring matches attr against parts joined by wildcards. A single part
// is an equality match.
func Substring(attr string, parts ...string) Filter {
	if len(parts) < 2 {
		return Equal(attr, strings.Join(parts, ""))
	}
	return substringFilter{attr: attr, parts: parts}
}

// Not negates f.
func Not(f Filter) Filter {
	return notFilter{inner: f}
}

// And combines two filters. A nil operand yields the other one.
func And(left, right Filter) Filter {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	}
	return andFilter{left: left, right: right}
}

// Raw wraps configured filter text, adding the outer parentheses when absent.
func Raw(text string) Filter {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !strings.HasPrefix(text, "(") {
		text = "(" + text + ")"
	}
	return rawFilter{text: text}
}

func (f equalityFilter) String() string {
	return "(" + f.attr + "=" + ldap.EscapeFilter(f.value) + ")"
}

func (f binaryFilter) String() string {
	var b strings.Builder
	b.WriteString("(" + f.attr + "=")
	for _, c := range f.value {
		fmt.Fprintf(&b, "\\%02x", c)
	}
	b.WriteString(")")
	return b.String()
}

func (f lessOrEqualFilter) String() string {
	return "(" + f.attr + "<=" + ldap.EscapeFilter(f.value) + ")"
}

func (f greaterOrEqualFilter) String() string {
	return "(" + f.attr + ">=" + ldap.EscapeFilter(f.value) + ")"
}

func (f substringFilter) String() string {
	var b strings.Builder
	b.WriteString("(" + f.attr + "=")

	last := len(f.parts) - 1
	b.WriteString(ldap.EscapeFilter(f.parts[0]))
	for _, part := range f.parts[1:last] {
		// Adjacent wildcards collapse into one.
		if part == "" {
			continue
		}
		b.WriteString("*" + ldap.EscapeFilter(part))
	}
	b.WriteString("*" + ldap.EscapeFilter(f.parts[last]) + ")")

	return b.String()
}

func (f notFilter) String() string {
	return "(!" + f.inner.String() + ")"
}

func (f andFilter) String() string {
	return "(&" + f.left.String() + f.right.String() + ")"
}

func (f rawFilter) String() string {
	return f.text
}

// FilterString renders f, or MatchAll when f is nil.
func FilterString(f Filter) string {
	if f == nil {
		return MatchAll
	}
	return f.String()
}
