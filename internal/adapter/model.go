package adapter

import (
	"maps"
	"slices"
	"strings"
)

// DNField is the pseudo-field that selects an entry's distinguished name.
const DNField = "dn"

// Resource is a domain object persisted as a directory entry.
type Resource interface {
	DN() string
	Attributes() map[string]any
	ObjectClasses() []string
}

// LoadFunc builds a resource from one search result row. values holds the
// first value of each field selected by q, in field order, with "" for
// fields the entry does not carry.
type LoadFunc func(values []string, q *Query) (Resource, error)

// Model describes a kind of resource: its object classes, the fields read
// when a query selects none, and how rows become resources.
type Model struct {
	Name          string
	ObjectClasses []string
	Fields        []string
	Load          LoadFunc
}

// EntryModel returns a model that loads rows into *Entry values.
func EntryModel(name string, fields []string, objectClasses ...string) *Model {
	m := &Model{
		Name:          name,
		ObjectClasses: objectClasses,
		Fields:        fields,
	}
	m.Load = m.loadEntry
	return m
}

func (m *Model) load(values []string, q *Query) (Resource, error) {
	if m == nil {
		return genericModel.loadEntry(values, q)
	}
	if m.Load == nil {
		return m.loadEntry(values, q)
	}
	return m.Load(values, q)
}

func (m *Model) loadEntry(values []string, q *Query) (Resource, error) {
	fields := q.selectedFields(nil)
	entry := &Entry{attributes: make(map[string]any, len(fields))}
	if m != nil {
		entry.objectClasses = slices.Clone(m.ObjectClasses)
	}

	for i, field := range fields {
		if i >= len(values) || values[i] == "" {
			continue
		}
		if strings.EqualFold(field, DNField) {
			entry.dn = values[i]
			continue
		}
		entry.attributes[field] = values[i]
	}

	return entry, nil
}

var genericModel = &Model{Name: "entry"}

// Entry is the generic in-memory Resource.
type Entry struct {
	dn            string
	attributes    map[string]any
	objectClasses []string
}

// NewEntry creates an entry. Attribute values may be strings, string slices
// or anything spf13/cast can turn into a string.
func NewEntry(dn string, attributes map[string]any, objectClasses ...string) *Entry {
	return &Entry{
		dn:            dn,
		attributes:    maps.Clone(attributes),
		objectClasses: objectClasses,
	}
}

func (e *Entry) DN() string {
	return e.dn
}

func (e *Entry) Attributes() map[string]any {
	return e.attributes
}

func (e *Entry) ObjectClasses() []string {
	return e.objectClasses
}

// Get returns the string form of a single-valued attribute.
func (e *Entry) Get(name string) (string, bool) {
	for k, v := range e.attributes {
		if strings.EqualFold(k, name) {
			s, ok := v.(string)
			return s, ok
		}
	}
	return "", false
}
