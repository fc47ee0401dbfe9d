package ldap

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/bwmarrin/go-objectsid"
	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// AttributeNamePattern matches an RFC 4512 attribute description: a
// descriptor or numeric OID, optionally followed by options.
var AttributeNamePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9-]*|[0-9]+(\.[0-9]+)+)(;[A-Za-z0-9-]+)*$`)

// IsAttributeName reports whether name may appear as an attribute in a
// filter or DN.
func IsAttributeName(name string) bool {
	return AttributeNamePattern.MatchString(name)
}

// GUIDBytesLength is the size of a binary objectGUID value.
const GUIDBytesLength = 16

// Binary attributes returned in string form on read.
const (
	AttributeObjectSID  = "objectSid"
	AttributeObjectGUID = "objectGUID"
)

// DecodeSID converts a binary objectSid to its S-1-5-... string form.
func DecodeSID(binarySID []byte) (string, error) {
	// Revision, sub-authority count and the six-byte identifier authority.
	if len(binarySID) < 8 {
		return "", fmt.Errorf("invalid SID length: %d", len(binarySID))
	}

	return objectsid.Decode(binarySID).String(), nil
}

// DecodeGUID converts a binary objectGUID, stored mixed-endian, to its
// canonical string form.
func DecodeGUID(guidBytes []byte) (string, error) {
	if len(guidBytes) != GUIDBytesLength {
		return "", fmt.Errorf("invalid GUID byte length: expected %d, got %d", GUIDBytesLength, len(guidBytes))
	}

	standard := make([]byte, GUIDBytesLength)

	// Data1, Data2 and Data3 are little-endian; Data4 is stored as-is.
	standard[0], standard[1], standard[2], standard[3] = guidBytes[3], guidBytes[2], guidBytes[1], guidBytes[0]
	standard[4], standard[5] = guidBytes[5], guidBytes[4]
	standard[6], standard[7] = guidBytes[7], guidBytes[6]
	copy(standard[8:], guidBytes[8:])

	id, err := uuid.FromBytes(standard)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// EncodeGUID converts a GUID string to the mixed-endian byte layout used by
// objectGUID.
func EncodeGUID(guid string) ([]byte, error) {
	id, err := uuid.Parse(strings.Trim(guid, "{}"))
	if err != nil {
		return nil, fmt.Errorf("invalid GUID %q: %w", guid, err)
	}

	b := id[:]
	return []byte{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15],
	}, nil
}

// FirstValue returns the first value of attribute name on entry. The "dn"
// pseudo-attribute yields the entry DN; objectSid and objectGUID are decoded
// from their binary form. ok is false when the entry has no such attribute.
func FirstValue(entry *ldap.Entry, name string) (value string, ok bool, err error) {
	if entry == nil {
		return "", false, errors.New("entry cannot be nil")
	}

	switch {
	case strings.EqualFold(name, "dn"):
		return entry.DN, true, nil

	case strings.EqualFold(name, AttributeObjectSID):
		raw := entry.GetEqualFoldRawAttributeValue(name)
		if len(raw) == 0 {
			return "", false, nil
		}
		sid, err := DecodeSID(raw)
		return sid, err == nil, err

	case strings.EqualFold(name, AttributeObjectGUID):
		raw := entry.GetEqualFoldRawAttributeValue(name)
		if len(raw) == 0 {
			return "", false, nil
		}
		guid, err := DecodeGUID(raw)
		return guid, err == nil, err
	}

	values := entry.GetEqualFoldAttributeValues(name)
	if len(values) == 0 {
		return "", false, nil
	}

	return values[0], true, nil
}

// HasAttribute reports whether entry carries at least one value for name.
func HasAttribute(entry *ldap.Entry, name string) bool {
	if entry == nil {
		return false
	}
	return len(entry.GetEqualFoldRawAttributeValues(name)) > 0
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
