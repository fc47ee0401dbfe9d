package ldap

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S-1-5-21-1004336348-1177238915-682003330-512
var domainAdminsSID = []byte{
	0x01, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05,
	0x15, 0x00, 0x00, 0x00,
	0xdc, 0xf4, 0xdc, 0x3b,
	0x83, 0x3d, 0x2b, 0x46,
	0x82, 0x8b, 0xa6, 0x28,
	0x00, 0x02, 0x00, 0x00,
}

// 01234567-89ab-cdef-0123-456789abcdef in mixed-endian layout.
var exampleGUID = []byte{
	0x67, 0x45, 0x23, 0x01,
	0xab, 0x89,
	0xef, 0xcd,
	0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
}

func TestDecodeSID(t *testing.T) {
	sid, err := DecodeSID(domainAdminsSID)
	require.NoError(t, err)
	assert.Equal(t, "S-1-5-21-1004336348-1177238915-682003330-512", sid)

	_, err = DecodeSID([]byte{0x01})
	assert.Error(t, err)
}

func TestGUIDEncoding(t *testing.T) {
	guid, err := DecodeGUID(exampleGUID)
	require.NoError(t, err)
	assert.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", guid)

	encoded, err := EncodeGUID("{01234567-89AB-CDEF-0123-456789ABCDEF}")
	require.NoError(t, err)
	assert.Equal(t, exampleGUID, encoded)

	_, err = DecodeGUID(exampleGUID[:15])
	assert.ErrorContains(t, err, "invalid GUID byte length")

	_, err = EncodeGUID("not-a-guid")
	assert.Error(t, err)
}

func TestFirstValue(t *testing.T) {
	entry := ldap.NewEntry("cn=alice,ou=people,dc=example,dc=com", map[string][]string{
		"cn":         {"alice", "Alice"},
		"mail":       {"alice@example.com"},
		"objectSid":  {string(domainAdminsSID)},
		"objectGUID": {string(exampleGUID)},
	})

	tests := []struct {
		name   string
		field  string
		want   string
		wantOK bool
	}{
		{"dn pseudo-field", "dn", "cn=alice,ou=people,dc=example,dc=com", true},
		{"first of many", "cn", "alice", true},
		{"case-insensitive name", "MAIL", "alice@example.com", true},
		{"sid decoded", "objectSid", "S-1-5-21-1004336348-1177238915-682003330-512", true},
		{"guid decoded", "objectguid", "01234567-89ab-cdef-0123-456789abcdef", true},
		{"absent", "telephoneNumber", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := FirstValue(entry, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, HasAttribute(entry, "Mail"))
	assert.False(t, HasAttribute(entry, "telephoneNumber"))
	assert.False(t, HasAttribute(nil, "cn"))

	_, _, err := FirstValue(nil, "cn")
	assert.Error(t, err)
}
