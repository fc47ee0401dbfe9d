/*
Package adapter persists resources as LDAP directory entries.

An Adapter owns one directory connection, established and bound at
construction. It exposes the persistence contract used by the provider and
the ldapq command:

  - Create adds entries for resources
  - ReadMany and ReadOne search and load rows through a Model
  - Update replaces or adds attributes on matching entries
  - Delete removes matching entries

Query conditions are translated into a search filter by a Translator:

	[(cn eql alice)]            (cn=alice)
	[(age gt 30)]               (&(age>=30)(!(age=30)))
	[(a eql 1) (b eql 2) (c lte 3)]  (&(&(a=1)(b=2))(c<=3))
	[]                          match all

An objectGUID equality whose value is a GUID string is matched on the
binary form the directory stores.

Batch operations return a Result. A returned error means the batch was
aborted (invalid input, a failed search or a lost connection); otherwise
Result.Failures lists the entries the server rejected.
*/
package adapter
