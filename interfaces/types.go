package interfaces

import (
	"regexp"
	"strings"
)

// NameValidator reports whether a name satisfies the external name-validity
// rules. The router takes one so tests can run with independent rule sets.
type NameValidator func(name string) bool

// namePattern is the on-chain name grammar: a lowercase payload and a
// namespace, separated by a period, 37 characters at most in total.
var namePattern = regexp.MustCompile(`^[a-z0-9\-_+]{1,37}\.[a-z0-9\-_+]{1,19}$`)

// DefaultNameValidator checks names against the standard grammar.
func DefaultNameValidator(name string) bool {
	if len(name) > 37 {
		return false
	}
	return namePattern.MatchString(name)
}

// MakeFQDataID builds a fully-qualified data ID, prefixed by the name so that
// different users' records under the same opaque data ID never collide.
func MakeFQDataID(name, dataID string) string {
	return name + ":" + dataID
}

// IsFQDataID reports whether s is a fully-qualified data ID: it must split
// into a name and an opaque data ID, and the name must be valid.
func IsFQDataID(s string, valid NameValidator) bool {
	if valid == nil {
		valid = DefaultNameValidator
	}

	name, _, found := strings.Cut(s, ":")
	if !found {
		return false
	}
	return valid(name)
}

// FQDataIDName extracts the username hint from a data ID. A fully-qualified
// ID yields its name part; a bare valid name yields itself; anything else
// yields "".
func FQDataIDName(s string, valid NameValidator) string {
	if valid == nil {
		valid = DefaultNameValidator
	}

	if IsFQDataID(s, valid) {
		name, _, _ := strings.Cut(s, ":")
		return name
	}
	if valid(s) {
		return s
	}
	return ""
}
