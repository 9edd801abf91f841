package models

import (
	"strings"

	"github.com/julianstephens/nextstep/internal/constants"
)

// Identity is a normalized local account handle (usually an email address).
type Identity string

// NormalizeIdentity trims and lower-cases a raw handle.
func NormalizeIdentity(raw string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(raw)))
}

// Segment is the storage namespace segment for the identity.
func (i Identity) Segment() string {
	if i == "" {
		return constants.LocalIdentity
	}
	return string(i)
}

func (i Identity) String() string {
	return string(i)
}
