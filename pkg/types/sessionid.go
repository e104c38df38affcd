// pkg/types/sessionid.go
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// KeyPrefix is the two hex digit prefix of a session id.
type KeyPrefix string

const (
	PrefixStandard  KeyPrefix = "05" // X25519 account key
	PrefixBlinded15 KeyPrefix = "15" // community blinded key
	PrefixBlinded25 KeyPrefix = "25" // v2 blinded key
	PrefixGroup     KeyPrefix = "03" // closed group identity key
	PrefixUnblinded KeyPrefix = "00" // raw Ed25519 key, used in unblinded community requests
)

// SessionIDLen is the length of a session id in hex characters (prefix included).
const SessionIDLen = 66

// ErrInvalidSessionID is returned when a string is not a well-formed session id.
var ErrInvalidSessionID = errors.New("invalid pubkey string passed")

// SessionID is the hex text form of a prefixed public key.
type SessionID string

// ParseSessionID validates s and returns it as a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	if len(s) != SessionIDLen {
		return "", fmt.Errorf("%w: length %d", ErrInvalidSessionID, len(s))
	}
	switch KeyPrefix(s[:2]) {
	case PrefixStandard, PrefixBlinded15, PrefixBlinded25, PrefixGroup, PrefixUnblinded:
	default:
		return "", fmt.Errorf("%w: unknown prefix %q", ErrInvalidSessionID, s[:2])
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionID, err)
	}
	return SessionID(s), nil
}

// NewSessionID builds a session id from a prefix and a 32-byte key.
func NewSessionID(prefix KeyPrefix, key []byte) SessionID {
	return SessionID(string(prefix) + hex.EncodeToString(key))
}

// Prefix returns the key prefix, or "" when the id is too short.
func (id SessionID) Prefix() KeyPrefix {
	if len(id) < 2 {
		return ""
	}
	return KeyPrefix(id[:2])
}

// IsStandard reports whether id is a well-formed, non-blinded 05 session id.
func (id SessionID) IsStandard() bool {
	_, err := ParseSessionID(string(id))
	return err == nil && id.Prefix() == PrefixStandard
}

// HasBlindedPrefix reports whether id carries one of the blinded prefixes.
func (id SessionID) HasBlindedPrefix() bool {
	p := id.Prefix()
	return p == PrefixBlinded15 || p == PrefixBlinded25
}

// Key decodes the 32 key bytes after the prefix.
func (id SessionID) Key() ([]byte, error) {
	if _, err := ParseSessionID(string(id)); err != nil {
		return nil, err
	}
	return hex.DecodeString(string(id[2:]))
}

// Equal compares two ids ignoring hex case.
func (id SessionID) Equal(other SessionID) bool {
	return strings.EqualFold(string(id), string(other))
}

func (id SessionID) String() string {
	return string(id)
}
