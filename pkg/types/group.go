// pkg/types/group.go
package types

import (
	"encoding/hex"
	"fmt"
)

// GroupPubKeyLen is the size of a group identity public key.
const GroupPubKeyLen = 32

// GroupPubKey is the Ed25519 identity key of a closed group. It addresses the
// group's swarm and verifies every admin signature.
type GroupPubKey [GroupPubKeyLen]byte

// ParseGroupPubKey accepts either a 03-prefixed group session id or 64 raw hex digits.
func ParseGroupPubKey(s string) (GroupPubKey, error) {
	var pk GroupPubKey
	if len(s) == SessionIDLen {
		if KeyPrefix(s[:2]) != PrefixGroup {
			return pk, fmt.Errorf("%w: group id must start with %s", ErrInvalidSessionID, PrefixGroup)
		}
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %v", ErrInvalidSessionID, err)
	}
	if len(raw) != GroupPubKeyLen {
		return pk, fmt.Errorf("%w: group key must be %d bytes, got %d", ErrInvalidSessionID, GroupPubKeyLen, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// GroupPubKeyFromBytes copies a 32-byte key.
func GroupPubKeyFromBytes(b []byte) (GroupPubKey, error) {
	var pk GroupPubKey
	if len(b) != GroupPubKeyLen {
		return pk, fmt.Errorf("%w: group key must be %d bytes, got %d", ErrInvalidSessionID, GroupPubKeyLen, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// IsZero reports whether the key was never set.
func (pk GroupPubKey) IsZero() bool {
	return pk == GroupPubKey{}
}

// SessionID returns the 03-prefixed text form.
func (pk GroupPubKey) SessionID() SessionID {
	return NewSessionID(PrefixGroup, pk[:])
}

func (pk GroupPubKey) String() string {
	return string(pk.SessionID())
}
