// pkg/types/entry.go
package types

import (
	"encoding/json"
	"time"
)

// RevocationEntry records an admin-driven revocation inside a group.
type RevocationEntry struct {
	Index     uint64         `json:"index"`
	Type      RevocationType `json:"type"`
	Target    SessionID      `json:"target"`
	Timestamp time.Time      `json:"timestamp"`
	// MessageHashes lists the swarm hashes scrubbed with a content revocation.
	MessageHashes []string `json:"message_hashes,omitempty"`
}

// RevocationType defines what is being revoked.
type RevocationType string

const (
	RevokeMember  RevocationType = "member"  // Member removed from the group
	RevokeContent RevocationType = "content" // Member's historical content scrubbed
)

// Serialize converts a RevocationEntry to JSON bytes for the external store.
func (e *RevocationEntry) Serialize() ([]byte, error) {
	return json.Marshal(e)
}

// Deserialize populates a RevocationEntry from JSON bytes.
func (e *RevocationEntry) Deserialize(data []byte) error {
	return json.Unmarshal(data, e)
}
