// Package signing builds the domain-separated messages signed for group
// control operations and signs them with a standard or blinded key.
package signing

import (
	"strconv"

	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

// Kind is the ASCII tag that prefixes every signed message. Tags never
// collide, so a signature for one operation cannot be replayed as another.
type Kind string

const (
	KindInvite        Kind = "INVITE"
	KindDelete        Kind = "DELETE"
	KindDeleteContent Kind = "DELETE_CONTENT"
	// KindDeleteHashes and KindExpire sign storage requests against the
	// group swarm.
	KindDeleteHashes Kind = "delete"
	KindExpire       Kind = "expire"
)

// Expiry update modes for KindExpire. An empty mode sets the expiry as given.
const (
	ExpiryShorten = "shorten"
	ExpiryExtend  = "extend"
)

// Fields are the operation inputs a Kind draws from. Unused fields are ignored.
type Fields struct {
	// SessionID is the invited member (INVITE) or the deleted id (DELETE).
	SessionID types.SessionID
	// Timestamp is in milliseconds since the epoch, signed as decimal ASCII.
	Timestamp int64
	// SessionIDs are signed in the order given.
	SessionIDs    []types.SessionID
	MessageHashes []string
	// ShortenOrExtend and ExpiryMs are only used by KindExpire.
	ShortenOrExtend string
	ExpiryMs        int64
}

// BuildMessage returns the exact bytes signed for kind:
//
//	INVITE:         "INVITE" || sessionID || timestamp
//	DELETE:         "DELETE" || sessionID || timestamp
//	DELETE_CONTENT: "DELETE_CONTENT" || timestamp || ids... || hashes...
//	delete:         "delete" || hashes...
//	expire:         "expire" || shortenOrExtend || expiryMs || hashes...
//
// There are no separators or length prefixes.
func BuildMessage(kind Kind, f Fields) ([]byte, error) {
	ctx := string(kind)
	switch kind {
	case KindInvite:
		if !f.SessionID.IsStandard() {
			return nil, &precondition.Error{Code: precondition.ErrCodeInvalidMemberID, Field: "memberSessionId", Context: ctx}
		}
		if err := checkTimestamp(f.Timestamp, ctx); err != nil {
			return nil, err
		}
		return concat(kind, string(f.SessionID), itoa(f.Timestamp)), nil

	case KindDelete:
		if _, err := types.ParseSessionID(string(f.SessionID)); err != nil {
			return nil, &precondition.Error{Code: precondition.ErrCodeInvalidMemberID, Field: "sessionId", Context: ctx}
		}
		if err := checkTimestamp(f.Timestamp, ctx); err != nil {
			return nil, err
		}
		return concat(kind, string(f.SessionID), itoa(f.Timestamp)), nil

	case KindDeleteContent:
		if err := checkTimestamp(f.Timestamp, ctx); err != nil {
			return nil, err
		}
		if err := precondition.CheckNonEmptyList(len(f.SessionIDs), "memberSessionIds", ctx); err != nil {
			return nil, err
		}
		if err := precondition.CheckStandardSessionIDs(f.SessionIDs, "memberSessionIds", ctx); err != nil {
			return nil, err
		}
		parts := make([]string, 0, 1+len(f.SessionIDs)+len(f.MessageHashes))
		parts = append(parts, itoa(f.Timestamp))
		for _, id := range f.SessionIDs {
			parts = append(parts, string(id))
		}
		parts = append(parts, f.MessageHashes...)
		return concat(kind, parts...), nil

	case KindDeleteHashes:
		if err := precondition.CheckNonEmptyList(len(f.MessageHashes), "messageHashes", ctx); err != nil {
			return nil, err
		}
		return concat(kind, f.MessageHashes...), nil

	case KindExpire:
		if err := precondition.CheckNonEmptyList(len(f.MessageHashes), "messageHashes", ctx); err != nil {
			return nil, err
		}
		switch f.ShortenOrExtend {
		case "", ExpiryShorten, ExpiryExtend:
		default:
			return nil, precondition.NewError(precondition.ErrCodeMissingField, "shortenOrExtend", ctx,
				"shortenOrExtend must be empty, shorten or extend")
		}
		if f.ExpiryMs <= 0 {
			return nil, &precondition.Error{Code: precondition.ErrCodeMissingField, Field: "expiryMs", Expected: 1, Context: ctx}
		}
		parts := append([]string{f.ShortenOrExtend, itoa(f.ExpiryMs)}, f.MessageHashes...)
		return concat(kind, parts...), nil
	}
	return nil, precondition.NewError(precondition.ErrCodeMissingField, "kind", "signing", "unknown kind "+strconv.Quote(ctx))
}

func checkTimestamp(ts int64, ctx string) error {
	if ts <= 0 {
		return &precondition.Error{Code: precondition.ErrCodeMissingField, Field: "timestamp", Expected: 1, Context: ctx}
	}
	return nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func concat(kind Kind, parts ...string) []byte {
	size := len(kind)
	for _, p := range parts {
		size += len(p)
	}
	msg := make([]byte, 0, size)
	msg = append(msg, string(kind)...)
	for _, p := range parts {
		msg = append(msg, p...)
	}
	return msg
}
