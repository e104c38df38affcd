// Package groupmsg models the closed-group control messages: invites,
// promotions, departures, removals and content scrubs.
//
// Every variant is validated by its constructor, so a value of any variant
// type that came out of a constructor is well formed. Messages are immutable
// after construction. Which swarm a variant goes to is fixed by its type.
package groupmsg

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

// Kind names a message variant.
type Kind string

const (
	KindInvite                 Kind = "invite"
	KindPromote                Kind = "promote"
	KindMemberLeft             Kind = "memberLeft"
	KindMemberLeftNotification Kind = "memberLeftNotification"
	KindDeleteMemberContent    Kind = "deleteMemberContent"
	KindDelete                 Kind = "delete"
	KindInviteResponse         Kind = "inviteResponse"
	KindInfoChange             Kind = "infoChange"
	KindMemberChange           Kind = "memberChange"
)

// Namespace is the storage namespace a message is stored under.
type Namespace int

const (
	NamespaceDefault             Namespace = 0
	NamespaceClosedGroupMessages Namespace = 11
	NamespaceRevokedMessages     Namespace = -11
)

// DefaultTTL is how long a message lives in a swarm unless it disappears
// sooner.
const DefaultTTL = 14 * 24 * time.Hour

// Error codes
const (
	ErrCodeUnsupportedOperation = "UNSUPPORTED_OPERATION"
	ErrCodeMalformedPayload     = "MALFORMED_PAYLOAD"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrUnsupportedOperation = &Error{Code: ErrCodeUnsupportedOperation}
	ErrMalformedPayload     = &Error{Code: ErrCodeMalformedPayload}
)

// Error is returned for operations a variant cannot perform and for
// payloads that cannot be decoded.
type Error struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func malformed(kind Kind, format string, args ...any) *Error {
	return &Error{Code: ErrCodeMalformedPayload, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ExpirationType is the disappearing-messages mode of a message.
type ExpirationType string

const (
	ExpirationNone            ExpirationType = ""
	ExpirationDeleteAfterSend ExpirationType = "deleteAfterSend"
	ExpirationDeleteAfterRead ExpirationType = "deleteAfterRead"
	ExpirationUnknown         ExpirationType = "unknown"
)

// Expiration carries the disappearing-messages settings. A zero Timer means
// the message does not expire early.
type Expiration struct {
	Type  ExpirationType
	Timer time.Duration
}

// Base holds the fields shared by every variant.
type Base struct {
	// GroupPK is the group the message is about, and the destination for
	// group swarm messages.
	GroupPK types.GroupPubKey
	// Timestamp is the network time of creation in milliseconds.
	Timestamp  int64
	Identifier string
	Expiration Expiration
}

// NewBase returns a Base with a fresh identifier and no expiration.
func NewBase(groupPK types.GroupPubKey, timestampMs int64) Base {
	return Base{GroupPK: groupPK, Timestamp: timestampMs, Identifier: uuid.NewString()}
}

// Header returns the shared fields.
func (b Base) Header() Base { return b }

// TTL returns how long storage nodes should keep the message.
func (b Base) TTL() time.Duration {
	if b.Expiration.Type == ExpirationDeleteAfterSend && b.Expiration.Timer > 0 {
		return b.Expiration.Timer
	}
	return DefaultTTL
}

func (Base) sealed() {}

func (b *Base) check(kind Kind) error {
	ctx := string(kind)
	if b.GroupPK.IsZero() {
		return &precondition.Error{Code: precondition.ErrCodeMissingField, Field: "groupPk", Expected: 1, Context: ctx}
	}
	if b.Timestamp <= 0 {
		return &precondition.Error{Code: precondition.ErrCodeMissingField, Field: "timestamp", Expected: 1, Context: ctx}
	}
	if b.Expiration.Timer < 0 {
		return precondition.NewError(precondition.ErrCodeMissingField, "expireTimer", ctx, "expire timer must be >= 0")
	}
	if b.Identifier == "" {
		b.Identifier = uuid.NewString()
	}
	return nil
}

// Message is implemented by the variants in this package.
type Message interface {
	Kind() Kind
	Header() Base
	// Payload returns the deterministic wire encoding of the group update
	// body handed to the transport layer.
	Payload() ([]byte, error)
	IsForGroupSwarm() bool
	IsFor1o1Swarm() bool
	Namespace() Namespace
	TTL() time.Duration
	sealed()
}

// toGroupSwarm marks variants stored in the group's own swarm.
type toGroupSwarm struct{}

func (toGroupSwarm) IsForGroupSwarm() bool { return true }
func (toGroupSwarm) IsFor1o1Swarm() bool   { return false }
func (toGroupSwarm) Namespace() Namespace  { return NamespaceClosedGroupMessages }

// toUserSwarm marks variants sent 1o1 to a single user's swarm.
type toUserSwarm struct{}

func (toUserSwarm) IsForGroupSwarm() bool { return false }
func (toUserSwarm) IsFor1o1Swarm() bool   { return true }
func (toUserSwarm) Namespace() Namespace  { return NamespaceDefault }

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
