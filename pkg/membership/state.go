// Package membership tracks the per-member state of a closed group and
// applies control messages to it, checking admin authority on the way.
package membership

import (
	"fmt"

	"github.com/relves/groupsig/pkg/types"
)

// State is a member's standing in one group.
type State int

const (
	StateNone State = iota
	StateInvited
	StateMember
	StateAdmin
	StateDeclined
	StateLeft
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateInvited:
		return "invited"
	case StateMember:
		return "member"
	case StateAdmin:
		return "admin"
	case StateDeclined:
		return "declined"
	case StateLeft:
		return "left"
	case StateRemoved:
		return "removed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsTerminal reports whether no further membership transition can leave s.
// Declined is not terminal: a declined invitee can be invited again.
func (s State) IsTerminal() bool {
	return s == StateLeft || s == StateRemoved
}

// Event is a membership transition trigger.
type Event string

const (
	EventInvite           Event = "invite"
	EventAccept           Event = "accept"
	EventDecline          Event = "decline"
	EventPromote          Event = "promote"
	EventLeave            Event = "leave"
	EventRemove           Event = "remove"
	EventDeleteContent    Event = "deleteContent"
	EventLeftNotification Event = "leftNotification"
)

// RequiresAdminSignature reports whether e must carry proof of admin
// authority. For EventPromote the proof is the group seed itself.
func RequiresAdminSignature(e Event) bool {
	switch e {
	case EventInvite, EventPromote, EventRemove, EventDeleteContent:
		return true
	}
	return false
}

// RequiredCapability returns the capability the acting member must hold
// in the roster for e, or "" when e is authorized some other way. Admin
// events are authorized by the group key, not by the sender's roster
// entry, and a departure notification may come from a member who already
// left.
func RequiredCapability(e Event) string {
	switch e {
	case EventAccept, EventDecline:
		return types.CapabilityMemberRespond
	case EventLeave:
		return types.CapabilityMemberLeave
	}
	return ""
}

type transition struct {
	from  State
	event Event
}

var transitions = map[transition]State{
	{StateNone, EventInvite}:             StateInvited,
	{StateDeclined, EventInvite}:         StateInvited,
	{StateInvited, EventAccept}:          StateMember,
	{StateInvited, EventDecline}:         StateDeclined,
	{StateInvited, EventPromote}:         StateAdmin,
	{StateMember, EventPromote}:          StateAdmin,
	{StateMember, EventLeave}:            StateLeft,
	{StateAdmin, EventLeave}:             StateLeft,
	{StateInvited, EventRemove}:          StateRemoved,
	{StateMember, EventRemove}:           StateRemoved,
	{StateAdmin, EventRemove}:            StateRemoved,
	{StateRemoved, EventDeleteContent}:   StateRemoved,
	{StateLeft, EventLeftNotification}:   StateLeft,
	{StateMember, EventLeftNotification}: StateMember,
	{StateAdmin, EventLeftNotification}:  StateAdmin,
}

// Next returns the state e leads to from s.
func Next(s State, e Event) (State, error) {
	to, ok := transitions[transition{s, e}]
	if !ok {
		return s, &TransitionError{
			Code:    ErrCodeIllegalTransition,
			From:    s,
			Event:   e,
			Message: fmt.Sprintf("%s is not allowed from %s", e, s),
		}
	}
	return to, nil
}

// Error codes
const (
	ErrCodeIllegalTransition     = "ILLEGAL_TRANSITION"
	ErrCodeInvalidAdminSignature = "INVALID_ADMIN_SIGNATURE"
	ErrCodeUnknownMember         = "UNKNOWN_MEMBER"
	ErrCodeInvalidPromotionSeed  = "INVALID_PROMOTION_SEED"
	ErrCodeWrongGroup            = "WRONG_GROUP"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrIllegalTransition     = &TransitionError{Code: ErrCodeIllegalTransition}
	ErrInvalidAdminSignature = &TransitionError{Code: ErrCodeInvalidAdminSignature}
	ErrUnknownMember         = &TransitionError{Code: ErrCodeUnknownMember}
	ErrInvalidPromotionSeed  = &TransitionError{Code: ErrCodeInvalidPromotionSeed}
	ErrWrongGroup            = &TransitionError{Code: ErrCodeWrongGroup}
)

// TransitionError reports a rejected membership change. The roster is left
// untouched when one is returned.
type TransitionError struct {
	Code    string
	Member  types.SessionID
	From    State
	Event   Event
	Message string
}

func (e *TransitionError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Member, e.Message)
}

func (e *TransitionError) Is(target error) bool {
	t, ok := target.(*TransitionError)
	return ok && t.Code == e.Code
}
