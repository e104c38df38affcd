package groupmsg

import (
	"math"
	"time"

	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

// MemberLeft is sent to the group swarm by a member leaving the group. The
// sender is authenticated by the transport, not by an admin signature.
type MemberLeft struct {
	Base
	toGroupSwarm
}

func NewMemberLeft(base Base) (*MemberLeft, error) {
	if err := base.check(KindMemberLeft); err != nil {
		return nil, err
	}
	return &MemberLeft{Base: base}, nil
}

func (m *MemberLeft) Kind() Kind { return KindMemberLeft }

func (m *MemberLeft) Payload() ([]byte, error) {
	return wrap(fieldMemberLeft, nil), nil
}

// MemberLeftNotification announces a departure to the other members without
// removal semantics.
type MemberLeftNotification struct {
	Base
	toGroupSwarm
}

func NewMemberLeftNotification(base Base) (*MemberLeftNotification, error) {
	if err := base.check(KindMemberLeftNotification); err != nil {
		return nil, err
	}
	return &MemberLeftNotification{Base: base}, nil
}

func (m *MemberLeftNotification) Kind() Kind { return KindMemberLeftNotification }

func (m *MemberLeftNotification) Payload() ([]byte, error) {
	return wrap(fieldMemberLeftNotification, nil), nil
}

// DeleteMemberContent asks every member to scrub the content of removed
// members. AdminSignature signs
// "DELETE_CONTENT" || Timestamp || ids... || hashes... in slice order.
type DeleteMemberContent struct {
	Base
	toGroupSwarm
	MemberSessionIDs []types.SessionID
	MessageHashes    []string
	AdminSignature   []byte
}

// NewDeleteMemberContent validates and builds a content scrub. At least one
// member id is required; message hashes are optional.
func NewDeleteMemberContent(base Base, memberSessionIDs []types.SessionID, messageHashes []string, adminSignature []byte) (*DeleteMemberContent, error) {
	if err := base.check(KindDeleteMemberContent); err != nil {
		return nil, err
	}
	ctx := string(KindDeleteMemberContent)
	if err := precondition.CheckNonEmptyList(len(memberSessionIDs), "memberSessionIds", ctx); err != nil {
		return nil, err
	}
	if err := precondition.CheckStandardSessionIDs(memberSessionIDs, "memberSessionIds", ctx); err != nil {
		return nil, err
	}
	if err := precondition.CheckLength(adminSignature, precondition.SignatureLen, "adminSignature", ctx); err != nil {
		return nil, err
	}
	return &DeleteMemberContent{
		Base:             base,
		MemberSessionIDs: append([]types.SessionID(nil), memberSessionIDs...),
		MessageHashes:    append([]string(nil), messageHashes...),
		AdminSignature:   cloneBytes(adminSignature),
	}, nil
}

func (m *DeleteMemberContent) Kind() Kind { return KindDeleteMemberContent }

func (m *DeleteMemberContent) Payload() ([]byte, error) {
	var b []byte
	for _, id := range m.MemberSessionIDs {
		b = appendString(b, deleteContentMemberSessionIDs, id.String())
	}
	for _, h := range m.MessageHashes {
		b = appendString(b, deleteContentMessageHashes, h)
	}
	b = appendBytes(b, deleteContentAdminSignature, m.AdminSignature)
	return wrap(fieldDeleteMemberContent, b), nil
}

// InviteResponse is sent to the group swarm by an invitee accepting the
// invite.
type InviteResponse struct {
	Base
	toGroupSwarm
	Approved bool
}

func NewInviteResponse(base Base, approved bool) (*InviteResponse, error) {
	if err := base.check(KindInviteResponse); err != nil {
		return nil, err
	}
	return &InviteResponse{Base: base, Approved: approved}, nil
}

func (m *InviteResponse) Kind() Kind { return KindInviteResponse }

func (m *InviteResponse) Payload() ([]byte, error) {
	return wrap(fieldInviteResponse, appendBool(nil, inviteResponseIsApproved, m.Approved)), nil
}

// InfoChangeType says which group property changed.
type InfoChangeType uint64

const (
	InfoChangeName                 InfoChangeType = 1
	InfoChangeAvatar               InfoChangeType = 2
	InfoChangeDisappearingMessages InfoChangeType = 3
)

// InfoChange tells the group that its name, avatar or disappearing-messages
// timer changed.
type InfoChange struct {
	Base
	toGroupSwarm
	Type              InfoChangeType
	UpdatedName       string
	UpdatedExpiration time.Duration
}

// NewInfoChange validates and builds an info change. name is only used for
// InfoChangeName and expiration only for InfoChangeDisappearingMessages.
func NewInfoChange(base Base, typ InfoChangeType, name string, expiration time.Duration) (*InfoChange, error) {
	if err := base.check(KindInfoChange); err != nil {
		return nil, err
	}
	ctx := string(KindInfoChange)
	m := &InfoChange{Base: base, Type: typ}
	switch typ {
	case InfoChangeName:
		if err := precondition.CheckNotEmpty(name, "updatedName", ctx); err != nil {
			return nil, err
		}
		m.UpdatedName = name
	case InfoChangeAvatar:
	case InfoChangeDisappearingMessages:
		if expiration < 0 {
			return nil, precondition.NewError(precondition.ErrCodeMissingField, "updatedExpiration", ctx,
				"disappearing message timer must be >= 0")
		}
		if expiration/time.Second > math.MaxUint32 {
			return nil, precondition.NewError(precondition.ErrCodeMissingField, "updatedExpiration", ctx,
				"disappearing message timer does not fit in 32 bits of seconds")
		}
		m.UpdatedExpiration = expiration.Truncate(time.Second)
	default:
		return nil, precondition.NewError(precondition.ErrCodeMissingField, "typeOfChange", ctx, "unknown info change type")
	}
	return m, nil
}

func (m *InfoChange) Kind() Kind { return KindInfoChange }

func (m *InfoChange) Payload() ([]byte, error) {
	b := appendVarint(nil, infoChangeType, uint64(m.Type))
	switch m.Type {
	case InfoChangeName:
		b = appendString(b, infoChangeUpdatedName, m.UpdatedName)
	case InfoChangeDisappearingMessages:
		b = appendVarint(b, infoChangeUpdatedExpiration, uint64(m.UpdatedExpiration/time.Second))
	}
	return wrap(fieldInfoChange, b), nil
}

// MemberChangeType says what happened to the listed members.
type MemberChangeType uint64

const (
	MemberChangeAdded    MemberChangeType = 1
	MemberChangeRemoved  MemberChangeType = 2
	MemberChangePromoted MemberChangeType = 3
)

// MemberChange tells the group that members were added, removed or promoted.
type MemberChange struct {
	Base
	toGroupSwarm
	Type             MemberChangeType
	MemberSessionIDs []types.SessionID
	HistoryShared    bool
}

func NewMemberChange(base Base, typ MemberChangeType, memberSessionIDs []types.SessionID, historyShared bool) (*MemberChange, error) {
	if err := base.check(KindMemberChange); err != nil {
		return nil, err
	}
	ctx := string(KindMemberChange)
	switch typ {
	case MemberChangeAdded, MemberChangeRemoved, MemberChangePromoted:
	default:
		return nil, precondition.NewError(precondition.ErrCodeMissingField, "typeOfChange", ctx, "unknown member change type")
	}
	if err := precondition.CheckNonEmptyList(len(memberSessionIDs), "memberSessionIds", ctx); err != nil {
		return nil, err
	}
	if err := precondition.CheckStandardSessionIDs(memberSessionIDs, "memberSessionIds", ctx); err != nil {
		return nil, err
	}
	return &MemberChange{
		Base:             base,
		Type:             typ,
		MemberSessionIDs: append([]types.SessionID(nil), memberSessionIDs...),
		HistoryShared:    historyShared && typ == MemberChangeAdded,
	}, nil
}

func (m *MemberChange) Kind() Kind { return KindMemberChange }

func (m *MemberChange) Payload() ([]byte, error) {
	b := appendVarint(nil, memberChangeType, uint64(m.Type))
	for _, id := range m.MemberSessionIDs {
		b = appendString(b, memberChangeMemberSessionIDs, id.String())
	}
	if m.HistoryShared {
		b = appendBool(b, memberChangeHistoryShared, true)
	}
	return wrap(fieldMemberChange, b), nil
}
