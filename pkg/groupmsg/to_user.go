package groupmsg

import (
	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

// Invite is sent 1o1 to the invitee. AdminSignature signs
// "INVITE" || inviteeSessionID || Timestamp with the group key.
type Invite struct {
	Base
	toUserSwarm
	Name           string
	AdminSignature []byte
	MemberAuthData []byte
}

// NewInvite validates and builds an invite.
func NewInvite(base Base, name string, adminSignature, memberAuthData []byte) (*Invite, error) {
	if err := base.check(KindInvite); err != nil {
		return nil, err
	}
	ctx := string(KindInvite)
	if err := precondition.CheckNotEmpty(name, "groupName", ctx); err != nil {
		return nil, err
	}
	if err := precondition.CheckLength(adminSignature, precondition.SignatureLen, "adminSignature", ctx); err != nil {
		return nil, err
	}
	if err := precondition.CheckLength(memberAuthData, precondition.AuthDataLen, "memberAuthData", ctx); err != nil {
		return nil, err
	}
	return &Invite{
		Base:           base,
		Name:           name,
		AdminSignature: cloneBytes(adminSignature),
		MemberAuthData: cloneBytes(memberAuthData),
	}, nil
}

func (m *Invite) Kind() Kind { return KindInvite }

func (m *Invite) Payload() ([]byte, error) {
	var b []byte
	b = appendString(b, inviteGroupSessionID, m.GroupPK.SessionID().String())
	b = appendString(b, inviteName, m.Name)
	b = appendBytes(b, inviteMemberAuthData, m.MemberAuthData)
	b = appendBytes(b, inviteAdminSignature, m.AdminSignature)
	return wrap(fieldInvite, b), nil
}

// Promote is sent 1o1 to a member being made admin. It carries the group's
// secret seed, which is the authority itself, so it has no signature.
type Promote struct {
	Base
	toUserSwarm
	GroupIdentitySeed []byte
	Name              string
}

// NewPromote validates and builds a promotion.
func NewPromote(base Base, groupIdentitySeed []byte, name string) (*Promote, error) {
	if err := base.check(KindPromote); err != nil {
		return nil, err
	}
	ctx := string(KindPromote)
	if err := precondition.CheckLength(groupIdentitySeed, precondition.SeedLen, "groupIdentitySeed", ctx); err != nil {
		return nil, err
	}
	if err := precondition.CheckNotEmpty(name, "groupName", ctx); err != nil {
		return nil, err
	}
	return &Promote{Base: base, GroupIdentitySeed: cloneBytes(groupIdentitySeed), Name: name}, nil
}

func (m *Promote) Kind() Kind { return KindPromote }

func (m *Promote) Payload() ([]byte, error) {
	var b []byte
	b = appendBytes(b, promoteGroupIdentitySeed, m.GroupIdentitySeed)
	b = appendString(b, promoteName, m.Name)
	return wrap(fieldPromote, b), nil
}

// DeleteMessage tells removed members to drop the group. AdminSignature
// signs "DELETE" || sessionID || Timestamp. The variant can be built and
// validated but not sent: Payload always fails.
type DeleteMessage struct {
	Base
	toUserSwarm
	MemberSessionIDs []types.SessionID
	AdminSignature   []byte
}

// NewDeleteMessage validates and builds a delete message.
func NewDeleteMessage(base Base, memberSessionIDs []types.SessionID, adminSignature []byte) (*DeleteMessage, error) {
	if err := base.check(KindDelete); err != nil {
		return nil, err
	}
	ctx := string(KindDelete)
	if err := precondition.CheckLength(adminSignature, precondition.SignatureLen, "adminSignature", ctx); err != nil {
		return nil, err
	}
	if err := precondition.CheckStandardSessionIDs(memberSessionIDs, "memberSessionIds", ctx); err != nil {
		return nil, err
	}
	return &DeleteMessage{
		Base:             base,
		MemberSessionIDs: append([]types.SessionID(nil), memberSessionIDs...),
		AdminSignature:   cloneBytes(adminSignature),
	}, nil
}

func (m *DeleteMessage) Kind() Kind { return KindDelete }

// Namespace is the revoked namespace, which stays readable after the
// recipient loses access to the group.
func (m *DeleteMessage) Namespace() Namespace { return NamespaceRevokedMessages }

func (m *DeleteMessage) Payload() ([]byte, error) {
	return nil, &Error{Code: ErrCodeUnsupportedOperation, Kind: KindDelete, Message: "not implemented"}
}
