package groupmsg

import (
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/relves/groupsig/pkg/types"
)

// Decode parses a received GroupUpdateMessage body. base carries the fields
// known from the envelope. The variant is rebuilt through its constructor,
// so received messages pass the same checks as locally built ones.
func Decode(base Base, payload []byte) (Message, error) {
	outer, err := parseFields("", payload)
	if err != nil {
		return nil, err
	}

	var (
		found *field
		count int
	)
	for i := range outer {
		if outer[i].num < fieldInvite || outer[i].num > fieldMemberLeftNotification {
			continue
		}
		count++
		found = &outer[i]
	}
	if count != 1 {
		return nil, malformed("", "expected exactly one group update, got %d", count)
	}
	if err := found.wantType("", protowire.BytesType); err != nil {
		return nil, err
	}

	switch found.num {
	case fieldInvite:
		return decodeInvite(base, found.bytes)
	case fieldInfoChange:
		return decodeInfoChange(base, found.bytes)
	case fieldMemberChange:
		return decodeMemberChange(base, found.bytes)
	case fieldPromote:
		return decodePromote(base, found.bytes)
	case fieldMemberLeft:
		return asMessage(NewMemberLeft(base))
	case fieldInviteResponse:
		return decodeInviteResponse(base, found.bytes)
	case fieldDeleteMemberContent:
		return decodeDeleteMemberContent(base, found.bytes)
	default:
		return asMessage(NewMemberLeftNotification(base))
	}
}

func decodeInvite(base Base, b []byte) (Message, error) {
	fields, err := parseFields(KindInvite, b)
	if err != nil {
		return nil, err
	}
	var name string
	var sig, auth []byte
	for _, f := range fields {
		switch f.num {
		case inviteGroupSessionID:
			if err := f.wantType(KindInvite, protowire.BytesType); err != nil {
				return nil, err
			}
			if types.SessionID(f.bytes) != base.GroupPK.SessionID() {
				return nil, malformed(KindInvite, "invite is for another group")
			}
		case inviteName:
			if err := f.wantType(KindInvite, protowire.BytesType); err != nil {
				return nil, err
			}
			name = string(f.bytes)
		case inviteMemberAuthData:
			if err := f.wantType(KindInvite, protowire.BytesType); err != nil {
				return nil, err
			}
			auth = f.bytes
		case inviteAdminSignature:
			if err := f.wantType(KindInvite, protowire.BytesType); err != nil {
				return nil, err
			}
			sig = f.bytes
		}
	}
	return asMessage(NewInvite(base, name, sig, auth))
}

func decodePromote(base Base, b []byte) (Message, error) {
	fields, err := parseFields(KindPromote, b)
	if err != nil {
		return nil, err
	}
	var seed []byte
	var name string
	for _, f := range fields {
		switch f.num {
		case promoteGroupIdentitySeed:
			if err := f.wantType(KindPromote, protowire.BytesType); err != nil {
				return nil, err
			}
			seed = f.bytes
		case promoteName:
			if err := f.wantType(KindPromote, protowire.BytesType); err != nil {
				return nil, err
			}
			name = string(f.bytes)
		}
	}
	return asMessage(NewPromote(base, seed, name))
}

func decodeInviteResponse(base Base, b []byte) (Message, error) {
	fields, err := parseFields(KindInviteResponse, b)
	if err != nil {
		return nil, err
	}
	var approved bool
	for _, f := range fields {
		if f.num != inviteResponseIsApproved {
			continue
		}
		if err := f.wantType(KindInviteResponse, protowire.VarintType); err != nil {
			return nil, err
		}
		approved = protowire.DecodeBool(f.varint)
	}
	return asMessage(NewInviteResponse(base, approved))
}

func decodeDeleteMemberContent(base Base, b []byte) (Message, error) {
	fields, err := parseFields(KindDeleteMemberContent, b)
	if err != nil {
		return nil, err
	}
	var (
		ids    []types.SessionID
		hashes []string
		sig    []byte
	)
	for _, f := range fields {
		switch f.num {
		case deleteContentMemberSessionIDs:
			if err := f.wantType(KindDeleteMemberContent, protowire.BytesType); err != nil {
				return nil, err
			}
			ids = append(ids, types.SessionID(f.bytes))
		case deleteContentMessageHashes:
			if err := f.wantType(KindDeleteMemberContent, protowire.BytesType); err != nil {
				return nil, err
			}
			hashes = append(hashes, string(f.bytes))
		case deleteContentAdminSignature:
			if err := f.wantType(KindDeleteMemberContent, protowire.BytesType); err != nil {
				return nil, err
			}
			sig = f.bytes
		}
	}
	return asMessage(NewDeleteMemberContent(base, ids, hashes, sig))
}

func decodeInfoChange(base Base, b []byte) (Message, error) {
	fields, err := parseFields(KindInfoChange, b)
	if err != nil {
		return nil, err
	}
	var (
		typ    InfoChangeType
		name   string
		expiry time.Duration
	)
	for _, f := range fields {
		switch f.num {
		case infoChangeType:
			if err := f.wantType(KindInfoChange, protowire.VarintType); err != nil {
				return nil, err
			}
			typ = InfoChangeType(f.varint)
		case infoChangeUpdatedName:
			if err := f.wantType(KindInfoChange, protowire.BytesType); err != nil {
				return nil, err
			}
			name = string(f.bytes)
		case infoChangeUpdatedExpiration:
			if err := f.wantType(KindInfoChange, protowire.VarintType); err != nil {
				return nil, err
			}
			if f.varint > math.MaxUint32 {
				return nil, malformed(KindInfoChange, "expiration %d overflows uint32", f.varint)
			}
			expiry = time.Duration(f.varint) * time.Second
		}
	}
	return asMessage(NewInfoChange(base, typ, name, expiry))
}

func decodeMemberChange(base Base, b []byte) (Message, error) {
	fields, err := parseFields(KindMemberChange, b)
	if err != nil {
		return nil, err
	}
	var (
		typ     MemberChangeType
		ids     []types.SessionID
		history bool
	)
	for _, f := range fields {
		switch f.num {
		case memberChangeType:
			if err := f.wantType(KindMemberChange, protowire.VarintType); err != nil {
				return nil, err
			}
			typ = MemberChangeType(f.varint)
		case memberChangeMemberSessionIDs:
			if err := f.wantType(KindMemberChange, protowire.BytesType); err != nil {
				return nil, err
			}
			ids = append(ids, types.SessionID(f.bytes))
		case memberChangeHistoryShared:
			if err := f.wantType(KindMemberChange, protowire.VarintType); err != nil {
				return nil, err
			}
			history = protowire.DecodeBool(f.varint)
		}
	}
	return asMessage(NewMemberChange(base, typ, ids, history))
}

// asMessage keeps a failed constructor from yielding a non-nil Message
// holding a nil pointer.
func asMessage[M Message](m M, err error) (Message, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}
