package groupmsg

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the GroupUpdateMessage body.
const (
	fieldInvite                 protowire.Number = 1
	fieldInfoChange             protowire.Number = 2
	fieldMemberChange           protowire.Number = 3
	fieldPromote                protowire.Number = 4
	fieldMemberLeft             protowire.Number = 5
	fieldInviteResponse         protowire.Number = 6
	fieldDeleteMemberContent    protowire.Number = 7
	fieldMemberLeftNotification protowire.Number = 8
)

// Inner message field numbers.
const (
	inviteGroupSessionID protowire.Number = 1
	inviteName           protowire.Number = 2
	inviteMemberAuthData protowire.Number = 3
	inviteAdminSignature protowire.Number = 4

	promoteGroupIdentitySeed protowire.Number = 1
	promoteName              protowire.Number = 2

	infoChangeType              protowire.Number = 1
	infoChangeUpdatedName       protowire.Number = 2
	infoChangeUpdatedExpiration protowire.Number = 3

	memberChangeType             protowire.Number = 1
	memberChangeMemberSessionIDs protowire.Number = 2
	memberChangeHistoryShared    protowire.Number = 3

	inviteResponseIsApproved protowire.Number = 1

	deleteContentMemberSessionIDs protowire.Number = 1
	deleteContentMessageHashes    protowire.Number = 2
	deleteContentAdminSignature   protowire.Number = 3
)

// wrap encodes inner as field num of the outer GroupUpdateMessage.
func wrap(num protowire.Number, inner []byte) []byte {
	b := protowire.AppendTag(nil, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

// field is one decoded length-delimited or varint field. Other wire types
// are skipped.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func parseFields(kind Kind, b []byte) ([]field, error) {
	var out []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(kind, "tag: %v", protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, malformed(kind, "field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
		if typ == protowire.VarintType || typ == protowire.BytesType {
			out = append(out, f)
		}
	}
	return out, nil
}

func (f field) wantType(kind Kind, typ protowire.Type) error {
	if f.typ != typ {
		return malformed(kind, "field %d has wire type %d", f.num, f.typ)
	}
	return nil
}
