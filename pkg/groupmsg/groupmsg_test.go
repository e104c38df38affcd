package groupmsg

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

const (
	memberA = types.SessionID("0588672ccb97f40bb57238989226cf429b575ba355443f47bc76c5ab144a96c65b")
	memberB = types.SessionID("055bcd2bb6e600c43741173e489d925a505a11ab2b971afde56e50272e430f8b37")
	blinded = types.SessionID("1598932d4bccbe595a8789d7eb1629cefc483a0eaddc7e20e8fe5c771efafd9af5")
)

func testBase() Base {
	var gpk types.GroupPubKey
	copy(gpk[:], bytes.Repeat([]byte{0x01}, 32))
	return NewBase(gpk, 1700000000000)
}

func allVariants(t *testing.T) []Message {
	t.Helper()
	base := testBase()
	sig := make([]byte, 64)

	invite, err := NewInvite(base, "group", sig, make([]byte, 100))
	require.NoError(t, err)
	promote, err := NewPromote(base, make([]byte, 32), "group")
	require.NoError(t, err)
	left, err := NewMemberLeft(base)
	require.NoError(t, err)
	leftNotif, err := NewMemberLeftNotification(base)
	require.NoError(t, err)
	content, err := NewDeleteMemberContent(base, []types.SessionID{memberA, memberB}, []string{"hash1"}, sig)
	require.NoError(t, err)
	del, err := NewDeleteMessage(base, []types.SessionID{memberA}, sig)
	require.NoError(t, err)
	resp, err := NewInviteResponse(base, true)
	require.NoError(t, err)
	info, err := NewInfoChange(base, InfoChangeDisappearingMessages, "", 90*time.Second)
	require.NoError(t, err)
	change, err := NewMemberChange(base, MemberChangeAdded, []types.SessionID{memberB}, true)
	require.NoError(t, err)

	return []Message{invite, promote, left, leftNotif, content, del, resp, info, change}
}

func TestInviteScenario(t *testing.T) {
	m, err := NewInvite(testBase(), "my group", make([]byte, 64), make([]byte, 100))
	require.NoError(t, err)
	assert.True(t, m.IsFor1o1Swarm())
	assert.False(t, m.IsForGroupSwarm())
	assert.Equal(t, NamespaceDefault, m.Namespace())
}

func TestSwarmTargetsAreExclusive(t *testing.T) {
	toGroup := map[Kind]bool{
		KindMemberLeft:             true,
		KindMemberLeftNotification: true,
		KindDeleteMemberContent:    true,
		KindInviteResponse:         true,
		KindInfoChange:             true,
		KindMemberChange:           true,
	}
	for _, m := range allVariants(t) {
		t.Run(string(m.Kind()), func(t *testing.T) {
			assert.NotEqual(t, m.IsForGroupSwarm(), m.IsFor1o1Swarm())
			assert.Equal(t, toGroup[m.Kind()], m.IsForGroupSwarm())
			if m.IsForGroupSwarm() {
				assert.Equal(t, NamespaceClosedGroupMessages, m.Namespace())
			}
		})
	}
}

func TestLengthPreconditions(t *testing.T) {
	base := testBase()

	tests := []struct {
		name      string
		build     func() error
		wantField string
		wantLen   int
	}{
		{
			name: "invite signature too short",
			build: func() error {
				_, err := NewInvite(base, "g", make([]byte, 63), make([]byte, 100))
				return err
			},
			wantField: "adminSignature",
			wantLen:   63,
		},
		{
			name: "invite signature too long",
			build: func() error {
				_, err := NewInvite(base, "g", make([]byte, 65), make([]byte, 100))
				return err
			},
			wantField: "adminSignature",
			wantLen:   65,
		},
		{
			name: "invite auth data",
			build: func() error {
				_, err := NewInvite(base, "g", make([]byte, 64), make([]byte, 99))
				return err
			},
			wantField: "memberAuthData",
			wantLen:   99,
		},
		{
			name: "promote seed",
			build: func() error {
				_, err := NewPromote(base, make([]byte, 31), "g")
				return err
			},
			wantField: "groupIdentitySeed",
			wantLen:   31,
		},
		{
			name: "delete content signature",
			build: func() error {
				_, err := NewDeleteMemberContent(base, []types.SessionID{memberA}, nil, nil)
				return err
			},
			wantField: "adminSignature",
			wantLen:   0,
		},
		{
			name: "delete message signature",
			build: func() error {
				_, err := NewDeleteMessage(base, []types.SessionID{memberA}, make([]byte, 10))
				return err
			},
			wantField: "adminSignature",
			wantLen:   10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.ErrorIs(t, err, precondition.ErrCryptoPrecondition)
			var perr *precondition.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantField, perr.Field)
			assert.Equal(t, tt.wantLen, perr.Actual)
		})
	}
}

func TestConstructorPreconditions(t *testing.T) {
	base := testBase()
	sig := make([]byte, 64)

	t.Run("missing group key", func(t *testing.T) {
		_, err := NewMemberLeft(Base{Timestamp: 1})
		assert.ErrorIs(t, err, precondition.ErrMissingField)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		b := base
		b.Timestamp = 0
		_, err := NewMemberLeftNotification(b)
		assert.ErrorIs(t, err, precondition.ErrMissingField)
	})

	t.Run("invite without name", func(t *testing.T) {
		_, err := NewInvite(base, "", sig, make([]byte, 100))
		assert.ErrorIs(t, err, precondition.ErrMissingField)
	})

	t.Run("promote without name", func(t *testing.T) {
		_, err := NewPromote(base, make([]byte, 32), "")
		assert.ErrorIs(t, err, precondition.ErrMissingField)
	})

	t.Run("delete member content with empty list", func(t *testing.T) {
		m, err := NewDeleteMemberContent(base, nil, []string{"hash"}, sig)
		assert.ErrorIs(t, err, precondition.ErrMissingField)
		assert.Nil(t, m)
	})

	t.Run("delete member content with blinded id", func(t *testing.T) {
		_, err := NewDeleteMemberContent(base, []types.SessionID{memberA, blinded}, nil, sig)
		require.ErrorIs(t, err, precondition.ErrInvalidMemberID)
		var perr *precondition.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 1, perr.Actual)
	})

	t.Run("member change with no members", func(t *testing.T) {
		_, err := NewMemberChange(base, MemberChangeRemoved, nil, false)
		assert.ErrorIs(t, err, precondition.ErrMissingField)
	})

	t.Run("member change with unknown type", func(t *testing.T) {
		_, err := NewMemberChange(base, MemberChangeType(9), []types.SessionID{memberA}, false)
		assert.ErrorIs(t, err, precondition.ErrMissingField)
	})

	t.Run("name change without name", func(t *testing.T) {
		_, err := NewInfoChange(base, InfoChangeName, "", 0)
		assert.ErrorIs(t, err, precondition.ErrMissingField)
	})

	t.Run("negative disappearing timer", func(t *testing.T) {
		_, err := NewInfoChange(base, InfoChangeDisappearingMessages, "", -time.Second)
		assert.ErrorIs(t, err, precondition.ErrMissingField)
	})
}

func TestConstructorsCopyInputs(t *testing.T) {
	sig := make([]byte, 64)
	ids := []types.SessionID{memberA}
	m, err := NewDeleteMemberContent(testBase(), ids, nil, sig)
	require.NoError(t, err)

	sig[0] = 0xff
	ids[0] = memberB
	assert.Equal(t, byte(0), m.AdminSignature[0])
	assert.Equal(t, memberA, m.MemberSessionIDs[0])
}

func TestIdentifier(t *testing.T) {
	b := testBase()
	_, err := uuid.Parse(b.Identifier)
	require.NoError(t, err)

	b.Identifier = ""
	m, err := NewMemberLeft(b)
	require.NoError(t, err)
	assert.NotEmpty(t, m.Header().Identifier)
}

func TestDeleteMessageIsDisabled(t *testing.T) {
	m, err := NewDeleteMessage(testBase(), []types.SessionID{memberA}, make([]byte, 64))
	require.NoError(t, err)
	assert.Equal(t, NamespaceRevokedMessages, m.Namespace())

	payload, err := m.Payload()
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestTTL(t *testing.T) {
	b := testBase()
	assert.Equal(t, DefaultTTL, b.TTL())

	b.Expiration = Expiration{Type: ExpirationDeleteAfterSend, Timer: time.Hour}
	assert.Equal(t, time.Hour, b.TTL())

	b.Expiration = Expiration{Type: ExpirationDeleteAfterRead, Timer: time.Hour}
	assert.Equal(t, DefaultTTL, b.TTL())

	b.Expiration = Expiration{Type: ExpirationDeleteAfterSend}
	assert.Equal(t, DefaultTTL, b.TTL())
}

func TestPayloadBytes(t *testing.T) {
	left, err := NewMemberLeft(testBase())
	require.NoError(t, err)
	payload, err := left.Payload()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2a, 0x00}, payload)

	resp, err := NewInviteResponse(testBase(), true)
	require.NoError(t, err)
	payload, err = resp.Payload()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x32, 0x02, 0x08, 0x01}, payload)
}

func TestDecodeRebuildsVariants(t *testing.T) {
	for _, m := range allVariants(t) {
		if m.Kind() == KindDelete {
			continue
		}
		t.Run(string(m.Kind()), func(t *testing.T) {
			payload, err := m.Payload()
			require.NoError(t, err)

			got, err := Decode(m.Header(), payload)
			require.NoError(t, err)
			assert.Equal(t, m, got)

			again, err := got.Payload()
			require.NoError(t, err)
			assert.Equal(t, payload, again, "payload encoding is deterministic")
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	base := testBase()
	left, err := NewMemberLeft(base)
	require.NoError(t, err)
	leftPayload, err := left.Payload()
	require.NoError(t, err)

	t.Run("empty payload", func(t *testing.T) {
		m, err := Decode(base, nil)
		assert.ErrorIs(t, err, ErrMalformedPayload)
		assert.Nil(t, m)
	})

	t.Run("two updates", func(t *testing.T) {
		_, err := Decode(base, append(append([]byte{}, leftPayload...), leftPayload...))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(base, []byte{0x0a, 0x05, 0x01})
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("invite for another group", func(t *testing.T) {
		invite, err := NewInvite(base, "g", make([]byte, 64), make([]byte, 100))
		require.NoError(t, err)
		payload, err := invite.Payload()
		require.NoError(t, err)

		other := base
		other.GroupPK[0] = 0x02
		_, err = Decode(other, payload)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("invalid content is rejected by the constructor", func(t *testing.T) {
		// promote body with a 3 byte seed
		payload := []byte{0x22, 0x08, 0x0a, 0x03, 1, 2, 3, 0x12, 0x01, 'g'}
		_, err := Decode(base, payload)
		assert.ErrorIs(t, err, precondition.ErrCryptoPrecondition)
	})
}

func TestInfoChangeTimerFitsUint32(t *testing.T) {
	base := testBase()

	m, err := NewInfoChange(base, InfoChangeDisappearingMessages, "", math.MaxUint32*time.Second)
	require.NoError(t, err)
	payload, err := m.Payload()
	require.NoError(t, err)
	got, err := Decode(base, payload)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = NewInfoChange(base, InfoChangeDisappearingMessages, "", (1<<32)*time.Second)
	assert.ErrorIs(t, err, precondition.ErrMissingField)

	// type=3, updatedExpiration=1<<32
	body := protowire.AppendVarint(protowire.AppendTag(nil, infoChangeType, protowire.VarintType), 3)
	body = protowire.AppendVarint(protowire.AppendTag(body, infoChangeUpdatedExpiration, protowire.VarintType), 1<<32)
	_, err = Decode(base, wrap(fieldInfoChange, body))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	base := testBase()
	sig := make([]byte, 64)

	promote, err := NewPromote(base, make([]byte, 32), "group")
	require.NoError(t, err)
	content, err := NewDeleteMemberContent(base, []types.SessionID{memberA}, []string{"hash1"}, sig)
	require.NoError(t, err)

	tests := []struct {
		name  string
		msg   Message
		outer protowire.Number
		inner func() []byte
	}{
		{
			name:  "promote",
			msg:   promote,
			outer: fieldPromote,
			inner: func() []byte {
				b := appendBytes(nil, promoteGroupIdentitySeed, promote.GroupIdentitySeed)
				return appendString(b, promoteName, promote.Name)
			},
		},
		{
			name:  "delete member content",
			msg:   content,
			outer: fieldDeleteMemberContent,
			inner: func() []byte {
				b := appendString(nil, deleteContentMemberSessionIDs, memberA.String())
				b = appendString(b, deleteContentMessageHashes, "hash1")
				return appendBytes(b, deleteContentAdminSignature, sig)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVarint := appendVarint(tt.inner(), 9, 42)
			got, err := Decode(base, wrap(tt.outer, withVarint))
			require.NoError(t, err)
			assert.Equal(t, tt.msg, got)

			withBytes := appendString(tt.inner(), 10, "future")
			got, err = Decode(base, wrap(tt.outer, withBytes))
			require.NoError(t, err)
			assert.Equal(t, tt.msg, got)
		})
	}
}
