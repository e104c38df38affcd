package edcrypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relves/groupsig/pkg/precondition"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

const (
	testSeedHex = "c010d89eccbaf5d1c6d19df766c6eedf965d4a28a56f87c9fc819edb59896dd9"
	testPubHex  = "bac6e71efd7dfa4a83c98ed24f254ab2c267f9ccdb172a5280a0444ad24e89cc"
	testSID     = "0588672ccb97f40bb57238989226cf429b575ba355443f47bc76c5ab144a96c65b"

	zeroSeedPubHex = "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29"
	groupOnesK     = "8b237390de51d94b74565c1cabc0c867cc842c25088e19f5f8a2ec775b1cf009"
	zeroSeedKA     = "9c2cb6f15b112fc879439a5e9b2dd9ece6ddd9062092d0e5ab58022e8b138104"
	zeroSeedKAPub  = "83dab34d4e4362fad6f261669f5a66b44c1dd0872ebd95333c3d6e306d98dfc4"

	groupOrderHex = "edd3f55c1a631258d69cf7a2def9de1400000000000000000000000000000010"
)

func TestIdentity(t *testing.T) {
	t.Run("derives public key from seed", func(t *testing.T) {
		id, err := IdentityFromSeed(make([]byte, 32))
		require.NoError(t, err)
		assert.Equal(t, zeroSeedPubHex, hex.EncodeToString(id.Public[:]))
	})

	t.Run("rejects mismatched public key", func(t *testing.T) {
		pub := mustHex(t, testPubHex)
		pub[0] ^= 0xff
		_, err := NewIdentity(mustHex(t, testSeedHex), pub)
		assert.ErrorIs(t, err, precondition.ErrCryptoPrecondition)
	})

	t.Run("rejects short seed", func(t *testing.T) {
		_, err := IdentityFromSeed(make([]byte, 31))
		require.Error(t, err)
		var perr *precondition.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 32, perr.Expected)
		assert.Equal(t, 31, perr.Actual)
		assert.Equal(t, "identitySeed", perr.Field)
	})

	t.Run("session id is the montgomery form", func(t *testing.T) {
		id, err := NewIdentity(mustHex(t, testSeedHex), mustHex(t, testPubHex))
		require.NoError(t, err)
		sid, err := id.SessionID()
		require.NoError(t, err)
		assert.Equal(t, testSID, sid.String())
	})

	t.Run("private key layout round trips", func(t *testing.T) {
		id, err := IdentityFromSeed(mustHex(t, testSeedHex))
		require.NoError(t, err)
		again, err := IdentityFromPrivateKey(id.PrivateKey())
		require.NoError(t, err)
		assert.Equal(t, id, again)
	})
}

func TestSecretScalarMatchesPublicKey(t *testing.T) {
	a, err := SecretScalar(mustHex(t, testSeedHex))
	require.NoError(t, err)
	assert.Zero(t, a[0]&7)
	assert.Equal(t, byte(64), a[31]&0xc0)

	A, err := ScalarBaseMulNoClamp(a[:])
	require.NoError(t, err)
	assert.Equal(t, testPubHex, hex.EncodeToString(A[:]))
}

func TestScalarArithmetic(t *testing.T) {
	digest := GenericHash512(bytes.Repeat([]byte{0x01}, 32))
	k, err := ScalarReduce(digest[:])
	require.NoError(t, err)
	assert.Equal(t, groupOnesK, hex.EncodeToString(k[:]))

	a, err := SecretScalar(make([]byte, 32))
	require.NoError(t, err)
	ka, err := ScalarMul(k[:], a[:])
	require.NoError(t, err)
	assert.Equal(t, zeroSeedKA, hex.EncodeToString(ka[:]))

	kA, err := ScalarBaseMulNoClamp(ka[:])
	require.NoError(t, err)
	assert.Equal(t, zeroSeedKAPub, hex.EncodeToString(kA[:]))

	// k*(aB) must land on the same point as (k*a)B.
	A, err := ScalarBaseMulNoClamp(a[:])
	require.NoError(t, err)
	viaPoint, err := ScalarMulNoClamp(k[:], A[:])
	require.NoError(t, err)
	assert.Equal(t, kA, viaPoint)
}

func TestScalarReduce(t *testing.T) {
	t.Run("group order reduces to zero", func(t *testing.T) {
		s, err := ScalarReduce(mustHex(t, groupOrderHex))
		require.NoError(t, err)
		assert.Equal(t, [32]byte{}, s)
	})

	t.Run("short input is zero extended", func(t *testing.T) {
		s, err := ScalarReduce([]byte{7})
		require.NoError(t, err)
		assert.Equal(t, byte(7), s[0])
	})

	t.Run("oversized input", func(t *testing.T) {
		_, err := ScalarReduce(make([]byte, 65))
		assert.ErrorIs(t, err, precondition.ErrCryptoPrecondition)
	})
}

func TestScalarAddReducesInputs(t *testing.T) {
	one := make([]byte, 32)
	one[0] = 1
	sum, err := ScalarAdd(mustHex(t, groupOrderHex), one)
	require.NoError(t, err)
	assert.Equal(t, one, sum[:])
}

func TestPointErrors(t *testing.T) {
	tests := []struct {
		name    string
		fn      func() error
		wantErr error
	}{
		{
			name: "zero scalar base mult",
			fn: func() error {
				_, err := ScalarBaseMulNoClamp(make([]byte, 32))
				return err
			},
			wantErr: ErrIdentityPoint,
		},
		{
			name: "identity point",
			fn: func() error {
				p := make([]byte, 32)
				p[0] = 1
				_, err := ScalarMulNoClamp(bytes.Repeat([]byte{3}, 32), p)
				return err
			},
			wantErr: ErrInvalidPoint,
		},
		{
			name: "mixed order point",
			fn: func() error {
				_, err := ScalarMulNoClamp(bytes.Repeat([]byte{3}, 32), mixedOrderPoint(t))
				return err
			},
			wantErr: ErrInvalidPoint,
		},
		{
			name: "short scalar",
			fn: func() error {
				_, err := ScalarMul(make([]byte, 31), make([]byte, 32))
				return err
			},
			wantErr: precondition.ErrCryptoPrecondition,
		},
		{
			name: "short point",
			fn: func() error {
				_, err := EdwardsToMontgomery(make([]byte, 16))
				return err
			},
			wantErr: precondition.ErrCryptoPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.fn(), tt.wantErr)
		})
	}
}

// mixedOrderPoint returns B + T where T = (0, -1) has order 2.
func mixedOrderPoint(t *testing.T) []byte {
	t.Helper()
	// y = p - 1
	torsion := bytes.Repeat([]byte{0xff}, 32)
	torsion[0] = 0xec
	torsion[31] = 0x7f
	torsionPoint, err := new(edwards25519.Point).SetBytes(torsion)
	require.NoError(t, err)
	return new(edwards25519.Point).Add(edwards25519.NewGeneratorPoint(), torsionPoint).Bytes()
}

func TestScalarMulNoClampPrimeOrderPoint(t *testing.T) {
	s := bytes.Repeat([]byte{3}, 32)
	got, err := ScalarMulNoClamp(s, edwards25519.NewGeneratorPoint().Bytes())
	require.NoError(t, err)
	want, err := ScalarBaseMulNoClamp(s)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMontgomeryRoundTrip(t *testing.T) {
	pub := mustHex(t, testPubHex)
	u, err := EdwardsToMontgomery(pub)
	require.NoError(t, err)
	assert.Equal(t, testSID[2:], hex.EncodeToString(u[:]))

	back, err := MontgomeryToEdwards(u[:])
	require.NoError(t, err)
	// The conversion always yields the positive key; this one is negative.
	assert.Equal(t, pub[:31], back[:31])
	assert.Equal(t, pub[31]&0x7f, back[31])
}

func TestSignVerify(t *testing.T) {
	id, err := IdentityFromSeed(mustHex(t, testSeedHex))
	require.NoError(t, err)
	msg := []byte("INVITE")

	p := Default()
	sig := p.Sign(id, msg)
	require.Len(t, sig, SignatureSize)

	ok, err := p.Verify(id.Public[:], msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	sig[10] ^= 0x01
	ok, err = p.Verify(id.Public[:], msg, sig)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.Verify(id.Public[:], msg, sig[:63])
	assert.ErrorIs(t, err, precondition.ErrCryptoPrecondition)
}
