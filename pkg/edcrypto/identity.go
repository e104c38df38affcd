package edcrypto

import (
	"bytes"
	"crypto/ed25519"

	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

// Identity is a long-term Ed25519 keypair: the 32-byte seed a and A = aB.
type Identity struct {
	Seed   [SeedSize]byte
	Public [PointSize]byte
}

// NewIdentity checks that pub is the public key of seed.
func NewIdentity(seed, pub []byte) (Identity, error) {
	if err := checkLen(pub, PointSize, "identityPub"); err != nil {
		return Identity{}, err
	}
	id, err := IdentityFromSeed(seed)
	if err != nil {
		return Identity{}, err
	}
	if !bytes.Equal(id.Public[:], pub) {
		return Identity{}, precondition.NewError(precondition.ErrCodeCryptoPrecondition,
			"identityPub", ctxPrimitives, "public key does not match seed")
	}
	return id, nil
}

// IdentityFromSeed derives the public half from a 32-byte seed.
func IdentityFromSeed(seed []byte) (Identity, error) {
	var id Identity
	if err := checkLen(seed, SeedSize, "identitySeed"); err != nil {
		return id, err
	}
	sk := ed25519.NewKeyFromSeed(seed)
	copy(id.Seed[:], seed)
	copy(id.Public[:], sk[SeedSize:])
	return id, nil
}

// IdentityFromPrivateKey accepts the 64-byte seed||pub secret key layout.
func IdentityFromPrivateKey(sk []byte) (Identity, error) {
	if err := checkLen(sk, PrivateKeySize, "secretKey"); err != nil {
		return Identity{}, err
	}
	return NewIdentity(sk[:SeedSize], sk[SeedSize:])
}

// PrivateKey returns the 64-byte Ed25519 secret key.
func (id Identity) PrivateKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(id.Seed[:])
}

// SessionID returns the 05-prefixed X25519 form of the public key.
func (id Identity) SessionID() (types.SessionID, error) {
	x, err := EdwardsToMontgomery(id.Public[:])
	if err != nil {
		return "", err
	}
	return types.NewSessionID(types.PrefixStandard, x[:]), nil
}

// Sign returns a detached Ed25519 signature over msg.
func Sign(id Identity, msg []byte) []byte {
	return ed25519.Sign(id.PrivateKey(), msg)
}

// Verify reports whether sig is a valid signature of msg by pub.
// Wrong-length keys or signatures are errors, not false.
func Verify(pub, msg, sig []byte) (bool, error) {
	if err := checkLen(pub, PointSize, "publicKey"); err != nil {
		return false, err
	}
	if err := checkLen(sig, SignatureSize, "signature"); err != nil {
		return false, err
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig), nil
}
