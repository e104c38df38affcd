// Package blinding derives per-group blinded keypairs from a long-term
// identity and matches blinded session ids back to standard ones.
//
// The blinding factor for a group (or community server) key P is
// k = H(P) mod L with H = BLAKE2b-512. The blinded secret is ka = k*a mod L
// and the blinded public key is kA = ka*B, computed without clamping.
package blinding

import (
	"bytes"
	"fmt"

	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

const ctxBlinding = "blinding"

// KeyPair is a blinded keypair valid for a single group. It is derived on
// demand and must not be persisted.
type KeyPair struct {
	Private [edcrypto.ScalarSize]byte
	Public  [edcrypto.PointSize]byte
}

// Factor returns the blinding factor k for the 32-byte key pk.
func Factor(p edcrypto.Provider, pk []byte) ([edcrypto.ScalarSize]byte, error) {
	if err := precondition.CheckLength(pk, edcrypto.PointSize, "groupPubKey", ctxBlinding); err != nil {
		return [edcrypto.ScalarSize]byte{}, err
	}
	h := p.GenericHash512(pk)
	return p.ScalarReduce(h[:])
}

// DeriveKeyPair blinds id for the group or server key pk. The result is
// deterministic in its inputs.
func DeriveKeyPair(p edcrypto.Provider, id edcrypto.Identity, pk []byte) (KeyPair, error) {
	var kp KeyPair
	k, err := Factor(p, pk)
	if err != nil {
		return kp, err
	}
	a, err := p.SecretScalar(id.Seed[:])
	if err != nil {
		return kp, err
	}
	ka, err := p.ScalarMul(k[:], a[:])
	if err != nil {
		return kp, fmt.Errorf("blind secret scalar: %w", err)
	}
	kA, err := p.ScalarBaseMulNoClamp(ka[:])
	if err != nil {
		return kp, fmt.Errorf("blind public key: %w", err)
	}
	kp.Private = ka
	kp.Public = kA
	return kp, nil
}

// Validate checks that Public == Private*B.
func (kp KeyPair) Validate(p edcrypto.Provider) error {
	want, err := p.ScalarBaseMulNoClamp(kp.Private[:])
	if err != nil {
		return err
	}
	if !bytes.Equal(want[:], kp.Public[:]) {
		return precondition.NewError(precondition.ErrCodeCryptoPrecondition,
			"blindedPub", ctxBlinding, "blinded public key does not match blinded secret")
	}
	return nil
}

// SessionID returns "15" || hex(kA).
func SessionID(kp KeyPair) types.SessionID {
	return types.NewSessionID(types.PrefixBlinded15, kp.Public[:])
}

// MatchStandard reports whether blindedID is the blinded form of standardID
// on the server (or group) whose public key is serverPK.
//
// A standard id only carries the X25519 key, which maps to two Ed25519 keys
// differing in sign. Both are tried.
func MatchStandard(p edcrypto.Provider, standardID, blindedID types.SessionID, serverPK []byte) (bool, error) {
	if !standardID.IsStandard() {
		return false, &precondition.Error{Code: precondition.ErrCodeInvalidMemberID, Field: "standardID", Context: ctxBlinding}
	}
	if blindedID.Prefix() != types.PrefixBlinded15 {
		return false, precondition.NewError(precondition.ErrCodeInvalidMemberID,
			"blindedID", ctxBlinding, "blinded id must start with 15")
	}
	blinded, err := blindedID.Key()
	if err != nil {
		return false, err
	}
	x25519, err := standardID.Key()
	if err != nil {
		return false, err
	}
	k, err := Factor(p, serverPK)
	if err != nil {
		return false, err
	}
	ed, err := edcrypto.MontgomeryToEdwards(x25519)
	if err != nil {
		return false, err
	}
	pk1, err := p.ScalarMulNoClamp(k[:], ed[:])
	if err != nil {
		return false, fmt.Errorf("blind standard key: %w", err)
	}
	if bytes.Equal(pk1[:], blinded) {
		return true, nil
	}
	pk2 := pk1
	pk2[31] ^= 0x80
	return bytes.Equal(pk2[:], blinded), nil
}
