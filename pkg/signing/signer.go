package signing

import (
	"fmt"

	"github.com/relves/groupsig/pkg/blinding"
	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

// Signer produces 64-byte Ed25519-verifiable signatures.
type Signer interface {
	Sign(msg []byte) ([]byte, error)
	// PublicKey is the key signatures verify against.
	PublicKey() []byte
	Blinded() bool
}

// StandardSigner signs with the long-term identity key.
type StandardSigner struct {
	provider edcrypto.Provider
	identity edcrypto.Identity
}

// NewStandardSigner creates a signer for unblinded contexts.
func NewStandardSigner(p edcrypto.Provider, id edcrypto.Identity) *StandardSigner {
	return &StandardSigner{provider: p, identity: id}
}

func (s *StandardSigner) Sign(msg []byte) ([]byte, error) {
	return s.provider.Sign(s.identity, msg), nil
}

func (s *StandardSigner) PublicKey() []byte {
	return s.identity.Public[:]
}

func (s *StandardSigner) Blinded() bool { return false }

// BlindedSigner signs with the identity's blinded key for one group or
// server. Its signatures verify as plain Ed25519 against the blinded public
// key and reveal nothing about the identity key.
type BlindedSigner struct {
	provider edcrypto.Provider
	keys     blinding.KeyPair
	nonceKey [edcrypto.ScalarSize]byte
}

// NewBlindedSigner derives the blinded keypair of id for pk.
func NewBlindedSigner(p edcrypto.Provider, id edcrypto.Identity, pk []byte) (*BlindedSigner, error) {
	kp, err := blinding.DeriveKeyPair(p, id, pk)
	if err != nil {
		return nil, fmt.Errorf("derive blinded keypair: %w", err)
	}
	h := p.Hash512(id.Seed[:])
	s := &BlindedSigner{provider: p, keys: kp}
	copy(s.nonceKey[:], h[edcrypto.ScalarSize:])
	return s, nil
}

// Sign computes R || s with
//
//	r = H(nonceKey || kA || M) mod L,  R = rB
//	s = r + H(R || kA || M) * ka mod L
func (s *BlindedSigner) Sign(msg []byte) ([]byte, error) {
	p := s.provider
	kA := s.keys.Public[:]

	rh := p.Hash512(s.nonceKey[:], kA, msg)
	r, err := p.ScalarReduce(rh[:])
	if err != nil {
		return nil, err
	}
	R, err := p.ScalarBaseMulNoClamp(r[:])
	if err != nil {
		return nil, fmt.Errorf("blinded nonce point: %w", err)
	}
	hram := p.Hash512(R[:], kA, msg)
	h, err := p.ScalarReduce(hram[:])
	if err != nil {
		return nil, err
	}
	hka, err := p.ScalarMul(h[:], s.keys.Private[:])
	if err != nil {
		return nil, err
	}
	sc, err := p.ScalarAdd(r[:], hka[:])
	if err != nil {
		return nil, err
	}

	sig := make([]byte, 0, edcrypto.SignatureSize)
	sig = append(sig, R[:]...)
	sig = append(sig, sc[:]...)
	return sig, nil
}

func (s *BlindedSigner) PublicKey() []byte {
	return s.keys.Public[:]
}

func (s *BlindedSigner) Blinded() bool { return true }

// SessionID returns the 15-prefixed blinded id of this signer.
func (s *BlindedSigner) SessionID() types.SessionID {
	return blinding.SessionID(s.keys)
}

// SignForOperation builds the message for kind and signs it. The result is
// always exactly 64 bytes.
func SignForOperation(s Signer, kind Kind, f Fields) ([]byte, error) {
	msg, err := BuildMessage(kind, f)
	if err != nil {
		return nil, err
	}
	sig, err := s.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", kind, err)
	}
	if err := precondition.CheckLength(sig, precondition.SignatureLen, "signature", string(kind)); err != nil {
		return nil, err
	}
	return sig, nil
}

// Verify checks sig over msg against pub, which is the plain or the blinded
// public key depending on how msg was signed.
func Verify(p edcrypto.Provider, pub, msg, sig []byte) (bool, error) {
	return p.Verify(pub, msg, sig)
}

// VerifyForOperation rebuilds the message for kind and verifies sig.
func VerifyForOperation(p edcrypto.Provider, pub []byte, kind Kind, f Fields, sig []byte) (bool, error) {
	msg, err := BuildMessage(kind, f)
	if err != nil {
		return false, err
	}
	return Verify(p, pub, msg, sig)
}
