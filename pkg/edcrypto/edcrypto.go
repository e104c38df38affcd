// Package edcrypto wraps the Ed25519 scalar and group-element operations
// needed for key blinding and for producing and verifying signatures.
//
// Scalars and points travel as fixed-size little-endian byte arrays, the way
// libsodium exposes them. Scalars are reduced mod L on input, so non-canonical
// values are accepted. Every function is pure and safe for concurrent use.
//
// NOTE: never log seeds, secret scalars or signatures produced here.
package edcrypto

import (
	"errors"

	"github.com/relves/groupsig/pkg/precondition"
)

// Fixed byte-length constants.
const (
	ScalarSize     = 32
	PointSize      = 32
	SeedSize       = 32
	PrivateKeySize = 64
	HashSize       = 64
	SignatureSize  = 64
)

// ErrInvalidPoint is returned when bytes do not decode to a usable curve point.
var ErrInvalidPoint = errors.New("invalid_edwards_point")

// ErrIdentityPoint is returned when a scalar multiplication lands on the identity.
var ErrIdentityPoint = errors.New("identity_point")

const ctxPrimitives = "edcrypto"

// Provider is the set of primitives the blinding and signing layers depend on.
// It is passed explicitly so tests and alternative backends can be swapped in.
type Provider interface {
	Hash512(parts ...[]byte) [HashSize]byte
	GenericHash512(data []byte) [HashSize]byte
	ScalarReduce(digest []byte) ([ScalarSize]byte, error)
	ScalarMul(a, b []byte) ([ScalarSize]byte, error)
	ScalarAdd(a, b []byte) ([ScalarSize]byte, error)
	ScalarBaseMulNoClamp(s []byte) ([PointSize]byte, error)
	ScalarMulNoClamp(s, point []byte) ([PointSize]byte, error)
	SecretScalar(seed []byte) ([ScalarSize]byte, error)
	Sign(id Identity, msg []byte) []byte
	Verify(pub, msg, sig []byte) (bool, error)
}

type provider struct{}

// Default returns the stateless provider backed by this package's functions.
func Default() Provider {
	return provider{}
}

func (provider) Hash512(parts ...[]byte) [HashSize]byte { return Hash512(parts...) }

func (provider) GenericHash512(data []byte) [HashSize]byte { return GenericHash512(data) }

func (provider) ScalarReduce(digest []byte) ([ScalarSize]byte, error) { return ScalarReduce(digest) }

func (provider) ScalarMul(a, b []byte) ([ScalarSize]byte, error) { return ScalarMul(a, b) }

func (provider) ScalarAdd(a, b []byte) ([ScalarSize]byte, error) { return ScalarAdd(a, b) }

func (provider) ScalarBaseMulNoClamp(s []byte) ([PointSize]byte, error) {
	return ScalarBaseMulNoClamp(s)
}

func (provider) ScalarMulNoClamp(s, point []byte) ([PointSize]byte, error) {
	return ScalarMulNoClamp(s, point)
}

func (provider) SecretScalar(seed []byte) ([ScalarSize]byte, error) { return SecretScalar(seed) }

func (provider) Sign(id Identity, msg []byte) []byte { return Sign(id, msg) }

func (provider) Verify(pub, msg, sig []byte) (bool, error) { return Verify(pub, msg, sig) }

func checkLen(data []byte, n int, field string) error {
	return precondition.CheckLength(data, n, field, ctxPrimitives)
}
