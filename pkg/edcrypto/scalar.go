package edcrypto

import (
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"

	"github.com/relves/groupsig/pkg/precondition"
)

// Hash512 returns SHA-512 over the concatenation of parts.
func Hash512(parts ...[]byte) [HashSize]byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// GenericHash512 returns the 64-byte BLAKE2b digest of data.
func GenericHash512(data []byte) [HashSize]byte {
	return blake2b.Sum512(data)
}

// ScalarReduce interprets digest (1 to 64 bytes, little-endian) as an integer
// and reduces it mod L.
func ScalarReduce(digest []byte) ([ScalarSize]byte, error) {
	var out [ScalarSize]byte
	if len(digest) == 0 || len(digest) > HashSize {
		return out, &precondition.Error{
			Code:     precondition.ErrCodeCryptoPrecondition,
			Field:    "digest",
			Expected: HashSize,
			Actual:   len(digest),
			Context:  ctxPrimitives,
		}
	}
	s, err := reduceWide(digest)
	if err != nil {
		return out, err
	}
	copy(out[:], s.Bytes())
	return out, nil
}

// ScalarMul returns a*b mod L.
func ScalarMul(a, b []byte) ([ScalarSize]byte, error) {
	var out [ScalarSize]byte
	x, err := scalarFrom(a, "a")
	if err != nil {
		return out, err
	}
	y, err := scalarFrom(b, "b")
	if err != nil {
		return out, err
	}
	copy(out[:], edwards25519.NewScalar().Multiply(x, y).Bytes())
	return out, nil
}

// ScalarAdd returns a+b mod L.
func ScalarAdd(a, b []byte) ([ScalarSize]byte, error) {
	var out [ScalarSize]byte
	x, err := scalarFrom(a, "a")
	if err != nil {
		return out, err
	}
	y, err := scalarFrom(b, "b")
	if err != nil {
		return out, err
	}
	copy(out[:], edwards25519.NewScalar().Add(x, y).Bytes())
	return out, nil
}

// ScalarBaseMulNoClamp returns s*B without clamping s. Only the top bit of s
// is cleared, matching libsodium. An identity result is rejected.
func ScalarBaseMulNoClamp(s []byte) ([PointSize]byte, error) {
	var out [PointSize]byte
	x, err := noClampScalar(s)
	if err != nil {
		return out, err
	}
	p := new(edwards25519.Point).ScalarBaseMult(x)
	if p.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return out, ErrIdentityPoint
	}
	copy(out[:], p.Bytes())
	return out, nil
}

// ScalarMulNoClamp returns s*P without clamping s. P must be a valid point
// outside the small-order subgroup.
func ScalarMulNoClamp(s, point []byte) ([PointSize]byte, error) {
	var out [PointSize]byte
	x, err := noClampScalar(s)
	if err != nil {
		return out, err
	}
	if err := checkLen(point, PointSize, "point"); err != nil {
		return out, err
	}
	p, err := new(edwards25519.Point).SetBytes(point)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	identity := edwards25519.NewIdentityPoint()
	if new(edwards25519.Point).MultByCofactor(p).Equal(identity) == 1 {
		return out, fmt.Errorf("%w: small order point", ErrInvalidPoint)
	}
	if !inPrimeOrderSubgroup(p) {
		return out, fmt.Errorf("%w: point outside the prime order subgroup", ErrInvalidPoint)
	}
	r := new(edwards25519.Point).ScalarMult(x, p)
	if r.Equal(identity) == 1 {
		return out, ErrIdentityPoint
	}
	copy(out[:], r.Bytes())
	return out, nil
}

// SecretScalar expands an Ed25519 seed into its clamped secret scalar,
// SHA-512(seed)[:32] with the RFC 8032 bit twiddling. This is the same value
// libsodium returns from crypto_sign_ed25519_sk_to_curve25519.
func SecretScalar(seed []byte) ([ScalarSize]byte, error) {
	var out [ScalarSize]byte
	if err := checkLen(seed, SeedSize, "seed"); err != nil {
		return out, err
	}
	h := sha512.Sum512(seed)
	copy(out[:], h[:ScalarSize])
	out[0] &= 248
	out[31] &= 127
	out[31] |= 64
	return out, nil
}

// orderMinusOne is L-1, little-endian.
var orderMinusOne = func() *edwards25519.Scalar {
	b := [ScalarSize]byte{
		0xec, 0xd3, 0xf5, 0x5c, 0x1a, 0x63, 0x12, 0x58,
		0xd6, 0x9c, 0xf7, 0xa2, 0xde, 0xf9, 0xde, 0x14,
	}
	b[31] = 0x10
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	if err != nil {
		panic(err)
	}
	return s
}()

// inPrimeOrderSubgroup reports whether L*P is the identity, computed as
// (L-1)*P + P since L itself is not a canonical scalar.
func inPrimeOrderSubgroup(p *edwards25519.Point) bool {
	q := new(edwards25519.Point).ScalarMult(orderMinusOne, p)
	q.Add(q, p)
	return q.Equal(edwards25519.NewIdentityPoint()) == 1
}

func scalarFrom(b []byte, field string) (*edwards25519.Scalar, error) {
	if err := checkLen(b, ScalarSize, field); err != nil {
		return nil, err
	}
	return reduceWide(b)
}

func noClampScalar(s []byte) (*edwards25519.Scalar, error) {
	if err := checkLen(s, ScalarSize, "scalar"); err != nil {
		return nil, err
	}
	var t [ScalarSize]byte
	copy(t[:], s)
	t[31] &= 127
	return reduceWide(t[:])
}

// reduceWide zero-extends b to 64 bytes and reduces it mod L.
func reduceWide(b []byte) (*edwards25519.Scalar, error) {
	var wide [HashSize]byte
	copy(wide[:], b)
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		return nil, fmt.Errorf("reduce scalar: %w", err)
	}
	return s, nil
}
