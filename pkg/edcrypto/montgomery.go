package edcrypto

import (
	"fmt"

	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"
)

// EdwardsToMontgomery converts an Ed25519 public key to its X25519 form
// using the birational map u = (1+y)/(1-y).
func EdwardsToMontgomery(pub []byte) ([PointSize]byte, error) {
	var out [PointSize]byte
	if err := checkLen(pub, PointSize, "publicKey"); err != nil {
		return out, err
	}
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	copy(out[:], p.BytesMontgomery())
	return out, nil
}

// MontgomeryToEdwards maps an X25519 public key back to the Ed25519 key with
// the positive sign, y = (u-1)/(u+1). The negative key differs only in the
// top bit of the last byte.
func MontgomeryToEdwards(u []byte) ([PointSize]byte, error) {
	var out [PointSize]byte
	if err := checkLen(u, PointSize, "montgomeryKey"); err != nil {
		return out, err
	}
	x, err := new(field.Element).SetBytes(u)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	one := new(field.Element).One()
	num := new(field.Element).Subtract(x, one)
	den := new(field.Element).Add(x, one)
	den.Invert(den)
	y := new(field.Element).Multiply(num, den)
	copy(out[:], y.Bytes())
	return out, nil
}
