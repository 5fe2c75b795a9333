// Package elgamal implements the twisted-ElGamal ciphertext construction
// confidential balances are built on: a pair of Ristretto255
// points (C, D) such that C = rG + mH and D = rP for recipient public key
// P, blinding scalar r, and plaintext amount m.
package elgamal

import (
	"github.com/tos-network/terminos/crypto/group"
)

// PublicKey is a Ristretto255 public key P = xG for secret key x.
type PublicKey struct {
	Point *group.Point
}

// Ciphertext is the (C, D) pair of a twisted-ElGamal encryption. Addition
// and scalar subtraction are defined componentwise so balances can be
// updated homomorphically without ever decrypting.
type Ciphertext struct {
	C *group.Point
	D *group.Point
}

// Encrypt produces a fresh encryption of amount under pubkey, returning
// both the ciphertext and the randomness used (the caller needs r to
// build the matching Pedersen commitment opening for the sender's own
// balance update).
func Encrypt(pubkey PublicKey, amount uint64) (Ciphertext, *group.Scalar, error) {
	r, err := group.NewScalarRandom()
	if err != nil {
		return Ciphertext{}, nil, err
	}
	return EncryptWithRandomness(pubkey, amount, r), r, nil
}

// EncryptWithRandomness builds a ciphertext with caller-supplied
// randomness, used when two handles (sender and recipient) must share
// the same underlying amount and blinding factor, as with
// TransferOutput's sender/recipient ciphertext halves.
func EncryptWithRandomness(pubkey PublicKey, amount uint64, r *group.Scalar) Ciphertext {
	m := group.ScalarFromUint64(amount)
	c := group.NewPoint().Add(
		group.NewPoint().ScalarBaseMult(r),
		group.NewPoint().ScalarMult(m, group.H()),
	)
	d := group.NewPoint().ScalarMult(r, pubkey.Point)
	return Ciphertext{C: c, D: d}
}

// DecryptHandle recomputes only the D-component of a ciphertext, used by
// a ciphertext-validity proof to show two handles encode the same (r, m)
// under different public keys.
func DecryptHandle(pubkey PublicKey, r *group.Scalar) *group.Point {
	return group.NewPoint().ScalarMult(r, pubkey.Point)
}

// Add returns the componentwise sum of two ciphertexts: Enc(m1+m2, r1+r2).
func Add(a, b Ciphertext) Ciphertext {
	return Ciphertext{
		C: group.NewPoint().Add(a.C, b.C),
		D: group.NewPoint().Add(a.D, b.D),
	}
}

// SubScalar subtracts a known plaintext scalar s from a ciphertext's
// C-component only, used to apply a public fee debit homomorphically:
// Enc(m, r) - s*H = Enc(m - s, r).
func SubScalar(ct Ciphertext, s uint64) Ciphertext {
	sh := group.NewPoint().ScalarMult(group.ScalarFromUint64(s), group.H())
	return Ciphertext{
		C: group.NewPoint().Sub(ct.C, sh),
		D: ct.D,
	}
}

// Sub returns the componentwise difference of two ciphertexts:
// Enc(m1-m2, r1-r2).
func Sub(a, b Ciphertext) Ciphertext {
	return Ciphertext{
		C: group.NewPoint().Sub(a.C, b.C),
		D: group.NewPoint().Sub(a.D, b.D),
	}
}

// Bytes returns the 64-byte canonical encoding (C || D) used both on the
// wire and in the transcript.
func (ct Ciphertext) Bytes() []byte {
	out := make([]byte, 0, 64)
	out = append(out, ct.C.Bytes()...)
	out = append(out, ct.D.Bytes()...)
	return out
}

// Decode parses a 64-byte (C || D) encoding, failing with the curve-point
// decompression error the verifier maps to ErrInvalidCurvePoint.
func Decode(b []byte) (Ciphertext, error) {
	if len(b) != 64 {
		return Ciphertext{}, errInvalidLength
	}
	c, err := group.DecodePoint(b[:32])
	if err != nil {
		return Ciphertext{}, err
	}
	d, err := group.DecodePoint(b[32:])
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{C: c, D: d}, nil
}

var errInvalidLength = ctError("elgamal: ciphertext must be exactly 64 bytes")

type ctError string

func (e ctError) Error() string { return string(e) }
