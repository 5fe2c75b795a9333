// Package schnorr implements the outer transaction signature:
// a Fiat-Shamir Schnorr signature over the Blake3 hash of a transaction's
// canonical encoding, built on the same transcript/group primitives as
// the rest of the proof pipeline rather than a separate signing stack.
package schnorr

import (
	"errors"

	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/transcript"
)

// Signature is a standard Schnorr signature (R, s) over Ristretto255.
type Signature struct {
	R *group.Point
	S *group.Scalar
}

const (
	labelPub = "schnorr/pub"
	labelMsg = "schnorr/msg"
	labelR   = "schnorr/R"
	labelC   = "schnorr/c"
)

// Sign produces a signature over msgHash (the Blake3 hash of the
// transaction's canonical encoding) under secret key sk.
func Sign(sk *group.Scalar, pub *group.Point, msgHash []byte) (Signature, error) {
	k, err := group.NewScalarRandom()
	if err != nil {
		return Signature{}, err
	}
	R := group.NewPoint().ScalarBaseMult(k)

	c := challenge(pub, msgHash, R)
	s := group.NewScalar().Add(k, group.NewScalar().Mul(c, sk))
	return Signature{R: R, S: s}, nil
}

// Verify checks sig against pub and msgHash.
func Verify(pub *group.Point, msgHash []byte, sig Signature) error {
	if sig.R == nil || sig.S == nil {
		return errors.New("schnorr: malformed signature")
	}
	c := challenge(pub, msgHash, sig.R)

	lhs := group.NewPoint().ScalarBaseMult(sig.S)
	rhs := group.NewPoint().Add(sig.R, group.NewPoint().ScalarMult(c, pub))
	if !lhs.Equal(rhs) {
		return errors.New("schnorr: signature verification failed")
	}
	return nil
}

func challenge(pub *group.Point, msgHash []byte, r *group.Point) *group.Scalar {
	tr := transcript.New()
	tr.AppendPoint(labelPub, pub)
	tr.AppendMessage(labelMsg, msgHash)
	tr.AppendPoint(labelR, r)
	return tr.ChallengeScalar(labelC)
}
