package sigma

import (
	"fmt"

	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/transcript"
)

// CommitmentEqualityProof proves, in zero knowledge, that a Pedersen
// commitment `Com(m, r_com) = r_com*G + m*H` and an ElGamal ciphertext
// `(C, D) = (r_enc*G + m*H, r_enc*P)` encode the same plaintext m, without
// revealing m, r_enc, or r_com.
//
// It is a three-move Sigma protocol proving knowledge of (m, r_enc,
// r_com) satisfying all three linear relations simultaneously.
type CommitmentEqualityProof struct {
	// Commitments to the prover's random blinding (m', r_enc', r_com').
	CiphertextCommitment *group.Point // r_enc'*G + m'*H
	HandleCommitment     *group.Point // r_enc'*P
	BalanceCommitment    *group.Point // r_com'*G + m'*H

	// Fiat-Shamir responses.
	ZMessage   *group.Scalar
	ZEncRandom *group.Scalar
	ZComRandom *group.Scalar
}

const (
	labelCERandCt    = "sigma/ceq/rand_ct"
	labelCERandD     = "sigma/ceq/rand_d"
	labelCERandCom   = "sigma/ceq/rand_com"
	labelCEChallenge = "sigma/ceq/challenge"
)

// ProveCommitmentEquality builds a CommitmentEqualityProof for ciphertext
// ct = (r_enc*G + m*H, r_enc*P) and commitment comm = r_com*G + m*H under
// recipient/sender public key pubkey.
func ProveCommitmentEquality(
	tr *transcript.Transcript,
	pubkey *group.Point,
	m, rEnc, rCom *group.Scalar,
) (CommitmentEqualityProof, error) {
	mPrime, err := group.NewScalarRandom()
	if err != nil {
		return CommitmentEqualityProof{}, err
	}
	rEncPrime, err := group.NewScalarRandom()
	if err != nil {
		return CommitmentEqualityProof{}, err
	}
	rComPrime, err := group.NewScalarRandom()
	if err != nil {
		return CommitmentEqualityProof{}, err
	}

	ctCommit := group.NewPoint().Add(
		group.NewPoint().ScalarBaseMult(rEncPrime),
		group.NewPoint().ScalarMult(mPrime, group.H()),
	)
	dCommit := group.NewPoint().ScalarMult(rEncPrime, pubkey)
	comCommit := group.NewPoint().Add(
		group.NewPoint().ScalarBaseMult(rComPrime),
		group.NewPoint().ScalarMult(mPrime, group.H()),
	)

	tr.AppendPoint(labelCERandCt, ctCommit)
	tr.AppendPoint(labelCERandD, dCommit)
	tr.AppendPoint(labelCERandCom, comCommit)
	e := tr.ChallengeScalar(labelCEChallenge)

	zM := group.NewScalar().Add(mPrime, group.NewScalar().Mul(e, m))
	zEnc := group.NewScalar().Add(rEncPrime, group.NewScalar().Mul(e, rEnc))
	zCom := group.NewScalar().Add(rComPrime, group.NewScalar().Mul(e, rCom))

	return CommitmentEqualityProof{
		CiphertextCommitment: ctCommit,
		HandleCommitment:     dCommit,
		BalanceCommitment:    comCommit,
		ZMessage:             zM,
		ZEncRandom:           zEnc,
		ZComRandom:           zCom,
	}, nil
}

// VerifyCommitmentEquality recomputes the Fiat-Shamir challenge from tr
// and checks all three verification equations.
func VerifyCommitmentEquality(
	tr *transcript.Transcript,
	pubkey *group.Point,
	ct elgamal.Ciphertext,
	comm *group.Point,
	proof CommitmentEqualityProof,
) error {
	tr.AppendPoint(labelCERandCt, proof.CiphertextCommitment)
	tr.AppendPoint(labelCERandD, proof.HandleCommitment)
	tr.AppendPoint(labelCERandCom, proof.BalanceCommitment)
	e := tr.ChallengeScalar(labelCEChallenge)

	lhsCt := group.NewPoint().Add(
		group.NewPoint().ScalarBaseMult(proof.ZEncRandom),
		group.NewPoint().ScalarMult(proof.ZMessage, group.H()),
	)
	rhsCt := group.NewPoint().Add(proof.CiphertextCommitment, group.NewPoint().ScalarMult(e, ct.C))
	if !lhsCt.Equal(rhsCt) {
		return fmt.Errorf("sigma: commitment equality: ciphertext relation failed")
	}

	lhsD := group.NewPoint().ScalarMult(proof.ZEncRandom, pubkey)
	rhsD := group.NewPoint().Add(proof.HandleCommitment, group.NewPoint().ScalarMult(e, ct.D))
	if !lhsD.Equal(rhsD) {
		return fmt.Errorf("sigma: commitment equality: handle relation failed")
	}

	lhsCom := group.NewPoint().Add(
		group.NewPoint().ScalarBaseMult(proof.ZComRandom),
		group.NewPoint().ScalarMult(proof.ZMessage, group.H()),
	)
	rhsCom := group.NewPoint().Add(proof.BalanceCommitment, group.NewPoint().ScalarMult(e, comm))
	if !lhsCom.Equal(rhsCom) {
		return fmt.Errorf("sigma: commitment equality: balance relation failed")
	}

	return nil
}
