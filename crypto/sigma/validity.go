package sigma

import (
	"fmt"

	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/transcript"
)

// CiphertextValidityProof proves that a transfer output's shared
// ciphertext component C and its two per-key handles (sender, receiver)
// all encode the same (m, r) under the respective public keys — i.e.
// the output ciphertext is well formed and the sender/recipient halves
// agree on the transferred amount.
type CiphertextValidityProof struct {
	CiphertextCommitment *group.Point // r'*G + m'*H
	SenderCommitment     *group.Point // r'*P_sender
	ReceiverCommitment   *group.Point // r'*P_receiver

	ZMessage *group.Scalar
	ZRandom  *group.Scalar
}

const (
	labelCVRandCt     = "sigma/cv/rand_ct"
	labelCVRandSender = "sigma/cv/rand_sender"
	labelCVRandRecv   = "sigma/cv/rand_recv"
	labelCVChallenge  = "sigma/cv/challenge"
)

// ProveCiphertextValidity builds the proof for a ciphertext whose shared
// C-component and per-key D handles were built with EncryptWithRandomness
// using the same (amount, r).
func ProveCiphertextValidity(
	tr *transcript.Transcript,
	senderPub, receiverPub *group.Point,
	amount uint64,
	r *group.Scalar,
) (CiphertextValidityProof, error) {
	m := group.ScalarFromUint64(amount)

	mPrime, err := group.NewScalarRandom()
	if err != nil {
		return CiphertextValidityProof{}, err
	}
	rPrime, err := group.NewScalarRandom()
	if err != nil {
		return CiphertextValidityProof{}, err
	}

	ctCommit := group.NewPoint().Add(
		group.NewPoint().ScalarBaseMult(rPrime),
		group.NewPoint().ScalarMult(mPrime, group.H()),
	)
	senderCommit := group.NewPoint().ScalarMult(rPrime, senderPub)
	recvCommit := group.NewPoint().ScalarMult(rPrime, receiverPub)

	tr.AppendPoint(labelCVRandCt, ctCommit)
	tr.AppendPoint(labelCVRandSender, senderCommit)
	tr.AppendPoint(labelCVRandRecv, recvCommit)
	e := tr.ChallengeScalar(labelCVChallenge)

	zM := group.NewScalar().Add(mPrime, group.NewScalar().Mul(e, m))
	zR := group.NewScalar().Add(rPrime, group.NewScalar().Mul(e, r))

	return CiphertextValidityProof{
		CiphertextCommitment: ctCommit,
		SenderCommitment:     senderCommit,
		ReceiverCommitment:   recvCommit,
		ZMessage:             zM,
		ZRandom:              zR,
	}, nil
}

// VerifyCiphertextValidity recomputes the challenge and checks all three
// verification equations. senderHandle/receiverHandle are the D-component
// of the ciphertext under each respective public key.
func VerifyCiphertextValidity(
	tr *transcript.Transcript,
	senderPub, receiverPub *group.Point,
	shared *elgamal.Ciphertext,
	senderHandle, receiverHandle *group.Point,
	proof CiphertextValidityProof,
) error {
	tr.AppendPoint(labelCVRandCt, proof.CiphertextCommitment)
	tr.AppendPoint(labelCVRandSender, proof.SenderCommitment)
	tr.AppendPoint(labelCVRandRecv, proof.ReceiverCommitment)
	e := tr.ChallengeScalar(labelCVChallenge)

	lhsCt := group.NewPoint().Add(
		group.NewPoint().ScalarBaseMult(proof.ZRandom),
		group.NewPoint().ScalarMult(proof.ZMessage, group.H()),
	)
	rhsCt := group.NewPoint().Add(proof.CiphertextCommitment, group.NewPoint().ScalarMult(e, shared.C))
	if !lhsCt.Equal(rhsCt) {
		return fmt.Errorf("sigma: ciphertext validity: shared relation failed")
	}

	lhsSender := group.NewPoint().ScalarMult(proof.ZRandom, senderPub)
	rhsSender := group.NewPoint().Add(proof.SenderCommitment, group.NewPoint().ScalarMult(e, senderHandle))
	if !lhsSender.Equal(rhsSender) {
		return fmt.Errorf("sigma: ciphertext validity: sender handle relation failed")
	}

	lhsRecv := group.NewPoint().ScalarMult(proof.ZRandom, receiverPub)
	rhsRecv := group.NewPoint().Add(proof.ReceiverCommitment, group.NewPoint().ScalarMult(e, receiverHandle))
	if !lhsRecv.Equal(rhsRecv) {
		return fmt.Errorf("sigma: ciphertext validity: receiver handle relation failed")
	}

	return nil
}
