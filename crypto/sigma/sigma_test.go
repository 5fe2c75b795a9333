package sigma

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/transcript"
)

func randPubKey(t *testing.T) (*group.Scalar, *group.Point) {
	t.Helper()
	sk, err := group.NewScalarRandom()
	require.NoError(t, err)
	return sk, group.NewPoint().ScalarBaseMult(sk)
}

func TestCommitmentEqualityProofRoundTrip(t *testing.T) {
	_, pub := randPubKey(t)

	m := group.ScalarFromUint64(74)
	rEnc, err := group.NewScalarRandom()
	require.NoError(t, err)
	rCom, err := group.NewScalarRandom()
	require.NoError(t, err)

	ct := elgamal.Ciphertext{
		C: group.NewPoint().Add(group.NewPoint().ScalarBaseMult(rEnc), group.NewPoint().ScalarMult(m, group.H())),
		D: group.NewPoint().ScalarMult(rEnc, pub),
	}
	comm := group.NewPoint().Add(group.NewPoint().ScalarBaseMult(rCom), group.NewPoint().ScalarMult(m, group.H()))

	proveTr := transcript.New()
	proof, err := ProveCommitmentEquality(proveTr, pub, m, rEnc, rCom)
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.NoError(t, VerifyCommitmentEquality(verifyTr, pub, ct, comm, proof))
}

func TestCommitmentEqualityProofRejectsTamperedCommitment(t *testing.T) {
	_, pub := randPubKey(t)
	m := group.ScalarFromUint64(74)
	rEnc, err := group.NewScalarRandom()
	require.NoError(t, err)
	rCom, err := group.NewScalarRandom()
	require.NoError(t, err)

	ct := elgamal.Ciphertext{
		C: group.NewPoint().Add(group.NewPoint().ScalarBaseMult(rEnc), group.NewPoint().ScalarMult(m, group.H())),
		D: group.NewPoint().ScalarMult(rEnc, pub),
	}
	wrongComm := group.NewPoint().Add(group.NewPoint().ScalarBaseMult(rCom), group.NewPoint().ScalarMult(group.ScalarFromUint64(75), group.H()))

	proveTr := transcript.New()
	proof, err := ProveCommitmentEquality(proveTr, pub, m, rEnc, rCom)
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.Error(t, VerifyCommitmentEquality(verifyTr, pub, ct, wrongComm, proof))
}

func TestCiphertextValidityProofRoundTrip(t *testing.T) {
	_, senderPub := randPubKey(t)
	_, recvPub := randPubKey(t)

	r, err := group.NewScalarRandom()
	require.NoError(t, err)
	amount := uint64(500)
	m := group.ScalarFromUint64(amount)

	shared := elgamal.Ciphertext{
		C: group.NewPoint().Add(group.NewPoint().ScalarBaseMult(r), group.NewPoint().ScalarMult(m, group.H())),
	}
	senderHandle := group.NewPoint().ScalarMult(r, senderPub)
	recvHandle := group.NewPoint().ScalarMult(r, recvPub)

	proveTr := transcript.New()
	proof, err := ProveCiphertextValidity(proveTr, senderPub, recvPub, amount, r)
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.NoError(t, VerifyCiphertextValidity(verifyTr, senderPub, recvPub, &shared, senderHandle, recvHandle, proof))
}

func TestCiphertextValidityProofRejectsWrongHandle(t *testing.T) {
	_, senderPub := randPubKey(t)
	_, recvPub := randPubKey(t)
	_, otherPub := randPubKey(t)

	r, err := group.NewScalarRandom()
	require.NoError(t, err)
	amount := uint64(500)
	m := group.ScalarFromUint64(amount)

	shared := elgamal.Ciphertext{
		C: group.NewPoint().Add(group.NewPoint().ScalarBaseMult(r), group.NewPoint().ScalarMult(m, group.H())),
	}
	senderHandle := group.NewPoint().ScalarMult(r, senderPub)
	wrongHandle := group.NewPoint().ScalarMult(r, otherPub)

	proveTr := transcript.New()
	proof, err := ProveCiphertextValidity(proveTr, senderPub, recvPub, amount, r)
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.Error(t, VerifyCiphertextValidity(verifyTr, senderPub, recvPub, &shared, senderHandle, wrongHandle, proof))
}
