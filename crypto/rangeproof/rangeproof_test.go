package rangeproof

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/transcript"
)

func commitValue(t *testing.T, v uint64) (*group.Point, *group.Scalar) {
	t.Helper()
	gamma, err := group.NewScalarRandom()
	require.NoError(t, err)
	commitment := group.NewPoint().Add(
		group.NewPoint().ScalarMult(group.ScalarFromUint64(v), group.H()),
		group.NewPoint().ScalarMult(gamma, group.G()),
	)
	return commitment, gamma
}

func TestAggregatedRangeProofSingleValueRoundTrip(t *testing.T) {
	commitment, gamma := commitValue(t, 1234)

	proveTr := transcript.New()
	proof, err := ProveAggregated(proveTr, []uint64{1234}, []*group.Scalar{gamma})
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.NoError(t, VerifyAggregated(verifyTr, []*group.Point{commitment}, proof))
}

func TestAggregatedRangeProofMultiValueRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 500000, 1<<32 + 7}
	commitments := make([]*group.Point, len(values))
	gammas := make([]*group.Scalar, len(values))
	for i, v := range values {
		c, g := commitValue(t, v)
		commitments[i] = c
		gammas[i] = g
	}

	proveTr := transcript.New()
	proof, err := ProveAggregated(proveTr, values, gammas)
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.NoError(t, VerifyAggregated(verifyTr, commitments, proof))
}

// TestAggregatedRangeProofNonPowerOfTwoValueCount covers a commitment
// count that isn't itself a power of two (e.g. two touched assets plus
// one transfer output), which the inner product argument's halving
// reduction cannot fold directly without padding.
func TestAggregatedRangeProofNonPowerOfTwoValueCount(t *testing.T) {
	values := []uint64{10, 20, 30}
	commitments := make([]*group.Point, len(values))
	gammas := make([]*group.Scalar, len(values))
	for i, v := range values {
		c, g := commitValue(t, v)
		commitments[i] = c
		gammas[i] = g
	}

	proveTr := transcript.New()
	proof, err := ProveAggregated(proveTr, values, gammas)
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.NoError(t, VerifyAggregated(verifyTr, commitments, proof))
}

func TestAggregatedRangeProofRejectsWrongCommitment(t *testing.T) {
	_, gamma := commitValue(t, 42)
	wrongCommitment, _ := commitValue(t, 43)

	proveTr := transcript.New()
	proof, err := ProveAggregated(proveTr, []uint64{42}, []*group.Scalar{gamma})
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.Error(t, VerifyAggregated(verifyTr, []*group.Point{wrongCommitment}, proof))
}

func TestAggregatedRangeProofRejectsTamperedTHat(t *testing.T) {
	commitment, gamma := commitValue(t, 7)

	proveTr := transcript.New()
	proof, err := ProveAggregated(proveTr, []uint64{7}, []*group.Scalar{gamma})
	require.NoError(t, err)

	proof.THat = group.NewScalar().Add(proof.THat, group.ScalarFromUint64(1))

	verifyTr := transcript.New()
	require.Error(t, VerifyAggregated(verifyTr, []*group.Point{commitment}, proof))
}

func TestAggregatedRangeProofRejectsMismatchedTranscript(t *testing.T) {
	commitment, gamma := commitValue(t, 99)

	proveTr := transcript.New()
	proof, err := ProveAggregated(proveTr, []uint64{99}, []*group.Scalar{gamma})
	require.NoError(t, err)

	verifyTr := transcript.New()
	verifyTr.AppendMessage("unexpected/prefix", []byte("desync"))
	require.Error(t, VerifyAggregated(verifyTr, []*group.Point{commitment}, proof))
}

func TestAggregatedRangeProofRejectsCountMismatch(t *testing.T) {
	c1, g1 := commitValue(t, 10)
	_, g2 := commitValue(t, 20)

	proveTr := transcript.New()
	proof, err := ProveAggregated(proveTr, []uint64{10, 20}, []*group.Scalar{g1, g2})
	require.NoError(t, err)

	verifyTr := transcript.New()
	require.Error(t, VerifyAggregated(verifyTr, []*group.Point{c1}, proof))
}
