package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tos-network/terminos/crypto/group"
)

func buildChallenge() *group.Scalar {
	tr := New()
	tr.AppendU8("version", 1)
	tr.AppendMessage("source", make([]byte, 32))
	tr.AppendU64("fee", 1)
	tr.AppendU8("fee_type", 0)
	tr.AppendU64("nonce", 0)
	return tr.ChallengeScalar("challenge")
}

func TestChallengesAreDeterministic(t *testing.T) {
	a := buildChallenge()
	b := buildChallenge()
	require.Equal(t, a.Bytes(), b.Bytes(), "same appends must yield the same challenge")
}

func TestDifferentOrderDivergesChallenge(t *testing.T) {
	tr1 := New()
	tr1.AppendU64("a", 1)
	tr1.AppendU64("b", 2)
	c1 := tr1.ChallengeScalar("out")

	tr2 := New()
	tr2.AppendU64("b", 2)
	tr2.AppendU64("a", 1)
	c2 := tr2.ChallengeScalar("out")

	require.NotEqual(t, c1.Bytes(), c2.Bytes(), "append order must be part of the transcript contract")
}

func TestDuplicateAppendDivergesFromSingleAppend(t *testing.T) {
	tr1 := New()
	tr1.AppendU64("energy_amount", 100)
	c1 := tr1.ChallengeScalar("out")

	tr2 := New()
	tr2.AppendU64("energy_amount", 100)
	tr2.AppendU64("energy_amount", 100)
	c2 := tr2.ChallengeScalar("out")

	require.NotEqual(t, c1.Bytes(), c2.Bytes(), "a duplicated append must not be equivalent to a single append")
}
