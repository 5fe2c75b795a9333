package pedersen

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tos-network/terminos/crypto/group"
)

func TestCommitIsBindingAndHiding(t *testing.T) {
	r1, err := group.NewScalarRandom()
	require.NoError(t, err)
	r2, err := group.NewScalarRandom()
	require.NoError(t, err)

	c1 := CommitUint64(10, r1)
	c2 := CommitUint64(10, r2)
	require.False(t, c1.Equal(c2), "different randomness must produce different commitments")

	c3 := CommitUint64(11, r1)
	require.False(t, c1.Equal(c3), "different amounts must produce different commitments")
}

func TestCommitIsHomomorphic(t *testing.T) {
	r1, err := group.NewScalarRandom()
	require.NoError(t, err)
	r2, err := group.NewScalarRandom()
	require.NoError(t, err)

	c1 := CommitUint64(10, r1)
	c2 := CommitUint64(20, r2)
	sum := group.NewPoint().Add(c1, c2)

	rSum := group.NewScalar().Add(r1, r2)
	expected := CommitUint64(30, rSum)
	require.True(t, sum.Equal(expected))
}
