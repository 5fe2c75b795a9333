package group

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratorsDistinctAndStable(t *testing.T) {
	g1, g2 := G(), G()
	require.True(t, g1.Equal(g2), "G must be a stable singleton")

	h1, h2 := H(), H()
	require.True(t, h1.Equal(h2), "H must be a stable singleton")

	require.False(t, g1.Equal(h1), "G and H must be independent generators")
}

func TestScalarArithmeticRoundTrip(t *testing.T) {
	a := ScalarFromUint64(25)
	b := ScalarFromUint64(1)
	sum := NewScalar().Add(a, b)
	require.Equal(t, ScalarFromUint64(26).Bytes(), sum.Bytes())

	diff := NewScalar().Sub(sum, b)
	require.Equal(t, a.Bytes(), diff.Bytes())
}

func TestPointEncodeDecodeRoundTrip(t *testing.T) {
	s, err := NewScalarRandom()
	require.NoError(t, err)

	p := NewPoint().ScalarBaseMult(s)
	decoded, err := DecodePoint(p.Bytes())
	require.NoError(t, err)
	require.True(t, p.Equal(decoded))
}

func TestDecodePointRejectsGarbage(t *testing.T) {
	_, err := DecodePoint([]byte{0xFF})
	require.Error(t, err)
}

func TestHomomorphicAddSub(t *testing.T) {
	m1 := ScalarFromUint64(100)
	m2 := ScalarFromUint64(40)

	c1 := NewPoint().ScalarMult(m1, H())
	c2 := NewPoint().ScalarMult(m2, H())

	sum := NewPoint().Add(c1, c2)
	expected := NewPoint().ScalarMult(NewScalar().Add(m1, m2), H())
	require.True(t, sum.Equal(expected))

	diff := NewPoint().Sub(c1, c2)
	expectedDiff := NewPoint().ScalarMult(NewScalar().Sub(m1, m2), H())
	require.True(t, diff.Equal(expectedDiff))
}

func TestMultiScalarMult(t *testing.T) {
	scalars := []*Scalar{ScalarFromUint64(2), ScalarFromUint64(3)}
	points := []*Point{G(), H()}

	got := NewPoint().MultiScalarMult(scalars, points)

	want := NewPoint().Add(
		NewPoint().ScalarMult(scalars[0], points[0]),
		NewPoint().ScalarMult(scalars[1], points[1]),
	)
	require.True(t, got.Equal(want))
}
