// Package rangeproof implements an aggregated Bulletproofs-style range
// proof: proof that every committed amount (new sender balances plus all
// transfer amounts) lies in [0, 2^64).
//
// The construction follows Bünz et al.'s aggregated range proof
// (Bulletproofs, §4.2-4.3): a polynomial commitment to the bit
// decomposition of each value, folded down to a single logarithmic-size
// inner product argument. Every challenge is drawn from the same
// transcript the rest of the transaction proof pipeline shares, so the
// range proof is the last thing folded into the Fiat-Shamir state.
package rangeproof

import (
	"errors"

	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/transcript"
)

// Proof is an aggregated range proof over m values, each BitLength bits.
type Proof struct {
	A, S   *group.Point
	T1, T2 *group.Point
	TauX   *group.Scalar
	Mu     *group.Scalar
	THat   *group.Scalar
	IPA    InnerProductProof
}

const (
	labelA    = "rangeproof/A"
	labelS    = "rangeproof/S"
	labelY    = "rangeproof/y"
	labelZ    = "rangeproof/z"
	labelT1   = "rangeproof/T1"
	labelT2   = "rangeproof/T2"
	labelX    = "rangeproof/x"
	labelTauX = "rangeproof/taux"
	labelMu   = "rangeproof/mu"
	labelTHat = "rangeproof/that"
)

var uBase = group.HashToPoint("terminos/bulletproof/u")

// ProveAggregated builds a single proof that every value in values lies
// in [0, 2^64), where gammas[i] is the blinding factor of the Pedersen
// commitment V_i = values[i]*H + gammas[i]*G the verifier already holds.
func ProveAggregated(tr *transcript.Transcript, values []uint64, gammas []*group.Scalar) (*Proof, error) {
	if len(values) == 0 {
		return nil, errors.New("rangeproof: at least one value required")
	}
	if len(gammas) != len(values) {
		return nil, errors.New("rangeproof: gammas length must match values length")
	}
	// The inner product argument's halving reduction requires a power-of-
	// two vector length; pad with (value=0, gamma=0) entries, which commit
	// to the identity point and so contribute nothing the verifier's own
	// identity-padded commitment list doesn't already account for.
	values, gammas = padToPowerOfTwo(values, gammas)
	m := len(values)
	n := BitLength
	N := n * m
	gVec, hVec := vectorGenerators(N)

	one := group.ScalarFromUint64(1)
	aL := make([]*group.Scalar, N)
	aR := make([]*group.Scalar, N)
	for j, v := range values {
		for i := 0; i < n; i++ {
			bit := (v >> uint(i)) & 1
			aL[j*n+i] = group.ScalarFromUint64(bit)
			aR[j*n+i] = group.NewScalar().Sub(aL[j*n+i], one)
		}
	}

	alpha, err := group.NewScalarRandom()
	if err != nil {
		return nil, err
	}
	rho, err := group.NewScalarRandom()
	if err != nil {
		return nil, err
	}
	sL, err := randomScalarVector(N)
	if err != nil {
		return nil, err
	}
	sR, err := randomScalarVector(N)
	if err != nil {
		return nil, err
	}

	A := group.NewPoint().Add(
		group.NewPoint().Add(group.NewPoint().ScalarMult(alpha, group.G()), vectorCommit(gVec, aL)),
		vectorCommit(hVec, aR),
	)
	S := group.NewPoint().Add(
		group.NewPoint().Add(group.NewPoint().ScalarMult(rho, group.G()), vectorCommit(gVec, sL)),
		vectorCommit(hVec, sR),
	)

	tr.AppendPoint(labelA, A)
	tr.AppendPoint(labelS, S)
	y := tr.ChallengeScalar(labelY)
	z := tr.ChallengeScalar(labelZ)

	yPow := powersOfScalar(y, N)
	zPows := powersOfScalarFrom(z, 2, m)

	l0 := make([]*group.Scalar, N)
	l1 := sL
	r0 := make([]*group.Scalar, N)
	r1 := make([]*group.Scalar, N)
	for i := 0; i < N; i++ {
		l0[i] = group.NewScalar().Sub(aL[i], z)

		block := i / n
		bitPos := i % n
		twoPow := group.ScalarFromUint64(uint64(1) << uint(bitPos))
		offset := group.NewScalar().Mul(zPows[block], twoPow)
		inner := group.NewScalar().Add(aR[i], z)

		r0[i] = group.NewScalar().Add(group.NewScalar().Mul(yPow[i], inner), offset)
		r1[i] = group.NewScalar().Mul(yPow[i], sR[i])
	}

	// t0 = <l0,r0> is never sent explicitly: the verifier's aggregated
	// t-check reconstructs it from the value commitments themselves.
	t1 := group.NewScalar().Add(innerProduct(l0, r1), innerProduct(l1, r0))
	t2 := innerProduct(l1, r1)

	tau1, err := group.NewScalarRandom()
	if err != nil {
		return nil, err
	}
	tau2, err := group.NewScalarRandom()
	if err != nil {
		return nil, err
	}
	T1 := group.NewPoint().Add(group.NewPoint().ScalarMult(t1, group.H()), group.NewPoint().ScalarMult(tau1, group.G()))
	T2 := group.NewPoint().Add(group.NewPoint().ScalarMult(t2, group.H()), group.NewPoint().ScalarMult(tau2, group.G()))

	tr.AppendPoint(labelT1, T1)
	tr.AppendPoint(labelT2, T2)
	x := tr.ChallengeScalar(labelX)

	l := make([]*group.Scalar, N)
	r := make([]*group.Scalar, N)
	for i := range l {
		l[i] = group.NewScalar().Add(l0[i], group.NewScalar().Mul(x, l1[i]))
		r[i] = group.NewScalar().Add(r0[i], group.NewScalar().Mul(x, r1[i]))
	}
	tHat := innerProduct(l, r)

	xSq := group.NewScalar().Mul(x, x)
	tauX := group.NewScalar().Add(group.NewScalar().Mul(tau1, x), group.NewScalar().Mul(tau2, xSq))
	for j := 0; j < m; j++ {
		tauX = group.NewScalar().Add(tauX, group.NewScalar().Mul(zPows[j], gammas[j]))
	}
	mu := group.NewScalar().Add(alpha, group.NewScalar().Mul(rho, x))

	tr.AppendScalar(labelTauX, tauX)
	tr.AppendScalar(labelMu, mu)
	tr.AppendScalar(labelTHat, tHat)

	yInv := invert(y)
	yInvPow := powersOfScalar(yInv, N)
	hPrime := make([]*group.Point, N)
	for i := range hVec {
		hPrime[i] = group.NewPoint().ScalarMult(yInvPow[i], hVec[i])
	}

	ipa := proveInnerProduct(tr, gVec, hPrime, uBase, l, r)

	return &Proof{A: A, S: S, T1: T1, T2: T2, TauX: tauX, Mu: mu, THat: tHat, IPA: ipa}, nil
}

// VerifyAggregated recomputes every challenge from tr (which must be in
// the identical state the prover's transcript was in before proving) and
// checks the aggregated t-check plus the folded inner product argument.
func VerifyAggregated(tr *transcript.Transcript, commitments []*group.Point, proof *Proof) error {
	if len(commitments) == 0 {
		return errors.New("rangeproof: at least one commitment required")
	}
	// Mirror the prover's power-of-two padding: an identity point is
	// exactly what a (value=0, gamma=0) Pedersen commitment evaluates to,
	// so appending it here reproduces the same commitment list the prover
	// folded into values/gammas.
	commitments = padCommitmentsToPowerOfTwo(commitments)
	m := len(commitments)
	n := BitLength
	N := n * m
	gVec, hVec := vectorGenerators(N)

	tr.AppendPoint(labelA, proof.A)
	tr.AppendPoint(labelS, proof.S)
	y := tr.ChallengeScalar(labelY)
	z := tr.ChallengeScalar(labelZ)

	tr.AppendPoint(labelT1, proof.T1)
	tr.AppendPoint(labelT2, proof.T2)
	x := tr.ChallengeScalar(labelX)

	tr.AppendScalar(labelTauX, proof.TauX)
	tr.AppendScalar(labelMu, proof.Mu)
	tr.AppendScalar(labelTHat, proof.THat)

	zPows := powersOfScalarFrom(z, 2, m)
	yPow := powersOfScalar(y, N)

	sumY := group.ZeroScalar()
	for i := 0; i < N; i++ {
		sumY = group.NewScalar().Add(sumY, yPow[i])
	}
	zMinusZSq := group.NewScalar().Sub(z, group.NewScalar().Mul(z, z))
	delta := group.NewScalar().Mul(zMinusZSq, sumY)

	twoSum := group.ZeroScalar()
	for i := 0; i < n; i++ {
		twoSum = group.NewScalar().Add(twoSum, group.ScalarFromUint64(uint64(1)<<uint(i)))
	}
	for j := 0; j < m; j++ {
		zCube := group.NewScalar().Mul(z, zPows[j]) // z^(3+j)
		delta = group.NewScalar().Sub(delta, group.NewScalar().Mul(zCube, twoSum))
	}

	lhs := group.NewPoint().Add(
		group.NewPoint().ScalarMult(proof.THat, group.H()),
		group.NewPoint().ScalarMult(proof.TauX, group.G()),
	)
	rhs := group.NewPoint().ScalarMult(delta, group.H())
	rhs = group.NewPoint().Add(rhs, group.NewPoint().ScalarMult(x, proof.T1))
	rhs = group.NewPoint().Add(rhs, group.NewPoint().ScalarMult(group.NewScalar().Mul(x, x), proof.T2))
	for j, vj := range commitments {
		rhs = group.NewPoint().Add(rhs, group.NewPoint().ScalarMult(zPows[j], vj))
	}
	if !lhs.Equal(rhs) {
		return errors.New("rangeproof: aggregated value-commitment check failed")
	}

	yInv := invert(y)
	yInvPow := powersOfScalar(yInv, N)
	hPrime := make([]*group.Point, N)
	pubVec := make([]*group.Scalar, N)
	for i := 0; i < N; i++ {
		hPrime[i] = group.NewPoint().ScalarMult(yInvPow[i], hVec[i])

		block := i / n
		bitPos := i % n
		twoPow := group.ScalarFromUint64(uint64(1) << uint(bitPos))
		offset := group.NewScalar().Mul(zPows[block], twoPow)
		pubVec[i] = group.NewScalar().Add(group.NewScalar().Mul(z, yPow[i]), offset)
	}

	p := group.NewPoint().Add(proof.A, group.NewPoint().ScalarMult(x, proof.S))
	p = group.NewPoint().Sub(p, group.NewPoint().ScalarMult(proof.Mu, group.G()))
	p = group.NewPoint().Sub(p, group.NewPoint().ScalarMult(z, vectorCommit(gVec, onesVector(N))))
	p = group.NewPoint().Add(p, vectorCommit(hPrime, pubVec))
	p = group.NewPoint().Add(p, group.NewPoint().ScalarMult(proof.THat, uBase))

	return verifyInnerProduct(tr, gVec, hPrime, uBase, p, proof.IPA)
}

// nextPowerOfTwo returns the smallest power of two >= n (n >= 1).
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// padToPowerOfTwo extends values/gammas with (0, 0) entries up to the
// next power of two in length, leaving them untouched if already there.
func padToPowerOfTwo(values []uint64, gammas []*group.Scalar) ([]uint64, []*group.Scalar) {
	target := nextPowerOfTwo(len(values))
	if target == len(values) {
		return values, gammas
	}
	paddedValues := make([]uint64, target)
	copy(paddedValues, values)
	paddedGammas := make([]*group.Scalar, target)
	copy(paddedGammas, gammas)
	zero := group.ZeroScalar()
	for i := len(values); i < target; i++ {
		paddedGammas[i] = zero
	}
	return paddedValues, paddedGammas
}

// padCommitmentsToPowerOfTwo extends commitments with identity points up
// to the next power of two in length, the verifier-side counterpart of
// padToPowerOfTwo's (0, 0) prover padding.
func padCommitmentsToPowerOfTwo(commitments []*group.Point) []*group.Point {
	target := nextPowerOfTwo(len(commitments))
	if target == len(commitments) {
		return commitments
	}
	padded := make([]*group.Point, target)
	copy(padded, commitments)
	identity := group.PointIdentity()
	for i := len(commitments); i < target; i++ {
		padded[i] = identity
	}
	return padded
}

func onesVector(n int) []*group.Scalar {
	out := make([]*group.Scalar, n)
	one := group.ScalarFromUint64(1)
	for i := range out {
		out[i] = one
	}
	return out
}

func powersOfScalar(base *group.Scalar, count int) []*group.Scalar {
	out := make([]*group.Scalar, count)
	cur := group.ScalarFromUint64(1)
	for i := 0; i < count; i++ {
		out[i] = cur
		cur = group.NewScalar().Mul(cur, base)
	}
	return out
}

func powersOfScalarFrom(base *group.Scalar, startExp, count int) []*group.Scalar {
	out := make([]*group.Scalar, count)
	cur := exponentiate(base, startExp)
	for i := 0; i < count; i++ {
		out[i] = cur
		cur = group.NewScalar().Mul(cur, base)
	}
	return out
}

func exponentiate(base *group.Scalar, exp int) *group.Scalar {
	result := group.ScalarFromUint64(1)
	for i := 0; i < exp; i++ {
		result = group.NewScalar().Mul(result, base)
	}
	return result
}

func randomScalarVector(n int) ([]*group.Scalar, error) {
	out := make([]*group.Scalar, n)
	for i := range out {
		s, err := group.NewScalarRandom()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
