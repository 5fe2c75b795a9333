// Package pedersen implements the Pedersen commitment Com(m, r) = mH + rG
// used for source-balance commitments and range-proof inputs.
package pedersen

import "github.com/tos-network/terminos/crypto/group"

// Commit returns Com(m, r) = m*H + r*G.
func Commit(m, r *group.Scalar) *group.Point {
	return group.NewPoint().Add(
		group.NewPoint().ScalarMult(m, group.H()),
		group.NewPoint().ScalarMult(r, group.G()),
	)
}

// CommitUint64 is a convenience wrapper for committing a plain u64 amount.
func CommitUint64(m uint64, r *group.Scalar) *group.Point {
	return Commit(group.ScalarFromUint64(m), r)
}
