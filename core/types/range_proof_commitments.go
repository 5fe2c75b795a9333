package types

import "github.com/tos-network/terminos/crypto/group"

// RangeProofCommitments builds the ordered commitment list the aggregated
// range proof must cover: every source commitment first, then a
// per-variant suffix. The verifier calls this; the builder does not, and
// instead appends its (value, blinding) pairs in this same order, or the
// aggregated proof would be built and checked against different
// commitment sets.
func RangeProofCommitments(tx *Transaction) ([]*group.Point, error) {
	commitments := make([]*group.Point, 0, len(tx.SourceCommitments)+1)
	for _, sc := range tx.SourceCommitments {
		commitments = append(commitments, sc.Commitment)
	}

	switch d := tx.Data.(type) {
	case TransfersData:
		for _, out := range d.Outputs {
			commitments = append(commitments, out.Commitment.C)
		}
	case BurnData:
		commitments = append(commitments, d.Commitment)
	case EnergyData:
		// No recipient commitment: freeze/unfreeze only change the
		// sender's TOS balance and the off-chain-visible energy counter.
	case InvokeContractData:
		for _, dep := range d.Deposits {
			commitments = append(commitments, dep.Commitment)
		}
	case DeployContractData:
		for _, dep := range d.Deposits {
			commitments = append(commitments, dep.Commitment)
		}
	case MultiSigData:
		// source_commitments only.
	default:
		return nil, ErrInvalidEnergyPayload
	}

	return commitments, nil
}
