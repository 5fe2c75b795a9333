package types

// ValidatePoints checks that the source key, every source commitment, and
// every point the data variant carries (transfer outputs, burn and deposit
// commitments, multisig participants) are present before anything touches
// them. AppendTransactionTranscript assumes decompression already
// happened; a nil here is the in-memory equivalent of a decompression
// failure on the wire and is rejected the same way, not reached as a nil
// pointer dereference in the transcript code. The points and scalars
// inside the sigma proofs, the range proof and the signature are not
// checked here.
func ValidatePoints(tx *Transaction) error {
	if tx.Source == nil {
		return ErrInvalidCurvePoint
	}
	for _, sc := range tx.SourceCommitments {
		if sc.Commitment == nil {
			return ErrInvalidCurvePoint
		}
	}

	switch d := tx.Data.(type) {
	case TransfersData:
		for _, out := range d.Outputs {
			if out.Destination == nil || out.Commitment.C == nil || out.Commitment.D == nil ||
				out.SenderHandle == nil || out.ReceiverHandle == nil {
				return ErrInvalidCurvePoint
			}
		}
	case BurnData:
		if d.Commitment == nil {
			return ErrInvalidCurvePoint
		}
	case MultiSigData:
		for _, p := range d.Participants {
			if p == nil {
				return ErrInvalidCurvePoint
			}
		}
	case InvokeContractData:
		for _, dep := range d.Deposits {
			if dep.Commitment == nil {
				return ErrInvalidCurvePoint
			}
		}
	case DeployContractData:
		for _, dep := range d.Deposits {
			if dep.Commitment == nil {
				return ErrInvalidCurvePoint
			}
		}
	}
	return nil
}
