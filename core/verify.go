package core

import (
	"fmt"

	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/rangeproof"
	"github.com/tos-network/terminos/crypto/schnorr"
	"github.com/tos-network/terminos/crypto/sigma"
	"github.com/tos-network/terminos/crypto/transcript"
	"github.com/tos-network/terminos/core/types"
)

// VerifiedTransaction is the result of a successful Verify: everything
// Apply needs that verify already had to compute. Apply assumes verify
// succeeded and never recomputes what verify proved.
type VerifiedTransaction struct {
	Tx            *types.Transaction
	SourceKey     PublicKeyBytes
	EnergyCost    uint64
	EnergyRemoved uint64 // only meaningful for an UnfreezeTos payload
}

// Verify runs a fixed validation pipeline against an immutable state
// snapshot. It performs no writes; a successful Verify is the only thing
// Apply trusts.
func Verify(state StateReader, tx *types.Transaction, txSize uint64) (*VerifiedTransaction, error) {
	sourceKey := publicKeyBytes(tx.Source)

	// Step 1: nonce.
	expectedNonce, err := state.GetNonce(&sourceKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrState, err)
	}
	if tx.Nonce != expectedNonce {
		log.Debug("verify: rejected invalid nonce", "source", sourceKey.Hex(), "expected", expectedNonce, "actual", tx.Nonce)
		return nil, &types.InvalidNonceError{Expected: expectedNonce, Actual: tx.Nonce}
	}

	// Step 2: fee_type/data-variant compatibility.
	if tx.FeeType == types.FeeTypeEnergy {
		if _, ok := tx.Data.(types.TransfersData); !ok {
			log.Debug("verify: rejected energy fee on non-transfer variant", "source", sourceKey.Hex())
			return nil, fmt.Errorf("%w: energy fees only permitted on transfers", types.ErrInvalidFeeType)
		}
		if tx.Fee != 0 {
			log.Debug("verify: rejected nonzero fee under energy fee_type", "source", sourceKey.Hex(), "fee", tx.Fee)
			return nil, fmt.Errorf("%w: fee must be zero when fee_type is energy", types.ErrInvalidFeeType)
		}
	}

	// Step 4 (ahead of the transcript rebuild): the source, source
	// commitment and data-variant points must be present (proof-internal
	// points are not covered by ValidatePoints). AppendTransactionTranscript
	// assumes decompression already happened; a nil point reaching it
	// panics instead of returning a rejection.
	if err := types.ValidatePoints(tx); err != nil {
		log.Debug("verify: rejected nil curve point", "source", sourceKey.Hex())
		return nil, err
	}

	// Step 9 (partially, ahead of transcript rebuild): energy-payload
	// structural invariants and, for UnfreezeTos, the feasibility
	// simulation whose result the transcript rebuild in step 3 needs.
	var (
		energyRemoved        uint64
		energyResource       types.EnergyResource
		energyResourceLoaded bool
	)
	loadEnergyResource := func() (types.EnergyResource, error) {
		if energyResourceLoaded {
			return energyResource, nil
		}
		res, err := state.GetEnergyResource(&sourceKey)
		if err != nil {
			return types.EnergyResource{}, fmt.Errorf("%w: %v", types.ErrState, err)
		}
		energyResource = res
		energyResourceLoaded = true
		return energyResource, nil
	}

	if ed, ok := tx.Data.(types.EnergyData); ok {
		if err := ed.Payload.Validate(); err != nil {
			return nil, err
		}
		if up, ok := ed.Payload.(types.UnfreezePayload); ok {
			res, err := loadEnergyResource()
			if err != nil {
				return nil, err
			}
			now, err := state.GetTopoHeight()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", types.ErrState, err)
			}
			energyRemoved, err = res.SimulateUnfreeze(up.Amount, now)
			if err != nil {
				return nil, err
			}
		}
	}

	// Step 3: rebuild the transcript in builder order.
	tr := transcript.New()
	if err := types.AppendTransactionTranscript(tr, tx, energyRemoved); err != nil {
		return nil, err
	}

	// Step 5: per-output ciphertext validity proofs.
	if transfers, ok := tx.Data.(types.TransfersData); ok {
		for i := range transfers.Outputs {
			out := &transfers.Outputs[i]
			if err := sigma.VerifyCiphertextValidity(
				tr, tx.Source, out.Destination, &out.Commitment,
				out.SenderHandle, out.ReceiverHandle, out.ValidityProof,
			); err != nil {
				log.Debug("verify: rejected ciphertext validity proof", "source", sourceKey.Hex(), "output", i)
				return nil, fmt.Errorf("%w: %v", types.ErrInvalidProof, err)
			}
		}
	}

	// Step 6: per-source-commitment equality proofs against the
	// homomorphically reconstructed new balance ciphertext.
	for _, sc := range tx.SourceCommitments {
		oldCt, err := state.GetEncryptedBalance(&sourceKey, sc.Asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrState, err)
		}
		newCt, err := reconstructNewBalance(tx, sc.Asset, oldCt)
		if err != nil {
			return nil, err
		}
		if err := sigma.VerifyCommitmentEquality(tr, tx.Source, newCt, sc.Commitment, sc.EqualityProof); err != nil {
			log.Debug("verify: rejected commitment equality proof", "source", sourceKey.Hex(), "asset", sc.Asset)
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidProof, err)
		}
	}

	// Step 7: aggregated range proof over the commitment list.
	commitments, err := types.RangeProofCommitments(tx)
	if err != nil {
		return nil, err
	}
	if tx.RangeProof == nil {
		log.Debug("verify: rejected missing range proof", "source", sourceKey.Hex())
		return nil, fmt.Errorf("%w: missing range proof", types.ErrInvalidProof)
	}
	if err := rangeproof.VerifyAggregated(tr, commitments, tx.RangeProof); err != nil {
		log.Debug("verify: rejected range proof", "source", sourceKey.Hex())
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidProof, err)
	}

	// Step 8: outer signature over the canonical encoding.
	hash, err := types.CanonicalHash(tx)
	if err != nil {
		return nil, err
	}
	if err := schnorr.Verify(tx.Source, hash[:], tx.Signature); err != nil {
		log.Debug("verify: rejected signature", "source", sourceKey.Hex())
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidSignature, err)
	}

	var energyCost uint64
	switch tx.FeeType {
	case types.FeeTypeEnergy:
		newAddresses, err := countNewAddresses(state, tx)
		if err != nil {
			return nil, err
		}
		energyCost = EnergyCost(tx, txSize, newAddresses)

		res, err := loadEnergyResource()
		if err != nil {
			return nil, err
		}
		if !res.HasEnough(energyCost) {
			log.Debug("verify: rejected insufficient energy", "source", sourceKey.Hex(), "required", energyCost, "available", res.Available())
			return nil, &types.InsufficientEnergyError{Required: energyCost, Available: res.Available()}
		}

	case types.FeeTypeTOS:
		newAddresses, err := countNewAddresses(state, tx)
		if err != nil {
			return nil, err
		}
		if minFee := activationFeeTOS(newAddresses); tx.Fee < minFee {
			log.Debug("verify: rejected insufficient fee", "source", sourceKey.Hex(), "required", minFee, "paid", tx.Fee)
			return nil, &types.InsufficientFeeError{Required: minFee, Paid: tx.Fee}
		}
	}

	return &VerifiedTransaction{
		Tx:            tx,
		SourceKey:     sourceKey,
		EnergyCost:    energyCost,
		EnergyRemoved: energyRemoved,
	}, nil
}

// reconstructNewBalance derives the expected post-transaction ciphertext
// for asset from the on-chain ciphertext oldCt, purely homomorphically —
// verify never sees plaintext amounts.
func reconstructNewBalance(tx *types.Transaction, asset types.Hash, oldCt elgamal.Ciphertext) (elgamal.Ciphertext, error) {
	newCt := oldCt
	if asset == NativeAsset && tx.FeeType == types.FeeTypeTOS {
		newCt = elgamal.SubScalar(newCt, tx.Fee)
	}

	switch d := tx.Data.(type) {
	case types.TransfersData:
		for _, out := range d.Outputs {
			if out.Asset == asset {
				// Subtract using the sender's own handle, not the
				// recipient's: out.Commitment.D is the receiver's handle
				// (r_out*receiverPub), unrelated to the sender's key. The
				// sender's balance loses r_out*G alongside the amount, so
				// its D-component must lose r_out*senderPub, i.e.
				// out.SenderHandle.
				newCt = elgamal.Sub(newCt, elgamal.Ciphertext{C: out.Commitment.C, D: out.SenderHandle})
			}
		}
	case types.BurnData:
		if d.Asset == asset {
			newCt = elgamal.SubScalar(newCt, d.Amount)
		}
	case types.EnergyData:
		if asset == NativeAsset {
			switch p := d.Payload.(type) {
			case types.FreezePayload:
				newCt = elgamal.SubScalar(newCt, p.Amount)
			case types.UnfreezePayload:
				newCt = addScalar(newCt, p.Amount)
			}
		}
	}
	return newCt, nil
}

// addScalar adds a known plaintext scalar back onto a ciphertext's
// C-component, the inverse of elgamal.SubScalar, used when unfreezing
// credits TOS back to the sender.
func addScalar(ct elgamal.Ciphertext, s uint64) elgamal.Ciphertext {
	sh := group.NewPoint().ScalarMult(group.ScalarFromUint64(s), group.H())
	return elgamal.Ciphertext{C: group.NewPoint().Add(ct.C, sh), D: ct.D}
}

func countNewAddresses(state StateReader, tx *types.Transaction) (uint64, error) {
	transfers, ok := tx.Data.(types.TransfersData)
	if !ok {
		return 0, nil
	}
	var count uint64
	for _, out := range transfers.Outputs {
		key := publicKeyBytes(out.Destination)
		registered, err := state.IsRegistered(&key)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", types.ErrState, err)
		}
		if !registered {
			count++
		}
	}
	return count, nil
}

func publicKeyBytes(p *group.Point) PublicKeyBytes {
	var out PublicKeyBytes
	if p == nil {
		return out
	}
	copy(out[:], p.Bytes())
	return out
}
