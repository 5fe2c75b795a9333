package core

import (
	"fmt"

	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/core/types"
)

// Apply mutates state according to a fixed three-step order. It must
// only ever be called with the VerifiedTransaction a prior successful
// Verify produced against the same state snapshot; Apply does not
// re-check proofs or balances and treats every state-layer error as
// fatal.
func Apply(state StateWriter, vtx *VerifiedTransaction, vm ContractVM) error {
	tx := vtx.Tx
	key := vtx.SourceKey

	// Step 1: advance the nonce.
	if err := state.SetNonce(&key, tx.Nonce+1); err != nil {
		log.Warn("apply: failed to advance nonce", "source", key.Hex(), "err", err)
		return fmt.Errorf("%w: %v", types.ErrState, err)
	}

	// Step 2: consume energy when fee_type is Energy.
	if tx.FeeType == types.FeeTypeEnergy {
		energy, err := state.GetEnergyResource(&key)
		if err != nil {
			log.Warn("apply: failed to load energy resource", "source", key.Hex(), "err", err)
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
		if err := energy.Consume(vtx.EnergyCost); err != nil {
			log.Warn("apply: energy consume diverged from verify", "source", key.Hex(), "cost", vtx.EnergyCost, "err", err)
			return err
		}
		if err := state.UpdateEnergyResource(&key, energy); err != nil {
			log.Warn("apply: failed to persist energy resource", "source", key.Hex(), "err", err)
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
	}

	// Step 3: execute the data variant.
	switch d := tx.Data.(type) {
	case types.TransfersData:
		return applyTransfers(state, &key, tx, d)
	case types.BurnData:
		return applyBurn(state, &key, tx, d)
	case types.EnergyData:
		return applyEnergy(state, &key, tx, d, vtx.EnergyRemoved)
	case types.MultiSigData:
		// Declarative only: no state effect beyond the nonce and the TOS fee.
		if tx.FeeType == types.FeeTypeTOS && tx.Fee > 0 {
			ct, err := state.GetEncryptedBalance(&key, NativeAsset)
			if err != nil {
				return fmt.Errorf("%w: %v", types.ErrState, err)
			}
			if err := state.SetEncryptedBalance(&key, NativeAsset, elgamal.SubScalar(ct, tx.Fee)); err != nil {
				return fmt.Errorf("%w: %v", types.ErrState, err)
			}
		}
		return nil
	case types.InvokeContractData:
		if vm == nil {
			return fmt.Errorf("%w: no contract VM configured", types.ErrState)
		}
		return vm.Invoke(tx, state)
	case types.DeployContractData:
		if vm == nil {
			return fmt.Errorf("%w: no contract VM configured", types.ErrState)
		}
		_, err := vm.Deploy(tx, state)
		return err
	default:
		return types.ErrInvalidEnergyPayload
	}
}

// applyTransfers debits the sender's TOS fee (if any) and every
// transferred asset, then credits each recipient.
func applyTransfers(state StateWriter, source *PublicKeyBytes, tx *types.Transaction, data types.TransfersData) error {
	if tx.FeeType == types.FeeTypeTOS && tx.Fee > 0 {
		ct, err := state.GetEncryptedBalance(source, NativeAsset)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
		if err := state.SetEncryptedBalance(source, NativeAsset, elgamal.SubScalar(ct, tx.Fee)); err != nil {
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
	}

	for _, out := range data.Outputs {
		senderCt, err := state.GetEncryptedBalance(source, out.Asset)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
		senderCt = elgamal.Sub(senderCt, elgamal.Ciphertext{C: out.Commitment.C, D: out.SenderHandle})
		if err := state.SetEncryptedBalance(source, out.Asset, senderCt); err != nil {
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}

		destKey := publicKeyBytes(out.Destination)
		recipientCt, err := state.GetEncryptedBalance(&destKey, out.Asset)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
		recipientCt = elgamal.Add(recipientCt, elgamal.Ciphertext{C: out.Commitment.C, D: out.ReceiverHandle})
		if err := state.SetEncryptedBalance(&destKey, out.Asset, recipientCt); err != nil {
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
	}
	return nil
}

// applyBurn debits the source ciphertext and reduces the asset's
// publicly tracked supply by the same (public) amount.
func applyBurn(state StateWriter, source *PublicKeyBytes, tx *types.Transaction, data types.BurnData) error {
	if tx.FeeType == types.FeeTypeTOS && tx.Fee > 0 {
		ct, err := state.GetEncryptedBalance(source, NativeAsset)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
		if err := state.SetEncryptedBalance(source, NativeAsset, elgamal.SubScalar(ct, tx.Fee)); err != nil {
			return fmt.Errorf("%w: %v", types.ErrState, err)
		}
	}

	ct, err := state.GetEncryptedBalance(source, data.Asset)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrState, err)
	}
	if err := state.SetEncryptedBalance(source, data.Asset, elgamal.SubScalar(ct, data.Amount)); err != nil {
		return fmt.Errorf("%w: %v", types.ErrState, err)
	}
	return state.ReduceSupply(data.Asset, data.Amount)
}

// applyEnergy invokes Freeze or Unfreeze against the account's current
// EnergyResource, using the topoheight the state collaborator reports
// now (apply is the sole mutator and runs under the block-execution
// lock, so this read is consistent with Verify's earlier simulation as
// long as no concurrent write touched the same account in between). A
// TOS fee is debited from the native balance together with the freeze or
// unfreeze amount.
func applyEnergy(state StateWriter, source *PublicKeyBytes, tx *types.Transaction, data types.EnergyData, energyRemoved uint64) error {
	resource, err := state.GetEnergyResource(source)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrState, err)
	}
	now, err := state.GetTopoHeight()
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrState, err)
	}

	switch p := data.Payload.(type) {
	case types.FreezePayload:
		if _, err := resource.Freeze(p.Amount, p.Duration, now); err != nil {
			return err
		}
	case types.UnfreezePayload:
		removed, err := resource.Unfreeze(p.Amount, now)
		if err != nil {
			return err
		}
		if removed != energyRemoved {
			log.Warn("apply: unfreeze energy diverged between verify and apply",
				"source", source.Hex(), "verify_removed", energyRemoved, "apply_removed", removed)
			return fmt.Errorf("%w: energy removed diverged between verify and apply", types.ErrState)
		}
	default:
		return types.ErrInvalidEnergyPayload
	}

	if err := state.UpdateEnergyResource(source, resource); err != nil {
		return fmt.Errorf("%w: %v", types.ErrState, err)
	}

	ct, err := state.GetEncryptedBalance(source, NativeAsset)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrState, err)
	}
	switch p := data.Payload.(type) {
	case types.FreezePayload:
		ct = elgamal.SubScalar(ct, p.Amount)
	case types.UnfreezePayload:
		ct = addScalar(ct, p.Amount)
	}
	if tx.FeeType == types.FeeTypeTOS && tx.Fee > 0 {
		ct = elgamal.SubScalar(ct, tx.Fee)
	}
	return state.SetEncryptedBalance(source, NativeAsset, ct)
}
