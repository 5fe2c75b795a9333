package types

import (
	"github.com/tos-network/terminos/crypto/transcript"
)

// AppendTransactionTranscript is the single centralized routine both
// TransactionBuilder.Build and core.Verify call, exactly once, in the
// exact same order, for every (data variant, fee_type) combination —
// never a per-variant local append. A caller that appends twice, or in a
// different order, desynchronizes build and verify.
//
// energyRemoved is only meaningful when tx.Data is an EnergyData wrapping
// an UnfreezePayload; both the builder and the verifier compute it via
// EnergyResource.SimulateUnfreeze against the account snapshot before
// calling this function, and pass zero otherwise.
func AppendTransactionTranscript(tr *transcript.Transcript, tx *Transaction, energyRemoved uint64) error {
	tr.AppendU8("version", tx.Version)
	tr.AppendPoint("source", tx.Source)
	tr.AppendU64("fee", tx.Fee)
	tr.AppendU8("fee_type", uint8(tx.FeeType))
	tr.AppendU64("nonce", tx.Nonce)

	if err := appendDataVariant(tr, tx.Data, energyRemoved); err != nil {
		return err
	}

	for _, sc := range tx.SourceCommitments {
		tr.AppendMessage("source_commitment_asset", sc.Asset[:])
		tr.AppendPoint("source_commitment_value", sc.Commitment)
	}
	return nil
}

func appendDataVariant(tr *transcript.Transcript, data TransactionData, energyRemoved uint64) error {
	switch d := data.(type) {
	case TransfersData:
		tr.AppendU8("data_variant", 0)
		tr.AppendU64("transfer_count", uint64(len(d.Outputs)))
		for _, out := range d.Outputs {
			tr.AppendPoint("transfer_destination", out.Destination)
			tr.AppendMessage("transfer_asset", out.Asset[:])
			tr.AppendPoint("transfer_commitment_c", out.Commitment.C)
			tr.AppendPoint("transfer_commitment_d", out.Commitment.D)
			tr.AppendPoint("transfer_sender_handle", out.SenderHandle)
			tr.AppendPoint("transfer_receiver_handle", out.ReceiverHandle)
			tr.AppendMessage("transfer_memo", out.EncryptedMemo)
		}

	case BurnData:
		tr.AppendU8("data_variant", 1)
		tr.AppendMessage("burn_asset", d.Asset[:])
		tr.AppendU64("burn_amount", d.Amount)
		tr.AppendPoint("burn_commitment", d.Commitment)

	case MultiSigData:
		tr.AppendU8("data_variant", 2)
		tr.AppendU8("multisig_threshold", d.Threshold)
		tr.AppendU64("multisig_participant_count", uint64(len(d.Participants)))
		for _, p := range d.Participants {
			tr.AppendPoint("multisig_participant", p)
		}

	case InvokeContractData:
		tr.AppendU8("data_variant", 3)
		tr.AppendMessage("contract_address", d.Contract[:])
		appendDeposits(tr, "invoke_deposit", d.Deposits)
		tr.AppendMessage("invoke_payload", d.Payload)

	case DeployContractData:
		tr.AppendU8("data_variant", 4)
		tr.AppendMessage("deploy_bytecode", d.Bytecode)
		appendDeposits(tr, "deploy_deposit", d.Deposits)

	case EnergyData:
		tr.AppendU8("data_variant", 5)
		return appendEnergyPayload(tr, d.Payload, energyRemoved)

	default:
		return ErrInvalidEnergyPayload
	}
	return nil
}

func appendDeposits(tr *transcript.Transcript, label string, deposits []AssetDeposit) {
	tr.AppendU64(label+"_count", uint64(len(deposits)))
	for _, dep := range deposits {
		tr.AppendMessage(label+"_asset", dep.Asset[:])
		tr.AppendPoint(label+"_commitment", dep.Commitment)
	}
}

// appendEnergyPayload appends the fixed sequence for FreezeTos/UnfreezeTos
// payloads, exactly once per call.
func appendEnergyPayload(tr *transcript.Transcript, payload EnergyPayload, energyRemoved uint64) error {
	switch p := payload.(type) {
	case FreezePayload:
		tr.AppendU64("energy_amount", p.Amount)
		tr.AppendU8("energy_is_freeze", 1)
		seconds, ok := p.Duration.Seconds()
		if !ok {
			return ErrInvalidEnergyPayload
		}
		tr.AppendU64("energy_freeze_duration", seconds)
		tr.AppendU64("tos_balance_change", p.Amount)

		gained, ok := p.Duration.EnergyGained(p.Amount)
		if !ok {
			return ErrInvalidEnergyPayload
		}
		tr.AppendU64("energy_balance_change", gained)
		return nil

	case UnfreezePayload:
		tr.AppendU64("energy_amount", p.Amount)
		tr.AppendU8("energy_is_freeze", 0)
		tr.AppendU64("tos_balance_change", p.Amount)
		tr.AppendU64("energy_removed", energyRemoved)
		return nil

	default:
		return ErrInvalidEnergyPayload
	}
}
