package core

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/pedersen"
	"github.com/tos-network/terminos/crypto/rangeproof"
	"github.com/tos-network/terminos/crypto/schnorr"
	"github.com/tos-network/terminos/crypto/sigma"
	"github.com/tos-network/terminos/crypto/transcript"
	"github.com/tos-network/terminos/core/types"
)

// NativeAsset is the TOS asset identifier: the zero hash. Every
// transaction touches it, since fees, freezes, and unfreezes are all
// denominated in it.
var NativeAsset types.Hash

// AssetBalance is the sender's already-decrypted view of one asset's
// current on-chain ciphertext: the plaintext amount and the randomness
// originally used to encrypt it. Only the account owner can supply this;
// it never crosses the state collaborator boundary.
type AssetBalance struct {
	Amount        uint64
	Randomness    *group.Scalar
	OldCiphertext elgamal.Ciphertext
}

// TransferRequest is one outgoing payment the builder should encrypt.
type TransferRequest struct {
	Destination *group.Point
	Asset       types.Hash
	Amount      uint64
	Memo        []byte
}

// BurnRequest is a destruction of Amount of Asset. Like TransferRequest,
// the builder retains Amount and its commitment's blinding so it can
// fold the burn commitment into the aggregated range proof; a BurnData
// value constructed outside the builder would have no matching entry in
// that proof and could never pass RangeProofCommitments verification.
type BurnRequest struct {
	Asset  types.Hash
	Amount uint64
}

// BuildRequest bundles everything TransactionBuilder.Build needs beyond
// the sender's own keys. Transfers, Burn, and Data are mutually
// exclusive: confidential transfer amounts must come from Transfers and
// burn amounts from Burn so the builder retains the plaintext and
// blinding the range proof needs; Data carries every other variant,
// whose amounts (if any) are already public on the wire.
type BuildRequest struct {
	Nonce     uint64
	Fee       uint64
	FeeType   types.FeeType
	Transfers []TransferRequest
	Burn      *BurnRequest
	Data      types.TransactionData
	Balances  map[types.Hash]AssetBalance
	Now       uint64
	Energy    types.EnergyResource
}

// TransactionBuilder assembles a signed, provable Transaction.
type TransactionBuilder struct {
	SourceSecretKey *group.Scalar
	SourcePublicKey *group.Point
	Version         uint8
}

// NewTransactionBuilder derives the builder's public key from sk.
func NewTransactionBuilder(sk *group.Scalar) *TransactionBuilder {
	return &TransactionBuilder{
		SourceSecretKey: sk,
		SourcePublicKey: group.NewPoint().ScalarBaseMult(sk),
		Version:         1,
	}
}

// Build assembles req into a signed Transaction, computing the transcript
// in generation order exactly once via types.AppendTransactionTranscript
//: structural fields first, then per-output ciphertext
// validity proofs, then per-asset commitment equality proofs, then the
// aggregated range proof, and finally the outer signature over the
// canonical encoding.
func (b *TransactionBuilder) Build(req BuildRequest) (*types.Transaction, error) {
	variants := 0
	if req.Data != nil {
		variants++
	}
	if len(req.Transfers) > 0 {
		variants++
	}
	if req.Burn != nil {
		variants++
	}
	if variants > 1 {
		return nil, fmt.Errorf("%w: Data, Transfers, and Burn are mutually exclusive", types.ErrState)
	}

	var (
		data             types.TransactionData
		outputRandomness []*group.Scalar
		transferAmounts  []uint64
		burnGamma        *group.Scalar
	)
	switch {
	case req.Data != nil:
		switch req.Data.(type) {
		case types.TransfersData:
			return nil, fmt.Errorf("%w: use Transfers to build confidential transfers", types.ErrState)
		case types.BurnData:
			return nil, fmt.Errorf("%w: use Burn to build burns", types.ErrState)
		}
		data = req.Data
	case req.Burn != nil:
		rBurn, err := group.NewScalarRandom()
		if err != nil {
			return nil, err
		}
		commitment := pedersen.CommitUint64(req.Burn.Amount, rBurn)
		data = types.BurnData{Asset: req.Burn.Asset, Amount: req.Burn.Amount, Commitment: commitment}
		burnGamma = rBurn
	default:
		outputs, randomness, amounts, err := b.buildTransferOutputs(req.Transfers)
		if err != nil {
			return nil, err
		}
		data = types.TransfersData{Outputs: outputs}
		outputRandomness = randomness
		transferAmounts = amounts
	}

	if req.FeeType == types.FeeTypeEnergy {
		if _, ok := data.(types.TransfersData); !ok {
			return nil, fmt.Errorf("%w: energy fees only permitted on transfers", types.ErrInvalidFeeType)
		}
		if req.Fee != 0 {
			return nil, fmt.Errorf("%w: fee must be zero when fee_type is energy", types.ErrInvalidFeeType)
		}
	}

	tx := &types.Transaction{
		Version: b.Version,
		Source:  b.SourcePublicKey,
		Nonce:   req.Nonce,
		Fee:     req.Fee,
		FeeType: req.FeeType,
		Data:    data,
	}

	var energyRemoved uint64
	if ed, ok := data.(types.EnergyData); ok {
		if up, ok := ed.Payload.(types.UnfreezePayload); ok {
			removed, err := req.Energy.SimulateUnfreeze(up.Amount, req.Now)
			if err != nil {
				return nil, err
			}
			energyRemoved = removed
		}
	}

	deltas, err := b.computeDeltas(data, req.Fee, req.FeeType, transferAmounts)
	if err != nil {
		return nil, err
	}
	touched := touchedAssets(deltas)

	sourceCommitments := make([]types.SourceCommitment, len(touched))
	values := make([]uint64, 0, len(touched)+len(transferAmounts))
	gammas := make([]*group.Scalar, 0, len(touched)+len(transferAmounts))
	rComByAsset := make(map[types.Hash]*group.Scalar, len(touched))
	newBalanceByAsset := make(map[types.Hash]uint64, len(touched))

	for i, asset := range touched {
		bal, ok := req.Balances[asset]
		if !ok {
			return nil, fmt.Errorf("%w: missing balance opening for asset", types.ErrState)
		}
		signedNew := int64(bal.Amount) - deltas[asset]
		if signedNew < 0 {
			return nil, &types.InsufficientBalanceError{Asset: asset, Required: uint64(deltas[asset]), Available: bal.Amount}
		}
		newBalance := uint64(signedNew)

		rCom, err := group.NewScalarRandom()
		if err != nil {
			return nil, err
		}
		commitment := pedersen.CommitUint64(newBalance, rCom)

		sourceCommitments[i] = types.SourceCommitment{Asset: asset, Commitment: commitment}
		rComByAsset[asset] = rCom
		newBalanceByAsset[asset] = newBalance
		values = append(values, newBalance)
		gammas = append(gammas, rCom)
	}
	tx.SourceCommitments = sourceCommitments

	tr := transcript.New()
	if err := types.AppendTransactionTranscript(tr, tx, energyRemoved); err != nil {
		return nil, err
	}

	if transfers, ok := data.(types.TransfersData); ok {
		for i := range transfers.Outputs {
			out := &transfers.Outputs[i]
			proof, err := sigma.ProveCiphertextValidity(tr, b.SourcePublicKey, out.Destination, transferAmounts[i], outputRandomness[i])
			if err != nil {
				return nil, err
			}
			out.ValidityProof = proof
			values = append(values, transferAmounts[i])
			gammas = append(gammas, outputRandomness[i])
		}
	}
	if bd, ok := data.(types.BurnData); ok {
		// Matches RangeProofCommitments' BurnData suffix: the single burn
		// commitment immediately after the source commitments.
		values = append(values, bd.Amount)
		gammas = append(gammas, burnGamma)
	}

	randomnessSpent := spentEncRandomness(data, outputRandomness)
	for i, asset := range touched {
		bal := req.Balances[asset]
		rEnc := bal.Randomness
		if spent, ok := randomnessSpent[asset]; ok {
			rEnc = group.NewScalar().Sub(bal.Randomness, spent)
		}
		proof, err := sigma.ProveCommitmentEquality(
			tr, b.SourcePublicKey,
			group.ScalarFromUint64(newBalanceByAsset[asset]),
			rEnc,
			rComByAsset[asset],
		)
		if err != nil {
			return nil, err
		}
		tx.SourceCommitments[i].EqualityProof = proof
	}

	rp, err := rangeproof.ProveAggregated(tr, values, gammas)
	if err != nil {
		return nil, err
	}
	tx.RangeProof = rp

	hash, err := types.CanonicalHash(tx)
	if err != nil {
		return nil, err
	}
	sig, err := schnorr.Sign(b.SourceSecretKey, b.SourcePublicKey, hash[:])
	if err != nil {
		return nil, err
	}
	tx.Signature = sig

	return tx, nil
}

// buildTransferOutputs encrypts each requested payment, returning the
// public outputs alongside the per-output randomness and plaintext
// amount the second transcript pass and range proof need.
func (b *TransactionBuilder) buildTransferOutputs(reqs []TransferRequest) ([]types.TransferOutput, []*group.Scalar, []uint64, error) {
	outputs := make([]types.TransferOutput, len(reqs))
	randomness := make([]*group.Scalar, len(reqs))
	amounts := make([]uint64, len(reqs))

	for i, req := range reqs {
		r, err := group.NewScalarRandom()
		if err != nil {
			return nil, nil, nil, err
		}
		recipientCt := elgamal.EncryptWithRandomness(elgamal.PublicKey{Point: req.Destination}, req.Amount, r)
		senderHandle := elgamal.DecryptHandle(elgamal.PublicKey{Point: b.SourcePublicKey}, r)

		outputs[i] = types.TransferOutput{
			Destination:    req.Destination,
			Asset:          req.Asset,
			Commitment:     recipientCt,
			SenderHandle:   senderHandle,
			ReceiverHandle: recipientCt.D,
			EncryptedMemo:  req.Memo,
		}
		randomness[i] = r
		amounts[i] = req.Amount
	}
	return outputs, randomness, amounts, nil
}

// computeDeltas returns, per touched asset, the net plaintext amount the
// transaction debits from the sender's balance (negative for a credit,
// as with UnfreezePayload). Burn and Energy payload amounts are public
// fields on tx.Data; transfer amounts are not, so they must be supplied
// separately from the plaintext request.
func (b *TransactionBuilder) computeDeltas(data types.TransactionData, fee uint64, feeType types.FeeType, transferAmounts []uint64) (map[types.Hash]int64, error) {
	deltas := map[types.Hash]int64{NativeAsset: 0}
	if feeType == types.FeeTypeTOS {
		deltas[NativeAsset] += int64(fee)
	}

	switch d := data.(type) {
	case types.TransfersData:
		if len(transferAmounts) != len(d.Outputs) {
			return nil, fmt.Errorf("%w: transfer amount count mismatch", types.ErrState)
		}
		for i, out := range d.Outputs {
			deltas[out.Asset] += int64(transferAmounts[i])
		}
	case types.BurnData:
		deltas[d.Asset] += int64(d.Amount)
	case types.EnergyData:
		switch p := d.Payload.(type) {
		case types.FreezePayload:
			deltas[NativeAsset] += int64(p.Amount)
		case types.UnfreezePayload:
			deltas[NativeAsset] -= int64(p.Amount)
		}
	case types.MultiSigData, types.InvokeContractData, types.DeployContractData:
		// Deposit accounting for these variants is contract-VM territory
		// (out of scope); only the native fee debit is tracked here.
	}
	return deltas, nil
}

// spentEncRandomness returns, per asset, the sum of the encryption
// randomness used by transfer outputs of that asset. The sender's
// balance ciphertext loses this randomness along with the amount: a
// transfer output's shared C-component carries its own r_out*G term, so
// subtracting the output ciphertext from the sender's balance (using the
// sender's own handle, not the receiver's) also subtracts r_out from the
// balance's effective encryption randomness. The equality proof must be
// built against that same reduced randomness or it will not verify
// against the homomorphically reconstructed ciphertext.
func spentEncRandomness(data types.TransactionData, outputRandomness []*group.Scalar) map[types.Hash]*group.Scalar {
	transfers, ok := data.(types.TransfersData)
	if !ok {
		return nil
	}
	spent := make(map[types.Hash]*group.Scalar, len(transfers.Outputs))
	for i, out := range transfers.Outputs {
		if cur, ok := spent[out.Asset]; ok {
			spent[out.Asset] = group.NewScalar().Add(cur, outputRandomness[i])
		} else {
			spent[out.Asset] = outputRandomness[i].Clone()
		}
	}
	return spent
}

// touchedAssets returns every asset with an entry in deltas (NativeAsset
// always has one, even with a zero delta), in canonical byte order, so
// source commitment ordering is deterministic.
func touchedAssets(deltas map[types.Hash]int64) []types.Hash {
	assets := make([]types.Hash, 0, len(deltas))
	for asset := range deltas {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool {
		return bytes.Compare(assets[i][:], assets[j][:]) < 0
	})
	return assets
}
