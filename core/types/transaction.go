package types

import (
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/rangeproof"
	"github.com/tos-network/terminos/crypto/schnorr"
)

// TransactionData is the tagged `data` variant.
type TransactionData interface {
	isTransactionData()
}

// TransfersData carries one or more confidential payments.
type TransfersData struct {
	Outputs []TransferOutput
}

func (TransfersData) isTransactionData() {}

// BurnData destroys amount of asset, reducing supply.
type BurnData struct {
	Asset      Hash
	Amount     uint64
	Commitment *group.Point
}

func (BurnData) isTransactionData() {}

// MultiSigData declares a multisig participant set. The signature
// aggregation algorithm itself is wallet/VM territory, out of scope here;
// only the energy-accounting shape lives in this type.
type MultiSigData struct {
	Participants []*group.Point
	Threshold    uint8
}

func (MultiSigData) isTransactionData() {}

// InvokeContractData calls a deployed contract, optionally depositing
// confidential assets.
type InvokeContractData struct {
	Contract Hash
	Deposits []AssetDeposit
	Payload  []byte
}

func (InvokeContractData) isTransactionData() {}

// DeployContractData deploys new contract bytecode with optional deposits.
type DeployContractData struct {
	Bytecode []byte
	Deposits []AssetDeposit
}

func (DeployContractData) isTransactionData() {}

// EnergyData wraps a FreezePayload or UnfreezePayload.
type EnergyData struct {
	Payload EnergyPayload
}

func (EnergyData) isTransactionData() {}

// Transaction is the full signed, provable Terminos transaction.
type Transaction struct {
	Version           uint8
	Source            *group.Point
	Nonce             uint64
	Fee               uint64
	FeeType           FeeType
	Data              TransactionData
	SourceCommitments []SourceCommitment
	RangeProof        *rangeproof.Proof
	Signature         schnorr.Signature
}
