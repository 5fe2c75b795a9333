// Package types implements the Terminos transaction data model: typed
// payloads, source commitments, canonical wire encoding, and the energy
// resource accounting records. One file per closely related group of
// concepts, sentinel errors centralized in errors.go.
package types

import (
	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/sigma"
)

// Hash is a 32-byte asset or transaction identifier.
type Hash [32]byte

// FeeType selects the dual TOS/Energy resource model.
type FeeType uint8

const (
	FeeTypeTOS FeeType = iota
	FeeTypeEnergy
)

func (f FeeType) String() string {
	switch f {
	case FeeTypeTOS:
		return "TOS"
	case FeeTypeEnergy:
		return "Energy"
	default:
		return "unknown"
	}
}

// SourceCommitment binds one asset the sender touches to a Pedersen
// commitment of its new balance, proven equal to the homomorphically
// updated ciphertext.
type SourceCommitment struct {
	Asset         Hash
	Commitment    *group.Point
	EqualityProof sigma.CommitmentEqualityProof
}

// TransferOutput is a single confidential payment within a Transfers
// transaction.
type TransferOutput struct {
	Destination    *group.Point
	Asset          Hash
	Commitment     elgamal.Ciphertext
	SenderHandle   *group.Point
	ReceiverHandle *group.Point
	EncryptedMemo  []byte
	ValidityProof  sigma.CiphertextValidityProof
}

// AssetDeposit gives contract variants a concrete, range-provable amount.
type AssetDeposit struct {
	Asset      Hash
	Commitment *group.Point
}
