// Package core implements the Terminos transaction lifecycle: building,
// verifying, and applying confidential transactions against external
// account state, plus the energy resource engine's consensus-facing
// entry points. A small set of collaborator interfaces is consumed by a
// synchronous, side-effect-free verify step followed by a mutating apply
// step.
package core

import (
	"encoding/hex"

	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/core/types"
)

// StateReader is the read side of the external state collaborator.
// Verify only ever calls these methods; it never mutates state.
type StateReader interface {
	GetNonce(pubkey *PublicKeyBytes) (uint64, error)
	GetEncryptedBalance(pubkey *PublicKeyBytes, asset types.Hash) (elgamal.Ciphertext, error)
	GetEnergyResource(pubkey *PublicKeyBytes) (types.EnergyResource, error)
	GetTopoHeight() (uint64, error)
	IsRegistered(pubkey *PublicKeyBytes) (bool, error)
}

// StateWriter is the write side of the external state collaborator,
// exercised only by Apply.
type StateWriter interface {
	StateReader
	SetNonce(pubkey *PublicKeyBytes, nonce uint64) error
	SetEncryptedBalance(pubkey *PublicKeyBytes, asset types.Hash, ct elgamal.Ciphertext) error
	UpdateEnergyResource(pubkey *PublicKeyBytes, resource types.EnergyResource) error
	ReduceSupply(asset types.Hash, amount uint64) error
}

// ContractVM is the capability interface contract variants dispatch to.
// The VM itself is out of scope.
type ContractVM interface {
	Invoke(tx *types.Transaction, state StateWriter) error
	Deploy(tx *types.Transaction, state StateWriter) (types.Hash, error)
}

// PublicKeyBytes is the state collaborator's account key: the compressed
// encoding of a group.Point, used as a map/storage key where the curve
// point type itself would be inconvenient to hash or compare.
type PublicKeyBytes [32]byte

// Hex returns the 0x-prefixed hex encoding, for logging.
func (k PublicKeyBytes) Hex() string {
	return "0x" + hex.EncodeToString(k[:])
}
