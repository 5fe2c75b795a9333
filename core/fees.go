package core

import (
	"github.com/tos-network/terminos/core/types"
	"github.com/tos-network/terminos/params"
)

// perNewAddressEnergy is the Energy-denominated cost of activating a
// previously unregistered recipient, derived from ACCOUNT_ACTIVATION_FEE
// via ENERGY_TO_TOS_RATE:
// an Energy-fee transfer must not let an attacker activate accounts for
// free just because it dodges the TOS-denominated activation fee.
func perNewAddressEnergy() uint64 {
	fee := params.AccountActivationFee.Uint64()
	rate := params.EnergyToTOSRate.Uint64()
	return (fee + rate - 1) / rate
}

// EnergyCost computes the energy cost of a transaction:
// per_transfer*|outputs| + per_kb*ceil(size/1024) + per_new_address*new_addresses,
// plus the multisig and contract deposit/deploy terms.
func EnergyCost(tx *types.Transaction, txSize uint64, newAddresses uint64) uint64 {
	var cost uint64

	switch d := tx.Data.(type) {
	case types.TransfersData:
		cost += params.EnergyPerTransfer.Uint64() * uint64(len(d.Outputs))
	case types.MultiSigData:
		cost += params.EnergyPerMultisigSig.Uint64() * uint64(len(d.Participants))
	case types.InvokeContractData:
		cost += params.EnergyPerContractCall.Uint64()
		cost += params.EnergyPerByteStored.Uint64() * uint64(len(d.Payload))
	case types.DeployContractData:
		cost += params.EnergyPerContractDeploy.Uint64()
		cost += params.EnergyPerByteStored.Uint64() * uint64(len(d.Bytecode))
	}

	kb := (txSize + 1023) / 1024
	cost += params.EnergyPerKB.Uint64() * kb
	cost += perNewAddressEnergy() * newAddresses
	return cost
}

// activationFeeTOS is the TOS-denominated fee new_addresses adds to a
// TOS-fee_type transaction's required fee.
func activationFeeTOS(newAddresses uint64) uint64 {
	return params.AccountActivationFee.Uint64() * newAddresses
}
