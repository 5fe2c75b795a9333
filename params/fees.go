package params

import "github.com/holiman/uint256"

// Base units per TOS. Consensus-fixed unit scales live in params rather
// than scattered through core.
const UnitsPerTOS = 100_000_000

// Fee and energy constants, fixed by consensus. These never vary
// by chain config: unlike gas price, Terminos has no oracle-priced fees.
var (
	AccountActivationFee = uint256.NewInt(UnitsPerTOS / 10) // 0.1 TOS

	EnergyPerTransfer        = uint256.NewInt(1)
	EnergyPerKB              = uint256.NewInt(10)
	EnergyPerContractDeploy  = uint256.NewInt(1000)
	EnergyPerContractCall    = uint256.NewInt(100)
	EnergyPerByteStored      = uint256.NewInt(1)
	EnergyPerMultisigSig     = uint256.NewInt(5)
	EnergyToTOSRate          = uint256.NewInt(10000) // base units per energy unit
)

// FreezeDuration is the fixed set of allowed freeze periods.
// The set is not programmable: this is an explicit non-goal.
type FreezeDuration uint8

const (
	Day3 FreezeDuration = iota
	Day7
	Day14
)

// Seconds returns the lock duration of d, with 1 block approximated as
// 1 second.
func (d FreezeDuration) Seconds() (uint64, bool) {
	switch d {
	case Day3:
		return 259200, true
	case Day7:
		return 604800, true
	case Day14:
		return 1209600, true
	default:
		return 0, false
	}
}

// MultiplierNumDen returns the rational reward multiplier numerator and
// denominator for d.
func (d FreezeDuration) MultiplierNumDen() (num, den uint64, ok bool) {
	switch d {
	case Day3:
		return 1, 1, true
	case Day7:
		return 11, 10, true
	case Day14:
		return 12, 10, true
	default:
		return 0, 0, false
	}
}

// EnergyGained computes floor(amount * num / den) using 256-bit integer
// arithmetic so large TOS amounts never overflow a machine word.
func (d FreezeDuration) EnergyGained(amount uint64) (uint64, bool) {
	num, den, ok := d.MultiplierNumDen()
	if !ok {
		return 0, false
	}
	product := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(num))
	product.Div(product, uint256.NewInt(den))
	if !product.IsUint64() {
		return 0, false
	}
	return product.Uint64(), true
}

// RangeProofBitLength is the fixed width every committed amount is proven
// to fall within: [0, 2^RangeProofBitLength).
const RangeProofBitLength = 64
