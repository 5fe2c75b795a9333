package types

import "errors"

// Sentinel errors surfaced by verify/apply, wrapped with
// fmt.Errorf("%w: ...", ErrX, detail).
var (
	ErrInvalidNonce              = errors.New("invalid nonce")
	ErrInvalidFeeType            = errors.New("invalid fee type")
	ErrInvalidProof              = errors.New("invalid proof")
	ErrInvalidCurvePoint         = errors.New("invalid curve point")
	ErrInvalidSignature          = errors.New("invalid signature")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrInsufficientEnergy        = errors.New("insufficient energy")
	ErrInsufficientUnlockedFrozen = errors.New("insufficient unlocked frozen tos")
	ErrInvalidEnergyPayload      = errors.New("invalid energy payload")
	ErrInsufficientFee           = errors.New("insufficient fee")
	ErrState                     = errors.New("state error")
)

// InsufficientUnlockedFrozenError carries the requested/available amounts
// back to the caller while still satisfying errors.Is(err, ErrInsufficientUnlockedFrozen),
// a structured error type for the cases where a plain sentinel would lose
// information the caller needs.
type InsufficientUnlockedFrozenError struct {
	Requested         uint64
	AvailableUnlocked uint64
}

func (e *InsufficientUnlockedFrozenError) Error() string {
	return "insufficient unlocked frozen tos"
}

func (e *InsufficientUnlockedFrozenError) Unwrap() error {
	return ErrInsufficientUnlockedFrozen
}

// InsufficientEnergyError carries the shortfall amount back to the caller.
type InsufficientEnergyError struct {
	Required  uint64
	Available uint64
}

func (e *InsufficientEnergyError) Error() string {
	return "insufficient energy"
}

func (e *InsufficientEnergyError) Unwrap() error {
	return ErrInsufficientEnergy
}

// InsufficientBalanceError carries the asset and amounts back to the caller.
type InsufficientBalanceError struct {
	Asset     Hash
	Required  uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return "insufficient balance"
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// InsufficientFeeError carries the shortfall between what a TOS-fee
// transaction paid and the activation fee its new recipients require.
type InsufficientFeeError struct {
	Required uint64
	Paid     uint64
}

func (e *InsufficientFeeError) Error() string {
	return "insufficient fee"
}

func (e *InsufficientFeeError) Unwrap() error {
	return ErrInsufficientFee
}

// InvalidNonceError carries the expected/actual nonces back to the caller.
type InvalidNonceError struct {
	Expected uint64
	Actual   uint64
}

func (e *InvalidNonceError) Error() string {
	return "invalid nonce"
}

func (e *InvalidNonceError) Unwrap() error {
	return ErrInvalidNonce
}
