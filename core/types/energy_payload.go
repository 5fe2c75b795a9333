package types

import "github.com/tos-network/terminos/params"

// EnergyPayload is one of FreezePayload or UnfreezePayload.
type EnergyPayload interface {
	isEnergyPayload()
	// Validate enforces the structural invariants required before the
	// engine ever touches the account's EnergyResource: duration present
	// iff freeze, amount strictly positive.
	Validate() error
}

// FreezePayload freezes amount TOS for duration, minting energy.
type FreezePayload struct {
	Amount   uint64
	Duration params.FreezeDuration
}

func (FreezePayload) isEnergyPayload() {}

func (p FreezePayload) Validate() error {
	if p.Amount == 0 {
		return ErrInvalidEnergyPayload
	}
	if _, ok := p.Duration.Seconds(); !ok {
		return ErrInvalidEnergyPayload
	}
	return nil
}

// UnfreezePayload releases previously frozen TOS, removing energy
// proportionally from the oldest-unlockable records.
type UnfreezePayload struct {
	Amount uint64
}

func (UnfreezePayload) isEnergyPayload() {}

func (p UnfreezePayload) Validate() error {
	if p.Amount == 0 {
		return ErrInvalidEnergyPayload
	}
	return nil
}
