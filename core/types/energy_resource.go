package types

import (
	"sort"

	"github.com/tos-network/terminos/params"
)

// FreezeRecord is an immutable receipt of a single freeze operation,
// amortized (partially or fully) on unfreeze.
type FreezeRecord struct {
	Amount           uint64
	Duration         params.FreezeDuration
	FreezeTopoheight uint64
	UnlockTopoheight uint64
	EnergyGained     uint64
}

// FreezeRecordList is an arena of records kept sorted ascending by
// UnlockTopoheight, supporting ordered iteration and prefix consumption.
type FreezeRecordList []*FreezeRecord

func (l *FreezeRecordList) insertSorted(r *FreezeRecord) {
	i := sort.Search(len(*l), func(i int) bool {
		return (*l)[i].UnlockTopoheight >= r.UnlockTopoheight
	})
	*l = append(*l, nil)
	copy((*l)[i+1:], (*l)[i:])
	(*l)[i] = r
}

func (l *FreezeRecordList) removeAt(i int) {
	*l = append((*l)[:i], (*l)[i+1:]...)
}

// EnergyResource is the per-account energy accounting state. It is owned
// by the external state collaborator; the core only ever operates on a
// value it was handed and hands back.
type EnergyResource struct {
	FrozenTOS            uint64
	TotalEnergy          uint64
	UsedEnergy           uint64
	LastUpdateTopoheight uint64
	Records              FreezeRecordList
}

// Available returns the energy currently spendable.
func (e *EnergyResource) Available() uint64 {
	if e.UsedEnergy >= e.TotalEnergy {
		return 0
	}
	return e.TotalEnergy - e.UsedEnergy
}

// HasEnough reports whether cost energy can be consumed right now.
func (e *EnergyResource) HasEnough(cost uint64) bool {
	return e.Available() >= cost
}

// Consume deducts cost from the available energy, failing
// InsufficientEnergy if the account does not have enough.
func (e *EnergyResource) Consume(cost uint64) error {
	if !e.HasEnough(cost) {
		return &InsufficientEnergyError{Required: cost, Available: e.Available()}
	}
	e.UsedEnergy += cost
	return nil
}

// Freeze locks amount TOS for duration at topoheight now, minting energy
// and appending an immutable FreezeRecord.
func (e *EnergyResource) Freeze(amount uint64, duration params.FreezeDuration, now uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidEnergyPayload
	}
	seconds, ok := duration.Seconds()
	if !ok {
		return 0, ErrInvalidEnergyPayload
	}
	gained, ok := duration.EnergyGained(amount)
	if !ok {
		return 0, ErrInvalidEnergyPayload
	}

	record := &FreezeRecord{
		Amount:           amount,
		Duration:         duration,
		FreezeTopoheight: now,
		UnlockTopoheight: now + seconds,
		EnergyGained:     gained,
	}
	e.Records.insertSorted(record)
	e.FrozenTOS += amount
	e.TotalEnergy += gained
	e.LastUpdateTopoheight = now
	return gained, nil
}

func (l FreezeRecordList) clone() FreezeRecordList {
	out := make(FreezeRecordList, len(l))
	for i, r := range l {
		cp := *r
		out[i] = &cp
	}
	return out
}

// Unfreeze releases amount TOS from the oldest-unlockable records at
// topoheight now, proportionally removing energy from each consumed
// record, and returns the total energy removed.
func (e *EnergyResource) Unfreeze(amount uint64, now uint64) (uint64, error) {
	removed, records, err := unfreezeRecords(e.Records, amount, now)
	if err != nil {
		return 0, err
	}
	e.Records = records
	e.FrozenTOS -= amount
	e.TotalEnergy -= removed
	if e.UsedEnergy > e.TotalEnergy {
		e.UsedEnergy = e.TotalEnergy
	}
	e.LastUpdateTopoheight = now
	return removed, nil
}

// SimulateUnfreeze reports the energy that Unfreeze(amount, now) would
// remove, without mutating e, so verify can confirm unfreeze feasibility
// without side effects.
func (e *EnergyResource) SimulateUnfreeze(amount uint64, now uint64) (uint64, error) {
	removed, _, err := unfreezeRecords(e.Records, amount, now)
	return removed, err
}

// unfreezeRecords walks records oldest-unlockable-first against a private
// clone, so both the mutating Unfreeze and the read-only SimulateUnfreeze
// share one algorithm instead of two copies that could silently diverge.
func unfreezeRecords(records FreezeRecordList, amount, now uint64) (uint64, FreezeRecordList, error) {
	if amount == 0 {
		return 0, nil, ErrInvalidEnergyPayload
	}

	var availableUnlocked uint64
	for _, r := range records {
		if r.UnlockTopoheight <= now {
			availableUnlocked += r.Amount
		}
	}
	if availableUnlocked < amount {
		return 0, nil, &InsufficientUnlockedFrozenError{Requested: amount, AvailableUnlocked: availableUnlocked}
	}

	working := records.clone()
	remaining := amount
	var energyRemoved uint64
	i := 0
	for remaining > 0 && i < len(working) {
		r := working[i]
		if r.UnlockTopoheight > now {
			i++
			continue
		}

		consumed := remaining
		if consumed > r.Amount {
			consumed = r.Amount
		}
		removedEnergy, ok := r.Duration.EnergyGained(consumed)
		if !ok {
			removedEnergy = 0
		}
		// Never remove more energy than the record still carries: integer
		// division can round the prorated amount down across repeated
		// partial consumptions.
		if removedEnergy > r.EnergyGained {
			removedEnergy = r.EnergyGained
		}

		r.Amount -= consumed
		r.EnergyGained -= removedEnergy
		remaining -= consumed
		energyRemoved += removedEnergy

		if r.Amount == 0 {
			working.removeAt(i)
			continue
		}
		i++
	}

	return energyRemoved, working, nil
}
