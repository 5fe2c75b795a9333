package core

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tos-network/terminos/crypto/elgamal"
	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/core/types"
	"github.com/tos-network/terminos/params"
)

// memState is a minimal in-memory StateReader/StateWriter double keyed by
// PublicKeyBytes, standing in for the external state collaborator so
// builder->Verify->Apply can be exercised end to end.
type memState struct {
	nonces    map[PublicKeyBytes]uint64
	balances  map[PublicKeyBytes]map[types.Hash]elgamal.Ciphertext
	energy    map[PublicKeyBytes]types.EnergyResource
	topo      uint64
	registered map[PublicKeyBytes]bool
}

func newMemState() *memState {
	return &memState{
		nonces:     make(map[PublicKeyBytes]uint64),
		balances:   make(map[PublicKeyBytes]map[types.Hash]elgamal.Ciphertext),
		energy:     make(map[PublicKeyBytes]types.EnergyResource),
		registered: make(map[PublicKeyBytes]bool),
	}
}

func (s *memState) GetNonce(pubkey *PublicKeyBytes) (uint64, error) {
	return s.nonces[*pubkey], nil
}

func (s *memState) GetEncryptedBalance(pubkey *PublicKeyBytes, asset types.Hash) (elgamal.Ciphertext, error) {
	acct, ok := s.balances[*pubkey]
	if !ok {
		return elgamal.Ciphertext{C: group.PointIdentity(), D: group.PointIdentity()}, nil
	}
	ct, ok := acct[asset]
	if !ok {
		return elgamal.Ciphertext{C: group.PointIdentity(), D: group.PointIdentity()}, nil
	}
	return ct, nil
}

func (s *memState) GetEnergyResource(pubkey *PublicKeyBytes) (types.EnergyResource, error) {
	return s.energy[*pubkey], nil
}

func (s *memState) GetTopoHeight() (uint64, error) { return s.topo, nil }

func (s *memState) IsRegistered(pubkey *PublicKeyBytes) (bool, error) {
	return s.registered[*pubkey], nil
}

func (s *memState) SetNonce(pubkey *PublicKeyBytes, nonce uint64) error {
	s.nonces[*pubkey] = nonce
	return nil
}

func (s *memState) SetEncryptedBalance(pubkey *PublicKeyBytes, asset types.Hash, ct elgamal.Ciphertext) error {
	acct, ok := s.balances[*pubkey]
	if !ok {
		acct = make(map[types.Hash]elgamal.Ciphertext)
		s.balances[*pubkey] = acct
	}
	acct[asset] = ct
	return nil
}

func (s *memState) UpdateEnergyResource(pubkey *PublicKeyBytes, resource types.EnergyResource) error {
	s.energy[*pubkey] = resource
	return nil
}

func (s *memState) ReduceSupply(asset types.Hash, amount uint64) error { return nil }

func newFundedAccount(t *testing.T, state *memState, amount uint64) (*group.Scalar, *group.Point, AssetBalance) {
	t.Helper()
	sk, err := group.NewScalarRandom()
	require.NoError(t, err)
	pub := group.NewPoint().ScalarBaseMult(sk)
	pubBytes := publicKeyBytes(pub)

	r, err := group.NewScalarRandom()
	require.NoError(t, err)
	ct := elgamal.EncryptWithRandomness(elgamal.PublicKey{Point: pub}, amount, r)
	require.NoError(t, state.SetEncryptedBalance(&pubBytes, NativeAsset, ct))
	state.registered[pubBytes] = true

	return sk, pub, AssetBalance{Amount: amount, Randomness: r, OldCiphertext: ct}
}

func decryptUint64(t *testing.T, sk *group.Scalar, ct elgamal.Ciphertext, max uint64) uint64 {
	t.Helper()
	// D = r*P = r*sk*G, so sk^-1 * D = r*G; mH = C - r*G.
	skInv := group.Invert(sk)
	rG := group.NewPoint().ScalarMult(skInv, ct.D)
	mH := group.NewPoint().Sub(ct.C, rG)
	for i := uint64(0); i <= max; i++ {
		if mH.Equal(group.NewPoint().ScalarMult(group.ScalarFromUint64(i), group.H())) {
			return i
		}
	}
	t.Fatalf("could not brute-force decrypt balance within [0, %d]", max)
	return 0
}

// TestTransferWithTOSFeeScenario covers the basic transfer-with-fee path:
// Alice has 100 TOS at nonce 0, sends 25 to Bob with fee=1 fee_type=TOS.
// After apply, Alice's nonce is 1, her balance decrypts to 74, Bob's
// balance is 25.
func TestTransferWithTOSFeeScenario(t *testing.T) {
	state := newMemState()
	aliceSK, alicePub, aliceBal := newFundedAccount(t, state, 100)
	bobSK, bobPub, _ := newFundedAccount(t, state, 0)

	builder := NewTransactionBuilder(aliceSK)
	require.True(t, builder.SourcePublicKey.Equal(alicePub))

	tx, err := builder.Build(BuildRequest{
		Nonce:   0,
		Fee:     1,
		FeeType: types.FeeTypeTOS,
		Transfers: []TransferRequest{
			{Destination: bobPub, Asset: NativeAsset, Amount: 25},
		},
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.NoError(t, err)

	vtx, err := Verify(state, tx, 512)
	require.NoError(t, err)

	require.NoError(t, Apply(state, vtx, nil))

	aliceKey := publicKeyBytes(alicePub)
	bobKey := publicKeyBytes(bobPub)

	require.Equal(t, uint64(1), state.nonces[aliceKey])

	aliceCt, err := state.GetEncryptedBalance(&aliceKey, NativeAsset)
	require.NoError(t, err)
	require.Equal(t, uint64(74), decryptUint64(t, aliceSK, aliceCt, 100))

	bobCt, err := state.GetEncryptedBalance(&bobKey, NativeAsset)
	require.NoError(t, err)
	require.Equal(t, uint64(25), decryptUint64(t, bobSK, bobCt, 100))
	require.Equal(t, uint64(0), state.nonces[bobKey]) // Bob's own nonce is untouched by Alice's transaction
}

// TestVerifyRejectsUnderpricedActivationFee ensures a fee_type=TOS
// transfer to an unregistered recipient cannot dodge the activation fee
// by paying fee=0.
func TestVerifyRejectsUnderpricedActivationFee(t *testing.T) {
	state := newMemState()
	aliceSK, _, aliceBal := newFundedAccount(t, state, 100)

	bobSK, err := group.NewScalarRandom()
	require.NoError(t, err)
	bobPub := group.NewPoint().ScalarBaseMult(bobSK)
	// bobPub is deliberately left unregistered.

	builder := NewTransactionBuilder(aliceSK)
	tx, err := builder.Build(BuildRequest{
		Nonce:   0,
		Fee:     0,
		FeeType: types.FeeTypeTOS,
		Transfers: []TransferRequest{
			{Destination: bobPub, Asset: NativeAsset, Amount: 25},
		},
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.NoError(t, err)

	_, err = Verify(state, tx, 512)
	var feeErr *types.InsufficientFeeError
	require.ErrorAs(t, err, &feeErr)
	require.Equal(t, params.AccountActivationFee.Uint64(), feeErr.Required)
	require.Equal(t, uint64(0), feeErr.Paid)
}

// TestVerifyAcceptsActivationFeeCoveringNewAddress mirrors the rejection
// case but with fee set to the required activation fee, which must pass.
func TestVerifyAcceptsActivationFeeCoveringNewAddress(t *testing.T) {
	state := newMemState()
	activationFee := params.AccountActivationFee.Uint64()
	aliceSK, _, aliceBal := newFundedAccount(t, state, 100+activationFee)

	bobSK, err := group.NewScalarRandom()
	require.NoError(t, err)
	bobPub := group.NewPoint().ScalarBaseMult(bobSK)

	builder := NewTransactionBuilder(aliceSK)
	tx, err := builder.Build(BuildRequest{
		Nonce:   0,
		Fee:     activationFee,
		FeeType: types.FeeTypeTOS,
		Transfers: []TransferRequest{
			{Destination: bobPub, Asset: NativeAsset, Amount: 25},
		},
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.NoError(t, err)

	vtx, err := Verify(state, tx, 512)
	require.NoError(t, err)
	require.NoError(t, Apply(state, vtx, nil))

	bobKey := publicKeyBytes(bobPub)
	bobCt, err := state.GetEncryptedBalance(&bobKey, NativeAsset)
	require.NoError(t, err)
	require.Equal(t, uint64(25), decryptUint64(t, bobSK, bobCt, 100))
}

// TestVerifyRejectsNilSourceWithoutPanicking checks that a
// directly-constructed Transaction with a nil Source is rejected as an
// invalid curve point rather than panicking inside the transcript
// rebuild.
func TestVerifyRejectsNilSourceWithoutPanicking(t *testing.T) {
	state := newMemState()
	tx := &types.Transaction{
		Version: 1,
		Source:  nil,
		Data:    types.TransfersData{},
	}

	_, err := Verify(state, tx, 0)
	require.ErrorIs(t, err, types.ErrInvalidCurvePoint)
}

func TestVerifyRejectsWrongNonce(t *testing.T) {
	state := newMemState()
	aliceSK, _, aliceBal := newFundedAccount(t, state, 100)
	_, bobPub, _ := newFundedAccount(t, state, 0)

	builder := NewTransactionBuilder(aliceSK)
	tx, err := builder.Build(BuildRequest{
		Nonce:   5,
		Fee:     1,
		FeeType: types.FeeTypeTOS,
		Transfers: []TransferRequest{
			{Destination: bobPub, Asset: NativeAsset, Amount: 10},
		},
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.NoError(t, err)

	_, err = Verify(state, tx, 512)
	require.ErrorAs(t, err, new(*types.InvalidNonceError))
}

func TestBuildRejectsInsufficientBalance(t *testing.T) {
	state := newMemState()
	aliceSK, _, aliceBal := newFundedAccount(t, state, 10)
	_, bobPub, _ := newFundedAccount(t, state, 0)

	builder := NewTransactionBuilder(aliceSK)
	_, err := builder.Build(BuildRequest{
		Nonce:   0,
		Fee:     1,
		FeeType: types.FeeTypeTOS,
		Transfers: []TransferRequest{
			{Destination: bobPub, Asset: NativeAsset, Amount: 25},
		},
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.ErrorAs(t, err, new(*types.InsufficientBalanceError))
}

// TestFreezeThenUnfreezeRoundTrip exercises the energy resource lifecycle:
// an account freezes TOS for energy, then, once the freeze has unlocked,
// unfreezes it, losing the energy and getting the TOS back.
func TestFreezeThenUnfreezeRoundTrip(t *testing.T) {
	state := newMemState()
	aliceSK, alicePub, aliceBal := newFundedAccount(t, state, 1000)
	aliceKey := publicKeyBytes(alicePub)

	builder := NewTransactionBuilder(aliceSK)

	freezeTx, err := builder.Build(BuildRequest{
		Nonce:    0,
		FeeType:  types.FeeTypeTOS,
		Data:     types.EnergyData{Payload: types.FreezePayload{Amount: 100, Duration: 1}}, // Day7
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.NoError(t, err)

	vtx, err := Verify(state, freezeTx, 256)
	require.NoError(t, err)
	require.NoError(t, Apply(state, vtx, nil))

	energy := state.energy[aliceKey]
	require.Equal(t, uint64(110), energy.TotalEnergy)

	aliceCt, err := state.GetEncryptedBalance(&aliceKey, NativeAsset)
	require.NoError(t, err)
	remaining := decryptUint64(t, aliceSK, aliceCt, 1000)
	require.Equal(t, uint64(900), remaining)

	// SubScalar only adjusts C, leaving D (and so the opening randomness)
	// unchanged, so aliceBal.Randomness still opens the post-freeze balance.
	postFreezeBal := AssetBalance{Amount: remaining, Randomness: aliceBal.Randomness, OldCiphertext: aliceCt}

	state.topo = 604800 // Day7 unlock height
	unfreezeTx, err := builder.Build(BuildRequest{
		Nonce:    1,
		FeeType:  types.FeeTypeTOS,
		Data:     types.EnergyData{Payload: types.UnfreezePayload{Amount: 100}},
		Balances: map[types.Hash]AssetBalance{NativeAsset: postFreezeBal},
		Now:      state.topo,
		Energy:   energy,
	})
	require.NoError(t, err)

	vtx, err = Verify(state, unfreezeTx, 256)
	require.NoError(t, err)
	require.Equal(t, uint64(110), vtx.EnergyRemoved)
	require.NoError(t, Apply(state, vtx, nil))

	finalEnergy := state.energy[aliceKey]
	require.Equal(t, uint64(0), finalEnergy.TotalEnergy)
	require.Equal(t, uint64(0), finalEnergy.FrozenTOS)

	finalCt, err := state.GetEncryptedBalance(&aliceKey, NativeAsset)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), decryptUint64(t, aliceSK, finalCt, 1000))
}

// TestBuildVerifyApplyBurn exercises the Burn variant end to end: the
// builder must fold the burn commitment's own (amount, blinding) pair
// into the aggregated range proof, or Verify's RangeProofCommitments
// (which includes that commitment) can never match it.
func TestBuildVerifyApplyBurn(t *testing.T) {
	state := newMemState()
	aliceSK, alicePub, aliceBal := newFundedAccount(t, state, 100)
	aliceKey := publicKeyBytes(alicePub)

	builder := NewTransactionBuilder(aliceSK)
	tx, err := builder.Build(BuildRequest{
		Nonce:    0,
		Fee:      1,
		FeeType:  types.FeeTypeTOS,
		Burn:     &BurnRequest{Asset: NativeAsset, Amount: 40},
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.NoError(t, err)

	vtx, err := Verify(state, tx, 256)
	require.NoError(t, err)
	require.NoError(t, Apply(state, vtx, nil))

	aliceCt, err := state.GetEncryptedBalance(&aliceKey, NativeAsset)
	require.NoError(t, err)
	require.Equal(t, uint64(59), decryptUint64(t, aliceSK, aliceCt, 100))
}

// TestBuildRejectsDataAndBurnTogether mirrors the existing Data/Transfers
// exclusivity check for the Burn field.
func TestBuildRejectsDataAndBurnTogether(t *testing.T) {
	state := newMemState()
	aliceSK, _, aliceBal := newFundedAccount(t, state, 100)

	builder := NewTransactionBuilder(aliceSK)
	_, err := builder.Build(BuildRequest{
		Nonce:    0,
		FeeType:  types.FeeTypeTOS,
		Data:     types.EnergyData{Payload: types.FreezePayload{Amount: 1, Duration: 1}},
		Burn:     &BurnRequest{Asset: NativeAsset, Amount: 1},
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.ErrorIs(t, err, types.ErrState)
}

// TestVerifyRejectsNonzeroFeeUnderEnergyFeeType ensures a transfer cannot
// declare fee_type=Energy while still carrying a nonzero fee field.
func TestVerifyRejectsNonzeroFeeUnderEnergyFeeType(t *testing.T) {
	state := newMemState()
	aliceSK, alicePub, aliceBal := newFundedAccount(t, state, 1000)
	aliceKey := publicKeyBytes(alicePub)
	state.energy[aliceKey] = types.EnergyResource{TotalEnergy: 1000}

	bobSK, err := group.NewScalarRandom()
	require.NoError(t, err)
	bobPub := group.NewPoint().ScalarBaseMult(bobSK)

	builder := NewTransactionBuilder(aliceSK)
	_, err = builder.Build(BuildRequest{
		Nonce:   0,
		Fee:     1,
		FeeType: types.FeeTypeEnergy,
		Transfers: []TransferRequest{
			{Destination: bobPub, Asset: NativeAsset, Amount: 5},
		},
		Balances: map[types.Hash]AssetBalance{NativeAsset: aliceBal},
	})
	require.ErrorIs(t, err, types.ErrInvalidFeeType)

	// A transaction hand-assembled to bypass the builder's own check must
	// still be rejected by Verify.
	tx := &types.Transaction{
		Version: 1,
		Source:  alicePub,
		Nonce:   0,
		Fee:     1,
		FeeType: types.FeeTypeEnergy,
		Data:    types.TransfersData{},
	}
	_, err = Verify(state, tx, 0)
	require.ErrorIs(t, err, types.ErrInvalidFeeType)
}
