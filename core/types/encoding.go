package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/tos-network/terminos/crypto/group"
	"github.com/tos-network/terminos/crypto/rangeproof"
	"github.com/tos-network/terminos/crypto/schnorr"
	"github.com/tos-network/terminos/crypto/sigma"
	"github.com/tos-network/terminos/params"
	"lukechampine.com/blake3"
)

// Canonical wire encoding: fixed-width big-endian integers,
// length-prefixed variable sequences, points in compressed form. Hand-
// rolled, allocation-conscious binary marshalling rather than a
// reflection-based codec.

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putU8(buf *bytes.Buffer, v uint8) {
	buf.WriteByte(v)
}

func putBytes(buf *bytes.Buffer, b []byte) {
	putU64(buf, uint64(len(b)))
	buf.Write(b)
}

func putPoint(buf *bytes.Buffer, p *group.Point) {
	buf.Write(p.Bytes())
}

func putHash(buf *bytes.Buffer, h Hash) {
	buf.Write(h[:])
}

type byteReader struct {
	b []byte
}

func (r *byteReader) take(n int) ([]byte, error) {
	if len(r.b) < n {
		return nil, fmt.Errorf("types: unexpected end of encoding, want %d bytes have %d", n, len(r.b))
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out, nil
}

func (r *byteReader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *byteReader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// count reads a length prefix for a collection the caller is about to
// make([]T, n) from. Every element consumes at least one byte, so a
// count larger than the remaining buffer can never be satisfied; reject
// it here rather than attempting the allocation it claims.
func (r *byteReader) count() (uint64, error) {
	n, err := r.u64()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(r.b)) {
		return 0, fmt.Errorf("types: implausible element count %d exceeds %d remaining bytes", n, len(r.b))
	}
	return n, nil
}

func (r *byteReader) bytes() ([]byte, error) {
	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (r *byteReader) point() (*group.Point, error) {
	b, err := r.take(32)
	if err != nil {
		return nil, err
	}
	p, err := group.DecodePoint(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurvePoint, err)
	}
	return p, nil
}

func (r *byteReader) hash() (Hash, error) {
	var h Hash
	b, err := r.take(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// encodeBody writes every field except the signature: this is exactly the
// preimage the outer Schnorr signature covers.
func encodeBody(tx *Transaction) ([]byte, error) {
	var buf bytes.Buffer
	putU8(&buf, tx.Version)
	putPoint(&buf, tx.Source)
	putU64(&buf, tx.Nonce)
	putU64(&buf, tx.Fee)
	putU8(&buf, uint8(tx.FeeType))

	if err := encodeData(&buf, tx.Data); err != nil {
		return nil, err
	}

	putU64(&buf, uint64(len(tx.SourceCommitments)))
	for _, sc := range tx.SourceCommitments {
		putHash(&buf, sc.Asset)
		putPoint(&buf, sc.Commitment)
		encodeCommitmentEqualityProof(&buf, sc.EqualityProof)
	}

	if err := encodeRangeProof(&buf, tx.RangeProof); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Encode serializes tx in full, including the signature, for wire
// transmission and storage.
func Encode(tx *Transaction) ([]byte, error) {
	body, err := encodeBody(tx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(body)
	if tx.Signature.R == nil || tx.Signature.S == nil {
		return nil, fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}
	putPoint(&buf, tx.Signature.R)
	buf.Write(tx.Signature.S.Bytes())
	return buf.Bytes(), nil
}

// CanonicalHash returns the Blake3 hash of tx's canonical encoding minus
// the signature — the exact preimage the signature signs.
func CanonicalHash(tx *Transaction) (Hash, error) {
	body, err := encodeBody(tx)
	if err != nil {
		return Hash{}, err
	}
	sum := blake3.Sum256(body)
	return Hash(sum), nil
}

// Decode parses the full wire encoding produced by Encode, reconstructing
// an equivalent Transaction.
func Decode(b []byte) (*Transaction, error) {
	r := &byteReader{b: b}
	tx := &Transaction{}

	var err error
	if tx.Version, err = r.u8(); err != nil {
		return nil, err
	}
	if tx.Source, err = r.point(); err != nil {
		return nil, err
	}
	if tx.Nonce, err = r.u64(); err != nil {
		return nil, err
	}
	if tx.Fee, err = r.u64(); err != nil {
		return nil, err
	}
	feeType, err := r.u8()
	if err != nil {
		return nil, err
	}
	tx.FeeType = FeeType(feeType)

	if tx.Data, err = decodeData(r); err != nil {
		return nil, err
	}

	scCount, err := r.count()
	if err != nil {
		return nil, err
	}
	tx.SourceCommitments = make([]SourceCommitment, scCount)
	for i := range tx.SourceCommitments {
		sc := &tx.SourceCommitments[i]
		if sc.Asset, err = r.hash(); err != nil {
			return nil, err
		}
		if sc.Commitment, err = r.point(); err != nil {
			return nil, err
		}
		if sc.EqualityProof, err = decodeCommitmentEqualityProof(r); err != nil {
			return nil, err
		}
	}

	if tx.RangeProof, err = decodeRangeProof(r); err != nil {
		return nil, err
	}

	sigR, err := r.point()
	if err != nil {
		return nil, err
	}
	sigSBytes, err := r.take(32)
	if err != nil {
		return nil, err
	}
	sigS, err := group.ScalarFromCanonicalBytes(sigSBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	tx.Signature = schnorr.Signature{R: sigR, S: sigS}

	return tx, nil
}

func encodeData(buf *bytes.Buffer, data TransactionData) error {
	switch d := data.(type) {
	case TransfersData:
		putU8(buf, 0)
		putU64(buf, uint64(len(d.Outputs)))
		for _, out := range d.Outputs {
			putPoint(buf, out.Destination)
			putHash(buf, out.Asset)
			putPoint(buf, out.Commitment.C)
			putPoint(buf, out.Commitment.D)
			putPoint(buf, out.SenderHandle)
			putPoint(buf, out.ReceiverHandle)
			putBytes(buf, out.EncryptedMemo)
			encodeCiphertextValidityProof(buf, out.ValidityProof)
		}
	case BurnData:
		putU8(buf, 1)
		putHash(buf, d.Asset)
		putU64(buf, d.Amount)
		putPoint(buf, d.Commitment)
	case MultiSigData:
		putU8(buf, 2)
		putU8(buf, d.Threshold)
		putU64(buf, uint64(len(d.Participants)))
		for _, p := range d.Participants {
			putPoint(buf, p)
		}
	case InvokeContractData:
		putU8(buf, 3)
		putHash(buf, d.Contract)
		putDeposits(buf, d.Deposits)
		putBytes(buf, d.Payload)
	case DeployContractData:
		putU8(buf, 4)
		putBytes(buf, d.Bytecode)
		putDeposits(buf, d.Deposits)
	case EnergyData:
		putU8(buf, 5)
		return encodeEnergyPayload(buf, d.Payload)
	default:
		return ErrInvalidEnergyPayload
	}
	return nil
}

func decodeData(r *byteReader) (TransactionData, error) {
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		count, err := r.count()
		if err != nil {
			return nil, err
		}
		outs := make([]TransferOutput, count)
		for i := range outs {
			out := &outs[i]
			if out.Destination, err = r.point(); err != nil {
				return nil, err
			}
			if out.Asset, err = r.hash(); err != nil {
				return nil, err
			}
			if out.Commitment.C, err = r.point(); err != nil {
				return nil, err
			}
			if out.Commitment.D, err = r.point(); err != nil {
				return nil, err
			}
			if out.SenderHandle, err = r.point(); err != nil {
				return nil, err
			}
			if out.ReceiverHandle, err = r.point(); err != nil {
				return nil, err
			}
			if out.EncryptedMemo, err = r.bytes(); err != nil {
				return nil, err
			}
			if out.ValidityProof, err = decodeCiphertextValidityProof(r); err != nil {
				return nil, err
			}
		}
		return TransfersData{Outputs: outs}, nil

	case 1:
		var d BurnData
		if d.Asset, err = r.hash(); err != nil {
			return nil, err
		}
		if d.Amount, err = r.u64(); err != nil {
			return nil, err
		}
		if d.Commitment, err = r.point(); err != nil {
			return nil, err
		}
		return d, nil

	case 2:
		var d MultiSigData
		if d.Threshold, err = r.u8(); err != nil {
			return nil, err
		}
		count, err := r.count()
		if err != nil {
			return nil, err
		}
		d.Participants = make([]*group.Point, count)
		for i := range d.Participants {
			if d.Participants[i], err = r.point(); err != nil {
				return nil, err
			}
		}
		return d, nil

	case 3:
		var d InvokeContractData
		if d.Contract, err = r.hash(); err != nil {
			return nil, err
		}
		if d.Deposits, err = readDeposits(r); err != nil {
			return nil, err
		}
		if d.Payload, err = r.bytes(); err != nil {
			return nil, err
		}
		return d, nil

	case 4:
		var d DeployContractData
		if d.Bytecode, err = r.bytes(); err != nil {
			return nil, err
		}
		if d.Deposits, err = readDeposits(r); err != nil {
			return nil, err
		}
		return d, nil

	case 5:
		payload, err := decodeEnergyPayload(r)
		if err != nil {
			return nil, err
		}
		return EnergyData{Payload: payload}, nil

	default:
		return nil, fmt.Errorf("types: unknown data variant tag %d", tag)
	}
}

func putDeposits(buf *bytes.Buffer, deposits []AssetDeposit) {
	putU64(buf, uint64(len(deposits)))
	for _, dep := range deposits {
		putHash(buf, dep.Asset)
		putPoint(buf, dep.Commitment)
	}
}

func readDeposits(r *byteReader) ([]AssetDeposit, error) {
	count, err := r.count()
	if err != nil {
		return nil, err
	}
	deposits := make([]AssetDeposit, count)
	for i := range deposits {
		if deposits[i].Asset, err = r.hash(); err != nil {
			return nil, err
		}
		if deposits[i].Commitment, err = r.point(); err != nil {
			return nil, err
		}
	}
	return deposits, nil
}

func encodeEnergyPayload(buf *bytes.Buffer, payload EnergyPayload) error {
	switch p := payload.(type) {
	case FreezePayload:
		putU8(buf, 0)
		putU64(buf, p.Amount)
		putU8(buf, uint8(p.Duration))
		return nil
	case UnfreezePayload:
		putU8(buf, 1)
		putU64(buf, p.Amount)
		return nil
	default:
		return ErrInvalidEnergyPayload
	}
}

func decodeEnergyPayload(r *byteReader) (EnergyPayload, error) {
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		amount, err := r.u64()
		if err != nil {
			return nil, err
		}
		duration, err := r.u8()
		if err != nil {
			return nil, err
		}
		return FreezePayload{Amount: amount, Duration: params.FreezeDuration(duration)}, nil
	case 1:
		amount, err := r.u64()
		if err != nil {
			return nil, err
		}
		return UnfreezePayload{Amount: amount}, nil
	default:
		return nil, fmt.Errorf("types: unknown energy payload tag %d", tag)
	}
}

func encodeCiphertextValidityProof(buf *bytes.Buffer, p sigma.CiphertextValidityProof) {
	putPoint(buf, p.CiphertextCommitment)
	putPoint(buf, p.SenderCommitment)
	putPoint(buf, p.ReceiverCommitment)
	buf.Write(p.ZMessage.Bytes())
	buf.Write(p.ZRandom.Bytes())
}

func decodeCiphertextValidityProof(r *byteReader) (sigma.CiphertextValidityProof, error) {
	var p sigma.CiphertextValidityProof
	var err error
	if p.CiphertextCommitment, err = r.point(); err != nil {
		return p, err
	}
	if p.SenderCommitment, err = r.point(); err != nil {
		return p, err
	}
	if p.ReceiverCommitment, err = r.point(); err != nil {
		return p, err
	}
	zm, err := r.take(32)
	if err != nil {
		return p, err
	}
	if p.ZMessage, err = group.ScalarFromCanonicalBytes(zm); err != nil {
		return p, err
	}
	zr, err := r.take(32)
	if err != nil {
		return p, err
	}
	if p.ZRandom, err = group.ScalarFromCanonicalBytes(zr); err != nil {
		return p, err
	}
	return p, nil
}

func encodeCommitmentEqualityProof(buf *bytes.Buffer, p sigma.CommitmentEqualityProof) {
	putPoint(buf, p.CiphertextCommitment)
	putPoint(buf, p.HandleCommitment)
	putPoint(buf, p.BalanceCommitment)
	buf.Write(p.ZMessage.Bytes())
	buf.Write(p.ZEncRandom.Bytes())
	buf.Write(p.ZComRandom.Bytes())
}

func decodeCommitmentEqualityProof(r *byteReader) (sigma.CommitmentEqualityProof, error) {
	var p sigma.CommitmentEqualityProof
	var err error
	if p.CiphertextCommitment, err = r.point(); err != nil {
		return p, err
	}
	if p.HandleCommitment, err = r.point(); err != nil {
		return p, err
	}
	if p.BalanceCommitment, err = r.point(); err != nil {
		return p, err
	}
	zm, err := r.take(32)
	if err != nil {
		return p, err
	}
	if p.ZMessage, err = group.ScalarFromCanonicalBytes(zm); err != nil {
		return p, err
	}
	zEnc, err := r.take(32)
	if err != nil {
		return p, err
	}
	if p.ZEncRandom, err = group.ScalarFromCanonicalBytes(zEnc); err != nil {
		return p, err
	}
	zCom, err := r.take(32)
	if err != nil {
		return p, err
	}
	if p.ZComRandom, err = group.ScalarFromCanonicalBytes(zCom); err != nil {
		return p, err
	}
	return p, nil
}

func encodeRangeProof(buf *bytes.Buffer, proof *rangeproof.Proof) error {
	if proof == nil {
		return fmt.Errorf("types: missing range proof")
	}
	putPoint(buf, proof.A)
	putPoint(buf, proof.S)
	putPoint(buf, proof.T1)
	putPoint(buf, proof.T2)
	buf.Write(proof.TauX.Bytes())
	buf.Write(proof.Mu.Bytes())
	buf.Write(proof.THat.Bytes())

	putU64(buf, uint64(len(proof.IPA.L)))
	for i := range proof.IPA.L {
		putPoint(buf, proof.IPA.L[i])
		putPoint(buf, proof.IPA.R[i])
	}
	buf.Write(proof.IPA.A.Bytes())
	buf.Write(proof.IPA.B.Bytes())
	return nil
}

func decodeRangeProof(r *byteReader) (*rangeproof.Proof, error) {
	proof := &rangeproof.Proof{}
	var err error
	if proof.A, err = r.point(); err != nil {
		return nil, err
	}
	if proof.S, err = r.point(); err != nil {
		return nil, err
	}
	if proof.T1, err = r.point(); err != nil {
		return nil, err
	}
	if proof.T2, err = r.point(); err != nil {
		return nil, err
	}
	if proof.TauX, err = readScalar(r); err != nil {
		return nil, err
	}
	if proof.Mu, err = readScalar(r); err != nil {
		return nil, err
	}
	if proof.THat, err = readScalar(r); err != nil {
		return nil, err
	}

	rounds, err := r.count()
	if err != nil {
		return nil, err
	}
	proof.IPA.L = make([]*group.Point, rounds)
	proof.IPA.R = make([]*group.Point, rounds)
	for i := uint64(0); i < rounds; i++ {
		if proof.IPA.L[i], err = r.point(); err != nil {
			return nil, err
		}
		if proof.IPA.R[i], err = r.point(); err != nil {
			return nil, err
		}
	}
	if proof.IPA.A, err = readScalar(r); err != nil {
		return nil, err
	}
	if proof.IPA.B, err = readScalar(r); err != nil {
		return nil, err
	}
	return proof, nil
}

func readScalar(r *byteReader) (*group.Scalar, error) {
	b, err := r.take(32)
	if err != nil {
		return nil, err
	}
	return group.ScalarFromCanonicalBytes(b)
}
