// Package transcript implements the deterministic Fiat-Shamir transcript
// the transaction proof pipeline is built on. It is a thin,
// labelled wrapper around gtank/merlin: every append and every challenge
// derivation carries an explicit label, and the label/order discipline is
// the consensus contract — any reorder or omission desynchronises build
// and verify.
package transcript

import (
	"encoding/binary"

	"github.com/gtank/merlin"
	"github.com/tos-network/terminos/crypto/group"
)

const domainLabel = "terminos-tx-v1"

// Transcript is an append-only labelled log producing challenge scalars
// and challenge bytes. It has no exported mutable state beyond the
// underlying merlin transcript, and is never shared across goroutines.
type Transcript struct {
	t *merlin.Transcript
}

// New starts a fresh transcript under the module's domain separator.
func New() *Transcript {
	return &Transcript{t: merlin.NewTranscript(domainLabel)}
}

// AppendMessage appends an arbitrary labelled byte string.
func (tr *Transcript) AppendMessage(label string, msg []byte) {
	tr.t.AppendMessage([]byte(label), msg)
}

// AppendU64 appends a labelled 8-byte big-endian integer. Big-endian
// matches the canonical wire encoding used elsewhere in the module
//, so transcript bytes and wire bytes agree for the same field.
func (tr *Transcript) AppendU64(label string, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	tr.AppendMessage(label, buf[:])
}

// AppendU8 appends a single labelled byte (used for version and fee_type).
func (tr *Transcript) AppendU8(label string, v uint8) {
	tr.AppendMessage(label, []byte{v})
}

// AppendPoint appends a labelled compressed group element.
func (tr *Transcript) AppendPoint(label string, p *group.Point) {
	tr.AppendMessage(label, p.Bytes())
}

// AppendScalar appends a labelled scalar encoding. Only ever used for
// public proof elements (challenges, responses) — never a secret.
func (tr *Transcript) AppendScalar(label string, s *group.Scalar) {
	tr.AppendMessage(label, s.Bytes())
}

// ChallengeScalar derives a uniformly distributed scalar bound to
// everything appended so far.
func (tr *Transcript) ChallengeScalar(label string) *group.Scalar {
	buf := tr.t.ExtractBytes([]byte(label), 64)
	return group.ScalarFromUniformBytes(buf)
}

// ChallengeBytes derives n bytes of transcript-bound randomness. No proof
// in this module calls it; they all draw challenges with ChallengeScalar.
func (tr *Transcript) ChallengeBytes(label string, n int) []byte {
	return tr.t.ExtractBytes([]byte(label), n)
}
