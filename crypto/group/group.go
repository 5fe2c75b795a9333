// Package group wraps the Ristretto255 prime-order group used by every
// other crypto package in this module. It exists so the rest of the core
// never imports gtank/ristretto255 directly: generators are process-wide
// singletons initialised once, matching the "no global mutable state"
// posture the core requires.
package group

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/gtank/ristretto255"
	"lukechampine.com/blake3"
)

// Point is a compressed-or-decompressed Ristretto255 group element.
type Point struct {
	el *ristretto255.Element
}

// Scalar is an element of the Ristretto255 scalar field.
type Scalar struct {
	sc *ristretto255.Scalar
}

var (
	baseOnce sync.Once
	hashOnce sync.Once
	baseGenG *Point
	baseGenH *Point
)

// G returns the group's standard base point, used as the generator for
// blinding factors in every Pedersen commitment and ElGamal ciphertext.
func G() *Point {
	baseOnce.Do(func() {
		baseGenG = &Point{el: ristretto255.NewGeneratorElement()}
	})
	return baseGenG
}

// H returns a second, nothing-up-my-sleeve generator independent of G,
// used as the generator for the committed value in Com(m, r) = mH + rG.
// It is derived once by hashing a fixed domain string to a group element.
func H() *Point {
	hashOnce.Do(func() {
		baseGenH = hashToPoint([]byte("terminos/pedersen/H"))
	})
	return baseGenH
}

// HashToPoint derives a nothing-up-my-sleeve group element from an
// arbitrary domain-separation label, for generator derivation outside
// this package (e.g. the range proof's vector generators).
func HashToPoint(label string) *Point {
	return hashToPoint([]byte(label))
}

// hashToPoint derives a nothing-up-my-sleeve group element from a fixed
// domain-separation label by expanding it to 64 bytes of Blake3 output and
// reducing into the group, exactly as SetUniformBytes expects.
func hashToPoint(label []byte) *Point {
	h := blake3.New(64, nil)
	h.Write(label)
	wide := h.Sum(nil)
	el := ristretto255.NewElement().SetUniformBytes(wide)
	return &Point{el: el}
}

// NewScalarRandom draws a uniformly random scalar from the field.
func NewScalarRandom() (*Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("group: reading randomness: %w", err)
	}
	sc := ristretto255.NewScalar().SetUniformBytes(buf[:])
	return &Scalar{sc: sc}, nil
}

// ScalarFromUint64 lifts a u64 amount into the scalar field.
func ScalarFromUint64(v uint64) *Scalar {
	sc := ristretto255.NewScalar()
	var buf [64]byte
	putUint64LE(buf[:8], v)
	sc.SetUniformBytes(buf[:])
	return &Scalar{sc: sc}
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

// ScalarFromUniformBytes reduces 64 bytes of uniform randomness (such as a
// transcript challenge extraction) into a scalar field element.
func ScalarFromUniformBytes(buf []byte) *Scalar {
	var wide [64]byte
	copy(wide[:], buf)
	sc := ristretto255.NewScalar().SetUniformBytes(wide[:])
	return &Scalar{sc: sc}
}

// ScalarFromCanonicalBytes decodes a canonical little-endian scalar encoding.
func ScalarFromCanonicalBytes(b []byte) (*Scalar, error) {
	sc := ristretto255.NewScalar()
	if err := sc.Decode(b); err != nil {
		return nil, fmt.Errorf("group: invalid scalar encoding: %w", err)
	}
	return &Scalar{sc: sc}, nil
}

// Bytes returns the canonical 32-byte little-endian scalar encoding.
func (s *Scalar) Bytes() []byte {
	return s.sc.Encode(nil)
}

func (s *Scalar) Add(a, b *Scalar) *Scalar {
	s.sc.Add(a.sc, b.sc)
	return s
}

func (s *Scalar) Sub(a, b *Scalar) *Scalar {
	s.sc.Subtract(a.sc, b.sc)
	return s
}

func (s *Scalar) Mul(a, b *Scalar) *Scalar {
	s.sc.Multiply(a.sc, b.sc)
	return s
}

func (s *Scalar) Negate(a *Scalar) *Scalar {
	s.sc.Negate(a.sc)
	return s
}

func (s *Scalar) Equal(o *Scalar) bool {
	return s.sc.Equal(o.sc) == 1
}

func ZeroScalar() *Scalar { return &Scalar{sc: ristretto255.NewScalar()} }

func NewScalar() *Scalar { return &Scalar{sc: ristretto255.NewScalar()} }

func (s *Scalar) Clone() *Scalar {
	ns := ristretto255.NewScalar()
	ns.Add(ns, s.sc)
	return &Scalar{sc: ns}
}

func (s *Scalar) IsZero() bool {
	return s.Equal(ZeroScalar())
}

// Invert returns the multiplicative inverse of s in the scalar field.
func Invert(s *Scalar) *Scalar {
	inv := ristretto255.NewScalar().Invert(s.sc)
	return &Scalar{sc: inv}
}

// PointIdentity returns the group identity element.
func PointIdentity() *Point {
	return &Point{el: ristretto255.NewIdentityElement()}
}

func NewPoint() *Point { return &Point{el: ristretto255.NewElement()} }

// DecodePoint decompresses a 32-byte Ristretto255 encoding. Malformed
// input is the caller's ErrInvalidCurvePoint trigger.
func DecodePoint(b []byte) (*Point, error) {
	el := ristretto255.NewElement()
	if err := el.Decode(b); err != nil {
		return nil, fmt.Errorf("group: invalid curve point: %w", err)
	}
	return &Point{el: el}, nil
}

// Bytes returns the canonical 32-byte compressed encoding.
func (p *Point) Bytes() []byte {
	return p.el.Encode(nil)
}

func (p *Point) Add(a, b *Point) *Point {
	p.el.Add(a.el, b.el)
	return p
}

func (p *Point) Sub(a, b *Point) *Point {
	p.el.Subtract(a.el, b.el)
	return p
}

func (p *Point) Negate(a *Point) *Point {
	p.el.Negate(a.el)
	return p
}

// ScalarMult sets p = s*a.
func (p *Point) ScalarMult(s *Scalar, a *Point) *Point {
	p.el.ScalarMult(s.sc, a.el)
	return p
}

// ScalarBaseMult sets p = s*G.
func (p *Point) ScalarBaseMult(s *Scalar) *Point {
	p.el.ScalarBaseMult(s.sc)
	return p
}

// MultiScalarMult sets p = sum(scalars[i] * points[i]). It is the naive
// sum-of-products form rather than a Straus/Pippenger batch. Its largest
// caller is the range proof, whose vectors have BitLength (64) terms per
// padded aggregated value.
func (p *Point) MultiScalarMult(scalars []*Scalar, points []*Point) *Point {
	acc := ristretto255.NewIdentityElement()
	term := ristretto255.NewElement()
	for i := range scalars {
		term.ScalarMult(scalars[i].sc, points[i].el)
		acc.Add(acc, term)
	}
	p.el.Add(acc, ristretto255.NewIdentityElement())
	return p
}

func (p *Point) Equal(o *Point) bool {
	return p.el.Equal(o.el) == 1
}

func (p *Point) Clone() *Point {
	np := ristretto255.NewElement()
	np.Add(ristretto255.NewIdentityElement(), p.el)
	return &Point{el: np}
}

