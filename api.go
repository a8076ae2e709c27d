// Go implementation of Winternitz one-time signatures whose verification
// is compiled to a jump-free Bitcoin-style stack machine program.
//
// A master secret is expanded into one hash chain per message and checksum
// digit.  The chain tips form the public key set.  A witness for a message
// reveals, for every digit, the chain value at the depth of that digit.
// The verifier program hashes each revealed value forward to the tip and
// checks the checksum digits, so that no digit can be raised without
// lowering another.
//
// NOTE A key may sign one message only.  Witnesses for two different
// messages under the same key reveal enough of the chains to forge others.
package wotscript

// Contains majority of the API

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/bwesterb/byteswriter"

	"github.com/bwesterb/go-wotscript/script"
)

// WOTS instance.
// Create one using NewContextFromName or NewContext.
type Context struct {
	// Number of worker goroutines ("threads") to use for key generation.
	// Will guess an appropriate number if set to 0.
	Threads int

	p           Params // parameters.
	n           uint32 // length of a chain value
	indexBytes  uint32 // size of a position index
	wotsLogW    uint8  // bits per digit
	wotsW       uint32 // message and checksum base
	wotsLen1    uint32 // chains for message
	wotsLen2    uint32 // chains for checksum
	wotsLen     uint32 // total number of chains
	maxChecksum uint32 // largest possible checksum

	name *string // name of the instance, if it has any
}

// Ordered chain tips: first the message positions, then the checksum
// positions.
type PublicKeySet struct {
	ctx  *Context // context which contains the parameters
	keys [][]byte
}

// A revealed chain value together with the digit it signs.
type WitnessElement struct {
	Digit uint32
	Value []byte
}

// Single use witness for a message.  Same position order as PublicKeySet.
type Witness struct {
	ctx   *Context // context which contains the parameters
	elems []WitnessElement
}

// Return new context for the given instance name (and nil if the name
// is unknown).
func NewContextFromName(name string) *Context {
	entry, ok := registryNameLut[name]
	if !ok {
		return nil
	}
	ctx, _ := NewContext(entry.params)
	ctx.name = &entry.name
	return ctx
}

// Creates a new context.  Returns the errors of Params.Validate if the
// parameters are inconsistent.
func NewContext(params Params) (ctx *Context, err error) {
	if err = params.Validate(); err != nil {
		return nil, err
	}

	ctx = new(Context)
	ctx.p = params
	ctx.n = params.N()
	ctx.indexBytes = params.indexBytes()
	ctx.wotsLogW = params.LogW
	ctx.wotsW = params.WotsW()
	ctx.wotsLen1 = params.WotsLen1()
	ctx.wotsLen2 = params.WotsLen2()
	ctx.wotsLen = params.WotsLen()
	ctx.maxChecksum = params.MaxChecksum()
	return
}

// Creates a context for messages of n0 digits in base d0 = 2^b, which is
// also used for the checksum.
func newContextFromBase(d0, n0 uint32, b uint8) (*Context, error) {
	if d0 == 0 || d0&(d0-1) != 0 {
		return nil, errorf(InvalidParams, "base %d is not a power of two", d0)
	}
	return NewContext(Params{
		Func:          HASH160,
		MessageDigits: n0,
		LogW:          uint8(bits.TrailingZeros32(d0)),
		ChecksumLogW:  b,
		IndexBytes:    1,
	})
}

// Returns the parameters of this context.
func (ctx *Context) Params() Params {
	return ctx.p
}

// Returns the name of the instance and an empty string if it has none.
func (ctx *Context) Name() string {
	if ctx.name == nil {
		return ""
	}
	return *ctx.name
}

// Returns the message and checksum base.
func (ctx *Context) Base() uint32 { return ctx.wotsW }

// Returns the number of message digits n0.
func (ctx *Context) MessageLen() uint32 { return ctx.wotsLen1 }

// Returns the number of checksum digits n1.
func (ctx *Context) ChecksumLen() uint32 { return ctx.wotsLen2 }

// Returns the largest possible checksum.
func (ctx *Context) MaxChecksum() uint32 { return ctx.maxChecksum }

func (pks *PublicKeySet) Context() *Context {
	return pks.ctx
}

// Returns a copy of the chain tips.
func (pks *PublicKeySet) Keys() [][]byte {
	ret := make([][]byte, len(pks.keys))
	for i, key := range pks.keys {
		ret[i] = append([]byte(nil), key...)
	}
	return ret
}

// Returns the concatenated chain tips.
// Will never return an error.
func (pks *PublicKeySet) MarshalBinary() ([]byte, error) {
	buf := make([]byte, pks.ctx.p.PublicKeySize())
	w := byteswriter.NewWriter(buf)
	for _, key := range pks.keys {
		if _, err := w.Write(key); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Parses a public key set written by PublicKeySet.MarshalBinary.
func (ctx *Context) PublicKeySetFromBytes(buf []byte) (*PublicKeySet, Error) {
	if uint32(len(buf)) != ctx.p.PublicKeySize() {
		return nil, errorf(InvalidEncoding,
			"public key set should be %d bytes, not %d",
			ctx.p.PublicKeySize(), len(buf))
	}
	keys := make([][]byte, ctx.wotsLen)
	for i := range keys {
		keys[i] = append([]byte(nil), buf[uint32(i)*ctx.n:uint32(i+1)*ctx.n]...)
	}
	return &PublicKeySet{ctx: ctx, keys: keys}, nil
}

// Returns the program that checks a witness against these keys.
func (pks *PublicKeySet) Verifier() script.Program {
	prog, err := pks.ctx.CompileVerifier(pks.keys)
	if err != nil {
		// keys are constructed with the right count and length
		panic(err)
	}
	return prog
}

// Checks the witness by running its unlocking program followed by the
// verifier program.  Only returns an error if the witness belongs to a
// different instance.
func (pks *PublicKeySet) Verify(w *Witness) (bool, Error) {
	if w.ctx.p != pks.ctx.p {
		return false, errorf(BaseConfigurationMismatch,
			"witness and public keys belong to different instances")
	}
	outcome := script.Execute(w.Unlocking(), pks.Verifier())
	return outcome == script.Accept, nil
}

func (w *Witness) Context() *Context {
	return w.ctx
}

// Returns a copy of the (digit, value) pairs.
func (w *Witness) Elements() []WitnessElement {
	ret := make([]WitnessElement, len(w.elems))
	for i, el := range w.elems {
		ret[i] = WitnessElement{
			Digit: el.Digit,
			Value: append([]byte(nil), el.Value...),
		}
	}
	return ret
}

// Returns the message digits followed by the checksum digits.
func (w *Witness) Digits() []uint32 {
	ret := make([]uint32, len(w.elems))
	for i, el := range w.elems {
		ret[i] = el.Digit
	}
	return ret
}

// Returns the push-only program that puts the witness on the stack in the
// order the verifier program expects: for every position the revealed
// value and then the digit.
func (w *Witness) Unlocking() script.Program {
	p := script.Program{}
	for _, el := range w.elems {
		p = p.Push(el.Value).PushInt(int64(el.Digit))
	}
	return p
}

// Returns for each position the digit as a single byte followed by the
// revealed value.
// Will never return an error.
func (w *Witness) MarshalBinary() ([]byte, error) {
	buf := make([]byte, w.ctx.p.WitnessSize())
	bw := byteswriter.NewWriter(buf)
	for _, el := range w.elems {
		if _, err := bw.Write([]byte{byte(el.Digit)}); err != nil {
			return nil, err
		}
		if _, err := bw.Write(el.Value); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Parses a witness written by Witness.MarshalBinary.
//
// Digits are not checked against the base: a witness is untrusted input and
// the verifier program clamps them.
func (ctx *Context) WitnessFromBytes(buf []byte) (*Witness, Error) {
	if uint32(len(buf)) != ctx.p.WitnessSize() {
		return nil, errorf(InvalidEncoding,
			"witness should be %d bytes, not %d",
			ctx.p.WitnessSize(), len(buf))
	}
	elems := make([]WitnessElement, ctx.wotsLen)
	r := bytes.NewReader(buf)
	for i := range elems {
		digit, _ := r.ReadByte()
		value := make([]byte, ctx.n)
		r.Read(value)
		elems[i] = WitnessElement{Digit: uint32(digit), Value: value}
	}
	return &Witness{ctx: ctx, elems: elems}, nil
}

// Generates the public key set for messages of n0 digits in base 2^b with
// the HASH160 chain and a one byte position index.
func GenerateKeys(master []byte, n0 uint32, b uint8) (*PublicKeySet, error) {
	ctx, err := newContextFromBase(1<<b, n0, b)
	if err != nil {
		return nil, err
	}
	pks, err2 := ctx.GenerateKeys(master)
	if err2 != nil {
		return nil, err2
	}
	return pks, nil
}

// Generates the witness for message, whose length determines the number of
// message digits.  Each character is a digit in base d0; b is the number of
// bits per checksum digit and 2^b must equal d0.
func GenerateWitness(master []byte, message string, d0 uint32, b uint8) (
	*Witness, error) {
	if len(message) == 0 {
		return nil, errorf(DigitWidthMismatch, "empty message")
	}
	ctx, err := newContextFromBase(d0, uint32(len(message)), b)
	if err != nil {
		return nil, err
	}
	w, err2 := ctx.GenerateWitness(master, message)
	if err2 != nil {
		return nil, err2
	}
	return w, nil
}

// Compiles the verifier for the given public keys, which belong to messages
// of n0 digits in base d.  b is the number of bits per checksum digit.
func CompileVerifier(keys [][]byte, d, n0 uint32, b uint8) (
	script.Program, error) {
	ctx, err := newContextFromBase(d, n0, b)
	if err != nil {
		return script.Program{}, err
	}
	prog, err2 := ctx.CompileVerifier(keys)
	if err2 != nil {
		return script.Program{}, err2
	}
	return prog, nil
}

// Returns a short description, eg. "WOTS-HASH160_W16_40 (43 chains)".
func (ctx *Context) String() string {
	name := ctx.Name()
	if name == "" {
		name = fmt.Sprintf("WOTS-%s_W%d_%d", ctx.p.Func, ctx.wotsW, ctx.wotsLen1)
	}
	return fmt.Sprintf("%s (%d chains)", name, ctx.wotsLen)
}
