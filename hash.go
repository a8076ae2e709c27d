package wotscript

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/ripemd160"
)

// Hash states and a digest buffer that can be reused by a single goroutine.
type scratchPad struct {
	sha    hash.Hash
	rmd    hash.Hash
	digest []byte
}

func (ctx *Context) newScratchPad() scratchPad {
	return scratchPad{
		sha:    sha256.New(),
		rmd:    ripemd160.New(),
		digest: make([]byte, 0, sha256.Size),
	}
}

// Computes a single chain step H(in) and writes it to out.
// in and out may be the same slice; out must have length ctx.n.
func (ctx *Context) hashInto(pad scratchPad, in, out []byte) {
	pad.sha.Reset()
	pad.sha.Write(in)
	digest := pad.sha.Sum(pad.digest[:0])
	if ctx.p.Func == SHA256 {
		copy(out, digest)
		return
	}
	pad.rmd.Reset()
	pad.rmd.Write(digest)
	copy(out, pad.rmd.Sum(pad.digest[:0]))
}

// Applies steps chain steps to in and writes the result to out.
func (ctx *Context) chainInto(pad scratchPad, in []byte, steps uint32,
	out []byte) {
	if steps == 0 {
		copy(out, in)
		return
	}
	ctx.hashInto(pad, in, out)
	for i := uint32(1); i < steps; i++ {
		ctx.hashInto(pad, out, out)
	}
}

// Derives the seed of the chain at position index from the master secret.
// The index must fit ctx.indexBytes.
func (ctx *Context) deriveInto(pad scratchPad, master []byte, index uint32,
	out []byte) {
	var idx [4]byte
	encodeUint64Into(uint64(index), idx[:ctx.indexBytes])
	h := pad.rmd
	if ctx.p.Func == SHA256 {
		h = pad.sha
	}
	h.Reset()
	h.Write(master)
	h.Write(idx[:ctx.indexBytes])
	copy(out, h.Sum(pad.digest[:0]))
}

// Checks whether the given position fits the index encoding.
func (ctx *Context) checkIndex(index uint32) Error {
	if ctx.indexBytes < 4 && index >= 1<<(8*ctx.indexBytes) {
		return errorf(DigitWidthMismatch,
			"position %d does not fit a %d byte index", index, ctx.indexBytes)
	}
	return nil
}

// Derives the secret seed of the hash chain at the given position.
//
// For the HASH160 family this is RIPEMD160(master || index) and for the
// SHA256 family SHA256(master || index), where index is encoded big endian
// in Params.IndexBytes bytes.  Distinct positions yield independent secrets.
func (ctx *Context) DeriveSecret(master []byte, index uint32) ([]byte, Error) {
	if len(master) == 0 {
		return nil, errorf(InvalidEncoding, "empty master secret")
	}
	if err := ctx.checkIndex(index); err != nil {
		return nil, err
	}
	ret := make([]byte, ctx.n)
	ctx.deriveInto(ctx.newScratchPad(), master, index, ret)
	return ret, nil
}

// Parses a hex encoded master secret.
func DecodeMasterSecret(s string) ([]byte, Error) {
	ret, err := hex.DecodeString(s)
	if err != nil {
		return nil, wrapErrorf(InvalidEncoding, err, "master secret")
	}
	if len(ret) == 0 {
		return nil, errorf(InvalidEncoding, "empty master secret")
	}
	return ret, nil
}
