package wotscript

import (
	"github.com/bwesterb/go-wotscript/script"
)

// Compiles the program that checks a witness against the given public keys.
//
// The program expects the stack built by Witness.Unlocking: for every
// position, in order, the revealed value and then its digit.  It checks
// the positions in reverse, stashing the digits on the alt stack, and then
// recomputes the checksum from the message digits and compares it with the
// checksum digits.  It accepts with a single true element on the stack and
// aborts at the first failing check otherwise.
func (ctx *Context) CompileVerifier(keys [][]byte) (script.Program, Error) {
	if uint32(len(keys)) != ctx.wotsLen {
		return script.Program{}, errorf(DigitWidthMismatch,
			"got %d public keys instead of %d", len(keys), ctx.wotsLen)
	}
	for i, key := range keys {
		if uint32(len(key)) != ctx.n {
			return script.Program{}, errorf(InvalidEncoding,
				"public key %d should be %d bytes, not %d", i, ctx.n, len(key))
		}
	}

	parts := make([]script.Program, 0, len(keys)+2)
	for i := len(keys) - 1; i >= 0; i-- {
		parts = append(parts, ctx.digitSignatureCheck(keys[i]))
	}
	parts = append(parts,
		ctx.checksumCheck(),
		script.Program{}.Op(script.OP_TRUE))
	prog := script.Concat(parts...)

	log.Logf("Compiled verifier for %s: %d instructions, %d bytes",
		ctx, prog.Len(), prog.Size())
	return prog, nil
}

func (ctx *Context) hashOpcode() script.Opcode {
	if ctx.p.Func == SHA256 {
		return script.OP_SHA256
	}
	return script.OP_HASH160
}

// Checks the (value, digit) pair on top of the stack against pk and leaves
// the clamped digit on the alt stack.
//
// The value is hashed w times, keeping every intermediate result.  The
// result w-digit steps away from the value is the one at depth digit from
// the top of the stack, which is selected with OP_PICK.
func (ctx *Context) digitSignatureCheck(pk []byte) script.Program {
	w := int(ctx.wotsW)

	hashes := make([]script.Opcode, 0, 2*w)
	for i := 0; i < w; i++ {
		hashes = append(hashes, script.OP_DUP, ctx.hashOpcode())
	}

	p := script.Program{}.
		PushInt(int64(w-1)).
		Op(script.OP_MIN, script.OP_DUP, script.OP_TOALTSTACK, script.OP_TOALTSTACK).
		Op(hashes...).
		Op(script.OP_FROMALTSTACK, script.OP_PICK).
		Push(pk).
		Op(script.OP_EQUALVERIFY)

	// the revealed value and its w hashes
	left := w + 1
	p = p.Repeat(script.OP_2DROP, left/2)
	if left%2 == 1 {
		p = p.Op(script.OP_DROP)
	}
	return p
}

// Recomputes the checksum maxChecksum - sum of the message digits and
// compares it with the number encoded by the checksum digits.
//
// The alt stack holds the message digits (first position on top) above
// the checksum digits (most significant on top).
func (ctx *Context) checksumCheck() script.Program {
	p := script.Program{}.Op(script.OP_FROMALTSTACK, script.OP_NEGATE)
	for i := uint32(1); i < ctx.wotsLen1; i++ {
		p = p.Op(script.OP_FROMALTSTACK, script.OP_SUB)
	}
	p = p.PushInt(int64(ctx.maxChecksum)).Op(script.OP_ADD)

	// Horner's rule; shifting by LogW bits is LogW doublings.
	shift := make([]script.Opcode, 0, 2*ctx.wotsLogW)
	for i := uint8(0); i < ctx.wotsLogW; i++ {
		shift = append(shift, script.OP_DUP, script.OP_ADD)
	}
	p = p.Op(script.OP_FROMALTSTACK)
	for i := uint32(1); i < ctx.wotsLen2; i++ {
		p = p.Op(shift...).Op(script.OP_FROMALTSTACK, script.OP_ADD)
	}
	return p.Op(script.OP_EQUALVERIFY)
}
