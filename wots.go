package wotscript

import (
	"strconv"
)

// Iterated hash chain: value k is H applied k times to the seed.
type Chain struct {
	values [][]byte
}

// Builds the chain of the given depth from seed.  A chain is a prefix of
// every longer chain with the same seed.
func (ctx *Context) BuildChain(seed []byte, depth uint32) *Chain {
	pad := ctx.newScratchPad()
	values := make([][]byte, depth+1)
	values[0] = append([]byte(nil), seed...)
	if depth > 0 {
		buf := make([]byte, depth*ctx.n)
		for k := uint32(1); k <= depth; k++ {
			values[k] = buf[(k-1)*ctx.n : k*ctx.n]
			ctx.hashInto(pad, values[k-1], values[k])
		}
	}
	return &Chain{values: values}
}

// Number of hash steps from the seed to the tip.
func (c *Chain) Depth() uint32 {
	return uint32(len(c.values) - 1)
}

// Returns a copy of the value at depth k, which must be at most Depth().
func (c *Chain) Value(k uint32) []byte {
	return append([]byte(nil), c.values[k]...)
}

// Returns the last value of the chain, which is published as public key.
func (c *Chain) Tip() []byte {
	return c.Value(c.Depth())
}

// Returns the value that signs digit.  The tip is never revealed.
func (c *Chain) Reveal(digit uint32) ([]byte, Error) {
	if digit >= c.Depth() {
		return nil, errorf(InvalidDigit,
			"digit %d out of range for a chain of depth %d", digit, c.Depth())
	}
	return c.Value(digit), nil
}

// Decodes a message in which every character is one digit.  Digits are
// written 0-9 followed by the letters a-z (or A-Z), so that for base 16 the
// message is just a hex string.  Only works for bases up to 32.
func (ctx *Context) MessageDigits(message string) ([]uint32, Error) {
	if ctx.wotsW > 32 {
		return nil, errorf(InvalidEncoding,
			"base %d messages can't be written as characters", ctx.wotsW)
	}
	if uint32(len(message)) != ctx.wotsLen1 {
		return nil, errorf(DigitWidthMismatch,
			"message has %d digits instead of %d", len(message), ctx.wotsLen1)
	}
	ret := make([]uint32, len(message))
	for i := 0; i < len(message); i++ {
		digit, err := strconv.ParseUint(message[i:i+1], int(ctx.wotsW), 32)
		if err != nil {
			return nil, wrapErrorf(InvalidEncoding, err,
				"character %d of the message", i)
		}
		ret[i] = uint32(digit)
	}
	return ret, nil
}

// Splits msg into digits, most significant bits first.  Only works if
// LogW divides into 8.
func (ctx *Context) MessageDigitsFromBytes(msg []byte) ([]uint32, Error) {
	if 8%ctx.wotsLogW != 0 {
		return nil, errorf(InvalidEncoding,
			"can't split bytes into %d bit digits", ctx.wotsLogW)
	}
	if uint32(len(msg))*8 != ctx.wotsLen1*uint32(ctx.wotsLogW) {
		return nil, errorf(DigitWidthMismatch,
			"message of %d bytes does not have %d digits",
			len(msg), ctx.wotsLen1)
	}
	ret := make([]uint32, ctx.wotsLen1)
	ctx.toBaseW(msg, ret)
	return ret, nil
}

// Converts the given array of bytes into base w.  Only works if LogW
// divides into 8.
func (ctx *Context) toBaseW(input []byte, output []uint32) {
	var in uint32 = 0
	var total uint8
	var bits uint8

	for out := range output {
		if bits == 0 {
			total = input[in]
			in++
			bits = 8
		}
		bits -= ctx.wotsLogW
		output[out] = uint32(total>>bits) & (ctx.wotsW - 1)
	}
}

// Encodes the checksum into len(out) base w digits, most significant first.
func (ctx *Context) checksumDigitsInto(csum uint32, out []uint32) {
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = csum & (ctx.wotsW - 1)
		csum >>= ctx.wotsLogW
	}
}

// Returns the message digits followed by their checksum digits.  These are
// the depths at which the chains are revealed.
func (ctx *Context) chainLengths(digits []uint32) []uint32 {
	ret := make([]uint32, ctx.wotsLen)
	copy(ret, digits)

	// total number of hash steps revealed on the message chains
	var steps uint32
	for _, digit := range digits {
		steps += digit
	}

	ctx.checksumDigitsInto(ctx.maxChecksum-steps, ret[ctx.wotsLen1:])
	return ret
}

// Generates the witness for a message written as one character per digit;
// see MessageDigits.
func (ctx *Context) GenerateWitness(master []byte, message string) (
	*Witness, Error) {
	digits, err := ctx.MessageDigits(message)
	if err != nil {
		return nil, err
	}
	return ctx.GenerateWitnessForDigits(master, digits)
}

// Generates the witness for the given message digits.
//
// NOTE Never generate witnesses for two different messages from the same
// master secret.
func (ctx *Context) GenerateWitnessForDigits(master []byte, digits []uint32) (
	*Witness, Error) {
	if len(master) == 0 {
		return nil, errorf(InvalidEncoding, "empty master secret")
	}
	if uint32(len(digits)) != ctx.wotsLen1 {
		return nil, errorf(DigitWidthMismatch,
			"got %d digits instead of %d", len(digits), ctx.wotsLen1)
	}
	for i, digit := range digits {
		if digit >= ctx.wotsW {
			return nil, errorf(InvalidDigit,
				"digit %d at position %d is not below %d", digit, i, ctx.wotsW)
		}
	}

	lengths := ctx.chainLengths(digits)
	pad := ctx.newScratchPad()
	buf := make([]byte, ctx.wotsLen*ctx.n)
	elems := make([]WitnessElement, ctx.wotsLen)
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		value := buf[i*ctx.n : (i+1)*ctx.n]
		ctx.deriveInto(pad, master, i, value)
		ctx.chainInto(pad, value, lengths[i], value)
		elems[i] = WitnessElement{Digit: lengths[i], Value: value}
	}

	log.Logf("Generated witness for %s with checksum digits %v",
		ctx, lengths[ctx.wotsLen1:])
	return &Witness{ctx: ctx, elems: elems}, nil
}
