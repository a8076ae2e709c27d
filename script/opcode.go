// Package script implements the jump-free, Forth-like stack machine that
// WOTS verifiers are compiled for.
//
// The instruction set is a subset of Bitcoin Script and uses the same opcode
// byte values, so a Program serializes to a valid Bitcoin script.  There are
// no branches: a program either runs to completion or aborts at the first
// failing VERIFY.
package script

import (
	"fmt"
)

// An instruction opcode.
type Opcode byte

const (
	OP_0         Opcode = 0x00
	OP_PUSHDATA1 Opcode = 0x4c
	OP_PUSHDATA2 Opcode = 0x4d
	OP_1NEGATE   Opcode = 0x4f
	OP_1         Opcode = 0x51
	OP_16        Opcode = 0x60

	OP_VERIFY Opcode = 0x69
	OP_RETURN Opcode = 0x6a

	OP_TOALTSTACK   Opcode = 0x6b
	OP_FROMALTSTACK Opcode = 0x6c
	OP_2DROP        Opcode = 0x6d
	OP_DROP         Opcode = 0x75
	OP_DUP          Opcode = 0x76
	OP_SWAP         Opcode = 0x7c
	OP_PICK         Opcode = 0x79
	OP_TUCK         Opcode = 0x7d

	OP_EQUAL       Opcode = 0x87
	OP_EQUALVERIFY Opcode = 0x88

	OP_NEGATE Opcode = 0x8f
	OP_ADD    Opcode = 0x93
	OP_SUB    Opcode = 0x94
	OP_MIN    Opcode = 0xa3

	OP_RIPEMD160 Opcode = 0xa6
	OP_SHA256    Opcode = 0xa8
	OP_HASH160   Opcode = 0xa9
)

// Alias for OP_1, which is what the verifier pushes when it accepts.
const OP_TRUE = OP_1

var opNames = map[Opcode]string{
	OP_0:            "OP_0",
	OP_PUSHDATA1:    "OP_PUSHDATA1",
	OP_PUSHDATA2:    "OP_PUSHDATA2",
	OP_1NEGATE:      "OP_1NEGATE",
	OP_VERIFY:       "OP_VERIFY",
	OP_RETURN:       "OP_RETURN",
	OP_TOALTSTACK:   "OP_TOALTSTACK",
	OP_FROMALTSTACK: "OP_FROMALTSTACK",
	OP_2DROP:        "OP_2DROP",
	OP_DROP:         "OP_DROP",
	OP_DUP:          "OP_DUP",
	OP_SWAP:         "OP_SWAP",
	OP_PICK:         "OP_PICK",
	OP_TUCK:         "OP_TUCK",
	OP_EQUAL:        "OP_EQUAL",
	OP_EQUALVERIFY:  "OP_EQUALVERIFY",
	OP_NEGATE:       "OP_NEGATE",
	OP_ADD:          "OP_ADD",
	OP_SUB:          "OP_SUB",
	OP_MIN:          "OP_MIN",
	OP_RIPEMD160:    "OP_RIPEMD160",
	OP_SHA256:       "OP_SHA256",
	OP_HASH160:      "OP_HASH160",
}

var nameToOp map[string]Opcode

func init() {
	for op := OP_1; op <= OP_16; op++ {
		opNames[op] = fmt.Sprintf("OP_%d", byte(op-OP_1)+1)
	}
	nameToOp = make(map[string]Opcode, len(opNames))
	for op, name := range opNames {
		nameToOp[name] = op
	}
	nameToOp["OP_TRUE"] = OP_TRUE
	nameToOp["OP_FALSE"] = OP_0
}

// Returns whether op is one of the opcodes this machine executes.
func (op Opcode) Known() bool {
	if op > OP_0 && op < OP_PUSHDATA1 {
		return true
	}
	_, ok := opNames[op]
	return ok
}

// Returns whether op pushes a value without inspecting the stack.
func (op Opcode) IsPush() bool {
	return op <= OP_16 && op != 0x4e && op != 0x50 // OP_PUSHDATA4, OP_RESERVED
}

func (op Opcode) String() string {
	if op > OP_0 && op < OP_PUSHDATA1 {
		return fmt.Sprintf("OP_DATA_%d", byte(op))
	}
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN_%#02x", byte(op))
}

// Returns the opcode with the given name, eg. "OP_HASH160".
func OpcodeFromString(name string) (Opcode, error) {
	if op, ok := nameToOp[name]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown opcode: %s", name)
}
