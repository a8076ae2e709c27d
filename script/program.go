package script

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/bwesterb/byteswriter"
)

// A single instruction.  Data is only set for data pushes.
type Instruction struct {
	Op   Opcode
	Data []byte
}

// An immutable straight-line sequence of instructions.
//
// All methods that add instructions return a new Program and leave the
// receiver untouched, so partial programs can be shared and composed freely.
// The zero value is the empty program.
type Program struct {
	ins []Instruction
}

// Returns a copy of p extended by ins.
func (p Program) extend(ins ...Instruction) Program {
	ret := make([]Instruction, len(p.ins), len(p.ins)+len(ins))
	copy(ret, p.ins)
	return Program{ins: append(ret, ins...)}
}

// Appends the given non-push opcodes.
func (p Program) Op(ops ...Opcode) Program {
	ins := make([]Instruction, len(ops))
	for i, op := range ops {
		ins[i] = Instruction{Op: op}
	}
	return p.extend(ins...)
}

// Appends the given opcode n times.
func (p Program) Repeat(op Opcode, n int) Program {
	if n <= 0 {
		return p
	}
	ops := make([]Opcode, n)
	for i := range ops {
		ops[i] = op
	}
	return p.Op(ops...)
}

// Appends a minimal push of data.
func (p Program) Push(data []byte) Program {
	return p.extend(pushInstruction(data))
}

// Appends a minimal push of the script number n.
func (p Program) PushInt(n int64) Program {
	switch {
	case n == 0:
		return p.extend(Instruction{Op: OP_0})
	case n == -1:
		return p.extend(Instruction{Op: OP_1NEGATE})
	case n >= 1 && n <= 16:
		return p.extend(Instruction{Op: OP_1 + Opcode(n-1)})
	}
	return p.Push(encodeNum(n))
}

// Appends all instructions of q.
func (p Program) Append(q Program) Program {
	return p.extend(q.ins...)
}

// Concatenates the given programs into a new one.
func Concat(parts ...Program) Program {
	total := 0
	for _, part := range parts {
		total += len(part.ins)
	}
	ins := make([]Instruction, 0, total)
	for _, part := range parts {
		ins = append(ins, part.ins...)
	}
	return Program{ins: ins}
}

func pushInstruction(data []byte) Instruction {
	if len(data) == 0 {
		return Instruction{Op: OP_0}
	}
	if len(data) == 1 {
		if data[0] >= 1 && data[0] <= 16 {
			return Instruction{Op: OP_1 + Opcode(data[0]-1)}
		}
		if data[0] == 0x81 {
			return Instruction{Op: OP_1NEGATE}
		}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	switch {
	case len(data) < int(OP_PUSHDATA1):
		return Instruction{Op: Opcode(len(data)), Data: buf}
	case len(data) <= 0xff:
		return Instruction{Op: OP_PUSHDATA1, Data: buf}
	default:
		return Instruction{Op: OP_PUSHDATA2, Data: buf}
	}
}

// Number of instructions.
func (p Program) Len() int {
	return len(p.ins)
}

// Returns the instruction at index pc.
func (p Program) At(pc int) Instruction {
	return p.ins[pc]
}

// Returns a copy of the instructions.
func (p Program) Instructions() []Instruction {
	ret := make([]Instruction, len(p.ins))
	copy(ret, p.ins)
	return ret
}

// Returns whether the program only pushes values, which is required
// of the unlocking part of a verification.
func (p Program) IsPushOnly() bool {
	for _, ins := range p.ins {
		if !ins.Op.IsPush() {
			return false
		}
	}
	return true
}

func (ins Instruction) size() int {
	switch {
	case ins.Op > OP_0 && ins.Op < OP_PUSHDATA1:
		return 1 + len(ins.Data)
	case ins.Op == OP_PUSHDATA1:
		return 2 + len(ins.Data)
	case ins.Op == OP_PUSHDATA2:
		return 3 + len(ins.Data)
	}
	return 1
}

func (ins Instruction) writeTo(w io.Writer) error {
	var hdr [3]byte
	hdr[0] = byte(ins.Op)
	n := 1
	switch ins.Op {
	case OP_PUSHDATA1:
		hdr[1] = byte(len(ins.Data))
		n = 2
	case OP_PUSHDATA2:
		binary.LittleEndian.PutUint16(hdr[1:], uint16(len(ins.Data)))
		n = 3
	}
	if _, err := w.Write(hdr[:n]); err != nil {
		return err
	}
	if len(ins.Data) == 0 {
		return nil
	}
	_, err := w.Write(ins.Data)
	return err
}

// Size of the serialized program in bytes.
func (p Program) Size() int {
	ret := 0
	for _, ins := range p.ins {
		ret += ins.size()
	}
	return ret
}

// Serializes the program in the Bitcoin script wire format.
// Will never return an error.
func (p Program) MarshalBinary() ([]byte, error) {
	buf := make([]byte, p.Size())
	w := byteswriter.NewWriter(buf)
	for _, ins := range p.ins {
		if err := ins.writeTo(w); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Same as MarshalBinary, without the error.
func (p Program) Bytes() []byte {
	buf, _ := p.MarshalBinary()
	return buf
}

// Parses a program from the Bitcoin script wire format.
func ParseProgram(buf []byte) (Program, error) {
	var ins []Instruction
	for i := 0; i < len(buf); {
		op := Opcode(buf[i])
		start := i
		i++
		var n int
		switch {
		case op > OP_0 && op < OP_PUSHDATA1:
			n = int(op)
		case op == OP_PUSHDATA1:
			if i+1 > len(buf) {
				return Program{}, fmt.Errorf("truncated OP_PUSHDATA1 at offset %d", start)
			}
			n = int(buf[i])
			i++
		case op == OP_PUSHDATA2:
			if i+2 > len(buf) {
				return Program{}, fmt.Errorf("truncated OP_PUSHDATA2 at offset %d", start)
			}
			n = int(binary.LittleEndian.Uint16(buf[i:]))
			i += 2
		default:
			if !op.Known() {
				return Program{}, fmt.Errorf("%s at offset %d", op, start)
			}
			ins = append(ins, Instruction{Op: op})
			continue
		}
		if i+n > len(buf) {
			return Program{}, fmt.Errorf("push at offset %d runs past the end", start)
		}
		data := make([]byte, n)
		copy(data, buf[i:i+n])
		ins = append(ins, Instruction{Op: op, Data: data})
		i += n
	}
	return Program{ins: ins}, nil
}

func (ins Instruction) String() string {
	if ins.Data != nil {
		return hex.EncodeToString(ins.Data)
	}
	return ins.Op.String()
}

// Disassembles the program, eg. "OP_15 OP_MIN OP_DUP ...".
func (p Program) String() string {
	parts := make([]string, len(p.ins))
	for i, ins := range p.ins {
		parts[i] = ins.String()
	}
	return strings.Join(parts, " ")
}
