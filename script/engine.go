package script

import (
	"bytes"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/ripemd160"
)

const (
	// Maximum combined number of elements on the main and alt stack.
	MaxStackSize = 1000

	// Maximum size of a single stack element in bytes.
	MaxElementSize = 520
)

// Reasons for aborting execution.  They are only reported to a Tracer;
// Execute itself only discloses whether the program accepted.
var (
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrAltStackUnderflow = errors.New("alt stack underflow")
	ErrStackOverflow     = errors.New("stack size limit exceeded")
	ErrElementTooLarge   = errors.New("element size limit exceeded")
	ErrInvalidPick       = errors.New("pick index out of range")
	ErrVerify            = errors.New("verify failed")
	ErrReturn            = errors.New("OP_RETURN executed")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrNotPushOnly       = errors.New("unlocking program is not push-only")
	ErrNotAccepted       = errors.New("program did not finish with a single true element")
)

// Result of executing a program.
type Outcome int

const (
	Reject Outcome = iota
	Accept
)

func (o Outcome) String() string {
	if o == Accept {
		return "accept"
	}
	return "reject"
}

// Which of the two programs is executing.
type Phase int

const (
	Unlocking Phase = iota
	Locking
)

// Observes execution.  Only meant for debugging: the stack passed to
// OnStep must not be modified or retained.
type Tracer interface {
	OnStep(phase Phase, pc int, ins Instruction, stack [][]byte)
	OnFault(phase Phase, pc int, err error)
}

// Option for Execute.
type Option func(*machine)

// Reports every step and the fault, if any, to t.
func WithTracer(t Tracer) Option {
	return func(m *machine) {
		m.tracer = t
	}
}

type machine struct {
	stack  [][]byte
	alt    [][]byte
	tracer Tracer
}

// Runs unlocking followed by locking on a fresh machine.
//
// The unlocking program must be push-only.  The alt stack is cleared
// between the two programs.  The result is Accept if and only if no
// instruction aborted and exactly one true element is left.
func Execute(unlocking, locking Program, opts ...Option) Outcome {
	m := &machine{}
	for _, opt := range opts {
		opt(m)
	}

	if !unlocking.IsPushOnly() {
		m.fault(Unlocking, 0, ErrNotPushOnly)
		return Reject
	}
	if m.run(Unlocking, unlocking) != nil {
		return Reject
	}
	m.alt = nil
	if m.run(Locking, locking) != nil {
		return Reject
	}
	if len(m.stack) != 1 || !asBool(m.stack[0]) {
		m.fault(Locking, locking.Len(), ErrNotAccepted)
		return Reject
	}
	return Accept
}

func (m *machine) fault(phase Phase, pc int, err error) {
	if m.tracer != nil {
		m.tracer.OnFault(phase, pc, err)
	}
}

func (m *machine) run(phase Phase, p Program) error {
	for pc, ins := range p.ins {
		if m.tracer != nil {
			m.tracer.OnStep(phase, pc, ins, m.stack)
		}
		if err := m.step(ins); err != nil {
			m.fault(phase, pc, err)
			return err
		}
	}
	return nil
}

func (m *machine) push(v []byte) error {
	if len(v) > MaxElementSize {
		return ErrElementTooLarge
	}
	if len(m.stack)+len(m.alt) >= MaxStackSize {
		return ErrStackOverflow
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *machine) pop() ([]byte, error) {
	if len(m.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *machine) popNum() (int64, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	return decodeNum(v, maxNumLen)
}

func (m *machine) pushNum(n int64) error {
	return m.push(encodeNum(n))
}

func (m *machine) pushBool(b bool) error {
	if b {
		return m.push([]byte{1})
	}
	return m.push(nil)
}

// Pops two numbers; a was below b.
func (m *machine) popNums() (a, b int64, err error) {
	if b, err = m.popNum(); err != nil {
		return
	}
	a, err = m.popNum()
	return
}

func (m *machine) step(ins Instruction) error {
	op := ins.Op
	switch {
	case op == OP_0:
		return m.push(nil)
	case op > OP_0 && op <= OP_PUSHDATA2:
		return m.push(ins.Data)
	case op == OP_1NEGATE:
		return m.pushNum(-1)
	case op >= OP_1 && op <= OP_16:
		return m.pushNum(int64(op-OP_1) + 1)
	}

	switch op {
	case OP_VERIFY:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if !asBool(v) {
			return ErrVerify
		}
		return nil

	case OP_RETURN:
		return ErrReturn

	case OP_TOALTSTACK:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.alt = append(m.alt, v)
		return nil

	case OP_FROMALTSTACK:
		if len(m.alt) == 0 {
			return ErrAltStackUnderflow
		}
		v := m.alt[len(m.alt)-1]
		m.alt = m.alt[:len(m.alt)-1]
		return m.push(v)

	case OP_2DROP:
		if len(m.stack) < 2 {
			return ErrStackUnderflow
		}
		m.stack = m.stack[:len(m.stack)-2]
		return nil

	case OP_DROP:
		_, err := m.pop()
		return err

	case OP_DUP:
		if len(m.stack) == 0 {
			return ErrStackUnderflow
		}
		return m.push(m.stack[len(m.stack)-1])

	case OP_SWAP:
		n := len(m.stack)
		if n < 2 {
			return ErrStackUnderflow
		}
		m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]
		return nil

	case OP_PICK:
		idx, err := m.popNum()
		if err != nil {
			return err
		}
		if idx < 0 || idx >= int64(len(m.stack)) {
			return ErrInvalidPick
		}
		return m.push(m.stack[len(m.stack)-1-int(idx)])

	case OP_TUCK:
		n := len(m.stack)
		if n < 2 {
			return ErrStackUnderflow
		}
		top := m.stack[n-1]
		m.stack = append(m.stack[:n-2], top, m.stack[n-2], top)
		if len(m.stack)+len(m.alt) > MaxStackSize {
			return ErrStackOverflow
		}
		return nil

	case OP_EQUAL, OP_EQUALVERIFY:
		b, err := m.pop()
		if err != nil {
			return err
		}
		a, err := m.pop()
		if err != nil {
			return err
		}
		eq := bytes.Equal(a, b)
		if op == OP_EQUALVERIFY {
			if !eq {
				return ErrVerify
			}
			return nil
		}
		return m.pushBool(eq)

	case OP_NEGATE:
		a, err := m.popNum()
		if err != nil {
			return err
		}
		return m.pushNum(-a)

	case OP_ADD:
		a, b, err := m.popNums()
		if err != nil {
			return err
		}
		return m.pushNum(a + b)

	case OP_SUB:
		a, b, err := m.popNums()
		if err != nil {
			return err
		}
		return m.pushNum(a - b)

	case OP_MIN:
		a, b, err := m.popNums()
		if err != nil {
			return err
		}
		if b < a {
			a = b
		}
		return m.pushNum(a)

	case OP_RIPEMD160, OP_SHA256, OP_HASH160:
		v, err := m.pop()
		if err != nil {
			return err
		}
		return m.push(hashOp(op, v))
	}

	return ErrUnknownOpcode
}

func hashOp(op Opcode, v []byte) []byte {
	if op == OP_RIPEMD160 {
		h := ripemd160.New()
		h.Write(v)
		return h.Sum(nil)
	}
	digest := sha256.Sum256(v)
	if op == OP_SHA256 {
		return digest[:]
	}
	h := ripemd160.New()
	h.Write(digest[:])
	return h.Sum(nil)
}
