package script

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"golang.org/x/crypto/ripemd160"
)

type faultRecorder struct {
	steps int
	phase Phase
	pc    int
	err   error
}

func (r *faultRecorder) OnStep(phase Phase, pc int, ins Instruction, stack [][]byte) {
	r.steps++
}

func (r *faultRecorder) OnFault(phase Phase, pc int, err error) {
	r.phase = phase
	r.pc = pc
	r.err = err
}

func hash160(in []byte) []byte {
	digest := sha256.Sum256(in)
	h := ripemd160.New()
	h.Write(digest[:])
	return h.Sum(nil)
}

func TestExecuteArithmetic(t *testing.T) {
	// 60 - 7 - 5, doubled
	lock := Program{}.
		Op(OP_NEGATE).
		PushInt(5).
		Op(OP_SUB).
		PushInt(60).
		Op(OP_ADD).
		Op(OP_DUP, OP_ADD).
		PushInt(96).
		Op(OP_EQUALVERIFY, OP_TRUE)
	if o := Execute(Program{}.PushInt(7), lock); o != Accept {
		t.Fatalf("arithmetic program returned %s", o)
	}
}

func TestExecuteMinAndPick(t *testing.T) {
	// stack: a b c 20 -> min(15, 20) = 15 -> pick out of range
	unlock := Program{}.Push([]byte("a")).Push([]byte("b")).Push([]byte("c")).PushInt(20)
	lock := Program{}.PushInt(15).Op(OP_MIN, OP_PICK)
	var rec faultRecorder
	if Execute(unlock, lock, WithTracer(&rec)) != Reject {
		t.Fatalf("pick beyond the stack should reject")
	}
	if rec.err != ErrInvalidPick || rec.pc != 2 || rec.phase != Locking {
		t.Fatalf("unexpected fault %v at %d", rec.err, rec.pc)
	}

	unlock = Program{}.Push([]byte("a")).Push([]byte("b")).Push([]byte("c")).PushInt(2)
	lock = Program{}.PushInt(15).Op(OP_MIN, OP_PICK).
		Push([]byte("a")).Op(OP_EQUALVERIFY, OP_2DROP, OP_DROP, OP_TRUE)
	if o := Execute(unlock, lock); o != Accept {
		t.Fatalf("pick program returned %s", o)
	}
}

func TestExecuteAltStack(t *testing.T) {
	unlock := Program{}.PushInt(1).PushInt(2)
	lock := Program{}.
		Op(OP_TOALTSTACK, OP_TOALTSTACK, OP_FROMALTSTACK).
		PushInt(1).
		Op(OP_EQUALVERIFY, OP_FROMALTSTACK).
		PushInt(2).
		Op(OP_EQUAL)
	if o := Execute(unlock, lock); o != Accept {
		t.Fatalf("alt stack program returned %s", o)
	}

	var rec faultRecorder
	if Execute(unlock, Program{}.Op(OP_FROMALTSTACK), WithTracer(&rec)) != Reject {
		t.Fatalf("empty alt stack should reject")
	}
	if rec.err != ErrAltStackUnderflow {
		t.Fatalf("unexpected fault %v", rec.err)
	}
}

func TestExecuteHashes(t *testing.T) {
	msg := []byte("test message")
	digest := sha256.Sum256(msg)
	rh := ripemd160.New()
	rh.Write(msg)

	lock := Program{}.
		Op(OP_DUP, OP_DUP, OP_SHA256).Push(digest[:]).Op(OP_EQUALVERIFY).
		Op(OP_RIPEMD160).Push(rh.Sum(nil)).Op(OP_EQUALVERIFY).
		Op(OP_HASH160).Push(hash160(msg)).Op(OP_EQUAL)
	if o := Execute(Program{}.Push(msg), lock); o != Accept {
		t.Fatalf("hash program returned %s", o)
	}
}

func TestExecuteRejects(t *testing.T) {
	for _, tc := range []struct {
		name   string
		unlock Program
		lock   Program
		err    error
	}{
		{"equalverify", Program{}.PushInt(1).PushInt(2), Program{}.Op(OP_EQUALVERIFY, OP_TRUE), ErrVerify},
		{"underflow", Program{}, Program{}.Op(OP_DUP), ErrStackUnderflow},
		{"return", Program{}, Program{}.Op(OP_TRUE, OP_RETURN), ErrReturn},
		{"unknown", Program{}, Program{}.Op(Opcode(0xba)), ErrUnknownOpcode},
		{"not push-only", Program{}.PushInt(1).Op(OP_DUP), Program{}.Op(OP_TRUE), ErrNotPushOnly},
		{"pushdata4", Program{}.Op(Opcode(0x4e)), Program{}.Op(OP_TRUE), ErrNotPushOnly},
		{"unclean stack", Program{}.PushInt(1), Program{}.Op(OP_TRUE), ErrNotAccepted},
		{"false", Program{}, Program{}.PushInt(0), ErrNotAccepted},
		{"big operand", Program{}.Push([]byte{1, 2, 3, 4, 5}), Program{}.Op(OP_NEGATE), errNumTooLong},
		{"verify", Program{}.PushInt(0), Program{}.Op(OP_VERIFY, OP_TRUE), ErrVerify},
		{"big element", Program{}.Push(make([]byte, MaxElementSize+1)), Program{}.Op(OP_TRUE), ErrElementTooLarge},
	} {
		var rec faultRecorder
		if Execute(tc.unlock, tc.lock, WithTracer(&rec)) != Reject {
			t.Errorf("%s: should reject", tc.name)
			continue
		}
		if rec.err != tc.err {
			t.Errorf("%s: fault %v instead of %v", tc.name, rec.err, tc.err)
		}
	}
}

func TestExecuteStackLimit(t *testing.T) {
	lock := Program{}.PushInt(1).Repeat(OP_DUP, MaxStackSize)
	var rec faultRecorder
	if Execute(Program{}, lock, WithTracer(&rec)) != Reject {
		t.Fatalf("stack limit not enforced")
	}
	if rec.err != ErrStackOverflow {
		t.Fatalf("unexpected fault %v", rec.err)
	}
}

func TestTuckAndSwap(t *testing.T) {
	unlock := Program{}.Push([]byte("a")).Push([]byte("b"))
	lock := Program{}.
		Op(OP_TUCK).
		Push([]byte("b")).Op(OP_EQUALVERIFY, OP_SWAP).
		Push([]byte("b")).Op(OP_EQUALVERIFY).
		Push([]byte("a")).Op(OP_EQUALVERIFY, OP_TRUE)
	var rec faultRecorder
	if o := Execute(unlock, lock, WithTracer(&rec)); o != Accept {
		t.Fatalf("returned %s (%v at %d)", o, rec.err, rec.pc)
	}
	if rec.steps != unlock.Len()+lock.Len() {
		t.Fatalf("tracer saw %d steps", rec.steps)
	}
	if !bytes.Equal(hash160(nil), hashOp(OP_HASH160, nil)) {
		t.Fatalf("hashOp(OP_HASH160) mismatch")
	}
}
