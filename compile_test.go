package wotscript

import (
	"math/rand"
	"testing"

	"github.com/templexxx/xor"

	"github.com/bwesterb/go-wotscript/script"
)

type faultRecorder struct {
	faulted bool
	pc      int
	err     error
}

func (r *faultRecorder) OnStep(script.Phase, int, script.Instruction, [][]byte) {}

func (r *faultRecorder) OnFault(phase script.Phase, pc int, err error) {
	r.faulted = true
	r.pc = pc
	r.err = err
}

func testRoundTrip(ctx *Context, t *testing.T) {
	rng := rand.New(rand.NewSource(int64(ctx.wotsLen)))
	master := make([]byte, 32)
	rng.Read(master)
	digits := make([]uint32, ctx.wotsLen1)
	for i := range digits {
		digits[i] = uint32(rng.Intn(int(ctx.wotsW)))
	}

	pks, err := ctx.GenerateKeys(master)
	if err != nil {
		t.Fatalf("%s GenerateKeys: %v", ctx, err)
	}
	w, err := ctx.GenerateWitnessForDigits(master, digits)
	if err != nil {
		t.Fatalf("%s GenerateWitnessForDigits: %v", ctx, err)
	}
	var rec faultRecorder
	outcome := script.Execute(w.Unlocking(), pks.Verifier(), script.WithTracer(&rec))
	if outcome != script.Accept {
		t.Fatalf("%s: valid witness rejected: %v at %d", ctx, rec.err, rec.pc)
	}

	// Flip a bit of a random revealed value.
	pos := rng.Intn(int(ctx.wotsLen))
	elems := w.Elements()
	mask := make([]byte, ctx.n)
	mask[rng.Intn(int(ctx.n))] = 1 << uint(rng.Intn(8))
	xor.BytesSameLen(elems[pos].Value, elems[pos].Value, mask)
	tampered := &Witness{ctx: ctx, elems: elems}
	if ok, _ := pks.Verify(tampered); ok {
		t.Fatalf("%s: tampered value at position %d accepted", ctx, pos)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range ListNames() {
		testRoundTrip(NewContextFromName(name), t)
	}
}

func TestRoundTripWideIndex(t *testing.T) {
	for _, params := range []Params{
		{HASH160, 300, 4, 4, 2},
		{HASH160, 487, 4, 4, 2}, // peak stack depth is the limit
		{SHA256, 240, 4, 4, 4},
	} {
		ctx, err := NewContext(params)
		if err != nil {
			t.Fatalf("NewContext(%v): %v", params, err)
		}
		testRoundTrip(ctx, t)
	}
}

func TestVerifierScenario(t *testing.T) {
	SetLogger(t)
	defer SetLogger(nil)

	pks, err := GenerateKeys(testMasterSecret(), 4, 4)
	if err != nil {
		t.Fatalf("GenerateKeys: %v", err)
	}
	prog, err := CompileVerifier(pks.Keys(), 16, 4, 4)
	if err != nil {
		t.Fatalf("CompileVerifier: %v", err)
	}
	if prog.Len() != 323 {
		t.Fatalf("verifier has %d instructions", prog.Len())
	}
	w, err := GenerateWitness(testMasterSecret(), "a1b2", 16, 4)
	if err != nil {
		t.Fatalf("GenerateWitness: %v", err)
	}
	if outcome := script.Execute(w.Unlocking(), prog); outcome != script.Accept {
		t.Fatalf("valid witness rejected")
	}

	ctx := pks.Context()
	segment := ctx.digitSignatureCheck(pks.keys[0])
	checksumStart := int(ctx.wotsLen) * segment.Len()

	// Claim digit 3 at position 3 with the value revealed for digit 2.
	elems := w.Elements()
	elems[3].Digit = 3
	var rec faultRecorder
	outcome := script.Execute((&Witness{ctx: ctx, elems: elems}).Unlocking(),
		prog, script.WithTracer(&rec))
	if outcome != script.Reject {
		t.Fatalf("raised digit accepted")
	}
	// Positions are checked last to first, so position 3 is the third.
	if rec.err != script.ErrVerify || rec.pc != 2*segment.Len()+40 {
		t.Fatalf("expected EQUALVERIFY of position 3 to fail, got %v at %d",
			rec.err, rec.pc)
	}
	if prog.At(rec.pc).Op != script.OP_EQUALVERIFY {
		t.Fatalf("fault at %s", prog.At(rec.pc).Op)
	}

	// Raising the digit and hashing the value forward passes the digit
	// check, but not the checksum.
	elems = w.Elements()
	elems[3].Digit = 3
	ctx.hashInto(ctx.newScratchPad(), elems[3].Value, elems[3].Value)
	rec = faultRecorder{}
	outcome = script.Execute((&Witness{ctx: ctx, elems: elems}).Unlocking(),
		prog, script.WithTracer(&rec))
	if outcome != script.Reject {
		t.Fatalf("forward hashed digit accepted")
	}
	if rec.err != script.ErrVerify || rec.pc < checksumStart {
		t.Fatalf("expected the checksum check to fail, got %v at %d", rec.err, rec.pc)
	}
}

func TestVerifierClampsDigits(t *testing.T) {
	ctx := NewContextFromName("WOTS-HASH160_W16_40")
	master := testMasterSecret()
	pks, _ := ctx.GenerateKeys(master)
	w, _ := ctx.GenerateWitnessForDigits(master, make([]uint32, 40))

	// A digit beyond the base is clamped to 15, which does not match the
	// value revealed for 0.
	elems := w.Elements()
	elems[0].Digit = 200
	if ok, _ := pks.Verify(&Witness{ctx: ctx, elems: elems}); ok {
		t.Fatalf("out of range digit accepted")
	}
}

func TestCompileVerifierErrors(t *testing.T) {
	ctx := NewContextFromName("WOTS-HASH160_W16_40")
	pks, _ := ctx.GenerateKeys(testMasterSecret())
	keys := pks.Keys()

	if _, err := ctx.CompileVerifier(keys[1:]); err == nil || err.Kind() != DigitWidthMismatch {
		t.Errorf("42 keys: %v", err)
	}
	keys[5] = keys[5][:19]
	if _, err := ctx.CompileVerifier(keys); err == nil || err.Kind() != InvalidEncoding {
		t.Errorf("short key: %v", err)
	}
	if _, err := CompileVerifier(pks.Keys(), 16, 40, 3); !IsKind(err, BaseConfigurationMismatch) {
		t.Errorf("base 16 with 3 bit checksum digits: %v", err)
	}
	if _, err := CompileVerifier(pks.Keys(), 16, 41, 4); !IsKind(err, DigitWidthMismatch) {
		t.Errorf("keys for 40 digits compiled for 41: %v", err)
	}
}

func BenchmarkVerifyHASH160_W16_40(b *testing.B) {
	ctx := NewContextFromName("WOTS-HASH160_W16_40")
	pks, _ := ctx.GenerateKeys(testMasterSecret())
	w, _ := ctx.GenerateWitness(testMasterSecret(),
		"0123456789abcdef0123456789abcdef01234567")
	prog := pks.Verifier()
	unlock := w.Unlocking()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		script.Execute(unlock, prog)
	}
}

func BenchmarkCompileHASH160_W256_20(b *testing.B) {
	ctx := NewContextFromName("WOTS-HASH160_W256_20")
	pks, _ := ctx.GenerateKeys(testMasterSecret())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx.CompileVerifier(pks.keys)
	}
}
