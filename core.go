package wotscript

import (
	"runtime"
	"sync"
)

// Computes the chain tip of the given position into out.
func (ctx *Context) genPublicKeyInto(pad scratchPad, master []byte,
	idx uint32, out []byte) {
	ctx.deriveInto(pad, master, idx, out)
	ctx.chainInto(pad, out, ctx.wotsW, out)
}

// Generates the public key set: the tips of the chains of depth w for all
// message and checksum positions.
func (ctx *Context) GenerateKeys(master []byte) (*PublicKeySet, Error) {
	if len(master) == 0 {
		return nil, errorf(InvalidEncoding, "empty master secret")
	}

	buf := make([]byte, ctx.wotsLen*ctx.n)
	keys := make([][]byte, ctx.wotsLen)
	for i := range keys {
		keys[i] = buf[uint32(i)*ctx.n : uint32(i+1)*ctx.n]
	}

	threads := ctx.Threads
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	log.Logf("Generating %d chains of depth %d using %d threads",
		ctx.wotsLen, ctx.wotsW, threads)

	var idx uint32

	if threads == 1 {
		pad := ctx.newScratchPad()
		for idx = 0; idx < ctx.wotsLen; idx++ {
			ctx.genPublicKeyInto(pad, master, idx, keys[idx])
		}
	} else {
		// The code in this branch does exactly the same as in
		// the branch above, but then in parallel.
		wg := &sync.WaitGroup{}
		mux := &sync.Mutex{}
		var perBatch uint32 = 4
		wg.Add(threads)
		for i := 0; i < threads; i++ {
			go func() {
				pad := ctx.newScratchPad()
				var ourIdx uint32
				for {
					mux.Lock()
					ourIdx = idx
					idx += perBatch
					mux.Unlock()
					if ourIdx >= ctx.wotsLen {
						break
					}
					ourEnd := ourIdx + perBatch
					if ourEnd > ctx.wotsLen {
						ourEnd = ctx.wotsLen
					}
					for ; ourIdx < ourEnd; ourIdx++ {
						ctx.genPublicKeyInto(pad, master, ourIdx, keys[ourIdx])
					}
				}
				wg.Done()
			}()
		}

		wg.Wait() // wait for all workers to finish
	}

	return &PublicKeySet{ctx: ctx, keys: keys}, nil
}
