package skin

import (
	"runtime"
	"sync"

	"mu-dqskin/internal/mathutil"
)

// minChunk keeps goroutine overhead small relative to per-vertex work.
const minChunk = 256

// DeformParallel is Deform split over up to workers goroutines, each
// owning a contiguous range of vertices. workers <= 0 uses NumCPU.
// Output is identical to Deform.
func DeformParallel(
	workers int,
	rest, normals []mathutil.Vec3,
	joints []mathutil.DualQuat,
	infl [][]Influence,
	outPos, outNorm []mathutil.Vec3,
) {
	n := len(rest)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}
	if chunk >= n {
		deformRange(0, n, rest, normals, joints, infl, outPos, outNorm)
		return
	}

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			deformRange(lo, hi, rest, normals, joints, infl, outPos, outNorm)
		}(lo, hi)
	}
	wg.Wait()
}
