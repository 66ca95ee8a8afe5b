package im2col

import (
	"github.com/unfold-ml/unfold/internal/tensor"
)

// Direct1D evaluates the classical double-sum definition of discrete
// convolution for a single-channel 1D signal:
//
//	out[n] = Σ_{m=-M}^{M} f[n-m] * g[m]
//
// g must have odd length 2M+1, and f must already carry whatever padding the
// caller wants: only positions n where every access f[n-m] is in range are
// produced, so the output has length len(f) - 2M.
//
// This is the flipped-kernel definition from signal processing. Convolve
// implements the unflipped (cross-correlation) form CNNs use; the two agree
// when one of them sees the kernel reversed. Direct1D is the correctness
// oracle for the matmul reformulation, not a fast path.
func Direct1D[T tensor.Element](f, g []T) ([]T, error) {
	const op = "direct1d"

	if len(g) == 0 || len(g)%2 == 0 {
		return nil, shapeErrorf(op, "height", "kernel length must be odd, got %d", len(g))
	}
	if len(f) < len(g) {
		return nil, shapeErrorf(op, "height", "kernel length %d exceeds signal length %d", len(g), len(f))
	}

	m := (len(g) - 1) / 2
	out := make([]T, len(f)-2*m)
	for i := range out {
		n := i + m
		var sum T
		for j := -m; j <= m; j++ {
			sum += f[n-j] * g[j+m]
		}
		out[i] = sum
	}
	return out, nil
}
