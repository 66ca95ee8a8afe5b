package im2col

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/unfold-ml/unfold/internal/tensor"
)

// matmul computes the (p, k) x (k, o) row-major product. Float element types
// go through BLAS gemm; integer types use a plain accumulation loop, which
// BLAS does not offer and which keeps integer results exact.
func matmul[T tensor.Element](x []T, p, k int, w []T, o int) []T {
	out := make([]T, p*o)

	switch xs := any(x).(type) {
	case []float32:
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas32.General{Rows: p, Cols: k, Stride: k, Data: xs},
			blas32.General{Rows: k, Cols: o, Stride: o, Data: any(w).([]float32)},
			0,
			blas32.General{Rows: p, Cols: o, Stride: o, Data: any(out).([]float32)})
	case []float64:
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas64.General{Rows: p, Cols: k, Stride: k, Data: xs},
			blas64.General{Rows: k, Cols: o, Stride: o, Data: any(w).([]float64)},
			0,
			blas64.General{Rows: p, Cols: o, Stride: o, Data: any(out).([]float64)})
	default:
		for i := 0; i < p; i++ {
			for j := 0; j < o; j++ {
				var sum T
				for l := 0; l < k; l++ {
					sum += x[i*k+l] * w[l*o+j]
				}
				out[i*o+j] = sum
			}
		}
	}
	return out
}
