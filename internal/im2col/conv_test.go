package im2col

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unfold-ml/unfold/internal/tensor"
)

// reverse returns a reversed copy of s. The double-sum definition flips the
// kernel; the matmul formulation does not. Reversing translates between the
// two conventions.
func reverse[T tensor.Element](s []T) []T {
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// naiveConv2D is the triple-sum reference for the 2D multi-channel,
// multi-filter case: for each anchor, sum x[anchor+offset, ch] * w[offset, ch, j]
// over all offsets and channels. Unflipped, matching Convolve's convention.
func naiveConv2D(x []int, nh, nw, d int, w []int, kh, kw, o int) []int {
	outH, outW := nh-kh+1, nw-kw+1
	out := make([]int, outH*outW*o)
	for ah := 0; ah < outH; ah++ {
		for aw := 0; aw < outW; aw++ {
			for j := 0; j < o; j++ {
				sum := 0
				for offH := 0; offH < kh; offH++ {
					for offW := 0; offW < kw; offW++ {
						for ch := 0; ch < d; ch++ {
							xv := x[((ah+offH)*nw+(aw+offW))*d+ch]
							wv := w[((offH*kw+offW)*d+ch)*o+j]
							sum += xv * wv
						}
					}
				}
				out[(ah*outW+aw)*o+j] = sum
			}
		}
	}
	return out
}

func TestDirect1D_WorkedExample(t *testing.T) {
	// f = [1, 2, -1, 1, -3] pre-padded with one zero on each end,
	// g = [-1, 0, 1].
	f := []int{0, 1, 2, -1, 1, -3, 0}
	g := []int{-1, 0, 1}

	out, err := Direct1D(f, g)
	require.NoError(t, err)
	assert.Equal(t, []int{-2, 2, 1, 2, 1}, out)
}

func TestDirect1D_Errors(t *testing.T) {
	_, err := Direct1D([]int{1, 2, 3}, []int{1, 2})
	require.ErrorIs(t, err, ErrInvalidShape)

	_, err = Direct1D([]int{1, 2, 3}, []int{1, 2, 3, 4, 5})
	require.ErrorIs(t, err, ErrInvalidShape)
}

func TestConvolve_1DWorkedExample(t *testing.T) {
	// Same data as the Direct1D worked example. Convolve is unflipped, so it
	// sees the reversed kernel to produce the classical result.
	f, err := tensor.FromSlice([]int{0, 1, 2, -1, 1, -3, 0}, tensor.Shape{7, 1})
	require.NoError(t, err)
	g, err := tensor.FromSlice(reverse([]int{-1, 0, 1}), tensor.Shape{3, 1})
	require.NoError(t, err)

	out, err := Convolve(f, g)
	require.NoError(t, err)

	assert.True(t, out.Shape().Equal(tensor.Shape{5}))
	assert.Equal(t, []int{-2, 2, 1, 2, 1}, out.Data())
}

// Convolve must reproduce the double-sum definition element for element,
// for any signal and any odd kernel, once the flip convention is translated.
func TestConvolve_MatchesDirect1D(t *testing.T) {
	tests := []struct {
		name string
		f    []int
		g    []int
	}{
		{"length 3 kernel", []int{3, -1, 4, 1, -5, 9, 2, -6}, []int{2, -1, 3}},
		{"length 5 kernel", []int{1, 0, -2, 5, 3, -1, 2, 2, -4, 1}, []int{1, -2, 0, 2, -1}},
		{"kernel covers signal", []int{4, -2, 7}, []int{1, 1, 1}},
		{"asymmetric kernel", []int{5, 5, 5, 5, 5, 5}, []int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := Direct1D(tt.f, tt.g)
			require.NoError(t, err)

			x, err := tensor.FromSlice(tt.f, tensor.Shape{len(tt.f), 1})
			require.NoError(t, err)
			w, err := tensor.FromSlice(reverse(tt.g), tensor.Shape{len(tt.g), 1})
			require.NoError(t, err)

			out, err := Convolve(x, w)
			require.NoError(t, err)
			assert.Equal(t, want, out.Data())
		})
	}
}

func TestConvolve_2DBasic(t *testing.T) {
	// 3x3 input 1..9 with a 2x2 diagonal kernel:
	// each output is the sum of the window's main diagonal.
	x, err := tensor.FromSlice([]float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{3, 3, 1})
	require.NoError(t, err)

	w, err := tensor.FromSlice([]float32{
		1, 0,
		0, 1,
	}, tensor.Shape{2, 2, 1})
	require.NoError(t, err)

	out, err := Convolve(x, w)
	require.NoError(t, err)

	assert.True(t, out.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{6, 8, 12, 14}, out.Data())
}

func TestConvolve_2DWorkedExample(t *testing.T) {
	// A centered delta kernel crops the interior of the input, so any index
	// misalignment anywhere in the pipeline shifts the result.
	x, err := tensor.FromSlice([]int{
		1, 2, 3, 4, 5,
		6, -9, 4, 14, 7,
		8, 3, -9, 9, 2,
		0, -8, -4, 4, 6,
		3, 1, 2, 7, -2,
	}, tensor.Shape{5, 5, 1})
	require.NoError(t, err)

	w, err := tensor.FromSlice([]int{
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	}, tensor.Shape{3, 3, 1})
	require.NoError(t, err)

	out, err := Convolve(x, w)
	require.NoError(t, err)

	want := []int{
		-9, 4, 14,
		3, -9, 9,
		-8, -4, 4,
	}
	assert.True(t, out.Shape().Equal(tensor.Shape{3, 3}))
	assert.Equal(t, want, out.Data())
}

func TestConvolve_MatchesNaive2D(t *testing.T) {
	// Deterministic pseudo-random integers, 2 channels, 3 output filters.
	nh, nw, d := 6, 5, 2
	kh, kw, o := 3, 2, 3

	xData := make([]int, nh*nw*d)
	for i := range xData {
		xData[i] = (i*7)%13 - 6
	}
	wData := make([]int, kh*kw*d*o)
	for i := range wData {
		wData[i] = (i*5)%11 - 5
	}

	x, err := tensor.FromSlice(xData, tensor.Shape{nh, nw, d})
	require.NoError(t, err)
	w, err := tensor.FromSlice(wData, tensor.Shape{kh, kw, d, o})
	require.NoError(t, err)

	out, err := Convolve(x, w)
	require.NoError(t, err)

	want := naiveConv2D(xData, nh, nw, d, wData, kh, kw, o)
	assert.True(t, out.Shape().Equal(tensor.Shape{nh - kh + 1, nw - kw + 1, o}))
	assert.Equal(t, want, out.Data())
}

// The BLAS paths must agree exactly with the integer loop on integer-valued
// data: float32 and float64 represent these small integers exactly, and the
// sums stay well inside the exact range.
func TestConvolve_FloatPathsMatchIntegerPath(t *testing.T) {
	nh, nw, d := 5, 5, 2
	kh, kw, o := 3, 3, 2

	xInt := make([]int, nh*nw*d)
	wInt := make([]int, kh*kw*d*o)
	for i := range xInt {
		xInt[i] = (i*3)%7 - 3
	}
	for i := range wInt {
		wInt[i] = (i*2)%5 - 2
	}

	xi, err := tensor.FromSlice(xInt, tensor.Shape{nh, nw, d})
	require.NoError(t, err)
	wi, err := tensor.FromSlice(wInt, tensor.Shape{kh, kw, d, o})
	require.NoError(t, err)
	outInt, err := Convolve(xi, wi)
	require.NoError(t, err)

	x32 := make([]float32, len(xInt))
	w32 := make([]float32, len(wInt))
	for i, v := range xInt {
		x32[i] = float32(v)
	}
	for i, v := range wInt {
		w32[i] = float32(v)
	}
	xf32, err := tensor.FromSlice(x32, tensor.Shape{nh, nw, d})
	require.NoError(t, err)
	wf32, err := tensor.FromSlice(w32, tensor.Shape{kh, kw, d, o})
	require.NoError(t, err)
	out32, err := Convolve(xf32, wf32)
	require.NoError(t, err)

	x64 := make([]float64, len(xInt))
	w64 := make([]float64, len(wInt))
	for i, v := range xInt {
		x64[i] = float64(v)
	}
	for i, v := range wInt {
		w64[i] = float64(v)
	}
	xf64, err := tensor.FromSlice(x64, tensor.Shape{nh, nw, d})
	require.NoError(t, err)
	wf64, err := tensor.FromSlice(w64, tensor.Shape{kh, kw, d, o})
	require.NoError(t, err)
	out64, err := Convolve(xf64, wf64)
	require.NoError(t, err)

	for i, v := range outInt.Data() {
		assert.Equal(t, float32(v), out32.Data()[i], "float32 path at %d", i)
		assert.Equal(t, float64(v), out64.Data()[i], "float64 path at %d", i)
	}
}

func TestConvolve_ShapeLaw(t *testing.T) {
	tests := []struct {
		name        string
		inputShape  tensor.Shape
		filterShape tensor.Shape
		wantShape   tensor.Shape
	}{
		{"1d single filter", tensor.Shape{9, 1}, tensor.Shape{3, 1}, tensor.Shape{7}},
		{"1d multi channel", tensor.Shape{9, 4}, tensor.Shape{3, 4}, tensor.Shape{7}},
		{"1d batched", tensor.Shape{9, 2}, tensor.Shape{3, 2, 5}, tensor.Shape{7, 5}},
		{"2d single filter", tensor.Shape{6, 8, 1}, tensor.Shape{3, 5, 1}, tensor.Shape{4, 4}},
		{"2d multi channel", tensor.Shape{6, 8, 3}, tensor.Shape{3, 5, 3}, tensor.Shape{4, 4}},
		{"2d batched", tensor.Shape{6, 8, 3}, tensor.Shape{3, 5, 3, 2}, tensor.Shape{4, 4, 2}},
		{"filter covers input", tensor.Shape{4, 4, 1}, tensor.Shape{4, 4, 1}, tensor.Shape{1, 1}},
		{"unit filter", tensor.Shape{5, 5, 1}, tensor.Shape{1, 1, 1}, tensor.Shape{5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := tensor.New[float64](tt.inputShape)
			require.NoError(t, err)
			w, err := tensor.New[float64](tt.filterShape)
			require.NoError(t, err)

			out, err := Convolve(x, w)
			require.NoError(t, err)
			assert.True(t, out.Shape().Equal(tt.wantShape),
				"want %v, got %v", tt.wantShape, out.Shape())
		})
	}
}

// A filter with weight only on channel ch must produce the same output as
// convolving that channel alone: the matmul aggregates across all channels.
func TestConvolve_ChannelAggregation(t *testing.T) {
	nh, nw, d := 5, 4, 3
	kh, kw := 2, 3
	pick := 1 // channel under test

	xData := make([]int, nh*nw*d)
	for i := range xData {
		xData[i] = (i*11)%17 - 8
	}
	x, err := tensor.FromSlice(xData, tensor.Shape{nh, nw, d})
	require.NoError(t, err)

	// Full filter: zero everywhere except channel `pick`.
	weights := []int{3, -1, 2, 0, 4, -2} // kh*kw values
	wData := make([]int, kh*kw*d)
	for off := 0; off < kh*kw; off++ {
		wData[off*d+pick] = weights[off]
	}
	w, err := tensor.FromSlice(wData, tensor.Shape{kh, kw, d})
	require.NoError(t, err)

	got, err := Convolve(x, w)
	require.NoError(t, err)

	// Single-channel input holding only channel `pick`.
	xPick := make([]int, nh*nw)
	for i := range xPick {
		xPick[i] = xData[i*d+pick]
	}
	xs, err := tensor.FromSlice(xPick, tensor.Shape{nh, nw, 1})
	require.NoError(t, err)
	ws, err := tensor.FromSlice(weights, tensor.Shape{kh, kw, 1})
	require.NoError(t, err)

	want, err := Convolve(xs, ws)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

// Convolving against a column-wise stack of o filters must equal the o
// independent convolutions.
func TestConvolve_MultiFilterBatching(t *testing.T) {
	nh, nw, d := 4, 4, 2
	kh, kw := 2, 2

	xData := make([]int, nh*nw*d)
	for i := range xData {
		xData[i] = (i*5)%9 - 4
	}
	x, err := tensor.FromSlice(xData, tensor.Shape{nh, nw, d})
	require.NoError(t, err)

	filters := [][]int{
		{1, 0, -1, 2, 0, 3, -2, 1},
		{0, 1, 1, 0, -1, -1, 2, 2},
		{2, 2, 0, 0, 1, -3, 1, 0},
	}
	o := len(filters)

	// Stack column-wise: batched[(c)*o + j] = filters[j][c].
	batched := make([]int, kh*kw*d*o)
	for j, f := range filters {
		for c, v := range f {
			batched[c*o+j] = v
		}
	}
	wb, err := tensor.FromSlice(batched, tensor.Shape{kh, kw, d, o})
	require.NoError(t, err)

	got, err := Convolve(x, wb)
	require.NoError(t, err)
	require.True(t, got.Shape().Equal(tensor.Shape{3, 3, o}))

	for j, f := range filters {
		w, err := tensor.FromSlice(f, tensor.Shape{kh, kw, d})
		require.NoError(t, err)
		want, err := Convolve(x, w)
		require.NoError(t, err)

		for p := 0; p < 9; p++ {
			assert.Equal(t, want.Data()[p], got.Data()[p*o+j],
				"filter %d, position %d", j, p)
		}
	}
}

func TestConvolve_InvalidShapes(t *testing.T) {
	mk := func(shape tensor.Shape) *tensor.Dense[int] {
		d, err := tensor.New[int](shape)
		require.NoError(t, err)
		return d
	}

	tests := []struct {
		name   string
		input  tensor.Shape
		filter tensor.Shape
	}{
		{"filter taller than input", tensor.Shape{3, 3, 1}, tensor.Shape{4, 3, 1}},
		{"filter wider than input", tensor.Shape{3, 3, 1}, tensor.Shape{3, 4, 1}},
		{"1d filter too long", tensor.Shape{4, 1}, tensor.Shape{5, 1}},
		{"channel mismatch", tensor.Shape{5, 5, 2}, tensor.Shape{3, 3, 3}},
		{"filter rank too high", tensor.Shape{5, 5, 1}, tensor.Shape{3, 3, 1, 2, 2}},
		{"filter rank too low", tensor.Shape{5, 5, 1}, tensor.Shape{3}},
		{"input rank too low", tensor.Shape{5}, tensor.Shape{3}},
		{"input rank too high", tensor.Shape{5, 5, 5, 1}, tensor.Shape{3, 3, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Convolve(mk(tt.input), mk(tt.filter))
			require.ErrorIs(t, err, ErrInvalidShape)
			assert.Nil(t, out)
		})
	}
}
