package im2col

import (
	"github.com/unfold-ml/unfold/internal/tensor"
)

// IndexSet holds the gather indices that turn a feature map into its
// unfolded sliding-window matrix.
//
// Each index array has shape (Positions, WindowSize): row p corresponds to
// one window anchor, column c to one flattened filter element. For every
// (p, c) the arrays together name the input coordinate (h[, w], ch) that
// aligns with flattened-filter element c when the window sits at output
// position p.
//
// Row order is the row-major enumeration of window anchors, so reshaping a
// length-Positions result to OutSpatial recovers the spatial output. Column
// order enumerates the window's spatial offsets row-major with the channel
// index innermost: the same order that row-major flattening gives a filter
// tensor with a trailing channel axis. The whole construction stands or
// falls on those two orders matching.
type IndexSet struct {
	H  *tensor.Dense[int32]
	W  *tensor.Dense[int32] // nil for rank-1 spatial inputs
	Ch *tensor.Dense[int32]

	Positions  int // P: number of valid window anchors
	WindowSize int // K: product of filter spatial dims and channels

	InputSpatial  tensor.Shape // copy of the input spatial shape
	FilterSpatial tensor.Shape // copy of the filter spatial shape
	Channels      int
	OutSpatial    tensor.Shape // (n_h-k_h+1[, n_w-k_w+1])
}

// WindowIndices builds the im2col gather indices for a stride-1 valid
// convolution of a channel-last feature map.
//
// inputSpatial and filterSpatial must have the same rank, 1 or 2, with every
// filter dimension positive and no larger than the matching input dimension;
// channels must be positive. Violations return a ShapeError wrapping
// ErrInvalidShape.
func WindowIndices(inputSpatial, filterSpatial []int, channels int) (*IndexSet, error) {
	const op = "window indices"

	if err := validateGeometry(op, inputSpatial, filterSpatial, channels); err != nil {
		return nil, err
	}

	switch len(inputSpatial) {
	case 1:
		return windowIndices1D(inputSpatial[0], filterSpatial[0], channels)
	default:
		return windowIndices2D(inputSpatial[0], inputSpatial[1], filterSpatial[0], filterSpatial[1], channels)
	}
}

// validateGeometry checks convolution geometry eagerly, before any index or
// buffer is allocated.
func validateGeometry(op string, inputSpatial, filterSpatial []int, channels int) error {
	rank := len(inputSpatial)
	if rank < 1 || rank > 2 {
		return shapeErrorf(op, "rank", "spatial rank must be 1 or 2, got %d", rank)
	}
	if len(filterSpatial) != rank {
		return shapeErrorf(op, "rank", "input spatial rank %d != filter spatial rank %d", rank, len(filterSpatial))
	}
	if channels < 1 {
		return shapeErrorf(op, "channel", "channel count must be positive, got %d", channels)
	}

	axes := [2]string{"height", "width"}
	for i := 0; i < rank; i++ {
		n, k := inputSpatial[i], filterSpatial[i]
		if n < 1 {
			return shapeErrorf(op, axes[i], "input size must be positive, got %d", n)
		}
		if k < 1 {
			return shapeErrorf(op, axes[i], "filter size must be positive, got %d", k)
		}
		if k > n {
			return shapeErrorf(op, axes[i], "filter size %d exceeds input size %d", k, n)
		}
	}
	return nil
}

func windowIndices1D(n, k, d int) (*IndexSet, error) {
	positions := n - k + 1
	window := k * d

	hIdx := make([]int32, positions*window)
	chIdx := make([]int32, positions*window)

	i := 0
	for p := 0; p < positions; p++ {
		for off := 0; off < k; off++ {
			for ch := 0; ch < d; ch++ {
				hIdx[i] = int32(p + off)
				chIdx[i] = int32(ch)
				i++
			}
		}
	}

	shape := tensor.Shape{positions, window}
	h, err := tensor.FromSlice(hIdx, shape)
	if err != nil {
		return nil, err
	}
	ch, err := tensor.FromSlice(chIdx, shape)
	if err != nil {
		return nil, err
	}

	return &IndexSet{
		H:             h,
		Ch:            ch,
		Positions:     positions,
		WindowSize:    window,
		InputSpatial:  tensor.Shape{n},
		FilterSpatial: tensor.Shape{k},
		Channels:      d,
		OutSpatial:    tensor.Shape{positions},
	}, nil
}

func windowIndices2D(nh, nw, kh, kw, d int) (*IndexSet, error) {
	outH := nh - kh + 1
	outW := nw - kw + 1
	positions := outH * outW
	window := kh * kw * d

	hIdx := make([]int32, positions*window)
	wIdx := make([]int32, positions*window)
	chIdx := make([]int32, positions*window)

	i := 0
	for ah := 0; ah < outH; ah++ {
		for aw := 0; aw < outW; aw++ {
			for offH := 0; offH < kh; offH++ {
				for offW := 0; offW < kw; offW++ {
					for ch := 0; ch < d; ch++ {
						hIdx[i] = int32(ah + offH)
						wIdx[i] = int32(aw + offW)
						chIdx[i] = int32(ch)
						i++
					}
				}
			}
		}
	}

	shape := tensor.Shape{positions, window}
	h, err := tensor.FromSlice(hIdx, shape)
	if err != nil {
		return nil, err
	}
	w, err := tensor.FromSlice(wIdx, shape)
	if err != nil {
		return nil, err
	}
	ch, err := tensor.FromSlice(chIdx, shape)
	if err != nil {
		return nil, err
	}

	return &IndexSet{
		H:             h,
		W:             w,
		Ch:            ch,
		Positions:     positions,
		WindowSize:    window,
		InputSpatial:  tensor.Shape{nh, nw},
		FilterSpatial: tensor.Shape{kh, kw},
		Channels:      d,
		OutSpatial:    tensor.Shape{outH, outW},
	}, nil
}
