package im2col

import (
	"github.com/unfold-ml/unfold/internal/tensor"
)

// Convolve computes a stride-1 valid convolution of a channel-last feature
// map by reformulating it as one matrix multiplication:
//
//  1. build the window index set for the input/filter geometry
//  2. gather the input into the (P, K) unfolded matrix
//  3. view the filter as a (K, o) matrix (a pure reshape: row-major
//     flattening of a (k_h[, k_w], d[, o]) filter already matches the
//     unfolded matrix's column order)
//  4. multiply, then reshape (P[, o]) to the spatial output
//
// Shapes: input (n_h[, n_w], d); filter (k_h[, k_w], d) for a single output
// filter or (k_h[, k_w], d, o) for a batch of o filters. The result has
// shape (n_h-k_h+1[, n_w-k_w+1]) plus a trailing o axis iff the filter has
// one.
//
// No padding is applied; callers wanting zero padding pad the input first
// (see tensor.Pad1D, tensor.Pad2D, tensor.SamePad). All shape violations
// surface as a ShapeError wrapping ErrInvalidShape before any arithmetic
// runs.
func Convolve[T tensor.Element](input, filter *tensor.Dense[T]) (*tensor.Dense[T], error) {
	const op = "convolve"

	inShape := input.Shape()
	fShape := filter.Shape()

	rank := len(inShape) - 1 // trailing channel axis
	if rank < 1 || rank > 2 {
		return nil, shapeErrorf(op, "rank", "input must have spatial rank 1 or 2 plus a channel axis, got shape %v", inShape)
	}

	batched := false
	switch len(fShape) {
	case rank + 1:
		// (k_h[, k_w], d)
	case rank + 2:
		// (k_h[, k_w], d, o)
		batched = true
	default:
		return nil, shapeErrorf(op, "rank", "filter shape %v does not match input shape %v", fShape, inShape)
	}

	d := inShape[rank]
	if fShape[rank] != d {
		return nil, shapeErrorf(op, "channel", "input has %d channels, filter has %d", d, fShape[rank])
	}

	filters := 1
	if batched {
		filters = fShape[rank+1]
		if filters < 1 {
			return nil, shapeErrorf(op, "filter", "output filter count must be positive, got %d", filters)
		}
	}

	idx, err := WindowIndices(inShape[:rank], fShape[:rank], d)
	if err != nil {
		return nil, err
	}

	xhat, err := Unfold(input, idx)
	if err != nil {
		return nil, err
	}

	out := matmul(xhat.Data(), idx.Positions, idx.WindowSize, filter.Data(), filters)

	outShape := idx.OutSpatial.Clone()
	if batched {
		outShape = append(outShape, filters)
	}
	return tensor.FromSlice(out, outShape)
}
