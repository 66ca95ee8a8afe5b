// Copyright 2025 Unfold ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package unfold reformulates stride-1 valid convolution as a single matrix
// multiplication.
//
// The pipeline has two public stages. WindowIndices builds, in closed form,
// the im2col gather indices for a given input/filter geometry; Unfold uses
// them to materialize the (P, K) sliding-window matrix. Convolve runs the
// whole pipeline: indices, gather, filter flattening, one matrix product,
// and the reshape back to the spatial output.
//
// Example:
//
//	x, _ := tensor.FromSlice(xData, tensor.Shape{5, 5, 1})
//	w, _ := tensor.FromSlice(wData, tensor.Shape{3, 3, 1})
//	out, err := unfold.Convolve(x, w) // shape (3, 3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Convolve applies no padding; pad inputs first with the tensor package's
// helpers. Filters with a trailing axis of size o produce o stacked outputs
// from the same matrix product.
package unfold

import (
	"github.com/unfold-ml/unfold/internal/im2col"
	"github.com/unfold-ml/unfold/internal/tensor"
)

// ErrInvalidShape reports incompatible input/filter geometry. Every shape
// violation is detected before any gather or multiply runs, and every error
// returned by this package matches it under errors.Is.
var ErrInvalidShape = im2col.ErrInvalidShape

// ShapeError carries the axis and details of a shape validation failure.
type ShapeError = im2col.ShapeError

// IndexSet holds the gather indices that turn a feature map into its
// unfolded sliding-window matrix.
type IndexSet = im2col.IndexSet

// WindowIndices builds the im2col gather indices for a stride-1 valid
// convolution: one (P, K) index array per gathered input axis (height,
// width for rank-2 inputs, channel), where P is the number of valid window
// anchors and K the flattened window size.
func WindowIndices(inputSpatial, filterSpatial []int, channels int) (*IndexSet, error) {
	return im2col.WindowIndices(inputSpatial, filterSpatial, channels)
}

// Unfold gathers x through the index set, materializing the (P, K) window
// matrix whose rows are the flattened sliding windows.
func Unfold[T tensor.Element](x *tensor.Dense[T], idx *IndexSet) (*tensor.Dense[T], error) {
	return im2col.Unfold(x, idx)
}

// Convolve computes the stride-1 valid convolution of a channel-last input
// (n_h[, n_w], d) with a filter (k_h[, k_w], d[, o]) via unfold and one
// matrix product. The output has shape (n_h-k_h+1[, n_w-k_w+1][, o]).
func Convolve[T tensor.Element](input, filter *tensor.Dense[T]) (*tensor.Dense[T], error) {
	return im2col.Convolve(input, filter)
}

// Direct1D evaluates the classical flipped-kernel double-sum definition of
// 1D discrete convolution on a pre-padded signal. It is the readable
// correctness oracle for the matmul reformulation, not a fast path.
func Direct1D[T tensor.Element](f, g []T) ([]T, error) {
	return im2col.Direct1D(f, g)
}
