// Copyright 2025 Unfold ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the dense tensors the unfold
// library operates on.
//
// Tensors are rectangular, row-major, channel-last arrays generic over
// numeric element types. Operations treat tensors as immutable and return
// fresh values.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2, 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	padded, err := tensor.SamePad(x, []int{3, 3})
package tensor

import (
	"github.com/unfold-ml/unfold/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{5, 5, 1} is a 5×5 feature map with one channel.
type Shape = tensor.Shape

// Element is the constraint for tensor element types.
// Supported types: int, int32, int64, float32, float64.
type Element = tensor.Element

// Dense is a dense, row-major, multi-dimensional array of numeric elements.
type Dense[T Element] = tensor.Dense[T]

// New creates a zero-filled tensor with the given shape.
func New[T Element](shape Shape) (*Dense[T], error) {
	return tensor.New[T](shape)
}

// FromSlice creates a tensor from a Go slice, copying the data.
// The slice length must equal the shape's element count.
func FromSlice[T Element](data []T, shape Shape) (*Dense[T], error) {
	return tensor.FromSlice(data, shape)
}

// Pad1D returns a copy of x, shape (n, d), with `before` and `after`
// zero-valued positions added along the spatial axis.
func Pad1D[T Element](x *Dense[T], before, after int) (*Dense[T], error) {
	return tensor.Pad1D(x, before, after)
}

// Pad2D returns a copy of x, shape (h, w, d), with zero-valued rows and
// columns added around the spatial extent.
func Pad2D[T Element](x *Dense[T], top, bottom, left, right int) (*Dense[T], error) {
	return tensor.Pad2D(x, top, bottom, left, right)
}

// SamePad zero-pads x so that a stride-1 valid convolution with the given
// filter spatial shape keeps the spatial size of x.
func SamePad[T Element](x *Dense[T], filterSpatial []int) (*Dense[T], error) {
	return tensor.SamePad(x, filterSpatial)
}
