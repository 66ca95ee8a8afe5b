package tensor

import (
	"fmt"
	"math"
	"strings"

	"github.com/chewxy/math32"
)

// Element is the constraint for tensor element types.
// Supported types: int, int32, int64, float32, float64.
type Element interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Dense is a dense, row-major, multi-dimensional array of numeric elements.
//
// Operations treat tensors as immutable and allocate fresh results; the data
// slice is exposed for construction and read access, not for aliasing tricks.
type Dense[T Element] struct {
	shape  Shape
	stride []int
	data   []T
}

// New creates a zero-filled tensor with the given shape.
func New[T Element](shape Shape) (*Dense[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Dense[T]{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   make([]T, shape.NumElements()),
	}, nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Element](data []T, shape Shape) (*Dense[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	d := &Dense[T]{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   make([]T, len(data)),
	}
	copy(d.data, data)
	return d, nil
}

// Shape returns the tensor's shape.
func (d *Dense[T]) Shape() Shape {
	return d.shape
}

// Strides returns the tensor's row-major memory strides.
func (d *Dense[T]) Strides() []int {
	return d.stride
}

// NumElements returns the total number of elements.
func (d *Dense[T]) NumElements() int {
	return d.shape.NumElements()
}

// Data returns the backing slice in row-major order.
func (d *Dense[T]) Data() []T {
	return d.data
}

// At returns the element at the given multi-dimensional coordinates.
// Panics on rank mismatch or out-of-range coordinates; element access is a
// programmer-error boundary, not a recoverable one.
func (d *Dense[T]) At(coords ...int) T {
	return d.data[d.flatIndex(coords)]
}

// Set stores v at the given multi-dimensional coordinates.
func (d *Dense[T]) Set(v T, coords ...int) {
	d.data[d.flatIndex(coords)] = v
}

func (d *Dense[T]) flatIndex(coords []int) int {
	if len(coords) != len(d.shape) {
		panic(fmt.Sprintf("tensor: got %d coordinates for rank-%d tensor", len(coords), len(d.shape)))
	}
	idx := 0
	for i, c := range coords {
		if c < 0 || c >= d.shape[i] {
			panic(fmt.Sprintf("tensor: coordinate %d out of range [0, %d) on axis %d", c, d.shape[i], i))
		}
		idx += c * d.stride[i]
	}
	return idx
}

// Clone returns a deep copy of the tensor.
func (d *Dense[T]) Clone() *Dense[T] {
	data := make([]T, len(d.data))
	copy(data, d.data)
	return &Dense[T]{
		shape:  d.shape.Clone(),
		stride: append([]int(nil), d.stride...),
		data:   data,
	}
}

// Reshape returns a tensor with the same elements and a new shape.
// The element count must be preserved. The result shares the backing slice;
// row-major element order is unchanged.
func (d *Dense[T]) Reshape(shape Shape) (*Dense[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != d.NumElements() {
		return nil, fmt.Errorf("cannot reshape %v (%d elements) to %v (%d elements)",
			d.shape, d.NumElements(), shape, shape.NumElements())
	}
	return &Dense[T]{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   d.data,
	}, nil
}

// Equal reports whether two tensors have the same shape and identical elements.
func (d *Dense[T]) Equal(other *Dense[T]) bool {
	if !d.shape.Equal(other.shape) {
		return false
	}
	for i := range d.data {
		if d.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// AllClose reports whether two tensors have the same shape and all elements
// within tol of each other. For integer element types this is exact equality
// when tol < 1.
func (d *Dense[T]) AllClose(other *Dense[T], tol float64) bool {
	if !d.shape.Equal(other.shape) {
		return false
	}
	switch a := any(d.data).(type) {
	case []float32:
		b := any(other.data).([]float32)
		for i := range a {
			if math32.Abs(a[i]-b[i]) > float32(tol) {
				return false
			}
		}
	case []float64:
		b := any(other.data).([]float64)
		for i := range a {
			if math.Abs(a[i]-b[i]) > tol {
				return false
			}
		}
	default:
		for i := range d.data {
			diff := float64(d.data[i]) - float64(other.data[i])
			if math.Abs(diff) > tol {
				return false
			}
		}
	}
	return true
}

// String renders the tensor for display. Rank-2 tensors print as a grid;
// rank-3 tensors (h, w, d) print one grid per channel.
func (d *Dense[T]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dense%s\n", d.shape)

	switch len(d.shape) {
	case 0, 1:
		writeRow(&sb, d.data)
	case 2:
		rows, cols := d.shape[0], d.shape[1]
		for r := 0; r < rows; r++ {
			writeRow(&sb, d.data[r*cols:(r+1)*cols])
		}
	case 3:
		h, w, chs := d.shape[0], d.shape[1], d.shape[2]
		for ch := 0; ch < chs; ch++ {
			fmt.Fprintf(&sb, "channel %d:\n", ch)
			for r := 0; r < h; r++ {
				row := make([]T, w)
				for c := 0; c < w; c++ {
					row[c] = d.data[(r*w+c)*chs+ch]
				}
				writeRow(&sb, row)
			}
		}
	default:
		writeRow(&sb, d.data)
	}
	return sb.String()
}

func writeRow[T Element](sb *strings.Builder, row []T) {
	for i, v := range row {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(sb, "%v", v)
	}
	sb.WriteByte('\n')
}
