package tensor

import "fmt"

// Pad1D returns a copy of x, shape (n, d), with `before` and `after`
// zero-valued positions added along the spatial axis.
func Pad1D[T Element](x *Dense[T], before, after int) (*Dense[T], error) {
	if len(x.shape) != 2 {
		return nil, fmt.Errorf("pad1d: input must be rank 2 (n, d), got shape %v", x.shape)
	}
	if before < 0 || after < 0 {
		return nil, fmt.Errorf("pad1d: negative padding (%d, %d)", before, after)
	}
	n, d := x.shape[0], x.shape[1]

	out, err := New[T](Shape{n + before + after, d})
	if err != nil {
		return nil, err
	}
	copy(out.data[before*d:], x.data)
	return out, nil
}

// Pad2D returns a copy of x, shape (h, w, d), with zero-valued rows and
// columns added around the spatial extent.
func Pad2D[T Element](x *Dense[T], top, bottom, left, right int) (*Dense[T], error) {
	if len(x.shape) != 3 {
		return nil, fmt.Errorf("pad2d: input must be rank 3 (h, w, d), got shape %v", x.shape)
	}
	if top < 0 || bottom < 0 || left < 0 || right < 0 {
		return nil, fmt.Errorf("pad2d: negative padding (%d, %d, %d, %d)", top, bottom, left, right)
	}
	h, w, d := x.shape[0], x.shape[1], x.shape[2]
	outW := w + left + right

	out, err := New[T](Shape{h + top + bottom, outW, d})
	if err != nil {
		return nil, err
	}
	for r := 0; r < h; r++ {
		src := x.data[r*w*d : (r+1)*w*d]
		dst := ((r+top)*outW + left) * d
		copy(out.data[dst:], src)
	}
	return out, nil
}

// SamePad zero-pads x so that a stride-1 valid convolution with the given
// filter spatial shape produces an output of the same spatial size as x.
// For even filter sizes the extra position goes after (bottom/right).
func SamePad[T Element](x *Dense[T], filterSpatial []int) (*Dense[T], error) {
	switch len(filterSpatial) {
	case 1:
		k := filterSpatial[0]
		before := (k - 1) / 2
		return Pad1D(x, before, k-1-before)
	case 2:
		kh, kw := filterSpatial[0], filterSpatial[1]
		top := (kh - 1) / 2
		left := (kw - 1) / 2
		return Pad2D(x, top, kh-1-top, left, kw-1-left)
	default:
		return nil, fmt.Errorf("samepad: filter spatial rank must be 1 or 2, got %d", len(filterSpatial))
	}
}
