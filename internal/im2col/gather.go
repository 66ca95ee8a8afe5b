package im2col

import (
	"github.com/unfold-ml/unfold/internal/tensor"
)

// Unfold gathers x through the index set, materializing the (P, K) window
// matrix. Row p holds the flattened contents of the window anchored at
// output position p; overlapping windows duplicate the shared elements.
//
// x must be the channel-last feature map the indices were built for:
// shape (n_h, d) for rank-1 indices, (n_h, n_w, d) for rank-2.
func Unfold[T tensor.Element](x *tensor.Dense[T], idx *IndexSet) (*tensor.Dense[T], error) {
	const op = "unfold"

	shape := x.Shape()
	rank := len(idx.InputSpatial)
	if len(shape) != rank+1 {
		return nil, shapeErrorf(op, "rank", "input rank %d does not match index set built for spatial rank %d", len(shape), rank)
	}
	for i := 0; i < rank; i++ {
		if shape[i] != idx.InputSpatial[i] {
			return nil, shapeErrorf(op, spatialAxisName(i), "input size %d does not match index set built for %d", shape[i], idx.InputSpatial[i])
		}
	}
	if shape[rank] != idx.Channels {
		return nil, shapeErrorf(op, "channel", "input has %d channels, index set built for %d", shape[rank], idx.Channels)
	}

	out, err := tensor.New[T](tensor.Shape{idx.Positions, idx.WindowSize})
	if err != nil {
		return nil, err
	}

	src := x.Data()
	dst := out.Data()
	hIdx := idx.H.Data()
	chIdx := idx.Ch.Data()
	d := idx.Channels

	if rank == 1 {
		for i := range dst {
			dst[i] = src[int(hIdx[i])*d+int(chIdx[i])]
		}
		return out, nil
	}

	wIdx := idx.W.Data()
	nw := idx.InputSpatial[1]
	for i := range dst {
		dst[i] = src[(int(hIdx[i])*nw+int(wIdx[i]))*d+int(chIdx[i])]
	}
	return out, nil
}

func spatialAxisName(i int) string {
	if i == 0 {
		return "height"
	}
	return "width"
}
