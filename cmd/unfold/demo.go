package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/unfold-ml/unfold/tensor"
	"github.com/unfold-ml/unfold/unfold"
)

func demoCmd() *cli.Command {
	var stage int

	return &cli.Command{
		Name:  "demo",
		Usage: "Walk through convolution as matmul, from 1D to multi-filter 2D",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "stage",
				Usage:       "run a single stage (1-5), 0 for all",
				Value:       0,
				Destination: &stage,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stages := []func() error{
				demoDirect1D,
				demoMatmul1D,
				demoMultiChannel1D,
				demo2D,
				demoMultiFilter2D,
			}
			if stage != 0 {
				if stage < 1 || stage > len(stages) {
					return fmt.Errorf("stage must be 1-%d, got %d", len(stages), stage)
				}
				return stages[stage-1]()
			}
			for _, run := range stages {
				if err := run(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// demoDirect1D evaluates the double-sum definition directly.
func demoDirect1D() error {
	fmt.Println("== stage 1: 1D convolution, double-sum definition ==")
	f := []int{0, 1, 2, -1, 1, -3, 0} // f = [1 2 -1 1 -3], zero-padded
	g := []int{-1, 0, 1}

	out, err := unfold.Direct1D(f, g)
	if err != nil {
		return err
	}
	fmt.Printf("f (padded) = %v\ng          = %v\nout[n] = sum_m f[n-m]*g[m] = %v\n\n", f, g, out)
	return nil
}

// demoMatmul1D redoes stage 1 as gather + one matrix product. The matmul
// form does not flip the kernel, so it sees g reversed.
func demoMatmul1D() error {
	fmt.Println("== stage 2: the same convolution as index, gather, matmul ==")
	f := []int{0, 1, 2, -1, 1, -3, 0}
	gRev := []int{1, 0, -1}

	idx, err := unfold.WindowIndices([]int{len(f)}, []int{len(gRev)}, 1)
	if err != nil {
		return err
	}
	fmt.Printf("window anchor indices (P=%d rows, K=%d columns):\n%s",
		idx.Positions, idx.WindowSize, idx.H)

	x, err := tensor.FromSlice(f, tensor.Shape{len(f), 1})
	if err != nil {
		return err
	}
	xhat, err := unfold.Unfold(x, idx)
	if err != nil {
		return err
	}
	fmt.Printf("unfolded matrix Xhat:\n%s", xhat)

	w, err := tensor.FromSlice(gRev, tensor.Shape{len(gRev), 1})
	if err != nil {
		return err
	}
	out, err := unfold.Convolve(x, w)
	if err != nil {
		return err
	}
	fmt.Printf("Xhat @ flattened filter =\n%s\n", out)
	return nil
}

func demoMultiChannel1D() error {
	fmt.Println("== stage 3: 1D with two channels ==")
	// Channel-last (n, d): each position carries two features, and the
	// filter sums its product over both.
	x, err := tensor.FromSlice([]int{
		1, 4,
		2, 3,
		-1, 0,
		1, 2,
		-3, 1,
	}, tensor.Shape{5, 2})
	if err != nil {
		return err
	}
	w, err := tensor.FromSlice([]int{
		1, -1,
		0, 2,
		-1, 1,
	}, tensor.Shape{3, 2})
	if err != nil {
		return err
	}

	out, err := unfold.Convolve(x, w)
	if err != nil {
		return err
	}
	fmt.Printf("input (5 positions, 2 channels):\n%sfilter (3, 2):\n%sout:\n%s\n", x, w, out)
	return nil
}

func demo2D() error {
	fmt.Println("== stage 4: 2D, one channel ==")
	x, err := tensor.FromSlice([]int{
		3, 0, 1, 2, 7,
		1, 5, 8, 9, 3,
		2, 7, 2, 5, 1,
		0, 1, 3, 1, 7,
		4, 2, 1, 6, 2,
	}, tensor.Shape{5, 5, 1})
	if err != nil {
		return err
	}
	w, err := tensor.FromSlice([]int{
		1, 0, -1,
		2, 0, -2,
		1, 0, -1,
	}, tensor.Shape{3, 3, 1})
	if err != nil {
		return err
	}

	idx, err := unfold.WindowIndices([]int{5, 5}, []int{3, 3}, 1)
	if err != nil {
		return err
	}
	fmt.Printf("anchor rows: %d, window size: %d\nrow indices:\n%scolumn indices:\n%s",
		idx.Positions, idx.WindowSize, idx.H, idx.W)

	out, err := unfold.Convolve(x, w)
	if err != nil {
		return err
	}
	fmt.Printf("input:\n%sfilter (vertical edge detector):\n%sout:\n%s\n", x, w, out)
	return nil
}

func demoMultiFilter2D() error {
	fmt.Println("== stage 5: 2D, two channels, two output filters ==")
	x, err := tensor.FromSlice([]int{
		1, 0, 2, 1, 3, -1,
		0, 2, 1, 1, -2, 0,
		4, 1, 0, 3, 2, 2,
	}, tensor.Shape{3, 3, 2})
	if err != nil {
		return err
	}
	// Filter (2, 2, 2, 2): two filters stacked on the trailing axis; both
	// outputs come out of the same matrix product.
	w, err := tensor.FromSlice([]int{
		1, 0, 0, 1,
		-1, 2, 1, 0,
		0, 1, 2, -1,
		1, 1, 0, 2,
	}, tensor.Shape{2, 2, 2, 2})
	if err != nil {
		return err
	}

	out, err := unfold.Convolve(x, w)
	if err != nil {
		return err
	}
	fmt.Printf("input:\n%sbatched filter shape: %v\nout (one channel per filter):\n%s\n",
		x, w.Shape(), out)
	return nil
}
