package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/unfold-ml/unfold/tensor"
	"github.com/unfold-ml/unfold/unfold"
)

// Scenario is the YAML description of one convolution: an input feature map,
// a filter, and the padding to apply before the valid convolution runs.
type Scenario struct {
	Input  TensorSpec `yaml:"input"`
	Filter TensorSpec `yaml:"filter"`
	Pad    string     `yaml:"pad"` // "none" (default) or "same"
}

// TensorSpec declares a tensor literal: a shape and row-major data.
type TensorSpec struct {
	Shape []int     `yaml:"shape"`
	Data  []float64 `yaml:"data"`
}

type resultJSON struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func runCmd() *cli.Command {
	var (
		file    string
		asJSON  bool
		verbose bool
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Convolve the input and filter described in a YAML scenario file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "scenario file",
				Required:    true,
				Destination: &file,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "emit the result as JSON",
				Destination: &asJSON,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Aliases:     []string{"v"},
				Usage:       "also print the unfolded window matrix",
				Destination: &verbose,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read scenario: %w", err)
			}
			var sc Scenario
			if err := yaml.Unmarshal(raw, &sc); err != nil {
				return fmt.Errorf("parse scenario: %w", err)
			}
			return runScenario(sc, asJSON, verbose, os.Stdout)
		},
	}
}

func runScenario(sc Scenario, asJSON, verbose bool, w io.Writer) error {
	input, err := tensor.FromSlice(sc.Input.Data, tensor.Shape(sc.Input.Shape))
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	filter, err := tensor.FromSlice(sc.Filter.Data, tensor.Shape(sc.Filter.Shape))
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	switch sc.Pad {
	case "", "none":
	case "same":
		spatial := filter.Shape()[:len(input.Shape())-1]
		input, err = tensor.SamePad(input, spatial)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown pad mode %q (want none or same)", sc.Pad)
	}

	if verbose {
		rank := len(input.Shape()) - 1
		idx, err := unfold.WindowIndices(input.Shape()[:rank], filter.Shape()[:rank], input.Shape()[rank])
		if err != nil {
			return err
		}
		xhat, err := unfold.Unfold(input, idx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "unfolded matrix (%d windows of %d elements):\n%s", idx.Positions, idx.WindowSize, xhat)
	}

	out, err := unfold.Convolve(input, filter)
	if err != nil {
		return err
	}

	if asJSON {
		enc, err := json.MarshalIndent(resultJSON{Shape: out.Shape(), Data: out.Data()}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(enc))
		return nil
	}
	fmt.Fprint(w, out)
	return nil
}
