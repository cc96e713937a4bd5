package module

import (
	"context"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/param"
	"github.com/siqueiraa/FrameFlow/pkg/stats"
)

// Averaging writes the mean of a vector field into a scalar field.
type Averaging struct {
	Base
	input  string
	output string
}

func NewAveraging() *Averaging {
	a := &Averaging{Base: NewBase("AveragingModule")}
	p := a.Parameters()
	p.String(&a.input, "Input", "input name", "", param.Required())
	p.String(&a.output, "Output", "output name", "", param.Required())
	return a
}

func (a *Averaging) Configure() error { return nil }

// Process averages DAQ frames; frames on other stops pass through unchanged.
func (a *Averaging) Process(_ context.Context, f *frame.Frame) (Result, error) {
	a.Begin()
	if f.Stop() != frame.DAQ {
		return Emit(f), nil
	}
	if err := average(f, a.input, a.output); err != nil {
		return Result{}, err
	}
	return Emit(f), nil
}

// AveragingFunction stores the mean of f[input] as f[output] and keeps the
// frame. An empty input vector yields stats.ErrEmptyInput.
func AveragingFunction(f *frame.Frame, input, output string) (bool, error) {
	if err := average(f, input, output); err != nil {
		return false, err
	}
	return true, nil
}

func average(f *frame.Frame, input, output string) error {
	vec, err := f.VectorDouble(input)
	if err != nil {
		return err
	}
	mean, err := stats.Mean(vec)
	if err != nil {
		return err
	}
	f.Put(output, frame.Double(mean))
	return nil
}

// NewAveragingFunction wraps AveragingFunction as a stage with Input, Output
// and Streams parameters.
func NewAveragingFunction() *Func {
	var input, output string
	fn := NewFunc("AveragingFunction", func(f *frame.Frame) (bool, error) {
		return AveragingFunction(f, input, output)
	})
	p := fn.Parameters()
	p.String(&input, "Input", "input name", "", param.Required())
	p.String(&output, "Output", "output name", "", param.Required())
	return fn
}
