package module

import (
	"context"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
)

// FilterFunc inspects or mutates a frame; returning false drops it.
type FilterFunc func(f *frame.Frame) (bool, error)

// Func turns a FilterFunc into a stage. Frames whose stop is not listed in
// the Streams parameter bypass the function unchanged.
type Func struct {
	Base
	fn      FilterFunc
	streams []string
	stops   StopSet
}

// NewFunc wraps fn under the given stage name. Callers may declare additional
// parameters on Parameters() before the stage is set up.
func NewFunc(name string, fn FilterFunc) *Func {
	m := &Func{Base: NewBase(name), fn: fn}
	DeclareStreams(m.Parameters(), &m.streams)
	return m
}

func (m *Func) Configure() error {
	stops, err := ConfigureStreams(m.Name(), m.streams)
	if err != nil {
		return err
	}
	m.stops = stops
	return nil
}

func (m *Func) Process(_ context.Context, f *frame.Frame) (Result, error) {
	m.Begin()
	if !m.stops.Contains(f.Stop()) {
		return Emit(f), nil
	}
	keep, err := m.fn(f)
	if err != nil {
		return Result{}, err
	}
	if !keep {
		return Drop(), nil
	}
	return Emit(f), nil
}
