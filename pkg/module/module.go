// Package module defines the stage contract of a tray and the example stages
// built on it: a random-vector generator, an averaging module and an averaging
// function.
package module

import (
	"context"
	"fmt"
	"log"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

// State is a stage's position in its lifecycle:
// Constructed -> Configured -> Processing -> Suspended | Exhausted.
type State uint8

const (
	Constructed State = iota
	Configured
	Processing
	Suspended
	Exhausted
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "Constructed"
	case Configured:
		return "Configured"
	case Processing:
		return "Processing"
	case Suspended:
		return "Suspended"
	case Exhausted:
		return "Exhausted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Configurable is implemented by every stage. Implementations embed Base,
// which supplies Name, Parameters and the lifecycle bookkeeping.
type Configurable interface {
	Name() string
	Parameters() *param.Set
	// Configure validates the resolved parameters and prepares private state.
	Configure() error
	State() State

	setState(State)
}

// Source produces frames without upstream input.
type Source interface {
	Configurable
	Next(ctx context.Context) (Result, error)
}

// Module consumes a frame and decides whether it continues down the tray.
type Module interface {
	Configurable
	Process(ctx context.Context, f *frame.Frame) (Result, error)
}

// Finisher is implemented by stages holding resources that must be released
// once the tray stops, such as open output files.
type Finisher interface {
	Finish(ctx context.Context) error
}

// RunAware stages receive the run identifier before the first frame.
type RunAware interface {
	SetRun(runID string)
}

// LogAware stages log through the runner's logger instead of the default one.
type LogAware interface {
	SetLogger(l *log.Logger)
}

// Base carries the parameter set and lifecycle state of a stage.
type Base struct {
	params *param.Set
	state  State
}

// NewBase creates the embedded part of a stage named name.
func NewBase(name string) Base {
	return Base{params: param.NewSet(name)}
}

func (b *Base) Name() string { return b.params.Owner() }

func (b *Base) Parameters() *param.Set { return b.params }

func (b *Base) State() State { return b.state }

func (b *Base) setState(s State) { b.state = s }

// Begin must be called at the top of Next and Process. Processing a frame on
// an unconfigured stage is a programming error and panics.
func (b *Base) Begin() {
	switch b.state {
	case Constructed:
		panic(fmt.Sprintf("module %q: frame processed before configuration", b.Name()))
	case Configured:
		b.state = Processing
	}
}

// Exhaust records that the stage has nothing more to produce.
func (b *Base) Exhaust() { b.state = Exhausted }

// Setup resolves the stage's parameters against overrides, runs Configure and
// moves the stage to Configured.
func Setup(c Configurable, overrides param.Overrides) error {
	if c.State() != Constructed {
		return param.Errorf(c.Name(), "", "already configured")
	}
	if err := c.Parameters().Resolve(overrides); err != nil {
		return err
	}
	if err := c.Configure(); err != nil {
		return err
	}
	c.setState(Configured)
	return nil
}

// Suspend moves a stage that is still able to produce into Suspended. The
// runner calls it on every stage when a run stops.
func Suspend(c Configurable) {
	switch c.State() {
	case Configured, Processing:
		c.setState(Suspended)
	}
}
