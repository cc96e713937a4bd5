package module

import (
	"context"
	"log"
	"math"
	"math/rand/v2"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

const (
	defaultSize    = 10             // Values per generated vector
	defaultMean    = 0.0            // Mean of the gaussian
	defaultSigma   = 1.0            // Standard deviation of the gaussian
	defaultOutname = "RandomVector" // Output field
	defaultEvents  = 100            // Frames produced before termination
	pcgStream      = 0x9e3779b97f4a7c15
)

// GeneratorConfig holds the resolved parameters of a Generator.
type GeneratorConfig struct {
	Size    int
	Mean    float64
	Sigma   float64
	Outname string
	NEvents int
}

// Generator fills each frame with a vector of normally distributed numbers
// and requests termination after NEvents frames.
type Generator struct {
	Base
	cfg     GeneratorConfig
	rng     *rand.Rand
	seed    uint64
	seeded  bool
	counter int
	logger  *log.Logger
}

// GeneratorOption customizes a Generator at construction.
type GeneratorOption func(*Generator)

// WithSeed makes the sample sequence reproducible.
func WithSeed(seed uint64) GeneratorOption {
	return func(g *Generator) {
		g.seed = seed
		g.seeded = true
	}
}

// NewGenerator declares the generator parameters with their defaults.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{Base: NewBase("ExampleGenerator"), logger: log.Default()}
	p := g.Parameters()
	p.Int(&g.cfg.Size, "Size", "Size of desired vector", defaultSize)
	p.Float(&g.cfg.Mean, "Mean", "mean of gaussian", defaultMean)
	p.Float(&g.cfg.Sigma, "Sigma", "sigma of gaussian", defaultSigma)
	p.String(&g.cfg.Outname, "Outname", "Name of output field", defaultOutname)
	p.Int(&g.cfg.NEvents, "NEvents", "Number of event frames to produce", defaultEvents)

	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Configure() error {
	switch {
	case g.cfg.Size < 0:
		return param.Errorf(g.Name(), "Size", "must be >= 0, got %d", g.cfg.Size)
	case !finite(g.cfg.Mean):
		return param.Errorf(g.Name(), "Mean", "must be finite, got %v", g.cfg.Mean)
	case !finite(g.cfg.Sigma) || g.cfg.Sigma < 0:
		return param.Errorf(g.Name(), "Sigma", "must be finite and >= 0, got %v", g.cfg.Sigma)
	case g.cfg.Outname == "":
		return param.Errorf(g.Name(), "Outname", "must not be empty")
	case g.cfg.NEvents < 0:
		return param.Errorf(g.Name(), "NEvents", "must be >= 0, got %d", g.cfg.NEvents)
	}

	seed := g.seed
	if !g.seeded {
		seed = rand.Uint64()
	}
	g.rng = rand.New(rand.NewPCG(seed, seed^pcgStream))
	g.counter = 0
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// SetLogger routes the generator's log lines to l.
func (g *Generator) SetLogger(l *log.Logger) { g.logger = l }

// Config returns the resolved configuration.
func (g *Generator) Config() GeneratorConfig { return g.cfg }

// Emitted returns the number of frames produced so far.
func (g *Generator) Emitted() int { return g.counter }

// Next builds a new DAQ frame; used when the generator heads the tray.
func (g *Generator) Next(_ context.Context) (Result, error) {
	g.Begin()
	if g.counter >= g.cfg.NEvents {
		return g.exhausted(), nil
	}
	return g.fill(frame.New(frame.DAQ, uint64(g.counter))), nil
}

// Process augments an incoming DAQ frame; used behind an InfiniteSource.
// Frames on other stops pass through and do not count towards NEvents.
func (g *Generator) Process(_ context.Context, f *frame.Frame) (Result, error) {
	g.Begin()
	if f.Stop() != frame.DAQ {
		return Emit(f), nil
	}
	if g.counter >= g.cfg.NEvents {
		return g.exhausted(), nil
	}
	return g.fill(f), nil
}

func (g *Generator) fill(f *frame.Frame) Result {
	f.Put(g.cfg.Outname, frame.VectorDouble(g.sample()))
	g.counter++
	if g.counter >= g.cfg.NEvents {
		g.Exhaust()
		g.logger.Printf("[Generator] Produced %d frame(s), requesting suspension", g.counter)
		return EmitAndTerminate(f)
	}
	return Emit(f)
}

func (g *Generator) exhausted() Result {
	g.Exhaust()
	return Terminate()
}

// sample draws Size fresh values; nothing is reused between calls.
func (g *Generator) sample() []float64 {
	out := make([]float64, g.cfg.Size)
	for i := range out {
		out[i] = g.rng.NormFloat64()*g.cfg.Sigma + g.cfg.Mean
	}
	return out
}
