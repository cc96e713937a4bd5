package pipeline

import (
	"fmt"
	"slices"

	"github.com/siqueiraa/FrameFlow/pkg/module"
	"github.com/siqueiraa/FrameFlow/pkg/param"
	"github.com/siqueiraa/FrameFlow/pkg/tray"
	"github.com/siqueiraa/FrameFlow/pkg/writer"
)

// Factory creates a fresh, unconfigured stage.
type Factory func() module.Configurable

// Registry maps the type names used in definitions to factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for typ.
func (r *Registry) Register(typ string, f Factory) {
	r.factories[typ] = f
}

// Types lists the registered type names in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// New creates a stage of type typ.
func (r *Registry) New(typ string) (module.Configurable, error) {
	f, ok := r.factories[typ]
	if !ok {
		return nil, fmt.Errorf("unknown module type %q", typ)
	}
	return f(), nil
}

// BuiltinOptions tunes the stages created by Builtins.
type BuiltinOptions struct {
	Generator []module.GeneratorOption
	Writer    []writer.Option
}

// Builtins registers every stage that needs no external service.
func Builtins(opts BuiltinOptions) *Registry {
	r := NewRegistry()
	r.Register("InfiniteSource", func() module.Configurable { return module.NewInfiniteSource() })
	r.Register("ExampleGenerator", func() module.Configurable { return module.NewGenerator(opts.Generator...) })
	r.Register("AveragingModule", func() module.Configurable { return module.NewAveraging() })
	r.Register("AveragingFunction", func() module.Configurable { return module.NewAveragingFunction() })
	r.Register("Writer", func() module.Configurable { return writer.New(opts.Writer...) })
	r.Register("Reader", func() module.Configurable { return writer.NewReader() })
	return r
}

// Build assembles a tray from def. Stages are created but not configured;
// configuration happens in Execute.
func Build(def Pipeline, reg *Registry, opts ...tray.Option) (*tray.Tray, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	t := tray.New(opts...)
	for i, m := range def.Modules {
		stage, err := reg.New(m.Type)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: module %d: %w", def.Name, i, err)
		}
		if err := t.AddModule(m.Name, stage, param.Overrides(m.Params)); err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", def.Name, err)
		}
	}
	return t, nil
}
