package pipeline

// Pipeline is the YAML description of a tray:
//
//	name: example
//	modules:
//	  - type: InfiniteSource
//	    name: streams
//	    params: {Stream: DAQ}
//	  - type: ExampleGenerator
//	    params: {Size: 1000, Sigma: 10.0, NEvents: 3}
type Pipeline struct {
	Name    string       `yaml:"name"`
	Modules []ModuleSpec `yaml:"modules"`
}

// ModuleSpec is one stage. Name defaults to the stage's own name; Params are
// passed to the stage as parameter overrides.
type ModuleSpec struct {
	Type   string         `yaml:"type"`
	Name   string         `yaml:"name,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`
}
