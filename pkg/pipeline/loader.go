package pipeline

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads and validates a pipeline definition.
func LoadFromFile(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, err
	}
	return Parse(data)
}

// Parse decodes and validates a pipeline definition.
func Parse(data []byte) (Pipeline, error) {
	var p Pipeline

	if len(data) == 0 {
		return p, fmt.Errorf("empty pipeline file")
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, err
	}

	if err := p.Validate(); err != nil {
		return p, err
	}

	log.Printf("[Pipeline] Loaded %s with %d module(s)", p.Name, len(p.Modules))
	return p, nil
}

// Validate checks the structure only; parameter values are checked when the
// tray configures its stages.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(p.Modules) == 0 {
		return fmt.Errorf("pipeline %s: at least one module is required", p.Name)
	}

	seen := make(map[string]int, len(p.Modules))
	for i, m := range p.Modules {
		if m.Type == "" {
			return fmt.Errorf("pipeline %s: module %d: type is required", p.Name, i)
		}
		if m.Name == "" {
			continue
		}
		if j, dup := seen[m.Name]; dup {
			return fmt.Errorf("pipeline %s: modules %d and %d are both named %q", p.Name, j, i, m.Name)
		}
		seen[m.Name] = i
	}
	return nil
}
