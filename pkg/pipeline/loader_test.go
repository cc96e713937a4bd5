package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test pipeline: %v", err)
	}
	return path
}

const examplePipeline = `
name: example
modules:
  - type: InfiniteSource
    name: streams
    params:
      Stream: DAQ
  - type: ExampleGenerator
    params:
      Size: 1000
      Mean: 0
      Sigma: 10.0
      NEvents: 3
  - type: AveragingModule
    name: averaging
    params: {Input: RandomVector, Output: AverageFromModule}
  - type: AveragingFunction
    params:
      Input: RandomVector
      Output: AverageFromFunction
      Streams: [DAQ]
`

func TestLoadFromFile(t *testing.T) {
	p, err := LoadFromFile(writePipeline(t, examplePipeline))
	if err != nil {
		t.Fatalf("Failed to load pipeline: %v", err)
	}

	if p.Name != "example" {
		t.Errorf("Expected name example, got %s", p.Name)
	}
	if len(p.Modules) != 4 {
		t.Fatalf("Expected 4 modules, got %d", len(p.Modules))
	}

	verifyModule(t, p.Modules[0], "InfiniteSource", "streams")
	verifyModule(t, p.Modules[1], "ExampleGenerator", "")
	verifyModule(t, p.Modules[2], "AveragingModule", "averaging")

	gen := p.Modules[1].Params
	if gen["Size"] != 1000 {
		t.Errorf("Expected Size 1000, got %v (%T)", gen["Size"], gen["Size"])
	}
	if gen["Sigma"] != 10.0 {
		t.Errorf("Expected Sigma 10.0, got %v (%T)", gen["Sigma"], gen["Sigma"])
	}

	streams, ok := p.Modules[3].Params["Streams"].([]any)
	if !ok || len(streams) != 1 || streams[0] != "DAQ" {
		t.Errorf("Expected Streams [DAQ], got %v", p.Modules[3].Params["Streams"])
	}
}

func verifyModule(t *testing.T, m ModuleSpec, typ, name string) {
	t.Helper()
	if m.Type != typ {
		t.Errorf("Expected type %s, got %s", typ, m.Type)
	}
	if m.Name != name {
		t.Errorf("Expected name %q, got %q", name, m.Name)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"invalid yaml", "name: [unterminated\n"},
		{"missing name", "modules:\n  - type: InfiniteSource\n"},
		{"no modules", "name: empty\n"},
		{"missing type", "name: x\nmodules:\n  - name: a\n"},
		{"duplicate names", "name: x\nmodules:\n  - type: InfiniteSource\n    name: a\n  - type: AveragingModule\n    name: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFile(writePipeline(t, tt.content)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Errorf("Expected error for missing file")
		}
	})
}
