package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"slices"
	"testing"

	"github.com/siqueiraa/FrameFlow/pkg/module"
	"github.com/siqueiraa/FrameFlow/pkg/param"
	"github.com/siqueiraa/FrameFlow/pkg/tray"
	"github.com/siqueiraa/FrameFlow/pkg/writer"
)

func TestBuiltins(t *testing.T) {
	reg := Builtins(BuiltinOptions{})
	want := []string{"AveragingFunction", "AveragingModule", "ExampleGenerator", "InfiniteSource", "Reader", "Writer"}
	if got := reg.Types(); !slices.Equal(got, want) {
		t.Errorf("Expected types %v, got %v", want, got)
	}

	a, err := reg.New("ExampleGenerator")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, _ := reg.New("ExampleGenerator")
	if a == b {
		t.Errorf("Expected a fresh stage per call")
	}

	if _, err := reg.New("Nope"); err == nil {
		t.Errorf("Expected error for unknown type")
	}
}

func TestBuildAndExecute(t *testing.T) {
	outfile := filepath.Join(t.TempDir(), "out.i3.gz")
	def, err := Parse([]byte(examplePipeline + fmt.Sprintf(`
  - type: Writer
    params:
      Filename: %s
`, outfile)))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tr, err := Build(def, Builtins(BuiltinOptions{
		Generator: []module.GeneratorOption{module.WithSeed(11)},
	}), tray.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if tr.Len() != 5 {
		t.Errorf("Expected 5 stages, got %d", tr.Len())
	}

	sum, err := tr.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if sum.Completed != 3 {
		t.Errorf("Expected 3 completed frames, got %d", sum.Completed)
	}

	frames, err := writer.ReadAll(outfile)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("Expected 3 frames in %s, got %d", outfile, len(frames))
	}
	for _, f := range frames {
		m, err1 := f.Double("AverageFromModule")
		fn, err2 := f.Double("AverageFromFunction")
		if err1 != nil || err2 != nil || m != fn {
			t.Errorf("Frame %d: module=%v (%v) function=%v (%v)", f.Index(), m, err1, fn, err2)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	reg := Builtins(BuiltinOptions{})

	_, err := Build(Pipeline{Name: "x", Modules: []ModuleSpec{{Type: "Nope"}}}, reg)
	if err == nil {
		t.Errorf("Expected unknown type error")
	}

	_, err = Build(Pipeline{Name: "x", Modules: []ModuleSpec{{Type: "AveragingModule"}}}, reg)
	if err == nil {
		t.Errorf("Expected error when the first stage is not a source")
	}

	tr, err := Build(Pipeline{Name: "x", Modules: []ModuleSpec{
		{Type: "ExampleGenerator", Params: map[string]any{"Bogus": 1}},
	}}, reg, tray.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := tr.Execute(context.Background()); !errors.Is(err, param.ErrConfiguration) {
		t.Errorf("Expected configuration error from Execute, got %v", err)
	}
}
