package state

import (
	"context"
	"fmt"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/module"
)

const unnamedRun = "local"

// StoreWriter is a tray stage saving each frame on its Streams to a Store.
type StoreWriter struct {
	module.Base

	store   *Store
	streams []string
	stops   module.StopSet
	runID   string
	stored  int
}

func NewStoreWriter(store *Store) *StoreWriter {
	w := &StoreWriter{Base: module.NewBase("StoreWriter"), store: store, runID: unnamedRun}
	module.DeclareStreams(w.Parameters(), &w.streams)
	return w
}

func (w *StoreWriter) SetRun(runID string) {
	if runID != "" {
		w.runID = runID
	}
}

func (w *StoreWriter) Configure() error {
	stops, err := module.ConfigureStreams(w.Name(), w.streams)
	if err != nil {
		return err
	}
	w.stops = stops
	return nil
}

func (w *StoreWriter) Process(_ context.Context, f *frame.Frame) (module.Result, error) {
	w.Begin()
	if w.stops.Contains(f.Stop()) {
		if err := w.store.Put(w.runID, f); err != nil {
			return module.Result{}, fmt.Errorf("store frame %d: %w", f.Index(), err)
		}
		w.stored++
	}
	return module.Emit(f), nil
}

// Stored returns the number of frames saved by this stage.
func (w *StoreWriter) Stored() int { return w.stored }
