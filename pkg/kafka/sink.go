package kafka

import (
	"context"
	"fmt"
	"log"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/module"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

const defaultBatchSize = 100

// Publisher is implemented by Producer.
type Publisher interface {
	Prepare(topic string) error
	PublishBatch(topic string, frames []*frame.Frame) error
}

// FrameWriter is a tray stage publishing the frames on its Streams to Topic.
// Frames are buffered and sent in batches; Finish sends the remainder.
type FrameWriter struct {
	module.Base

	pub       Publisher
	topic     string
	streams   []string
	batchSize int

	stops     module.StopSet
	pending   []*frame.Frame
	published int
	logger    *log.Logger
}

func NewFrameWriter(pub Publisher) *FrameWriter {
	w := &FrameWriter{Base: module.NewBase("KafkaWriter"), pub: pub, logger: log.Default()}
	p := w.Parameters()
	p.String(&w.topic, "Topic", "Destination topic", "", param.Required())
	module.DeclareStreams(p, &w.streams)
	p.Int(&w.batchSize, "BatchSize", "Frames per produced batch", defaultBatchSize)
	return w
}

func (w *FrameWriter) SetLogger(l *log.Logger) { w.logger = l }

func (w *FrameWriter) Configure() error {
	if w.topic == "" {
		return param.Errorf(w.Name(), "Topic", "must not be empty")
	}
	if w.batchSize < 1 {
		return param.Errorf(w.Name(), "BatchSize", "must be >= 1, got %d", w.batchSize)
	}
	stops, err := module.ConfigureStreams(w.Name(), w.streams)
	if err != nil {
		return err
	}
	w.stops = stops
	w.pending = make([]*frame.Frame, 0, w.batchSize)
	return w.pub.Prepare(w.topic)
}

func (w *FrameWriter) Process(_ context.Context, f *frame.Frame) (module.Result, error) {
	w.Begin()
	if !w.stops.Contains(f.Stop()) {
		return module.Emit(f), nil
	}
	// Later stages may still mutate f.
	w.pending = append(w.pending, f.Clone())
	if len(w.pending) >= w.batchSize {
		if err := w.flush(); err != nil {
			return module.Result{}, err
		}
	}
	return module.Emit(f), nil
}

func (w *FrameWriter) flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := w.pub.PublishBatch(w.topic, w.pending); err != nil {
		return fmt.Errorf("publish to %s: %w", w.topic, err)
	}
	w.published += len(w.pending)
	w.pending = w.pending[:0]
	return nil
}

// Published returns the number of frames handed to the producer.
func (w *FrameWriter) Published() int { return w.published }

func (w *FrameWriter) Finish(context.Context) error {
	if err := w.flush(); err != nil {
		return err
	}
	w.logger.Printf("[Kafka] Published %d frame(s) to %s", w.published, w.topic)
	return nil
}
