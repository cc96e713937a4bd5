package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/module"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

// MockPublisher records batches instead of talking to Kafka.
type MockPublisher struct {
	Prepared   []string
	Batches    [][]*frame.Frame
	PrepareErr error
}

func (m *MockPublisher) Prepare(topic string) error {
	m.Prepared = append(m.Prepared, topic)
	return m.PrepareErr
}

func (m *MockPublisher) PublishBatch(_ string, frames []*frame.Frame) error {
	m.Batches = append(m.Batches, append([]*frame.Frame(nil), frames...))
	return nil
}

func TestFrameWriterBatches(t *testing.T) {
	pub := &MockPublisher{}
	w := NewFrameWriter(pub)
	if err := module.Setup(w, param.Overrides{"Topic": "frames", "BatchSize": 2}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if len(pub.Prepared) != 1 || pub.Prepared[0] != "frames" {
		t.Errorf("Expected topic to be prepared, got %v", pub.Prepared)
	}

	ctx := context.Background()
	for i := uint64(0); i < 5; i++ {
		f := testFrame(i)
		res, err := w.Process(ctx, f)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if res.Frame() != f {
			t.Errorf("Expected frame %d to pass through", i)
		}
		f.Put("Mutated", frame.Double(1))
	}
	if len(pub.Batches) != 2 {
		t.Errorf("Expected 2 full batches before Finish, got %d", len(pub.Batches))
	}

	if err := w.Finish(ctx); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if len(pub.Batches) != 3 || w.Published() != 5 {
		t.Errorf("Expected 3 batches and 5 frames, got %d and %d", len(pub.Batches), w.Published())
	}
	if pub.Batches[0][0].Has("Mutated") {
		t.Errorf("Buffered frames must not see later mutations")
	}
}

func TestFrameWriterStreams(t *testing.T) {
	pub := &MockPublisher{}
	w := NewFrameWriter(pub)
	if err := module.Setup(w, param.Overrides{"Topic": "frames"}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	ctx := context.Background()
	if _, err := w.Process(ctx, frame.New(frame.Physics, 0)); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if err := w.Finish(ctx); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if w.Published() != 0 {
		t.Errorf("Expected Physics frame to be skipped")
	}
}

func TestFrameWriterConfig(t *testing.T) {
	tests := []struct {
		name      string
		overrides param.Overrides
	}{
		{"missing topic", param.Overrides{}},
		{"empty topic", param.Overrides{"Topic": ""}},
		{"zero batch", param.Overrides{"Topic": "frames", "BatchSize": 0}},
		{"bad stream", param.Overrides{"Topic": "frames", "Streams": []string{"Nope"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := module.Setup(NewFrameWriter(&MockPublisher{}), tt.overrides)
			if !errors.Is(err, param.ErrConfiguration) {
				t.Errorf("Expected configuration error, got %v", err)
			}
		})
	}

	boom := errors.New("registry down")
	err := module.Setup(NewFrameWriter(&MockPublisher{PrepareErr: boom}), param.Overrides{"Topic": "frames"})
	if !errors.Is(err, boom) {
		t.Errorf("Expected prepare error, got %v", err)
	}
}
