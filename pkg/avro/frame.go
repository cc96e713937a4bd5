package avro

import (
	"fmt"

	"github.com/hamba/avro/v2"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
)

// FrameSchemaJSON is the Avro schema every persisted or published frame uses.
const FrameSchemaJSON = `{
  "type": "record",
  "name": "Frame",
  "namespace": "frameflow",
  "fields": [
    {"name": "index", "type": "long"},
    {"name": "stop", "type": "string"},
    {"name": "scalars", "type": {"type": "map", "values": "double"}},
    {"name": "vectors", "type": {"type": "map", "values": {"type": "array", "items": "double"}}}
  ]
}`

// FrameSchema is FrameSchemaJSON parsed once at start-up.
var FrameSchema = avro.MustParse(FrameSchemaJSON)

// Record is the wire shape of a frame, split by value variant.
type Record struct {
	Index   int64                `avro:"index" json:"index"`
	Stop    string               `avro:"stop" json:"stop"`
	Scalars map[string]float64   `avro:"scalars" json:"scalars"`
	Vectors map[string][]float64 `avro:"vectors" json:"vectors"`
}

// FromFrame copies f into a Record.
func FromFrame(f *frame.Frame) Record {
	rec := Record{
		Index:   int64(f.Index()),
		Stop:    string(f.Stop()),
		Scalars: make(map[string]float64),
		Vectors: make(map[string][]float64),
	}
	for _, key := range f.Keys() {
		v, _ := f.Get(key)
		switch val := v.(type) {
		case frame.Double:
			rec.Scalars[key] = float64(val)
		case frame.VectorDouble:
			rec.Vectors[key] = append(make([]float64, 0, len(val)), val...)
		}
	}
	return rec
}

// Frame rebuilds the frame a Record was made from.
func (r Record) Frame() (*frame.Frame, error) {
	stop, err := frame.ParseStop(r.Stop)
	if err != nil {
		return nil, err
	}
	if r.Index < 0 {
		return nil, fmt.Errorf("negative frame index %d", r.Index)
	}

	f := frame.New(stop, uint64(r.Index))
	for k, v := range r.Scalars {
		f.Put(k, frame.Double(v))
	}
	for k, v := range r.Vectors {
		if v == nil {
			v = []float64{}
		}
		f.Put(k, frame.VectorDouble(v))
	}
	return f, nil
}

// MarshalFrame encodes f as a single Avro datum without framing.
func MarshalFrame(f *frame.Frame) ([]byte, error) {
	return avro.Marshal(FrameSchema, FromFrame(f))
}

// UnmarshalFrame decodes a datum produced by MarshalFrame.
func UnmarshalFrame(data []byte) (*frame.Frame, error) {
	var rec Record
	if err := avro.Unmarshal(FrameSchema, data, &rec); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return rec.Frame()
}
