package frame

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Stop identifies the stream a frame belongs to.
type Stop string

const (
	DAQ            Stop = "DAQ"
	Physics        Stop = "Physics"
	Geometry       Stop = "Geometry"
	Calibration    Stop = "Calibration"
	DetectorStatus Stop = "DetectorStatus"
)

var knownStops = []Stop{DAQ, Physics, Geometry, Calibration, DetectorStatus}

// ParseStop resolves a stop name case-insensitively.
func ParseStop(name string) (Stop, error) {
	for _, s := range knownStops {
		if strings.EqualFold(string(s), name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown frame stop %q", name)
}

// Frame is the keyed record handed from stage to stage.
// It is not safe for concurrent use; the runner owns it between stages.
type Frame struct {
	stop   Stop
	index  uint64
	fields map[string]Value
}

// New creates an empty frame on the given stop.
func New(stop Stop, index uint64) *Frame {
	if stop == "" {
		stop = DAQ
	}
	return &Frame{
		stop:   stop,
		index:  index,
		fields: make(map[string]Value),
	}
}

// Stop returns the stream the frame belongs to.
func (f *Frame) Stop() Stop { return f.stop }

// Index is the sequence number assigned by the frame's source.
func (f *Frame) Index() uint64 { return f.index }

// Len returns the number of fields.
func (f *Frame) Len() int { return len(f.fields) }

// Has reports whether key is present.
func (f *Frame) Has(key string) bool {
	_, ok := f.fields[key]
	return ok
}

// Put stores v under key, replacing any previous value.
func (f *Frame) Put(key string, v Value) {
	f.fields[key] = v
}

// Delete removes key and reports whether it was present.
func (f *Frame) Delete(key string) bool {
	if _, ok := f.fields[key]; !ok {
		return false
	}
	delete(f.fields, key)
	return true
}

// Get returns the raw value stored under key.
func (f *Frame) Get(key string) (Value, bool) {
	v, ok := f.fields[key]
	return v, ok
}

// Double reads a scalar field.
func (f *Frame) Double(key string) (float64, error) {
	v, ok := f.fields[key]
	if !ok {
		return 0, &MissingFieldError{Key: key}
	}
	d, ok := v.(Double)
	if !ok {
		return 0, &TypeError{Key: key, Want: KindDouble, Got: v.Kind()}
	}
	return float64(d), nil
}

// VectorDouble reads a sequence field. The returned slice aliases the frame.
func (f *Frame) VectorDouble(key string) ([]float64, error) {
	v, ok := f.fields[key]
	if !ok {
		return nil, &MissingFieldError{Key: key}
	}
	vec, ok := v.(VectorDouble)
	if !ok {
		return nil, &TypeError{Key: key, Want: KindVectorDouble, Got: v.Kind()}
	}
	return vec, nil
}

// Keys returns the field names in sorted order.
func (f *Frame) Keys() []string {
	keys := make([]string, 0, len(f.fields))
	for k := range f.fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := New(f.stop, f.index)
	for k, v := range f.fields {
		if vec, ok := v.(VectorDouble); ok {
			v = slices.Clone(vec)
		}
		c.fields[k] = v
	}
	return c
}

// Checksum hashes stop, index and every field in key order.
func (f *Frame) Checksum() uint64 {
	d := xxhash.New()
	var buf [8]byte

	_, _ = d.WriteString(string(f.stop))
	binary.LittleEndian.PutUint64(buf[:], f.index)
	_, _ = d.Write(buf[:])

	for _, k := range f.Keys() {
		_, _ = d.WriteString(k)
		switch v := f.fields[k].(type) {
		case Double:
			_, _ = d.Write([]byte{byte(KindDouble)})
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(float64(v)))
			_, _ = d.Write(buf[:])
		case VectorDouble:
			_, _ = d.Write([]byte{byte(KindVectorDouble)})
			binary.LittleEndian.PutUint64(buf[:], uint64(len(v)))
			_, _ = d.Write(buf[:])
			for _, x := range v {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
				_, _ = d.Write(buf[:])
			}
		}
	}
	return d.Sum64()
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%s #%d, %d fields)", f.stop, f.index, len(f.fields))
}
