// Package writer persists frames to compressed Avro container files and reads
// them back as a tray source.
package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/hamba/avro/v2/ocf"

	"github.com/siqueiraa/FrameFlow/pkg/avro"
	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/module"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

const (
	defaultCodec = string(ocf.Deflate)
	fileMode     = 0o644
	dirMode      = 0o755

	// MetaRunID is the container metadata key holding the run identifier.
	MetaRunID = "frameflow.run"
)

// Uploader ships a finished output file elsewhere, e.g. objstore.Client.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (string, error)
}

// Option customizes a Writer at construction.
type Option func(*Writer)

// WithCodec sets the default block codec: null, deflate, snappy or zstandard.
func WithCodec(codec string) Option {
	return func(w *Writer) { w.defaultCodec = codec }
}

// WithCompressionLevel sets the level of the outer .bz2/.gz/.zst stream.
func WithCompressionLevel(level int) Option {
	return func(w *Writer) { w.level = level }
}

// WithUploader uploads the file once the tray finishes.
func WithUploader(u Uploader) Option {
	return func(w *Writer) { w.uploader = u }
}

// Writer appends every frame on its Streams to Filename and passes the frame
// on unchanged.
type Writer struct {
	module.Base

	filename string
	streams  []string
	codec    string

	defaultCodec string
	level        int
	uploader     Uploader
	runID        string
	logger       *log.Logger

	stops   module.StopSet
	file    *os.File
	zw      io.WriteCloser
	enc     *ocf.Encoder
	written int
}

// New declares the writer parameters.
func New(opts ...Option) *Writer {
	w := &Writer{Base: module.NewBase("Writer"), defaultCodec: defaultCodec, logger: log.Default()}
	for _, opt := range opts {
		opt(w)
	}

	p := w.Parameters()
	p.String(&w.filename, "Filename", "Output file; .bz2, .gz and .zst are compressed", "", param.Required())
	module.DeclareStreams(p, &w.streams)
	p.String(&w.codec, "Codec", "Avro block codec", w.defaultCodec)
	return w
}

func (w *Writer) SetRun(runID string) { w.runID = runID }

func (w *Writer) SetLogger(l *log.Logger) { w.logger = l }

func (w *Writer) Configure() error {
	if w.filename == "" {
		return param.Errorf(w.Name(), "Filename", "must not be empty")
	}
	switch ocf.CodecName(w.codec) {
	case ocf.Null, ocf.Deflate, ocf.Snappy, ocf.ZStandard:
	default:
		return param.Errorf(w.Name(), "Codec", "unknown codec %q", w.codec)
	}
	stops, err := module.ConfigureStreams(w.Name(), w.streams)
	if err != nil {
		return err
	}
	w.stops = stops

	return w.open()
}

func (w *Writer) open() error {
	if dir := filepath.Dir(w.filename); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.OpenFile(w.filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.filename, err)
	}

	zw, err := compressWriter(CompressionFor(w.filename), file, w.level)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("compress %s: %w", w.filename, err)
	}

	enc, err := ocf.NewEncoder(avro.FrameSchemaJSON, zw,
		ocf.WithCodec(ocf.CodecName(w.codec)),
		ocf.WithMetadata(map[string][]byte{MetaRunID: []byte(w.runID)}),
	)
	if err != nil {
		_ = zw.Close()
		_ = file.Close()
		return fmt.Errorf("avro encoder for %s: %w", w.filename, err)
	}

	w.file, w.zw, w.enc = file, zw, enc
	return nil
}

func (w *Writer) Process(_ context.Context, f *frame.Frame) (module.Result, error) {
	w.Begin()
	if w.stops.Contains(f.Stop()) {
		if err := w.enc.Encode(avro.FromFrame(f)); err != nil {
			return module.Result{}, fmt.Errorf("write frame %d: %w", f.Index(), err)
		}
		w.written++
	}
	return module.Emit(f), nil
}

// Written returns the number of frames encoded so far.
func (w *Writer) Written() int { return w.written }

// Finish flushes and closes the file, then uploads it when an Uploader is set.
// Calling it again is a no-op.
func (w *Writer) Finish(ctx context.Context) error {
	if w.enc == nil {
		return nil
	}
	err := errors.Join(w.enc.Close(), w.zw.Close(), w.file.Close())
	w.enc, w.zw, w.file = nil, nil, nil
	if err != nil {
		return fmt.Errorf("close %s: %w", w.filename, err)
	}
	w.logger.Printf("[Writer] Wrote %d frame(s) to %s", w.written, w.filename)

	if w.uploader == nil {
		return nil
	}
	if _, err := w.uploader.Upload(ctx, w.filename, filepath.Base(w.filename)); err != nil {
		return err
	}
	return nil
}
