package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hamba/avro/v2/ocf"

	"github.com/siqueiraa/FrameFlow/pkg/avro"
	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/module"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

// container is an open frame file.
type container struct {
	file *os.File
	zr   io.ReadCloser
	dec  *ocf.Decoder
}

func openContainer(path string) (*container, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	zr, err := decompressReader(CompressionFor(path), file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	dec, err := ocf.NewDecoder(zr)
	if err != nil {
		_ = zr.Close()
		_ = file.Close()
		return nil, fmt.Errorf("read container %s: %w", path, err)
	}
	return &container{file: file, zr: zr, dec: dec}, nil
}

// next returns the following frame, or nil at the end of the file.
func (c *container) next() (*frame.Frame, error) {
	if !c.dec.HasNext() {
		return nil, c.dec.Error()
	}
	var rec avro.Record
	if err := c.dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec.Frame()
}

func (c *container) more() (bool, error) {
	if c.dec.HasNext() {
		return true, nil
	}
	return false, c.dec.Error()
}

func (c *container) runID() string {
	return string(c.dec.Metadata()[MetaRunID])
}

func (c *container) close() error {
	return errors.Join(c.zr.Close(), c.file.Close())
}

// ReadAll loads every frame stored in path.
func ReadAll(path string) ([]*frame.Frame, error) {
	c, err := openContainer(path)
	if err != nil {
		return nil, err
	}
	defer c.close()

	var frames []*frame.Frame
	for {
		f, err := c.next()
		if err != nil {
			return frames, fmt.Errorf("%s: frame %d: %w", path, len(frames), err)
		}
		if f == nil {
			return frames, nil
		}
		frames = append(frames, f)
	}
}

// Reader is a source replaying the frames of a file written by Writer.
type Reader struct {
	module.Base

	filename string
	c        *container
	read     int
}

// NewReader declares the reader parameters.
func NewReader() *Reader {
	r := &Reader{Base: module.NewBase("Reader")}
	r.Parameters().String(&r.filename, "Filename", "Input file written by Writer", "", param.Required())
	return r
}

func (r *Reader) Configure() error {
	c, err := openContainer(r.filename)
	if err != nil {
		return param.Errorf(r.Name(), "Filename", "%v", err)
	}
	r.c = c
	return nil
}

// RunID returns the identifier of the run that wrote the file.
func (r *Reader) RunID() string {
	if r.c == nil {
		return ""
	}
	return r.c.runID()
}

func (r *Reader) Next(_ context.Context) (module.Result, error) {
	r.Begin()
	if r.c == nil {
		r.Exhaust()
		return module.Terminate(), nil
	}

	f, err := r.c.next()
	if err != nil {
		return module.Result{}, fmt.Errorf("%s: frame %d: %w", r.filename, r.read, err)
	}
	if f == nil {
		r.Exhaust()
		return module.Terminate(), nil
	}
	r.read++

	more, err := r.c.more()
	if err != nil {
		return module.Result{}, fmt.Errorf("%s: frame %d: %w", r.filename, r.read, err)
	}
	if !more {
		r.Exhaust()
		return module.EmitAndTerminate(f), nil
	}
	return module.Emit(f), nil
}

// Finish closes the file. Calling it again is a no-op.
func (r *Reader) Finish(context.Context) error {
	if r.c == nil {
		return nil
	}
	err := r.c.close()
	r.c = nil
	return err
}
