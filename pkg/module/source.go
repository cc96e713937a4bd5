package module

import (
	"context"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

// InfiniteSource emits empty frames on one stop until the tray stops pulling.
type InfiniteSource struct {
	Base
	stream string
	stop   frame.Stop
	index  uint64
}

func NewInfiniteSource() *InfiniteSource {
	s := &InfiniteSource{Base: NewBase("InfiniteSource")}
	s.Parameters().String(&s.stream, "Stream", "Stop of the frames to emit", string(frame.DAQ))
	return s
}

func (s *InfiniteSource) Configure() error {
	stop, err := frame.ParseStop(s.stream)
	if err != nil {
		return param.Errorf(s.Name(), "Stream", "%v", err)
	}
	s.stop = stop
	s.index = 0
	return nil
}

func (s *InfiniteSource) Next(ctx context.Context) (Result, error) {
	s.Begin()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	f := frame.New(s.stop, s.index)
	s.index++
	return Emit(f), nil
}
