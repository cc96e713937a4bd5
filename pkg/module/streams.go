package module

import (
	"github.com/siqueiraa/FrameFlow/pkg/frame"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

// StopSet is the set of frame stops a stage acts on.
type StopSet map[frame.Stop]struct{}

// ParseStops builds a StopSet from stop names.
func ParseStops(names []string) (StopSet, error) {
	set := make(StopSet, len(names))
	for _, n := range names {
		s, err := frame.ParseStop(n)
		if err != nil {
			return nil, err
		}
		set[s] = struct{}{}
	}
	return set, nil
}

func (s StopSet) Contains(stop frame.Stop) bool {
	_, ok := s[stop]
	return ok
}

// DeclareStreams adds the conventional Streams parameter, defaulting to DAQ.
func DeclareStreams(set *param.Set, p *[]string) {
	set.Strings(p, "Streams", "Frame stops this module acts on", []string{string(frame.DAQ)})
}

// ConfigureStreams parses a resolved Streams parameter, reporting an unknown
// stop as a configuration error of owner.
func ConfigureStreams(owner string, names []string) (StopSet, error) {
	stops, err := ParseStops(names)
	if err != nil {
		return nil, param.Errorf(owner, "Streams", "%v", err)
	}
	return stops, nil
}
