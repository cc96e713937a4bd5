package tray

import (
	"fmt"
	"strings"
	"time"

	"github.com/siqueiraa/FrameFlow/pkg/module"
)

// StageStats counts what one stage did during a run. Processed counts calls
// to Next or Process; Dropped counts results that emitted no frame.
type StageStats struct {
	Name      string
	Processed int
	Dropped   int
	State     module.State
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Produced  int // frames emitted by the source
	Completed int // frames that passed every stage
	Stages    []StageStats
	Duration  time.Duration
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: produced=%d completed=%d duration=%s\n",
		s.RunID, s.Produced, s.Completed, s.Duration.Round(time.Millisecond))
	for _, st := range s.Stages {
		fmt.Fprintf(&b, "  %-20s processed=%d dropped=%d state=%s\n", st.Name, st.Processed, st.Dropped, st.State)
	}
	return b.String()
}
