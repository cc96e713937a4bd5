// Package tray runs a linear pipeline: one source followed by modules, each
// frame travelling the whole pipeline before the next one is pulled.
package tray

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/siqueiraa/FrameFlow/pkg/module"
	"github.com/siqueiraa/FrameFlow/pkg/param"
)

// ErrExecuted is returned when Execute is called on a tray that already ran.
var ErrExecuted = errors.New("tray already executed")

type stage struct {
	name      string
	c         module.Configurable
	overrides param.Overrides
	src       module.Source
	mod       module.Module
	stats     StageStats
}

// Tray is an assembled pipeline. It is not safe for concurrent use.
type Tray struct {
	logger   *log.Logger
	stages   []*stage
	names    map[string]struct{}
	executed bool
}

// Option customizes a Tray.
type Option func(*Tray)

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Tray) { t.logger = l }
}

func New(opts ...Option) *Tray {
	t := &Tray{
		logger: log.New(os.Stderr, "", log.LstdFlags),
		names:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddModule appends a stage. The first stage must be a module.Source and
// every later one a module.Module. An empty name falls back to the stage's
// own name; names must be unique within the tray.
func (t *Tray) AddModule(name string, s any, overrides param.Overrides) error {
	if t.executed {
		return ErrExecuted
	}
	c, ok := s.(module.Configurable)
	if !ok {
		return fmt.Errorf("stage %q: %T is not a module", name, s)
	}
	if name == "" {
		name = c.Name()
	}
	if _, dup := t.names[name]; dup {
		return fmt.Errorf("duplicate stage name %q", name)
	}

	st := &stage{name: name, c: c, overrides: overrides}
	st.stats.Name = name
	if len(t.stages) == 0 {
		src, ok := s.(module.Source)
		if !ok {
			return fmt.Errorf("stage %q: the first stage must be a source", name)
		}
		st.src = src
	} else {
		mod, ok := s.(module.Module)
		if !ok {
			return fmt.Errorf("stage %q: %T cannot process frames", name, s)
		}
		st.mod = mod
	}

	t.stages = append(t.stages, st)
	t.names[name] = struct{}{}
	return nil
}

// Len returns the number of stages.
func (t *Tray) Len() int { return len(t.stages) }

func stageError(name string, err error) error {
	return fmt.Errorf("module %q: %w", name, err)
}

// Execute configures every stage, then pulls frames from the source until a
// stage requests termination, a stage fails or ctx is canceled. Finishers are
// always given a chance to release their resources, and the summary reflects
// the work done even when an error is returned.
func (t *Tray) Execute(ctx context.Context) (Summary, error) {
	if t.executed {
		return Summary{}, ErrExecuted
	}
	t.executed = true
	if len(t.stages) == 0 {
		return Summary{}, errors.New("tray has no stages")
	}

	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	t.logger.Printf("[Tray] Starting run %s with %d stage(s)", sum.RunID, len(t.stages))

	configured, err := t.configure(sum.RunID)
	if err != nil {
		err = errors.Join(err, t.finish(ctx, configured))
		return t.summarize(sum, start), err
	}

	runErr := t.loop(ctx, &sum)
	for _, st := range t.stages {
		module.Suspend(st.c)
	}
	err = errors.Join(runErr, t.finish(ctx, t.stages))

	sum = t.summarize(sum, start)
	if err != nil {
		t.logger.Printf("[Tray] Run %s failed after %d frame(s): %v", sum.RunID, sum.Produced, err)
		return sum, err
	}
	t.logger.Printf("[Tray] Run %s finished: %d frame(s) produced, %d completed in %s",
		sum.RunID, sum.Produced, sum.Completed, sum.Duration.Round(time.Millisecond))
	return sum, nil
}

// configure sets up stages in order and returns those that succeeded.
func (t *Tray) configure(runID string) ([]*stage, error) {
	for i, st := range t.stages {
		if ra, ok := st.c.(module.RunAware); ok {
			ra.SetRun(runID)
		}
		if la, ok := st.c.(module.LogAware); ok {
			la.SetLogger(t.logger)
		}
		if err := module.Setup(st.c, st.overrides); err != nil {
			return t.stages[:i], stageError(st.name, err)
		}
	}
	return t.stages, nil
}

func (t *Tray) loop(ctx context.Context, sum *Summary) error {
	head := t.stages[0]
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := head.src.Next(ctx)
		if err != nil {
			return stageError(head.name, err)
		}
		if !res.Valid() {
			return stageError(head.name, fmt.Errorf("invalid result %v", res.Action()))
		}
		head.stats.Processed++

		terminate := res.Terminates()
		if !res.Emits() {
			head.stats.Dropped++
			if terminate {
				return nil
			}
			continue
		}
		sum.Produced++

		f := res.Frame()
		completed := true
		for _, st := range t.stages[1:] {
			res, err := st.mod.Process(ctx, f)
			if err != nil {
				return stageError(st.name, err)
			}
			if !res.Valid() {
				return stageError(st.name, fmt.Errorf("invalid result %v", res.Action()))
			}
			st.stats.Processed++
			terminate = terminate || res.Terminates()
			if !res.Emits() {
				st.stats.Dropped++
				completed = false
				break
			}
			f = res.Frame()
		}
		if completed {
			sum.Completed++
		}
		if terminate {
			return nil
		}
	}
}

// finish calls Finish on every Finisher among stages, even after cancellation.
func (t *Tray) finish(ctx context.Context, stages []*stage) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, st := range stages {
		fin, ok := st.c.(module.Finisher)
		if !ok {
			continue
		}
		if err := fin.Finish(ctx); err != nil {
			errs = append(errs, stageError(st.name, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Tray) summarize(sum Summary, start time.Time) Summary {
	sum.Duration = time.Since(start)
	sum.Stages = make([]StageStats, len(t.stages))
	for i, st := range t.stages {
		st.stats.State = st.c.State()
		sum.Stages[i] = st.stats
	}
	return sum
}
