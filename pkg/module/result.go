package module

import "github.com/siqueiraa/FrameFlow/pkg/frame"

// Action tells the runner what to do with the frame a stage returned.
type Action uint8

const (
	// ActionEmit passes the frame to the next stage.
	ActionEmit Action = iota + 1
	// ActionDrop removes the frame from the tray.
	ActionDrop
	// ActionEmitAndTerminate passes the frame on, then stops the run.
	ActionEmitAndTerminate
	// ActionTerminate stops the run without a frame.
	ActionTerminate
)

func (a Action) String() string {
	switch a {
	case ActionEmit:
		return "Emit"
	case ActionDrop:
		return "Drop"
	case ActionEmitAndTerminate:
		return "EmitAndTerminate"
	case ActionTerminate:
		return "Terminate"
	default:
		return "Invalid"
	}
}

// Result is the outcome of one stage invocation. The zero Result is invalid.
type Result struct {
	action Action
	frame  *frame.Frame
}

func Emit(f *frame.Frame) Result {
	return Result{action: ActionEmit, frame: f}
}

func Drop() Result {
	return Result{action: ActionDrop}
}

func EmitAndTerminate(f *frame.Frame) Result {
	return Result{action: ActionEmitAndTerminate, frame: f}
}

func Terminate() Result {
	return Result{action: ActionTerminate}
}

func (r Result) Action() Action { return r.action }

// Frame returns the emitted frame, or nil for Drop and Terminate.
func (r Result) Frame() *frame.Frame { return r.frame }

func (r Result) Emits() bool {
	return r.action == ActionEmit || r.action == ActionEmitAndTerminate
}

func (r Result) Terminates() bool {
	return r.action == ActionEmitAndTerminate || r.action == ActionTerminate
}

func (r Result) Valid() bool {
	if r.Emits() {
		return r.frame != nil
	}
	return r.action == ActionDrop || r.action == ActionTerminate
}
