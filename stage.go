package stitcher

import "github.com/pkg/errors"

// Stage is a step of the stitching pipeline.
type Stage int

const (
	Idle Stage = iota
	Registering
	Aligned
	Blending
	Done
	Failed
)

var stageNames = map[Stage]string{
	Idle:        "idle",
	Registering: "registering",
	Aligned:     "aligned",
	Blending:    "blending",
	Done:        "done",
	Failed:      "failed",
}

// transitions lists the stages reachable from every stage.
var transitions = map[Stage][]Stage{
	Idle:        {Registering},
	Registering: {Aligned, Failed},
	Aligned:     {Blending},
	Blending:    {Done, Failed},
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the pipeline stops at this stage.
func (s Stage) Terminal() bool {
	return s == Done || s == Failed
}

// CanTransition reports whether the pipeline may move from s to next.
func (s Stage) CanTransition(next Stage) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// enter moves the run to the next stage, logging the transition and
// notifying the stage hook.
func (r *run) enter(next Stage) error {
	if !r.stage.CanTransition(next) {
		return errors.Errorf("invalid stage transition: %s -> %s", r.stage, next)
	}
	r.log.Info("stage", "from", r.stage.String(), "to", next.String())
	r.stage = next
	if r.onStage != nil {
		r.onStage(next)
	}
	return nil
}
