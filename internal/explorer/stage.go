package explorer

import "fmt"

// Stage is the outcome of one fetch stage.
type Stage int

const (
	// StageSucceeded means the stage stored a non-empty result.
	StageSucceeded Stage = iota
	// StageEmpty means the stage succeeded with nothing to show.
	StageEmpty
	// StageFailed means the backend call failed; earlier results are kept.
	StageFailed
	// StageStale means a newer request superseded this one and its
	// response was discarded.
	StageStale
	// StageSkipped means the stage did not run.
	StageSkipped
	// StageRetryScheduled means the stage failed and will be retried.
	StageRetryScheduled
)

var stageNames = [...]string{
	StageSucceeded:      "succeeded",
	StageEmpty:          "empty",
	StageFailed:         "failed",
	StageStale:          "stale",
	StageSkipped:        "skipped",
	StageRetryScheduled: "retry-scheduled",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageResult reports what a stage did.
type StageResult struct {
	Stage Stage
	Count int
	Err   error
}

func (r StageResult) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s: %v", r.Stage, r.Err)
	case r.Stage == StageSucceeded:
		return fmt.Sprintf("%s (%d)", r.Stage, r.Count)
	default:
		return r.Stage.String()
	}
}

// SelectionResult reports the entries and arcs stages of a selection.
type SelectionResult struct {
	Entries StageResult
	Arcs    StageResult
}

func counted(n int) StageResult {
	if n == 0 {
		return StageResult{Stage: StageEmpty}
	}
	return StageResult{Stage: StageSucceeded, Count: n}
}

var skipped = StageResult{Stage: StageSkipped}
