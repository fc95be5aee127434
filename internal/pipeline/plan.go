package pipeline

import (
	"github.com/benrubinchik/podflow/internal/state"
)

// PlanRow describes what a run would do for one stage without doing it.
type PlanRow struct {
	Stage  string
	Status state.Status
	Error  string
	Action string
}

const (
	ActionRun  = "run"
	ActionSkip = "skip"
)

// Plan inspects persisted state and reports, stage by stage, whether a
// resumed run would execute or skip each one. It never mutates state.
func Plan(outputRoot, episodeID string) ([]PlanRow, error) {
	st, err := state.Load(outputRoot, episodeID)
	if err != nil {
		return nil, err
	}
	rows := make([]PlanRow, 0, len(state.StageNames))
	for _, name := range state.StageNames {
		record := st.Stages[name]
		row := PlanRow{Stage: name, Status: record.Status, Error: record.Error, Action: ActionRun}
		if record.Status == state.StatusCompleted || record.Status == state.StatusSkipped {
			row.Action = ActionSkip
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// NextStage returns the first stage a resumed run would execute, or false
// when the pipeline has already finished.
func NextStage(outputRoot, episodeID string) (string, bool, error) {
	st, err := state.Load(outputRoot, episodeID)
	if err != nil {
		return "", false, err
	}
	name, ok := st.FirstIncomplete()
	return name, ok, nil
}
