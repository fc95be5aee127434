package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/stage"
	"github.com/benrubinchik/podflow/internal/state"
)

type fakeStage struct {
	name     string
	runs     int
	restores int
	outputs  state.Outputs
	err      error
	onRun    func(*episode.Episode)
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) Run(_ context.Context, ep *episode.Episode) (state.Outputs, error) {
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	if f.onRun != nil {
		f.onRun(ep)
	}
	return f.outputs, nil
}

func (f *fakeStage) Restore(_ context.Context, ep *episode.Episode, outputs state.Outputs) error {
	f.restores++
	if f.onRun != nil {
		f.onRun(ep)
	}
	return nil
}

func allStages(fail map[string]error) []stage.Handler {
	handlers := make([]stage.Handler, 0, len(state.StageNames))
	for _, name := range state.StageNames {
		handlers = append(handlers, &fakeStage{name: name, err: fail[name]})
	}
	return handlers
}

func newRunner(t *testing.T, handlers []stage.Handler) *Runner {
	t.Helper()
	return &Runner{
		OutputRoot: t.TempDir(),
		EpisodeID:  "ep_test1234",
		Handlers:   handlers,
		Logger:     logging.NewNop(),
	}
}

func TestRunAllStagesComplete(t *testing.T) {
	handlers := allStages(nil)
	r := newRunner(t, handlers)
	ep := &episode.Episode{InputFile: "/in/ep.mp4"}

	st, err := r.Run(context.Background(), ep, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := st.FirstIncomplete(); ok {
		t.Fatalf("expected all stages complete")
	}
	for _, h := range handlers {
		if h.(*fakeStage).runs != 1 {
			t.Fatalf("stage %s ran %d times", h.Name(), h.(*fakeStage).runs)
		}
	}

	loaded, err := state.Load(r.OutputRoot, r.EpisodeID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.InputFile != "/in/ep.mp4" {
		t.Fatalf("input file not persisted: %q", loaded.InputFile)
	}
}

func TestRunHaltsOnFirstFailure(t *testing.T) {
	boom := errors.New("whisper timed out")
	handlers := allStages(map[string]error{state.StageTranscribe: boom})
	r := newRunner(t, handlers)

	_, err := r.Run(context.Background(), &episode.Episode{}, Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected stage error, got %v", err)
	}

	loaded, err := state.Load(r.OutputRoot, r.EpisodeID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Stages[state.StageTranscribe].Status != state.StatusFailed {
		t.Fatalf("failed stage not persisted")
	}
	if loaded.Stages[state.StageTranscribe].Error == "" {
		t.Fatalf("failure message not persisted")
	}
	if loaded.Stages[state.StageGenerateMetadata].Status != state.StatusPending {
		t.Fatalf("later stage should remain pending")
	}
	for _, h := range handlers[3:] {
		if h.(*fakeStage).runs != 0 {
			t.Fatalf("stage %s ran after failure", h.Name())
		}
	}
}

func TestResumeSkipsCompletedAndRestores(t *testing.T) {
	r := newRunner(t, allStages(map[string]error{state.StageTranscribe: errors.New("network down")}))
	if _, err := r.Run(context.Background(), &episode.Episode{}, Options{}); err == nil {
		t.Fatalf("expected first run to fail")
	}

	handlers := allStages(nil)
	r2 := &Runner{OutputRoot: r.OutputRoot, EpisodeID: r.EpisodeID, Handlers: handlers, Logger: logging.NewNop()}
	st, err := r2.Run(context.Background(), &episode.Episode{}, Options{Resume: true})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, ok := st.FirstIncomplete(); ok {
		t.Fatalf("expected resumed run to finish")
	}

	audio := handlers[0].(*fakeStage)
	if audio.runs != 0 || audio.restores != 1 {
		t.Fatalf("completed stage should restore not rerun: runs=%d restores=%d", audio.runs, audio.restores)
	}
	transcribe := handlers[2].(*fakeStage)
	if transcribe.runs != 1 || transcribe.restores != 0 {
		t.Fatalf("failed stage should rerun: runs=%d restores=%d", transcribe.runs, transcribe.restores)
	}
}

func TestRunWithoutResumeStartsFresh(t *testing.T) {
	handlers := allStages(nil)
	r := newRunner(t, handlers)
	if _, err := r.Run(context.Background(), &episode.Episode{}, Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := r.Run(context.Background(), &episode.Episode{}, Options{}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	for _, h := range handlers {
		fs := h.(*fakeStage)
		if fs.runs != 2 {
			t.Fatalf("stage %s should run twice without resume, ran %d", fs.name, fs.runs)
		}
		if fs.restores != 0 {
			t.Fatalf("stage %s should never restore without resume", fs.name)
		}
	}
}

func TestRunRejectsUnknownStage(t *testing.T) {
	r := newRunner(t, []stage.Handler{&fakeStage{name: "publish_everywhere"}})
	if _, err := r.Run(context.Background(), &episode.Episode{}, Options{}); err == nil {
		t.Fatalf("expected unknown stage rejection")
	}
}

func TestPlanReportsActions(t *testing.T) {
	r := newRunner(t, allStages(map[string]error{state.StageUploadYouTube: errors.New("quota")}))
	if _, err := r.Run(context.Background(), &episode.Episode{}, Options{}); err == nil {
		t.Fatalf("expected failure")
	}

	rows, err := Plan(r.OutputRoot, r.EpisodeID)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(rows) != len(state.StageNames) {
		t.Fatalf("expected %d rows, got %d", len(state.StageNames), len(rows))
	}
	for _, row := range rows {
		switch row.Stage {
		case state.StageProcessAudio, state.StageProcessVideo, state.StageTranscribe, state.StageGenerateMetadata:
			if row.Action != ActionSkip {
				t.Fatalf("completed stage %s should skip", row.Stage)
			}
		default:
			if row.Action != ActionRun {
				t.Fatalf("stage %s should run", row.Stage)
			}
		}
	}

	name, ok, err := NextStage(r.OutputRoot, r.EpisodeID)
	if err != nil || !ok || name != state.StageUploadYouTube {
		t.Fatalf("next stage: %q %v %v", name, ok, err)
	}
}

func TestPlanFreshEpisode(t *testing.T) {
	rows, err := Plan(t.TempDir(), "never_ran")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, row := range rows {
		if row.Action != ActionRun || row.Status != state.StatusPending {
			t.Fatalf("fresh episode should plan all stages: %+v", row)
		}
	}
}

type unhealthyStage struct {
	fakeStage
	detail string
}

func (u *unhealthyStage) HealthCheck(context.Context) stage.Health {
	return stage.Unhealthy(u.name, u.detail)
}

func TestRunFailsUnhealthyStageBeforeExecuting(t *testing.T) {
	handlers := allStages(nil)
	unhealthy := &unhealthyStage{
		fakeStage: fakeStage{name: state.StageGenerateMetadata},
		detail:    "api key missing",
	}
	handlers[3] = unhealthy
	r := newRunner(t, handlers)

	_, err := r.Run(context.Background(), &episode.Episode{InputFile: "/in/ep.mp4"}, Options{})
	if err == nil {
		t.Fatalf("expected health check failure")
	}
	if unhealthy.runs != 0 {
		t.Fatalf("unhealthy stage must not run")
	}

	loaded, err := state.Load(r.OutputRoot, r.EpisodeID)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	record, err := loaded.Stage(state.StageGenerateMetadata)
	if err != nil {
		t.Fatalf("stage record: %v", err)
	}
	if record.Status != state.StatusFailed || record.Error == "" {
		t.Fatalf("expected recorded failure, got %+v", record)
	}
}
