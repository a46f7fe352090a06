package pipeline

import (
	"context"
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func succeed(name StageName) Stage {
	return Stage{Name: name, Run: func(ctx context.Context) (model.RunStatus, error) { return model.RunSuccess, nil }}
}

func buildFail(name StageName) Stage {
	return Stage{Name: name, Run: func(ctx context.Context) (model.RunStatus, error) {
		return model.RunError, errs.New(errs.KindBuild, errs.CodeBuildCompilation, "compile failed")
	}}
}

func authFail(name StageName) Stage {
	return Stage{Name: name, Run: func(ctx context.Context) (model.RunStatus, error) {
		return model.RunError, errs.New(errs.KindAuthentication, errs.CodeAuthHostedCI, "bad token")
	}}
}

func TestRunAllSucceed(t *testing.T) {
	outcome := Run(context.Background(), []Stage{succeed(StageCheck), succeed(StageBuild), succeed(StageSign), succeed(StageRelease)})
	if outcome.Status != model.RunSuccess {
		t.Errorf("status = %v, want success", outcome.Status)
	}
	if len(outcome.Stages) != 4 {
		t.Errorf("expected 4 stage records, got %d", len(outcome.Stages))
	}
}

func TestRunBuildErrorIsNonFatalButPartial(t *testing.T) {
	outcome := Run(context.Background(), []Stage{succeed(StageCheck), buildFail(StageBuild), succeed(StageSign), succeed(StageRelease)})
	if outcome.Status != model.RunPartial {
		t.Errorf("status = %v, want partial", outcome.Status)
	}
	if len(outcome.Stages) != 4 {
		t.Errorf("expected all 4 stages to run after a non-fatal build error, got %d", len(outcome.Stages))
	}
}

func TestRunAuthErrorIsFatalBetweenStages(t *testing.T) {
	outcome := Run(context.Background(), []Stage{authFail(StageCheck), succeed(StageBuild), succeed(StageSign), succeed(StageRelease)})
	if outcome.Status != model.RunError {
		t.Errorf("status = %v, want error", outcome.Status)
	}
	if len(outcome.Stages) != 1 {
		t.Errorf("expected only the fatal stage recorded, got %d stage records", len(outcome.Stages))
	}
}
