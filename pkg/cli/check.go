package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/throttle"
)

// NewCheckCommand creates the check command (§4.4): a single throttle probe
// against one tool's repository, reported as a run envelope.
func NewCheckCommand(flags *GlobalFlags) *cobra.Command {
	var thresholdOverride int

	cmd := &cobra.Command{
		Use:   "check <tool>",
		Short: "Check whether hosted CI is backed up for a tool",
		Long: `Check lists the repository's queued and in-progress hosted CI runs and
reports whether any has been waiting longer than the configured threshold.

A throttled result is not itself a failure from dsr's point of view — it is
the trigger condition that "fallback" and "watch" act on. check exits 0 when
hosted CI is healthy and 1 (partial) when it is throttled; any other exit
code means the probe itself failed. With --json, details.throttled carries
the same verdict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), flags, args[0], thresholdOverride)
		},
	}

	cmd.Flags().IntVar(&thresholdOverride, "threshold-seconds", 0, "Override the tool's configured throttle threshold")
	return cmd
}

func runCheck(ctx context.Context, flags *GlobalFlags, toolName string, thresholdOverride int) error {
	env := envelope.New("check", toolName)

	rt, err := NewRuntime(flags)
	if err != nil {
		return finishWithError(env, flags, err)
	}
	tool, err := rt.FindTool(toolName)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	threshold := tool.ThrottleThresholdS
	if threshold <= 0 {
		threshold = rt.Config.ThresholdSeconds
	}
	if thresholdOverride > 0 {
		threshold = thresholdOverride
	}

	result, err := throttle.Probe(ctx, tool.Repo, threshold, nowUTC())
	if err != nil {
		return finishWithError(env, flags, err)
	}

	env.Details["throttled"] = result.Throttled
	env.Details["queued_run_count"] = len(result.QueuedRuns)
	env.Details["threshold_seconds"] = threshold

	status := model.RunSuccess
	if result.Throttled {
		status = model.RunPartial
		if !flags.Quiet {
			console.Printf("%s", console.FormatWarningMessage(fmt.Sprintf("%s: hosted CI appears throttled (%d queued/in-progress run(s))", tool.Name, len(result.QueuedRuns))))
		}
	} else if !flags.Quiet {
		console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("%s: hosted CI is healthy", tool.Name)))
	}

	env.Finish(status, nil)
	return emit(env, flags)
}

// finishWithError stamps env as a failed run driven by err's Kind and emits it.
func finishWithError(env *envelope.Envelope, flags *GlobalFlags, err error) error {
	kind := errs.KindSystem
	code := errs.CodeSystemRequiredTool
	target := ""
	if dsrErr, ok := asDsrError(err); ok {
		kind = dsrErr.Kind
		code = dsrErr.Code
		target = dsrErr.Target
	}
	env.AddError(code, err.Error(), target)
	exitCode := envelope.ExitCodeForKind(kind)
	env.Finish(model.RunError, &exitCode)
	if !flags.Quiet {
		console.Printf("%s", console.FormatErrorMessage(err.Error()))
	}
	if emitErr := emit(env, flags); emitErr != nil {
		return emitErr
	}
	os.Exit(exitCode)
	return nil
}

func asDsrError(err error) (*errs.Error, bool) {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*errs.Error); ok {
			return e, true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// emit writes the envelope either as JSON (machine mode) or leaves the human
// side channel as the only output (§6 "Stream discipline"), then returns an
// error carrying the envelope's exit code so cobra's root can translate it.
func emit(env *envelope.Envelope, flags *GlobalFlags) error {
	if flags.JSON {
		if err := env.WriteJSON(os.Stdout); err != nil {
			return err
		}
	}
	if env.ExitCode != 0 {
		return &exitError{code: env.ExitCode}
	}
	return nil
}

// exitError carries a stable exit code through cobra's error-returning RunE
// without forcing every command to call os.Exit directly.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

func (e *exitError) ExitCode() int { return e.code }
