package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// SpinnerProgressReporter shows simulation stages with a terminal spinner
type SpinnerProgressReporter struct {
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
}

type stageInfo struct {
	Stage     string
	StartTime time.Time
	EndTime   time.Time
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter writing to stderr
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	return newSpinnerProgressReporter(os.Stderr)
}

func newSpinnerProgressReporter(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner: s,
		out:     out,
		stages:  []stageInfo{},
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if n := len(r.stages); n > 0 && r.stages[n-1].EndTime.IsZero() {
		r.stages[n-1].EndTime = time.Now()
	}
	if event.Stage != "" && event.Stage != usecase.StageCompleted {
		r.stages = append(r.stages, stageInfo{Stage: event.Stage, StartTime: time.Now()})
	}

	if event.Spinner {
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		r.spinner.Suffix = " " + r.display(event.Message)
	} else if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.pause(func() {
		color.New(color.FgCyan).Fprintln(r.out, message)
	})
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.pause(func() {
		color.New(color.FgRed).Fprintln(r.out, message)
	})
}

func (r *SpinnerProgressReporter) pause(fn func()) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	fn()
	if wasActive {
		r.spinner.Start()
	}
}

// display renders finished stages with their durations followed by the current message
func (r *SpinnerProgressReporter) display(message string) string {
	var display string
	for _, stage := range r.stages {
		if stage.EndTime.IsZero() {
			continue
		}
		display += fmt.Sprintf("%s %s (%s) → ",
			color.GreenString("✓"),
			stage.Stage,
			stage.EndTime.Sub(stage.StartTime).Round(time.Millisecond))
	}
	return display + color.YellowString("●") + " " + message
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
