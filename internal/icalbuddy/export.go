package icalbuddy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	appLog "datestack/internal/log"
)

const (
	DefaultBinary    = "icalBuddy"
	DefaultTimeout   = 30 * time.Second
	DefaultDaysAhead = 14

	timeFormat = "%Y-%m-%dT%H:%M:%S"
	dateFormat = "%Y-%m-%d"
	// properties lists the fields in the order the parser expects them.
	properties = "title,datetime,location,notes,uid"
)

var (
	ErrNotInstalled = errors.New("icalBuddy not found")
	ErrTimeout      = errors.New("icalBuddy timed out")
)

// ExitError reports a non-zero exit of the export command.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("icalBuddy failed (exit %d): %s", e.Code, e.Stderr)
}

// Runner executes the export command. ExecRunner is the production
// implementation; tests substitute their own.
type Runner interface {
	LookPath(name string) (string, error)
	// Run returns the captured standard output. A non-zero exit is reported
	// as *ExitError.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return nil, &ExitError{Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Exporter invokes icalBuddy with the options the parser depends on.
type Exporter struct {
	Binary           string
	DaysAhead        int
	ExcludeCalendars []string
	Timeout          time.Duration
	Runner           Runner
}

// NewExporter returns an Exporter using the system icalBuddy binary.
func NewExporter(daysAhead int, excludeCalendars []string) *Exporter {
	return &Exporter{
		Binary:           DefaultBinary,
		DaysAhead:        daysAhead,
		ExcludeCalendars: excludeCalendars,
		Timeout:          DefaultTimeout,
		Runner:           ExecRunner{},
	}
}

// Available reports whether the export binary can be found on PATH.
func (e *Exporter) Available() bool {
	_, err := e.runner().LookPath(e.binary())
	return err == nil
}

// Args builds the command line for one pass. The timed pass excludes
// all-day events and the all-day pass requests only them; options must come
// before the trailing eventsToday command.
func (e *Exporter) Args(allDay bool) []string {
	args := []string{"-f", "-nrd"}
	if allDay {
		args = append(args, "-oa")
	} else {
		args = append(args, "-ea")
	}
	args = append(args,
		"-tf", timeFormat,
		"-df", dateFormat,
		"-iep", properties,
		"-po", properties,
		"-b", BulletDelimiter,
		"-ps", "|"+PropertyDelimiter+"|",
		"-sc",
	)
	for _, cal := range e.ExcludeCalendars {
		args = append(args, "-ec", cal)
	}

	days := e.DaysAhead
	if days <= 0 {
		days = DefaultDaysAhead
	}
	return append(args, "eventsToday+"+strconv.Itoa(days))
}

// Export runs one pass and returns its untouched standard output.
func (e *Exporter) Export(ctx context.Context, allDay bool) (string, error) {
	if !e.Available() {
		return "", ErrNotInstalled
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	out, err := e.runner().Run(runCtx, e.binary(), e.Args(allDay)...)
	if err != nil {
		var exitErr *ExitError
		switch {
		case errors.As(err, &exitErr):
			return "", exitErr
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return "", ErrTimeout
		case errors.Is(err, exec.ErrNotFound):
			return "", ErrNotInstalled
		}
		return "", fmt.Errorf("running %s: %w", e.binary(), err)
	}

	appLog.Debug("icalbuddy export finished",
		"all_day", allDay,
		"bytes", len(out),
		"duration", time.Since(started).String(),
	)
	return string(out), nil
}

func (e *Exporter) binary() string {
	if e.Binary == "" {
		return DefaultBinary
	}
	return e.Binary
}

func (e *Exporter) runner() Runner {
	if e.Runner == nil {
		return ExecRunner{}
	}
	return e.Runner
}
