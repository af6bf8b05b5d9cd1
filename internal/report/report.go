package report

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Status is the outcome of a single idempotent step on one artifact.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusPresent Status = "present"
	StatusFailed  Status = "failed"

	// StatusPassed marks a read-only check that succeeded.
	StatusPassed Status = "passed"
)

// Level maps a status to the level its line is printed at.
func (s Status) Level() Level {
	switch s {
	case StatusCreated, StatusUpdated, StatusPassed:
		return LevelSuccess
	case StatusPresent:
		return LevelSkip
	case StatusFailed:
		return LevelError
	default:
		return LevelInfo
	}
}

// Result records what a step did to one artifact.
type Result struct {
	Step     string `json:"step"`
	Artifact string `json:"artifact"`
	Status   Status `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

// Message is the human-readable status line for the result.
func (r Result) Message() string {
	var msg string
	switch r.Status {
	case StatusCreated:
		msg = "Created " + r.Artifact
	case StatusUpdated:
		msg = "Updated " + r.Artifact
	case StatusPresent:
		msg = r.Artifact + " already exists"
	case StatusFailed:
		msg = "Could not set up " + r.Artifact
	case StatusPassed:
		msg = r.Artifact
	default:
		msg = r.Artifact
	}
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	return msg
}

// Report is the ordered list of results from one run.
type Report struct {
	Results []Result `json:"results"`
}

// Count returns how many results have the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the failed results in run order.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Find returns the first result for step and artifact.
func (r *Report) Find(step, artifact string) (Result, bool) {
	for _, res := range r.Results {
		if res.Step == step && res.Artifact == artifact {
			return res, true
		}
	}
	return Result{}, false
}

// Summary returns a one-line tally, e.g. "12 created, 0 updated, 3 already present, 0 failed".
func (r *Report) Summary() string {
	return printer.Sprintf("%d created, %d updated, %d already present, %d failed",
		r.Count(StatusCreated), r.Count(StatusUpdated), r.Count(StatusPresent), r.Count(StatusFailed))
}

// Printer writes formatted status output to a writer.
type Printer struct {
	w io.Writer
	f Formatter
}

// NewPrinter returns a Printer that colours output when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, f: NewFormatter(w)}
}

// NewPlainPrinter returns a Printer that never colours output.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w, f: PlainFormatter()}
}

// Banner prints a boxed banner. Every Printer method is a no-op on a nil
// Printer.
func (p *Printer) Banner(lines ...string) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w, p.f.Banner(lines...))
}

// Section prints a step heading.
func (p *Printer) Section(title string) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w, p.f.Heading(title))
}

// Line prints an indented status line.
func (p *Printer) Line(level Level, format string, args ...any) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w, "  "+p.f.Format(level, fmt.Sprintf(format, args...)))
}

// Recorder collects step results and prints each one as it arrives.
type Recorder struct {
	p       *Printer
	results []Result
}

// NewRecorder returns a Recorder printing through p. A nil p records silently.
func NewRecorder(p *Printer) *Recorder {
	return &Recorder{p: p}
}

// Printer returns the printer the recorder writes through, or nil.
func (r *Recorder) Printer() *Printer { return r.p }

// Section prints a heading.
func (r *Recorder) Section(title string) {
	r.p.Section(title)
}

// Record appends res and prints its status line.
func (r *Recorder) Record(res Result) {
	r.results = append(r.results, res)
	r.p.Line(res.Status.Level(), "%s", res.Message())
}

// Created records a newly created artifact.
func (r *Recorder) Created(step, artifact string) {
	r.Record(Result{Step: step, Artifact: artifact, Status: StatusCreated})
}

// Updated records an artifact that existed but was brought in line.
func (r *Recorder) Updated(step, artifact, detail string) {
	r.Record(Result{Step: step, Artifact: artifact, Status: StatusUpdated, Detail: detail})
}

// Present records an artifact that already satisfied the step.
func (r *Recorder) Present(step, artifact string) {
	r.Record(Result{Step: step, Artifact: artifact, Status: StatusPresent})
}

// Passed records a successful check.
func (r *Recorder) Passed(step, artifact, detail string) {
	r.Record(Result{Step: step, Artifact: artifact, Status: StatusPassed, Detail: detail})
}

// Failed records a non-fatal failure.
func (r *Recorder) Failed(step, artifact string, err error) {
	r.Record(Result{Step: step, Artifact: artifact, Status: StatusFailed, Detail: err.Error()})
}

// Report returns a snapshot of everything recorded so far.
func (r *Recorder) Report() *Report {
	return &Report{Results: append([]Result(nil), r.results...)}
}
