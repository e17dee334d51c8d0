// Package progress tracks how many subtitle lines of a run are done and
// renders that count either as a terminal bar or as periodic log lines.
package progress

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

// Reporter renders progress updates. Implementations are called with the
// counter lock held, so updates arrive in order.
type Reporter interface {
	Update(completed, total int)
	Finish()
}

// Counter is the completed/total pair of one run.
type Counter struct {
	mu        sync.Mutex
	completed int
	total     int
	reporter  Reporter
}

// NewCounter returns a counter for total lines. A nil reporter discards
// updates.
func NewCounter(total int, reporter Reporter) *Counter {
	if reporter == nil {
		reporter = Discard
	}
	return &Counter{total: total, reporter: reporter}
}

// Add advances the counter by n and returns the new completed count.
func (c *Counter) Add(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.completed = min(c.completed+n, c.total)
	c.reporter.Update(c.completed, c.total)
	return c.completed
}

// Completed returns the number of finished lines.
func (c *Counter) Completed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Total returns the number of lines in the run.
func (c *Counter) Total() int { return c.total }

// Percent returns the completed share in percent.
func (c *Counter) Percent() float64 {
	return percent(c.Completed(), c.total)
}

// Finish tells the reporter the run is over.
func (c *Counter) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reporter.Finish()
}

func percent(completed, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(completed) / float64(total) * 100
}

type discard struct{}

func (discard) Update(int, int) {}
func (discard) Finish()         {}

// Discard is a Reporter that renders nothing.
var Discard Reporter = discard{}

// NewReporter returns a bar on terminals and a log reporter otherwise.
func NewReporter(w io.Writer, total int, description string) Reporter {
	if isTerminal(w) {
		return NewBarReporter(w, total, description)
	}
	return NewLogReporter(description, 10)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barReporter struct {
	bar *progressbar.ProgressBar
}

// NewBarReporter renders progress as a progressbar on w.
func NewBarReporter(w io.Writer, total int, description string) Reporter {
	return &barReporter{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetWidth(30),
		),
	}
}

func (r *barReporter) Update(completed, _ int) {
	_ = r.bar.Set(completed)
}

func (r *barReporter) Finish() {
	_ = r.bar.Finish()
}

type logReporter struct {
	description string
	step        float64
	next        float64
}

// NewLogReporter logs an info line every time progress crosses another
// stepPercent.
func NewLogReporter(description string, stepPercent float64) Reporter {
	if stepPercent <= 0 {
		stepPercent = 10
	}
	return &logReporter{description: description, step: stepPercent, next: stepPercent}
}

func (r *logReporter) Update(completed, total int) {
	p := percent(completed, total)
	if p < r.next {
		return
	}
	for r.next <= p {
		r.next += r.step
	}
	log.Info("%s: %.1f%% (%d/%d)", r.description, p, completed, total)
}

func (r *logReporter) Finish() {}
