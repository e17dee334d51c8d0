package translator

import (
	"fmt"
	"strings"

	"github.com/MimeLyc/sakura-subtrans/internal/segment"
	"github.com/MimeLyc/sakura-subtrans/internal/subtitle"
)

// Mode selects how tasks reach the model
type Mode int

const (
	// ModeAuto picks batch mode for ASS/SSA and line mode otherwise.
	ModeAuto Mode = iota
	// ModeBatch sends numbered batches, one at a time, in order.
	ModeBatch
	// ModeLine sends one completion per line through a worker pool.
	ModeLine
)

func (m Mode) String() string {
	switch m {
	case ModeBatch:
		return "batch"
	case ModeLine:
		return "line"
	default:
		return "auto"
	}
}

// ParseMode maps a flag value to a Mode
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return ModeAuto, nil
	case "batch":
		return ModeBatch, nil
	case "line", "single":
		return ModeLine, nil
	default:
		return ModeAuto, fmt.Errorf("unknown mode %q: want auto, batch or line", value)
	}
}

// Resolve turns ModeAuto into a concrete mode for the given format
func (m Mode) Resolve(format subtitle.Format) Mode {
	if m != ModeAuto {
		return m
	}
	if format.IsSSA() {
		return ModeBatch
	}
	return ModeLine
}

// Fallback records which degradation, if any, produced a line's output
type Fallback int

const (
	FallbackNone Fallback = iota
	// FallbackPassThrough: the body has no ideograph or kana and is echoed.
	FallbackPassThrough
	// FallbackEmptyBody: nothing was left to translate after segmentation.
	FallbackEmptyBody
	// FallbackIndexMissing: the batch reply has no entry for the line.
	FallbackIndexMissing
	// FallbackEmptyResult: sanitation left nothing.
	FallbackEmptyResult
	// FallbackCallFailed: the completion call errored or panicked.
	FallbackCallFailed
)

// Fallbacks lists every kind in report order
var Fallbacks = []Fallback{
	FallbackNone,
	FallbackPassThrough,
	FallbackEmptyBody,
	FallbackIndexMissing,
	FallbackEmptyResult,
	FallbackCallFailed,
}

func (f Fallback) String() string {
	switch f {
	case FallbackNone:
		return "translated"
	case FallbackPassThrough:
		return "pass-through"
	case FallbackEmptyBody:
		return "empty-body"
	case FallbackIndexMissing:
		return "index-missing"
	case FallbackEmptyResult:
		return "empty-result"
	case FallbackCallFailed:
		return "call-failed"
	default:
		return "unknown"
	}
}

// Degraded reports whether the kind means the model output was lost
func (f Fallback) Degraded() bool {
	return f == FallbackIndexMissing || f == FallbackEmptyResult || f == FallbackCallFailed
}

// Task is one non-blank event prepared for translation
type Task struct {
	Number int // 1-based position of the event in the document
	Event  subtitle.Event

	// Source is the cleaned source text written as the first display line.
	Source string
	// SourceFallback is set when no line of the event had kana and the first
	// line was used instead.
	SourceFallback bool
	// PassThrough is set when the body has no ideograph or kana.
	PassThrough bool

	segment.Segment
}

// NewTask reduces and segments the text of e
func NewTask(number int, e subtitle.Event, rules segment.Rules) *Task {
	source, fallback := rules.ReduceSource(e.Text())
	seg := rules.Split(source)
	return &Task{
		Number:         number,
		Event:          e,
		Source:         source,
		SourceFallback: fallback,
		PassThrough:    !rules.HasSourceScript(seg.Body),
		Segment:        seg,
	}
}

// BuildTasks turns every event with non-blank text into a task. Blank
// events are left untouched.
func BuildTasks(events []subtitle.Event, rules segment.Rules) []*Task {
	tasks := make([]*Task, 0, len(events))
	for i, e := range events {
		if strings.TrimSpace(e.Text()) == "" {
			continue
		}
		tasks = append(tasks, NewTask(i+1, e, rules))
	}
	return tasks
}

// Outcome is what happened to one task
type Outcome struct {
	Number         int
	Fallback       Fallback
	SourceFallback bool
	Err            error
}

// Report summarizes the outcomes of a run
type Report struct {
	Outcomes []Outcome
}

// NewReport collects outcomes into a report
func NewReport(outcomes []Outcome) *Report {
	return &Report{Outcomes: outcomes}
}

// Total returns the number of tasks
func (r *Report) Total() int { return len(r.Outcomes) }

// Count returns how many tasks ended with kind
func (r *Report) Count(kind Fallback) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Fallback == kind {
			n++
		}
	}
	return n
}

// SourceFallbacks returns how many tasks used the first-line source fallback
func (r *Report) SourceFallbacks() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.SourceFallback {
			n++
		}
	}
	return n
}

// Degraded returns the outcomes whose model output was lost
func (r *Report) Degraded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Fallback.Degraded() {
			out = append(out, o)
		}
	}
	return out
}
