package translator

import (
	"context"
	"fmt"

	"github.com/MimeLyc/sakura-subtrans/internal/llm"
	"github.com/MimeLyc/sakura-subtrans/internal/sanitize"
	"github.com/MimeLyc/sakura-subtrans/internal/termmap"
	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

// DefaultLineRepeatPenalty is sent with line prompts when no repeat penalty
// is configured. Batch prompts then send none, since every line of a batch
// repeats the same numbering.
const DefaultLineRepeatPenalty = 1.2

// Options are the sampling settings of the two prompt kinds
type Options struct {
	BatchMaxTokens int
	LineMaxTokens  int
	Temperature    float64
	RepeatPenalty  float64 // both kinds; zero keeps the per-kind default

	// Glossary terms found in a prompt's lines are listed in that prompt
	Glossary termmap.TermMap
}

// DefaultOptions returns the settings tuned for Sakura 7B
func DefaultOptions() Options {
	return Options{
		BatchMaxTokens: 1024,
		LineMaxTokens:  150,
		Temperature:    0.1,
	}
}

// Translator runs tasks through the model and writes the bilingual text
// back onto their events. It is safe for concurrent use when its Completer
// is.
type Translator struct {
	completer   llm.Completer
	sanitizer   *sanitize.Sanitizer
	reassembler Reassembler
	opts        Options
}

// New creates a translator for mode. mode must be resolved.
func New(completer llm.Completer, sanitizer *sanitize.Sanitizer, mode Mode, opts Options) *Translator {
	d := DefaultOptions()
	if opts.BatchMaxTokens <= 0 {
		opts.BatchMaxTokens = d.BatchMaxTokens
	}
	if opts.LineMaxTokens <= 0 {
		opts.LineMaxTokens = d.LineMaxTokens
	}
	if opts.Temperature < 0 {
		opts.Temperature = d.Temperature
	}
	return &Translator{
		completer:   completer,
		sanitizer:   sanitizer,
		reassembler: Reassembler{Mode: mode},
		opts:        opts,
	}
}

// Mode returns the mode the translator reassembles for
func (t *Translator) Mode() Mode { return t.reassembler.Mode }

func (t *Translator) batchOptions() *llm.CompletionOptions {
	opts := llm.NewCompletionOptions().
		WithMaxTokens(t.opts.BatchMaxTokens).
		WithTemperature(t.opts.Temperature).
		WithStop(imEnd, "User:")
	if t.opts.RepeatPenalty > 0 {
		opts.WithRepeatPenalty(t.opts.RepeatPenalty)
	}
	return opts
}

func (t *Translator) lineOptions() *llm.CompletionOptions {
	penalty := t.opts.RepeatPenalty
	if penalty <= 0 {
		penalty = DefaultLineRepeatPenalty
	}
	return llm.NewCompletionOptions().
		WithMaxTokens(t.opts.LineMaxTokens).
		WithTemperature(t.opts.Temperature).
		WithRepeatPenalty(penalty).
		WithStop(imEnd, "\n")
}

// TranslateBatch sends batch as one numbered prompt. A failed call or a
// missing index degrades only the lines concerned.
func (t *Translator) TranslateBatch(ctx context.Context, batch []*Task) []Outcome {
	outcomes := make([]Outcome, len(batch))
	if len(batch) == 0 {
		return outcomes
	}

	terms := termmap.Match(t.opts.Glossary, Bodies(batch)).Matched
	raw, err := t.completer.Complete(ctx, BuildBatchPrompt(batch, terms), t.batchOptions())
	if err != nil {
		err = fmt.Errorf("batch #%d-#%d: %w", batch[0].Number, batch[len(batch)-1].Number, err)
		for i, task := range batch {
			outcomes[i] = t.degrade(task, FallbackCallFailed, err)
		}
		return outcomes
	}

	log.Debug("Batch #%d-#%d reply: %q", batch[0].Number, batch[len(batch)-1].Number, raw)

	results := t.sanitizer.ParseBatch(BatchPrimer+raw, Entries(batch))
	for i, task := range batch {
		text, ok := results[i+1]
		switch {
		case task.Body == "":
			outcomes[i] = t.degrade(task, FallbackEmptyBody, nil)
		case !ok:
			outcomes[i] = t.degrade(task, FallbackIndexMissing, nil)
		case text == "" && task.PassThrough:
			outcomes[i] = t.degrade(task, FallbackPassThrough, nil)
		case text == "":
			outcomes[i] = t.degrade(task, FallbackEmptyResult, nil)
		default:
			outcomes[i] = t.apply(task, text)
		}
	}
	return outcomes
}

// TranslateLine translates one task with its own prompt. Lines without an
// ideograph or kana are echoed without a call.
func (t *Translator) TranslateLine(ctx context.Context, task *Task) Outcome {
	switch {
	case task.Body == "":
		return t.degrade(task, FallbackEmptyBody, nil)
	case task.PassThrough:
		return t.degrade(task, FallbackPassThrough, nil)
	}

	terms := termmap.Match(t.opts.Glossary, []string{task.Body}).Matched
	raw, err := t.completer.Complete(ctx, BuildLinePrompt(task, terms), t.lineOptions())
	if err != nil {
		return t.degrade(task, FallbackCallFailed, err)
	}

	text := t.sanitizer.Clean(raw, sanitize.Entry{Body: task.Body, TagCount: len(task.Tags)})
	log.Debug("Line #%d: %q -> %q", task.Number, raw, text)
	if text == "" {
		return t.degrade(task, FallbackEmptyResult, nil)
	}
	return t.apply(task, text)
}

// Fail degrades task after a failure outside the translator, such as a
// recovered panic.
func (t *Translator) Fail(task *Task, err error) Outcome {
	return t.degrade(task, FallbackCallFailed, err)
}

func (t *Translator) apply(task *Task, text string) Outcome {
	task.Event.SetText(t.reassembler.Translated(task, text))
	kind := FallbackNone
	if task.PassThrough {
		kind = FallbackPassThrough
	}
	return Outcome{Number: task.Number, Fallback: kind, SourceFallback: task.SourceFallback}
}

func (t *Translator) degrade(task *Task, kind Fallback, err error) Outcome {
	task.Event.SetText(t.reassembler.Fallback(task, kind))
	if kind.Degraded() {
		if err != nil {
			log.Warn("Line #%d degraded (%s): %v", task.Number, kind, err)
		} else {
			log.Warn("Line #%d degraded (%s)", task.Number, kind)
		}
	}
	return Outcome{Number: task.Number, Fallback: kind, SourceFallback: task.SourceFallback, Err: err}
}
