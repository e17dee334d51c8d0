package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/MimeLyc/sakura-subtrans/internal/config"
	"github.com/MimeLyc/sakura-subtrans/internal/llm"
	"github.com/MimeLyc/sakura-subtrans/internal/progress"
	"github.com/MimeLyc/sakura-subtrans/internal/sanitize"
	"github.com/MimeLyc/sakura-subtrans/internal/segment"
	"github.com/MimeLyc/sakura-subtrans/internal/subtitle"
	"github.com/MimeLyc/sakura-subtrans/internal/termmap"
	"github.com/MimeLyc/sakura-subtrans/internal/translator"
	"github.com/MimeLyc/sakura-subtrans/pkg/file"
	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

// Service turns subtitle files into bilingual ones. One Service shares one
// completer, so all files it translates, concurrently or not, queue on the
// same gate.
type Service struct {
	cfg       *config.Config
	completer llm.Completer
	sanitizer *sanitize.Sanitizer
	progress  io.Writer
}

type Option func(*Service)

// WithProgressWriter sets where progress is rendered (default: stderr)
func WithProgressWriter(w io.Writer) Option {
	return func(s *Service) { s.progress = w }
}

// New creates a service around completer as given. Callers that share a
// server wrap completer in an llm.Gate first, as NewFromConfig does.
func New(cfg *config.Config, completer llm.Completer, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		completer: completer,
		sanitizer: sanitize.New(cfg.Sanitize),
		progress:  os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompleterFactory builds the completion backend described by cfg
type CompleterFactory func(cfg *config.Config) (llm.Completer, error)

// NewClientCompleter is the CompleterFactory of the configured
// OpenAI-compatible server.
func NewClientCompleter(cfg *config.Config) (llm.Completer, error) {
	return llm.NewClient(&cfg.LLM)
}

// NewFromConfig builds the completer with factory (NewClientCompleter when
// nil) and gates it so one request is in flight per process.
func NewFromConfig(cfg *config.Config, factory CompleterFactory, opts ...Option) (*Service, error) {
	if factory == nil {
		factory = NewClientCompleter
	}
	completer, err := factory(cfg)
	if err != nil {
		return nil, WrapError(err, ErrConfig, "failed to create LLM client")
	}
	return New(cfg, llm.NewGate().Wrap(completer), opts...), nil
}

// Request names one file to translate
type Request struct {
	Input  string
	Output string // default: <name>.bilingual<ext> next to Input
	Mode   translator.Mode
}

// Result describes a finished run
type Result struct {
	RunID    string
	Input    string
	Output   string
	Format   subtitle.Format
	Mode     translator.Mode
	Language language.Tag
	Elapsed  time.Duration
	Report   *translator.Report
}

// TranslateFile translates every non-blank event of req.Input and writes the
// bilingual document to req.Output. Lines that cannot be translated degrade
// on their own; only run-level failures are returned.
func (s *Service) TranslateFile(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	if req.Input == "" {
		return nil, NewError(ErrValidation, "input path is required")
	}
	if req.Output == "" {
		req.Output = file.BilingualPath(req.Input)
	}
	if filepath.Clean(req.Output) == filepath.Clean(req.Input) {
		return nil, NewError(ErrValidation, "output must differ from input").WithContext("path", req.Input)
	}

	doc, err := openDocument(req.Input)
	if err != nil {
		return nil, err
	}

	lock := flock.New(req.Output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, WrapError(err, ErrFileWrite, "failed to lock output").WithContext("output", req.Output)
	}
	if !locked {
		return nil, NewError(ErrLocked, "output is being written by another run").WithContext("output", req.Output)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	events := doc.Events()
	lang := subtitle.DetectLanguage(events)
	if lang != language.Und && lang != language.Japanese {
		log.Warn("[%s] %s looks like %s, not Japanese; translating anyway", runID, req.Input, lang)
	}

	mode := req.Mode.Resolve(doc.Format)
	tasks := translator.BuildTasks(events, segment.DefaultRules)
	log.Info("[%s] Translating %s (%s, %d lines, %s mode) to %s",
		runID, req.Input, doc.Format, len(tasks), mode, s.cfg.Translate.TargetLanguage)

	glossary, err := s.loadGlossary(req.Input)
	if err != nil {
		return nil, err
	}

	tr := translator.New(s.completer, s.sanitizer, mode, translator.Options{
		BatchMaxTokens: s.cfg.LLM.MaxTokens,
		LineMaxTokens:  s.cfg.LineMaxTokens(),
		Temperature:    s.cfg.LLM.Temperature,
		RepeatPenalty:  s.cfg.LLM.RepeatPenalty,
		Glossary:       glossary,
	})
	counter := progress.NewCounter(len(tasks),
		progress.NewReporter(s.progress, len(tasks), filepath.Base(req.Input)))

	var outcomes []translator.Outcome
	if mode == translator.ModeBatch {
		outcomes = s.runBatches(ctx, tr, tasks, counter)
	} else {
		outcomes = s.runLines(ctx, tr, tasks, counter)
	}
	counter.Finish()

	if err := ctx.Err(); err != nil {
		return nil, WrapError(err, ErrTranslation, "translation interrupted").WithContext("input", req.Input)
	}

	if err := doc.Write(req.Output); err != nil {
		return nil, WrapError(err, ErrFileWrite, "failed to write output").WithContext("output", req.Output)
	}

	res := &Result{
		RunID:    runID,
		Input:    req.Input,
		Output:   req.Output,
		Format:   doc.Format,
		Mode:     mode,
		Language: lang,
		Elapsed:  time.Since(start),
		Report:   translator.NewReport(outcomes),
	}
	log.Info("[%s] Finished %s -> %s in %s (%d degraded)",
		runID, req.Input, req.Output, res.Elapsed.Round(time.Millisecond), len(res.Report.Degraded()))
	return res, nil
}

// loadGlossary reads the configured term map, or the closest one above
// input. No term map is not an error.
func (s *Service) loadGlossary(input string) (termmap.TermMap, error) {
	path := s.cfg.Translate.Glossary
	if path == "" {
		path = termmap.FindInAncestors(filepath.Dir(input), language.Japanese.String(), s.cfg.Translate.TargetLanguage.String())
	}
	if path == "" {
		return nil, nil
	}

	tm, err := termmap.Load(path)
	if err != nil {
		return nil, WrapError(err, ErrParse, "failed to read glossary").WithContext("glossary", path)
	}
	log.Info("Using glossary %s (%d terms)", path, len(tm))
	return tm, nil
}

func openDocument(path string) (*subtitle.Document, error) {
	doc, err := subtitle.Open(path)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, subtitle.ErrNotExist):
		return nil, WrapError(err, ErrFileNotFound, "subtitle file not found").WithContext("input", path)
	case errors.Is(err, subtitle.ErrUnsupportedFormat):
		return nil, WrapError(err, ErrUnsupported, "unsupported subtitle format").WithContext("input", path)
	default:
		return nil, WrapError(err, ErrParse, "failed to read subtitle file").WithContext("input", path)
	}
}

// runBatches sends the tasks in consecutive batches, one at a time and in
// order, so earlier lines are written before later ones are requested.
func (s *Service) runBatches(ctx context.Context, tr *translator.Translator, tasks []*translator.Task, counter *progress.Counter) []translator.Outcome {
	size := s.cfg.Translate.BatchSize
	if size <= 0 {
		size = config.DefaultBatchSize
	}

	outcomes := make([]translator.Outcome, 0, len(tasks))
	for start := 0; start < len(tasks); start += size {
		batch := tasks[start:min(start+size, len(tasks))]

		var got []translator.Outcome
		err := SafeExecute(func() error {
			got = tr.TranslateBatch(ctx, batch)
			return nil
		})
		if err != nil {
			got = make([]translator.Outcome, len(batch))
			for i, task := range batch {
				got[i] = tr.Fail(task, err)
			}
		}

		outcomes = append(outcomes, got...)
		counter.Add(len(batch))
	}
	return outcomes
}

// runLines translates every task on its own, at most Workers at a time.
// Each task only writes its own event and outcome slot.
func (s *Service) runLines(ctx context.Context, tr *translator.Translator, tasks []*translator.Task, counter *progress.Counter) []translator.Outcome {
	workers := s.cfg.Translate.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	outcomes := make([]translator.Outcome, len(tasks))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, task := range tasks {
		g.Go(func() error {
			err := SafeExecute(func() error {
				outcomes[i] = tr.TranslateLine(ctx, task)
				return nil
			})
			if err != nil {
				outcomes[i] = tr.Fail(task, err)
			}
			counter.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Describe is a one-line summary of res for logs
func (res *Result) Describe() string {
	return fmt.Sprintf("%s: %d lines, %d degraded, %s", filepath.Base(res.Output),
		res.Report.Total(), len(res.Report.Degraded()), res.Elapsed.Round(time.Millisecond))
}
