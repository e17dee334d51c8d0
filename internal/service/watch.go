package service

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/sakura-subtrans/internal/jobs"
	"github.com/MimeLyc/sakura-subtrans/internal/subtitle"
	"github.com/MimeLyc/sakura-subtrans/pkg/file"
	"github.com/MimeLyc/sakura-subtrans/pkg/icron"
	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

// Lookback bounds how far back the first scan of a watcher looks
const Lookback = 7 * 24 * time.Hour

// Watcher translates subtitle files that appear in a directory. A cron
// schedule triggers scans; every new file becomes a job on an in-memory
// queue that runs one file at a time.
type Watcher struct {
	svc      *Service
	dir      string
	cronExpr string
	report   io.Writer

	queue *jobs.Queue
	group singleflight.Group

	mu       sync.Mutex
	lastScan time.Time
}

// NewWatcher watches the directory configured for svc. Reports of finished
// files are rendered to report.
func NewWatcher(svc *Service, report io.Writer) *Watcher {
	if report == nil {
		report = io.Discard
	}
	return &Watcher{
		svc:      svc,
		dir:      svc.cfg.Watch.Dir,
		cronExpr: svc.cfg.Watch.CronExpr,
		report:   report,
		queue:    jobs.NewQueue(1),
	}
}

// Queue exposes the job queue
func (w *Watcher) Queue() *jobs.Queue { return w.queue }

// Run scans once, then on every trigger of the schedule, until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if w.dir == "" {
		return NewError(ErrConfig, "watch directory is required")
	}
	if info, err := os.Stat(w.dir); err != nil || !info.IsDir() {
		return WrapError(err, ErrFileNotFound, "watch directory does not exist").WithContext("dir", w.dir)
	}

	w.queue.Start(ctx, w.execute)
	defer w.queue.Stop()

	c := cron.New(cron.WithParser(icron.Parser))
	if _, err := c.AddFunc(w.cronExpr, func() { w.trigger(ctx) }); err != nil {
		return WrapError(err, ErrConfig, "invalid cron expression").WithContext("cron", w.cronExpr)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	log.Info("Watching %s on %q", w.dir, w.cronExpr)
	w.trigger(ctx)

	<-ctx.Done()
	log.Info("Stopped watching %s", w.dir)
	return nil
}

func (w *Watcher) trigger(ctx context.Context) {
	if _, err := w.Trigger(ctx); err != nil {
		log.Error("Failed to scan %s: %v", w.dir, err)
	}
}

// Trigger runs a scan. Triggers that arrive while a scan is in flight share
// its result.
func (w *Watcher) Trigger(ctx context.Context) (int, error) {
	v, err, _ := w.group.Do("scan", func() (any, error) {
		return w.Scan(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Scan enqueues the subtitle files modified since the previous scan and
// returns how many new jobs were created. Outputs of earlier runs, and
// inputs whose output is already newer than they are, are skipped.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	now := time.Now()
	since, err := w.since(now)
	if err != nil {
		return 0, err
	}
	log.Info("Scanning %s for subtitles modified after %v", w.dir, since.Format(time.DateTime))

	recent, err := file.FindRecentAfter(w.dir, since, func(ext string) bool {
		return subtitle.FormatFromPath(ext).Supported()
	})
	if err != nil {
		return 0, WrapError(err, ErrFileRead, "failed to scan watch directory").WithContext("dir", w.dir)
	}

	created := 0
	for _, path := range recent {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		if file.IsBilingual(path) {
			continue
		}
		output := file.BilingualPath(path)
		if upToDate(path, output) {
			log.Debug("Skipping %s, %s is up to date", path, output)
			continue
		}
		job, ok := w.queue.Enqueue(jobs.EnqueueRequest{Source: "watch", Input: path, Output: output})
		if ok {
			created++
			log.Info("Queued %s as %s", path, job.ID)
		}
	}

	w.mu.Lock()
	w.lastScan = now
	w.mu.Unlock()

	log.Info("Found %d new subtitle files in %s", created, w.dir)
	return created, nil
}

// since returns the start of the scan window. The first scan reaches back to
// the earlier of the previous trigger and Lookback.
func (w *Watcher) since(now time.Time) (time.Time, error) {
	w.mu.Lock()
	last := w.lastScan
	w.mu.Unlock()
	if !last.IsZero() {
		return last, nil
	}

	info, err := icron.GetTriggerInfo(w.cronExpr, now)
	if err != nil {
		return time.Time{}, WrapError(err, ErrConfig, "failed to get cron schedule")
	}
	floor := now.Add(-Lookback)
	if !info.Last.IsZero() && info.Last.Before(floor) {
		return info.Last, nil
	}
	return floor, nil
}

func (w *Watcher) execute(ctx context.Context, job *jobs.FileJob) error {
	res, err := w.svc.TranslateFile(ctx, Request{
		Input:  job.Input,
		Output: job.Output,
		Mode:   w.svc.cfg.TranslateMode(),
	})
	if err != nil {
		NewDefaultErrorHandler().Handle(err)
		return err
	}

	log.Info("Job %s done: %s", job.ID, res.Describe())
	return RenderReport(w.report, res)
}

func upToDate(input, output string) bool {
	in, err := os.Stat(input)
	if err != nil {
		return false
	}
	out, err := os.Stat(output)
	if err != nil {
		return false
	}
	return !out.ModTime().Before(in.ModTime())
}
