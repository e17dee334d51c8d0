package progress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

type recordingReporter struct {
	updates  []int
	finished bool
}

func (r *recordingReporter) Update(completed, _ int) { r.updates = append(r.updates, completed) }
func (r *recordingReporter) Finish()                 { r.finished = true }

func TestCounterConcurrentAdds(t *testing.T) {
	t.Parallel()

	rec := &recordingReporter{}
	c := NewCounter(100, rec)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(1)
		}()
	}
	wg.Wait()
	c.Finish()

	assert.Equal(t, 100, c.Completed())
	assert.InDelta(t, 100.0, c.Percent(), 1e-9)
	require.Len(t, rec.updates, 100)
	for i, v := range rec.updates {
		assert.Equal(t, i+1, v, "updates arrive in order")
	}
	assert.True(t, rec.finished)
}

func TestCounterClampsToTotal(t *testing.T) {
	t.Parallel()

	c := NewCounter(3, nil)
	assert.Equal(t, 2, c.Add(2))
	assert.Equal(t, 3, c.Add(6))
	assert.Equal(t, 3, c.Total())
}

func TestPercentOfEmptyRun(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100.0, NewCounter(0, nil).Percent(), 1e-9)
}

func TestNewReporterUsesLogsOffTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, isLog := NewReporter(&buf, 10, "translate").(*logReporter)
	assert.True(t, isLog)
}

func TestLogReporterSteps(t *testing.T) {
	var buf bytes.Buffer
	prev := log.GetLogger()
	log.SetLogger(log.NewLoggerTo(&buf, log.LevelInfo))
	t.Cleanup(func() { log.SetLogger(prev) })

	r := NewLogReporter("translate", 25)
	for i := 1; i <= 8; i++ {
		r.Update(i, 8)
	}

	out := buf.String()
	assert.Contains(t, out, "translate: 25.0% (2/8)")
	assert.Contains(t, out, "translate: 50.0% (4/8)")
	assert.Contains(t, out, "translate: 100.0% (8/8)")
	assert.NotContains(t, out, "(3/8)")
}

func TestBarReporterWritesToWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewBarReporter(&buf, 4, "translate")
	r.Update(4, 4)
	r.Finish()

	assert.Contains(t, buf.String(), "translate")
}
