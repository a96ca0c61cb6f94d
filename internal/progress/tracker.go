package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker tracks load progress, one unit per inserted batch
type Tracker struct {
	out       io.Writer
	bar       *progressbar.ProgressBar
	total     int64
	current   atomic.Int64
	startTime time.Time
}

// New creates a new progress tracker writing to out (stderr when nil)
func New(out io.Writer) *Tracker {
	if out == nil {
		out = os.Stderr
	}
	return &Tracker{
		out:       out,
		startTime: time.Now(),
	}
}

// Start resets the tracker for a load of total batches into table
func (t *Tracker) Start(table string, total int) {
	t.total = int64(total)
	t.current.Store(0)
	t.startTime = time.Now()
	t.bar = nil
	if total <= 0 {
		return
	}
	t.bar = progressbar.NewOptions64(
		t.total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription(fmt.Sprintf("Inserting %s rows", table)),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("batches"),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Add increments the progress counter
func (t *Tracker) Add(n int) {
	t.current.Add(int64(n))
	if t.bar != nil {
		t.bar.Add(n)
	}
}

// Current returns the number of batches completed
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Total returns the expected number of batches
func (t *Tracker) Total() int64 {
	return t.total
}

// Finish marks the progress as complete and prints the completion notice
func (t *Tracker) Finish(table string) {
	if t.bar != nil {
		t.bar.Finish()
		fmt.Fprintln(t.out)
	}

	elapsed := time.Since(t.startTime)
	fmt.Fprintf(t.out, "%s has been successfully inserted (%d batches in %s)\n",
		table, t.current.Load(), elapsed.Round(time.Millisecond))
}
