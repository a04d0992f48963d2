package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/studyhub-notify/internal/logging"
)

// JobState represents the current state of a polling job.
type JobState int

const (
	JobIdle JobState = iota
	JobRunning
	JobBackoff
)

func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "running"
	case JobBackoff:
		return "backoff"
	default:
		return "idle"
	}
}

// JobStatus holds the bookkeeping for a single job.
type JobStatus struct {
	Name        string
	State       JobState
	LastRun     time.Time
	LastSuccess time.Time
	Failures    int
	NextDelay   time.Duration
}

// ResultMsg is a tea.Msg sent when a job run completes. Msg is whatever
// the job produced; Err is the run's error, if any.
type ResultMsg struct {
	Job string
	Msg tea.Msg
	Err error
}

// Job is a unit of periodic work.
type Job struct {
	Name string

	// Interval is the delay between successful runs.
	Interval time.Duration

	// MaxBackoff caps the delay after consecutive failures.
	MaxBackoff time.Duration

	// Run performs one poll. The context is cancelled when the poller stops.
	Run func(ctx context.Context) (tea.Msg, error)
}

// jobEntry holds a registered job and its manual trigger.
type jobEntry struct {
	job     Job
	trigger chan struct{}
}

// Poller runs registered jobs in the background and delivers their
// results to the Bubble Tea runtime. Each job has its own goroutine, so a
// job never overlaps with itself; manual triggers received while a run is
// in flight collapse into a single follow-up run.
type Poller struct {
	jobs     []jobEntry
	statuses map[string]*JobStatus
	resultCh chan ResultMsg
	ctx      context.Context
	cancel   context.CancelFunc
	mu       gosync.Mutex
	running  bool
	stopped  bool
}

// New creates a new Poller.
func New() *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		statuses: make(map[string]*JobStatus),
		resultCh: make(chan ResultMsg, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds a job. Jobs registered after Start are not run.
func (p *Poller) Register(job Job) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if job.Interval <= 0 {
		job.Interval = time.Minute
	}
	if job.MaxBackoff < job.Interval {
		job.MaxBackoff = job.Interval
	}

	p.jobs = append(p.jobs, jobEntry{
		job:     job,
		trigger: make(chan struct{}, 1),
	})
	p.statuses[job.Name] = &JobStatus{
		Name:      job.Name,
		State:     JobIdle,
		NextDelay: job.Interval,
	}
}

// Len returns the number of registered jobs.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

// Start launches a goroutine per job and returns a command that waits for
// the first result. The first run of each job happens after its interval;
// callers do their own initial fetch.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	jobs := make([]jobEntry, len(p.jobs))
	copy(jobs, p.jobs)
	p.mu.Unlock()

	for _, entry := range jobs {
		go p.loop(entry)
	}

	return p.waitForResult()
}

// Stop cancels in-flight runs and halts all job goroutines. Results that
// arrive after Stop are discarded. A stopped poller cannot be restarted.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	p.running = false
	p.cancel()
}

// Trigger requests an immediate run of the named job. It never blocks; if
// a run is already pending the request is dropped.
func (p *Poller) Trigger(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.jobs {
		if entry.job.Name != name {
			continue
		}
		select {
		case entry.trigger <- struct{}{}:
		default:
		}
	}
}

// Running reports whether Start has been called and Stop has not.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Status returns a snapshot of the named job's status.
func (p *Poller) Status(name string) (JobStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.statuses[name]
	if !ok {
		return JobStatus{}, false
	}
	return *s, true
}

// loop runs the polling loop for a single job.
func (p *Poller) loop(entry jobEntry) {
	job := entry.job
	log := logging.For("poller").WithField("job", job.Name)

	timer := time.NewTimer(job.Interval)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
		case <-entry.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		delay := p.runOnce(job)
		log.Debugf("next run in %s", delay)
		timer.Reset(delay)
	}
}

// runOnce executes a job, records its status and publishes the result.
// It returns the delay before the next scheduled run.
func (p *Poller) runOnce(job Job) time.Duration {
	p.setState(job.Name, JobRunning)

	msg, err := job.Run(p.ctx)

	if p.ctx.Err() != nil {
		// Stopped mid-flight; the view that asked for this is gone.
		return job.Interval
	}

	delay := p.finish(job, err)
	if err != nil {
		logging.For("poller").WithField("job", job.Name).
			Debugf("run failed, backing off %s: %v", delay, err)
	}

	p.sendResult(ResultMsg{Job: job.Name, Msg: msg, Err: err})
	return delay
}

// setState updates the state of a job.
func (p *Poller) setState(name string, state JobState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.statuses[name]; ok {
		s.State = state
	}
}

// finish records the outcome of a run and computes the next delay.
func (p *Poller) finish(job Job, err error) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.statuses[job.Name]
	if !ok {
		return job.Interval
	}

	now := time.Now()
	s.LastRun = now
	if err != nil {
		s.Failures++
		s.State = JobBackoff
	} else {
		s.Failures = 0
		s.State = JobIdle
		s.LastSuccess = now
	}
	s.NextDelay = Backoff(job.Interval, job.MaxBackoff, s.Failures)
	return s.NextDelay
}

// Backoff returns the delay before the next run: the interval doubled for
// each consecutive failure, capped at max.
func Backoff(interval, max time.Duration, failures int) time.Duration {
	if max < interval {
		max = interval
	}
	delay := interval
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	return delay
}

// sendResult delivers a result without blocking the job goroutine.
func (p *Poller) sendResult(msg ResultMsg) {
	select {
	case p.resultCh <- msg:
	case <-p.ctx.Done():
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel, or returns nil once the poller is stopped.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.ctx.Done():
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next job result.
// This should be called after processing a ResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
