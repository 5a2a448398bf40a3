package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/bandweather/internal/observe"
)

var (
	ErrAlreadyRegistered = errors.New("task already registered")
	ErrInvalidTrigger    = errors.New("invalid trigger")
)

// Task is the entry point bound to a trigger. ctx is cancelled when the
// registry stops or the run timeout elapses.
type Task func(ctx context.Context)

type registration struct {
	trigger Trigger
	job     *gocron.Job
}

// Registry owns the background triggers of the process. A task never overlaps
// itself; different tasks may run concurrently.
type Registry struct {
	mu        sync.Mutex
	scheduler *gocron.Scheduler
	tasks     map[string]*registration
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	l *observe.Logger
}

// NewRegistry returns a stopped registry. Each task run is bounded by
// runTimeout when it is positive.
func NewRegistry(runTimeout time.Duration, l *observe.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		scheduler: gocron.NewScheduler(time.UTC),
		tasks:     make(map[string]*registration),
		timeout:   runTimeout,
		ctx:       ctx,
		cancel:    cancel,
		l:         l,
	}
}

// Register binds task to trigger under name.
func (r *Registry) Register(name string, trigger Trigger, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}

	var (
		job *gocron.Job
		err error
	)
	switch t := trigger.(type) {
	case TimerTrigger:
		if t.Interval <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTrigger, t)
		}
		job, err = r.scheduler.Every(t.Interval).WaitForSchedule().SingletonMode().Tag(name).Do(func() {
			r.run(name, task)
		})
	case TimeZoneTrigger:
		poll := t.PollInterval
		if poll <= 0 {
			poll = defaultZonePoll
		}
		watch := newZoneWatch(t.Zone)
		job, err = r.scheduler.Every(poll).WaitForSchedule().SingletonMode().Tag(name).Do(func() {
			if watch.changed() {
				r.l.Info("time zone changed", map[string]any{"task": name, "zone": watch.current()})
				r.run(name, task)
			}
		})
	default:
		return fmt.Errorf("%w: %T", ErrInvalidTrigger, trigger)
	}
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}

	r.tasks[name] = &registration{trigger: trigger, job: job}
	r.l.Info("task registered", map[string]any{"task": name, "trigger": trigger.String()})
	return nil
}

// Unregister removes the task. It reports whether name was registered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[name]; !ok {
		return false
	}
	if err := r.scheduler.RemoveByTag(name); err != nil {
		r.l.Warning("remove scheduled job failed", map[string]any{"task": name, "error": err.Error()})
	}
	delete(r.tasks, name)

	r.l.Info("task unregistered", map[string]any{"task": name})
	return true
}

func (r *Registry) Registered(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[name]
	return ok
}

// Names returns the registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins firing triggers in the background.
func (r *Registry) Start() {
	r.scheduler.StartAsync()
}

// Stop cancels running tasks and stops all triggers.
func (r *Registry) Stop() {
	r.cancel()
	r.scheduler.Stop()
}

func (r *Registry) run(name string, task Task) {
	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	r.l.Info("running task", map[string]any{"task": name})

	defer func() {
		if p := recover(); p != nil {
			r.l.Error(fmt.Errorf("task %s panicked: %v", name, p))
		}
	}()

	task(ctx)

	r.l.Info("completed task", map[string]any{"task": name, "duration_ms": time.Since(start).Milliseconds()})
}

// zoneWatch remembers the last observed zone.
type zoneWatch struct {
	mu   sync.Mutex
	zone func() string
	last string
}

func newZoneWatch(zone func() string) *zoneWatch {
	if zone == nil {
		zone = SystemZone
	}
	return &zoneWatch{zone: zone, last: zone()}
}

func (w *zoneWatch) changed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	z := w.zone()
	if z == w.last {
		return false
	}
	w.last = z
	return true
}

func (w *zoneWatch) current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
