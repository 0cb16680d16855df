// Package driver schedules periodic reads of the kind the user is looking
// at and publishes the results on a channel. Reads run in their own
// goroutines, so neither the ticker nor the caller ever waits on the runtime.
package driver

import (
	"context"
	"sync"
	"time"

	"github.com/dockman-dev/dockman/internal/logger"
	"github.com/dockman-dev/dockman/internal/resource"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 5 * time.Second

// Source is what the driver reads from. *engine.Engine satisfies it.
type Source interface {
	Read(ctx context.Context, kind resource.Kind) ([]resource.Record, error)
	Refresh(ctx context.Context, kind resource.Kind) ([]resource.Record, error)
}

// Update is the outcome of one read.
type Update struct {
	Kind    resource.Kind
	Records []resource.Record
	Err     error
	At      time.Time
	// Forced is set for reads requested through Refresh.
	Forced bool
}

// Driver owns the refresh ticker for one active kind.
type Driver struct {
	src      Source
	interval time.Duration
	log      logger.Logger

	mu        sync.Mutex
	active    resource.Kind
	pending   bool
	force     bool
	seq       uint64
	published [resource.NumKinds]uint64

	wake    chan struct{}
	updates chan Update
}

// Option configures a Driver.
type Option func(*Driver)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(dr *Driver) {
		if l != nil {
			dr.log = l
		}
	}
}

// New creates a driver reading initial from src.
func New(src Source, initial resource.Kind, opts ...Option) *Driver {
	d := &Driver{
		src:      src,
		interval: DefaultInterval,
		log:      logger.Noop(),
		active:   initial,
		wake:     make(chan struct{}, 1),
		updates:  make(chan Update, 8),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Updates delivers read results. It is closed when Run returns.
func (d *Driver) Updates() <-chan Update {
	return d.updates
}

// Active returns the kind currently being refreshed.
func (d *Driver) Active() resource.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Interval returns the tick period.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// SetActive switches the refreshed kind and requests an immediate read.
func (d *Driver) SetActive(kind resource.Kind) {
	d.mu.Lock()
	d.active = kind
	d.pending = true
	d.mu.Unlock()
	d.poke()
}

// Refresh requests an immediate read of the active kind that bypasses the
// cache.
func (d *Driver) Refresh() {
	d.mu.Lock()
	d.pending = true
	d.force = true
	d.mu.Unlock()
	d.poke()
}

func (d *Driver) poke() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run reads the active kind immediately and then on every tick until ctx
// ends. It closes the updates channel after in-flight reads finish.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		close(d.updates)
	}()

	launch := func(force bool) {
		kind, seq := d.next()
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.read(ctx, kind, seq, force)
		}()
	}

	launch(false)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			launch(false)
		case <-d.wake:
			d.mu.Lock()
			pending, force := d.pending, d.force
			d.pending, d.force = false, false
			d.mu.Unlock()
			if pending {
				ticker.Reset(d.interval)
				launch(force)
			}
		}
	}
}

func (d *Driver) next() (resource.Kind, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	return d.active, d.seq
}

func (d *Driver) read(ctx context.Context, kind resource.Kind, seq uint64, force bool) {
	var (
		records []resource.Record
		err     error
	)
	if force {
		records, err = d.src.Refresh(ctx, kind)
	} else {
		records, err = d.src.Read(ctx, kind)
	}
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		d.log.Debug("refresh %s: %v", kind, err)
	}

	// A slower, older read must not replace a newer result.
	d.mu.Lock()
	if seq < d.published[kind] {
		d.mu.Unlock()
		return
	}
	d.published[kind] = seq
	d.mu.Unlock()

	u := Update{Kind: kind, Records: records, Err: err, At: time.Now(), Forced: force}
	select {
	case d.updates <- u:
	case <-ctx.Done():
	}
}
