// Package engine is dockman's state-polling core. It serves per-kind
// snapshots from a short-lived cache, fetches from the runtime when a slot
// is stale, collapses concurrent fetches of the same kind into one, and
// invalidates a kind's slot whenever a lifecycle command changes it.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dockman-dev/dockman/internal/cache"
	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/logger"
	"github.com/dockman-dev/dockman/internal/metrics"
	"github.com/dockman-dev/dockman/internal/resource"
	"github.com/dockman-dev/dockman/internal/runtime"
)

// Defaults for engine options.
const (
	DefaultCallTimeout      = 30 * time.Second
	DefaultStopTimeout      = 10 * time.Second
	DefaultStatsConcurrency = 8
)

type loader func(ctx context.Context) ([]resource.Record, error)

// Engine mediates every read and mutation of runtime state.
// It is safe for concurrent use.
type Engine struct {
	gw    runtime.Gateway
	cache *cache.Cache
	group singleflight.Group

	loaders [resource.NumKinds]loader

	callTimeout      time.Duration
	stopTimeout      time.Duration
	statsConcurrency int
	allContainers    bool
	log              logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCallTimeout bounds each runtime call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

// WithStopTimeout sets the grace period the runtime gives a container to
// exit on stop and restart.
func WithStopTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.stopTimeout = d
		}
	}
}

// WithStatsConcurrency bounds parallel stats calls during a container fetch.
func WithStatsConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.statsConcurrency = n
		}
	}
}

// WithAllContainers includes stopped containers in container snapshots.
func WithAllContainers(all bool) Option {
	return func(e *Engine) {
		e.allContainers = all
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCache supplies the cache, typically one built with a test clock.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// New creates an engine over gw with an empty cache.
func New(gw runtime.Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:               gw,
		callTimeout:      DefaultCallTimeout,
		stopTimeout:      DefaultStopTimeout,
		statsConcurrency: DefaultStatsConcurrency,
		allContainers:    true,
		log:              logger.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.New()
	}

	e.loaders = [resource.NumKinds]loader{
		resource.Container: e.loadContainers,
		resource.Image:     e.loadImages,
		resource.Volume:    e.loadVolumes,
		resource.Network:   e.loadNetworks,
	}
	return e
}

// Read returns the current snapshot of kind. A fresh slot is served without
// touching the runtime. A stale slot is refetched; concurrent readers of the
// same slot share one fetch. On failure the cache is left as it was.
func (e *Engine) Read(ctx context.Context, kind resource.Kind) ([]resource.Record, error) {
	if !kind.Valid() {
		return nil, errors.New(errors.ErrFetch, fmt.Sprintf("Unknown resource kind %d", int(kind)), "")
	}

	data, fresh, epoch := e.cache.Lookup(kind)
	if fresh {
		return data, nil
	}

	// The epoch is part of the key so a read that follows an invalidation
	// never joins a fetch that started before it.
	key := fmt.Sprintf("%s@%d", kind, epoch)
	fetchCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (interface{}, error) {
		return e.fetch(fetchCtx, kind, epoch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]resource.Record), nil
	case <-ctx.Done():
		return nil, errors.WrapBackend(ctx.Err(), errors.ErrFetch,
			fmt.Sprintf("Stopped waiting for %s", kind), "")
	}
}

func (e *Engine) fetch(ctx context.Context, kind resource.Kind, epoch uint64) ([]resource.Record, error) {
	start := time.Now()
	records, err := e.loaders[kind](ctx)
	if err != nil {
		e.log.Warn("fetch %s failed: %v", kind, err)
		return nil, errors.WrapBackend(err, errors.ErrFetch,
			fmt.Sprintf("Couldn't list %s", kind), suggestion(err, kind, "The next refresh will retry."))
	}

	if !e.cache.SetIfEpoch(kind, records, epoch) {
		e.log.Debug("discarded %s snapshot: invalidated during fetch", kind)
	}
	e.log.Debug("fetched %d %s in %s", len(records), kind, time.Since(start).Round(time.Millisecond))
	return records, nil
}

// call runs fn with the per-call deadline.
func (e *Engine) call(ctx context.Context, extra time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout+extra)
	defer cancel()
	return fn(ctx)
}

func (e *Engine) loadContainers(ctx context.Context) ([]resource.Record, error) {
	var list []runtime.Container
	err := e.call(ctx, 0, func(ctx context.Context) error {
		var err error
		list, err = e.gw.ListContainers(ctx, e.allContainers)
		return err
	})
	if err != nil {
		return nil, err
	}

	results := make([]metrics.StatResult, len(list))
	var g errgroup.Group
	g.SetLimit(e.statsConcurrency)
	for i, c := range list {
		if c.State != "running" {
			continue
		}
		g.Go(func() error {
			results[i] = e.sample(ctx, c.ID)
			return nil
		})
	}
	_ = g.Wait()

	records := make([]resource.Record, 0, len(list))
	for i, c := range list {
		records = append(records, containerRecord(c, results[i]))
	}
	return records, nil
}

// sample takes one stats reading. A failure is absorbed into the result so
// one container can't fail the whole listing.
func (e *Engine) sample(ctx context.Context, id string) metrics.StatResult {
	var s metrics.Sample
	err := e.call(ctx, 0, func(ctx context.Context) error {
		var err error
		s, err = e.gw.ContainerStats(ctx, id)
		return err
	})
	if err != nil {
		e.log.Debug("stats for %s unavailable: %v", resource.ShortID(id), err)
		return metrics.Degrade(err)
	}
	return metrics.Succeed(s)
}

func containerRecord(c runtime.Container, stat metrics.StatResult) resource.ContainerRecord {
	return resource.ContainerRecord{
		ID:               resource.ShortID(c.ID),
		FullID:           c.ID,
		Name:             c.Name,
		Status:           c.State,
		Image:            resource.PrimaryTag(c.ImageTags),
		Ports:            resource.FormatPorts(c.Ports),
		CPUPercent:       stat.CPUPercent,
		MemoryMB:         stat.MemoryMB,
		MemoryPercent:    stat.MemoryPercent,
		Created:          resource.FormatTimestamp(c.Created),
		Labels:           c.Labels,
		StatsUnavailable: stat.Failed(),
	}
}

func (e *Engine) loadImages(ctx context.Context) ([]resource.Record, error) {
	var list []runtime.Image
	err := e.call(ctx, 0, func(ctx context.Context) error {
		var err error
		list, err = e.gw.ListImages(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]resource.Record, 0, len(list))
	for _, img := range list {
		records = append(records, resource.ImageRecord{
			ID:      resource.ShortID(img.ID),
			FullID:  img.ID,
			Tags:    resource.ImageTags(img.Tags),
			SizeMB:  metrics.SizeMB(img.Size),
			Created: resource.FormatTimestamp(img.Created),
		})
	}
	return records, nil
}

func (e *Engine) loadVolumes(ctx context.Context) ([]resource.Record, error) {
	var list []runtime.Volume
	err := e.call(ctx, 0, func(ctx context.Context) error {
		var err error
		list, err = e.gw.ListVolumes(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]resource.Record, 0, len(list))
	for _, v := range list {
		created := v.CreatedAt
		if created == "" {
			created = resource.UnknownTime
		}
		records = append(records, resource.VolumeRecord{
			Name:       v.Name,
			Driver:     v.Driver,
			Mountpoint: v.Mountpoint,
			Created:    created,
		})
	}
	return records, nil
}

func (e *Engine) loadNetworks(ctx context.Context) ([]resource.Record, error) {
	var list []runtime.Network
	err := e.call(ctx, 0, func(ctx context.Context) error {
		var err error
		list, err = e.gw.ListNetworks(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]resource.Record, 0, len(list))
	for _, n := range list {
		records = append(records, resource.NetworkRecord{
			ID:      resource.ShortID(n.ID),
			FullID:  n.ID,
			Name:    n.Name,
			Driver:  n.Driver,
			Created: resource.FormatTimestamp(n.Created),
		})
	}
	return records, nil
}

// Mutate runs a lifecycle command. On success the kind's slot is
// invalidated so the next read refetches; on failure the cache is untouched.
func (e *Engine) Mutate(ctx context.Context, a Action) error {
	if a.ID == "" {
		return errors.New(errors.ErrMutate, fmt.Sprintf("No %s selected", a.Kind.Singular()), "")
	}
	if !a.Supported() {
		return errors.New(errors.ErrMutate,
			fmt.Sprintf("Can't %s %s", a.Op, a.Kind),
			fmt.Sprintf("Only containers can be started, stopped or restarted. %s support remove.", a.Kind.Title()))
	}

	err := e.call(ctx, e.graceFor(a.Op), func(ctx context.Context) error {
		return e.dispatch(ctx, a)
	})
	if err != nil {
		e.log.Warn("%s failed: %v", a.Describe(""), err)
		return errors.WrapBackend(err, errors.ErrMutate,
			fmt.Sprintf("Couldn't %s", a.Describe("")), suggestion(err, a.Kind, ""))
	}

	e.cache.Invalidate(a.Kind)
	e.log.Info("%s ok", a.Describe(""))
	return nil
}

// graceFor extends the call deadline past the daemon's stop grace period.
func (e *Engine) graceFor(op Op) time.Duration {
	if op == OpStop || op == OpRestart {
		return e.stopTimeout
	}
	return 0
}

func (e *Engine) dispatch(ctx context.Context, a Action) error {
	switch a.Op {
	case OpStart:
		return e.gw.StartContainer(ctx, a.ID)
	case OpStop:
		return e.gw.StopContainer(ctx, a.ID, e.stopTimeout)
	case OpRestart:
		return e.gw.RestartContainer(ctx, a.ID, e.stopTimeout)
	}

	switch a.Kind {
	case resource.Container:
		return e.gw.RemoveContainer(ctx, a.ID, a.Force)
	case resource.Image:
		return e.gw.RemoveImage(ctx, a.ID, a.Force)
	case resource.Volume:
		return e.gw.RemoveVolume(ctx, a.ID, a.Force)
	case resource.Network:
		return e.gw.RemoveNetwork(ctx, a.ID)
	}
	return fmt.Errorf("unsupported action %s", a.Describe(""))
}

// Logs returns the tail of a container's output. Logs are never cached.
func (e *Engine) Logs(ctx context.Context, id string, tail int) (string, error) {
	var out string
	err := e.call(ctx, 0, func(ctx context.Context) error {
		var err error
		out, err = e.gw.ContainerLogs(ctx, id, tail)
		return err
	})
	if err != nil {
		return "", errors.WrapBackend(err, errors.ErrFetch,
			fmt.Sprintf("Couldn't read logs of container %s", resource.ShortID(id)),
			suggestion(err, resource.Container, ""))
	}
	return out, nil
}

// Refresh discards the kind's cached snapshot and reads it again.
func (e *Engine) Refresh(ctx context.Context, kind resource.Kind) ([]resource.Record, error) {
	e.cache.Invalidate(kind)
	return e.Read(ctx, kind)
}

// Invalidate marks a kind stale without reading it.
func (e *Engine) Invalidate(kind resource.Kind) {
	e.cache.Invalidate(kind)
}

// Cached returns the last snapshot of kind and when it was taken,
// regardless of freshness. The time is zero if nothing was ever fetched.
func (e *Engine) Cached(kind resource.Kind) ([]resource.Record, time.Time) {
	return e.cache.Snapshot(kind)
}

// Close closes the runtime connection.
func (e *Engine) Close() error {
	return e.gw.Close()
}

// Containers is Read(Container) with typed records.
func (e *Engine) Containers(ctx context.Context) ([]resource.ContainerRecord, error) {
	return readTyped[resource.ContainerRecord](ctx, e, resource.Container)
}

// Images is Read(Image) with typed records.
func (e *Engine) Images(ctx context.Context) ([]resource.ImageRecord, error) {
	return readTyped[resource.ImageRecord](ctx, e, resource.Image)
}

// Volumes is Read(Volume) with typed records.
func (e *Engine) Volumes(ctx context.Context) ([]resource.VolumeRecord, error) {
	return readTyped[resource.VolumeRecord](ctx, e, resource.Volume)
}

// Networks is Read(Network) with typed records.
func (e *Engine) Networks(ctx context.Context) ([]resource.NetworkRecord, error) {
	return readTyped[resource.NetworkRecord](ctx, e, resource.Network)
}

func readTyped[T resource.Record](ctx context.Context, e *Engine, kind resource.Kind) ([]T, error) {
	records, err := e.Read(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out, nil
}
