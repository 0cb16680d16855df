// Package testing provides test doubles for the runtime package.
package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/containerd/errdefs"

	"github.com/dockman-dev/dockman/internal/metrics"
	"github.com/dockman-dev/dockman/internal/runtime"
)

// Gateway method names, for SetError, Calls and Block.
const (
	MethodListContainers   = "ListContainers"
	MethodContainerStats   = "ContainerStats"
	MethodListImages       = "ListImages"
	MethodListVolumes      = "ListVolumes"
	MethodListNetworks     = "ListNetworks"
	MethodStartContainer   = "StartContainer"
	MethodStopContainer    = "StopContainer"
	MethodRestartContainer = "RestartContainer"
	MethodRemoveContainer  = "RemoveContainer"
	MethodRemoveImage      = "RemoveImage"
	MethodRemoveVolume     = "RemoveVolume"
	MethodRemoveNetwork    = "RemoveNetwork"
	MethodContainerLogs    = "ContainerLogs"
)

// Mutation records a lifecycle call the fake received.
type Mutation struct {
	Method string
	ID     string
	Force  bool
	Grace  time.Duration
}

// FakeGateway is an in-memory runtime. Lifecycle calls change its state the
// way a daemon would, so a read after a mutation observes the effect.
type FakeGateway struct {
	mu         sync.Mutex
	containers []runtime.Container
	images     []runtime.Image
	volumes    []runtime.Volume
	networks   []runtime.Network
	stats      map[string]metrics.Sample
	statErrs   map[string]error
	logs       map[string]string
	errs       map[string]error
	gates      map[string]chan struct{}
	entered    map[string]chan struct{}
	calls      map[string]int
	mutations  []Mutation
	closed     bool
}

// NewFakeGateway creates an empty fake runtime.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		stats:    make(map[string]metrics.Sample),
		statErrs: make(map[string]error),
		logs:     make(map[string]string),
		errs:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		entered:  make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

// AddContainer adds a container with its stats sample.
func (f *FakeGateway) AddContainer(c runtime.Container, s metrics.Sample) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers = append(f.containers, c)
	f.stats[c.ID] = s
	return f
}

// AddImage adds an image.
func (f *FakeGateway) AddImage(img runtime.Image) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, img)
	return f
}

// AddVolume adds a volume.
func (f *FakeGateway) AddVolume(v runtime.Volume) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = append(f.volumes, v)
	return f
}

// AddNetwork adds a network.
func (f *FakeGateway) AddNetwork(n runtime.Network) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.networks = append(f.networks, n)
	return f
}

// SetLogs sets what ContainerLogs returns for id.
func (f *FakeGateway) SetLogs(id, logs string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[id] = logs
}

// FailStats makes ContainerStats fail for one container.
func (f *FakeGateway) FailStats(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statErrs[id] = err
}

// SetError makes every call to method fail with err. A nil err clears it.
func (f *FakeGateway) SetError(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Block holds calls to method until the returned release func runs or the
// call's context ends. Entered receives a value each time a call arrives.
func (f *FakeGateway) Block(method string) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[method] = gate
	if f.entered[method] == nil {
		f.entered[method] = make(chan struct{}, 64)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gates[method] == gate {
				delete(f.gates, method)
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Entered signals calls to a method set up with Block.
func (f *FakeGateway) Entered(method string) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entered[method] == nil {
		f.entered[method] = make(chan struct{}, 64)
	}
	return f.entered[method]
}

// Calls returns how many times method was invoked.
func (f *FakeGateway) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Mutations returns the lifecycle calls received so far.
func (f *FakeGateway) Mutations() []Mutation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Mutation, len(f.mutations))
	copy(out, f.mutations)
	return out
}

// Closed reports whether Close was called.
func (f *FakeGateway) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// enter counts the call, signals Entered, waits on a Block gate and returns
// any configured error.
func (f *FakeGateway) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	gate := f.gates[method]
	entered := f.entered[method]
	err := f.errs[method]
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func notFound(kind, id string) error {
	return fmt.Errorf("No such %s: %s: %w", kind, id, errdefs.ErrNotFound)
}

func (f *FakeGateway) ListContainers(ctx context.Context, all bool) ([]runtime.Container, error) {
	if err := f.enter(ctx, MethodListContainers); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runtime.Container, 0, len(f.containers))
	for _, c := range f.containers {
		if all || c.State == "running" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *FakeGateway) ContainerStats(ctx context.Context, id string) (metrics.Sample, error) {
	if err := f.enter(ctx, MethodContainerStats); err != nil {
		return metrics.Sample{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statErrs[id]; err != nil {
		return metrics.Sample{}, err
	}
	s, ok := f.stats[id]
	if !ok {
		return metrics.Sample{}, notFound("container", id)
	}
	return s, nil
}

func (f *FakeGateway) ListImages(ctx context.Context) ([]runtime.Image, error) {
	if err := f.enter(ctx, MethodListImages); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runtime.Image(nil), f.images...), nil
}

func (f *FakeGateway) ListVolumes(ctx context.Context) ([]runtime.Volume, error) {
	if err := f.enter(ctx, MethodListVolumes); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runtime.Volume(nil), f.volumes...), nil
}

func (f *FakeGateway) ListNetworks(ctx context.Context) ([]runtime.Network, error) {
	if err := f.enter(ctx, MethodListNetworks); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runtime.Network(nil), f.networks...), nil
}

// setState changes a container's state. Callers hold f.mu.
func (f *FakeGateway) setState(id, state string) error {
	for i := range f.containers {
		if f.containers[i].ID == id {
			f.containers[i].State = state
			return nil
		}
	}
	return notFound("container", id)
}

func (f *FakeGateway) record(m Mutation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, m)
}

func (f *FakeGateway) StartContainer(ctx context.Context, id string) error {
	f.record(Mutation{Method: MethodStartContainer, ID: id})
	if err := f.enter(ctx, MethodStartContainer); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setState(id, "running")
}

func (f *FakeGateway) StopContainer(ctx context.Context, id string, grace time.Duration) error {
	f.record(Mutation{Method: MethodStopContainer, ID: id, Grace: grace})
	if err := f.enter(ctx, MethodStopContainer); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setState(id, "exited")
}

func (f *FakeGateway) RestartContainer(ctx context.Context, id string, grace time.Duration) error {
	f.record(Mutation{Method: MethodRestartContainer, ID: id, Grace: grace})
	if err := f.enter(ctx, MethodRestartContainer); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setState(id, "running")
}

func (f *FakeGateway) RemoveContainer(ctx context.Context, id string, force bool) error {
	f.record(Mutation{Method: MethodRemoveContainer, ID: id, Force: force})
	if err := f.enter(ctx, MethodRemoveContainer); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.containers {
		if c.ID != id {
			continue
		}
		if c.State == "running" && !force {
			return fmt.Errorf("cannot remove container %s: container is running: stop the container before removing or force remove: %w", id, errdefs.ErrConflict)
		}
		f.containers = append(f.containers[:i], f.containers[i+1:]...)
		delete(f.stats, id)
		return nil
	}
	return notFound("container", id)
}

func (f *FakeGateway) RemoveImage(ctx context.Context, id string, force bool) error {
	f.record(Mutation{Method: MethodRemoveImage, ID: id, Force: force})
	if err := f.enter(ctx, MethodRemoveImage); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, img := range f.images {
		if img.ID == id {
			f.images = append(f.images[:i], f.images[i+1:]...)
			return nil
		}
	}
	return notFound("image", id)
}

func (f *FakeGateway) RemoveVolume(ctx context.Context, name string, force bool) error {
	f.record(Mutation{Method: MethodRemoveVolume, ID: name, Force: force})
	if err := f.enter(ctx, MethodRemoveVolume); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, v := range f.volumes {
		if v.Name == name {
			f.volumes = append(f.volumes[:i], f.volumes[i+1:]...)
			return nil
		}
	}
	return notFound("volume", name)
}

func (f *FakeGateway) RemoveNetwork(ctx context.Context, id string) error {
	f.record(Mutation{Method: MethodRemoveNetwork, ID: id})
	if err := f.enter(ctx, MethodRemoveNetwork); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.networks {
		if n.ID == id {
			f.networks = append(f.networks[:i], f.networks[i+1:]...)
			return nil
		}
	}
	return notFound("network", id)
}

func (f *FakeGateway) ContainerLogs(ctx context.Context, id string, tail int) (string, error) {
	if err := f.enter(ctx, MethodContainerLogs); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	logs, ok := f.logs[id]
	if !ok {
		return "", notFound("container", id)
	}
	return logs, nil
}

func (f *FakeGateway) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

var _ runtime.Gateway = (*FakeGateway)(nil)
