// Package runtime is the boundary between dockman and the container runtime.
// Gateway is the narrow set of calls the engine makes; Docker implements it
// against a local Docker Engine.
package runtime

import (
	"context"
	"time"

	"github.com/docker/go-connections/nat"

	"github.com/dockman-dev/dockman/internal/metrics"
)

// Gateway defines the runtime operations dockman relies on.
// Both the Docker adapter and test fakes satisfy this interface.
//
// Every call may block on the runtime and honors ctx cancellation and
// deadlines. Errors are returned as the runtime reported them; callers
// classify and wrap them.
type Gateway interface {
	// ListContainers returns running containers, or all of them when all is set.
	ListContainers(ctx context.Context, all bool) ([]Container, error)

	// ContainerStats returns one non-streaming stats reading.
	ContainerStats(ctx context.Context, id string) (metrics.Sample, error)

	ListImages(ctx context.Context) ([]Image, error)
	ListVolumes(ctx context.Context) ([]Volume, error)
	ListNetworks(ctx context.Context) ([]Network, error)

	StartContainer(ctx context.Context, id string) error
	// StopContainer asks the runtime to stop id, killing it after grace.
	StopContainer(ctx context.Context, id string, grace time.Duration) error
	RestartContainer(ctx context.Context, id string, grace time.Duration) error
	RemoveContainer(ctx context.Context, id string, force bool) error

	RemoveImage(ctx context.Context, id string, force bool) error
	RemoveVolume(ctx context.Context, name string, force bool) error
	RemoveNetwork(ctx context.Context, id string) error

	// ContainerLogs returns the last tail lines of combined stdout/stderr.
	ContainerLogs(ctx context.Context, id string, tail int) (string, error)

	// Close releases the connection to the runtime.
	Close() error
}

// Container is a container as the runtime lists it.
type Container struct {
	ID        string
	Name      string
	State     string
	ImageTags []string
	Ports     nat.PortMap
	// Created is an ISO-8601 timestamp.
	Created string
	Labels  map[string]string
}

// Image is an image as the runtime lists it.
type Image struct {
	ID      string
	Tags    []string
	Size    int64
	Created string
}

// Volume is a volume as the runtime lists it. CreatedAt is whatever string
// the volume driver reported.
type Volume struct {
	Name       string
	Driver     string
	Mountpoint string
	CreatedAt  string
}

// Network is a network as the runtime lists it.
type Network struct {
	ID      string
	Name    string
	Driver  string
	Created string
}
